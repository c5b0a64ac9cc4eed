// Package memory provides volatile implementations of the core store
// interfaces backed by process-local data structures. Each store owns a
// single mutex guarding its read-modify-write sequences; there are no
// cross-store transactions. Best suited for tests and ephemeral demos.
package memory
