// Package core defines the shared domain types and store contracts used by
// the assistant: journal and conversation entries, drafts, the seen-item set,
// execution results and the narrow interfaces every persistence backend must
// satisfy. Concrete stores live in store/memory and store/sqlite.
package core
