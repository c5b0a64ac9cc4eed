// Package model defines the normalized request/response structures exchanged
// with language-model providers and the minimal Model interface the runtime
// depends on. Provider adapters live in subpackages (openai, anthropic).
package model
