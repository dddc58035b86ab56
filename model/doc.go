// Package model defines the provider‑agnostic completion boundary used by
// the agent router, plus a MockModel for tests.
//
// Core goals:
//   - A single blocking Generate call taking instructions + prompt
//   - Provider HTTP failures surfaced as *APIError carrying the status code,
//     so callers can classify them without importing vendor SDKs
//   - Lightweight mocking with call counting (MockModel)
//
// Providers (e.g. OpenAI, Anthropic) live in subpackages and implement the
// Model interface from this package.
package model
