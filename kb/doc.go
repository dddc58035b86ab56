// Package kb loads and serves the static knowledge base: one Entry per agent
// with the context text used to steer the model and the example query
// patterns used for implicit routing.
//
// A KnowledgeBase is an immutable snapshot built once at startup by Load (or
// Parse). It keeps document order, which the router uses to break scoring
// ties, and resolves exactly one fallback entry:
//
//  1. the single entry flagged "is_default": true
//  2. otherwise the document level "default" id
//  3. otherwise Options.DefaultAgent
//
// Anything else (no entries, no default, two flagged entries, a default that
// names a missing id) fails the load. There is no implicit "first entry" rule.
package kb
