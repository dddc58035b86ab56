// Package router resolves an agent request to exactly one knowledge base
// entry, asks the model for an answer with that entry's context and shapes
// the result.
//
// Every Route call is an independent transaction:
//
//	Validate -> Select -> Assemble -> Invoke -> Map
//
// Selection honors an explicit agent hint (unknown hints fail with
// *UnknownAgentError, they never fall back). Without a hint each entry is
// scored against the query with ScoreEntry; the highest score at or above
// Options.MinScore wins, ties go to the earliest entry in knowledge base
// order, and when nothing qualifies the knowledge base default is used.
//
// Model failures surface as *UpstreamError. The router never retries.
package router
