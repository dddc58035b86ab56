package testutil

import (
	"testing"

	"github.com/hupe1980/agentrouter/kb"
)

// KBBuilder provides a fluent helper for constructing knowledge bases in tests.
// Example:
//
//	base := NewKBBuilder().Agent("billing", "You handle refunds.", "refund").Default("billing").Build(t)
type KBBuilder struct {
	entries []kb.Entry
	def     string
}

// NewKBBuilder creates an empty builder.
func NewKBBuilder() *KBBuilder { return &KBBuilder{} }

// Agent appends an entry whose name equals its id (chainable).
func (b *KBBuilder) Agent(id, context string, examples ...string) *KBBuilder {
	return b.Entry(kb.Entry{ID: id, Context: context, Examples: examples})
}

// Entry appends a fully specified entry (chainable).
func (b *KBBuilder) Entry(e kb.Entry) *KBBuilder {
	b.entries = append(b.entries, e)
	return b
}

// Default sets the configured fallback agent (chainable).
func (b *KBBuilder) Default(id string) *KBBuilder {
	b.def = id
	return b
}

// Build constructs the knowledge base and fails the test on error.
func (b *KBBuilder) Build(t testing.TB) *kb.KnowledgeBase {
	t.Helper()
	base, err := kb.New(b.entries, func(o *kb.Options) { o.DefaultAgent = b.def })
	if err != nil {
		t.Fatalf("testutil: build knowledge base: %v", err)
	}
	return base
}

// BillingSupport returns the two-agent knowledge base used by router and
// server tests. Support is the fallback.
func BillingSupport(t testing.TB) *kb.KnowledgeBase {
	t.Helper()
	return NewKBBuilder().
		Entry(kb.Entry{
			ID:       "billing",
			Name:     "Billing Assistant",
			Context:  "You handle invoices, payments and refunds.",
			Examples: []string{"refund", "invoice", "charged twice"},
		}).
		Entry(kb.Entry{
			ID:       "support",
			Name:     "Support Assistant",
			Context:  "You help with bugs, crashes and error messages.",
			Examples: []string{"bug", "error", "crash"},
		}).
		Default("support").
		Build(t)
}
