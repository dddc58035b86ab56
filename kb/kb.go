package kb

import (
	"fmt"
	"slices"
)

// Entry is the knowledge base record for one agent.
type Entry struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Context   string   `json:"context"`
	Examples  []string `json:"examples,omitempty"`
	IsDefault bool     `json:"is_default,omitempty"`
}

func (e Entry) clone() Entry {
	e.Examples = slices.Clone(e.Examples)
	return e
}

// KnowledgeBase is an immutable, ordered snapshot of agent entries. All
// methods are safe for concurrent use.
type KnowledgeBase struct {
	entries    []Entry
	index      map[string]int
	defaultIdx int
	source     string
}

// Get returns the entry with the given identifier. Lookup is exact and
// case-sensitive; unknown identifiers yield an error wrapping ErrNotFound.
func (kb *KnowledgeBase) Get(id string) (Entry, error) {
	i, ok := kb.index[id]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return kb.entries[i].clone(), nil
}

// Default returns the resolved fallback entry.
func (kb *KnowledgeBase) Default() Entry {
	return kb.entries[kb.defaultIdx].clone()
}

// Entries returns a copy of all entries in document order.
func (kb *KnowledgeBase) Entries() []Entry {
	out := make([]Entry, len(kb.entries))
	for i, e := range kb.entries {
		out[i] = e.clone()
	}
	return out
}

// IDs returns the entry identifiers in document order.
func (kb *KnowledgeBase) IDs() []string {
	ids := make([]string, len(kb.entries))
	for i, e := range kb.entries {
		ids[i] = e.ID
	}
	return ids
}

// Len returns the number of entries.
func (kb *KnowledgeBase) Len() int { return len(kb.entries) }

// Source returns the path the snapshot was loaded from, or "" when it was
// built from bytes or values.
func (kb *KnowledgeBase) Source() string { return kb.source }
