package kb

import (
	"fmt"
	"os"
	"strings"

	"github.com/hupe1980/agentrouter/logging"
	"github.com/tidwall/gjson"
)

// Options configures loading.
type Options struct {
	// DefaultAgent names the fallback entry when no entry is flagged
	// is_default and the document has no top-level "default".
	DefaultAgent string
	// Logger receives a summary line after a successful load.
	Logger logging.Logger
}

// Load reads and parses the knowledge base document at path.
//
// Three document shapes are accepted:
//
//	[ {"id": "billing", ...}, ... ]
//	{ "billing": {...}, "support": {...} }
//	{ "default": "support", "agents": [ ... ] | { ... } }
//
// Missing files and malformed documents yield *LoadError; an unresolvable
// fallback yields *ConfigError.
func Load(path string, optFns ...func(o *Options)) (*KnowledgeBase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Index: -1, Reason: "reading document", Err: err}
	}
	return parse(path, data, optFns...)
}

// Parse builds a KnowledgeBase from an in-memory document using the same
// rules as Load.
func Parse(data []byte, optFns ...func(o *Options)) (*KnowledgeBase, error) {
	return parse("", data, optFns...)
}

// New builds a KnowledgeBase from entries in the given order, applying the
// same validation and fallback rules as Load.
func New(entries []Entry, optFns ...func(o *Options)) (*KnowledgeBase, error) {
	normalized := make([]Entry, 0, len(entries))
	for i, e := range entries {
		n, err := normalizeEntry("", i, e)
		if err != nil {
			return nil, err
		}
		normalized = append(normalized, n)
	}
	return build("", normalized, "", newOptions(optFns))
}

func newOptions(optFns []func(o *Options)) Options {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return opts
}

func parse(path string, data []byte, optFns ...func(o *Options)) (*KnowledgeBase, error) {
	opts := newOptions(optFns)

	if !gjson.ValidBytes(data) {
		return nil, &LoadError{Path: path, Index: -1, Reason: "document is not valid JSON"}
	}

	doc := gjson.ParseBytes(data)
	list := doc

	var docDefault string
	if isEnvelope(doc) {
		list = doc.Get("agents")
		if d := doc.Get("default"); d.Exists() && d.Type != gjson.Null {
			if d.Type != gjson.String {
				return nil, &LoadError{Path: path, Index: -1, Field: "default", Reason: "must be a string"}
			}
			docDefault = strings.TrimSpace(d.Str)
		}
	}

	var entries []Entry
	switch {
	case list.IsArray():
		for i, item := range list.Array() {
			e, err := parseEntry(path, i, "", item)
			if err != nil {
				return nil, err
			}
			entries = append(entries, e)
		}
	case list.IsObject():
		var (
			i       int
			loopErr error
		)
		list.ForEach(func(key, value gjson.Result) bool {
			e, err := parseEntry(path, i, key.String(), value)
			if err != nil {
				loopErr = err
				return false
			}
			entries = append(entries, e)
			i++
			return true
		})
		if loopErr != nil {
			return nil, loopErr
		}
	default:
		return nil, &LoadError{Path: path, Index: -1, Reason: "top-level value must be an array or an object of entries"}
	}

	return build(path, entries, docDefault, opts)
}

// isEnvelope reports whether doc is {"agents": ..., "default": ...} rather
// than an id -> entry mapping.
func isEnvelope(doc gjson.Result) bool {
	if !doc.IsObject() {
		return false
	}
	agents := doc.Get("agents")
	switch {
	case agents.IsArray():
	case agents.IsObject():
		// A mapping entry with id "agents" has scalar fields such as
		// context; an envelope's agents object holds only entry objects.
		allObjects := true
		agents.ForEach(func(_, value gjson.Result) bool {
			allObjects = value.IsObject()
			return allObjects
		})
		if !allObjects {
			return false
		}
	default:
		return false
	}
	envelope := true
	doc.ForEach(func(key, value gjson.Result) bool {
		switch key.String() {
		case "agents":
		case "default":
			if value.Type != gjson.String && value.Type != gjson.Null {
				envelope = false
			}
		default:
			envelope = false
		}
		return envelope
	})
	return envelope
}

func parseEntry(path string, index int, key string, v gjson.Result) (Entry, error) {
	fail := func(field, reason string) (Entry, error) {
		return Entry{}, &LoadError{Path: path, Index: index, Field: field, Reason: reason}
	}

	if !v.IsObject() {
		return fail("", "entry must be an object")
	}

	var e Entry

	id := v.Get("id")
	switch {
	case key != "":
		if id.Exists() && id.Type != gjson.Null {
			if id.Type != gjson.String || strings.TrimSpace(id.Str) != strings.TrimSpace(key) {
				return fail("id", fmt.Sprintf("does not match mapping key %q", key))
			}
		}
		e.ID = key
	case id.Type == gjson.String:
		e.ID = id.Str
	case id.Exists() && id.Type != gjson.Null:
		return fail("id", "must be a string")
	}

	if name := v.Get("name"); name.Exists() && name.Type != gjson.Null {
		if name.Type != gjson.String {
			return fail("name", "must be a string")
		}
		e.Name = name.Str
	}

	if ctx := v.Get("context"); ctx.Exists() && ctx.Type != gjson.Null {
		if ctx.Type != gjson.String {
			return fail("context", "must be a string")
		}
		e.Context = ctx.Str
	}

	if ex := v.Get("examples"); ex.Exists() && ex.Type != gjson.Null {
		if !ex.IsArray() {
			return fail("examples", "must be an array of strings")
		}
		for _, item := range ex.Array() {
			if item.Type != gjson.String {
				return fail("examples", "must be an array of strings")
			}
			e.Examples = append(e.Examples, item.Str)
		}
	}

	if def := v.Get("is_default"); def.Exists() && def.Type != gjson.Null {
		if def.Type != gjson.True && def.Type != gjson.False {
			return fail("is_default", "must be a boolean")
		}
		e.IsDefault = def.Bool()
	}

	return normalizeEntry(path, index, e)
}

// normalizeEntry trims text fields, enforces required fields and drops blank
// example patterns.
func normalizeEntry(path string, index int, e Entry) (Entry, error) {
	e.ID = strings.TrimSpace(e.ID)
	if e.ID == "" {
		return Entry{}, &LoadError{Path: path, Index: index, Field: "id", Reason: "required and must be non-empty"}
	}

	e.Context = strings.TrimSpace(e.Context)
	if e.Context == "" {
		return Entry{}, &LoadError{Path: path, Index: index, Field: "context", Reason: "required and must be non-empty"}
	}

	e.Name = strings.TrimSpace(e.Name)
	if e.Name == "" {
		e.Name = e.ID
	}

	examples := make([]string, 0, len(e.Examples))
	for _, ex := range e.Examples {
		if ex = strings.TrimSpace(ex); ex != "" {
			examples = append(examples, ex)
		}
	}
	e.Examples = examples

	return e, nil
}

func build(path string, entries []Entry, docDefault string, opts Options) (*KnowledgeBase, error) {
	kb := &KnowledgeBase{
		entries: entries,
		index:   make(map[string]int, len(entries)),
		source:  path,
	}

	flagged := ""
	for i, e := range entries {
		if first, dup := kb.index[e.ID]; dup {
			return nil, &LoadError{
				Path:   path,
				Index:  i,
				Field:  "id",
				Reason: fmt.Sprintf("duplicate identifier %q (first defined by entry %d)", e.ID, first),
			}
		}
		kb.index[e.ID] = i

		if e.IsDefault {
			if flagged != "" {
				return nil, &LoadError{
					Path:   path,
					Index:  i,
					Field:  "is_default",
					Reason: fmt.Sprintf("%q and %q are both flagged as default", flagged, e.ID),
				}
			}
			flagged = e.ID
		}
	}

	if len(entries) == 0 {
		return nil, &ConfigError{Reason: "knowledge base has no entries, no default agent can be resolved"}
	}

	resolved := flagged
	for _, candidate := range []struct{ source, id string }{
		{"document default", docDefault},
		{"configured default", strings.TrimSpace(opts.DefaultAgent)},
	} {
		if candidate.id == "" {
			continue
		}
		if _, ok := kb.index[candidate.id]; !ok {
			return nil, &ConfigError{Reason: fmt.Sprintf("%s %q is not defined", candidate.source, candidate.id)}
		}
		if resolved == "" {
			resolved = candidate.id
			continue
		}
		if resolved != candidate.id {
			return nil, &ConfigError{Reason: fmt.Sprintf("%s %q conflicts with default %q", candidate.source, candidate.id, resolved)}
		}
	}

	if resolved == "" {
		return nil, &ConfigError{Reason: "no default agent: flag one entry with is_default or configure a default agent"}
	}
	kb.defaultIdx = kb.index[resolved]

	opts.Logger.Info("kb.loaded", "source", path, "entries", len(entries), "default", resolved)

	return kb, nil
}
