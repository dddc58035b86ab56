package router

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/hupe1980/agentrouter/kb"
)

// Scoring weights. A pattern found as a whole phrase is worth more than a
// single shared keyword.
const (
	PhraseWeight  = 3
	KeywordWeight = 1
)

var tokenRE = regexp.MustCompile(`[\p{L}\p{N}]+`)

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "to": {}, "and": {}, "or": {}, "of": {}, "in": {}, "on": {}, "for": {},
	"we": {}, "re": {}, "since": {}, "this": {}, "morning": {}, "what": {}, "should": {}, "can": {}, "you": {},
	"me": {}, "i": {}, "my": {}, "is": {}, "it": {}, "need": {}, "please": {}, "s": {}, "t": {}, "m": {},
	"ll": {}, "ve": {}, "d": {},
}

// synonyms folds variants onto one token before stopword removal.
var synonyms = map[string]string{
	"hubspot":    "crm",
	"salesforce": "crm",
	"ops":        "operations",
	"tickets":    "ticket",
	"failing":    "failed",
	"failure":    "failed",
}

// Tokenize lower-cases text, splits it into maximal letter/digit runs, folds
// synonyms and drops stopwords. Han, Hiragana and Katakana characters are
// tokens of their own since those scripts do not separate words.
func Tokenize(text string) []string {
	var out []string
	for _, run := range tokenRE.FindAllString(strings.ToLower(text), -1) {
		for _, t := range splitIdeographs(run) {
			if syn, ok := synonyms[t]; ok {
				t = syn
			}
			if _, stop := stopwords[t]; stop {
				continue
			}
			out = append(out, t)
		}
	}
	return out
}

func isIdeograph(r rune) bool {
	return unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana)
}

func splitIdeographs(run string) []string {
	if !strings.ContainsFunc(run, isIdeograph) {
		return []string{run}
	}
	var (
		out   []string
		start = -1
	)
	for i, r := range run {
		if isIdeograph(r) {
			if start >= 0 {
				out = append(out, run[start:i])
				start = -1
			}
			out = append(out, string(r))
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		out = append(out, run[start:])
	}
	return out
}

// Score is the result of scoring one entry against one query.
type Score struct {
	Value int
	// Patterns lists the example patterns that contributed, in entry order.
	Patterns []string
}

type pattern struct {
	raw    string
	tokens []string
	padded string // " tok1 tok2 "
}

type indexedEntry struct {
	entry    kb.Entry
	patterns []pattern
	vocab    map[string][]int // token -> pattern indices
}

func newIndexedEntry(e kb.Entry) indexedEntry {
	ie := indexedEntry{entry: e, vocab: map[string][]int{}}
	for _, ex := range e.Examples {
		toks := Tokenize(ex)
		if len(toks) == 0 {
			continue
		}
		pi := len(ie.patterns)
		ie.patterns = append(ie.patterns, pattern{raw: ex, tokens: toks, padded: " " + strings.Join(toks, " ") + " "})
		for _, t := range toks {
			if idx := ie.vocab[t]; len(idx) == 0 || idx[len(idx)-1] != pi {
				ie.vocab[t] = append(idx, pi)
			}
		}
	}
	return ie
}

type query struct {
	padded   string
	distinct []string
}

func newQuery(text string) query {
	toks := Tokenize(text)
	seen := make(map[string]struct{}, len(toks))
	distinct := make([]string, 0, len(toks))
	for _, t := range toks {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		distinct = append(distinct, t)
	}
	return query{padded: " " + strings.Join(toks, " ") + " ", distinct: distinct}
}

// score adds PhraseWeight for every pattern whose token sequence occurs in
// the query on token boundaries, then KeywordWeight for every distinct query
// token found in the entry's patterns that no phrase hit already covered.
func (ie indexedEntry) score(q query) Score {
	var s Score
	hit := make([]bool, len(ie.patterns))
	covered := map[string]bool{}

	for pi, p := range ie.patterns {
		if strings.Contains(q.padded, p.padded) {
			s.Value += PhraseWeight
			hit[pi] = true
			for _, t := range p.tokens {
				covered[t] = true
			}
		}
	}

	for _, t := range q.distinct {
		if covered[t] {
			continue
		}
		pis, ok := ie.vocab[t]
		if !ok {
			continue
		}
		s.Value += KeywordWeight
		covered[t] = true
		for _, pi := range pis {
			hit[pi] = true
		}
	}

	for pi, h := range hit {
		if h {
			s.Patterns = append(s.Patterns, ie.patterns[pi].raw)
		}
	}
	return s
}

// ScoreEntry scores entry against query text. It is a pure function of its
// inputs.
func ScoreEntry(entry kb.Entry, text string) Score {
	return newIndexedEntry(entry).score(newQuery(text))
}

// bestMatch returns the index of the highest scoring entry with a score of at
// least minScore, or -1. Earlier entries win ties.
func bestMatch(index []indexedEntry, q query, minScore int) (int, Score) {
	best, bestScore := -1, Score{}
	for i, ie := range index {
		s := ie.score(q)
		if s.Value < minScore {
			continue
		}
		if best == -1 || s.Value > bestScore.Value {
			best, bestScore = i, s
		}
	}
	return best, bestScore
}
