// Package search provides the in-memory token index over memory content.
//
// The index is a derived cache: it holds ids and token postings only, never
// record content, and can always be rebuilt from the store. Dropping it
// loses nothing.
package search

import (
	"strings"
	"sync"
	"unicode"
)

// Candidate is one index hit. Score is the fraction of query tokens the
// entry's tokens matched; Seq preserves insertion order for tie-breaking.
type Candidate struct {
	ID    string
	Score float64
	Seq   uint64
}

type entry struct {
	tokens []string
	seq    uint64
}

// Index maps lowercased content tokens to the ids of the memories that
// contain them. Safe for concurrent use.
type Index struct {
	mu       sync.RWMutex
	postings map[string]map[string]struct{}
	entries  map[string]*entry
	seq      uint64
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{
		postings: make(map[string]map[string]struct{}),
		entries:  make(map[string]*entry),
	}
}

// Index incorporates one record. Indexing the same id again replaces the
// previous entry, so re-indexing with identical content is a no-op and
// re-indexing with changed content never duplicates.
func (x *Index) Index(id, content string) {
	tokens := Tokenize(content)

	x.mu.Lock()
	defer x.mu.Unlock()

	seq := x.seq + 1
	if prev, ok := x.entries[id]; ok {
		seq = prev.seq
		x.dropLocked(id, prev.tokens)
	} else {
		x.seq = seq
	}

	for _, tok := range tokens {
		ids, ok := x.postings[tok]
		if !ok {
			ids = make(map[string]struct{})
			x.postings[tok] = ids
		}
		ids[id] = struct{}{}
	}
	x.entries[id] = &entry{tokens: tokens, seq: seq}
}

// Remove drops an entry from the index. Unknown ids are ignored.
func (x *Index) Remove(id string) {
	x.mu.Lock()
	defer x.mu.Unlock()

	ent, ok := x.entries[id]
	if !ok {
		return
	}
	x.dropLocked(id, ent.tokens)
	delete(x.entries, id)
}

func (x *Index) dropLocked(id string, tokens []string) {
	for _, tok := range tokens {
		if ids, ok := x.postings[tok]; ok {
			delete(ids, id)
			if len(ids) == 0 {
				delete(x.postings, tok)
			}
		}
	}
}

// Reset clears the index for a rebuild.
func (x *Index) Reset() {
	x.mu.Lock()
	x.postings = make(map[string]map[string]struct{})
	x.entries = make(map[string]*entry)
	x.seq = 0
	x.mu.Unlock()
}

// Len returns the number of indexed entries.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.entries)
}

// Search returns candidates whose tokens match the query's tokens, scored
// by the fraction of query tokens matched. A query token matches an entry
// when it is a substring of any of the entry's tokens, so the candidates
// are a superset of the entries whose content contains the query verbatim;
// callers resolve ids back to records and verify content before returning
// results. Queries with no tokens fall back to every entry.
func (x *Index) Search(query string) []Candidate {
	qtokens := Tokenize(query)

	x.mu.RLock()
	defer x.mu.RUnlock()

	if len(qtokens) == 0 {
		out := make([]Candidate, 0, len(x.entries))
		for id, ent := range x.entries {
			out = append(out, Candidate{ID: id, Seq: ent.seq})
		}
		return out
	}

	matched := make(map[string]int)
	for _, q := range qtokens {
		seen := make(map[string]struct{})
		for tok, ids := range x.postings {
			if !strings.Contains(tok, q) {
				continue
			}
			for id := range ids {
				if _, dup := seen[id]; dup {
					continue
				}
				seen[id] = struct{}{}
				matched[id]++
			}
		}
	}

	out := make([]Candidate, 0, len(matched))
	for id, n := range matched {
		out = append(out, Candidate{
			ID:    id,
			Score: float64(n) / float64(len(qtokens)),
			Seq:   x.entries[id].seq,
		})
	}
	return out
}

// Tokenize lowercases the text and splits it into distinct alphanumeric
// runs, preserving first-occurrence order.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	seen := make(map[string]struct{}, len(fields))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}
