// Copyright 2025 MarketLounge
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package lexical provides an in-memory term index over concept labels and
// synonyms. The index is built once from a corpus snapshot and is immutable
// afterwards; catalog changes are handled by building a fresh index.
package lexical

import (
	"sort"
	"strings"

	"github.com/marketlounge/matchcore/core"
	"github.com/xrash/smetrics"
)

const (
	// ScoreExact is assigned when the normalized query equals an indexed term.
	ScoreExact = 1.0
	// ScoreSubstring is assigned on containment either way between query and term.
	ScoreSubstring = 0.85
	// scorePartialCeil caps token-overlap and fuzzy scores below substring
	// matches so containment always outranks approximation.
	scorePartialCeil = 0.84
	// fuzzyThreshold is the minimum Jaro-Winkler similarity considered a match.
	fuzzyThreshold = 0.88
)

// Hit is one lexical match for a query.
type Hit struct {
	ConceptId core.ID
	Score     float32
	Exact     bool
}

type entry struct {
	conceptId core.ID
	term      string
	tokens    map[string]struct{}
}

// Index matches normalized query text against concept labels and synonyms.
type Index struct {
	entries []entry
}

// New builds an index from a corpus snapshot. Every label and synonym in
// every language becomes one normalized term.
func New(concepts []*core.Concept) *Index {
	idx := &Index{}
	for _, concept := range concepts {
		for _, label := range concept.Labels {
			idx.add(concept.Id, label)
		}
		for _, synonyms := range concept.Synonyms {
			for _, synonym := range synonyms {
				idx.add(concept.Id, synonym)
			}
		}
	}
	return idx
}

func (idx *Index) add(id core.ID, text string) {
	term := core.NormalizeText(text)
	if term == "" {
		return
	}
	tokens := make(map[string]struct{})
	for _, tok := range core.Tokenize(term) {
		tokens[tok] = struct{}{}
	}
	idx.entries = append(idx.entries, entry{conceptId: id, term: term, tokens: tokens})
}

// Len returns the number of indexed terms.
func (idx *Index) Len() int {
	return len(idx.entries)
}

// Search scores the normalized query against every indexed term and returns
// the best hit per concept, sorted by descending score with ties broken by
// ascending concept id.
func (idx *Index) Search(normalizedQuery string) []Hit {
	if normalizedQuery == "" {
		return nil
	}

	queryTokens := make(map[string]struct{})
	for _, tok := range core.Tokenize(normalizedQuery) {
		queryTokens[tok] = struct{}{}
	}

	best := make(map[core.ID]Hit)
	for _, e := range idx.entries {
		score, exact := scoreTerm(normalizedQuery, queryTokens, e)
		if score <= 0 {
			continue
		}
		prev, ok := best[e.conceptId]
		if !ok || score > prev.Score || (score == prev.Score && exact && !prev.Exact) {
			best[e.conceptId] = Hit{ConceptId: e.conceptId, Score: score, Exact: exact}
		}
	}

	hits := make([]Hit, 0, len(best))
	for _, hit := range best {
		hits = append(hits, hit)
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ConceptId < hits[j].ConceptId
	})
	return hits
}

func scoreTerm(query string, queryTokens map[string]struct{}, e entry) (float32, bool) {
	if query == e.term {
		return ScoreExact, true
	}
	if strings.Contains(e.term, query) || strings.Contains(query, e.term) {
		return ScoreSubstring, false
	}

	score := tokenOverlap(queryTokens, e.tokens)
	if jw := smetrics.JaroWinkler(query, e.term, 0.7, 4); jw >= fuzzyThreshold && jw > score {
		score = jw
	}
	if score <= 0 {
		return 0, false
	}
	return float32(scorePartialCeil * score), false
}

// tokenOverlap is the Jaccard similarity of the two token sets.
func tokenOverlap(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	shared := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			shared++
		}
	}
	if shared == 0 {
		return 0
	}
	union := len(a) + len(b) - shared
	return float64(shared) / float64(union)
}
