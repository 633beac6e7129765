// Package sparse provides an in-memory inverted index with Okapi BM25
// scoring. It is the keyword companion to the dense vector indexes: the
// hybrid search power maintains one instance and fuses its ranking with
// the semantic ranking.
package sparse

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

// Default BM25 parameters.
const (
	DefaultK1 = 1.5  // term frequency saturation
	DefaultB  = 0.75 // length normalization
)

// Result is a single scored document.
type Result struct {
	ID    string
	Score float64
}

// Tokenize lowercases the input, splits on every run of characters that
// is not a word character (letter, digit, underscore), whitespace
// included, and discards tokens of length <= 1. It is stateless and shared by the
// inverted index and the built-in embedder.
func Tokenize(text string) []string {
	text = strings.ToLower(text)
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
	tokens := words[:0]
	for _, w := range words {
		if len(w) > 1 {
			tokens = append(tokens, w)
		}
	}
	return tokens
}

// BM25 is an inverted index with BM25 ranking.
//
// Invariants: the sum of docLengths equals totalDocLength, and for every
// term t, docFreq[t] equals the size of termIndex[t]. Empty postings
// lists and zero docFreq entries are dropped on removal.
type BM25 struct {
	k1 float64
	b  float64

	termIndex      map[string]map[string]int      // term -> docID -> tf
	docTerms       map[string]map[string]struct{} // docID -> unique terms
	docLengths     map[string]int                 // docID -> token count
	docFreq        map[string]int                 // term -> document count
	totalDocLength int
}

// NewBM25 creates an index. Non-positive k1 and b fall back to the
// defaults (1.5 and 0.75).
func NewBM25(k1, b float64) *BM25 {
	if k1 <= 0 {
		k1 = DefaultK1
	}
	if b <= 0 {
		b = DefaultB
	}
	idx := &BM25{k1: k1, b: b}
	idx.reset()
	return idx
}

func (idx *BM25) reset() {
	idx.termIndex = make(map[string]map[string]int)
	idx.docTerms = make(map[string]map[string]struct{})
	idx.docLengths = make(map[string]int)
	idx.docFreq = make(map[string]int)
	idx.totalDocLength = 0
}

// Add indexes a document's content under id. Re-adding an existing id
// replaces its previous postings.
func (idx *BM25) Add(id, content string) {
	idx.Remove(id)

	tokens := Tokenize(content)

	tf := make(map[string]int, len(tokens))
	for _, t := range tokens {
		tf[t]++
	}

	terms := make(map[string]struct{}, len(tf))
	for t, n := range tf {
		terms[t] = struct{}{}
		if idx.termIndex[t] == nil {
			idx.termIndex[t] = make(map[string]int)
		}
		idx.termIndex[t][id] = n
		idx.docFreq[t]++
	}

	idx.docTerms[id] = terms
	idx.docLengths[id] = len(tokens)
	idx.totalDocLength += len(tokens)
}

// Remove deletes a document's postings. Returns false when the id was
// never indexed.
func (idx *BM25) Remove(id string) bool {
	terms, exists := idx.docTerms[id]
	if !exists {
		return false
	}

	for t := range terms {
		if postings, ok := idx.termIndex[t]; ok {
			delete(postings, id)
			if len(postings) == 0 {
				delete(idx.termIndex, t)
			}
		}
		idx.docFreq[t]--
		if idx.docFreq[t] <= 0 {
			delete(idx.docFreq, t)
		}
	}

	idx.totalDocLength -= idx.docLengths[id]
	delete(idx.docTerms, id)
	delete(idx.docLengths, id)
	return true
}

// Clear drops all postings.
func (idx *BM25) Clear() {
	idx.reset()
}

// Len returns the number of indexed documents.
func (idx *BM25) Len() int {
	return len(idx.docLengths)
}

// TotalDocLength returns the sum of indexed token counts.
func (idx *BM25) TotalDocLength() int {
	return idx.totalDocLength
}

// DocFreq returns the number of documents containing term.
func (idx *BM25) DocFreq(term string) int {
	return idx.docFreq[term]
}

// Search scores every document containing at least one query term and
// returns the topK by BM25 score descending. Score ties are broken by id
// so the ranking is deterministic.
func (idx *BM25) Search(query string, topK int) []Result {
	n := len(idx.docLengths)
	if n == 0 || topK <= 0 {
		return []Result{}
	}

	queryTerms := Tokenize(query)
	if len(queryTerms) == 0 {
		return []Result{}
	}

	avgDl := float64(idx.totalDocLength) / float64(n)
	if avgDl < 1 {
		avgDl = 1
	}

	scores := make(map[string]float64)
	for _, t := range queryTerms {
		postings, ok := idx.termIndex[t]
		if !ok {
			continue
		}
		df := float64(idx.docFreq[t])
		idf := math.Log((float64(n)-df+0.5)/(df+0.5) + 1)

		for id, rawTF := range postings {
			tf := float64(rawTF)
			dl := float64(idx.docLengths[id])
			norm := tf * (idx.k1 + 1) / (tf + idx.k1*(1-idx.b+idx.b*dl/avgDl))
			scores[id] += idf * norm
		}
	}

	results := make([]Result, 0, len(scores))
	for id, score := range scores {
		results = append(results, Result{ID: id, Score: score})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})

	if len(results) > topK {
		results = results[:topK]
	}
	return results
}
