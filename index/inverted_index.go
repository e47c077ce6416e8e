// Package index implements the inverted index (C1): a term→postings map with
// document-frequency and average-length statistics, built once and queried
// or incrementally updated many times.
package index

import (
	"fmt"
	"sync"

	"github.com/arete-go/retrieval/schema"
)

// IndexingError reports a passage that failed validation before indexing.
type IndexingError struct {
	PassageID string
	Cause     error
}

func (e *IndexingError) Error() string {
	return fmt.Sprintf("index: passage %q: %v", e.PassageID, e.Cause)
}

func (e *IndexingError) Unwrap() error { return e.Cause }

// passageStats holds the stored per-passage bookkeeping the index needs for
// scoring: the passage itself plus its total term count.
type passageStats struct {
	passage    schema.Passage
	totalTerms int
}

// InvertedIndex is the term→postings structure C2/C3 score against.
//
// It tracks, per term, a passage-id→term-frequency posting list and a
// document-frequency count, plus running totals needed for BM25's length
// normalization. All public methods are safe for concurrent use: writers
// take an exclusive lock, readers a shared one, so a single scoring pass
// always observes a consistent (df, tf, avgdl, N) snapshot.
type InvertedIndex struct {
	mu sync.RWMutex

	// postings maps term -> passageID -> term frequency.
	postings map[string]map[string]int
	// df maps term -> number of passages containing it.
	df map[string]int
	// passages maps passageID -> stored stats.
	passages map[string]*passageStats

	totalDocuments int
	totalLength    int // sum of word counts across all passages

	tokenizer Tokenizer
}

// Option configures an InvertedIndex at construction time.
type Option func(*InvertedIndex)

// WithTokenizer overrides the default tokenizer.
func WithTokenizer(t Tokenizer) Option {
	return func(idx *InvertedIndex) {
		idx.tokenizer = t
	}
}

// New creates an empty InvertedIndex.
func New(opts ...Option) *InvertedIndex {
	idx := &InvertedIndex{
		postings:  make(map[string]map[string]int),
		df:        make(map[string]int),
		passages:  make(map[string]*passageStats),
		tokenizer: NewDefaultTokenizer(),
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// NewFromPassages builds an index from a batch of passages in one pass.
func NewFromPassages(passages []schema.Passage, opts ...Option) *InvertedIndex {
	idx := New(opts...)
	for _, p := range passages {
		idx.Add(p)
	}
	return idx
}

// Add tokenizes a passage, counts term frequencies, and inserts it into the
// vocabulary/postings/df/passages maps, updating totals and the running
// average length. Re-adding an existing id replaces the prior entry
// (remove-then-add, atomic to concurrent readers).
func (idx *InvertedIndex) Add(p schema.Passage) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, exists := idx.passages[p.ID]; exists {
		idx.removeLocked(p.ID)
	}

	terms := idx.tokenizer.Tokenize(p.Text)
	tf := make(map[string]int, len(terms))
	for _, t := range terms {
		tf[t]++
	}

	for term, freq := range tf {
		postingList, ok := idx.postings[term]
		if !ok {
			postingList = make(map[string]int)
			idx.postings[term] = postingList
		}
		postingList[p.ID] = freq
		idx.df[term]++
	}

	idx.passages[p.ID] = &passageStats{passage: p, totalTerms: len(terms)}
	idx.totalDocuments++
	idx.totalLength += len(terms)
}

// TryAdd validates p before indexing it: an empty ID or empty text is
// rejected rather than silently admitted (Add, used internally and by
// batch-construction helpers that already guarantee well-formed passages,
// has no such check). Callers that take passages from outside the process
// (the CLI's index-add path) should use this instead of Add directly.
func (idx *InvertedIndex) TryAdd(p schema.Passage) error {
	if p.ID == "" {
		return &IndexingError{PassageID: p.ID, Cause: fmt.Errorf("empty passage id")}
	}
	if p.Text == "" {
		return &IndexingError{PassageID: p.ID, Cause: fmt.Errorf("empty passage text")}
	}
	idx.Add(p)
	return nil
}

// Remove is the inverse of Add: it decrements df for each distinct term the
// passage contained and drops terms from the vocabulary once their df
// reaches zero. Removing an unknown id is a no-op.
func (idx *InvertedIndex) Remove(passageID string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.removeLocked(passageID)
}

func (idx *InvertedIndex) removeLocked(passageID string) {
	stats, ok := idx.passages[passageID]
	if !ok {
		return
	}

	terms := idx.tokenizer.Tokenize(stats.passage.Text)
	seen := make(map[string]bool, len(terms))
	for _, t := range terms {
		if seen[t] {
			continue
		}
		seen[t] = true
		if postingList, ok := idx.postings[t]; ok {
			delete(postingList, passageID)
			idx.df[t]--
			if idx.df[t] <= 0 {
				delete(idx.df, t)
				delete(idx.postings, t)
			}
		}
	}

	idx.totalLength -= stats.totalTerms
	idx.totalDocuments--
	delete(idx.passages, passageID)
}

// Tokenize exposes the index's tokenizer for callers (scorers) that need to
// derive query terms using the exact same contract as indexed text.
func (idx *InvertedIndex) Tokenize(text string) []string {
	return idx.tokenizer.Tokenize(text)
}

// DF returns the document frequency of a term.
func (idx *InvertedIndex) DF(term string) int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.df[term]
}

// TF returns the term frequency of a term within a specific passage.
func (idx *InvertedIndex) TF(term, passageID string) int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	postingList, ok := idx.postings[term]
	if !ok {
		return 0
	}
	return postingList[passageID]
}

// Postings returns a copy of the passageID->tf map for a term. Scoring must
// only visit the ids returned here, never the full passage collection.
func (idx *InvertedIndex) Postings(term string) map[string]int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	postingList, ok := idx.postings[term]
	if !ok {
		return nil
	}
	out := make(map[string]int, len(postingList))
	for k, v := range postingList {
		out[k] = v
	}
	return out
}

// PassageLength returns the total term count stored for a passage.
func (idx *InvertedIndex) PassageLength(passageID string) int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	stats, ok := idx.passages[passageID]
	if !ok {
		return 0
	}
	return stats.totalTerms
}

// Passage returns the stored passage by id.
func (idx *InvertedIndex) Passage(passageID string) (schema.Passage, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	stats, ok := idx.passages[passageID]
	if !ok {
		return schema.Passage{}, false
	}
	return stats.passage, true
}

// TotalDocuments returns N, the total number of indexed passages.
func (idx *InvertedIndex) TotalDocuments() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.totalDocuments
}

// AverageDocumentLength returns avgdl. When the index is empty this is 0;
// callers scoring against an empty index must substitute 1 for the
// denominator per the BM25 contract.
func (idx *InvertedIndex) AverageDocumentLength() float64 {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if idx.totalDocuments == 0 {
		return 0
	}
	return float64(idx.totalLength) / float64(idx.totalDocuments)
}

// CandidateIDs returns the union of passage ids appearing in the postings
// of any of the given terms — the set a scorer must scan, rather than the
// full collection.
func (idx *InvertedIndex) CandidateIDs(terms []string) []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	seen := make(map[string]bool)
	var ids []string
	for _, term := range terms {
		postingList, ok := idx.postings[term]
		if !ok {
			continue
		}
		for id := range postingList {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	return ids
}

// Stats is the observability snapshot returned by stats().
type Stats struct {
	VocabularySize  int     `json:"vocabulary_size"`
	TotalDocuments  int     `json:"total_documents"`
	AverageDocLen   float64 `json:"average_document_length"`
	TotalPostings   int     `json:"total_postings"`
}

// Stats returns totals for observability.
func (idx *InvertedIndex) Stats() Stats {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	totalPostings := 0
	for _, pl := range idx.postings {
		totalPostings += len(pl)
	}

	var avgdl float64
	if idx.totalDocuments > 0 {
		avgdl = float64(idx.totalLength) / float64(idx.totalDocuments)
	}

	return Stats{
		VocabularySize: len(idx.postings),
		TotalDocuments: idx.totalDocuments,
		AverageDocLen:  avgdl,
		TotalPostings:  totalPostings,
	}
}
