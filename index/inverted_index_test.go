package index_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arete-go/retrieval/index"
	"github.com/arete-go/retrieval/schema"
)

func passage(id, text string) schema.Passage {
	words := len([]rune(text)) // rough, recomputed properly in tests that need word count
	_ = words
	return schema.Passage{ID: id, Text: text}
}

func TestAddAndDFConsistency(t *testing.T) {
	idx := index.New()
	idx.Add(passage("p1", "virtue is excellence of character"))
	idx.Add(passage("p2", "justice concerns fairness"))
	idx.Add(passage("p3", "virtue and wisdom are linked"))

	assert.Equal(t, 2, idx.DF("virtue"))
	assert.Equal(t, 1, idx.DF("justice"))
	assert.Equal(t, 1, idx.DF("wisdom"))
	assert.Equal(t, 3, idx.TotalDocuments())
}

func TestAddReplacesExistingID(t *testing.T) {
	idx := index.New()
	idx.Add(passage("p1", "virtue and wisdom"))
	idx.Add(passage("p1", "justice alone"))

	assert.Equal(t, 0, idx.DF("virtue"))
	assert.Equal(t, 1, idx.DF("justice"))
	assert.Equal(t, 1, idx.TotalDocuments())
}

func TestRemoveRestoresState(t *testing.T) {
	idx := index.New()
	idx.Add(passage("p1", "virtue and wisdom"))
	idx.Add(passage("p2", "virtue alone"))

	idx.Remove("p1")

	assert.Equal(t, 1, idx.DF("virtue"))
	assert.Equal(t, 0, idx.DF("wisdom"))
	assert.Equal(t, 1, idx.TotalDocuments())

	_, ok := idx.Passage("p1")
	assert.False(t, ok)
}

func TestRoundTripAddRemoveRestoresEmptyState(t *testing.T) {
	idx := index.New()
	before := idx.Stats()

	idx.Add(passage("p1", "virtue and wisdom linked"))
	idx.Remove("p1")

	after := idx.Stats()
	assert.Equal(t, before, after)
}

func TestCandidateIDsOnlyVisitsPostings(t *testing.T) {
	idx := index.New()
	idx.Add(passage("p1", "virtue is excellence"))
	idx.Add(passage("p2", "justice and fairness"))

	ids := idx.CandidateIDs([]string{"virtue"})
	require.Len(t, ids, 1)
	assert.Equal(t, "p1", ids[0])
}

func TestTokenizerDiscardsShortTokensAndStopwords(t *testing.T) {
	tok := index.NewDefaultTokenizer()
	terms := tok.Tokenize("the virtue of an ox is to be strong")
	for _, term := range terms {
		assert.NotEqual(t, "the", term)
		assert.NotEqual(t, "of", term)
		assert.GreaterOrEqual(t, len([]rune(term)), 3)
	}
}

func TestTokenizerPreservesGreekRange(t *testing.T) {
	tok := index.NewDefaultTokenizer()
	terms := tok.Tokenize("ἀρετή is a Greek word")
	assert.Contains(t, terms, "ἀρετή")
}

func TestTryAddRejectsEmptyID(t *testing.T) {
	idx := index.New()
	err := idx.TryAdd(passage("", "some text"))
	require.Error(t, err)
	var idxErr *index.IndexingError
	assert.ErrorAs(t, err, &idxErr)
}

func TestTryAddRejectsEmptyText(t *testing.T) {
	idx := index.New()
	err := idx.TryAdd(passage("p1", ""))
	require.Error(t, err)
}

func TestTryAddAcceptsValidPassage(t *testing.T) {
	idx := index.New()
	require.NoError(t, idx.TryAdd(passage("p1", "virtue and justice")))
	assert.Equal(t, 1, idx.TotalDocuments())
}

func TestEmptyTextAfterTokenizationIsPermitted(t *testing.T) {
	idx := index.New()
	idx.Add(passage("p1", "a an of"))
	assert.Equal(t, 1, idx.TotalDocuments())
	assert.Equal(t, 0.0, idx.AverageDocumentLength())
}
