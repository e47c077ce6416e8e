package schema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arete-go/retrieval/schema"
)

func TestSearchResultFinalScore(t *testing.T) {
	r := schema.SearchResult{RelevanceScore: 0.4}
	assert.Equal(t, 0.4, r.FinalScore())

	r.SetEnhancedScore(0.7)
	require.NotNil(t, r.EnhancedScore)
	assert.Equal(t, 0.7, r.FinalScore())
}

func TestSearchResultSetEnhancedScoreClamps(t *testing.T) {
	r := schema.SearchResult{RelevanceScore: 0.1}
	r.SetEnhancedScore(1.5)
	assert.Equal(t, 1.0, r.FinalScore())

	r.SetEnhancedScore(-0.5)
	assert.Equal(t, 0.0, r.FinalScore())
}

func TestPassageFilterMatches(t *testing.T) {
	p := schema.Passage{ID: "p1", DocumentID: "d1", Kind: schema.PassageKindParagraph}

	var nilFilter *schema.PassageFilter
	assert.True(t, nilFilter.Matches(p))

	f := &schema.PassageFilter{DocumentIDs: []string{"d1", "d2"}}
	assert.True(t, f.Matches(p))

	f = &schema.PassageFilter{DocumentIDs: []string{"d9"}}
	assert.False(t, f.Matches(p))

	f = &schema.PassageFilter{Kinds: []schema.PassageKind{schema.PassageKindSentence}}
	assert.False(t, f.Matches(p))

	f = &schema.PassageFilter{Kinds: []schema.PassageKind{schema.PassageKindParagraph}}
	assert.True(t, f.Matches(p))
}

func TestEnsureMetadata(t *testing.T) {
	r := &schema.SearchResult{}
	m := r.EnsureMetadata()
	m["retrieval_method"] = "dense"
	assert.Equal(t, "dense", r.Metadata["retrieval_method"])
}
