package validation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arete-go/retrieval/validation"
)

type weightPair struct {
	A float64 `validate:"sumsto1=B"`
	B float64 `validate:"min=0"`
}

type bounded struct {
	K1 float64 `validate:"min=0,max=3"`
	B  float64 `validate:"min=0,max=1"`
}

func TestStructAcceptsValidWeightPair(t *testing.T) {
	require.NoError(t, validation.Struct(weightPair{A: 0.3, B: 0.7}))
}

func TestStructRejectsWeightPairNotSummingToOne(t *testing.T) {
	err := validation.Struct(weightPair{A: 0.3, B: 0.3})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sumsto1")
}

func TestStructRejectsOutOfRangeBM25Params(t *testing.T) {
	err := validation.Struct(bounded{K1: 5, B: 0.75})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max")
}

func TestStructAcceptsInRangeBM25Params(t *testing.T) {
	require.NoError(t, validation.Struct(bounded{K1: 1.2, B: 0.75}))
}
