package categorization

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test the candidate index in isolation
func TestNGramIndex(t *testing.T) {
	index, err := NewNGramIndex()
	require.NoError(t, err)
	defer index.Close()

	userID := uuid.New()
	require.NoError(t, index.Add(userID, "gigatron", "equipment"))
	require.NoError(t, index.Add(userID, "tehnomanija", "equipment"))

	t.Run("close key is a candidate", func(t *testing.T) {
		candidates, err := index.Candidates(userID, "gigatro")
		require.NoError(t, err)
		require.NotNil(t, candidates)
		assert.Equal(t, "equipment", candidates["gigatron"])
	})

	t.Run("no hits means nil for full-scan fallback", func(t *testing.T) {
		candidates, err := index.Candidates(userID, "wolt")
		require.NoError(t, err)
		assert.Nil(t, candidates)
	})

	t.Run("candidates are user scoped", func(t *testing.T) {
		candidates, err := index.Candidates(uuid.New(), "gigatron")
		require.NoError(t, err)
		assert.Nil(t, candidates)
	})
}

// Test the learner with the index attached
func TestCorrectionLearner_WithIndex(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	index, err := NewNGramIndex()
	require.NoError(t, err)
	defer index.Close()

	learner := NewCorrectionLearner(NewMemoryStore(), 0, testLogger()).WithIndex(index)

	require.NoError(t, learner.Learn(ctx, userID, "Gigatron", "equipment"))

	t.Run("exact lookup bypasses the index", func(t *testing.T) {
		category, ok := learner.Lookup(ctx, userID, "Gigatron")
		require.True(t, ok)
		assert.Equal(t, "equipment", category)
	})

	t.Run("fuzzy lookup works through the index", func(t *testing.T) {
		category, ok := learner.Lookup(ctx, userID, "Gigatrom")
		require.True(t, ok)
		assert.Equal(t, "equipment", category)
	})

	t.Run("empty index result falls back to the full scan", func(t *testing.T) {
		// A key the index tokenizer cannot relate still hits via the
		// brute-force scan when similarity clears the threshold.
		fresh := NewCorrectionLearner(NewMemoryStore(), 0, testLogger()).WithIndex(index)
		other := uuid.New()
		require.NoError(t, fresh.Learn(ctx, other, "wolt doo beograd centar", "meals"))

		category, ok := fresh.Lookup(ctx, other, "wolt doo beograd centar x")
		require.True(t, ok)
		assert.Equal(t, "meals", category)
	})
}
