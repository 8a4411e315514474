package categorization

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test exact learn/lookup behaviour
func TestCorrectionLearner_Exact(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	learner := NewCorrectionLearner(NewMemoryStore(), 0, testLogger())

	t.Run("learned pair is returned exactly", func(t *testing.T) {
		require.NoError(t, learner.Learn(ctx, userID, "Wolt doo Beograd", "meals"))
		category, ok := learner.Lookup(ctx, userID, "Wolt doo Beograd")
		require.True(t, ok)
		assert.Equal(t, "meals", category)
	})

	t.Run("lookup key is case and whitespace insensitive", func(t *testing.T) {
		category, ok := learner.Lookup(ctx, userID, "  WOLT DOO BEOGRAD  ")
		require.True(t, ok)
		assert.Equal(t, "meals", category)
	})

	t.Run("relearning overwrites", func(t *testing.T) {
		require.NoError(t, learner.Learn(ctx, userID, "Wolt doo Beograd", "food-delivery"))
		category, ok := learner.Lookup(ctx, userID, "Wolt doo Beograd")
		require.True(t, ok)
		assert.Equal(t, "food-delivery", category)
	})

	t.Run("unknown description misses", func(t *testing.T) {
		_, ok := learner.Lookup(ctx, userID, "GIGATRON RACUNAR")
		assert.False(t, ok)
	})

	t.Run("other users see nothing", func(t *testing.T) {
		_, ok := learner.Lookup(ctx, uuid.New(), "Wolt doo Beograd")
		assert.False(t, ok)
	})

	t.Run("blank description is a no-op", func(t *testing.T) {
		require.NoError(t, learner.Learn(ctx, userID, "   ", "meals"))
		_, ok := learner.Lookup(ctx, userID, "   ")
		assert.False(t, ok)
	})
}

// Test fuzzy near-duplicate lookup
func TestCorrectionLearner_Fuzzy(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	learner := NewCorrectionLearner(NewMemoryStore(), 0, testLogger())

	require.NoError(t, learner.Learn(ctx, userID, "wolt doo beograd 12345", "meals"))

	t.Run("near-duplicate above threshold hits", func(t *testing.T) {
		// one character off on a 22-rune key: similarity ~0.95
		category, ok := learner.Lookup(ctx, userID, "wolt doo beograd 12346")
		require.True(t, ok)
		assert.Equal(t, "meals", category)
	})

	t.Run("distant description misses", func(t *testing.T) {
		_, ok := learner.Lookup(ctx, userID, "gigatron racunari beograd")
		assert.False(t, ok)
	})

	t.Run("similarity at the threshold is not enough", func(t *testing.T) {
		// strictly-greater-than comparison
		strict := NewCorrectionLearner(NewMemoryStore(), 1.0, testLogger())
		require.NoError(t, strict.Learn(ctx, userID, "abcd", "x"))
		_, ok := strict.Lookup(ctx, userID, "abce")
		assert.False(t, ok)
	})
}

// Test the durable mirror and lazy loading
func TestCorrectionLearner_Store(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	store := NewMemoryStore()

	first := NewCorrectionLearner(store, 0, testLogger())
	require.NoError(t, first.Learn(ctx, userID, "Wolt doo", "meals"))

	t.Run("writes reach the store", func(t *testing.T) {
		entries, err := store.List(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, "meals", entries["wolt doo"])
	})

	t.Run("a fresh learner loads from the store", func(t *testing.T) {
		second := NewCorrectionLearner(store, 0, testLogger())
		category, ok := second.Lookup(ctx, userID, "Wolt doo")
		require.True(t, ok)
		assert.Equal(t, "meals", category)
	})

	t.Run("forget drops the cache and reloads", func(t *testing.T) {
		first.Forget(userID)
		category, ok := first.Lookup(ctx, userID, "Wolt doo")
		require.True(t, ok)
		assert.Equal(t, "meals", category)
	})
}

// Test the normalized Levenshtein similarity
func TestSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "wolt", "wolt", 1},
		{"both empty", "", "", 1},
		{"completely different", "abcd", "wxyz", 0},
		{"one edit on four runes", "abcd", "abce", 0.75},
		{"one edit on ten runes", "abcdefghij", "abcdefghix", 0.9},
		{"empty versus nonempty", "", "abcd", 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, Similarity(tc.a, tc.b), 0.0001)
		})
	}
}

// Test the key normalizer
func TestNormalizeKey(t *testing.T) {
	assert.Equal(t, "wolt doo", NormalizeKey("  Wolt DOO "))
	assert.Equal(t, "", NormalizeKey("   "))
}
