package categorization

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/dinarly/dinarly-api/pkg/metrics"
)

// DefaultFuzzyThreshold is the normalized Levenshtein similarity a learned
// key must exceed to count as a near-duplicate hit.
const DefaultFuzzyThreshold = 0.85

// CorrectionLearner remembers user category corrections. Writes go to an
// in-memory map mirrored to a durable store; lookups check memory, then the
// store, then fall back to a fuzzy edit-distance scan over everything
// learned for the user.
//
// The fuzzy scan is O(n*m) per miss. Learned sets are user-scale, so brute
// force is fine; an optional NGramIndex narrows candidates for large sets.
type CorrectionLearner struct {
	store     CorrectionStore
	index     *NGramIndex // optional
	threshold float64
	logger    *slog.Logger

	mu    sync.RWMutex
	cache map[uuid.UUID]map[string]string
}

// NewCorrectionLearner creates a learner backed by the given store. A
// threshold <= 0 falls back to the default.
func NewCorrectionLearner(store CorrectionStore, threshold float64, logger *slog.Logger) *CorrectionLearner {
	if threshold <= 0 {
		threshold = DefaultFuzzyThreshold
	}
	return &CorrectionLearner{
		store:     store,
		threshold: threshold,
		logger:    logger,
		cache:     make(map[uuid.UUID]map[string]string),
	}
}

// WithIndex attaches an n-gram index used to pre-filter fuzzy candidates.
func (l *CorrectionLearner) WithIndex(index *NGramIndex) *CorrectionLearner {
	l.index = index
	return l
}

// NormalizeKey lowercases and trims a description into its lookup key.
func NormalizeKey(description string) string {
	return strings.ToLower(strings.TrimSpace(description))
}

// Learn records a user correction and mirrors it to durable storage.
func (l *CorrectionLearner) Learn(ctx context.Context, userID uuid.UUID, description, category string) error {
	key := NormalizeKey(description)
	if key == "" {
		return nil
	}

	l.mu.Lock()
	entries, ok := l.cache[userID]
	if !ok {
		entries = make(map[string]string)
		l.cache[userID] = entries
	}
	entries[key] = category
	l.mu.Unlock()

	if l.index != nil {
		if err := l.index.Add(userID, key, category); err != nil {
			l.logger.Warn("failed to index correction", "error", err)
		}
	}

	return l.store.Save(ctx, userID, key, category)
}

// Lookup returns the learned category for a description, consulting exact
// matches first and then near-duplicates above the similarity threshold.
func (l *CorrectionLearner) Lookup(ctx context.Context, userID uuid.UUID, description string) (string, bool) {
	key := NormalizeKey(description)
	if key == "" {
		return "", false
	}

	entries := l.userEntries(ctx, userID)
	if category, ok := entries[key]; ok {
		metrics.CorrectionLookups.WithLabelValues("exact").Inc()
		return category, true
	}

	if category, ok := l.fuzzyLookup(userID, key, entries); ok {
		metrics.CorrectionLookups.WithLabelValues("fuzzy").Inc()
		return category, true
	}

	metrics.CorrectionLookups.WithLabelValues("miss").Inc()
	return "", false
}

// userEntries returns a snapshot of the user's learned pairs, lazily
// loading the durable store into memory on first touch. The snapshot keeps
// lookups race-free against concurrent Learn calls.
func (l *CorrectionLearner) userEntries(ctx context.Context, userID uuid.UUID) map[string]string {
	l.mu.RLock()
	entries, ok := l.cache[userID]
	if ok {
		snapshot := make(map[string]string, len(entries))
		for k, v := range entries {
			snapshot[k] = v
		}
		l.mu.RUnlock()
		return snapshot
	}
	l.mu.RUnlock()

	stored, err := l.store.List(ctx, userID)
	if err != nil {
		l.logger.Warn("failed to load corrections", "user_id", userID, "error", err)
		stored = make(map[string]string)
	}

	l.mu.Lock()
	if _, exists := l.cache[userID]; !exists {
		l.cache[userID] = stored
	}
	l.mu.Unlock()
	return stored
}

// fuzzyLookup scans learned keys for one whose normalized Levenshtein
// similarity exceeds the threshold.
func (l *CorrectionLearner) fuzzyLookup(userID uuid.UUID, key string, entries map[string]string) (string, bool) {
	candidates := entries
	if l.index != nil {
		if narrowed, err := l.index.Candidates(userID, key); err == nil && narrowed != nil {
			candidates = narrowed
		}
	}

	for learned, category := range candidates {
		if Similarity(key, learned) > l.threshold {
			return category, true
		}
	}
	return "", false
}

// Similarity is the normalized Levenshtein similarity (maxLen - distance) /
// maxLen, in [0, 1].
func Similarity(a, b string) float64 {
	maxLen := len([]rune(a))
	if lb := len([]rune(b)); lb > maxLen {
		maxLen = lb
	}
	if maxLen == 0 {
		return 1
	}

	distance := fuzzy.LevenshteinDistance(a, b)
	return float64(maxLen-distance) / float64(maxLen)
}

// Forget drops a user's cached entries, forcing a reload from the store.
func (l *CorrectionLearner) Forget(userID uuid.UUID) {
	l.mu.Lock()
	delete(l.cache, userID)
	l.mu.Unlock()
}
