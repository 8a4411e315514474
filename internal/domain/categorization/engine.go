package categorization

import (
	"context"
	"log/slog"
	"strings"

	"github.com/cloudflare/ahocorasick"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Suggestion is the outcome of classifying one expense description.
type Suggestion struct {
	Category   string
	Label      string
	Confidence Confidence
}

// strongVendors are unambiguous brand names; a hit lifts confidence to high.
var strongVendors = []string{
	"UPWORK", "WOLT", "GLOVO", "ADOBE", "FIGMA", "GITHUB", "JETBRAINS",
	"SLACK", "ZOOM", "NOTION", "GIGATRON", "TEHNOMANIJA", "BOOKING",
	"AIR SERBIA", "TELEKOM", "YETTEL", "LIDL", "MAXI", "MCDONALD",
}

// genericTerms are catch-all words; a hit drops confidence to low.
var genericTerms = []string{"BUSINESS", "MISC", "OTHER", "GENERAL"}

// Confidence-boost thresholds for the amount heuristic.
var (
	largeAmount = decimal.NewFromInt(10_000)
	smallAmount = decimal.NewFromInt(5_000)
)

// largeAmountCategories get a boost when the amount is large; the
// small-amount boost applies to office supplies only.
var largeAmountCategories = map[string]bool{
	"equipment":             true,
	"professional-services": true,
}

// RuleEngine classifies expense descriptions. Learned corrections win over
// the rule table; within the table, first match in order wins. The vendor
// and generic-term matchers run the Aho-Corasick algorithm so the whole
// keyword set is checked in one pass over the description.
type RuleEngine struct {
	rules    []Rule
	learner  *CorrectionLearner
	vendors  *ahocorasick.Matcher
	generics *ahocorasick.Matcher
	logger   *slog.Logger
}

// NewRuleEngine builds an engine over the given ordered rule table.
func NewRuleEngine(rules []Rule, learner *CorrectionLearner, logger *slog.Logger) *RuleEngine {
	return &RuleEngine{
		rules:    rules,
		learner:  learner,
		vendors:  ahocorasick.NewStringMatcher(strongVendors),
		generics: ahocorasick.NewStringMatcher(genericTerms),
		logger:   logger,
	}
}

// Classify suggests a category for an expense description. A nil amount
// skips the range and boost heuristics. Classify is idempotent between
// Learn calls.
func (e *RuleEngine) Classify(ctx context.Context, userID uuid.UUID, description string, amount *decimal.Decimal) Suggestion {
	if e.learner != nil {
		if category, ok := e.learner.Lookup(ctx, userID, description); ok {
			return Suggestion{Category: category, Label: category, Confidence: ConfidenceHigh}
		}
	}

	upper := strings.ToUpper(description)

	for _, rule := range e.rules {
		if rule.Matches(upper, amount) {
			confidence := e.confidence(upper)
			confidence = boostForAmount(confidence, rule.Category, amount)
			return Suggestion{Category: rule.Category, Label: rule.Label, Confidence: confidence}
		}
	}

	return Suggestion{Category: FallbackCategory, Label: FallbackLabel, Confidence: ConfidenceLow}
}

// Learn records a user's category correction for future classification.
func (e *RuleEngine) Learn(ctx context.Context, userID uuid.UUID, description, category string) error {
	if e.learner == nil {
		return nil
	}
	if err := e.learner.Learn(ctx, userID, description, category); err != nil {
		e.logger.Warn("failed to persist correction", "user_id", userID, "error", err)
		return err
	}
	return nil
}

// confidence rates a match: high for unambiguous vendors, low for generic
// catch-all words, medium otherwise.
func (e *RuleEngine) confidence(upperDesc string) Confidence {
	payload := []byte(upperDesc)
	if len(e.vendors.Match(payload)) > 0 {
		return ConfidenceHigh
	}
	if len(e.generics.Match(payload)) > 0 {
		return ConfidenceLow
	}
	return ConfidenceMedium
}

// boostForAmount upgrades confidence one step when the amount strongly fits
// the category: large purchases in equipment/professional-services, small
// ones in office supplies.
func boostForAmount(c Confidence, category string, amount *decimal.Decimal) Confidence {
	if amount == nil {
		return c
	}

	boost := (largeAmountCategories[category] && amount.GreaterThan(largeAmount)) ||
		(category == "office-supplies" && amount.LessThan(smallAmount))
	if !boost {
		return c
	}

	switch c {
	case ConfidenceLow:
		return ConfidenceMedium
	case ConfidenceMedium:
		return ConfidenceHigh
	}
	return c
}
