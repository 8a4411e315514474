// Package categorization classifies statement descriptions into business
// categories and extracts income counterparties, learning from user
// corrections over time.
package categorization

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Confidence is a coarse rating on how trustworthy a suggestion is.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// FallbackCategory is assigned when no rule matches.
const (
	FallbackCategory = "other-business"
	FallbackLabel    = "Other"
)

// AmountRange voids a rule match when the transaction amount falls outside
// [Min, Max].
type AmountRange struct {
	Min decimal.Decimal
	Max decimal.Decimal
}

// Contains reports whether the amount is inside the range.
func (r AmountRange) Contains(amount decimal.Decimal) bool {
	return amount.GreaterThanOrEqual(r.Min) && amount.LessThanOrEqual(r.Max)
}

// Rule classifies a description into one category. Rules are data: the
// engine walks an ordered slice and the first match wins. Keywords are
// stored uppercase and matched against an uppercased description.
type Rule struct {
	Category   string
	Label      string
	Contains   []string
	StartsWith []string
	EndsWith   []string
	Amount     *AmountRange
}

// Matches checks the rule against an already-uppercased description. A
// contains keyword matches as a substring; startsWith/endsWith keywords are
// consulted only when no contains keyword hits. A nil amount skips the
// range check.
func (r Rule) Matches(upperDesc string, amount *decimal.Decimal) bool {
	matched := false
	for _, kw := range r.Contains {
		if strings.Contains(upperDesc, kw) {
			matched = true
			break
		}
	}

	if !matched {
		for _, kw := range r.StartsWith {
			if strings.HasPrefix(upperDesc, kw) {
				matched = true
				break
			}
		}
	}
	if !matched {
		for _, kw := range r.EndsWith {
			if strings.HasSuffix(upperDesc, kw) {
				matched = true
				break
			}
		}
	}

	if !matched {
		return false
	}

	if r.Amount != nil && amount != nil && !r.Amount.Contains(*amount) {
		return false
	}

	return true
}

func amountRange(min, max int64) *AmountRange {
	return &AmountRange{Min: decimal.NewFromInt(min), Max: decimal.NewFromInt(max)}
}

// DefaultExpenseRules is the ordered rule table for Serbian freelancer
// statements. Order matters: more specific vendors sit above broader
// keyword buckets.
func DefaultExpenseRules() []Rule {
	return []Rule{
		{
			Category: "office-supplies",
			Label:    "Office & Outsourcing",
			Contains: []string{"UPWORK", "FIVERR", "FREELANCER.COM", "KANCELARIJSKI", "PAPIRNICA"},
		},
		{
			Category: "food-delivery",
			Label:    "Food Delivery",
			Contains: []string{"WOLT", "GLOVO", "DONESI", "MISTER D"},
		},
		{
			Category: "software-subscriptions",
			Label:    "Software & Subscriptions",
			Contains: []string{"ADOBE", "FIGMA", "GITHUB", "JETBRAINS", "NOTION", "SLACK", "ZOOM", "GOOGLE WORKSPACE", "MICROSOFT 365", "DIGITALOCEAN", "HETZNER"},
		},
		{
			Category: "meals",
			Label:    "Meals & Entertainment",
			Contains: []string{"RESTORAN", "KAFANA", "CAFFE", "PEKARA", "MCDONALD", "KFC"},
		},
		{
			Category: "groceries",
			Label:    "Groceries",
			Contains: []string{"MAXI", "IDEA", "LIDL", "UNIVEREXPORT", "RODA", "TEMPO", "AMAN"},
		},
		{
			Category: "fuel",
			Label:    "Fuel",
			Contains: []string{"NIS PETROL", "GAZPROM", "OMV", "MOL ", "LUKOIL"},
		},
		{
			Category: "transport",
			Label:    "Transport",
			Contains: []string{"TAXI", "CARGO", "BUS PLUS", "PARKING"},
		},
		{
			Category: "telecom-utilities",
			Label:    "Utilities & Telecom",
			Contains: []string{"TELEKOM", "YETTEL", "A1 ", "SBB", "EPS ", "INFOSTAN", "ELEKTRODISTRIBUCIJA"},
		},
		{
			Category:   "rent",
			Label:      "Rent",
			Contains:   []string{"ZAKUP", "KIRIJA"},
			StartsWith: []string{"RENTA"},
		},
		{
			// Electronics retailers sell plenty of small consumables;
			// only sizeable purchases count as equipment.
			Category: "equipment",
			Label:    "Equipment",
			Contains: []string{"GIGATRON", "TEHNOMANIJA", "WINWIN", "EMMI", "COMTRADE"},
			Amount:   amountRange(2_000, 1_000_000_000),
		},
		{
			Category: "professional-services",
			Label:    "Professional Services",
			Contains: []string{"ADVOKAT", "KNJIGOVOD", "RACUNOVOD", "NOTAR", "CONSULTING", "AGENCIJA"},
		},
		{
			Category: "bank-fees",
			Label:    "Bank Fees",
			Contains: []string{"PROVIZIJA", "NAKNADA", "ODRZAVANJE RACUNA", "ODRŽAVANJE RAČUNA"},
			EndsWith: []string{"FEE"},
		},
		{
			Category: "travel",
			Label:    "Travel",
			Contains: []string{"HOTEL", "BOOKING", "AIR SERBIA", "AVIO", "AIRBNB"},
		},
	}
}
