package categorization

import (
	"regexp"
	"strings"
)

// IncomeKind distinguishes recurring-salary-like income from one-off payments.
type IncomeKind string

const (
	IncomeFullTime IncomeKind = "full-time"
	IncomeOneTime  IncomeKind = "one-time"
)

// UnknownClient is the fallback counterparty label.
const UnknownClient = "Unknown Client"

// ClientInfo is the extracted counterparty of an income row.
type ClientInfo struct {
	Client string
	Kind   IncomeKind
}

// employerMarker fixes the income kind and, optionally, a canonical
// counterparty label. SALARY and PLATA match as whole words only;
// "UPLATA" contains "PLATA" but is a transfer marker, not a salary one.
type employerMarker struct {
	token  *regexp.Regexp
	client string // empty = extract from the description
}

// Checked in order; first hit wins.
var employerMarkers = []employerMarker{
	{token: regexp.MustCompile(`OIP`), client: "OIP"},
	{token: regexp.MustCompile(`UPWORK`), client: "Upwork"},
	{token: regexp.MustCompile(`\bSALARY\b`)},
	{token: regexp.MustCompile(`\bPLATA\b`)},
}

// knownClient maps an uppercase match key to a display name. The table
// covers recurring private payers that transfer descriptions name directly.
type knownClient struct {
	match string
	name  string
}

var knownClients = []knownClient{
	{"MARKO PETROVIC", "Marko Petrovic"},
	{"MARKO PETROVIĆ", "Marko Petrović"},
	{"JELENA STOJANOVIC", "Jelena Stojanovic"},
	{"JELENA STOJANOVIĆ", "Jelena Stojanović"},
	{"NIKOLA JOVANOVIC", "Nikola Jovanovic"},
	{"NIKOLA JOVANOVIĆ", "Nikola Jovanović"},
	{"ANA MILOSEVIC", "Ana Milosevic"},
	{"ANA MILOŠEVIĆ", "Ana Milošević"},
}

var (
	// transferPattern captures the payer name after a transfer marker, up
	// to the first digit run (account/reference numbers).
	transferPattern = regexp.MustCompile(`(?:BEZGOTOVINSKI PRENOS|UPLATA)\s+([^0-9]+)`)
	// referenceToken strips reference-number fragments left in the capture.
	referenceToken = regexp.MustCompile(`\b(?:REF|BR|BROJ|POZIV)\S*`)
	// nameCharset keeps letters (incl. Serbian diacritics), digits, spaces,
	// hyphens, periods and commas.
	nameCharset = regexp.MustCompile(`[^a-zA-ZčćžšđČĆŽŠĐ0-9\s\-.,]`)
	nameSpaces  = regexp.MustCompile(`\s+`)
)

const maxClientNameLen = 100

// ClientExtractor derives a counterparty and income kind from free-text
// income descriptions using layered heuristics.
type ClientExtractor struct{}

// NewClientExtractor creates an extractor with the built-in marker tables.
func NewClientExtractor() *ClientExtractor {
	return &ClientExtractor{}
}

// Extract applies the heuristics in order, first match wins:
// employer/platform markers, known personal names, transfer-marker capture,
// then the unknown-client fallback.
func (x *ClientExtractor) Extract(description string) ClientInfo {
	upper := strings.ToUpper(description)

	for _, marker := range employerMarkers {
		if !marker.token.MatchString(upper) {
			continue
		}
		client := marker.client
		if client == "" {
			// SALARY/PLATA fix the kind only; the payer still comes
			// from the transfer text when present.
			client = extractTransferClient(upper)
		}
		return ClientInfo{Client: client, Kind: IncomeFullTime}
	}

	for _, known := range knownClients {
		if strings.Contains(upper, known.match) {
			return ClientInfo{Client: SanitizeClientName(known.name), Kind: IncomeOneTime}
		}
	}

	if strings.Contains(upper, "BEZGOTOVINSKI PRENOS") || strings.Contains(upper, "UPLATA") {
		return ClientInfo{Client: extractTransferClient(upper), Kind: IncomeOneTime}
	}

	return ClientInfo{Client: UnknownClient, Kind: IncomeOneTime}
}

// extractTransferClient pulls the payer name out of a transfer description.
// Names of two characters or fewer are treated as extraction noise.
func extractTransferClient(upperDesc string) string {
	m := transferPattern.FindStringSubmatch(upperDesc)
	if m == nil {
		return UnknownClient
	}

	cleaned := referenceToken.ReplaceAllString(m[1], "")
	cleaned = SanitizeClientName(cleaned)
	if cleaned == UnknownClient || len([]rune(cleaned)) <= 2 {
		return UnknownClient
	}
	return cleaned
}

// SanitizeClientName strips everything outside the allowed charset,
// collapses whitespace and truncates to 100 characters. An empty result
// becomes the unknown-client label.
func SanitizeClientName(name string) string {
	cleaned := nameCharset.ReplaceAllString(name, "")
	cleaned = strings.TrimSpace(nameSpaces.ReplaceAllString(cleaned, " "))
	cleaned = strings.Trim(cleaned, "-.,")
	cleaned = strings.TrimSpace(cleaned)

	if runes := []rune(cleaned); len(runes) > maxClientNameLen {
		cleaned = strings.TrimSpace(string(runes[:maxClientNameLen]))
	}

	if cleaned == "" {
		return UnknownClient
	}
	return cleaned
}
