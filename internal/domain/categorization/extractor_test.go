package categorization

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Test the layered counterparty heuristics
func TestClientExtractor_Extract(t *testing.T) {
	x := NewClientExtractor()

	tests := []struct {
		name   string
		desc   string
		client string
		kind   IncomeKind
	}{
		{
			name:   "upwork payment is full-time",
			desc:   "Upwork Payment REF12345",
			client: "Upwork",
			kind:   IncomeFullTime,
		},
		{
			name:   "oip marker wins over transfer text",
			desc:   "BEZGOTOVINSKI PRENOS OIP BEOGRAD 123456",
			client: "OIP",
			kind:   IncomeFullTime,
		},
		{
			name:   "salary extracts payer from transfer text",
			desc:   "UPLATA ACME DOO SALARY MART",
			client: "ACME DOO SALARY MART",
			kind:   IncomeFullTime,
		},
		{
			name:   "plata without transfer marker falls back",
			desc:   "PLATA ZA JUN",
			client: UnknownClient,
			kind:   IncomeFullTime,
		},
		{
			name:   "known client by name",
			desc:   "Prenos od Marko Petrovic",
			client: "Marko Petrovic",
			kind:   IncomeOneTime,
		},
		{
			name:   "known client with diacritics",
			desc:   "UPLATA ANA MILOŠEVIĆ",
			client: "Ana Milošević",
			kind:   IncomeOneTime,
		},
		{
			name:   "transfer marker captures the payer",
			desc:   "BEZGOTOVINSKI PRENOS PETAR PETROVIC 160-0000123",
			client: "PETAR PETROVIC",
			kind:   IncomeOneTime,
		},
		{
			name:   "uplata marker captures the payer",
			desc:   "UPLATA STUDIO DIZAJN",
			client: "STUDIO DIZAJN",
			kind:   IncomeOneTime,
		},
		{
			name:   "reference tokens are stripped",
			desc:   "UPLATA KLIJENT DOO REF123456",
			client: "KLIJENT DOO",
			kind:   IncomeOneTime,
		},
		{
			name:   "unrecognized description",
			desc:   "PRILIV SREDSTAVA",
			client: UnknownClient,
			kind:   IncomeOneTime,
		},
		{
			name:   "transfer with no name after marker",
			desc:   "UPLATA 123456789",
			client: UnknownClient,
			kind:   IncomeOneTime,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			info := x.Extract(tc.desc)
			assert.Equal(t, tc.client, info.Client)
			assert.Equal(t, tc.kind, info.Kind)
		})
	}
}

// Test name sanitization
func TestSanitizeClientName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain name passes", "Marko Petrovic", "Marko Petrovic"},
		{"serbian diacritics survive", "Đorđe Čađavić", "Đorđe Čađavić"},
		{"disallowed characters are stripped", "ACME <d.o.o.> & CO!", "ACME d.o.o. CO"},
		{"whitespace is collapsed", "  STUDIO   DIZAJN  ", "STUDIO DIZAJN"},
		{"edge punctuation is trimmed", "-. KLIJENT ,.", "KLIJENT"},
		{"empty becomes unknown", "", UnknownClient},
		{"only junk becomes unknown", "@#$%", UnknownClient},
		{"long names are truncated to 100 characters", strings.Repeat("A", 150), strings.Repeat("A", 100)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, SanitizeClientName(tc.in))
		})
	}
}
