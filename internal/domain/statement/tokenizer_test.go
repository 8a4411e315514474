package statement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test line splitting with mixed endings
func TestSplitLines(t *testing.T) {
	t.Run("splits LF content", func(t *testing.T) {
		lines := SplitLines("a\nb\nc")
		assert.Equal(t, []string{"a", "b", "c"}, lines)
	})

	t.Run("strips CR from CRLF endings", func(t *testing.T) {
		lines := SplitLines("a\r\nb\r\nc")
		assert.Equal(t, []string{"a", "b", "c"}, lines)
	})

	t.Run("keeps empty lines", func(t *testing.T) {
		lines := SplitLines("a\n\nb")
		assert.Equal(t, []string{"a", "", "b"}, lines)
	})
}

// Test header discovery
func TestFindHeader(t *testing.T) {
	t.Run("finds DATUM header below preamble", func(t *testing.T) {
		lines := []string{
			"Banka Intesa a.d. Beograd",
			"Izvod za period 01.03.2024 - 31.03.2024",
			"",
			"DATUM,TIP TRANSAKCIJE,OPIS,IZNOS",
			"01.03.2024,PROMET,WOLT,\"-1.500,00\"",
		}
		idx, err := FindHeader(lines)
		require.NoError(t, err)
		assert.Equal(t, 3, idx)
	})

	t.Run("match is case sensitive", func(t *testing.T) {
		_, err := FindHeader([]string{"datum,tip,opis,iznos"})
		assert.ErrorIs(t, err, ErrHeaderNotFound)
	})

	t.Run("missing header is an error", func(t *testing.T) {
		_, err := FindHeader([]string{"no header here", "still nothing"})
		assert.ErrorIs(t, err, ErrHeaderNotFound)
	})
}

// Test quote-aware field splitting
func TestSplitFields(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []string
	}{
		{
			name: "plain fields",
			line: "01.03.2024,PROMET,WOLT,100",
			want: []string{"01.03.2024", "PROMET", "WOLT", "100"},
		},
		{
			name: "comma inside quotes does not split",
			line: `01.03.2024,PROMET,WOLT,"-1.500,00"`,
			want: []string{"01.03.2024", "PROMET", "WOLT", "-1.500,00"},
		},
		{
			name: "quotes are dropped from the field",
			line: `"BEZGOTOVINSKI PRENOS, OIP",100`,
			want: []string{"BEZGOTOVINSKI PRENOS, OIP", "100"},
		},
		{
			name: "trailing delimiter yields empty last field",
			line: "a,b,",
			want: []string{"a", "b", ""},
		},
		{
			name: "empty line yields one empty field",
			line: "",
			want: []string{""},
		},
		{
			name: "unterminated quote swallows the rest",
			line: `a,"b,c`,
			want: []string{"a", "b,c"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, SplitFields(tc.line))
		})
	}
}
