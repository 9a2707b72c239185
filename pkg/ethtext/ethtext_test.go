package ethtext

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidAddress(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  bool
	}{
		{"lowercase", "0x40ceeede9fa9ee09e594affb63cfc4994af5b14e", true},
		{"mixed case", "0x40ceeEdE9fA9ee09e594aFFb63CFc4994aF5B14e", true},
		{"too short", "0x123", false},
		{"missing prefix", "40ceeede9fa9ee09e594affb63cfc4994af5b14e", false},
		{"non-hex chars", "0x40ceeede9fa9ee09e594affb63cfc4994af5b1zz", false},
		{"too long", "0x40ceeede9fa9ee09e594affb63cfc4994af5b14e00", false},
		{"empty", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsValidAddress(tc.input))
		})
	}
}

func TestIsValidTxHash(t *testing.T) {
	valid := "0x" + strings.Repeat("a", 64)
	assert.True(t, IsValidTxHash(valid))
	assert.True(t, IsValidTxHash("0x"+strings.Repeat("A", 64)))

	assert.False(t, IsValidTxHash("0x"+strings.Repeat("a", 63)))
	assert.False(t, IsValidTxHash(strings.Repeat("a", 66)))
	assert.False(t, IsValidTxHash(""))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t,
		"0x40ceeede9fa9ee09e594affb63cfc4994af5b14e",
		NormalizeAddress("0x40ceeEdE9fA9ee09e594aFFb63CFc4994aF5B14e"))

	upper := "0x" + strings.Repeat("AB", 32)
	assert.Equal(t, "0x"+strings.Repeat("ab", 32), NormalizeTxHash(upper))
}
