package domain

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBNB(t *testing.T) {
	cases := map[string]string{
		"0.10":  "100000000000000000",
		"0.002": "2000000000000000",
		"1":     "1000000000000000000",
		" 2.5 ": "2500000000000000000",
		"0":     "0",
	}
	for in, want := range cases {
		got, err := ParseBNB(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got.String(), in)
	}
}

func TestParseBNB_Invalid(t *testing.T) {
	for _, in := range []string{"", "abc", "-1", "0.0000000000000000001"} {
		_, err := ParseBNB(in)
		assert.Error(t, err, in)
	}
}

func TestFormatBNB(t *testing.T) {
	wei, _ := new(big.Int).SetString("100000000000000000", 10)
	assert.Equal(t, "0.1", FormatBNB(wei))
	assert.Equal(t, "0", FormatBNB(nil))
	assert.Equal(t, "0", FormatBNB(new(big.Int)))
}
