package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseQty(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"1,234", 1234},
		{"", 0},
		{"   ", 0},
		{"abc", 0},
		{"12.5", 12.5},
		{" 7 ", 7},
		{"1,000,000.25", 1000000.25},
		{"-3", 0},
		{"10 EA", 10},
		{".5", 0.5},
		{"NaN", 0},
		{"1e400", 0},
	}

	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseQty(tc.in))
		})
	}
}

func TestParseQty_Idempotent(t *testing.T) {
	for _, in := range []string{"1,234", "12.5", "abc", "", "0.1"} {
		once := ParseQty(in)
		assert.Equal(t, once, ParseQty(FormatQty(once)), in)
	}
}

func TestParseQtyOK(t *testing.T) {
	v, ok := ParseQtyOK("0")
	assert.True(t, ok)
	assert.Zero(t, v)

	_, ok = ParseQtyOK("n/a")
	assert.False(t, ok)

	_, ok = ParseQtyOK("")
	assert.False(t, ok)
}

func TestFormatQty(t *testing.T) {
	assert.Equal(t, "0", FormatQty(0))
	assert.Equal(t, "12", FormatQty(12))
	assert.Equal(t, "-3", FormatQty(-3))
	assert.Equal(t, "2.75", FormatQty(2.75))
}
