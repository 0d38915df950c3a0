package kernel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInteger(t *testing.T) {
	tests := []struct {
		literal string
		radix   int
		want    int64
	}{
		{literal: "0", want: 0},
		{literal: "42", want: 42},
		{literal: "-42", want: -42},
		{literal: "+42", want: 42},
		{literal: "  42  ", want: 42},
		{literal: "1_000_000", want: 1000000},
		{literal: "0b1010", want: 10},
		{literal: "0B1010", want: 10},
		{literal: "0o777", want: 511},
		{literal: "0O777", want: 511},
		{literal: "0777", want: 511},
		{literal: "0d999", want: 999},
		{literal: "0x1f", want: 31},
		{literal: "0XFF", want: 255},
		{literal: "-0x10", want: -16},
		{literal: "ff", radix: 16, want: 255},
		{literal: "0xff", radix: 16, want: 255},
		{literal: "z", radix: 36, want: 35},
		{literal: "10", radix: 2, want: 2},
		{literal: "010", radix: 10, want: 10},
		{literal: "9223372036854775807", want: 1<<63 - 1},
		{literal: "-9223372036854775808", want: -1 << 63},
	}
	for _, tt := range tests {
		t.Run(tt.literal, func(t *testing.T) {
			got, err := ParseInteger(tt.literal, tt.radix)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseIntegerRejects(t *testing.T) {
	tests := []struct {
		name    string
		literal string
		radix   int
	}{
		{name: "empty", literal: ""},
		{name: "whitespace only", literal: "   "},
		{name: "bare sign", literal: "-"},
		{name: "double sign", literal: "+-1"},
		{name: "leading underscore", literal: "_1"},
		{name: "trailing underscore", literal: "1_"},
		{name: "double underscore", literal: "1__0"},
		{name: "bare prefix", literal: "0x"},
		{name: "digit out of radix", literal: "12", radix: 2},
		{name: "prefix radix mismatch", literal: "0b1", radix: 8},
		{name: "trailing junk", literal: "12abc"},
		{name: "embedded space", literal: "1 2"},
		{name: "null byte", literal: "1\x002"},
		{name: "radix too small", literal: "1", radix: 1},
		{name: "radix too large", literal: "1", radix: 37},
		{name: "overflow", literal: "9223372036854775808"},
		{name: "underflow", literal: "-9223372036854775809"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseInteger(tt.literal, tt.radix)
			assert.Error(t, err)
		})
	}
}

func TestParseIntegerErrorMessages(t *testing.T) {
	_, err := ParseInteger("junk", 0)
	require.Error(t, err)
	assert.Equal(t, `invalid value for Integer(): "junk"`, err.Error())

	_, err = ParseInteger("1\x00", 0)
	require.Error(t, err)
	assert.Equal(t, "string contains null byte", err.Error())

	_, err = ParseInteger("1", 99)
	require.Error(t, err)
	assert.Equal(t, "invalid radix 99", err.Error())
}
