package timecode

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		code string
		want float64
	}{
		{"seconds only", "42", 42},
		{"fractional seconds", "10.105", 10.105},
		{"minutes and seconds", "00:10.105", 10.105},
		{"minutes carry", "1:30", 90},
		{"hours minutes seconds", "01:02:03.5", 3723.5},
		{"four fields fold by sixty", "1:00:00:00", 216000},
		{"zero", "0:00", 0},
		{"surrounding whitespace", " 00:20.030 ", 20.03},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.code)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestParseNegativeFieldsAccepted(t *testing.T) {
	got, err := Parse("-5")
	require.NoError(t, err)
	assert.Equal(t, -5.0, got)
}

func TestParseErrors(t *testing.T) {
	for _, code := range []string{"", "   ", "ab:cd", "1:xx", "1::2", "00:10,105"} {
		t.Run(code, func(t *testing.T) {
			_, err := Parse(code)
			require.Error(t, err)

			var perr *ParseError
			assert.True(t, errors.As(err, &perr), "expected *ParseError, got %T", err)
		})
	}
}
