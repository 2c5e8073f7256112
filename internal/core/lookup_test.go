package core

import (
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/adifgen/internal/core/tables"
)

func TestNormalizeMode(t *testing.T) {
	tests := map[string]string{
		"FREEDV":       "DIGITALVOICE",
		"DV":           "DIGITALVOICE",
		"Dv":           "DIGITALVOICE",
		"D-STAR":       "DIGITALVOICE",
		"FUSIoN":       "DIGITALVOICE",
		"C4FM":         "DIGITALVOICE",
		"dmr":          "DIGITALVOICE",
		"DIGITALvOICE": "DIGITALVOICE",
		"ft4":          "MFSK",
		"JS8":          "MFSK",
		"CW":           "CW",
		"ssb":          "SSB",
		" FT8 ":        "FT8",
		"":             "",
	}

	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, NormalizeMode(in))
		})
	}
}

func TestNormalizeMode_Idempotent(t *testing.T) {
	inputs := []string{
		"FREEDV", "DV", "D-STAR", "FUSION", "C4FM", "DMR", "DSTAR",
		"FT4", "JS8", "FT8", "CW", "SSB", "FM", "AM", "RTTY", "MFSK", "DIGITALVOICE",
	}

	for _, in := range inputs {
		once := NormalizeMode(in)
		assert.Equal(t, once, NormalizeMode(once), "mode %q", in)
	}
}

func TestClassifyBand_InclusiveBounds(t *testing.T) {
	for _, b := range tables.Bands() {
		for _, f := range []float64{b.LowerMHz, b.UpperMHz} {
			text := strconv.FormatFloat(f, 'f', -1, 64)
			got, err := ClassifyBand(text)
			require.NoError(t, err, "freq %s", text)
			assert.Equal(t, b.Band, got, "freq %s", text)
		}
	}
}

func TestClassifyBand(t *testing.T) {
	tests := []struct {
		freq string
		want string
	}{
		{"0.136", "2190m"},
		{"7.025", "40m"},
		{"10.1", "30m"},
		{"14.062", "20m"},
		{"21.060", "15m"},
		{"50.313", "6m"},
		{"145.00", "2m"},
		{"433.0", "70cm"},
		{"1295", "23cm"},
		{"10475", "3cm"},
		{" 7.1 ", "40m"},
	}

	for _, tt := range tests {
		t.Run(tt.freq, func(t *testing.T) {
			got, err := ClassifyBand(tt.freq)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassifyBand_Errors(t *testing.T) {
	t.Run("out of every band", func(t *testing.T) {
		for _, freq := range []string{"99999", "10300", "6.9999", "0"} {
			_, err := ClassifyBand(freq)
			var re *RangeError
			require.True(t, errors.As(err, &re), "freq %s: got %v", freq, err)
			assert.ErrorIs(t, err, ErrRange)
			assert.Equal(t, freq, re.Value)
		}
	})

	t.Run("not a number", func(t *testing.T) {
		for _, freq := range []string{"abc", "", "7,025", "7.0.1"} {
			_, err := ClassifyBand(freq)
			var fe *FormatError
			require.True(t, errors.As(err, &fe), "freq %q: got %v", freq, err)
			assert.ErrorIs(t, err, ErrFormat)
			assert.Equal(t, "freq", fe.Field)
		}
	})
}

func TestFirstMatch(t *testing.T) {
	table := []int{3, 8, 12, 20}

	got, ok := firstMatch(table, func(n int) bool { return n > 5 })
	assert.True(t, ok)
	assert.Equal(t, 8, got)

	got, ok = firstMatch(table, func(n int) bool { return n > 100 })
	assert.False(t, ok)
	assert.Zero(t, got)
}
