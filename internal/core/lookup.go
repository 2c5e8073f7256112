package core

import (
	"strconv"
	"strings"

	"github.com/JonMunkholm/adifgen/internal/core/tables"
)

// firstMatch scans table in declaration order and returns the first entry
// accepted by match.
func firstMatch[T any](table []T, match func(T) bool) (T, bool) {
	for _, entry := range table {
		if match(entry) {
			return entry, true
		}
	}
	var zero T
	return zero, false
}

// substitute applies every substitution to s in declaration order. Each entry
// sees the output of the ones before it.
func substitute(s string, subs []tables.Substitution) string {
	for _, sub := range subs {
		s = strings.ReplaceAll(s, sub.Pattern, sub.Replacement)
	}
	return s
}

// NormalizeMode maps a Hamlog mode string onto the ADIF mode vocabulary.
// Matching is case-insensitive and never fails: unknown modes come back
// upper-cased and otherwise untouched.
func NormalizeMode(mode string) string {
	s := strings.ToUpper(strings.TrimSpace(mode))
	s = substitute(s, tables.ModeSynonyms())
	return substitute(s, tables.ModeCanonical())
}

// ClassifyBand maps a frequency in MHz to its ADIF band designator.
// Unparsable input is a *FormatError; a frequency outside every amateur
// allocation is a *RangeError.
func ClassifyBand(freqMHz string) (string, error) {
	text := strings.TrimSpace(freqMHz)
	freq, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return "", &FormatError{Field: "freq", Value: text, Msg: "invalid frequency format"}
	}

	r, ok := firstMatch(tables.Bands(), func(b tables.BandRange) bool {
		return b.Contains(freq)
	})
	if !ok {
		return "", &RangeError{Field: "freq", Value: text, Msg: "unknown band"}
	}
	return r.Band, nil
}
