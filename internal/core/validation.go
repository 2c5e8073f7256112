package core

// validation.go checks the structure of a Hamlog CSV row before any value is
// normalized. Hamlog exports have no header line; columns are positional:
//
//	0 Call  1 Date  2 Time  3 His RST  4 My RST  5 Freq  6 Mode
//	7 Code  8 GL  9 QSL  10 Name  11 QTH  12 Remarks1  13 Remarks2  14 Flag
//
// Only the first seven columns matter for conversion. Trailing columns may be
// missing; anything shorter than MinHamlogFields is malformed.

import (
	"fmt"
	"strings"
)

const (
	colCall = iota
	colDate
	colTime
	colHisRST
	colMyRST
	colFreq
	colMode
)

// MinHamlogFields is the number of leading columns a row must carry.
const MinHamlogFields = colMode + 1

// FieldSpec describes one positional Hamlog column.
type FieldSpec struct {
	Name     string
	Index    int
	Required bool // Must be non-empty
}

// hamlogSpecs lists the columns consumed by the converter.
var hamlogSpecs = []FieldSpec{
	{Name: "Call", Index: colCall, Required: true},
	{Name: "Date", Index: colDate, Required: true},
	{Name: "Time", Index: colTime, Required: true},
	{Name: "His", Index: colHisRST},
	{Name: "My", Index: colMyRST},
	{Name: "Freq", Index: colFreq, Required: true},
	{Name: "Mode", Index: colMode, Required: true},
}

// ValidationError represents a single structural problem with a row.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

func (e ValidationError) Unwrap() error { return ErrFormat }

// ValidateFields checks a split row against the Hamlog column layout and
// returns the first problem found.
func ValidateFields(fields []string) error {
	if len(fields) < MinHamlogFields {
		return ValidationError{
			Message: fmt.Sprintf("malformed row: %d fields, want at least %d", len(fields), MinHamlogFields),
		}
	}
	for _, spec := range hamlogSpecs {
		if spec.Required && CleanCell(fields[spec.Index]) == "" {
			return ValidationError{Field: spec.Name, Message: "required field is empty"}
		}
	}
	return nil
}

// newLogRow builds a LogRow from validated fields.
func newLogRow(line int, fields []string) LogRow {
	return LogRow{
		Line:    line,
		Call:    strings.ToUpper(CleanCell(fields[colCall])),
		Date:    CleanCell(fields[colDate]),
		Time:    CleanCell(fields[colTime]),
		Freq:    CleanCell(fields[colFreq]),
		Mode:    CleanCell(fields[colMode]),
		RSTSent: CleanCell(fields[colHisRST]),
		RSTRcvd: CleanCell(fields[colMyRST]),
		Fields:  fields,
	}
}
