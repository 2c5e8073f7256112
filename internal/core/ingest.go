package core

import (
	"encoding/csv"
	"errors"
	"fmt"
	"strings"
)

// ADIFMarker identifies text that is already an ADIF export. Any upload
// containing it is refused as a whole. A plain substring test can misfire on
// a free-text remark that happens to contain the marker; that risk is
// accepted to keep the gate predictable.
const ADIFMarker = "<ADIF_VER"

// byteOrderMark is left on text that did not come through DecodeLog.
const byteOrderMark = "\ufeff"

// Ingest splits decoded Hamlog CSV text into rows.
//
// Each non-blank line is parsed on its own, so a line with broken quoting or
// too few columns is reported as a RowFailure and the rest of the file is
// still read. ErrScopeMismatch is returned for ADIF input and ErrEmptyLog for
// text with no non-blank lines.
func Ingest(raw string) ([]LogRow, []RowFailure, error) {
	raw = strings.TrimPrefix(raw, byteOrderMark)

	if strings.Contains(raw, ADIFMarker) {
		return nil, nil, ErrScopeMismatch
	}

	var (
		rows     []LogRow
		failures []RowFailure
	)

	for i, line := range strings.Split(raw, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lineNo := i + 1

		fields, err := splitRow(line)
		if err == nil {
			err = ValidateFields(fields)
		}
		if err != nil {
			failures = append(failures, RowFailure{Line: lineNo, Reason: err.Error(), Raw: line})
			continue
		}

		rows = append(rows, newLogRow(lineNo, fields))
	}

	if len(rows) == 0 && len(failures) == 0 {
		return nil, nil, ErrEmptyLog
	}

	return rows, failures, nil
}

// splitRow parses a single CSV line.
func splitRow(line string) ([]string, error) {
	r := csv.NewReader(strings.NewReader(line))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	fields, err := r.Read()
	if err != nil {
		return nil, &FormatError{Field: "row", Value: line, Msg: fmt.Sprintf("malformed row (%v)", unwrapCSV(err))}
	}
	return fields, nil
}

// unwrapCSV drops the line/column prefix of a csv.ParseError; every row is
// parsed alone, so those positions are always line 1.
func unwrapCSV(err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return pe.Err
	}
	return err
}
