package core

import (
	"encoding/json"
	"fmt"
	"time"
)

// Status is the overall outcome of a conversion batch.
type Status string

const (
	StatusOK Status = "OK"
	StatusNG Status = "NG"
)

// LogRow is one line of a Hamlog CSV export before normalization.
type LogRow struct {
	Line    int      // 1-based line number in the decoded text
	Call    string   // Worked station
	Date    string   // yyyy/mm/dd or yy/mm/dd
	Time    string   // HH:MM plus a zone letter, e.g. "08:00J"
	Freq    string   // MHz
	Mode    string   // Free-form mode text
	RSTSent string   // Hamlog "His" column
	RSTRcvd string   // Hamlog "My" column
	Fields  []string // Every raw field, including the ones above
}

// NormalizedContact holds the validated ADIF fields derived from a LogRow.
type NormalizedContact struct {
	QSODate string `json:"qso_date"`
	TimeOn  string `json:"time_on"`
	Band    string `json:"band"`
	Mode    string `json:"mode"`
}

// SignatureTag is an activation-program reference, e.g. MY_SOTA_REF=JA/KN-006.
// It encodes to JSON as a two-element array.
type SignatureTag struct {
	Key   string
	Value string
}

// MarshalJSON encodes the tag as ["KEY","value"].
func (t SignatureTag) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{t.Key, t.Value})
}

// UnmarshalJSON decodes the ["KEY","value"] form.
func (t *SignatureTag) UnmarshalJSON(data []byte) error {
	var pair [2]string
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("signature tag: %w", err)
	}
	t.Key, t.Value = pair[0], pair[1]
	return nil
}

// ADIFRecord is one converted QSO.
type ADIFRecord struct {
	NormalizedContact

	Call     string         `json:"call"`
	Freq     string         `json:"freq,omitempty"`
	RSTSent  string         `json:"rst_sent,omitempty"`
	RSTRcvd  string         `json:"rst_rcvd,omitempty"`
	Station  string         `json:"station_callsign"`
	Operator string         `json:"operator"`
	MyQTH    string         `json:"my_qth,omitempty"`
	MySig    []SignatureTag `json:"my_sig"`
	HisSig   []SignatureTag `json:"his_sig"` // nil unless a his reference was supplied
}

// RowFailure records a line that could not be converted.
type RowFailure struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
	Raw    string `json:"raw,omitempty"`
}

// BatchResult is the outcome of converting one uploaded log.
// Status is NG only when the input was refused as a whole; failed rows are
// listed in Failures and do not change the status.
type BatchResult struct {
	ID       string       `json:"id,omitempty"`
	Status   Status       `json:"status"`
	Records  []ADIFRecord `json:"records"`
	Failures []RowFailure `json:"failures"`
}

// Rejected returns the NG result with no records.
func Rejected() BatchResult {
	return BatchResult{
		Status:   StatusNG,
		Records:  []ADIFRecord{},
		Failures: []RowFailure{},
	}
}

// RequestContext carries the per-upload metadata merged into every record.
type RequestContext struct {
	StationCall  string // Activator call sign, ADIF STATION_CALLSIGN
	Operator     string // Defaults to StationCall when empty
	MyReference  string // Comma-separated activation references, required
	HisReference string // Comma-separated references of the worked station, optional
	MyLocation   string // Opaque; passed through as MY_QTH
}

// ConversionSummary describes a finished conversion for history and metrics.
type ConversionSummary struct {
	ID           string
	FileName     string
	StationCall  string
	Operator     string
	MyReference  string
	HisReference string
	Status       Status
	Records      int
	Failures     int
	Duration     time.Duration
	IPAddress    string
	UserAgent    string
	CreatedAt    time.Time
}
