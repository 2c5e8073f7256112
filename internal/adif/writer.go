// Package adif renders converted QSO records as an ADIF (.adi) document.
package adif

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/JonMunkholm/adifgen/internal/core"
)

// Version is the ADIF specification version written to the header.
const Version = "3.1.4"

// DefaultProgramID is written as PROGRAMID when none is configured.
const DefaultProgramID = "adifgen"

const timestampLayout = "20060102 150405"

// ErrRejected is returned when asked to encode an NG batch.
var ErrRejected = errors.New("batch was rejected, nothing to export")

// Field is one ADIF data specifier.
type Field struct {
	Name  string
	Value string
}

// Fields lists the non-empty ADIF fields of rec in output order.
func Fields(rec core.ADIFRecord) []Field {
	fields := []Field{
		{"CALL", rec.Call},
		{"QSO_DATE", rec.QSODate},
		{"TIME_ON", rec.TimeOn},
		{"BAND", rec.Band},
		{"MODE", rec.Mode},
		{"FREQ", rec.Freq},
		{"RST_SENT", rec.RSTSent},
		{"RST_RCVD", rec.RSTRcvd},
		{"STATION_CALLSIGN", rec.Station},
		{"OPERATOR", rec.Operator},
		{"MY_QTH", rec.MyQTH},
	}
	for _, tag := range rec.MySig {
		fields = append(fields, Field{tag.Key, tag.Value})
	}
	for _, tag := range rec.HisSig {
		fields = append(fields, Field{tag.Key, tag.Value})
	}

	out := fields[:0]
	for _, f := range fields {
		if f.Value != "" {
			out = append(out, f)
		}
	}
	return out
}

// Writer writes ADIF data specifiers. Errors are sticky: after the first
// failed write every call returns the same error.
type Writer struct {
	w   *bufio.Writer
	err error
}

// NewWriter returns a Writer buffering output to w. Call Flush when done.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// WriteHeader writes the document header, ending with <EOH>.
func (w *Writer) WriteHeader(programID string) error {
	if programID == "" {
		programID = DefaultProgramID
	}
	w.printf("Generated by %s\n", programID)
	w.field(Field{"ADIF_VER", Version})
	w.field(Field{"PROGRAMID", programID})
	w.field(Field{"CREATED_TIMESTAMP", clock.Now().UTC().Format(timestampLayout)})
	w.printf("<EOH>\n\n")
	return w.err
}

// WriteRecord writes one QSO followed by <EOR>.
func (w *Writer) WriteRecord(rec core.ADIFRecord) error {
	for _, f := range Fields(rec) {
		w.field(f)
	}
	w.printf("<EOR>\n")
	return w.err
}

// Flush writes any buffered data to the underlying writer.
func (w *Writer) Flush() error {
	if w.err != nil {
		return w.err
	}
	w.err = w.w.Flush()
	return w.err
}

func (w *Writer) field(f Field) {
	// ADIF lengths count characters, not bytes.
	w.printf("<%s:%d>%s ", f.Name, utf8.RuneCountInString(f.Value), f.Value)
}

func (w *Writer) printf(format string, args ...any) {
	if w.err != nil {
		return
	}
	_, w.err = fmt.Fprintf(w.w, format, args...)
}

// Encode writes res as a complete ADIF document.
func Encode(w io.Writer, res core.BatchResult, programID string) error {
	if res.Status != core.StatusOK {
		return ErrRejected
	}

	aw := NewWriter(w)
	if err := aw.WriteHeader(programID); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, rec := range res.Records {
		if err := aw.WriteRecord(rec); err != nil {
			return fmt.Errorf("write record %d: %w", i+1, err)
		}
	}
	return aw.Flush()
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// FileName suggests a download name such as "JA1ZZZ_JA-KN-006_20240105.adi",
// built from the station call, the first activation reference and today's date.
func FileName(res core.BatchResult) string {
	parts := []string{}
	if len(res.Records) > 0 {
		rec := res.Records[0]
		parts = append(parts, rec.Station)
		if len(rec.MySig) > 0 {
			ref, _, _ := strings.Cut(rec.MySig[0].Value, ",")
			parts = append(parts, ref)
		}
	}
	parts = append(parts, clock.Now().UTC().Format("20060102"))

	for i, p := range parts {
		parts[i] = strings.Trim(unsafeFileChars.ReplaceAllString(p, "-"), "-")
	}
	return strings.Join(parts, "_") + ".adi"
}
