package core

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Validate checks the request metadata and fills in defaults.
func (rc RequestContext) Validate() (RequestContext, error) {
	rc.StationCall = strings.ToUpper(strings.TrimSpace(rc.StationCall))
	rc.Operator = strings.ToUpper(strings.TrimSpace(rc.Operator))
	rc.MyReference = strings.TrimSpace(rc.MyReference)
	rc.HisReference = strings.TrimSpace(rc.HisReference)
	rc.MyLocation = strings.TrimSpace(rc.MyLocation)

	if rc.StationCall == "" {
		return rc, fmt.Errorf("%w: station call sign is required", ErrInvalidContext)
	}
	if rc.Operator == "" {
		rc.Operator = rc.StationCall
	}
	if len(SignatureTags(rc.MyReference, true)) == 0 {
		return rc, fmt.Errorf("%w: my reference is required", ErrInvalidContext)
	}
	return rc, nil
}

// Assembler converts ingested rows into ADIF records.
type Assembler struct {
	// Workers bounds how many rows are normalized at once. Values below 1
	// mean sequential processing.
	Workers int
}

// Assemble converts rows sequentially. See Assembler.Assemble.
func Assemble(rows []LogRow, rc RequestContext) (BatchResult, error) {
	return Assembler{}.Assemble(context.Background(), rows, rc)
}

// Assemble normalizes every row and merges it with the request context.
//
// Rows that fail normalization are listed in Failures with their line number;
// they never stop the remaining rows. Records keep the input order. The only
// errors returned are an invalid request context and context cancellation.
func (a Assembler) Assemble(ctx context.Context, rows []LogRow, rc RequestContext) (BatchResult, error) {
	rc, err := rc.Validate()
	if err != nil {
		return BatchResult{}, err
	}

	myTags := SignatureTags(rc.MyReference, true)
	hisTags := SignatureTags(rc.HisReference, false)

	type outcome struct {
		record ADIFRecord
		err    error
	}
	outcomes := make([]outcome, len(rows))

	workers := a.Workers
	if workers < 1 {
		workers = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range rows {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rec, err := buildRecord(rows[i], rc, myTags, hisTags)
			outcomes[i] = outcome{record: rec, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return BatchResult{}, fmt.Errorf("assemble: %w", err)
	}

	result := BatchResult{
		Status:   StatusOK,
		Records:  make([]ADIFRecord, 0, len(rows)),
		Failures: []RowFailure{},
	}
	for i, o := range outcomes {
		if o.err != nil {
			result.Failures = append(result.Failures, RowFailure{
				Line:   rows[i].Line,
				Reason: o.err.Error(),
				Raw:    strings.Join(rows[i].Fields, ","),
			})
			continue
		}
		result.Records = append(result.Records, o.record)
	}

	return result, nil
}

// buildRecord runs the three normalizers over one row.
func buildRecord(row LogRow, rc RequestContext, myTags, hisTags []SignatureTag) (ADIFRecord, error) {
	date, tm, err := NormalizeTime(row.Date, row.Time)
	if err != nil {
		return ADIFRecord{}, err
	}
	band, err := ClassifyBand(row.Freq)
	if err != nil {
		return ADIFRecord{}, err
	}

	rec := ADIFRecord{
		NormalizedContact: NormalizedContact{
			QSODate: date,
			TimeOn:  tm,
			Band:    band,
			Mode:    NormalizeMode(row.Mode),
		},
		Call:     row.Call,
		Freq:     row.Freq,
		RSTSent:  row.RSTSent,
		RSTRcvd:  row.RSTRcvd,
		Station:  rc.StationCall,
		Operator: rc.Operator,
		MyQTH:    rc.MyLocation,
		MySig:    slices.Clone(myTags),
	}
	if len(hisTags) > 0 {
		rec.HisSig = slices.Clone(hisTags)
	}
	return rec, nil
}

// mergeFailures combines ingestion and assembly failures in line order.
func mergeFailures(a, b []RowFailure) []RowFailure {
	out := make([]RowFailure, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Line < out[j].Line })
	return out
}
