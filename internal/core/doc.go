// Package core converts Hamlog CSV exports into ADIF QSO records.
//
// The package holds all conversion logic independent of any transport. It is
// used by the HTTP server, the adifconv command and tests without
// modification.
//
// # Pipeline
//
// A conversion runs in four steps:
//
//  1. [DecodeLog] turns uploaded bytes into text (Shift_JIS unless told otherwise)
//  2. [Ingest] refuses ADIF input and splits the text into [LogRow] values
//  3. [Assembler.Assemble] normalizes each row with [NormalizeTime],
//     [ClassifyBand] and [NormalizeMode] and merges the [RequestContext]
//  4. The [BatchResult] carries the records in input order plus one
//     [RowFailure] per line that could not be converted
//
// [Service.Convert] runs the whole pipeline behind a [Limiter] and records
// metrics and history.
//
// # Lookup Tables
//
// Band ranges and mode substitutions are declarative data in package tables,
// scanned in declaration order by a single generic lookup. The first matching
// band range wins; mode substitutions apply in sequence.
//
// # Error Handling
//
// Row-level problems are [*FormatError] (unparsable text) or [*RangeError]
// (well-formed but unmapped). They never stop a batch. Batch-level refusals
// are [ErrScopeMismatch] and [ErrEmptyLog], which come with an NG result.
// [MapError] turns any of these into a [UserMessage] with a support code.
package core
