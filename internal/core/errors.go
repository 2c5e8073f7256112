package core

import (
	"errors"
	"fmt"
)

var (
	// ErrFormat is wrapped by every FormatError.
	ErrFormat = errors.New("invalid format")

	// ErrRange is wrapped by every RangeError.
	ErrRange = errors.New("value out of range")

	// ErrScopeMismatch means the upload is already an ADIF document.
	ErrScopeMismatch = errors.New("input is already in ADIF format")

	// ErrEmptyLog means the decoded upload contains no rows at all.
	ErrEmptyLog = errors.New("empty file")

	// ErrInvalidContext means the request metadata is incomplete.
	ErrInvalidContext = errors.New("invalid request context")
)

// FormatError reports text that does not match the expected syntax.
type FormatError struct {
	Field string
	Value string
	Msg   string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s: %q", e.Msg, e.Value)
}

func (e *FormatError) Unwrap() error { return ErrFormat }

// RangeError reports a well-formed value that has no mapping.
type RangeError struct {
	Field string
	Value string
	Msg   string
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s: %q", e.Msg, e.Value)
}

func (e *RangeError) Unwrap() error { return ErrRange }
