package core

// error_messages.go maps technical errors to user-facing messages with codes
// that users can quote when reporting a problem.
//
// # Format Errors (FMT001-FMT099)
//
//	FMT001 - Invalid date: a date is not yyyy/mm/dd or yy/mm/dd
//	FMT002 - Invalid time: a time is not HH:MM plus a zone letter
//	FMT003 - Invalid frequency: a frequency is not a number in MHz
//	FMT004 - Malformed row: broken quoting or too few columns
//	FMT005 - Required field: call, date, time, freq or mode is empty
//
// # Range Errors (RNG001-RNG099)
//
//	RNG001 - Unknown band: frequency lies outside every amateur band
//
// # Scope Errors (SCOPE001-SCOPE099)
//
//	SCOPE001 - Already ADIF: the upload is an ADIF file, not a Hamlog export
//
// # Request Errors (REQ001-REQ099)
//
//	REQ001 - Missing station call sign
//	REQ002 - Missing activation reference
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large
//	FILE002 - Upload is not a readable multipart form
//	FILE003 - Unsupported encoding
//	FILE004 - No file selected
//	FILE005 - Empty file
//
// # Conversion Errors (CONV001-CONV099)
//
//	CONV001 - System busy: every conversion slot is taken
//	CONV002 - Request cancelled
//	CONV003 - Request timed out
//
// # Rate Limiting (RATE001)
//
// # Default Error (ERR000)
//
// Patterns are matched case-insensitively with strings.Contains and the first
// match wins, so specific patterns come before general ones.

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened
	Action  string // What to do about it
	Code    string // Support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// Row format
	{"invalid date format", UserMessage{"Invalid date in log", "Dates must look like 2024/01/31 or 24/01/31", "FMT001"}},
	{"invalid time format", UserMessage{"Invalid time in log", "Times must look like 08:00J or 23:00Z", "FMT002"}},
	{"invalid frequency format", UserMessage{"Invalid frequency in log", "Frequencies must be numbers in MHz, e.g. 7.025", "FMT003"}},
	{"malformed row", UserMessage{"A log line could not be read", "Check the line for stray quotes or missing columns", "FMT004"}},
	{"required field", UserMessage{"A log line is missing a value", "Call, date, time, frequency and mode must be filled in", "FMT005"}},

	// Range
	{"unknown band", UserMessage{"Frequency is outside the amateur bands", "Check the frequency column for typos", "RNG001"}},

	// Scope
	{"already in adif", UserMessage{"This file is already in ADIF format", "Upload the Hamlog CSV export instead", "SCOPE001"}},

	// Request metadata
	{"station call sign is required", UserMessage{"Station call sign is missing", "Enter the activator call sign", "REQ001"}},
	{"my reference is required", UserMessage{"Activation reference is missing", "Enter a summit or park reference such as JA/KN-006", "REQ002"}},

	// File
	{"file too large", UserMessage{"File exceeds the maximum upload size", "Split the log into smaller files", "FILE001"}},
	{"invalid upload form", UserMessage{"The upload could not be read", "Send the log as multipart/form-data", "FILE002"}},
	{"unsupported encoding", UserMessage{"File encoding is not supported", "Use Shift_JIS or UTF-8", "FILE003"}},
	{"no file provided", UserMessage{"No file was selected", "Select a Hamlog CSV file to upload", "FILE004"}},
	{"empty file", UserMessage{"The uploaded file is empty", "Upload a log with at least one QSO", "FILE005"}},

	// Conversion
	{"too many conversions", UserMessage{"The server is busy", "Please wait a moment and try again", "CONV001"}},
	{"context canceled", UserMessage{"Request was cancelled", "Please try again", "CONV002"}},
	{"context deadline exceeded", UserMessage{"Request timed out", "Try a smaller file or try again later", "CONV003"}},

	// Rate limiting
	{"rate limit", UserMessage{"Too many requests", "Please wait a moment before trying again", "RATE001"}},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// A nil error yields the zero UserMessage.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())
	for _, p := range errorPatterns {
		if strings.Contains(errStr, p.pattern) {
			return p.msg
		}
	}
	return defaultMessage
}

// FormatUserError renders a UserMessage as a single line for plain-text output.
func FormatUserError(msg UserMessage) string {
	if msg.Action == "" {
		return fmt.Sprintf("%s (%s)", msg.Message, msg.Code)
	}
	return fmt.Sprintf("%s. %s (%s)", msg.Message, msg.Action, msg.Code)
}
