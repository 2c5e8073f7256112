package core

// convert.go turns Hamlog date and time text into ADIF QSO_DATE and TIME_ON.
//
// Hamlog writes dates as yy/mm/dd or yyyy/mm/dd and times as HH:MM followed by
// a single zone letter. "Z" and "U" mean UTC; every other letter is the
// application's local convention, Japan Standard Time (+09:00). ADIF wants
// both fields in UTC, so local entries may land on the previous calendar day.

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	hamlogDateRe = regexp.MustCompile(`^(\d{1,4})/(\d{1,2})/(\d{1,2})$`)
	hamlogTimeRe = regexp.MustCompile(`^(\d{2}):(\d{2})([A-Za-z])$`)
)

// TwoDigitYearPivot splits two-digit years: above it they belong to the
// 1900s, at or below it to the 2000s.
const TwoDigitYearPivot = 65

// hamlogLocal is the fixed offset Hamlog uses for non-UTC entries.
var hamlogLocal = time.FixedZone("JST", 9*60*60)

const (
	adifDateLayout = "20060102"
	adifTimeLayout = "1504"
)

// NormalizeTime converts a Hamlog date and time into UTC ADIF date (YYYYMMDD)
// and time (HHMM) strings. Malformed or impossible values return a *FormatError.
func NormalizeTime(dateText, timeText string) (adifDate, adifTime string, err error) {
	dateText = strings.TrimSpace(dateText)
	timeText = strings.TrimSpace(timeText)

	d := hamlogDateRe.FindStringSubmatch(dateText)
	if d == nil {
		return "", "", &FormatError{Field: "date", Value: dateText, Msg: "invalid date format"}
	}
	h := hamlogTimeRe.FindStringSubmatch(timeText)
	if h == nil {
		return "", "", &FormatError{Field: "time", Value: timeText, Msg: "invalid time format"}
	}

	// The regexps guarantee digits, so Atoi cannot fail here.
	year, _ := strconv.Atoi(d[1])
	month, _ := strconv.Atoi(d[2])
	day, _ := strconv.Atoi(d[3])
	hour, _ := strconv.Atoi(h[1])
	minute, _ := strconv.Atoi(h[2])

	year = expandYear(year)

	if hour > 23 || minute > 59 {
		return "", "", &FormatError{Field: "time", Value: timeText, Msg: "invalid time format"}
	}

	loc := zoneFor(h[3])
	t := time.Date(year, time.Month(month), day, hour, minute, 0, 0, loc)

	// time.Date normalizes overflow (Feb 30 -> Mar 1); reject instead.
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return "", "", &FormatError{Field: "date", Value: dateText, Msg: "invalid date format"}
	}

	utc := t.UTC()
	return utc.Format(adifDateLayout), utc.Format(adifTimeLayout), nil
}

// expandYear applies the two-digit year pivot.
func expandYear(year int) int {
	if year >= 100 {
		return year
	}
	if year > TwoDigitYearPivot {
		return 1900 + year
	}
	return 2000 + year
}

// zoneFor maps a Hamlog zone letter to a location.
func zoneFor(letter string) *time.Location {
	switch strings.ToUpper(letter) {
	case "Z", "U":
		return time.UTC
	default:
		return hamlogLocal
	}
}

// CleanCell removes common export artifacts from a cell value:
// surrounding whitespace, an Excel formula prefix (="...") and stray quotes.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	s = strings.Trim(s, `"'`)

	return strings.TrimSpace(s)
}
