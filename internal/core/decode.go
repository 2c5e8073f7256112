package core

// decode.go turns uploaded bytes into text for Ingest.
//
// Hamlog is a Japanese Windows application and writes Shift_JIS by default.
// Other charsets are accepted by name. A UTF-8 or UTF-16 byte order mark
// always wins over the requested charset, which covers files re-saved by
// spreadsheet tools.

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DefaultCharset is used when the caller does not name one.
const DefaultCharset = "shift_jis"

var charsets = map[string]encoding.Encoding{
	"shift_jis":   japanese.ShiftJIS,
	"sjis":        japanese.ShiftJIS,
	"cp932":       japanese.ShiftJIS,
	"windows-31j": japanese.ShiftJIS,
	"euc-jp":      japanese.EUCJP,
	"iso-2022-jp": japanese.ISO2022JP,
	"utf-8":       unicode.UTF8,
	"utf8":        unicode.UTF8,
}

// ErrUnknownCharset is returned for a charset name that is not supported.
var ErrUnknownCharset = fmt.Errorf("%w: unsupported encoding", ErrFormat)

// LookupCharset resolves a charset name, case-insensitively.
// An empty name resolves to DefaultCharset.
func LookupCharset(name string) (encoding.Encoding, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = DefaultCharset
	}
	enc, ok := charsets[name]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownCharset, name)
	}
	return enc, nil
}

// DecodeLog reads r fully and decodes it to UTF-8 text using charset.
// Invalid byte sequences become U+FFFD rather than failing the upload.
func DecodeLog(r io.Reader, charset string) (string, error) {
	enc, err := LookupCharset(charset)
	if err != nil {
		return "", err
	}

	decoder := unicode.BOMOverride(enc.NewDecoder())
	data, err := io.ReadAll(transform.NewReader(r, decoder))
	if err != nil {
		return "", fmt.Errorf("decode log: %w", err)
	}
	return string(data), nil
}
