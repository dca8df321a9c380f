// Package csvimport parses lead lists uploaded as CSV. Files from Japanese
// call centers commonly arrive in Shift_JIS or CP932, so decoding is detected
// before parsing.
package csvimport

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/japanese"

	"github.com/paralleldialer/paralleldialer/internal/campaign"
)

// ErrEmptyFile is returned for an empty or whitespace-only upload.
var ErrEmptyFile = errors.New("empty CSV file")

// ErrMissingPhoneColumn is returned when the header lacks phone_number.
var ErrMissingPhoneColumn = errors.New("missing required column: phone_number")

// ParsedLead is one valid row from the upload.
type ParsedLead struct {
	PhoneNumber string
	Name        string
	Company     string
	Email       string
	Notes       string
}

// RowError describes one rejected row. Row numbers are 1-based file lines,
// so the first data row is 2.
type RowError struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

// Result carries the accepted leads and the per-row rejections.
type Result struct {
	Leads  []ParsedLead
	Errors []RowError
}

// decode converts the upload to UTF-8, trying UTF-8 itself, then Shift_JIS.
// x/text's ShiftJIS decoder covers the CP932 (Windows-31J) superset, so one
// decoder handles both required encodings. The decoder substitutes U+FFFD
// for invalid bytes instead of erroring, so the output is checked for
// replacement characters to detect a failed decode.
func decode(content []byte) (string, error) {
	if utf8.Valid(content) {
		return string(content), nil
	}
	if out, err := japanese.ShiftJIS.NewDecoder().Bytes(content); err == nil && !bytes.ContainsRune(out, utf8.RuneError) {
		return string(out), nil
	}
	// Last resort: keep what is decodable.
	return string(bytes.ToValidUTF8(content, []byte("�"))), nil
}

// Parse reads a CSV upload and returns the valid leads plus row-level errors.
// The header must contain phone_number; name, company, email and notes are
// optional. Header matching is case- and whitespace-insensitive.
func Parse(content []byte) (*Result, error) {
	if len(bytes.TrimSpace(content)) == 0 {
		return nil, ErrEmptyFile
	}

	text, err := decode(content)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("invalid CSV format: %w", err)
	}

	// Column name -> index, normalized.
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(stripBOM(name)))] = i
	}
	phoneCol, ok := columns["phone_number"]
	if !ok {
		return nil, ErrMissingPhoneColumn
	}

	result := &Result{}
	for row := 2; ; row++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.Errors = append(result.Errors, RowError{Row: row, Error: "malformed row"})
			continue
		}

		phone := field(record, phoneCol)
		if phone == "" {
			result.Errors = append(result.Errors, RowError{Row: row, Error: "empty phone number"})
			continue
		}
		if err := campaign.ValidatePhoneNumber(phone); err != nil {
			result.Errors = append(result.Errors, RowError{Row: row, Error: "invalid phone format: " + phone})
			continue
		}

		result.Leads = append(result.Leads, ParsedLead{
			PhoneNumber: phone,
			Name:        optional(record, columns, "name"),
			Company:     optional(record, columns, "company"),
			Email:       optional(record, columns, "email"),
			Notes:       optional(record, columns, "notes"),
		})
	}
	return result, nil
}

func field(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func optional(record []string, columns map[string]int, name string) string {
	i, ok := columns[name]
	if !ok {
		return ""
	}
	return field(record, i)
}

func stripBOM(s string) string {
	return strings.TrimPrefix(s, "\uFEFF")
}
