package csvimport

import (
	"errors"
	"testing"

	"golang.org/x/text/encoding/japanese"
)

func TestParseBasic(t *testing.T) {
	content := []byte("phone_number,name,company,email,notes\n" +
		"+818011110001,Tanaka,Acme,tanaka@example.com,first contact\n" +
		"+818011110002,,,,\n")

	result, err := Parse(content)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if len(result.Leads) != 2 || len(result.Errors) != 0 {
		t.Fatalf("leads=%d errors=%v", len(result.Leads), result.Errors)
	}

	l := result.Leads[0]
	if l.PhoneNumber != "+818011110001" || l.Name != "Tanaka" || l.Company != "Acme" ||
		l.Email != "tanaka@example.com" || l.Notes != "first contact" {
		t.Errorf("first lead = %+v", l)
	}
	if result.Leads[1].Name != "" {
		t.Errorf("optional fields not empty: %+v", result.Leads[1])
	}
}

func TestParseHeaderNormalization(t *testing.T) {
	content := []byte(" Phone_Number , NAME \n+818011110001,Suzuki\n")
	result, err := Parse(content)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if len(result.Leads) != 1 || result.Leads[0].Name != "Suzuki" {
		t.Errorf("result = %+v", result)
	}
}

func TestParseRowErrors(t *testing.T) {
	content := []byte("phone_number,name\n" +
		"+818011110001,ok\n" +
		",missing\n" +
		"0312345678,not e164\n" +
		"+818011110002,ok2\n")

	result, err := Parse(content)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if len(result.Leads) != 2 {
		t.Errorf("leads = %d, want 2", len(result.Leads))
	}
	if len(result.Errors) != 2 {
		t.Fatalf("errors = %+v, want 2", result.Errors)
	}
	// First data row is file line 2.
	if result.Errors[0].Row != 3 || result.Errors[1].Row != 4 {
		t.Errorf("error rows = %d, %d, want 3, 4", result.Errors[0].Row, result.Errors[1].Row)
	}
}

func TestParseMissingPhoneColumn(t *testing.T) {
	_, err := Parse([]byte("name,email\nTanaka,t@example.com\n"))
	if !errors.Is(err, ErrMissingPhoneColumn) {
		t.Errorf("error = %v, want ErrMissingPhoneColumn", err)
	}
}

func TestParseEmptyFile(t *testing.T) {
	for _, content := range [][]byte{nil, []byte(""), []byte("  \n  ")} {
		if _, err := Parse(content); !errors.Is(err, ErrEmptyFile) {
			t.Errorf("Parse(%q) error = %v, want ErrEmptyFile", content, err)
		}
	}
}

func TestParseShiftJIS(t *testing.T) {
	// 田中 in Shift_JIS is not valid UTF-8, forcing encoding detection.
	utf8CSV := "phone_number,name\n+818011110001,田中\n"
	sjis, err := japanese.ShiftJIS.NewEncoder().Bytes([]byte(utf8CSV))
	if err != nil {
		t.Fatalf("encoding fixture: %v", err)
	}

	result, err := Parse(sjis)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if len(result.Leads) != 1 || result.Leads[0].Name != "田中" {
		t.Errorf("decoded lead = %+v", result.Leads)
	}
}

func TestParseUndecodableBytes(t *testing.T) {
	// 0x81 0x39 is invalid UTF-8 and an invalid Shift_JIS pair (lead byte
	// with a bad trail). The Shift_JIS decoder substitutes U+FFFD rather
	// than erroring, so the strict check must reject it and fall through to
	// the replacement path, keeping the decodable ASCII columns intact.
	content := append([]byte("phone_number,name\n+818011110001,"), 0x81, 0x39, '\n')

	result, err := Parse(content)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if len(result.Leads) != 1 || result.Leads[0].PhoneNumber != "+818011110001" {
		t.Fatalf("leads = %+v", result.Leads)
	}
	if result.Leads[0].Name != "�9" {
		t.Errorf("name = %q, want replacement-substituted value", result.Leads[0].Name)
	}
}

func TestParseUTF8BOM(t *testing.T) {
	content := append([]byte("\uFEFF"), []byte("phone_number\n+818011110001\n")...)
	result, err := Parse(content)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if len(result.Leads) != 1 {
		t.Errorf("leads = %d, want 1", len(result.Leads))
	}
}
