// backend/src/parsers/locale_test.go
package parsers

import (
	"testing"
	"time"
)

func TestParseNumber(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want float64
	}{
		{"european decimal", "1.234,56", 1234.56},
		{"us decimal", "1,234.56", 1234.56},
		{"plain integer", "1500", 1500},
		{"comma thousands only", "1,500", 1500},
		{"single decimal digit comma", "10,5", 10.5},
		{"single decimal digit period", "10.5", 10.5},
		{"euro symbol stripped", "€1.234,56", 1234.56},
		{"dollar symbol stripped", "$1,234.56", 1234.56},
		{"pound symbol stripped", "£99.10", 99.1},
		{"internal whitespace stripped", " 1 234,56 ", 1234.56},
		{"quoted value", `"1,234.56"`, 1234.56},
		{"negative european", "-1.234,56", -1234.56},
		{"negative us", "-1,234.56", -1234.56},
		{"empty string", "", 0},
		{"whitespace only", "   ", 0},
		{"garbage", "N/A", 0},
		{"zero", "0", 0},
		{"european without thousands", "234,56", 234.56},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseNumber(tt.in); got != tt.want {
				t.Errorf("ParseNumber(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		want   string // YYYY-MM-DD of the parsed result
		wantOK bool
	}{
		{"iso", "2024-01-15", "2024-01-15", true},
		{"day first slash", "15/01/2024", "2024-01-15", true},
		{"day first dash", "15-01-2024", "2024-01-15", true},
		{"day first dot", "15.01.2024", "2024-01-15", true},
		{"year first slash", "2024/01/15", "2024-01-15", true},
		{"iso with time", "2024-01-15 09:30:00", "2024-01-15", true},
		{"padded", "  2024-01-15  ", "2024-01-15", true},
		{"iso wins over day-first", "2024-01-02", "2024-01-02", true},
		{"empty", "", "", false},
		{"garbage", "not a date", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDate(tt.in)
			if ok != tt.wantOK {
				t.Fatalf("ParseDate(%q) ok = %v, want %v", tt.in, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if formatted := got.Format(time.DateOnly); formatted != tt.want {
				t.Errorf("ParseDate(%q) = %s, want %s", tt.in, formatted, tt.want)
			}
		})
	}
}

func TestNormalizeISIN(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"valid upper", "US0378331005", "US0378331005"},
		{"lowercased input", "us0378331005", "US0378331005"},
		{"padded", "  US0378331005  ", "US0378331005"},
		{"too short", "US03783", ""},
		{"too long", "US03783310055", ""},
		{"empty", "", ""},
		// Checksum is deliberately not validated, so a wrong check digit
		// still normalizes.
		{"bad checksum accepted", "US0378331009", "US0378331009"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeISIN(tt.in); got != tt.want {
				t.Errorf("NormalizeISIN(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDetectDelimiter(t *testing.T) {
	priority := []rune{',', ';', '\t', '|'}
	tests := []struct {
		name    string
		content string
		want    rune
	}{
		{"comma", "a,b,c\n1,2,3", ','},
		{"semicolon", "a;b;c\n1;2;3", ';'},
		{"comma beats semicolon", "a,b;c\n", ','},
		{"pipe", "a|b|c|d|e\n", '|'},
		{"none found defaults to first", "abc\n", ','},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectDelimiter(tt.content, priority); got != tt.want {
				t.Errorf("DetectDelimiter(%q) = %q, want %q", tt.content, got, tt.want)
			}
		})
	}
}
