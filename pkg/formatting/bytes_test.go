package formatting_test

import (
	"testing"

	"github.com/atlaspest/salesbridge/pkg/formatting"
)

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		name      string
		n         int64
		precision int
		expected  string
	}{
		{"zero", 0, 2, "0 B"},
		{"bytes", 512, 0, "512 B"},
		{"kilobytes", 2048, 1, "2.0 KB"},
		{"megabytes", 5 * 1024 * 1024, 0, "5 MB"},
		{"gigabytes rounded", 1536 * 1024 * 1024, 1, "1.5 GB"},
		{"negative precision clamped", 2048, -3, "2 KB"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := formatting.FormatBytes(tc.n, tc.precision); got != tc.expected {
				t.Errorf("FormatBytes(%d, %d) = %q, want %q", tc.n, tc.precision, got, tc.expected)
			}
		})
	}
}

func TestParseBytes(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected int64
	}{
		{"bare number", "1024", 1024},
		{"unit", "50MB", 50 * 1024 * 1024},
		{"lowercase unit", "2kb", 2048},
		{"space before unit", "1 GB", 1024 * 1024 * 1024},
		{"fractional", "1.5KB", 1536},
		{"surrounding whitespace", "  10MB  ", 10 * 1024 * 1024},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := formatting.ParseBytes(tc.input)
			if err != nil {
				t.Fatalf("ParseBytes(%q): %v", tc.input, err)
			}
			if got != tc.expected {
				t.Errorf("ParseBytes(%q) = %d, want %d", tc.input, got, tc.expected)
			}
		})
	}
}

func TestParseBytesInvalid(t *testing.T) {
	for _, input := range []string{"", "abc", "10XB", "MB10"} {
		if _, err := formatting.ParseBytes(input); err == nil {
			t.Errorf("ParseBytes(%q) succeeded, want error", input)
		}
	}
}
