package quantity

import (
	"errors"
	"testing"
)

func TestParseCPU(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"250m", 250},
		{"1", 1000},
		{"2.5", 2500},
		{"0", 0},
		{"0.1", 100},
		{"4", 4000},
		{"250000000n", 250},
		{"1500000n", 1},
		{"250000u", 250},
		{"999999n", 0}, // sub-millicore usage rounds down
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseCPU(tc.in)
			if err != nil {
				t.Fatalf("ParseCPU(%q): unexpected error %v", tc.in, err)
			}
			if got != tc.want {
				t.Errorf("ParseCPU(%q) = %d, want %d", tc.in, got, tc.want)
			}
		})
	}
}

func TestParseCPU_Invalid(t *testing.T) {
	for _, in := range []string{"", "abc", "12x", "m", "one"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseCPU(in)
			if err == nil {
				t.Fatalf("ParseCPU(%q): expected error, got none", in)
			}
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Errorf("ParseCPU(%q): error type %T, want *ParseError", in, err)
			}
		})
	}
}

func TestParseMemory(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"128Mi", 134217728},
		{"512Ki", 524288},
		{"1Gi", 1073741824},
		{"1Ti", 1099511627776},
		{"1G", 1000000000},
		{"500K", 500000},
		{"2M", 2000000},
		{"1024", 1024},
		{"0", 0},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseMemory(tc.in)
			if err != nil {
				t.Fatalf("ParseMemory(%q): unexpected error %v", tc.in, err)
			}
			if got != tc.want {
				t.Errorf("ParseMemory(%q) = %d, want %d", tc.in, got, tc.want)
			}
		})
	}
}

func TestParseMemory_BinaryBeforeDecimal(t *testing.T) {
	// "1Ki" must resolve to 1024, never "1K" plus a stray "i".
	got, err := ParseMemory("1Ki")
	if err != nil {
		t.Fatalf("ParseMemory(1Ki): %v", err)
	}
	if got != 1024 {
		t.Errorf("ParseMemory(1Ki) = %d, want 1024", got)
	}
}

func TestParseMemory_Invalid(t *testing.T) {
	for _, in := range []string{"", "abcMi", "12Qi", "lots"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseMemory(in)
			if err == nil {
				t.Fatalf("ParseMemory(%q): expected error, got none", in)
			}
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Errorf("ParseMemory(%q): error type %T, want *ParseError", in, err)
			}
		})
	}
}
