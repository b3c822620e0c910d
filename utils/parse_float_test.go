package utils

import "testing"

func TestParseFloat(t *testing.T) {
	testCases := []struct {
		name    string
		input   string
		want    float64
		wantErr bool
	}{
		{name: "integer", input: "5000", want: 5000},
		{name: "decimal", input: "123.45", want: 123.45},
		{name: "empty string yields zero", input: "", want: 0},
		{name: "negative", input: "-10", want: -10},
		{name: "not a number", input: "abc", wantErr: true},
		{name: "trailing junk", input: "12x", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseFloat(tc.input)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("Expected error for %q, got %v", tc.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseFloat(%q) failed: %v", tc.input, err)
			}
			if got != tc.want {
				t.Errorf("Expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestParseOptionalFloat(t *testing.T) {
	got, err := ParseOptionalFloat("")
	if err != nil || got != nil {
		t.Errorf("Expected nil for omitted parameter, got %v, %v", got, err)
	}

	got, err = ParseOptionalFloat("42.5")
	if err != nil {
		t.Fatalf("ParseOptionalFloat failed: %v", err)
	}
	if got == nil || *got != 42.5 {
		t.Errorf("Expected 42.5, got %v", got)
	}

	if _, err := ParseOptionalFloat("nope"); err == nil {
		t.Error("Expected error for malformed input")
	}
}
