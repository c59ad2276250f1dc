package validation

import (
	"strings"
	"testing"
)

type sample struct {
	Roll   string  `validate:"required"`
	Year   int     `validate:"gte=0"`
	Scores []score `validate:"dive"`
}

type score struct {
	Value float64 `validate:"gte=0,lte=10"`
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name      string
		value     any
		wantError string
	}{
		{"valid", &sample{Roll: "CSE2021001", Year: 2021, Scores: []score{{9.5}}}, ""},
		{"missing roll", &sample{Year: 2021}, "Roll: field is required"},
		{"negative year", &sample{Roll: "r", Year: -1}, "Year: must be at least 0"},
		{"grade above ten", &sample{Roll: "r", Scores: []score{{10.5}}}, "must not exceed 10"},
		{"nil", nil, "cannot be nil"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(tt.value)
			if tt.wantError == "" {
				if err != nil {
					t.Fatalf("ValidateStruct() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("ValidateStruct() expected error containing %q", tt.wantError)
			}
			if !strings.Contains(err.Error(), tt.wantError) {
				t.Errorf("error = %q, want it to contain %q", err.Error(), tt.wantError)
			}
		})
	}
}
