package validation

import (
	"strings"
	"testing"
)

func TestValidatePrePaymentWindow(t *testing.T) {
	tests := []struct {
		name            string
		loanName        string
		startMonth      string
		prePaymentStart string
		termMonths      int
		expectWarn      bool
		expectError     bool
	}{
		{
			name:            "Pre-payment inside the term",
			loanName:        "Home",
			startMonth:      "2025-01",
			prePaymentStart: "2026-03-01",
			termMonths:      120,
			expectWarn:      false,
		},
		{
			name:            "Pre-payment at the final installment",
			loanName:        "Home",
			startMonth:      "2025-01",
			prePaymentStart: "2034-12",
			termMonths:      120, // final installment 2034-12
			expectWarn:      false,
		},
		{
			name:            "Pre-payment after the final installment",
			loanName:        "Car",
			startMonth:      "2025-01",
			prePaymentStart: "2028-01",
			termMonths:      36,
			expectWarn:      true,
		},
		{
			name:            "Pre-payment before the first installment",
			loanName:        "Car",
			startMonth:      "2025-01",
			prePaymentStart: "2024-06",
			termMonths:      36,
			expectWarn:      true,
		},
		{
			name:            "Invalid start month",
			loanName:        "Invalid",
			startMonth:      "invalid-date",
			prePaymentStart: "2025-01",
			termMonths:      60,
			expectError:     true,
		},
		{
			name:            "Invalid pre-payment start",
			loanName:        "Invalid",
			startMonth:      "2025-01",
			prePaymentStart: "soon",
			termMonths:      60,
			expectError:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			warning, err := ValidatePrePaymentWindow(tt.loanName, tt.startMonth, tt.prePaymentStart, tt.termMonths)

			if tt.expectError {
				if err == nil {
					t.Errorf("ValidatePrePaymentWindow() expected error but got none")
				}
				return
			}

			if err != nil {
				t.Errorf("ValidatePrePaymentWindow() unexpected error = %v", err)
				return
			}

			hasWarning := warning != ""
			if hasWarning != tt.expectWarn {
				t.Errorf("ValidatePrePaymentWindow() warning = %t, expected %t", hasWarning, tt.expectWarn)
			}
			if hasWarning && !strings.Contains(warning, tt.loanName) {
				t.Errorf("warning should name the loan: %s", warning)
			}
		})
	}
}

func TestValidatePrePaymentAmount(t *testing.T) {
	tests := []struct {
		name            string
		amount          float64
		principal       float64
		expectWarnCount int
	}{
		{"Ordinary amount", 50000, 5000000, 0},
		{"Zero amount", 0, 5000000, 1},
		{"Negative amount", -100, 5000000, 1},
		{"Whole principal", 5000000, 5000000, 1},
		{"More than principal", 6000000, 5000000, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			warnings := ValidatePrePaymentAmount("Home", tt.amount, tt.principal)
			if len(warnings) != tt.expectWarnCount {
				t.Errorf("ValidatePrePaymentAmount() returned %d warnings, expected %d: %v",
					len(warnings), tt.expectWarnCount, warnings)
			}
		})
	}
}

func TestConfigValidatorValidateAll(t *testing.T) {
	validator := &ConfigValidator{
		Loans: []LoanConfig{
			{Name: "Home", StartMonth: "2025-01", Term: 120, Principal: 5000000},
			{
				Name: "Car", StartMonth: "2025-01", Term: 36, Principal: 800000,
				HasPrePayment: true, PrePaymentAmount: 20000, PrePaymentStart: "2029-01",
			},
			{
				Name: "Home", StartMonth: "2025-01", Term: 60, Principal: 100000,
				HasPrePayment: true, PrePaymentAmount: 0, PrePaymentStart: "2025-06",
			},
		},
	}

	warnings := validator.ValidateAll()
	if len(warnings) != 3 {
		t.Fatalf("expected 3 warnings, got %d: %v", len(warnings), warnings)
	}
	if !strings.Contains(warnings[0], "never be applied") {
		t.Errorf("expected a window warning first, got %s", warnings[0])
	}
	if !strings.Contains(warnings[1], "more than once") {
		t.Errorf("expected a duplicate name warning, got %s", warnings[1])
	}
	if !strings.Contains(warnings[2], "ignored") {
		t.Errorf("expected an ignored amount warning, got %s", warnings[2])
	}
}

func TestConfigValidatorNoLoans(t *testing.T) {
	validator := &ConfigValidator{}
	if warnings := validator.ValidateAll(); len(warnings) != 0 {
		t.Errorf("expected no warnings, got %v", warnings)
	}
}
