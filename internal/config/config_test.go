package config

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/iwvelando/emi-calculator/pkg/datetime"
)

var fixedNow = time.Date(2025, time.October, 18, 0, 0, 0, 0, time.UTC)

func TestLoadConfiguration(t *testing.T) {
	tests := []struct {
		name       string
		configPath string
		wantError  bool
	}{
		{
			name:       "Non-existent config file",
			configPath: "nonexistent.yaml",
			wantError:  true,
		},
		{
			name:       "Test config file",
			configPath: "testdata/config.yaml",
			wantError:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := LoadConfiguration(tt.configPath)
			if tt.wantError {
				if err == nil {
					t.Errorf("LoadConfiguration() expected error but got none")
				}
				return
			}
			if err != nil {
				t.Errorf("LoadConfiguration() error = %v", err)
				return
			}
			if config == nil {
				t.Errorf("LoadConfiguration() returned nil config")
			}
		})
	}
}

func TestLoadConfigurationStructure(t *testing.T) {
	config, err := LoadConfiguration("testdata/config.yaml")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}

	if config.StartMonth != "2025-11" {
		t.Errorf("Expected StartMonth = 2025-11, got %v", config.StartMonth)
	}
	if config.Logging.Level != "info" || config.Logging.Format != "console" {
		t.Errorf("Unexpected logging config %+v", config.Logging)
	}
	if config.Output.Format != "pretty" || config.Output.Monthly {
		t.Errorf("Unexpected output config %+v", config.Output)
	}

	expectedLoans := []string{"home", "car", "personal"}
	if len(config.Loans) != len(expectedLoans) {
		t.Fatalf("Expected %d loans, got %d", len(expectedLoans), len(config.Loans))
	}
	for i, expectedName := range expectedLoans {
		if config.Loans[i].Name != expectedName {
			t.Errorf("Expected loan name %s, got %s", expectedName, config.Loans[i].Name)
		}
	}

	home := config.Loans[0]
	if home.Principal != 5000000 || home.InterestRate != 9 || home.Tenure != 10 {
		t.Errorf("Unexpected home loan terms %+v", home)
	}
	if home.PrePayment == nil {
		t.Fatal("Expected home loan pre-payment")
	}
	if home.PrePayment.Amount != 500000 || home.PrePayment.Frequency != "yearly" || home.PrePayment.StartDate != "2026-03-01" {
		t.Errorf("Unexpected pre-payment %+v", *home.PrePayment)
	}

	car := config.Loans[1]
	if car.StartMonth != "2026-01" {
		t.Errorf("Expected car StartMonth = 2026-01, got %s", car.StartMonth)
	}
	if car.ProcessingFee == nil || *car.ProcessingFee != 0 {
		t.Errorf("Expected explicit zero processing fee, got %v", car.ProcessingFee)
	}
	if config.Loans[2].ProcessingFee != nil {
		t.Errorf("Expected unset processing fee for personal loan")
	}
	if config.Loans[2].Tenure != 1.5 {
		t.Errorf("Expected fractional tenure 1.5, got %v", config.Loans[2].Tenure)
	}
}

func TestLoadConfigurationFromReader(t *testing.T) {
	yaml := `
loans:
  - name: minimal
    principal: 100000
    interestRate: 12
    tenure: 1
`
	config, err := LoadConfigurationFromReader(strings.NewReader(yaml))
	if err != nil {
		t.Fatalf("LoadConfigurationFromReader() error = %v", err)
	}
	if len(config.Loans) != 1 || config.Loans[0].Name != "minimal" {
		t.Fatalf("Unexpected loans %+v", config.Loans)
	}
	if config.StartMonth != "" || config.Output.Format != "" {
		t.Errorf("Expected unset defaults, got %+v", config)
	}

	if _, err := LoadConfigurationFromReader(strings.NewReader("loans: [unterminated")); err == nil {
		t.Error("Expected error for malformed YAML")
	}
}

func TestAnchor(t *testing.T) {
	tests := []struct {
		name      string
		global    string
		loan      string
		expected  datetime.YearMonth
		wantError bool
	}{
		{"Loan start month wins", "2025-11", "2026-01", datetime.YearMonth{Year: 2026, Month: 1}, false},
		{"Configured start month", "2025-11", "", datetime.YearMonth{Year: 2025, Month: 11}, false},
		{"Current month", "", "", datetime.YearMonth{Year: 2025, Month: 10}, false},
		{"Full date is truncated", "", "2026-02-15", datetime.YearMonth{Year: 2026, Month: 2}, false},
		{"Invalid loan start month", "", "Jan 2026", datetime.YearMonth{}, true},
		{"Invalid configured start month", "2025/11", "", datetime.YearMonth{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf := &Configuration{StartMonth: tt.global}
			anchor, err := conf.Anchor(Loan{Name: "test", StartMonth: tt.loan}, fixedNow)
			if tt.wantError {
				if !errors.Is(err, ErrInvalidConfiguration) {
					t.Errorf("Anchor() error = %v, expected ErrInvalidConfiguration", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Anchor() error = %v", err)
			}
			if anchor != tt.expected {
				t.Errorf("Anchor() = %s, expected %s", anchor, tt.expected)
			}
		})
	}
}

func TestValidateConfiguration(t *testing.T) {
	config, err := LoadConfiguration("testdata/config.yaml")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	if warnings := config.ValidateConfigurationWithFixedTime(fixedNow); len(warnings) != 0 {
		t.Errorf("Expected no warnings, got %v", warnings)
	}

	config.Loans = append(config.Loans, Loan{
		Name:       "late",
		StartMonth: "2025-01",
		Principal:  100000,
		Tenure:     1,
		PrePayment: &PrePayment{Amount: 1000, Frequency: "monthly", StartDate: "2027-01"},
	})
	warnings := config.ValidateConfigurationWithFixedTime(fixedNow)
	if len(warnings) != 1 {
		t.Fatalf("Expected 1 warning, got %v", warnings)
	}
	if !strings.Contains(warnings[0], "late") {
		t.Errorf("Warning should name the loan: %s", warnings[0])
	}
}
