// Package validation provides configuration validation utilities.
package validation

import (
	"fmt"

	"github.com/iwvelando/emi-calculator/pkg/datetime"
)

// ValidatePrePaymentWindow checks that a pre-payment can fall within the loan
// term starting at startMonth.
func ValidatePrePaymentWindow(loanName, startMonth, prePaymentStart string, termMonths int) (string, error) {
	start, err := datetime.Parse(startMonth)
	if err != nil {
		return "", err
	}
	prePayment, err := datetime.Parse(prePaymentStart)
	if err != nil {
		return "", err
	}
	maturity := start.Offset(termMonths - 1)

	if maturity.Before(prePayment) {
		return fmt.Sprintf("Loan '%s' pre-payment starts after the final installment (%s > %s) - it will never be applied",
			loanName, prePayment, maturity), nil
	}
	if prePayment.Before(start) {
		return fmt.Sprintf("Loan '%s' pre-payment starts before the first installment (%s < %s) - it applies from %s",
			loanName, prePayment, start, start), nil
	}

	return "", nil
}

// ValidatePrePaymentAmount checks the pre-payment amount against the principal.
func ValidatePrePaymentAmount(loanName string, amount, principal float64) []string {
	var warnings []string

	if amount <= 0 {
		warnings = append(warnings, fmt.Sprintf("Loan '%s' pre-payment amount %.2f is not positive - it will be ignored",
			loanName, amount))
	}

	if amount >= principal {
		warnings = append(warnings, fmt.Sprintf("Loan '%s' pre-payment amount %.2f covers the whole principal %.2f",
			loanName, amount, principal))
	}

	return warnings
}

// ConfigValidator collects warnings across every configured loan.
type ConfigValidator struct {
	Loans []LoanConfig
}

type LoanConfig struct {
	Name             string
	StartMonth       string
	Term             int
	Principal        float64
	PrePaymentAmount float64
	PrePaymentStart  string
	HasPrePayment    bool
}

// ValidateAll validates the entire configuration and returns warnings
func (cv *ConfigValidator) ValidateAll() []string {
	var warnings []string

	names := make(map[string]bool, len(cv.Loans))
	for _, loan := range cv.Loans {
		if names[loan.Name] {
			warnings = append(warnings, fmt.Sprintf("Loan name '%s' is used more than once", loan.Name))
		}
		names[loan.Name] = true

		if !loan.HasPrePayment {
			continue
		}

		warnings = append(warnings, ValidatePrePaymentAmount(loan.Name, loan.PrePaymentAmount, loan.Principal)...)

		warning, err := ValidatePrePaymentWindow(loan.Name, loan.StartMonth, loan.PrePaymentStart, loan.Term)
		if err == nil && warning != "" {
			warnings = append(warnings, warning)
		}
	}

	return warnings
}
