// Package loans provides the EMI calculator and amortization schedule generator.
package loans

import (
	"errors"
	"fmt"
	"math"

	"github.com/iwvelando/emi-calculator/pkg/constants"
	"github.com/iwvelando/emi-calculator/pkg/mathutil"
)

// ErrInvalidLoanParameters is matched by every ValidationError.
var ErrInvalidLoanParameters = errors.New("invalid loan parameters")

// ValidationError describes the input that was rejected and why.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrInvalidLoanParameters, e.Field, e.Reason)
}

// Is lets errors.Is match ErrInvalidLoanParameters.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidLoanParameters
}

// LoanParameters are the immutable inputs of a loan.
type LoanParameters struct {
	Principal         float64
	AnnualRatePercent float64
	TenureYears       float64
	// ProcessingFee is informational and never amortized.
	ProcessingFee float64
}

// TenureMonths converts the tenure to whole months.
func (p LoanParameters) TenureMonths() int {
	return tenureMonths(p.TenureYears)
}

// MonthlyRate returns the periodic rate as a fraction, e.g. 0.0075 for 9% p.a.
func (p LoanParameters) MonthlyRate() float64 {
	return MonthlyRate(p.AnnualRatePercent)
}

// Validate rejects parameters the calculator cannot amortize.
func (p LoanParameters) Validate() error {
	if err := validateTerms(p.Principal, p.AnnualRatePercent, p.TenureYears); err != nil {
		return err
	}
	if !mathutil.IsFinite(p.ProcessingFee) || p.ProcessingFee < 0 {
		return &ValidationError{Field: "processingFee", Reason: "must be zero or positive"}
	}
	return nil
}

// MonthlyRate converts an annual percentage rate to a monthly fraction.
func MonthlyRate(annualRatePercent float64) float64 {
	return annualRatePercent / constants.MonthsPerYear / constants.PercentageMultiplier
}

// ComputeEMI returns the unrounded fixed monthly installment for a loan using
// the standard amortization formula. A zero rate repays the principal in equal
// parts.
func ComputeEMI(principal, annualRatePercent, tenureYears float64) (float64, error) {
	if err := validateTerms(principal, annualRatePercent, tenureYears); err != nil {
		return 0, err
	}
	value := emi(principal, MonthlyRate(annualRatePercent), tenureMonths(tenureYears))
	if !mathutil.IsFinite(value) {
		return 0, &ValidationError{Field: "emi", Reason: "is not a finite amount"}
	}
	return value, nil
}

// EMI returns the unrounded installment for validated parameters.
func (p LoanParameters) EMI() (float64, error) {
	return ComputeEMI(p.Principal, p.AnnualRatePercent, p.TenureYears)
}

// RoundEMI returns the installment rounded to the nearest whole unit, as shown
// to a borrower.
func RoundEMI(value float64) int64 {
	return mathutil.RoundWhole(value)
}

// CalculateInterestPayment calculates the interest portion of a payment.
func CalculateInterestPayment(balance, annualRatePercent float64) float64 {
	return balance * MonthlyRate(annualRatePercent)
}

func emi(principal, monthlyRate float64, months int) float64 {
	if monthlyRate == 0 {
		return principal / float64(months)
	}
	return principal * monthlyRate / (1 - math.Pow(1+monthlyRate, -float64(months)))
}

func tenureMonths(tenureYears float64) int {
	return int(math.Round(tenureYears * constants.MonthsPerYear))
}

func validateTerms(principal, annualRatePercent, tenureYears float64) error {
	if !mathutil.IsFinite(principal) || principal <= 0 {
		return &ValidationError{Field: "principal", Reason: "must be positive"}
	}
	if principal <= constants.BalanceEpsilon {
		return &ValidationError{Field: "principal", Reason: fmt.Sprintf("must exceed %.2f", constants.BalanceEpsilon)}
	}
	if principal > constants.MaxPrincipal {
		return &ValidationError{Field: "principal", Reason: fmt.Sprintf("must not exceed %.0f", constants.MaxPrincipal)}
	}
	if !mathutil.IsFinite(annualRatePercent) || annualRatePercent < 0 {
		return &ValidationError{Field: "annualRatePercent", Reason: "must not be negative"}
	}
	if annualRatePercent > constants.MaxAnnualRatePercent {
		return &ValidationError{Field: "annualRatePercent", Reason: fmt.Sprintf("must not exceed %g", constants.MaxAnnualRatePercent)}
	}
	if !mathutil.IsFinite(tenureYears) || tenureYears <= 0 {
		return &ValidationError{Field: "tenureYears", Reason: "must be positive"}
	}
	if tenureYears > constants.MaxTenureYears {
		return &ValidationError{Field: "tenureYears", Reason: fmt.Sprintf("must not exceed %d", constants.MaxTenureYears)}
	}
	if tenureMonths(tenureYears) < 1 {
		return &ValidationError{Field: "tenureYears", Reason: "must cover at least one month"}
	}
	return nil
}
