package config

import (
	"fmt"
	"time"

	"github.com/iwvelando/emi-calculator/pkg/constants"
	"github.com/iwvelando/emi-calculator/pkg/datetime"
	"github.com/iwvelando/emi-calculator/pkg/loans"
	"github.com/iwvelando/emi-calculator/pkg/output"
	"go.uber.org/zap"
)

// Loan indicates a loan and its parameters.
type Loan struct {
	Name         string
	StartMonth   string
	Principal    float64
	InterestRate float64 // annual percent
	Tenure       float64 // years
	// ProcessingFee defaults to constants.DefaultProcessingFee when unset.
	ProcessingFee *float64
	PrePayment    *PrePayment
	Result        loans.Result `mapstructure:"-"`
}

// PrePayment is a recurring extra payment towards principal.
type PrePayment struct {
	Amount    float64
	Frequency string // monthly, yearly
	StartDate string // YYYY-MM or YYYY-MM-DD; empty means the loan's first month
}

// Parameters converts the loan into engine parameters.
func (loan Loan) Parameters() loans.LoanParameters {
	fee := constants.DefaultProcessingFee
	if loan.ProcessingFee != nil {
		fee = *loan.ProcessingFee
	}
	return loans.LoanParameters{
		Principal:         loan.Principal,
		AnnualRatePercent: loan.InterestRate,
		TenureYears:       loan.Tenure,
		ProcessingFee:     fee,
	}
}

// Policy converts the configured pre-payment, if any.
func (loan Loan) Policy(anchor datetime.YearMonth) (*loans.PrePaymentPolicy, error) {
	if loan.PrePayment == nil {
		return nil, nil
	}
	start := loan.PrePayment.StartDate
	if start == "" {
		start = anchor.String()
	}
	policy, err := loans.NewPrePaymentPolicy(loan.PrePayment.Amount, loan.PrePayment.Frequency, start)
	if err != nil {
		return nil, fmt.Errorf("%w: loan %s: %w", ErrInvalidConfiguration, loan.Name, err)
	}
	return policy, nil
}

// ProcessLoans iterates through all loans and computes their results.
func (conf *Configuration) ProcessLoans(logger *zap.Logger) error {
	return conf.ProcessLoansWithFixedTime(logger, time.Now())
}

// ProcessLoansWithFixedTime computes every loan, resolving unset start months
// against fixedTime.
func (conf *Configuration) ProcessLoansWithFixedTime(logger *zap.Logger, fixedTime time.Time) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	for i := range conf.Loans {
		loan := &conf.Loans[i]

		anchor, err := conf.Anchor(*loan, fixedTime)
		if err != nil {
			return err
		}
		policy, err := loan.Policy(anchor)
		if err != nil {
			return err
		}

		logger.Debug(fmt.Sprintf("computing loan %s from %s with pre-payment %s", loan.Name, anchor, policy),
			zap.String("op", "config.ProcessLoans"),
		)

		result, err := loans.Calculate(logger, loan.Parameters(), policy, anchor)
		if err != nil {
			return fmt.Errorf("loan %s: %w", loan.Name, err)
		}
		loan.Result = result
	}

	return nil
}

// Reports pairs every processed loan with its result for output.
func (conf *Configuration) Reports() []output.Report {
	reports := make([]output.Report, 0, len(conf.Loans))
	for _, loan := range conf.Loans {
		reports = append(reports, output.Report{Name: loan.Name, Result: loan.Result})
	}
	return reports
}
