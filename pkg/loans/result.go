package loans

import (
	"github.com/iwvelando/emi-calculator/pkg/datetime"
	"github.com/iwvelando/emi-calculator/pkg/mathutil"
	"go.uber.org/zap"
)

// Breakdown splits the total cost of a loan into percentage shares.
type Breakdown struct {
	PrincipalPercent float64 `json:"principalPercent"`
	InterestPercent  float64 `json:"interestPercent"`
	FeesPercent      float64 `json:"feesPercent"`
}

// Result is the output contract consumed by presentation and persistence.
// Amounts are rounded to whole units; the yearly schedule is unrounded.
type Result struct {
	LoanAmount      float64         `json:"loanAmount"`
	Tenure          float64         `json:"tenure"`
	Interest        float64         `json:"interest"`
	EMI             int64           `json:"emi"`
	TotalInterest   int64           `json:"totalInterest"`
	ProcessingFees  int64           `json:"processingFees"`
	TotalPrePayment int64           `json:"totalPrePayment"`
	TotalAmount     int64           `json:"totalAmount"`
	Months          int             `json:"months"`
	PayoffMonth     string          `json:"payoffMonth,omitempty"`
	Breakdown       Breakdown       `json:"breakdown"`
	YearlySchedule  []YearlySummary `json:"yearlySchedule"`
}

// BuildResult projects a generated schedule into a Result.
func BuildResult(params LoanParameters, schedule Schedule) Result {
	totalInterest := mathutil.RoundWhole(schedule.TotalInterest())
	fees := mathutil.RoundWhole(params.ProcessingFee)
	principal := mathutil.RoundWhole(params.Principal)
	totalAmount := principal + totalInterest + fees

	result := Result{
		LoanAmount:      params.Principal,
		Tenure:          params.TenureYears,
		Interest:        params.AnnualRatePercent,
		EMI:             RoundEMI(schedule.EMI),
		TotalInterest:   totalInterest,
		ProcessingFees:  fees,
		TotalPrePayment: mathutil.RoundWhole(schedule.TotalPrePayment()),
		TotalAmount:     totalAmount,
		Months:          schedule.Months(),
		Breakdown: Breakdown{
			PrincipalPercent: mathutil.CalculatePercentage(float64(principal), float64(totalAmount)),
			InterestPercent:  mathutil.CalculatePercentage(float64(totalInterest), float64(totalAmount)),
			FeesPercent:      mathutil.CalculatePercentage(float64(fees), float64(totalAmount)),
		},
		YearlySchedule: schedule.Years,
	}
	if result.YearlySchedule == nil {
		result.YearlySchedule = []YearlySummary{}
	}
	if last, ok := schedule.Last(); ok {
		result.PayoffMonth = last.YearMonth().String()
	}
	return result
}

// Calculate validates the inputs, generates the schedule and builds the Result.
func Calculate(logger *zap.Logger, params LoanParameters, policy *PrePaymentPolicy, anchor datetime.YearMonth) (Result, error) {
	schedule, err := NewAmortizationScheduleGenerator(logger).GenerateSchedule(params, policy, anchor)
	if err != nil {
		return Result{}, err
	}
	return BuildResult(params, schedule), nil
}
