package loans

import (
	"fmt"

	"github.com/iwvelando/emi-calculator/pkg/datetime"
	"github.com/iwvelando/emi-calculator/pkg/mathutil"
	"go.uber.org/zap"
)

// MonthlyLedgerEntry holds the values for a given period.
type MonthlyLedgerEntry struct {
	Period        int     `json:"period"`
	CalendarYear  int     `json:"year"`
	CalendarMonth int     `json:"calendarMonth"`
	Month         string  `json:"month"`
	Principal     float64 `json:"principal"`
	Interest      float64 `json:"interest"`
	PrePayment    float64 `json:"prePayment"`
	Balance       float64 `json:"balance"`
	PaidPercent   float64 `json:"paidPercent"`
}

// YearMonth returns the calendar month the entry is dated at.
func (e MonthlyLedgerEntry) YearMonth() datetime.YearMonth {
	return datetime.YearMonth{Year: e.CalendarYear, Month: e.CalendarMonth}
}

// YearlySummary aggregates the contiguous entries of one calendar year.
type YearlySummary struct {
	Year        int                  `json:"year"`
	Principal   float64              `json:"principal"`
	Interest    float64              `json:"interest"`
	PrePayment  float64              `json:"prePayment"`
	Balance     float64              `json:"balance"`
	PaidPercent float64              `json:"paidPercent"`
	Months      []MonthlyLedgerEntry `json:"months"`
}

func (y *YearlySummary) add(entry MonthlyLedgerEntry) {
	y.Principal += entry.Principal
	y.Interest += entry.Interest
	y.PrePayment += entry.PrePayment
	y.Balance = entry.Balance
	y.PaidPercent = entry.PaidPercent
	y.Months = append(y.Months, entry)
}

// Schedule is the full amortization of one loan.
type Schedule struct {
	// EMI is unrounded; round only for display.
	EMI          float64
	MonthlyRate  float64
	TenureMonths int
	Anchor       datetime.YearMonth
	Years        []YearlySummary
}

// Entries flattens the schedule into chronological ledger entries.
func (s Schedule) Entries() []MonthlyLedgerEntry {
	entries := make([]MonthlyLedgerEntry, 0, s.Months())
	for _, year := range s.Years {
		entries = append(entries, year.Months...)
	}
	return entries
}

// Months returns the number of periods actually paid.
func (s Schedule) Months() int {
	count := 0
	for _, year := range s.Years {
		count += len(year.Months)
	}
	return count
}

// Last returns the final ledger entry, if any.
func (s Schedule) Last() (MonthlyLedgerEntry, bool) {
	if len(s.Years) == 0 {
		return MonthlyLedgerEntry{}, false
	}
	months := s.Years[len(s.Years)-1].Months
	if len(months) == 0 {
		return MonthlyLedgerEntry{}, false
	}
	return months[len(months)-1], true
}

// TotalInterest sums the interest portion of every period.
func (s Schedule) TotalInterest() float64 {
	total := 0.0
	for _, year := range s.Years {
		total += year.Interest
	}
	return total
}

// TotalPrincipal sums the scheduled principal portion of every period.
func (s Schedule) TotalPrincipal() float64 {
	total := 0.0
	for _, year := range s.Years {
		total += year.Principal
	}
	return total
}

// TotalPrePayment sums every pre-payment applied.
func (s Schedule) TotalPrePayment() float64 {
	total := 0.0
	for _, year := range s.Years {
		total += year.PrePayment
	}
	return total
}

// PaidOffEarly reports whether pre-payments closed the loan before its tenure.
func (s Schedule) PaidOffEarly() bool {
	return s.Months() < s.TenureMonths
}

// AmortizationScheduleGenerator produces loan amortization schedules.
type AmortizationScheduleGenerator struct {
	logger *zap.Logger
}

// NewAmortizationScheduleGenerator creates a new generator instance
func NewAmortizationScheduleGenerator(logger *zap.Logger) *AmortizationScheduleGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AmortizationScheduleGenerator{logger: logger}
}

// GenerateSchedule amortizes a loan month by month starting at anchor, until
// the tenure ends or the balance is repaid. policy may be nil.
func (g *AmortizationScheduleGenerator) GenerateSchedule(params LoanParameters, policy *PrePaymentPolicy,
	anchor datetime.YearMonth) (Schedule, error) {
	if err := params.Validate(); err != nil {
		return Schedule{}, err
	}
	if _, err := datetime.NewYearMonth(anchor.Year, anchor.Month); err != nil {
		return Schedule{}, &ValidationError{Field: "anchor", Reason: err.Error()}
	}
	if policy != nil && !policy.Active() {
		g.logger.Debug(fmt.Sprintf("ignoring pre-payment policy with non-positive amount %.2f", policy.Amount),
			zap.String("op", "loans.GenerateSchedule"),
		)
	}

	monthlyRate := params.MonthlyRate()
	tenure := params.TenureMonths()
	installment := emi(params.Principal, monthlyRate, tenure)

	schedule := Schedule{
		EMI:          installment,
		MonthlyRate:  monthlyRate,
		TenureMonths: tenure,
		Anchor:       anchor,
	}

	balance := params.Principal
	current := anchor
	year := YearlySummary{Year: current.Year}

	for period := 1; period <= tenure && !mathutil.IsSettled(balance); period++ {
		interest := balance * monthlyRate
		principal := installment - interest
		if principal > balance {
			principal = balance
		}
		balance -= principal

		prePayment := 0.0
		if policy.AppliesTo(current, anchor) {
			prePayment = mathutil.Min(policy.Amount, balance)
			if prePayment < policy.Amount {
				g.logger.Debug("Capping pre-payment to the remaining balance",
					zap.String("op", "loans.GenerateSchedule"),
					zap.String("date", current.String()),
					zap.Float64("requested", policy.Amount),
					zap.Float64("capped_to_balance", prePayment),
				)
			}
			balance -= prePayment
		}

		// Sweep floating residue so the closing balance is exactly zero.
		if balance > 0 && mathutil.IsSettled(balance) {
			principal += balance
			balance = 0
		}

		year.add(MonthlyLedgerEntry{
			Period:        period,
			CalendarYear:  current.Year,
			CalendarMonth: current.Month,
			Month:         current.MonthName(),
			Principal:     principal,
			Interest:      interest,
			PrePayment:    prePayment,
			Balance:       balance,
			PaidPercent:   mathutil.CalculatePercentage(params.Principal-balance, params.Principal),
		})

		next := current.Next()
		if next.Year != current.Year {
			schedule.Years = append(schedule.Years, year)
			year = YearlySummary{Year: next.Year}
		}
		current = next
	}

	if len(year.Months) > 0 {
		schedule.Years = append(schedule.Years, year)
	}

	if schedule.PaidOffEarly() {
		last, _ := schedule.Last()
		g.logger.Debug(fmt.Sprintf("%s: loan repaid after %d of %d months", last.YearMonth(), schedule.Months(), tenure),
			zap.String("op", "loans.GenerateSchedule"),
		)
	}

	return schedule, nil
}
