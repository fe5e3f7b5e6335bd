package loans

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/iwvelando/emi-calculator/pkg/constants"
	"github.com/iwvelando/emi-calculator/pkg/datetime"
	"go.uber.org/zap"
)

func generate(t *testing.T, params LoanParameters, policy *PrePaymentPolicy, anchor datetime.YearMonth) Schedule {
	t.Helper()
	schedule, err := NewAmortizationScheduleGenerator(zap.NewNop()).GenerateSchedule(params, policy, anchor)
	if err != nil {
		t.Fatalf("GenerateSchedule() error = %v", err)
	}
	return schedule
}

func TestGenerateScheduleInvariants(t *testing.T) {
	tests := []struct {
		name   string
		params LoanParameters
		policy *PrePaymentPolicy
		anchor datetime.YearMonth
	}{
		{
			name:   "Home loan without pre-payment",
			params: LoanParameters{Principal: 5000000, AnnualRatePercent: 9, TenureYears: 10},
			anchor: datetime.YearMonth{Year: 2025, Month: 10},
		},
		{
			name:   "Monthly pre-payment",
			params: LoanParameters{Principal: 5000000, AnnualRatePercent: 9, TenureYears: 10},
			policy: &PrePaymentPolicy{Amount: 50000, Frequency: Monthly, StartDate: datetime.YearMonth{Year: 2025, Month: 11}},
			anchor: datetime.YearMonth{Year: 2025, Month: 10},
		},
		{
			name:   "Yearly pre-payment",
			params: LoanParameters{Principal: 5000000, AnnualRatePercent: 9, TenureYears: 10},
			policy: &PrePaymentPolicy{Amount: 500000, Frequency: Yearly, StartDate: datetime.YearMonth{Year: 2026, Month: 3}},
			anchor: datetime.YearMonth{Year: 2025, Month: 11},
		},
		{
			name:   "Zero rate",
			params: LoanParameters{Principal: 1200000, AnnualRatePercent: 0, TenureYears: 10},
			anchor: datetime.YearMonth{Year: 2025, Month: 1},
		},
		{
			name:   "Aggressive pre-payment",
			params: LoanParameters{Principal: 1000000, AnnualRatePercent: 10, TenureYears: 20},
			policy: &PrePaymentPolicy{Amount: 50000, Frequency: Monthly, StartDate: datetime.YearMonth{Year: 2025, Month: 1}},
			anchor: datetime.YearMonth{Year: 2025, Month: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schedule := generate(t, tt.params, tt.policy, tt.anchor)
			entries := schedule.Entries()
			if len(entries) == 0 {
				t.Fatal("expected ledger entries")
			}

			balance := tt.params.Principal
			previousPercent := 0.0
			principalPaid := 0.0
			for i, entry := range entries {
				if entry.Period != i+1 {
					t.Fatalf("entry %d has period %d", i, entry.Period)
				}

				// Conservation per period.
				reduction := entry.Principal + entry.PrePayment
				if math.Abs((balance-reduction)-entry.Balance) > 1e-6 {
					t.Errorf("period %d: balance %.6f - %.6f != %.6f", entry.Period, balance, reduction, entry.Balance)
				}

				// Monotonicity.
				if entry.Balance > balance {
					t.Errorf("period %d: balance increased from %.2f to %.2f", entry.Period, balance, entry.Balance)
				}
				if entry.PaidPercent < previousPercent {
					t.Errorf("period %d: paid percent decreased from %.6f to %.6f", entry.Period, previousPercent, entry.PaidPercent)
				}
				if entry.Balance < 0 {
					t.Errorf("period %d: negative balance %.6f", entry.Period, entry.Balance)
				}

				principalPaid += reduction
				balance = entry.Balance
				previousPercent = entry.PaidPercent
			}

			if balance != 0 {
				t.Errorf("final balance = %g, expected exactly 0", balance)
			}
			if math.Abs(principalPaid-tt.params.Principal) > constants.BalanceEpsilon {
				t.Errorf("principal repaid %.6f, expected %.2f", principalPaid, tt.params.Principal)
			}
			if math.Abs(schedule.TotalPrincipal()+schedule.TotalPrePayment()-tt.params.Principal) > constants.BalanceEpsilon {
				t.Errorf("yearly totals repay %.6f, expected %.2f",
					schedule.TotalPrincipal()+schedule.TotalPrePayment(), tt.params.Principal)
			}
			if last := entries[len(entries)-1]; last.PaidPercent != 100 {
				t.Errorf("final paid percent = %v, expected 100", last.PaidPercent)
			}
		})
	}
}

func TestGenerateScheduleChronologicalYears(t *testing.T) {
	schedule := generate(t, LoanParameters{Principal: 5000000, AnnualRatePercent: 9, TenureYears: 10}, nil,
		datetime.YearMonth{Year: 2025, Month: 10})

	// Oct 2025 through Sep 2035 touches 11 calendar years.
	if len(schedule.Years) != 11 {
		t.Fatalf("expected 11 yearly summaries, got %d", len(schedule.Years))
	}

	var previous datetime.YearMonth
	for i, year := range schedule.Years {
		if i > 0 && year.Year != schedule.Years[i-1].Year+1 {
			t.Errorf("year %d follows %d", year.Year, schedule.Years[i-1].Year)
		}

		principal, interest := 0.0, 0.0
		for _, month := range year.Months {
			if month.CalendarYear != year.Year {
				t.Errorf("month %s filed under year %d", month.YearMonth(), year.Year)
			}
			if !previous.IsZero() && !previous.Before(month.YearMonth()) {
				t.Errorf("month %s does not follow %s", month.YearMonth(), previous)
			}
			if month.Month != datetime.MonthName(month.CalendarMonth) {
				t.Errorf("month name %s does not match month %d", month.Month, month.CalendarMonth)
			}
			previous = month.YearMonth()
			principal += month.Principal
			interest += month.Interest
		}

		if math.Abs(principal-year.Principal) > 1e-6 || math.Abs(interest-year.Interest) > 1e-6 {
			t.Errorf("year %d totals do not match its months", year.Year)
		}
		last := year.Months[len(year.Months)-1]
		if year.Balance != last.Balance || year.PaidPercent != last.PaidPercent {
			t.Errorf("year %d closing values do not match its last month", year.Year)
		}
	}

	if n := len(schedule.Years[0].Months); n != 3 {
		t.Errorf("first year should hold Oct-Dec (3 months), got %d", n)
	}
	if n := len(schedule.Years[10].Months); n != 9 {
		t.Errorf("last year should hold Jan-Sep (9 months), got %d", n)
	}
}

func TestGenerateScheduleCalendarRollover(t *testing.T) {
	params := LoanParameters{Principal: 1000000, AnnualRatePercent: 10, TenureYears: 14.0 / 12.0}
	schedule := generate(t, params, nil, datetime.YearMonth{Year: 2025, Month: 11})

	if len(schedule.Years) != 2 {
		t.Fatalf("expected 2 yearly summaries, got %d", len(schedule.Years))
	}

	first, second := schedule.Years[0], schedule.Years[1]
	if first.Year != 2025 || len(first.Months) != 2 {
		t.Errorf("first summary = %d with %d months, expected 2025 with 2", first.Year, len(first.Months))
	}
	if first.Months[0].Month != "Nov" || first.Months[1].Month != "Dec" {
		t.Errorf("first summary months = %s, %s, expected Nov, Dec", first.Months[0].Month, first.Months[1].Month)
	}
	if second.Year != 2026 || len(second.Months) != 12 {
		t.Errorf("second summary = %d with %d months, expected 2026 with 12", second.Year, len(second.Months))
	}
	if second.Months[0].Month != "Jan" || second.Months[11].Month != "Dec" {
		t.Errorf("second summary should run Jan to Dec")
	}
	if second.Balance != 0 || second.PaidPercent != 100 {
		t.Errorf("final year closes at balance %g and %v%%", second.Balance, second.PaidPercent)
	}
}

func TestGenerateScheduleEarlyPayoff(t *testing.T) {
	params := LoanParameters{Principal: 1000000, AnnualRatePercent: 10, TenureYears: 20}
	policy := &PrePaymentPolicy{Amount: 50000, Frequency: Monthly, StartDate: datetime.YearMonth{Year: 2025, Month: 1}}
	schedule := generate(t, params, policy, datetime.YearMonth{Year: 2025, Month: 1})

	if schedule.Months() >= 240 {
		t.Fatalf("expected payoff in fewer than 240 months, got %d", schedule.Months())
	}
	if !schedule.PaidOffEarly() {
		t.Error("PaidOffEarly() = false, expected true")
	}

	last, ok := schedule.Last()
	if !ok {
		t.Fatal("expected a final entry")
	}
	if last.Balance != 0 {
		t.Errorf("final balance = %g, expected exactly 0", last.Balance)
	}
	if last.PrePayment >= policy.Amount {
		t.Errorf("final pre-payment %.2f should be capped below %.2f", last.PrePayment, policy.Amount)
	}

	for _, entry := range schedule.Entries()[:len(schedule.Entries())-1] {
		if entry.PrePayment != policy.Amount {
			t.Errorf("period %d pre-payment = %.2f, expected %.2f", entry.Period, entry.PrePayment, policy.Amount)
		}
	}
}

func TestGenerateScheduleOverAggressivePrePayment(t *testing.T) {
	params := LoanParameters{Principal: 100000, AnnualRatePercent: 12, TenureYears: 5}
	policy := &PrePaymentPolicy{Amount: 10000000, Frequency: Monthly, StartDate: datetime.YearMonth{Year: 2025, Month: 1}}
	schedule := generate(t, params, policy, datetime.YearMonth{Year: 2025, Month: 1})

	if schedule.Months() != 1 {
		t.Fatalf("expected the loan to close in the first period, got %d periods", schedule.Months())
	}
	entry := schedule.Entries()[0]
	if entry.Balance != 0 {
		t.Errorf("balance = %g, expected 0", entry.Balance)
	}
	if math.Abs(entry.Principal+entry.PrePayment-100000) > constants.BalanceEpsilon {
		t.Errorf("principal %.2f + pre-payment %.2f should repay the loan", entry.Principal, entry.PrePayment)
	}
}

func TestGenerateScheduleBalanceEpsilon(t *testing.T) {
	// At 0% over a year the installment is exactly 100, so the first period
	// leaves 1100 before a one-off pre-payment.
	params := LoanParameters{Principal: 1200, AnnualRatePercent: 0, TenureYears: 1}
	anchor := datetime.YearMonth{Year: 2025, Month: 1}

	t.Run("Residue at epsilon is swept", func(t *testing.T) {
		policy := &PrePaymentPolicy{Amount: 1099.99, Frequency: Yearly, StartDate: anchor}
		schedule := generate(t, params, policy, anchor)
		if schedule.Months() != 1 {
			t.Fatalf("expected 1 period, got %d", schedule.Months())
		}
		entry := schedule.Entries()[0]
		if entry.Balance != 0 {
			t.Errorf("balance = %g, expected 0", entry.Balance)
		}
		if math.Abs(entry.Principal-100.01) > 1e-9 {
			t.Errorf("principal = %.6f, expected residue folded in (100.01)", entry.Principal)
		}
	})

	t.Run("Residue above epsilon takes one more period", func(t *testing.T) {
		policy := &PrePaymentPolicy{Amount: 1099.98, Frequency: Yearly, StartDate: anchor}
		schedule := generate(t, params, policy, anchor)
		if schedule.Months() != 2 {
			t.Fatalf("expected 2 periods, got %d", schedule.Months())
		}
		last, _ := schedule.Last()
		if math.Abs(last.Principal-0.02) > 1e-9 {
			t.Errorf("final principal = %.6f, expected the clamped 0.02 remainder", last.Principal)
		}
		if last.Balance != 0 {
			t.Errorf("final balance = %g, expected 0", last.Balance)
		}
	})

	t.Run("No trailing near-zero period at full tenure", func(t *testing.T) {
		schedule := generate(t, LoanParameters{Principal: 175000, AnnualRatePercent: 4.5, TenureYears: 30}, nil, anchor)
		if schedule.Months() != 360 {
			t.Errorf("expected exactly 360 periods, got %d", schedule.Months())
		}
	})
}

func TestGenerateScheduleYearlyPrePaymentTiming(t *testing.T) {
	params := LoanParameters{Principal: 5000000, AnnualRatePercent: 9, TenureYears: 10}

	t.Run("Starts in its own month and year", func(t *testing.T) {
		anchor := datetime.YearMonth{Year: 2025, Month: 1}
		policy := &PrePaymentPolicy{Amount: 200000, Frequency: Yearly, StartDate: datetime.YearMonth{Year: 2025, Month: 6}}
		schedule := generate(t, params, policy, anchor)

		var fired []datetime.YearMonth
		for _, entry := range schedule.Entries() {
			if entry.PrePayment > 0 {
				fired = append(fired, entry.YearMonth())
			}
		}
		if len(fired) == 0 {
			t.Fatal("expected yearly pre-payments")
		}
		if fired[0] != (datetime.YearMonth{Year: 2025, Month: 6}) {
			t.Errorf("first pre-payment in %s, expected 2025-06", fired[0])
		}
		for i, ym := range fired {
			if ym.Month != 6 {
				t.Errorf("pre-payment in %s, expected June only", ym)
			}
			if i > 0 && ym.Year != fired[i-1].Year+1 {
				t.Errorf("pre-payments in %s and %s are not a year apart", fired[i-1], ym)
			}
		}
	})

	t.Run("Start before the anchor keeps the start month", func(t *testing.T) {
		anchor := datetime.YearMonth{Year: 2025, Month: 11}
		policy := &PrePaymentPolicy{Amount: 200000, Frequency: Yearly, StartDate: datetime.YearMonth{Year: 2024, Month: 3}}
		schedule := generate(t, params, policy, anchor)

		for _, entry := range schedule.Entries() {
			if entry.PrePayment > 0 {
				if entry.YearMonth() != (datetime.YearMonth{Year: 2026, Month: 3}) {
					t.Errorf("first pre-payment in %s, expected 2026-03", entry.YearMonth())
				}
				break
			}
		}
	})
}

func TestGenerateScheduleMonthlyStartBeforeAnchor(t *testing.T) {
	params := LoanParameters{Principal: 5000000, AnnualRatePercent: 9, TenureYears: 10}
	policy := &PrePaymentPolicy{Amount: 10000, Frequency: Monthly, StartDate: datetime.YearMonth{Year: 2020, Month: 1}}
	schedule := generate(t, params, policy, datetime.YearMonth{Year: 2025, Month: 11})

	if first := schedule.Entries()[0]; first.PrePayment != 10000 {
		t.Errorf("period 1 pre-payment = %.2f, expected 10000", first.PrePayment)
	}
}

func TestGenerateScheduleFutureStartDate(t *testing.T) {
	params := LoanParameters{Principal: 1000000, AnnualRatePercent: 9, TenureYears: 2}
	policy := &PrePaymentPolicy{Amount: 10000, Frequency: Monthly, StartDate: datetime.YearMonth{Year: 2090, Month: 1}}
	withPolicy := generate(t, params, policy, datetime.YearMonth{Year: 2025, Month: 1})
	without := generate(t, params, nil, datetime.YearMonth{Year: 2025, Month: 1})

	if withPolicy.TotalPrePayment() != 0 {
		t.Errorf("expected no pre-payments, got %.2f", withPolicy.TotalPrePayment())
	}
	if withPolicy.Months() != without.Months() {
		t.Errorf("a pre-payment beyond the term should not change the schedule")
	}
}

func TestGenerateScheduleInactivePolicy(t *testing.T) {
	params := LoanParameters{Principal: 1000000, AnnualRatePercent: 9, TenureYears: 5}
	anchor := datetime.YearMonth{Year: 2025, Month: 1}
	base := generate(t, params, nil, anchor)

	for _, amount := range []float64{0, -5000} {
		policy := &PrePaymentPolicy{Amount: amount, Frequency: Monthly, StartDate: anchor}
		schedule := generate(t, params, policy, anchor)
		if schedule.TotalPrePayment() != 0 {
			t.Errorf("amount %.2f: expected no pre-payments, got %.2f", amount, schedule.TotalPrePayment())
		}
		if schedule.Months() != base.Months() || schedule.TotalInterest() != base.TotalInterest() {
			t.Errorf("amount %.2f: an inactive policy changed the schedule", amount)
		}
	}
}

func TestGenerateScheduleZeroRateStraightLine(t *testing.T) {
	schedule := generate(t, LoanParameters{Principal: 1200000, AnnualRatePercent: 0, TenureYears: 10}, nil,
		datetime.YearMonth{Year: 2025, Month: 1})

	if schedule.Months() != 120 {
		t.Fatalf("expected 120 periods, got %d", schedule.Months())
	}
	for _, entry := range schedule.Entries() {
		if entry.Interest != 0 {
			t.Errorf("period %d interest = %v, expected 0", entry.Period, entry.Interest)
		}
		if math.Abs(entry.Principal-10000) > constants.BalanceEpsilon {
			t.Errorf("period %d principal = %.4f, expected 10000", entry.Period, entry.Principal)
		}
	}
	if len(schedule.Years) != 10 {
		t.Errorf("expected 10 calendar years, got %d", len(schedule.Years))
	}
}

func TestGenerateScheduleIdempotent(t *testing.T) {
	params := LoanParameters{Principal: 5000000, AnnualRatePercent: 9, TenureYears: 10, ProcessingFee: 25000}
	policy := &PrePaymentPolicy{Amount: 50000, Frequency: Yearly, StartDate: datetime.YearMonth{Year: 2025, Month: 11}}
	anchor := datetime.YearMonth{Year: 2025, Month: 10}

	first, err := json.Marshal(generate(t, params, policy, anchor))
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	second, err := json.Marshal(generate(t, params, policy, anchor))
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("two identical invocations produced different schedules")
	}
}

func TestGenerateScheduleValidation(t *testing.T) {
	generator := NewAmortizationScheduleGenerator(nil)

	_, err := generator.GenerateSchedule(LoanParameters{Principal: 0, AnnualRatePercent: 9, TenureYears: 10}, nil,
		datetime.YearMonth{Year: 2025, Month: 1})
	if !errors.Is(err, ErrInvalidLoanParameters) {
		t.Errorf("expected ErrInvalidLoanParameters for zero principal, got %v", err)
	}

	_, err = generator.GenerateSchedule(LoanParameters{Principal: 1000, AnnualRatePercent: 9, TenureYears: 10}, nil,
		datetime.YearMonth{Year: 2025, Month: 13})
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) || validationErr.Field != "anchor" {
		t.Errorf("expected anchor ValidationError, got %v", err)
	}
}
