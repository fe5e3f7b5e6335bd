package loans

import (
	"fmt"
	"strings"

	"github.com/iwvelando/emi-calculator/pkg/constants"
	"github.com/iwvelando/emi-calculator/pkg/datetime"
)

// Frequency is how often a pre-payment recurs.
type Frequency string

const (
	Monthly Frequency = constants.FrequencyMonthly
	Yearly  Frequency = constants.FrequencyYearly
)

// ParseFrequency accepts "monthly" or "yearly", case-insensitively.
func ParseFrequency(value string) (Frequency, error) {
	switch Frequency(strings.ToLower(strings.TrimSpace(value))) {
	case Monthly:
		return Monthly, nil
	case Yearly:
		return Yearly, nil
	default:
		return "", fmt.Errorf("invalid pre-payment frequency %q, expected %s or %s", value, Monthly, Yearly)
	}
}

// PrePaymentPolicy is an additional recurring payment applied to principal.
type PrePaymentPolicy struct {
	Amount    float64
	Frequency Frequency
	StartDate datetime.YearMonth
}

// NewPrePaymentPolicy builds a policy from caller input. startDate may be a
// month ("2006-01") or a date ("2006-01-02").
func NewPrePaymentPolicy(amount float64, frequency, startDate string) (*PrePaymentPolicy, error) {
	freq, err := ParseFrequency(frequency)
	if err != nil {
		return nil, err
	}
	start, err := datetime.Parse(startDate)
	if err != nil {
		return nil, fmt.Errorf("invalid pre-payment start date: %w", err)
	}
	return &PrePaymentPolicy{Amount: amount, Frequency: freq, StartDate: start}, nil
}

// Active reports whether the policy can ever apply. A missing policy or a
// non-positive amount is a no-op.
func (p *PrePaymentPolicy) Active() bool {
	return p != nil && p.Amount > 0
}

// AppliesTo reports whether a pre-payment falls due in month for a schedule
// anchored at anchor. A start date before the anchor opens the policy from
// the first period; a yearly policy still fires only in its start month.
func (p *PrePaymentPolicy) AppliesTo(month, anchor datetime.YearMonth) bool {
	if !p.Active() {
		return false
	}
	gate := p.StartDate
	if gate.Before(anchor) {
		gate = anchor
	}
	if month.Before(gate) {
		return false
	}
	switch p.Frequency {
	case Monthly:
		return true
	case Yearly:
		return month.Month == p.StartDate.Month
	default:
		return false
	}
}

// String describes the policy, e.g. "50000.00 monthly from 2025-11".
func (p *PrePaymentPolicy) String() string {
	if p == nil {
		return "none"
	}
	return fmt.Sprintf("%.2f %s from %s", p.Amount, p.Frequency, p.StartDate)
}
