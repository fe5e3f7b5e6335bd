// Package output provides utilities for formatting and displaying loan results.
package output

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/iwvelando/emi-calculator/pkg/format"
	"github.com/iwvelando/emi-calculator/pkg/loans"
)

// Report pairs a named loan with its computed result.
type Report struct {
	Name   string       `json:"name"`
	Result loans.Result `json:"result"`
}

// PrettyFormat outputs a human-readable rather than machine-readable table.
// With monthly set, every ledger entry is listed under its year.
func PrettyFormat(reports []Report, monthly bool) {
	for i, report := range reports {
		result := report.Result
		fmt.Printf("--- Results for loan %s ---\n", report.Name)
		fmt.Printf("Loan amount       | %s at %.2f%% over %v years\n",
			format.Currency(result.LoanAmount), result.Interest, result.Tenure)
		fmt.Printf("Monthly EMI       | %s\n", format.WholeCurrency(result.EMI))
		fmt.Printf("Total interest    | %s\n", format.WholeCurrency(result.TotalInterest))
		fmt.Printf("Processing fees   | %s\n", format.WholeCurrency(result.ProcessingFees))
		fmt.Printf("Total pre-payment | %s\n", format.WholeCurrency(result.TotalPrePayment))
		fmt.Printf("Total amount      | %s\n", format.WholeCurrency(result.TotalAmount))
		fmt.Printf("Months to payoff  | %d", result.Months)
		if result.PayoffMonth != "" {
			fmt.Printf(" (%s)", result.PayoffMonth)
		}
		fmt.Printf("\n")
		fmt.Printf("Breakdown         | principal %s, interest %s, fees %s\n",
			format.Percent(result.Breakdown.PrincipalPercent),
			format.Percent(result.Breakdown.InterestPercent),
			format.Percent(result.Breakdown.FeesPercent))
		fmt.Printf("\n")

		fmt.Printf("Year     | Principal | Interest | Pre-payment | Balance | Paid\n")
		fmt.Printf("____     | _________ | ________ | ___________ | _______ | ____\n")
		for _, year := range result.YearlySchedule {
			fmt.Printf("%d     | %s | %s | %s | %s | %s\n", year.Year,
				format.Currency(year.Principal), format.Currency(year.Interest),
				format.Currency(year.PrePayment), format.Currency(year.Balance),
				format.Percent(year.PaidPercent))
			if !monthly {
				continue
			}
			for _, entry := range year.Months {
				fmt.Printf("  %s %d | %s | %s | %s | %s | %s\n", entry.Month, entry.CalendarYear,
					format.Currency(entry.Principal), format.Currency(entry.Interest),
					format.Currency(entry.PrePayment), format.Currency(entry.Balance),
					format.Percent(entry.PaidPercent))
			}
		}
		if i < len(reports)-1 {
			fmt.Printf("\n")
		}
	}
}

// CsvFormat outputs the monthly ledger of every loan in comma-separated value format.
func CsvFormat(reports []Report) {
	fmt.Print(CsvString(reports))
}

// CsvString renders the CSV output as a string.
func CsvString(reports []Report) string {
	var builder strings.Builder
	builder.WriteString(`"loan","period","date","principal","interest","prepayment","balance","paid percent"`)
	builder.WriteString("\n")
	for _, report := range reports {
		for _, year := range report.Result.YearlySchedule {
			for _, entry := range year.Months {
				fmt.Fprintf(&builder, `"%s","%d","%s","%.2f","%.2f","%.2f","%.2f","%.2f"`,
					csvEscape(report.Name), entry.Period, entry.YearMonth(),
					entry.Principal, entry.Interest, entry.PrePayment, entry.Balance, entry.PaidPercent)
				builder.WriteString("\n")
			}
		}
	}
	return builder.String()
}

// JSONFormat outputs the reports as indented JSON.
func JSONFormat(reports []Report) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(reports); err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}
	return nil
}

func csvEscape(value string) string {
	return strings.ReplaceAll(value, `"`, `""`)
}
