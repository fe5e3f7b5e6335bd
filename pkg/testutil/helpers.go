// Package testutil provides common utility functions for testing.
package testutil

import (
	"github.com/iwvelando/emi-calculator/pkg/loans"
	"github.com/iwvelando/emi-calculator/pkg/output"
)

// FindReport finds a loan report by name in the reports slice.
// Returns a pointer to the report if found, nil otherwise.
func FindReport(reports []output.Report, name string) *output.Report {
	for i := range reports {
		if reports[i].Name == name {
			return &reports[i]
		}
	}
	return nil
}

// LedgerEntries flattens the yearly schedule of result into its monthly entries.
func LedgerEntries(result loans.Result) []loans.MonthlyLedgerEntry {
	entries := make([]loans.MonthlyLedgerEntry, 0, result.Months)
	for _, year := range result.YearlySchedule {
		entries = append(entries, year.Months...)
	}
	return entries
}
