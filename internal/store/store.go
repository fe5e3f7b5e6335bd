// Package store persists saved EMI results. Only the request inputs and the
// summary totals are stored; schedules are recomputed on demand.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iwvelando/emi-calculator/pkg/constants"
)

// ErrNotFound is returned when a saved result does not exist.
var ErrNotFound = errors.New("saved result not found")

// PrePayment is the pre-payment a saved result was computed with.
type PrePayment struct {
	Amount    float64 `json:"amount"`
	Frequency string  `json:"frequency"`
	StartDate string  `json:"startDate"`
}

// SavedResult is one persisted calculation.
type SavedResult struct {
	ID             string      `json:"id"`
	LoanAmount     float64     `json:"loanAmount"`
	Tenure         float64     `json:"tenure"`
	Interest       float64     `json:"interest"`
	EMI            int64       `json:"emi"`
	TotalInterest  int64       `json:"totalInterest"`
	ProcessingFees int64       `json:"processingFees"`
	PrePayment     *PrePayment `json:"prePayment,omitempty"`
	CreatedAt      time.Time   `json:"createdAt"`
}

// Repository stores saved results.
type Repository interface {
	// Save assigns the ID and creation time and returns the stored record.
	Save(ctx context.Context, result SavedResult) (SavedResult, error)
	// List returns every saved result, newest first.
	List(ctx context.Context) ([]SavedResult, error)
	Get(ctx context.Context, id string) (SavedResult, error)
}

// New builds the Repository for driver. The returned close function releases
// any connection the store holds.
func New(ctx context.Context, driver, dsn string) (Repository, func() error, error) {
	switch driver {
	case "", constants.StorageDriverMemory:
		return NewMemoryStore(), func() error { return nil }, nil
	case constants.StorageDriverPostgres:
		db, err := OpenPostgres(ctx, dsn)
		if err != nil {
			return nil, nil, err
		}
		store := NewPostgresStore(db)
		if err := store.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return store, db.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q, expected %s or %s",
			driver, constants.StorageDriverMemory, constants.StorageDriverPostgres)
	}
}
