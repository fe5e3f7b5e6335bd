package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	// Register the postgres driver for database/sql.
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
)

const schema = `
	CREATE TABLE IF NOT EXISTS emi_results (
		id                    UUID PRIMARY KEY,
		loan_amount           NUMERIC(15, 2) NOT NULL,
		tenure                NUMERIC(6, 2) NOT NULL,
		interest              NUMERIC(6, 3) NOT NULL,
		emi                   BIGINT NOT NULL,
		total_interest        BIGINT NOT NULL,
		processing_fees       BIGINT NOT NULL,
		prepayment_amount     NUMERIC(15, 2),
		prepayment_frequency  TEXT,
		prepayment_start_date TEXT,
		created_at            TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`

const selectColumns = `
		SELECT id, loan_amount, tenure, interest, emi, total_interest, processing_fees,
			prepayment_amount, prepayment_frequency, prepayment_start_date, created_at
		FROM emi_results`

// PostgresStore is a Repository backed by PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// OpenPostgres connects to PostgreSQL and verifies the connection.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// NewPostgresStore initializes a store on an open database.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the results table when it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Save inserts result and returns it with its ID and creation time.
func (s *PostgresStore) Save(ctx context.Context, result SavedResult) (SavedResult, error) {
	result.ID = uuid.NewString()

	var (
		amount    decimal.NullDecimal
		frequency sql.NullString
		startDate sql.NullString
	)
	if result.PrePayment != nil {
		amount = decimal.NewNullDecimal(decimal.NewFromFloat(result.PrePayment.Amount))
		frequency = sql.NullString{String: result.PrePayment.Frequency, Valid: true}
		startDate = sql.NullString{String: result.PrePayment.StartDate, Valid: true}
	}

	query := `
		INSERT INTO emi_results (id, loan_amount, tenure, interest, emi, total_interest, processing_fees,
			prepayment_amount, prepayment_frequency, prepayment_start_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at`
	err := s.db.QueryRowContext(ctx, query,
		result.ID,
		decimal.NewFromFloat(result.LoanAmount),
		decimal.NewFromFloat(result.Tenure),
		decimal.NewFromFloat(result.Interest),
		result.EMI,
		result.TotalInterest,
		result.ProcessingFees,
		amount, frequency, startDate,
	).Scan(&result.CreatedAt)
	if err != nil {
		return SavedResult{}, fmt.Errorf("failed to save result: %w", err)
	}
	return result, nil
}

// List returns saved results sorted newest first.
func (s *PostgresStore) List(ctx context.Context) ([]SavedResult, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+` ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	defer rows.Close()

	results := []SavedResult{}
	for rows.Next() {
		result, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	return results, nil
}

// Get returns the saved result with the given ID.
func (s *PostgresStore) Get(ctx context.Context, id string) (SavedResult, error) {
	if _, err := uuid.Parse(id); err != nil {
		return SavedResult{}, ErrNotFound
	}
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE id = $1`, id)
	result, err := scanResult(row)
	if errors.Is(err, sql.ErrNoRows) {
		return SavedResult{}, ErrNotFound
	}
	return result, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanResult(row scanner) (SavedResult, error) {
	var (
		result                               SavedResult
		loanAmount, tenure, interest         decimal.Decimal
		prePaymentAmount                     decimal.NullDecimal
		prePaymentFrequency, prePaymentStart sql.NullString
	)
	err := row.Scan(&result.ID, &loanAmount, &tenure, &interest, &result.EMI, &result.TotalInterest,
		&result.ProcessingFees, &prePaymentAmount, &prePaymentFrequency, &prePaymentStart, &result.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return SavedResult{}, err
	}
	if err != nil {
		return SavedResult{}, fmt.Errorf("failed to scan result: %w", err)
	}

	result.LoanAmount = loanAmount.InexactFloat64()
	result.Tenure = tenure.InexactFloat64()
	result.Interest = interest.InexactFloat64()
	if prePaymentAmount.Valid {
		result.PrePayment = &PrePayment{
			Amount:    prePaymentAmount.Decimal.InexactFloat64(),
			Frequency: prePaymentFrequency.String,
			StartDate: prePaymentStart.String,
		}
	}
	return result, nil
}
