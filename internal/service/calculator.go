// Package service computes and saves EMI results for the HTTP API.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iwvelando/emi-calculator/internal/cache"
	"github.com/iwvelando/emi-calculator/internal/metrics"
	"github.com/iwvelando/emi-calculator/internal/store"
	"github.com/iwvelando/emi-calculator/pkg/constants"
	"github.com/iwvelando/emi-calculator/pkg/datetime"
	"github.com/iwvelando/emi-calculator/pkg/loans"
	"github.com/iwvelando/emi-calculator/pkg/validation"
	"go.uber.org/zap"
)

// ErrInvalidRequest marks errors caused by the caller's input.
var ErrInvalidRequest = errors.New("invalid request")

// PrePaymentRequest is the optional recurring pre-payment of a request.
type PrePaymentRequest struct {
	Amount    float64 `json:"amount" validate:"lte=1000000000000"`
	Frequency string  `json:"frequency" validate:"required,oneof=monthly yearly"`
	StartDate string  `json:"startDate" validate:"required"`
}

// CalculationRequest is the input contract of the calculator.
type CalculationRequest struct {
	LoanAmount     float64            `json:"loanAmount" validate:"gt=0,lte=1000000000000"`
	Tenure         float64            `json:"tenure" validate:"gt=0,lte=50"`
	Interest       float64            `json:"interest" validate:"gte=0,lte=100"`
	ProcessingFees *float64           `json:"processingFees,omitempty" validate:"omitempty,gte=0"`
	PrePayment     *PrePaymentRequest `json:"prePayment,omitempty"`
	StartMonth     string             `json:"startMonth,omitempty" validate:"omitempty,datetime=2006-01"`
}

// normalizedRequest is the fully resolved request used as the cache key.
type normalizedRequest struct {
	LoanAmount     float64 `json:"loanAmount"`
	Tenure         float64 `json:"tenure"`
	Interest       float64 `json:"interest"`
	ProcessingFees float64 `json:"processingFees"`
	Anchor         string  `json:"anchor"`
	PrePayment     string  `json:"prePayment,omitempty"`
}

// Calculator computes results, caches them and saves them on request.
type Calculator struct {
	repo       store.Repository
	cache      cache.Cache
	metrics    *metrics.Metrics
	logger     *zap.Logger
	defaultFee float64
	startMonth datetime.YearMonth
	now        func() time.Time
}

// Option configures a Calculator.
type Option func(*Calculator)

// WithCache enables result caching.
func WithCache(c cache.Cache) Option {
	return func(calc *Calculator) { calc.cache = c }
}

// WithMetrics records cache lookups and schedule lengths.
func WithMetrics(m *metrics.Metrics) Option {
	return func(calc *Calculator) { calc.metrics = m }
}

// WithDefaultProcessingFee sets the fee used when a request omits one.
func WithDefaultProcessingFee(fee float64) Option {
	return func(calc *Calculator) { calc.defaultFee = fee }
}

// WithStartMonth fixes the anchor used when a request omits one. Without it
// the current month is used.
func WithStartMonth(month datetime.YearMonth) Option {
	return func(calc *Calculator) { calc.startMonth = month }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(calc *Calculator) { calc.now = now }
}

// NewCalculator creates a Calculator that saves results to repo.
func NewCalculator(repo store.Repository, logger *zap.Logger, opts ...Option) *Calculator {
	if logger == nil {
		logger = zap.NewNop()
	}
	calc := &Calculator{
		repo:       repo,
		logger:     logger,
		defaultFee: constants.DefaultProcessingFee,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(calc)
	}
	return calc
}

// Calculate validates req and returns its result, from the cache when possible.
func (c *Calculator) Calculate(ctx context.Context, req CalculationRequest) (loans.Result, error) {
	params, policy, anchor, err := c.resolve(req)
	if err != nil {
		return loans.Result{}, err
	}

	key := ""
	if c.cache != nil {
		normalized, err := json.Marshal(normalizedRequest{
			LoanAmount:     params.Principal,
			Tenure:         params.TenureYears,
			Interest:       params.AnnualRatePercent,
			ProcessingFees: params.ProcessingFee,
			Anchor:         anchor.String(),
			PrePayment:     activePolicy(policy),
		})
		if err != nil {
			return loans.Result{}, fmt.Errorf("failed to encode cache key: %w", err)
		}
		key = cache.Key(normalized)

		if cached, ok := c.cache.Get(ctx, key); ok {
			var result loans.Result
			if err := json.Unmarshal(cached, &result); err == nil {
				c.metrics.ObserveCacheLookup(true)
				return result, nil
			}
			c.logger.Warn("discarding undecodable cache entry",
				zap.String("op", "service.Calculate"),
				zap.String("key", key),
			)
		}
		c.metrics.ObserveCacheLookup(false)
	}

	result, err := loans.Calculate(c.logger, params, policy, anchor)
	if err != nil {
		return loans.Result{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	c.metrics.ObserveSchedule(result.Months)

	if key != "" {
		encoded, err := json.Marshal(result)
		if err == nil {
			err = c.cache.Set(ctx, key, encoded)
		}
		if err != nil {
			c.logger.Warn("failed to cache result",
				zap.String("op", "service.Calculate"),
				zap.String("key", key),
				zap.Error(err),
			)
		}
	}

	return result, nil
}

// Save computes req and persists its inputs and summary totals.
func (c *Calculator) Save(ctx context.Context, req CalculationRequest) (store.SavedResult, error) {
	req = req.normalized()
	result, err := c.Calculate(ctx, req)
	if err != nil {
		return store.SavedResult{}, err
	}

	record := store.SavedResult{
		LoanAmount:     result.LoanAmount,
		Tenure:         result.Tenure,
		Interest:       result.Interest,
		EMI:            result.EMI,
		TotalInterest:  result.TotalInterest,
		ProcessingFees: result.ProcessingFees,
	}
	if req.PrePayment != nil {
		record.PrePayment = &store.PrePayment{
			Amount:    req.PrePayment.Amount,
			Frequency: req.PrePayment.Frequency,
			StartDate: req.PrePayment.StartDate,
		}
	}

	saved, err := c.repo.Save(ctx, record)
	if err != nil {
		return store.SavedResult{}, fmt.Errorf("failed to save EMI result: %w", err)
	}
	c.logger.Info("saved EMI result",
		zap.String("op", "service.Save"),
		zap.String("id", saved.ID),
	)
	return saved, nil
}

// List returns saved results, newest first.
func (c *Calculator) List(ctx context.Context) ([]store.SavedResult, error) {
	results, err := c.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list EMI results: %w", err)
	}
	return results, nil
}

// Get returns one saved result.
func (c *Calculator) Get(ctx context.Context, id string) (store.SavedResult, error) {
	return c.repo.Get(ctx, id)
}

// normalized returns req with the pre-payment frequency lowercased, so the
// API accepts frequencies the same way configuration files do.
func (req CalculationRequest) normalized() CalculationRequest {
	if req.PrePayment != nil {
		prePayment := *req.PrePayment
		prePayment.Frequency = strings.ToLower(strings.TrimSpace(prePayment.Frequency))
		req.PrePayment = &prePayment
	}
	return req
}

func (c *Calculator) resolve(req CalculationRequest) (loans.LoanParameters, *loans.PrePaymentPolicy, datetime.YearMonth, error) {
	req = req.normalized()
	if err := validation.ValidateStruct(req); err != nil {
		return loans.LoanParameters{}, nil, datetime.YearMonth{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	params := loans.LoanParameters{
		Principal:         req.LoanAmount,
		AnnualRatePercent: req.Interest,
		TenureYears:       req.Tenure,
		ProcessingFee:     c.defaultFee,
	}
	if req.ProcessingFees != nil {
		params.ProcessingFee = *req.ProcessingFees
	}

	anchor := c.startMonth
	if req.StartMonth != "" {
		parsed, err := datetime.Parse(req.StartMonth)
		if err != nil {
			return loans.LoanParameters{}, nil, datetime.YearMonth{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
		anchor = parsed
	} else if anchor.IsZero() {
		anchor = datetime.FromTime(c.now())
	}

	var policy *loans.PrePaymentPolicy
	if req.PrePayment != nil {
		var err error
		policy, err = loans.NewPrePaymentPolicy(req.PrePayment.Amount, req.PrePayment.Frequency, req.PrePayment.StartDate)
		if err != nil {
			return loans.LoanParameters{}, nil, datetime.YearMonth{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
	}

	return params, policy, anchor, nil
}

// activePolicy describes policy for the cache key. An inactive policy
// schedules exactly like no policy.
func activePolicy(policy *loans.PrePaymentPolicy) string {
	if !policy.Active() {
		return ""
	}
	return fmt.Sprintf("%v %s %s", policy.Amount, policy.Frequency, policy.StartDate)
}
