package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/iwvelando/emi-calculator/internal/config"
	"github.com/iwvelando/emi-calculator/internal/metrics"
	"github.com/iwvelando/emi-calculator/internal/service"
	"github.com/iwvelando/emi-calculator/internal/store"
	"github.com/iwvelando/emi-calculator/pkg/constants"
	"github.com/iwvelando/emi-calculator/pkg/loans"
	"github.com/iwvelando/emi-calculator/pkg/output"
	"go.uber.org/zap"
)

type handler struct {
	calc        *service.Calculator
	metrics     *metrics.Metrics
	logger      *zap.Logger
	maxBodySize int64
	version     string
}

// NewHandler constructs the HTTP handler that serves the EMI API. A nil
// metrics disables the /metrics endpoint.
func NewHandler(calc *service.Calculator, m *metrics.Metrics, logger *zap.Logger, maxBodySize int64, version string) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	if maxBodySize <= 0 {
		maxBodySize = constants.DefaultMaxBodyBytes
	}

	trimmedVersion := strings.TrimSpace(version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	h := &handler{calc: calc, metrics: m, logger: logger, maxBodySize: maxBodySize, version: trimmedVersion}

	router := mux.NewRouter()
	router.Use(h.observe)

	api := router.PathPrefix("/api").Subrouter()

	// Single calculation, not persisted
	api.HandleFunc("/emi/calculate", h.handleCalculate).Methods(http.MethodPost)

	// Saved results
	api.HandleFunc("/emi", h.handleSave).Methods(http.MethodPost)
	api.HandleFunc("/emi", h.handleList).Methods(http.MethodGet)
	api.HandleFunc("/emi/{id}", h.handleGet).Methods(http.MethodGet)

	// Batch calculation from an uploaded loans file
	api.HandleFunc("/config/calculate", h.handleConfigCalculate).Methods(http.MethodPost)

	api.HandleFunc("/version", h.handleVersion).Methods(http.MethodGet)

	if m != nil {
		router.Handle("/metrics", m.Handler()).Methods(http.MethodGet)
	}

	return router
}

type envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Count   *int        `json:"count,omitempty"`
	Data    interface{} `json:"data"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type configResponse struct {
	Loans    []output.Report `json:"loans"`
	CSV      string          `json:"csv"`
	Warnings []string        `json:"warnings,omitempty"`
	Duration string          `json:"duration"`
}

func (h *handler) handleCalculate(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleCalculate"

	req, ok := h.decodeRequest(w, r, op)
	if !ok {
		return
	}

	result, err := h.calc.Calculate(r.Context(), req)
	if err != nil {
		h.respondServiceError(w, err, op)
		return
	}

	h.writeJSON(w, http.StatusOK, envelope{Success: true, Data: result})
}

func (h *handler) handleSave(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleSave"

	req, ok := h.decodeRequest(w, r, op)
	if !ok {
		return
	}

	saved, err := h.calc.Save(r.Context(), req)
	if err != nil {
		h.respondServiceError(w, err, op)
		return
	}

	h.writeJSON(w, http.StatusCreated, envelope{
		Success: true,
		Message: "EMI result saved successfully",
		Data:    saved,
	})
}

func (h *handler) handleList(w http.ResponseWriter, r *http.Request) {
	results, err := h.calc.List(r.Context())
	if err != nil {
		h.respondServiceError(w, err, "server.handleList")
		return
	}

	if results == nil {
		results = []store.SavedResult{}
	}
	count := len(results)
	h.writeJSON(w, http.StatusOK, envelope{Success: true, Count: &count, Data: results})
}

func (h *handler) handleGet(w http.ResponseWriter, r *http.Request) {
	saved, err := h.calc.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.respondServiceError(w, err, "server.handleGet")
		return
	}

	h.writeJSON(w, http.StatusOK, envelope{Success: true, Data: saved})
}

func (h *handler) handleConfigCalculate(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleConfigCalculate"

	start := time.Now()
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	if err := r.ParseMultipartForm(h.maxBodySize); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds limit of %d bytes", h.maxBodySize), op)
			return
		}
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to parse upload: %v", err), op)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, "missing configuration file", op)
		return
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			h.logger.Warn("failed to close uploaded file",
				zap.String("op", op),
				zap.Error(closeErr),
			)
		}
	}()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to read configuration: %v", err), op)
		return
	}

	conf, err := config.LoadConfigurationFromReader(&buf)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("error reading config data, %v", err), op)
		return
	}
	if len(conf.Loans) == 0 {
		h.respondErrorWithOp(w, http.StatusBadRequest, "configuration defines no loans", op)
		return
	}

	warnings := conf.ValidateConfiguration()
	if err := conf.ProcessLoans(h.logger); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, config.ErrInvalidConfiguration) || errors.Is(err, loans.ErrInvalidLoanParameters) {
			status = http.StatusBadRequest
		}
		h.respondErrorWithOp(w, status, err.Error(), op)
		return
	}

	reports := conf.Reports()
	elapsed := time.Since(start)
	h.logger.Info("loans computed",
		zap.String("op", op),
		zap.Int("loans", len(reports)),
		zap.Int("warnings", len(warnings)),
		zap.Duration("duration", elapsed),
	)

	h.writeJSON(w, http.StatusOK, envelope{Success: true, Data: configResponse{
		Loans:    reports,
		CSV:      output.CsvString(reports),
		Warnings: warnings,
		Duration: elapsed.String(),
	}})
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) decodeRequest(w http.ResponseWriter, r *http.Request, op string) (service.CalculationRequest, bool) {
	var req service.CalculationRequest
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request body exceeds limit of %d bytes", h.maxBodySize), op)
			return req, false
		}
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to decode request: %v", err), op)
		return req, false
	}
	return req, true
}

func (h *handler) respondServiceError(w http.ResponseWriter, err error, op string) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrInvalidRequest):
		status = http.StatusBadRequest
	}
	h.respondErrorWithOp(w, status, err.Error(), op)
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, status int, msg string, op string) {
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("op", op),
			zap.Int("status", status),
			zap.String("error", msg),
		)
	} else {
		h.logger.Debug("request rejected",
			zap.String("op", op),
			zap.Int("status", status),
			zap.String("error", msg),
		)
	}

	h.writeJSON(w, status, errorResponse{Success: false, Error: msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}

// statusRecorder remembers the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// observe records request counts and latency per route template.
func (h *handler) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		route := r.URL.Path
		if current := mux.CurrentRoute(r); current != nil {
			if tmpl, err := current.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}
		h.metrics.ObserveRequest(route, r.Method, strconv.Itoa(recorder.status), time.Since(start))
	})
}
