package server

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/iwvelando/loan-simulator/internal/cache"
	"github.com/iwvelando/loan-simulator/internal/config"
	"github.com/iwvelando/loan-simulator/internal/optimizer"
	"github.com/iwvelando/loan-simulator/internal/simulation"
	"github.com/iwvelando/loan-simulator/pkg/amortization"
	"github.com/iwvelando/loan-simulator/pkg/constants"
	"github.com/iwvelando/loan-simulator/pkg/output"
	"go.uber.org/zap"
)

const requestIDHeader = "X-Request-ID"

// Options tunes a Handler. Zero values fall back to the defaults in
// pkg/constants; a nil Cache disables result caching.
type Options struct {
	MaxUploadSize int64
	Version       string
	Cache         cache.Repository
	RateLimit     RateLimitConfig
}

// Handler serves the simulation API.
type Handler struct {
	logger        *zap.Logger
	maxUploadSize int64
	version       string
	cache         cache.Repository
	limiter       *RateLimiter
	metrics       *metrics
	simulator     *amortization.Simulator
	mux           *http.ServeMux
}

// NewHandler constructs the HTTP handler that serves the simulation API.
// Call Close when done to stop the rate limiter.
func NewHandler(logger *zap.Logger, opts Options) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	maxUploadSize := opts.MaxUploadSize
	if maxUploadSize <= 0 {
		maxUploadSize = constants.DefaultMaxUploadSizeBytes
	}

	trimmedVersion := strings.TrimSpace(opts.Version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	h := &Handler{
		logger:        logger,
		maxUploadSize: maxUploadSize,
		version:       trimmedVersion,
		cache:         opts.Cache,
		metrics:       newMetrics(),
		simulator:     amortization.NewSimulator(logger),
		mux:           http.NewServeMux(),
	}
	if opts.RateLimit.Requests > 0 {
		window := opts.RateLimit.WindowDuration()
		if window <= 0 {
			window = time.Minute
		}
		h.limiter = NewRateLimiter(opts.RateLimit.Requests, window)
	}

	// Single loan simulation
	h.mux.Handle("/api/simulate", h.instrument("simulate", true, h.handleSimulate))

	// Same simulation as a CSV download
	h.mux.Handle("/api/simulate/csv", h.instrument("simulate_csv", true, h.handleSimulateCSV))

	// Both strategies for the same extra payment
	h.mux.Handle("/api/simulate/compare", h.instrument("compare", true, h.handleCompare))

	// Scenario file upload
	h.mux.Handle("/api/scenarios", h.instrument("scenarios", true, h.handleScenarios))

	h.mux.Handle("/api/version", h.instrument("version", false, h.handleVersion))
	h.mux.Handle("/healthz", h.instrument("healthz", false, h.handleHealth))
	h.mux.Handle("/metrics", h.metrics.handler())

	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// Close stops background work owned by the handler.
func (h *Handler) Close() {
	if h.limiter != nil {
		h.limiter.Stop()
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// instrument tags the request with an ID, applies the rate limit when
// limited is set and records request metrics.
func (h *Handler) instrument(endpoint string, limited bool, next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		if limited && h.limiter != nil && !h.limiter.Allow(clientAddress(r)) {
			h.metrics.rateLimited.Inc()
			h.respondError(rec, r, http.StatusTooManyRequests, "rate limit exceeded", "server.instrument")
		} else {
			next(rec, r)
		}

		elapsed := time.Since(start)
		h.metrics.requests.WithLabelValues(endpoint, strconv.Itoa(rec.status)).Inc()
		h.metrics.duration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
		h.logger.Debug("request served",
			zap.String("op", "server.instrument"),
			zap.String("endpoint", endpoint),
			zap.String("requestID", requestID),
			zap.Int("status", rec.status),
			zap.Duration("duration", elapsed),
		)
	})
}

type simulateResponse struct {
	Parameters amortization.LoanParameters   `json:"parameters"`
	Result     amortization.SimulationResult `json:"result"`
	Summary    string                        `json:"summary"`
}

type compareResponse struct {
	Parameters amortization.LoanParameters     `json:"parameters"`
	Comparison amortization.StrategyComparison `json:"comparison"`
}

type scenariosResponse struct {
	Scenarios []string            `json:"scenarios"`
	Results   []simulation.Result `json:"results"`
	CSV       string              `json:"csv"`
	Warnings  []string            `json:"warnings,omitempty"`
	Duration  string              `json:"duration"`
}

func (h *Handler) handleSimulate(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleSimulate"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	loan, canonical, ok := h.decodeLoan(w, r, op)
	if !ok {
		return
	}

	key := cache.Key("simulate", canonical)
	if body, hit := h.cached(r, key, op); hit {
		h.writeRaw(w, http.StatusOK, "application/json", body, true)
		return
	}

	params, extra, err := loan.Parameters(config.Defaults{})
	if err != nil {
		h.respondInputError(w, r, err, op)
		return
	}
	result, err := h.simulator.Run(params, extra)
	if err != nil {
		h.respondInputError(w, r, err, op)
		return
	}
	h.metrics.observeSimulation(string(result.System), string(result.Strategy))

	body, err := json.Marshal(simulateResponse{
		Parameters: params,
		Result:     result,
		Summary:    output.Summary(result),
	})
	if err != nil {
		h.respondError(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to encode result: %v", err), op)
		return
	}
	h.store(r, key, body, op)
	h.writeRaw(w, http.StatusOK, "application/json", body, false)
}

func (h *Handler) handleSimulateCSV(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleSimulateCSV"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	loan, _, ok := h.decodeLoan(w, r, op)
	if !ok {
		return
	}

	scenario := config.Scenario{Name: "simulation", Active: true, Loan: loan}
	result, err := simulation.RunScenario(h.simulator, scenario, config.Defaults{})
	if err != nil {
		h.respondInputError(w, r, err, op)
		return
	}
	h.metrics.observeSimulation(string(result.Simulation.System), string(result.Simulation.Strategy))

	var buf bytes.Buffer
	if err := output.CsvFormat(&buf, []simulation.Result{result}); err != nil {
		h.respondError(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to render CSV: %v", err), op)
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="schedule.csv"`)
	h.writeBody(w, http.StatusOK, "text/csv", buf.Bytes())
}

func (h *Handler) handleCompare(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleCompare"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	loan, canonical, ok := h.decodeLoan(w, r, op)
	if !ok {
		return
	}

	key := cache.Key("compare", canonical)
	if body, hit := h.cached(r, key, op); hit {
		h.writeRaw(w, http.StatusOK, "application/json", body, true)
		return
	}

	// The comparison supplies both strategies itself.
	amount := loan.ExtraPayment.Amount
	loan.ExtraPayment = config.ExtraPayment{}
	params, _, err := loan.Parameters(config.Defaults{})
	if err != nil {
		h.respondInputError(w, r, err, op)
		return
	}
	comparison, err := h.simulator.CompareStrategies(params, amount)
	if err != nil {
		h.respondInputError(w, r, err, op)
		return
	}
	h.metrics.observeSimulation(string(params.System), string(amortization.StrategyReduceTerm))
	h.metrics.observeSimulation(string(params.System), string(amortization.StrategyReduceInstallment))

	body, err := json.Marshal(compareResponse{Parameters: params, Comparison: comparison})
	if err != nil {
		h.respondError(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to encode result: %v", err), op)
		return
	}
	h.store(r, key, body, op)
	h.writeRaw(w, http.StatusOK, "application/json", body, false)
}

func (h *Handler) handleScenarios(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleScenarios"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondError(w, r, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds limit of %d bytes", h.maxUploadSize), op)
			return
		}
		h.respondError(w, r, http.StatusBadRequest, fmt.Sprintf("failed to parse upload: %v", err), op)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		h.respondError(w, r, http.StatusBadRequest, "missing configuration file", op)
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
		h.respondError(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to read configuration: %v", err), op)
		return
	}

	conf, err := config.LoadConfigurationFromReader(&buf)
	if err != nil {
		h.respondError(w, r, http.StatusBadRequest, err.Error(), op)
		return
	}
	warnings := conf.ValidateConfiguration()

	var optimizationResult *optimizer.Result
	if coerceBool(r.FormValue("optimize")) {
		runner, err := optimizer.NewRunner(h.logger, conf)
		if err != nil {
			h.respondError(w, r, http.StatusBadRequest, fmt.Sprintf("failed to initialize optimizer: %v", err), op)
			return
		}
		optimizationResult, err = runner.Run()
		if err != nil {
			h.respondError(w, r, http.StatusBadRequest, fmt.Sprintf("optimizer execution failed: %v", err), op)
			return
		}
	}

	results, err := simulation.RunScenarios(h.logger, *conf)
	if err != nil {
		h.respondInputError(w, r, err, op)
		return
	}
	if optimizationResult != nil && !optimizationResult.Empty() {
		optimizationResult.Apply(results)
	}
	for _, result := range results {
		h.metrics.observeSimulation(string(result.Simulation.System), string(result.Simulation.Strategy))
	}

	csv, err := output.CsvString(results)
	if err != nil {
		h.respondError(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to render CSV: %v", err), op)
		return
	}
	if results == nil {
		results = []simulation.Result{}
	}

	elapsed := time.Since(start)
	response := scenariosResponse{
		Scenarios: extractScenarioNames(results),
		Results:   results,
		CSV:       csv,
		Warnings:  warnings,
		Duration:  elapsed.String(),
	}

	h.logger.Info("scenarios simulated",
		zap.String("op", op),
		zap.Int("scenarios", len(response.Scenarios)),
		zap.Duration("duration", elapsed),
	)

	h.writeJSON(w, http.StatusOK, response)
}

func (h *Handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decodeLoan reads a JSON loan from the body and returns it with its
// canonical encoding, which keys the cache.
func (h *Handler) decodeLoan(w http.ResponseWriter, r *http.Request, op string) (config.Loan, []byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	var loan config.Loan
	if err := decoder.Decode(&loan); err != nil {
		h.respondError(w, r, http.StatusBadRequest, fmt.Sprintf("failed to decode loan: %v", err), op)
		return config.Loan{}, nil, false
	}

	canonical, err := json.Marshal(loan)
	if err != nil {
		h.respondError(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to encode loan: %v", err), op)
		return config.Loan{}, nil, false
	}
	return loan, canonical, true
}

func (h *Handler) cached(r *http.Request, key, op string) ([]byte, bool) {
	if h.cache == nil {
		return nil, false
	}
	body, err := h.cache.Get(r.Context(), key)
	switch {
	case err == nil:
		h.metrics.cache.WithLabelValues("hit").Inc()
		return body, true
	case errors.Is(err, cache.ErrMiss):
		h.metrics.cache.WithLabelValues("miss").Inc()
	default:
		h.metrics.cache.WithLabelValues("error").Inc()
		h.logger.Warn("cache lookup failed",
			zap.String("op", op),
			zap.String("key", key),
			zap.Error(err),
		)
	}
	return nil, false
}

func (h *Handler) store(r *http.Request, key string, body []byte, op string) {
	if h.cache == nil {
		return
	}
	if err := h.cache.Set(r.Context(), key, body); err != nil {
		h.logger.Warn("failed to cache result",
			zap.String("op", op),
			zap.String("key", key),
			zap.Error(err),
		)
	}
}

// respondInputError reports a loan that could not be simulated. Engine
// validation errors name the offending field.
func (h *Handler) respondInputError(w http.ResponseWriter, r *http.Request, err error, op string) {
	var inputErr *amortization.InvalidInputError
	if errors.As(err, &inputErr) {
		h.respondErrorWithField(w, r, http.StatusBadRequest, err.Error(), inputErr.Field, op)
		return
	}
	h.respondError(w, r, http.StatusBadRequest, err.Error(), op)
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, status int, msg string, op string) {
	h.respondErrorWithField(w, r, status, msg, "", op)
}

func (h *Handler) respondErrorWithField(w http.ResponseWriter, r *http.Request, status int, msg, field, op string) {
	requestID := w.Header().Get(requestIDHeader)
	h.logger.Error("simulation request failed",
		zap.String("op", op),
		zap.String("requestID", requestID),
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	payload := map[string]string{"error": msg}
	if field != "" {
		payload["field"] = field
	}
	if requestID != "" {
		payload["requestId"] = requestID
	}
	h.writeJSON(w, status, payload)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}

// writeRaw writes a cacheable body and reports whether it came from the cache.
func (h *Handler) writeRaw(w http.ResponseWriter, status int, contentType string, body []byte, cacheHit bool) {
	if h.cache != nil {
		if cacheHit {
			w.Header().Set("X-Cache", "HIT")
		} else {
			w.Header().Set("X-Cache", "MISS")
		}
	}
	h.writeBody(w, status, contentType, body)
}

func (h *Handler) writeBody(w http.ResponseWriter, status int, contentType string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		h.logger.Error("failed to write response", zap.Error(err))
	}
}

func extractScenarioNames(results []simulation.Result) []string {
	names := make([]string, 0, len(results))
	for _, scenario := range results {
		names = append(names, scenario.Name)
	}
	return names
}

func coerceBool(value interface{}) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return false
		}
		if parsed, err := strconv.ParseBool(trimmed); err == nil {
			return parsed
		}
	case float64:
		return v != 0
	case int:
		return v != 0
	}
	return false
}
