package apihttp

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"railfleet-sim/internal/audit"
	"railfleet-sim/internal/auth"
	"railfleet-sim/internal/export"
	"railfleet-sim/internal/observability/metrics"
	"railfleet-sim/internal/simulation/application"
	simulation "railfleet-sim/internal/simulation/domain"
)

const (
	timeLayout = time.RFC3339

	routeRunSimulation = "simulations_run"
	routeListFailures  = "simulations_failures"
	routeHealth        = "healthz"

	maxRequestBody = 1 << 16
)

// FleetRunner runs one simulated fleet.
type FleetRunner interface {
	Run(ctx context.Context, count int, seed uint64) (*application.Fleet, error)
}

type runRequest struct {
	Wagons int     `json:"wagons"`
	Seed   *uint64 `json:"seed"`
}

type runResponse struct {
	RunID     string `json:"run_id"`
	Seed      uint64 `json:"seed"`
	Wagons    int    `json:"wagons"`
	Failures  int    `json:"failures"`
	CreatedAt string `json:"created_at"`
	End       string `json:"end"`
	Cutoff    string `json:"cutoff"`
}

// handlerOptions holds settings shared by the API handlers.
type handlerOptions struct {
	defaultSeed uint64
	audit       audit.Logger
	logger      *log.Logger
}

// HandlerOption configures handlers.
type HandlerOption func(*handlerOptions)

// WithAudit records run requests and failure downloads.
func WithAudit(logger audit.Logger) HandlerOption {
	return func(o *handlerOptions) {
		o.audit = logger
	}
}

// WithLogger sets the handler logger.
func WithLogger(logger *log.Logger) HandlerOption {
	return func(o *handlerOptions) {
		o.logger = logger
	}
}

// WithDefaultSeed sets the seed used when a request omits one.
func WithDefaultSeed(seed uint64) HandlerOption {
	return func(o *handlerOptions) {
		o.defaultSeed = seed
	}
}

func newHandlerOptions(opts []HandlerOption) handlerOptions {
	var o handlerOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// SimulationHandler serves POST /api/v1/simulations.
type SimulationHandler struct {
	handlerOptions
	runner    FleetRunner
	repo      simulation.RunRepository
	maxWagons int
}

// NewSimulationHandler constructs a SimulationHandler.
func NewSimulationHandler(runner FleetRunner, repo simulation.RunRepository, maxWagons int, opts ...HandlerOption) *SimulationHandler {
	return &SimulationHandler{
		handlerOptions: newHandlerOptions(opts),
		runner:         runner,
		repo:           repo,
		maxWagons:      maxWagons,
	}
}

// ServeHTTP handles POST /api/v1/simulations.
func (h *SimulationHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	result := metrics.ResultError
	defer func() { metrics.ObserveAPIRequest(routeRunSimulation, result, time.Since(started)) }()

	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.runner == nil || h.repo == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}

	var req runRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Wagons <= 0 {
		http.Error(w, "wagons must be positive", http.StatusBadRequest)
		return
	}
	if h.maxWagons > 0 && req.Wagons > h.maxWagons {
		http.Error(w, "wagons exceeds limit", http.StatusBadRequest)
		return
	}
	seed := h.defaultSeed
	if req.Seed != nil {
		seed = *req.Seed
	}
	if seed > simulation.MaxSeed {
		http.Error(w, "seed out of range", http.StatusBadRequest)
		return
	}

	fleet, err := h.runner.Run(r.Context(), req.Wagons, seed)
	if err != nil {
		h.logf("event=simulation_request_failed wagons=%d seed=%d err=%v", req.Wagons, seed, err)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			http.Error(w, "simulation cancelled", http.StatusServiceUnavailable)
			return
		}
		http.Error(w, "simulation error", http.StatusInternalServerError)
		return
	}
	if err := h.repo.SaveRun(r.Context(), fleet.Run()); err != nil {
		metrics.IncStorageError("save_run")
		h.logf("event=simulation_save_failed run_id=%s err=%v", fleet.RunID, err)
		http.Error(w, "store simulation error", http.StatusInternalServerError)
		return
	}
	h.record(r, audit.ActionRunSimulation, fleet.RunID, req)

	result = metrics.ResultSuccess
	writeJSON(w, http.StatusCreated, runResponse{
		RunID:     fleet.RunID,
		Seed:      fleet.Seed,
		Wagons:    len(fleet.Entries),
		Failures:  fleet.FailureCount(),
		CreatedAt: formatTime(fleet.CreatedAt),
		End:       formatTime(fleet.End),
		Cutoff:    formatTime(fleet.Cutoff),
	})
}

func (h handlerOptions) record(r *http.Request, action, runID string, payload any) {
	if h.audit == nil {
		return
	}
	meta, _ := json.Marshal(payload)
	entry := audit.Entry{
		Actor:        auth.SubjectFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       action,
		ResourceType: "simulation_run",
		ResourceID:   runID,
		Metadata:     meta,
		IP:           audit.ClientIP(r),
		UserAgent:    r.UserAgent(),
	}
	if err := h.audit.Log(r.Context(), entry); err != nil {
		h.logf("event=audit_failed action=%s run_id=%s err=%v", action, runID, err)
	}
}

func (h handlerOptions) logf(format string, args ...any) {
	if h.logger != nil {
		h.logger.Printf(format, args...)
	}
}

// FailuresHandler serves GET /api/v1/simulations/{id}/failures.
type FailuresHandler struct {
	handlerOptions
	repo simulation.RunRepository
}

// NewFailuresHandler constructs a FailuresHandler.
func NewFailuresHandler(repo simulation.RunRepository, opts ...HandlerOption) *FailuresHandler {
	return &FailuresHandler{handlerOptions: newHandlerOptions(opts), repo: repo}
}

// ServeHTTP handles GET /api/v1/simulations/{id}/failures?format=csv|ndjson.
func (h *FailuresHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	result := metrics.ResultError
	defer func() { metrics.ObserveAPIRequest(routeListFailures, result, time.Since(started)) }()

	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.repo == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}

	runID := r.PathValue("id")
	if runID == "" {
		http.Error(w, "run id is required", http.StatusBadRequest)
		return
	}
	format := export.FormatCSV
	if raw := r.URL.Query().Get("format"); raw != "" {
		parsed, err := export.ParseFormat(raw)
		if err != nil || (parsed != export.FormatCSV && parsed != export.FormatNDJSON) {
			http.Error(w, "format must be csv or ndjson", http.StatusBadRequest)
			return
		}
		format = parsed
	}

	records, err := h.repo.ListFailures(r.Context(), runID)
	if err != nil {
		if errors.Is(err, simulation.ErrRunNotFound) {
			http.Error(w, "simulation not found", http.StatusNotFound)
			return
		}
		metrics.IncStorageError("list_failures")
		h.logf("event=list_failures_failed run_id=%s err=%v", runID, err)
		http.Error(w, "query failures error", http.StatusInternalServerError)
		return
	}
	table, err := simulation.NewFailureTable(records...)
	if err != nil {
		http.Error(w, "build failures error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", format.ContentType()+"; charset=utf-8")
	if err := export.Write(w, table, format); err != nil {
		h.logf("event=write_failures_failed run_id=%s err=%v", runID, err)
		return
	}
	h.record(r, audit.ActionReadFailures, runID, map[string]any{"format": string(format), "rows": len(records)})
	result = metrics.ResultSuccess
}

// HealthHandler serves GET /healthz.
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	defer func() { metrics.ObserveAPIRequest(routeHealth, metrics.ResultSuccess, time.Since(started)) }()
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Routes registers the simulation API on mux.
func Routes(mux *http.ServeMux, sims *SimulationHandler, failures *FailuresHandler) {
	mux.Handle("/api/v1/simulations", sims)
	mux.Handle("/api/v1/simulations/{id}/failures", failures)
	mux.HandleFunc("/healthz", HealthHandler)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.UTC().Format(timeLayout)
}
