// Package engine orchestrates one execution request end to end:
// validate, pre-scan, acquire a sandbox, build and run, classify,
// attach a hint, and release the sandbox on every exit path.
package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/codeclass/engine/api"
	"github.com/codeclass/engine/internal/classify"
	"github.com/codeclass/engine/internal/hint"
	"github.com/codeclass/engine/internal/pipeline"
	"github.com/codeclass/engine/internal/profile"
	"github.com/codeclass/engine/internal/sandbox"
	"github.com/codeclass/engine/internal/seccheck"
	"github.com/codeclass/engine/internal/validate"
)

// Config wires the engine together. Zero values get defaults from
// DefaultConfig.
type Config struct {
	Backend sandbox.Backend

	Slots             int
	SlotWaitTimeout   time.Duration
	MaxTimeoutSeconds int
	WatchdogGrace     time.Duration

	Profiles *profile.Table
	Logger   *slog.Logger
}

// DefaultConfig fills in everything except the backend.
func DefaultConfig(backend sandbox.Backend) Config {
	return Config{
		Backend:           backend,
		Slots:             4,
		SlotWaitTimeout:   2 * time.Second,
		MaxTimeoutSeconds: 30,
		WatchdogGrace:     time.Second,
		Profiles:          profile.Default(),
		Logger:            slog.Default(),
	}
}

// Engine executes untrusted submissions. Safe for concurrent use.
type Engine struct {
	prov     *sandbox.Provisioner
	profiles *profile.Table
	scanner  *seccheck.Scanner
	log      *slog.Logger

	maxTimeoutSeconds int
	grace             time.Duration

	executions *xsync.Counter
}

// New builds an engine from cfg. The profile table is loaded once and
// never mutated afterwards.
func New(cfg Config) *Engine {
	if cfg.Profiles == nil {
		cfg.Profiles = profile.Default()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Slots <= 0 {
		cfg.Slots = 4
	}
	if cfg.SlotWaitTimeout <= 0 {
		cfg.SlotWaitTimeout = 2 * time.Second
	}
	if cfg.MaxTimeoutSeconds <= 0 {
		cfg.MaxTimeoutSeconds = 30
	}
	if cfg.WatchdogGrace <= 0 {
		cfg.WatchdogGrace = time.Second
	}

	return &Engine{
		prov:              sandbox.NewProvisioner(cfg.Backend, cfg.Slots, cfg.SlotWaitTimeout),
		profiles:          cfg.Profiles,
		scanner:           seccheck.NewScanner(),
		log:               cfg.Logger,
		maxTimeoutSeconds: cfg.MaxTimeoutSeconds,
		grace:             cfg.WatchdogGrace,
		executions:        xsync.NewCounter(),
	}
}

// Execute handles one request. A non-nil error is always a
// *validate.ValidationError; every accepted request produces a response
// with exactly one of the seven statuses.
func (e *Engine) Execute(ctx context.Context, req api.ExecRequest) (api.ExecResponse, error) {
	reqID := uuid.NewString()
	log := e.log.With(slog.String("request_id", reqID), slog.String("language", string(req.Language)))

	if verr := validate.Request(&req, e.profiles, e.maxTimeoutSeconds); verr != nil {
		log.Info("request rejected", slog.String("reason", verr.Error()))
		return api.ExecResponse{}, verr
	}

	// profile existence was checked by the validator
	prof, _ := e.profiles.Get(req.Language)

	if finding := e.scanner.Scan(req.Language, req.Code); finding != nil {
		log.Info("security pre-scan match",
			slog.String("pattern", finding.Pattern),
			slog.String("severity", string(finding.Severity)))
		resp := classify.Build(req.Language, classify.Signals{Finding: finding})
		resp.Hint = hint.Generate(resp.Status, resp.Error, req.Language)
		return resp, nil
	}

	e.executions.Inc()
	runLimits := pipeline.RunLimits(prof, req.TimeoutSeconds, e.grace)

	lease, err := e.prov.Acquire(ctx)
	if err != nil {
		log.Error("sandbox acquisition failed", slog.Any("error", err))
		resp := classify.Build(req.Language, classify.Signals{SysErr: err})
		resp.Hint = hint.Generate(resp.Status, resp.Error, req.Language)
		return resp, nil
	}
	// Unconditional teardown: runs on normal completion, pipeline
	// failure and panic alike. The watchdog inside Run guarantees the
	// pipeline returns even if the caller's ctx is long gone.
	defer func() {
		if rerr := lease.Release(); rerr != nil {
			log.Error("sandbox release failed", slog.Any("error", rerr))
		}
	}()

	started := time.Now()
	report, err := pipeline.Execute(lease.Box, prof, req.Code, req.Stdin, runLimits)
	if err != nil {
		log.Error("pipeline failed", slog.Any("error", err))
	}

	resp := classify.Build(req.Language, classify.Signals{
		SysErr:      err,
		Report:      report,
		MemLimitKiB: runLimits.MemoryKiB,
	})
	resp.Hint = hint.Generate(resp.Status, firstError(resp), req.Language)

	log.Info("request finished",
		slog.String("status", string(resp.Status)),
		slog.Int64("exec_ms", resp.ExecutionTimeMs),
		slog.Int64("mem_mb", resp.MemoryUsageMB),
		slog.Duration("handled_in", time.Since(started)))

	return resp, nil
}

func firstError(resp api.ExecResponse) string {
	if resp.CompilationError != "" {
		return resp.CompilationError
	}
	return resp.Error
}

// Health reports the probe consumed by operational monitoring. Degraded
// status tells the caller to halt new submissions.
func (e *Engine) Health() api.HealthResponse {
	available := e.prov.Available()
	status := api.HealthOk
	if !available {
		status = api.HealthDegraded
	}
	return api.HealthResponse{
		Status:                  status,
		SandboxRuntimeAvailable: available,
	}
}

// Executions returns the lifetime count of requests that passed the
// pre-checks.
func (e *Engine) Executions() int64 {
	return e.executions.Value()
}

// InUse exposes the current sandbox lease count for logging.
func (e *Engine) InUse() int {
	return e.prov.InUse()
}
