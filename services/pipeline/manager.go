package pipeline

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/privata-labs/privata/config"
	"github.com/privata-labs/privata/models"
	"github.com/privata-labs/privata/services"
	"github.com/privata-labs/privata/services/agent"
	"github.com/privata-labs/privata/services/audit"
	"github.com/privata-labs/privata/services/guardrail"
	"github.com/privata-labs/privata/services/metadata"
	"github.com/privata-labs/privata/services/recorder"
)

// Manager owns run lifecycles: at most one active run at a time, started in a
// background goroutine, observable through state snapshots and abortable via
// cancellation.
type Manager struct {
	cfg       config.PipelineConfig
	extractor *metadata.Extractor
	validator *guardrail.Validator
	auditor   *audit.Auditor
	caller    agent.Caller
	logger    *zap.Logger

	mu     sync.Mutex
	active *Orchestrator
	cancel context.CancelFunc
	done   chan struct{}
}

// StartRequest describes a run to start.
type StartRequest struct {
	Name   string
	Mode   models.PipelineMode
	Model  models.ModelConfig
	Tables []models.Table
}

// NewManager creates a run manager.
func NewManager(cfg config.PipelineConfig, caller agent.Caller, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		cfg:       cfg,
		extractor: metadata.NewExtractor(logger, cfg.SampleCap),
		validator: guardrail.NewValidator(logger),
		auditor:   audit.NewAuditor(logger),
		caller:    caller,
		logger:    logger,
	}
}

// StartRun extracts the metadata snapshot and launches the pipeline in the
// background. Extraction failures surface here, before any stage runs. The
// initial run state is returned so callers can start polling immediately.
func (m *Manager) StartRun(req StartRequest) (*models.RunState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active != nil && !m.active.Snapshot().Status.Terminal() {
		return nil, services.ErrRunInProgress
	}

	mode := req.Mode
	if mode == "" {
		mode = m.cfg.Mode
	}
	graph, err := GraphForMode(mode, m.cfg.MaxRetries, m.cfg.AttemptTimeout)
	if err != nil {
		return nil, err
	}

	snapshot, err := m.extractor.Extract(req.Tables)
	if err != nil {
		return nil, err
	}

	transcript := agent.NewTranscript()
	step := agent.NewStep(m.caller, m.validator, transcript, m.logger)
	orch := NewOrchestrator(graph, step, m.auditor, recorder.NewRecorder(), transcript,
		m.logger, req.Name, req.Model, req.Tables, snapshot)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	m.active = orch
	m.cancel = cancel
	m.done = done

	go func() {
		defer close(done)
		defer cancel()
		orch.Run(ctx)
	}()

	return orch.Snapshot(), nil
}

// Status returns a snapshot of the current run's state.
func (m *Manager) Status() (*models.RunState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return nil, services.ErrNoActiveRun
	}
	return m.active.Snapshot(), nil
}

// Abort cancels the active run. The in-flight attempt may finish; no further
// attempts or stages start.
func (m *Manager) Abort() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return services.ErrNoActiveRun
	}
	if m.active.Snapshot().Status.Terminal() {
		return services.ErrNoActiveRun
	}
	m.cancel()
	return nil
}

// Done returns a channel closed when the current run's goroutine exits, or
// nil when no run was ever started.
func (m *Manager) Done() <-chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.done
}
