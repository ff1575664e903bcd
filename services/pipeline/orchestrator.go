package pipeline

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/privata-labs/privata/models"
	"github.com/privata-labs/privata/services/agent"
	"github.com/privata-labs/privata/services/audit"
	"github.com/privata-labs/privata/services/recorder"
)

// StageRunner executes one stage to a terminal result. Satisfied by
// agent.Step.
type StageRunner interface {
	Execute(ctx context.Context, def models.StageDefinition, in agent.StepInput) *models.StageResult
}

// Orchestrator drives one run through its stage graph. It is the only writer
// of the run state; readers get deep copies through Snapshot and never block
// the pipeline goroutine.
type Orchestrator struct {
	graph      StageGraph
	runner     StageRunner
	auditor    *audit.Auditor
	recorder   *recorder.Recorder
	transcript *agent.Transcript
	logger     *zap.Logger

	tables []models.Table

	mu    sync.RWMutex
	state *models.RunState
}

// NewOrchestrator creates the orchestrator for one run.
func NewOrchestrator(
	graph StageGraph,
	runner StageRunner,
	auditor *audit.Auditor,
	rec *recorder.Recorder,
	transcript *agent.Transcript,
	logger *zap.Logger,
	name string,
	model models.ModelConfig,
	tables []models.Table,
	snapshot *models.MetadataSnapshot,
) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		graph:      graph,
		runner:     runner,
		auditor:    auditor,
		recorder:   rec,
		transcript: transcript,
		logger:     logger,
		tables:     tables,
		state:      models.NewRunState(name, graph.Mode(), model, snapshot, graph.Definitions()),
	}
}

// ID returns the run id.
func (o *Orchestrator) ID() string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.state.ID.String()
}

// Snapshot returns a deep copy of the current run state.
func (o *Orchestrator) Snapshot() *models.RunState {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.state.Clone()
}

// Run executes the graph to a terminal run state. A stage runs only when all
// its predecessors succeeded; the first failed stage aborts the run,
// preserving every already-succeeded result. The static confidentiality audit
// runs over the transcript in both terminal outcomes.
func (o *Orchestrator) Run(ctx context.Context) *models.RunState {
	o.withState(func(st *models.RunState) {
		st.Status = models.RunStatusRunning
	})
	o.logger.Info("run started",
		zap.String("run_id", o.ID()),
		zap.String("mode", string(o.graph.Mode())),
	)

	upstream := make(map[models.StageID]json.RawMessage)
	aborted := false

	for _, def := range o.graph.Definitions() {
		if ctx.Err() != nil {
			aborted = true
			break
		}
		if !o.dependenciesSucceeded(def) {
			aborted = true
			break
		}

		o.withState(func(st *models.RunState) {
			st.Stage(def.ID).MarkRunning()
		})

		result := o.runner.Execute(ctx, def, agent.StepInput{
			Model:    o.state.Model,
			Snapshot: o.state.Snapshot,
			Upstream: upstream,
		})

		o.recorder.Record(result)
		o.withState(func(st *models.RunState) {
			for i := range st.Stages {
				if st.Stages[i].StageID == def.ID {
					st.Stages[i] = result
				}
			}
			st.Ledger = o.recorder.Rows()
		})

		if result.Status != models.StageStatusSucceeded {
			o.logger.Warn("stage failed, aborting run",
				zap.String("run_id", o.ID()),
				zap.String("stage", string(def.ID)),
				zap.String("error_type", result.ErrorType),
			)
			aborted = true
			break
		}
		upstream[def.ID] = result.Output
	}

	if !aborted {
		if err := o.attachSections(); err != nil {
			o.logger.Error("section decomposition failed",
				zap.String("run_id", o.ID()),
				zap.Error(err),
			)
			aborted = true
		}
	}

	verdict := o.auditor.Audit(o.transcript.Entries(), o.tables, o.state.Snapshot)

	o.withState(func(st *models.RunState) {
		st.Verdict = &verdict
		if aborted {
			st.MarkAborted()
		} else {
			st.MarkCompleted()
		}
	})

	final := o.Snapshot()
	o.logger.Info("run finished",
		zap.String("run_id", o.ID()),
		zap.String("status", string(final.Status)),
		zap.Bool("confidentiality_passed", verdict.Passed),
	)
	return final
}

func (o *Orchestrator) dependenciesSucceeded(def models.StageDefinition) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	for _, dep := range def.DependsOn {
		st := o.state.Stage(dep)
		if st == nil || st.Status != models.StageStatusSucceeded {
			return false
		}
	}
	return true
}

func (o *Orchestrator) attachSections() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	var sections []models.Section
	for _, st := range o.state.Stages {
		part, err := o.graph.Sections(st.StageID, st.Output)
		if err != nil {
			return err
		}
		sections = append(sections, part...)
	}
	o.state.Sections = sections
	return nil
}

func (o *Orchestrator) withState(fn func(*models.RunState)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	fn(o.state)
}
