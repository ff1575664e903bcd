package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// PipelineMode selects the execution topology.
type PipelineMode string

const (
	// PipelineModeMulti runs one agent per stage across the five-stage chain.
	PipelineModeMulti PipelineMode = "multi"
	// PipelineModeMono runs a single agent whose one response must decompose
	// into the five logical sections.
	PipelineModeMono PipelineMode = "mono"
)

// RunStatus represents the lifecycle state of a whole run.
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusAborted   RunStatus = "aborted"
)

// Terminal reports whether the status is a terminal one.
func (s RunStatus) Terminal() bool {
	return s == RunStatusCompleted || s == RunStatusAborted
}

// ModelConfig is the caller-supplied model selection. The API key lives in
// configuration, never on the run.
type ModelConfig struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

// LedgerRow is one row of the performance ledger, recorded in stage order as
// stages reach a terminal status.
type LedgerRow struct {
	StageID    StageID     `json:"stage_id"`
	DurationMs int64       `json:"duration_ms"`
	Attempts   int         `json:"attempts"`
	Status     StageStatus `json:"status"`
}

// Section is one of the five logical report sections. In multi mode each
// section is a stage's validated output; in mono mode the single validated
// payload is decomposed into the five sections.
type Section struct {
	Name    string          `json:"name"`
	StageID StageID         `json:"stage_id"`
	Payload json.RawMessage `json:"payload"`
}

// RunState is the aggregate state of one analysis run. It is mutated only by
// the pipeline orchestrator; all other readers receive deep copies.
type RunState struct {
	ID          uuid.UUID               `json:"id"`
	Name        string                  `json:"name"`
	Mode        PipelineMode            `json:"mode"`
	Model       ModelConfig             `json:"model"`
	Dataset     string                  `json:"dataset"`
	Snapshot    *MetadataSnapshot       `json:"snapshot"`
	Stages      []*StageResult          `json:"stages"`
	Sections    []Section               `json:"sections,omitempty"`
	Verdict     *ConfidentialityVerdict `json:"verdict,omitempty"`
	Ledger      []LedgerRow             `json:"ledger,omitempty"`
	Status      RunStatus               `json:"status"`
	CreatedAt   time.Time               `json:"created_at"`
	CompletedAt *time.Time              `json:"completed_at,omitempty"`
}

// NewRunState creates a pending run over the given snapshot with one pending
// stage result per definition, in declared order.
func NewRunState(name string, mode PipelineMode, model ModelConfig, snapshot *MetadataSnapshot, defs []StageDefinition) *RunState {
	stages := make([]*StageResult, len(defs))
	for i, def := range defs {
		stages[i] = NewStageResult(def.ID)
	}
	return &RunState{
		ID:        uuid.New(),
		Name:      name,
		Mode:      mode,
		Model:     model,
		Snapshot:  snapshot,
		Stages:    stages,
		Status:    RunStatusPending,
		CreatedAt: time.Now(),
	}
}

// Stage returns the result for the given stage id, or nil.
func (rs *RunState) Stage(id StageID) *StageResult {
	for _, st := range rs.Stages {
		if st.StageID == id {
			return st
		}
	}
	return nil
}

// SucceededStages returns the ids of all stages that reached Succeeded.
func (rs *RunState) SucceededStages() []StageID {
	var ids []StageID
	for _, st := range rs.Stages {
		if st.Status == StageStatusSucceeded {
			ids = append(ids, st.StageID)
		}
	}
	return ids
}

// MarkCompleted transitions the run to its terminal Completed status.
func (rs *RunState) MarkCompleted() {
	rs.Status = RunStatusCompleted
	now := time.Now()
	rs.CompletedAt = &now
}

// MarkAborted transitions the run to its terminal Aborted status. Succeeded
// stage results are preserved so callers can present a partial result.
func (rs *RunState) MarkAborted() {
	rs.Status = RunStatusAborted
	now := time.Now()
	rs.CompletedAt = &now
}

// Clone returns a deep copy of the run state. The orchestrator publishes
// clones so progress readers never observe in-place mutation. The snapshot
// pointer is shared because a MetadataSnapshot is immutable once produced.
func (rs *RunState) Clone() *RunState {
	cp := *rs
	cp.Stages = make([]*StageResult, len(rs.Stages))
	for i, st := range rs.Stages {
		cp.Stages[i] = st.Clone()
	}
	if rs.Sections != nil {
		cp.Sections = make([]Section, len(rs.Sections))
		for i, sec := range rs.Sections {
			cp.Sections[i] = Section{
				Name:    sec.Name,
				StageID: sec.StageID,
				Payload: append(json.RawMessage(nil), sec.Payload...),
			}
		}
	}
	if rs.Ledger != nil {
		cp.Ledger = append([]LedgerRow(nil), rs.Ledger...)
	}
	if rs.Verdict != nil {
		v := *rs.Verdict
		v.Findings = append([]LeakFinding(nil), rs.Verdict.Findings...)
		cp.Verdict = &v
	}
	if rs.CompletedAt != nil {
		t := *rs.CompletedAt
		cp.CompletedAt = &t
	}
	return &cp
}
