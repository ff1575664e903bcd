package models

import (
	"encoding/json"
	"time"
)

// StageID identifies a pipeline stage.
type StageID string

const (
	StageSchemaInterpreter     StageID = "schema_interpreter"
	StageBusinessAnalyst       StageID = "business_analyst"
	StageQueryBuilder          StageID = "query_builder"
	StageVisualizationDesigner StageID = "visualization_designer"
	StageConfidentialityTester StageID = "confidentiality_tester"
	StageMonoAgent             StageID = "mono_agent"
)

// StageStatus represents the lifecycle state of a stage execution.
type StageStatus string

const (
	StageStatusPending   StageStatus = "pending"
	StageStatusRunning   StageStatus = "running"
	StageStatusSucceeded StageStatus = "succeeded"
	StageStatusFailed    StageStatus = "failed"
)

// Terminal reports whether the status is a terminal one.
func (s StageStatus) Terminal() bool {
	return s == StageStatusSucceeded || s == StageStatusFailed
}

// StageDefinition is the static configuration of one stage.
type StageDefinition struct {
	ID             StageID       `json:"id"`
	DependsOn      []StageID     `json:"depends_on,omitempty"`
	MaxRetries     int           `json:"max_retries"`
	AttemptTimeout time.Duration `json:"attempt_timeout"`
}

// StageResult is produced once per stage execution. It becomes immutable
// once Status is terminal; the orchestrator is its only writer.
type StageResult struct {
	StageID     StageID         `json:"stage_id"`
	Status      StageStatus     `json:"status"`
	Output      json.RawMessage `json:"output,omitempty"`
	Attempts    int             `json:"attempts"`
	DurationMs  int64           `json:"duration_ms"`
	StartedAt   *time.Time      `json:"started_at,omitempty"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	ErrorType   string          `json:"error_type,omitempty"`
	ErrorDetail string          `json:"error_detail,omitempty"`
}

// NewStageResult creates a pending result for the given stage.
func NewStageResult(id StageID) *StageResult {
	return &StageResult{
		StageID: id,
		Status:  StageStatusPending,
	}
}

// MarkRunning transitions the result to running and stamps the start time.
func (r *StageResult) MarkRunning() {
	r.Status = StageStatusRunning
	now := time.Now()
	r.StartedAt = &now
}

// MarkSucceeded records the validated output and closes the result.
func (r *StageResult) MarkSucceeded(output json.RawMessage, attempts int) {
	r.Status = StageStatusSucceeded
	r.Output = output
	r.Attempts = attempts
	r.complete()
}

// MarkFailed records the final error and closes the result.
func (r *StageResult) MarkFailed(errorType, detail string, attempts int) {
	r.Status = StageStatusFailed
	r.ErrorType = errorType
	r.ErrorDetail = detail
	r.Attempts = attempts
	r.complete()
}

func (r *StageResult) complete() {
	now := time.Now()
	r.CompletedAt = &now
	if r.StartedAt != nil {
		r.DurationMs = now.Sub(*r.StartedAt).Milliseconds()
	}
}

// Clone returns a deep copy so readers never alias orchestrator-owned state.
func (r *StageResult) Clone() *StageResult {
	cp := *r
	if r.Output != nil {
		cp.Output = append(json.RawMessage(nil), r.Output...)
	}
	if r.StartedAt != nil {
		t := *r.StartedAt
		cp.StartedAt = &t
	}
	if r.CompletedAt != nil {
		t := *r.CompletedAt
		cp.CompletedAt = &t
	}
	return &cp
}
