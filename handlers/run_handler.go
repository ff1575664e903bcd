package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/privata-labs/privata/app"
	"github.com/privata-labs/privata/models"
	"github.com/privata-labs/privata/services/pipeline"
	"github.com/privata-labs/privata/utils"
)

// StartRunRequest is the body of POST /runs.
type StartRunRequest struct {
	Name       string             `json:"name"`
	Mode       string             `json:"mode,omitempty"`
	Model      models.ModelConfig `json:"model"`
	DatasetDir string             `json:"dataset_dir"`
}

// StartRunHandler loads the dataset and launches a pipeline run.
func StartRunHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req StartRunRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			_ = utils.WriteBadRequest(w, "invalid request body", nil)
			return
		}
		if req.DatasetDir == "" {
			_ = utils.WriteBadRequest(w, "dataset_dir is required", nil)
			return
		}

		tables, err := deps.Loader.LoadDir(req.DatasetDir)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		state, err := deps.Manager.StartRun(pipeline.StartRequest{
			Name:   req.Name,
			Mode:   models.PipelineMode(req.Mode),
			Model:  req.Model,
			Tables: tables,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}

		deps.Logger.Info("run accepted",
			zap.String("run_id", state.ID.String()),
			zap.String("mode", string(state.Mode)),
			zap.Int("tables", len(tables)),
		)
		_ = utils.WriteAccepted(w, state)
	}
}

// RunStatusHandler returns a snapshot of the current run's state.
func RunStatusHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := deps.Manager.Status()
		if err != nil {
			writeServiceError(w, err)
			return
		}
		_ = utils.WriteOK(w, state)
	}
}

// AbortRunHandler cancels the current run.
func AbortRunHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := deps.Manager.Abort(); err != nil {
			writeServiceError(w, err)
			return
		}
		_ = utils.WriteAccepted(w, map[string]string{"status": "aborting"})
	}
}

// RunLedgerHandler returns the current run's performance ledger.
func RunLedgerHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := deps.Manager.Status()
		if err != nil {
			writeServiceError(w, err)
			return
		}
		_ = utils.WriteOK(w, state.Ledger)
	}
}

// RunReportResponse is the payload of GET /runs/current/report.
type RunReportResponse struct {
	RunID    string                          `json:"run_id"`
	Name     string                          `json:"name"`
	Mode     models.PipelineMode             `json:"mode"`
	Status   models.RunStatus                `json:"status"`
	Sections []models.Section                `json:"sections,omitempty"`
	Verdict  *models.ConfidentialityVerdict `json:"verdict,omitempty"`
}

// RunReportHandler returns the report view of the current run: the named
// sections plus the confidentiality verdict. Only terminal runs have one.
func RunReportHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := deps.Manager.Status()
		if err != nil {
			writeServiceError(w, err)
			return
		}
		if !state.Status.Terminal() {
			_ = utils.WriteConflict(w, "run still in progress", nil)
			return
		}
		_ = utils.WriteOK(w, RunReportResponse{
			RunID:    state.ID.String(),
			Name:     state.Name,
			Mode:     state.Mode,
			Status:   state.Status,
			Sections: state.Sections,
			Verdict:  state.Verdict,
		})
	}
}
