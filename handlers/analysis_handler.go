package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/privata-labs/privata/app"
	"github.com/privata-labs/privata/utils"
)

// SaveAnalysisRequest is the body of POST /analyses.
type SaveAnalysisRequest struct {
	Name string `json:"name"`
}

// ListAnalysesHandler returns summaries of all saved analyses, newest first.
func ListAnalysesHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summaries, err := deps.Store.List(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		_ = utils.WriteOK(w, summaries)
	}
}

// SaveAnalysisHandler persists the current run under a name. Only terminal
// runs can be saved; an in-flight run is a conflict.
func SaveAnalysisHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SaveAnalysisRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			_ = utils.WriteBadRequest(w, "invalid request body", nil)
			return
		}

		state, err := deps.Manager.Status()
		if err != nil {
			writeServiceError(w, err)
			return
		}
		if !state.Status.Terminal() {
			_ = utils.WriteConflict(w, "run still in progress", nil)
			return
		}

		if err := deps.Store.Save(r.Context(), req.Name, state); err != nil {
			writeServiceError(w, err)
			return
		}

		deps.Logger.Info("analysis saved",
			zap.String("name", req.Name),
			zap.String("run_id", state.ID.String()),
		)
		_ = utils.WriteCreated(w, map[string]string{
			"name":   req.Name,
			"run_id": state.ID.String(),
		})
	}
}

// GetAnalysisHandler loads a saved analysis by name.
func GetAnalysisHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		state, err := deps.Store.Load(r.Context(), name)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		_ = utils.WriteOK(w, state)
	}
}

// DeleteAnalysisHandler removes a saved analysis by name.
func DeleteAnalysisHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		if err := deps.Store.Delete(r.Context(), name); err != nil {
			writeServiceError(w, err)
			return
		}
		deps.Logger.Info("analysis deleted", zap.String("name", name))
		utils.WriteNoContent(w)
	}
}
