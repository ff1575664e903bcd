package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartRunHandler(t *testing.T) {
	t.Run("rejects missing dataset_dir", func(t *testing.T) {
		deps := newTestDeps(t, &garbageCaller{})

		req := httptest.NewRequest(http.MethodPost, "/runs", strings.NewReader(`{"name":"x"}`))
		w := httptest.NewRecorder()
		StartRunHandler(deps)(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects malformed body", func(t *testing.T) {
		deps := newTestDeps(t, &garbageCaller{})

		req := httptest.NewRequest(http.MethodPost, "/runs", strings.NewReader("{not json"))
		w := httptest.NewRecorder()
		StartRunHandler(deps)(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("accepts a run and returns the initial state", func(t *testing.T) {
		deps := newTestDeps(t, &stallingCaller{})
		dir := writeDataset(t)

		body := `{"name":"quarterly","dataset_dir":` + quoteJSON(dir) + `,"model":{"provider":"openai","model":"gpt-4o-mini"}}`
		req := httptest.NewRequest(http.MethodPost, "/runs", strings.NewReader(body))
		w := httptest.NewRecorder()
		StartRunHandler(deps)(w, req)

		require.Equal(t, http.StatusAccepted, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		data := response["data"].(map[string]interface{})
		assert.Equal(t, "quarterly", data["name"])
		assert.NotEmpty(t, data["id"])

		require.NoError(t, deps.Manager.Abort())
		waitForRun(t, deps)
	})

	t.Run("rejects a second run while one is active", func(t *testing.T) {
		deps := newTestDeps(t, &stallingCaller{})
		dir := writeDataset(t)
		startRunDirect(t, deps, dir)

		body := `{"name":"second","dataset_dir":` + quoteJSON(dir) + `}`
		req := httptest.NewRequest(http.MethodPost, "/runs", strings.NewReader(body))
		w := httptest.NewRecorder()
		StartRunHandler(deps)(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)

		require.NoError(t, deps.Manager.Abort())
		waitForRun(t, deps)
	})

	t.Run("surfaces missing dataset directory as bad request", func(t *testing.T) {
		deps := newTestDeps(t, &garbageCaller{})

		body := `{"name":"x","dataset_dir":"/nonexistent/dataset"}`
		req := httptest.NewRequest(http.MethodPost, "/runs", strings.NewReader(body))
		w := httptest.NewRecorder()
		StartRunHandler(deps)(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestRunStatusHandler(t *testing.T) {
	t.Run("404 when no run was ever started", func(t *testing.T) {
		deps := newTestDeps(t, &garbageCaller{})

		req := httptest.NewRequest(http.MethodGet, "/runs/current", nil)
		w := httptest.NewRecorder()
		RunStatusHandler(deps)(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("returns the running state without blocking", func(t *testing.T) {
		deps := newTestDeps(t, &stallingCaller{})
		startRunDirect(t, deps, writeDataset(t))

		req := httptest.NewRequest(http.MethodGet, "/runs/current", nil)
		w := httptest.NewRecorder()
		RunStatusHandler(deps)(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		data := response["data"].(map[string]interface{})
		assert.Contains(t, []string{"pending", "running"}, data["status"])

		require.NoError(t, deps.Manager.Abort())
		waitForRun(t, deps)
	})
}

func TestAbortRunHandler(t *testing.T) {
	t.Run("404 with no active run", func(t *testing.T) {
		deps := newTestDeps(t, &garbageCaller{})

		req := httptest.NewRequest(http.MethodPost, "/runs/current/abort", nil)
		w := httptest.NewRecorder()
		AbortRunHandler(deps)(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("cancels the active run", func(t *testing.T) {
		deps := newTestDeps(t, &stallingCaller{})
		startRunDirect(t, deps, writeDataset(t))

		req := httptest.NewRequest(http.MethodPost, "/runs/current/abort", nil)
		w := httptest.NewRecorder()
		AbortRunHandler(deps)(w, req)

		require.Equal(t, http.StatusAccepted, w.Code)
		waitForRun(t, deps)

		state, err := deps.Manager.Status()
		require.NoError(t, err)
		assert.True(t, state.Status.Terminal())
	})
}

func TestRunReportHandler(t *testing.T) {
	t.Run("409 while the run is still in progress", func(t *testing.T) {
		deps := newTestDeps(t, &stallingCaller{})
		startRunDirect(t, deps, writeDataset(t))

		req := httptest.NewRequest(http.MethodGet, "/runs/current/report", nil)
		w := httptest.NewRecorder()
		RunReportHandler(deps)(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)

		require.NoError(t, deps.Manager.Abort())
		waitForRun(t, deps)
	})

	t.Run("returns the report once the run is terminal", func(t *testing.T) {
		deps := newTestDeps(t, &garbageCaller{})
		startRunDirect(t, deps, writeDataset(t))
		waitForRun(t, deps)

		req := httptest.NewRequest(http.MethodGet, "/runs/current/report", nil)
		w := httptest.NewRecorder()
		RunReportHandler(deps)(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		data := response["data"].(map[string]interface{})
		assert.Equal(t, "aborted", data["status"])
	})
}

func TestRunLedgerHandler(t *testing.T) {
	deps := newTestDeps(t, &garbageCaller{})
	startRunDirect(t, deps, writeDataset(t))
	waitForRun(t, deps)

	req := httptest.NewRequest(http.MethodGet, "/runs/current/ledger", nil)
	w := httptest.NewRecorder()
	RunLedgerHandler(deps)(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	rows := response["data"].([]interface{})
	assert.Len(t, rows, 1)
}

// quoteJSON quotes a string for inline request bodies.
func quoteJSON(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
