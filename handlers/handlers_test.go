package handlers

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/privata-labs/privata/app"
	"github.com/privata-labs/privata/config"
	"github.com/privata-labs/privata/loader"
	"github.com/privata-labs/privata/models"
	"github.com/privata-labs/privata/repositories/sqlite"
	"github.com/privata-labs/privata/services/agent"
	"github.com/privata-labs/privata/services/pipeline"
)

// garbageCaller answers every completion with non-JSON text, so every stage
// exhausts its attempts and the run aborts quickly.
type garbageCaller struct{}

func (*garbageCaller) Name() string { return "garbage" }

func (*garbageCaller) Complete(ctx context.Context, req *agent.CompletionRequest) (*agent.CompletionResponse, error) {
	return &agent.CompletionResponse{Content: "this is not json"}, nil
}

// stallingCaller blocks until the request context is cancelled, keeping the
// run in the Running state.
type stallingCaller struct{}

func (*stallingCaller) Name() string { return "stalling" }

func (*stallingCaller) Complete(ctx context.Context, req *agent.CompletionRequest) (*agent.CompletionResponse, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func newTestDeps(t *testing.T, caller agent.Caller) *app.Dependencies {
	t.Helper()
	logger := zap.NewNop()

	store, err := sqlite.Open(":memory:", logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	pipeCfg := config.PipelineConfig{
		Mode:           models.PipelineModeMono,
		MaxRetries:     0,
		AttemptTimeout: 5 * time.Second,
		SampleCap:      0,
	}

	return &app.Dependencies{
		Config:  &config.Config{Pipeline: pipeCfg},
		Logger:  logger,
		Store:   store,
		Loader:  loader.NewCSVLoader(logger),
		Manager: pipeline.NewManager(pipeCfg, caller, logger),
	}
}

// writeDataset drops a small CSV dataset into a temp directory.
func writeDataset(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	csv := "id,name\n1,alpha\n2,beta\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "users.csv"), []byte(csv), 0o644))
	return dir
}

// startRunDirect launches a run against the manager without going through the
// HTTP surface, for tests that only care about post-run behavior.
func startRunDirect(t *testing.T, deps *app.Dependencies, dir string) *models.RunState {
	t.Helper()
	tables, err := deps.Loader.LoadDir(dir)
	require.NoError(t, err)
	state, err := deps.Manager.StartRun(pipeline.StartRequest{
		Name:   "test run",
		Model:  models.ModelConfig{Provider: "openai", Model: "gpt-4o-mini"},
		Tables: tables,
	})
	require.NoError(t, err)
	return state
}

// waitForRun blocks until the active run's goroutine exits.
func waitForRun(t *testing.T, deps *app.Dependencies) {
	t.Helper()
	select {
	case <-deps.Manager.Done():
	case <-time.After(10 * time.Second):
		t.Fatal("run did not finish in time")
	}
}
