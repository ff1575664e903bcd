package recorder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/privata-labs/privata/models"
)

func TestRecord_AppendsInCallOrder(t *testing.T) {
	rec := NewRecorder()

	first := models.NewStageResult(models.StageSchemaInterpreter)
	first.MarkRunning()
	first.MarkSucceeded([]byte(`{}`), 1)
	rec.Record(first)

	second := models.NewStageResult(models.StageBusinessAnalyst)
	second.MarkRunning()
	second.MarkFailed("validation", "output rejected", 4)
	rec.Record(second)

	rows := rec.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, models.StageSchemaInterpreter, rows[0].StageID)
	assert.Equal(t, models.StageStatusSucceeded, rows[0].Status)
	assert.Equal(t, 1, rows[0].Attempts)
	assert.Equal(t, models.StageBusinessAnalyst, rows[1].StageID)
	assert.Equal(t, models.StageStatusFailed, rows[1].Status)
	assert.Equal(t, 4, rows[1].Attempts)
}

func TestRecord_IgnoresNonTerminalResults(t *testing.T) {
	rec := NewRecorder()

	pending := models.NewStageResult(models.StageSchemaInterpreter)
	rec.Record(pending)

	running := models.NewStageResult(models.StageBusinessAnalyst)
	running.MarkRunning()
	rec.Record(running)
	rec.Record(nil)

	assert.Empty(t, rec.Rows())
}

func TestRows_ReturnsCopy(t *testing.T) {
	rec := NewRecorder()

	result := models.NewStageResult(models.StageSchemaInterpreter)
	result.MarkRunning()
	result.MarkSucceeded([]byte(`{}`), 1)
	rec.Record(result)

	rows := rec.Rows()
	rows[0].Attempts = 99

	assert.Equal(t, 1, rec.Rows()[0].Attempts)
}
