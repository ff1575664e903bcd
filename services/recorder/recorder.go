package recorder

import (
	"sync"

	"github.com/privata-labs/privata/models"
)

// Recorder keeps the append-only performance ledger of a run: one row per
// stage, in the order stages reach a terminal status.
type Recorder struct {
	mu   sync.Mutex
	rows []models.LedgerRow
}

// NewRecorder creates an empty ledger.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Record appends the row for a terminally-resolved stage. Non-terminal
// results are ignored.
func (r *Recorder) Record(result *models.StageResult) {
	if result == nil || !result.Status.Terminal() {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, models.LedgerRow{
		StageID:    result.StageID,
		DurationMs: result.DurationMs,
		Attempts:   result.Attempts,
		Status:     result.Status,
	})
}

// Rows returns a copy of the ledger in append order.
func (r *Recorder) Rows() []models.LedgerRow {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.LedgerRow(nil), r.rows...)
}
