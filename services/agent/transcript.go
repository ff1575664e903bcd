package agent

import (
	"sync"
	"time"

	"github.com/privata-labs/privata/models"
)

// Transcript collects every request/response pair a run sends to the model
// provider, failed attempts included. It is the confidentiality auditor's
// evidence, so nothing is ever filtered or rewritten on the way in.
type Transcript struct {
	mu      sync.Mutex
	entries []models.TranscriptEntry
}

// NewTranscript creates an empty transcript.
func NewTranscript() *Transcript {
	return &Transcript{}
}

// Record appends an entry for one attempt.
func (t *Transcript) Record(stageID models.StageID, attempt int, request, response string, err error) {
	entry := models.TranscriptEntry{
		StageID:   stageID,
		Attempt:   attempt,
		Request:   request,
		Response:  response,
		Timestamp: time.Now(),
	}
	if err != nil {
		entry.Err = err.Error()
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = append(t.entries, entry)
}

// Entries returns a copy of the recorded entries in append order.
func (t *Transcript) Entries() []models.TranscriptEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]models.TranscriptEntry(nil), t.entries...)
}

// Len returns the number of recorded entries.
func (t *Transcript) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
