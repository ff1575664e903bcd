package models

import "time"

// TranscriptEntry records one request/response pair exchanged with the model
// provider. Entries are appended for every attempt, successful or not, so the
// confidentiality auditor sees everything that actually left the process.
type TranscriptEntry struct {
	StageID   StageID   `json:"stage_id"`
	Attempt   int       `json:"attempt"`
	Request   string    `json:"request"`
	Response  string    `json:"response,omitempty"`
	Err       string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
