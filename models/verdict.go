package models

import "time"

// LeakFinding names one suspect payload fragment: a raw cell value found in
// an outbound request outside the snapshot's declared sample allowance.
type LeakFinding struct {
	StageID  StageID `json:"stage_id"`
	Attempt  int     `json:"attempt"`
	Table    string  `json:"table"`
	Column   string  `json:"column"`
	Value    string  `json:"value"`
	Fragment string  `json:"fragment"`
}

// ConfidentialityVerdict is the result of auditing the full request
// transcript against the raw tables. It is a best-effort static check, not a
// cryptographic guarantee.
type ConfidentialityVerdict struct {
	Passed          bool          `json:"passed"`
	Findings        []LeakFinding `json:"findings,omitempty"`
	ScannedRequests int           `json:"scanned_requests"`
	AuditedAt       time.Time     `json:"audited_at"`
}
