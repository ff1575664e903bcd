package audit

import (
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/privata-labs/privata/models"
)

// minValueLength is the shortest cell value worth scanning for. Shorter
// values ("ES", "42") collide with ordinary prose too often to be evidence.
const minValueLength = 4

// fragmentRadius is how much surrounding request text a finding carries.
const fragmentRadius = 40

// Auditor checks the outbound request transcript against the raw tables: no
// recorded request may contain a cell value the snapshot did not declare as a
// sample. It is a best-effort static scan over the transcript, not a
// cryptographic guarantee.
type Auditor struct {
	logger *zap.Logger
}

// NewAuditor creates a confidentiality auditor.
func NewAuditor(logger *zap.Logger) *Auditor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Auditor{logger: logger}
}

// Audit scans every recorded outbound request for raw cell values outside
// the snapshot's declared sample allowance.
func (a *Auditor) Audit(entries []models.TranscriptEntry, tables []models.Table, snapshot *models.MetadataSnapshot) models.ConfidentialityVerdict {
	allowed := map[string]struct{}{}
	if snapshot != nil {
		allowed = snapshot.AllowedSamples()
	}

	type origin struct {
		table  string
		column string
	}
	suspects := make(map[string]origin)
	for _, table := range tables {
		for _, col := range table.Columns {
			for _, value := range col.Values {
				if !scannable(value) {
					continue
				}
				if _, ok := allowed[value]; ok {
					continue
				}
				if _, seen := suspects[value]; !seen {
					suspects[value] = origin{table: table.Name, column: col.Name}
				}
			}
		}
	}

	verdict := models.ConfidentialityVerdict{
		Passed:          true,
		ScannedRequests: len(entries),
		AuditedAt:       time.Now(),
	}

	for _, entry := range entries {
		for value, src := range suspects {
			idx := strings.Index(entry.Request, value)
			if idx < 0 {
				continue
			}
			verdict.Passed = false
			verdict.Findings = append(verdict.Findings, models.LeakFinding{
				StageID:  entry.StageID,
				Attempt:  entry.Attempt,
				Table:    src.table,
				Column:   src.column,
				Value:    value,
				Fragment: fragment(entry.Request, idx, len(value)),
			})
		}
	}

	if !verdict.Passed {
		a.logger.Warn("confidentiality audit failed",
			zap.Int("findings", len(verdict.Findings)),
			zap.Int("scanned_requests", verdict.ScannedRequests),
		)
	}

	return verdict
}

// scannable filters out values too generic to prove leakage: short strings
// and bare numbers.
func scannable(value string) bool {
	if len(value) < minValueLength {
		return false
	}
	if _, err := strconv.ParseFloat(value, 64); err == nil {
		return false
	}
	return true
}

func fragment(text string, idx, length int) string {
	start := idx - fragmentRadius
	if start < 0 {
		start = 0
	}
	end := idx + length + fragmentRadius
	if end > len(text) {
		end = len(text)
	}
	return text[start:end]
}
