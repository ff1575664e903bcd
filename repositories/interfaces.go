package repositories

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/privata-labs/privata/models"
	"github.com/privata-labs/privata/services"
)

// Analysis name rules: 2-50 characters of letters, digits, underscores,
// spaces and hyphens; names are unique case-insensitively.
const (
	MinNameLength = 2
	MaxNameLength = 50
)

var namePattern = regexp.MustCompile(`^[\w\s-]+$`)

// ValidateName checks a saved-analysis name against the naming rules.
func ValidateName(name string) error {
	trimmed := strings.TrimSpace(name)
	if len(trimmed) < MinNameLength || len(trimmed) > MaxNameLength {
		return services.NewDomainError(services.ErrorTypeConflict,
			"analysis name must be between 2 and 50 characters", nil).
			WithDetail("name", name)
	}
	if !namePattern.MatchString(trimmed) {
		return services.NewDomainError(services.ErrorTypeConflict,
			"analysis name may only contain letters, digits, underscores, spaces and hyphens", nil).
			WithDetail("name", name)
	}
	return nil
}

// AnalysisSummary is one row of the saved-analyses listing.
type AnalysisSummary struct {
	Name    string              `json:"name"`
	RunID   string              `json:"run_id"`
	Mode    models.PipelineMode `json:"mode"`
	Status  models.RunStatus    `json:"status"`
	SavedAt time.Time           `json:"saved_at"`
}

// AnalysisStore persists completed runs as named, listable analyses.
// Re-saving the same run under the same name replaces the stored copy;
// saving a different run under an existing name is a conflict.
type AnalysisStore interface {
	// Save stores the run state under the given name.
	Save(ctx context.Context, name string, state *models.RunState) error

	// Load returns the run state saved under the given name.
	Load(ctx context.Context, name string) (*models.RunState, error)

	// List returns summaries of all saved analyses, newest first.
	List(ctx context.Context) ([]AnalysisSummary, error)

	// Delete removes the analysis saved under the given name.
	Delete(ctx context.Context, name string) error

	// Close releases the underlying storage.
	Close() error
}
