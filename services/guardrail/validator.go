package guardrail

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/privata-labs/privata/models"
	"github.com/privata-labs/privata/services"
)

// Validator checks a stage's raw model output before it is accepted: JSON
// parse, structural validation of the stage's output model, then referential
// checks against the metadata snapshot. On failure the returned error carries
// a corrective instruction for the next attempt.
type Validator struct {
	logger   *zap.Logger
	validate *validator.Validate
}

// NewValidator creates a guardrail validator.
func NewValidator(logger *zap.Logger) *Validator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Validator{
		logger:   logger,
		validate: validator.New(),
	}
}

// Validate parses and checks the raw output of the given stage. On success it
// returns the extracted JSON payload; on failure a validation error whose
// corrective instruction is retrievable via CorrectiveInstruction.
func (v *Validator) Validate(stageID models.StageID, raw []byte, snapshot *models.MetadataSnapshot) (json.RawMessage, error) {
	payload, err := extractJSON(raw)
	if err != nil {
		return nil, v.fail(stageID, formatJSONError(err))
	}

	var refs []string
	switch stageID {
	case models.StageSchemaInterpreter:
		var out models.SchemaInterpretation
		if err := json.Unmarshal(payload, &out); err != nil {
			return nil, v.fail(stageID, formatJSONError(err))
		}
		if err := v.validate.Struct(&out); err != nil {
			return nil, v.fail(stageID, formatStructError(err))
		}
		refs = checkSchemaReferences(&out, snapshot)

	case models.StageBusinessAnalyst:
		var out models.BusinessAnalysis
		if err := json.Unmarshal(payload, &out); err != nil {
			return nil, v.fail(stageID, formatJSONError(err))
		}
		if err := v.validate.Struct(&out); err != nil {
			return nil, v.fail(stageID, formatStructError(err))
		}
		refs = checkBusinessReferences(&out, snapshot)

	case models.StageQueryBuilder:
		var out models.QueriesOutput
		if err := json.Unmarshal(payload, &out); err != nil {
			return nil, v.fail(stageID, formatJSONError(err))
		}
		if err := v.validate.Struct(&out); err != nil {
			return nil, v.fail(stageID, formatStructError(err))
		}
		refs = checkQueriesReferences(&out, snapshot)

	case models.StageVisualizationDesigner:
		var out models.Visualizations
		if err := json.Unmarshal(payload, &out); err != nil {
			return nil, v.fail(stageID, formatJSONError(err))
		}
		if err := v.validate.Struct(&out); err != nil {
			return nil, v.fail(stageID, formatStructError(err))
		}
		refs = checkVisualizationReferences(&out, snapshot)

	case models.StageConfidentialityTester:
		var out models.ConfidentialityReport
		if err := json.Unmarshal(payload, &out); err != nil {
			return nil, v.fail(stageID, formatJSONError(err))
		}
		if err := v.validate.Struct(&out); err != nil {
			return nil, v.fail(stageID, formatStructError(err))
		}

	case models.StageMonoAgent:
		var out models.MonoReport
		if err := json.Unmarshal(payload, &out); err != nil {
			return nil, v.fail(stageID, formatJSONError(err))
		}
		if err := v.validate.Struct(&out); err != nil {
			return nil, v.fail(stageID, formatStructError(err))
		}
		refs = append(refs, checkSchemaReferences(&out.Schema, snapshot)...)
		refs = append(refs, checkBusinessReferences(&out.Business, snapshot)...)
		refs = append(refs, checkQueriesReferences(&out.Queries, snapshot)...)
		refs = append(refs, checkVisualizationReferences(&out.Visualizations, snapshot)...)

	default:
		return nil, services.WrapInternal(fmt.Sprintf("no output model registered for stage %s", stageID), nil)
	}

	if len(refs) > 0 {
		return nil, v.fail(stageID, formatReferenceErrors(refs))
	}

	return payload, nil
}

func (v *Validator) fail(stageID models.StageID, corrective string) error {
	v.logger.Warn("stage output rejected",
		zap.String("stage", string(stageID)),
	)
	return services.NewDomainError(services.ErrorTypeValidation,
		fmt.Sprintf("stage %s produced invalid output", stageID), nil).
		WithDetail("stage", string(stageID)).
		WithDetail("corrective", corrective)
}

// CorrectiveInstruction returns the feedback to prepend to the next attempt's
// request, or "" when the error carries none.
func CorrectiveInstruction(err error) string {
	details := services.GetErrorDetails(err)
	if details == nil {
		return ""
	}
	if s, ok := details["corrective"].(string); ok {
		return s
	}
	return ""
}

// extractJSON pulls the JSON object out of a model response, tolerating
// surrounding prose and markdown code fences.
func extractJSON(raw []byte) (json.RawMessage, error) {
	text := strings.TrimSpace(string(raw))
	if idx := strings.Index(text, "```"); idx >= 0 {
		text = text[idx+3:]
		text = strings.TrimPrefix(text, "json")
		if end := strings.Index(text, "```"); end >= 0 {
			text = text[:end]
		}
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return nil, fmt.Errorf("no JSON object found in response")
	}
	payload := json.RawMessage(text[start : end+1])
	if !json.Valid(payload) {
		return nil, fmt.Errorf("response contains malformed JSON")
	}
	return payload, nil
}

// Referential checks: tables and columns a stage mentions must exist in the
// snapshot. They catch hallucinated schema elements that structural
// validation cannot see.

func checkSchemaReferences(out *models.SchemaInterpretation, snapshot *models.MetadataSnapshot) []string {
	var issues []string
	for tableName, table := range out.Tables {
		declared := snapshot.Table(tableName)
		if declared == nil {
			issues = append(issues, fmt.Sprintf("table %q does not exist in the dataset", tableName))
			continue
		}
		for colName := range table.Columns {
			if !snapshot.HasColumn(tableName, colName) {
				issues = append(issues, fmt.Sprintf("column %q does not exist in table %q", colName, tableName))
			}
		}
	}
	for _, rel := range out.Relationships {
		if snapshot.Table(rel.FromTable) == nil {
			issues = append(issues, fmt.Sprintf("relationship references unknown table %q", rel.FromTable))
		}
		if snapshot.Table(rel.ToTable) == nil {
			issues = append(issues, fmt.Sprintf("relationship references unknown table %q", rel.ToTable))
		}
	}
	return issues
}

func checkBusinessReferences(out *models.BusinessAnalysis, snapshot *models.MetadataSnapshot) []string {
	var issues []string
	for _, analysis := range out.Analyses {
		issues = append(issues, checkTableRefs(analysis.ID, analysis.Tables, snapshot)...)
		for _, sub := range analysis.SubAnalyses {
			issues = append(issues, checkColumnRefs(sub.ID, sub.TablesColumns, snapshot)...)
		}
	}
	return issues
}

func checkQueriesReferences(out *models.QueriesOutput, snapshot *models.MetadataSnapshot) []string {
	var issues []string
	for _, analysis := range out.Analyses {
		issues = append(issues, checkTableRefs(analysis.ID, analysis.Tables, snapshot)...)
		for _, sub := range analysis.SubAnalyses {
			issues = append(issues, checkColumnRefs(sub.ID, sub.TablesColumns, snapshot)...)
		}
	}
	return issues
}

func checkVisualizationReferences(out *models.Visualizations, snapshot *models.MetadataSnapshot) []string {
	var issues []string
	for _, analysis := range out.Analyses {
		issues = append(issues, checkTableRefs(analysis.ID, analysis.Tables, snapshot)...)
		for _, sub := range analysis.SubAnalyses {
			issues = append(issues, checkColumnRefs(sub.ID, sub.TablesColumns, snapshot)...)
		}
	}
	return issues
}

func checkTableRefs(id string, tables []string, snapshot *models.MetadataSnapshot) []string {
	var issues []string
	for _, name := range tables {
		if snapshot.Table(name) == nil {
			issues = append(issues, fmt.Sprintf("analysis %s references unknown table %q", id, name))
		}
	}
	return issues
}

// checkColumnRefs validates "table.column" references; a bare table name is
// accepted when the table exists.
func checkColumnRefs(id string, refs []string, snapshot *models.MetadataSnapshot) []string {
	var issues []string
	for _, ref := range refs {
		table, column, found := strings.Cut(ref, ".")
		if !found {
			if snapshot.Table(ref) == nil {
				issues = append(issues, fmt.Sprintf("sub-analysis %s references unknown table %q", id, ref))
			}
			continue
		}
		if !snapshot.HasColumn(table, column) {
			issues = append(issues, fmt.Sprintf("sub-analysis %s references unknown column %q", id, ref))
		}
	}
	return issues
}
