package pipeline

import (
	"encoding/json"
	"time"

	"github.com/privata-labs/privata/models"
	"github.com/privata-labs/privata/services"
)

// Report section names, shared by both topologies so the report surface is
// identical regardless of how the run was executed.
const (
	SectionSchema          = "schema"
	SectionBusiness        = "business_analysis"
	SectionQueries         = "queries"
	SectionVisualizations  = "visualizations"
	SectionConfidentiality = "confidentiality"
)

// StageGraph describes an execution topology: which stages run, in what
// order, and how their validated outputs become report sections.
type StageGraph interface {
	// Mode returns the pipeline mode this graph implements.
	Mode() models.PipelineMode

	// Definitions returns the stage definitions in execution order. A stage
	// may run only after all stages listed in its DependsOn succeeded.
	Definitions() []models.StageDefinition

	// Sections turns one stage's validated output into report sections.
	Sections(stageID models.StageID, payload json.RawMessage) ([]models.Section, error)
}

// ChainGraph is the five-stage linear chain: each agent consumes the
// validated outputs of all its predecessors.
type ChainGraph struct {
	maxRetries     int
	attemptTimeout time.Duration
}

// NewChainGraph creates the multi-agent topology.
func NewChainGraph(maxRetries int, attemptTimeout time.Duration) *ChainGraph {
	return &ChainGraph{maxRetries: maxRetries, attemptTimeout: attemptTimeout}
}

func (g *ChainGraph) Mode() models.PipelineMode {
	return models.PipelineModeMulti
}

func (g *ChainGraph) Definitions() []models.StageDefinition {
	ids := []models.StageID{
		models.StageSchemaInterpreter,
		models.StageBusinessAnalyst,
		models.StageQueryBuilder,
		models.StageVisualizationDesigner,
		models.StageConfidentialityTester,
	}
	defs := make([]models.StageDefinition, len(ids))
	for i, id := range ids {
		defs[i] = models.StageDefinition{
			ID:             id,
			MaxRetries:     g.maxRetries,
			AttemptTimeout: g.attemptTimeout,
		}
		if i > 0 {
			defs[i].DependsOn = ids[:i]
		}
	}
	return defs
}

func (g *ChainGraph) Sections(stageID models.StageID, payload json.RawMessage) ([]models.Section, error) {
	names := map[models.StageID]string{
		models.StageSchemaInterpreter:     SectionSchema,
		models.StageBusinessAnalyst:       SectionBusiness,
		models.StageQueryBuilder:          SectionQueries,
		models.StageVisualizationDesigner: SectionVisualizations,
		models.StageConfidentialityTester: SectionConfidentiality,
	}
	name, ok := names[stageID]
	if !ok {
		return nil, services.WrapInternal("unknown stage in chain graph", nil)
	}
	return []models.Section{{Name: name, StageID: stageID, Payload: payload}}, nil
}

// MonoGraph is the single-stage topology: one agent produces the whole report
// in one validated payload, which decomposes into the same five sections the
// chain produces.
type MonoGraph struct {
	maxRetries     int
	attemptTimeout time.Duration
}

// NewMonoGraph creates the mono-agent topology.
func NewMonoGraph(maxRetries int, attemptTimeout time.Duration) *MonoGraph {
	return &MonoGraph{maxRetries: maxRetries, attemptTimeout: attemptTimeout}
}

func (g *MonoGraph) Mode() models.PipelineMode {
	return models.PipelineModeMono
}

func (g *MonoGraph) Definitions() []models.StageDefinition {
	return []models.StageDefinition{{
		ID:             models.StageMonoAgent,
		MaxRetries:     g.maxRetries,
		AttemptTimeout: g.attemptTimeout,
	}}
}

func (g *MonoGraph) Sections(stageID models.StageID, payload json.RawMessage) ([]models.Section, error) {
	if stageID != models.StageMonoAgent {
		return nil, services.WrapInternal("unknown stage in mono graph", nil)
	}

	var report models.MonoReport
	if err := json.Unmarshal(payload, &report); err != nil {
		return nil, services.WrapInternal("decompose mono report", err)
	}

	parts := []struct {
		name string
		v    interface{}
	}{
		{SectionSchema, report.Schema},
		{SectionBusiness, report.Business},
		{SectionQueries, report.Queries},
		{SectionVisualizations, report.Visualizations},
		{SectionConfidentiality, report.Confidentiality},
	}

	sections := make([]models.Section, 0, len(parts))
	for _, part := range parts {
		raw, err := json.Marshal(part.v)
		if err != nil {
			return nil, services.WrapInternal("decompose mono report", err)
		}
		sections = append(sections, models.Section{
			Name:    part.name,
			StageID: stageID,
			Payload: raw,
		})
	}
	return sections, nil
}

// GraphForMode returns the topology for a pipeline mode.
func GraphForMode(mode models.PipelineMode, maxRetries int, attemptTimeout time.Duration) (StageGraph, error) {
	switch mode {
	case models.PipelineModeMulti:
		return NewChainGraph(maxRetries, attemptTimeout), nil
	case models.PipelineModeMono:
		return NewMonoGraph(maxRetries, attemptTimeout), nil
	default:
		return nil, services.WrapInternal("unknown pipeline mode "+string(mode), nil)
	}
}
