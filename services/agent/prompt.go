package agent

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/privata-labs/privata/models"
)

// stageInstructions holds the role and task text for each stage. Prompts only
// ever carry the metadata snapshot and upstream validated outputs; raw cell
// values never enter a request.
var stageInstructions = map[models.StageID]struct {
	role string
	task string
}{
	models.StageSchemaInterpreter: {
		role: "You are a database schema analyst.",
		task: "Interpret the schema metadata below. For every table and column, infer its business meaning and produce the enriched schema JSON with semantic descriptions, table roles, the database domain, and a database description.",
	},
	models.StageBusinessAnalyst: {
		role: "You are a senior business analyst.",
		task: "From the interpreted schema, propose the business analyses this dataset supports. Group sub-analyses under main analyses; each sub-analysis names the questions it answers and the exact table.column references it needs.",
	},
	models.StageQueryBuilder: {
		role: "You are a data engineer writing analysis queries.",
		task: "For every sub-analysis, produce executable query code as code_lines. Reference only tables and columns declared in the schema metadata.",
	},
	models.StageVisualizationDesigner: {
		role: "You are a data visualization designer.",
		task: "For every query, choose a chart type, justify it, and produce visualization_code that renders the query result.",
	},
	models.StageConfidentialityTester: {
		role: "You are a privacy auditor probing an analysis pipeline.",
		task: "Ask probing questions that would reveal raw data values if any leaked into the upstream outputs. Answer each from the available material only and report a PASS or FAIL verdict with your findings.",
	},
	models.StageMonoAgent: {
		role: "You are a complete data analysis team in one agent.",
		task: "In a single JSON object produce all five sections: schema (interpreted schema), business_analysis, queries, visualizations, and confidentiality (a self-audit with verdict PASS or FAIL). Reference only tables and columns declared in the schema metadata.",
	},
}

// BuildRequest assembles the provider request for one attempt. The corrective
// instruction from the previous rejected attempt, when present, is prepended
// to the user message so the model sees the fix first.
func BuildRequest(stageID models.StageID, model models.ModelConfig, snapshot *models.MetadataSnapshot, upstream map[models.StageID]json.RawMessage, corrective string) (*CompletionRequest, error) {
	inst, ok := stageInstructions[stageID]
	if !ok {
		return nil, fmt.Errorf("no instructions registered for stage %s", stageID)
	}

	snapshotJSON, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}

	var b strings.Builder
	if corrective != "" {
		b.WriteString("Your previous response was rejected:\n\n")
		b.WriteString(corrective)
		b.WriteString("\n\nProduce a corrected response.\n\n")
	}
	b.WriteString(inst.task)
	b.WriteString("\n\nSchema metadata:\n")
	b.Write(snapshotJSON)

	for _, id := range stageOrder(upstream) {
		b.WriteString(fmt.Sprintf("\n\nOutput of %s:\n", id))
		b.Write(upstream[id])
	}
	b.WriteString("\n\nRespond with a single JSON object and nothing else.")

	return &CompletionRequest{
		Model: model.Model,
		Messages: []Message{
			{Role: "system", Content: inst.role},
			{Role: "user", Content: b.String()},
		},
	}, nil
}

// stageOrder returns upstream stage ids in pipeline order so prompts are
// deterministic.
func stageOrder(upstream map[models.StageID]json.RawMessage) []models.StageID {
	order := []models.StageID{
		models.StageSchemaInterpreter,
		models.StageBusinessAnalyst,
		models.StageQueryBuilder,
		models.StageVisualizationDesigner,
		models.StageConfidentialityTester,
		models.StageMonoAgent,
	}
	var present []models.StageID
	for _, id := range order {
		if _, ok := upstream[id]; ok {
			present = append(present, id)
		}
	}
	return present
}
