package models

// Stage output shapes. Each stage's validated payload unmarshals into one of
// these; the guardrail validator enforces the `validate` tags and then runs
// referential checks against the MetadataSnapshot.

// InterpretedColumn is a column description enriched with business meaning.
type InterpretedColumn struct {
	Type                string  `json:"type" validate:"required"`
	Nullable            bool    `json:"nullable"`
	Cardinality         string  `json:"cardinality" validate:"required,oneof=unique low medium high"`
	SemanticDescription string  `json:"semantic_description" validate:"required"`
	NullRatio           float64 `json:"null_ratio" validate:"gte=0,lte=1"`
}

// InterpretedTable is a table description enriched with role and description.
type InterpretedTable struct {
	RowCount    int                          `json:"row_count" validate:"gte=0"`
	Columns     map[string]InterpretedColumn `json:"columns" validate:"required,min=1,dive"`
	PrimaryKey  string                       `json:"primary_key,omitempty"`
	ForeignKeys []string                     `json:"foreign_keys,omitempty"`
	Role        string                       `json:"role" validate:"required"`
	Description string                       `json:"description" validate:"required"`
}

// SchemaInterpretation is the schema stage's output: the metadata snapshot
// enriched with semantic interpretation, never with raw values.
type SchemaInterpretation struct {
	SourceType          string                      `json:"source_type" validate:"required"`
	Tables              map[string]InterpretedTable `json:"tables" validate:"required,min=1,dive"`
	Relationships       []Relationship              `json:"relationships"`
	DatabaseDomain      string                      `json:"database_domain" validate:"required"`
	DatabaseDescription string                      `json:"database_description" validate:"required"`
}

// BusinessSubAnalysis is a single sub-analysis within a business analysis.
type BusinessSubAnalysis struct {
	ID            string   `json:"id" validate:"required"`
	Title         string   `json:"title" validate:"required"`
	Why           string   `json:"why" validate:"required"`
	Answers       []string `json:"answers" validate:"required,min=1"`
	TablesColumns []string `json:"tables_columns" validate:"required,min=1"`
}

// BusinessAnalysisItem is a main analysis grouping several sub-analyses.
type BusinessAnalysisItem struct {
	ID          string                `json:"id" validate:"required"`
	Title       string                `json:"title" validate:"required"`
	Context     string                `json:"context" validate:"required"`
	Tables      []string              `json:"tables" validate:"required,min=1"`
	SubAnalyses []BusinessSubAnalysis `json:"sub_analyses" validate:"required,min=1,dive"`
}

// BusinessAnalysis is the business stage's output.
type BusinessAnalysis struct {
	Analyses []BusinessAnalysisItem `json:"analyses" validate:"required,min=1,dive"`
}

// Query extends a sub-analysis with executable query code.
type Query struct {
	ID            string   `json:"id" validate:"required"`
	Title         string   `json:"title" validate:"required"`
	Why           string   `json:"why" validate:"required"`
	Answers       []string `json:"answers" validate:"required,min=1"`
	TablesColumns []string `json:"tables_columns" validate:"required,min=1"`
	Type          string   `json:"type" validate:"required"`
	CodeLines     []string `json:"code_lines" validate:"required,min=1"`
}

// QueryAnalysis is a main analysis with query-bearing sub-analyses.
type QueryAnalysis struct {
	ID          string   `json:"id" validate:"required"`
	Title       string   `json:"title" validate:"required"`
	Context     string   `json:"context" validate:"required"`
	Tables      []string `json:"tables" validate:"required,min=1"`
	SubAnalyses []Query  `json:"sub_analyses" validate:"required,min=1,dive"`
}

// QueriesOutput is the query stage's output.
type QueriesOutput struct {
	Analyses []QueryAnalysis `json:"analyses" validate:"required,min=1,dive"`
}

// VisualizationQuery extends a query with chart code and its justification.
type VisualizationQuery struct {
	ID                string   `json:"id" validate:"required"`
	Title             string   `json:"title" validate:"required"`
	Why               string   `json:"why" validate:"required"`
	Answers           []string `json:"answers" validate:"required,min=1"`
	TablesColumns     []string `json:"tables_columns" validate:"required,min=1"`
	Type              string   `json:"type" validate:"required"`
	CodeLines         []string `json:"code_lines" validate:"required,min=1"`
	VisualizationCode []string `json:"visualization_code" validate:"required,min=1"`
	VisualizationType string   `json:"visualization_type" validate:"required"`
	Justification     string   `json:"justification" validate:"required"`
}

// VisualizationAnalysis is a main analysis with visualization sub-analyses.
type VisualizationAnalysis struct {
	ID          string               `json:"id" validate:"required"`
	Title       string               `json:"title" validate:"required"`
	Context     string               `json:"context" validate:"required"`
	Tables      []string             `json:"tables" validate:"required,min=1"`
	SubAnalyses []VisualizationQuery `json:"sub_analyses" validate:"required,min=1,dive"`
}

// Visualizations is the visualization stage's output.
type Visualizations struct {
	Analyses []VisualizationAnalysis `json:"analyses" validate:"required,min=1,dive"`
}

// ConfidentialityQuestion is one probing question the confidentiality agent
// asked itself, with its assessment.
type ConfidentialityQuestion struct {
	ID          string `json:"id" validate:"required"`
	Question    string `json:"question" validate:"required"`
	Answer      string `json:"answer" validate:"required"`
	RevealsData bool   `json:"reveals_data"`
	Explanation string `json:"explanation" validate:"required"`
}

// ConfidentialityReport is the confidentiality stage's output: the agent's
// self-assessment of whether any answer exposed real data.
type ConfidentialityReport struct {
	Verdict           string                    `json:"verdict" validate:"required,oneof=PASS FAIL"`
	Summary           string                    `json:"summary" validate:"required"`
	DataExposureCount int                       `json:"data_exposure_count" validate:"gte=0"`
	TotalQuestions    int                       `json:"total_questions" validate:"gte=0"`
	Questions         []ConfidentialityQuestion `json:"questions" validate:"required,min=1,dive"`
}

// MonoReport is the mono-agent stage's output: all five logical sections
// produced in a single response so the orchestrator can decompose them into
// named sub-results.
type MonoReport struct {
	Schema          SchemaInterpretation  `json:"schema" validate:"required"`
	Business        BusinessAnalysis      `json:"business_analysis" validate:"required"`
	Queries         QueriesOutput         `json:"queries" validate:"required"`
	Visualizations  Visualizations        `json:"visualizations" validate:"required"`
	Confidentiality ConfidentialityReport `json:"confidentiality" validate:"required"`
}
