package models

// ColumnType is the inferred semantic type of a column, derived from the
// value distribution rather than the storage type.
type ColumnType string

const (
	ColumnTypeCategorical ColumnType = "categorical"
	ColumnTypeNumeric     ColumnType = "numeric"
	ColumnTypeDatetime    ColumnType = "datetime"
	ColumnTypeText        ColumnType = "text"
	ColumnTypeBoolean     ColumnType = "boolean"
)

// CardinalityBucket classifies the distinct-value count of a column without
// exposing the raw count semantics to the model provider.
type CardinalityBucket string

const (
	CardinalityUnique CardinalityBucket = "unique"
	CardinalityLow    CardinalityBucket = "low"
	CardinalityMedium CardinalityBucket = "medium"
	CardinalityHigh   CardinalityBucket = "high"
)

// ColumnSchema is the privacy-safe description of one column.
// Samples is populated only when the snapshot was produced with an explicit
// sample allowance; everything else is derived metadata.
type ColumnSchema struct {
	Name        string            `json:"name"`
	Type        ColumnType        `json:"type"`
	Nullable    bool              `json:"nullable"`
	NullRatio   float64           `json:"null_ratio"`
	Cardinality CardinalityBucket `json:"cardinality"`
	Samples     []string          `json:"samples,omitempty"`
}

// TableSchema is the privacy-safe description of one table.
type TableSchema struct {
	Name       string         `json:"name"`
	RowCount   int            `json:"row_count"`
	Columns    []ColumnSchema `json:"columns"`
	PrimaryKey string         `json:"primary_key,omitempty"`
}

// Relationship links a candidate foreign key to a candidate primary key in
// another table.
type Relationship struct {
	FromTable  string `json:"from_table"`
	FromColumn string `json:"from_column"`
	ToTable    string `json:"to_table"`
	ToColumn   string `json:"to_column"`
}

// MetadataSnapshot is the immutable, privacy-safe view of the loaded dataset
// that is the only table-derived content ever sent to the model provider.
// SampleCap records the per-column sample allowance the snapshot was built
// with; the confidentiality auditor uses it to distinguish declared samples
// from leaked values.
type MetadataSnapshot struct {
	SourceType    string         `json:"source_type"`
	Tables        []TableSchema  `json:"tables"`
	Relationships []Relationship `json:"relationships"`
	SampleCap     int            `json:"sample_cap"`
}

// Table returns the schema for the named table, or nil.
func (s *MetadataSnapshot) Table(name string) *TableSchema {
	for i := range s.Tables {
		if s.Tables[i].Name == name {
			return &s.Tables[i]
		}
	}
	return nil
}

// HasColumn reports whether the snapshot declares the given table/column pair.
func (s *MetadataSnapshot) HasColumn(table, column string) bool {
	t := s.Table(table)
	if t == nil {
		return false
	}
	for _, c := range t.Columns {
		if c.Name == column {
			return true
		}
	}
	return false
}

// AllowedSamples returns the set of raw values the snapshot explicitly
// declares as samples. These are exempt from the confidentiality check.
func (s *MetadataSnapshot) AllowedSamples() map[string]struct{} {
	allowed := make(map[string]struct{})
	for _, t := range s.Tables {
		for _, c := range t.Columns {
			for _, v := range c.Samples {
				allowed[v] = struct{}{}
			}
		}
	}
	return allowed
}
