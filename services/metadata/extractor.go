package metadata

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/privata-labs/privata/models"
	"github.com/privata-labs/privata/services"
)

// Cardinality bucket boundaries over distinct non-null counts.
const (
	lowCardinalityMax    = 10
	mediumCardinalityMax = 100
)

// datetimeLayouts are the formats the type inference tries, most common first.
var datetimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02/01/2006",
	"01/02/2006",
}

// Extractor turns loaded tables into a privacy-safe MetadataSnapshot. It is
// the only component that ever reads raw cell values; everything it emits is
// derived metadata plus at most sampleCap opted-in sample values per column.
type Extractor struct {
	logger    *zap.Logger
	sampleCap int
}

// NewExtractor creates a metadata extractor. sampleCap is the per-column
// sample allowance; zero disables samples entirely.
func NewExtractor(logger *zap.Logger, sampleCap int) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{
		logger:    logger,
		sampleCap: sampleCap,
	}
}

// Extract builds the snapshot for a set of loaded tables. It returns an
// extraction error when the dataset is empty, a table has no rows, or a table
// has no parseable columns.
func (e *Extractor) Extract(tables []models.Table) (*models.MetadataSnapshot, error) {
	if len(tables) == 0 {
		return nil, services.ErrNoTables
	}

	snapshot := &models.MetadataSnapshot{
		SourceType: "csv",
		Tables:     make([]models.TableSchema, 0, len(tables)),
		SampleCap:  e.sampleCap,
	}

	for _, table := range tables {
		schema, err := e.extractTable(&table)
		if err != nil {
			return nil, err
		}
		snapshot.Tables = append(snapshot.Tables, *schema)
	}

	snapshot.Relationships = e.inferRelationships(snapshot.Tables)

	e.logger.Info("metadata snapshot produced",
		zap.Int("tables", len(snapshot.Tables)),
		zap.Int("relationships", len(snapshot.Relationships)),
		zap.Int("sample_cap", e.sampleCap),
	)

	return snapshot, nil
}

func (e *Extractor) extractTable(table *models.Table) (*models.TableSchema, error) {
	if len(table.Columns) == 0 {
		return nil, services.NewDomainError(services.ErrorTypeExtraction,
			"table has no parseable columns", nil).WithDetail("table", table.Name)
	}
	rowCount := table.RowCount()
	if rowCount == 0 {
		return nil, services.NewDomainError(services.ErrorTypeExtraction,
			"table has no rows", nil).WithDetail("table", table.Name)
	}

	schema := &models.TableSchema{
		Name:     table.Name,
		RowCount: rowCount,
		Columns:  make([]models.ColumnSchema, 0, len(table.Columns)),
	}

	for _, col := range table.Columns {
		cs := e.extractColumn(&col, rowCount)
		schema.Columns = append(schema.Columns, cs)

		// Primary-key heuristic: first unique, non-null column whose name
		// contains "id".
		if schema.PrimaryKey == "" &&
			cs.Cardinality == models.CardinalityUnique &&
			!cs.Nullable &&
			strings.Contains(strings.ToLower(col.Name), "id") {
			schema.PrimaryKey = col.Name
		}
	}

	return schema, nil
}

func (e *Extractor) extractColumn(col *models.Column, rowCount int) models.ColumnSchema {
	distinct := make(map[string]struct{})
	nullCount := 0
	for _, v := range col.Values {
		if v == "" {
			nullCount++
			continue
		}
		distinct[v] = struct{}{}
	}
	nonNull := len(col.Values) - nullCount

	cs := models.ColumnSchema{
		Name:        col.Name,
		Type:        inferType(col.Values, len(distinct), nonNull),
		Nullable:    nullCount > 0,
		Cardinality: bucketCardinality(len(distinct), nonNull, rowCount),
	}
	if rowCount > 0 {
		cs.NullRatio = float64(nullCount) / float64(rowCount)
	}
	if e.sampleCap > 0 {
		cs.Samples = sampleValues(distinct, e.sampleCap)
	}
	return cs
}

// inferRelationships links candidate foreign keys to primary keys. A column
// named "orders.order_id" inside table "items" references table "orders"; a
// column whose name equals another table's primary key is treated the same way.
func (e *Extractor) inferRelationships(tables []models.TableSchema) []models.Relationship {
	byName := make(map[string]*models.TableSchema, len(tables))
	for i := range tables {
		byName[tables[i].Name] = &tables[i]
	}

	var rels []models.Relationship
	for i := range tables {
		from := &tables[i]
		for _, col := range from.Columns {
			if target, pk, ok := resolveReference(from, col.Name, byName); ok {
				rels = append(rels, models.Relationship{
					FromTable:  from.Name,
					FromColumn: col.Name,
					ToTable:    target,
					ToColumn:   pk,
				})
			}
		}
	}
	return rels
}

func resolveReference(from *models.TableSchema, column string, byName map[string]*models.TableSchema) (table, pk string, ok bool) {
	if idx := strings.Index(column, "."); idx > 0 {
		ref := column[:idx]
		t, exists := byName[ref]
		if !exists || ref == from.Name || t.PrimaryKey == "" {
			return "", "", false
		}
		return ref, t.PrimaryKey, true
	}
	for name, t := range byName {
		if name == from.Name || t.PrimaryKey == "" {
			continue
		}
		if strings.EqualFold(column, t.PrimaryKey) {
			return name, t.PrimaryKey, true
		}
	}
	return "", "", false
}

// inferType classifies a column from its non-null values. Boolean and numeric
// win over categorical so low-cardinality flags and codes keep their nature.
func inferType(values []string, distinctCount, nonNull int) models.ColumnType {
	if nonNull == 0 {
		return models.ColumnTypeText
	}

	allBool, allNumeric, allDatetime := true, true, true
	for _, v := range values {
		if v == "" {
			continue
		}
		if allBool && !isBoolean(v) {
			allBool = false
		}
		if allNumeric {
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				allNumeric = false
			}
		}
		if allDatetime && !isDatetime(v) {
			allDatetime = false
		}
		if !allBool && !allNumeric && !allDatetime {
			break
		}
	}

	switch {
	case allBool:
		return models.ColumnTypeBoolean
	case allNumeric:
		return models.ColumnTypeNumeric
	case allDatetime:
		return models.ColumnTypeDatetime
	}

	// Low distinct-to-population ratio means a closed value set.
	if distinctCount <= lowCardinalityMax || float64(distinctCount) <= 0.5*float64(nonNull) {
		return models.ColumnTypeCategorical
	}
	return models.ColumnTypeText
}

func isBoolean(v string) bool {
	switch strings.ToLower(v) {
	case "true", "false", "yes", "no", "t", "f":
		return true
	}
	return false
}

func isDatetime(v string) bool {
	for _, layout := range datetimeLayouts {
		if _, err := time.Parse(layout, v); err == nil {
			return true
		}
	}
	return false
}

func bucketCardinality(distinctCount, nonNull, rowCount int) models.CardinalityBucket {
	switch {
	case nonNull > 0 && distinctCount == nonNull && nonNull == rowCount:
		return models.CardinalityUnique
	case distinctCount <= lowCardinalityMax:
		return models.CardinalityLow
	case distinctCount <= mediumCardinalityMax:
		return models.CardinalityMedium
	default:
		return models.CardinalityHigh
	}
}

// sampleValues returns up to limit distinct values in deterministic order.
func sampleValues(distinct map[string]struct{}, limit int) []string {
	out := make([]string, 0, len(distinct))
	for v := range distinct {
		out = append(out, v)
	}
	sort.Strings(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
