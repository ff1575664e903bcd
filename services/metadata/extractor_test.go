package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/privata-labs/privata/models"
	"github.com/privata-labs/privata/services"
)

func usersTable() models.Table {
	return models.Table{
		Name: "users",
		Columns: []models.Column{
			{Name: "user_id", Values: []string{"1", "2", "3", "4"}},
			{Name: "name", Values: []string{"Alice", "Bob", "Carol", "Dan"}},
			{Name: "country", Values: []string{"ES", "ES", "FR", ""}},
			{Name: "active", Values: []string{"true", "false", "true", "true"}},
			{Name: "signed_up", Values: []string{"2023-01-02", "2023-02-10", "2023-03-15", "2023-04-01"}},
		},
	}
}

func TestExtract_ColumnInference(t *testing.T) {
	extractor := NewExtractor(zap.NewNop(), 0)

	snapshot, err := extractor.Extract([]models.Table{usersTable()})
	require.NoError(t, err)
	require.Len(t, snapshot.Tables, 1)

	table := snapshot.Table("users")
	require.NotNil(t, table)
	assert.Equal(t, 4, table.RowCount)
	assert.Equal(t, "user_id", table.PrimaryKey)

	tests := []struct {
		column      string
		wantType    models.ColumnType
		wantBucket  models.CardinalityBucket
		wantNull    bool
		wantSamples int
	}{
		{"user_id", models.ColumnTypeNumeric, models.CardinalityUnique, false, 0},
		{"name", models.ColumnTypeCategorical, models.CardinalityUnique, false, 0},
		{"country", models.ColumnTypeCategorical, models.CardinalityLow, true, 0},
		{"active", models.ColumnTypeBoolean, models.CardinalityLow, false, 0},
		{"signed_up", models.ColumnTypeDatetime, models.CardinalityUnique, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.column, func(t *testing.T) {
			var got *models.ColumnSchema
			for i := range table.Columns {
				if table.Columns[i].Name == tt.column {
					got = &table.Columns[i]
				}
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.wantType, got.Type)
			assert.Equal(t, tt.wantBucket, got.Cardinality)
			assert.Equal(t, tt.wantNull, got.Nullable)
			assert.Len(t, got.Samples, tt.wantSamples)
		})
	}
}

func TestExtract_NullRatio(t *testing.T) {
	extractor := NewExtractor(zap.NewNop(), 0)

	snapshot, err := extractor.Extract([]models.Table{usersTable()})
	require.NoError(t, err)

	table := snapshot.Table("users")
	require.NotNil(t, table)
	for _, col := range table.Columns {
		if col.Name == "country" {
			assert.InDelta(t, 0.25, col.NullRatio, 1e-9)
		}
	}
}

func TestExtract_NoSamplesWithoutAllowance(t *testing.T) {
	extractor := NewExtractor(zap.NewNop(), 0)

	snapshot, err := extractor.Extract([]models.Table{usersTable()})
	require.NoError(t, err)

	assert.Equal(t, 0, snapshot.SampleCap)
	for _, table := range snapshot.Tables {
		for _, col := range table.Columns {
			assert.Empty(t, col.Samples, "column %s leaked samples", col.Name)
		}
	}
}

func TestExtract_SampleCapHonored(t *testing.T) {
	extractor := NewExtractor(zap.NewNop(), 2)

	snapshot, err := extractor.Extract([]models.Table{usersTable()})
	require.NoError(t, err)

	assert.Equal(t, 2, snapshot.SampleCap)
	table := snapshot.Table("users")
	require.NotNil(t, table)
	for _, col := range table.Columns {
		assert.LessOrEqual(t, len(col.Samples), 2)
	}
}

func TestExtract_DottedColumnRelationship(t *testing.T) {
	extractor := NewExtractor(zap.NewNop(), 0)

	orders := models.Table{
		Name: "orders",
		Columns: []models.Column{
			{Name: "order_id", Values: []string{"10", "11", "12"}},
			{Name: "users.user_id", Values: []string{"1", "2", "1"}},
			{Name: "total", Values: []string{"9.99", "15.00", "7.50"}},
		},
	}
	users := models.Table{
		Name: "users",
		Columns: []models.Column{
			{Name: "user_id", Values: []string{"1", "2", "3"}},
			{Name: "name", Values: []string{"Alice", "Bob", "Carol"}},
		},
	}

	snapshot, err := extractor.Extract([]models.Table{orders, users})
	require.NoError(t, err)

	require.Len(t, snapshot.Relationships, 1)
	rel := snapshot.Relationships[0]
	assert.Equal(t, "orders", rel.FromTable)
	assert.Equal(t, "users.user_id", rel.FromColumn)
	assert.Equal(t, "users", rel.ToTable)
	assert.Equal(t, "user_id", rel.ToColumn)
}

func TestExtract_PrimaryKeyNameMatchRelationship(t *testing.T) {
	extractor := NewExtractor(zap.NewNop(), 0)

	orders := models.Table{
		Name: "orders",
		Columns: []models.Column{
			{Name: "order_id", Values: []string{"10", "11", "12"}},
			{Name: "user_id", Values: []string{"1", "2", "1"}},
		},
	}
	users := models.Table{
		Name: "users",
		Columns: []models.Column{
			{Name: "user_id", Values: []string{"1", "2", "3"}},
		},
	}

	snapshot, err := extractor.Extract([]models.Table{orders, users})
	require.NoError(t, err)

	// orders.user_id references users.user_id; orders.order_id matches no
	// other table's key.
	require.Len(t, snapshot.Relationships, 1)
	rel := snapshot.Relationships[0]
	assert.Equal(t, "orders", rel.FromTable)
	assert.Equal(t, "user_id", rel.FromColumn)
	assert.Equal(t, "users", rel.ToTable)
}

func TestExtract_Errors(t *testing.T) {
	extractor := NewExtractor(zap.NewNop(), 0)

	tests := []struct {
		name   string
		tables []models.Table
	}{
		{"no tables", nil},
		{"no columns", []models.Table{{Name: "empty"}}},
		{"no rows", []models.Table{{Name: "hollow", Columns: []models.Column{{Name: "a"}}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := extractor.Extract(tt.tables)
			require.Error(t, err)
			assert.True(t, services.IsExtractionError(err))
		})
	}
}

func TestExtract_SnapshotContainsNoRawValuesBeyondCap(t *testing.T) {
	extractor := NewExtractor(zap.NewNop(), 0)

	snapshot, err := extractor.Extract([]models.Table{usersTable()})
	require.NoError(t, err)

	assert.Empty(t, snapshot.AllowedSamples())
}
