package loader

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/privata-labs/privata/models"
	"github.com/privata-labs/privata/services"
)

// CSVLoader reads CSV files into column-oriented tables. The first record is
// the header; missing trailing cells become nulls.
type CSVLoader struct {
	logger *zap.Logger
}

// NewCSVLoader creates a CSV loader.
func NewCSVLoader(logger *zap.Logger) *CSVLoader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CSVLoader{logger: logger}
}

// LoadDir loads every .csv file in dir, in name order. The table name is the
// file name without its extension.
func (l *CSVLoader) LoadDir(dir string) ([]models.Table, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, services.WrapError(services.ErrorTypeLoad, "scan dataset directory", err)
	}
	sort.Strings(paths)

	tables := make([]models.Table, 0, len(paths))
	for _, path := range paths {
		table, err := l.LoadFile(path)
		if err != nil {
			return nil, err
		}
		tables = append(tables, table)
	}

	l.logger.Info("dataset loaded",
		zap.String("dir", dir),
		zap.Int("tables", len(tables)),
	)
	return tables, nil
}

// LoadFile loads a single CSV file into a table.
func (l *CSVLoader) LoadFile(path string) (models.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return models.Table{}, services.NewDomainError(services.ErrorTypeLoad, "open dataset file", err).
			WithDetail("path", path)
	}
	defer f.Close()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return models.Table{}, services.NewDomainError(services.ErrorTypeLoad, "dataset file is empty", nil).
			WithDetail("path", path)
	}
	if err != nil {
		return models.Table{}, services.NewDomainError(services.ErrorTypeLoad, "read dataset header", err).
			WithDetail("path", path)
	}

	columns := make([]models.Column, len(header))
	for i, h := range header {
		columns[i] = models.Column{Name: strings.TrimSpace(h)}
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return models.Table{}, services.NewDomainError(services.ErrorTypeLoad, "read dataset row", err).
				WithDetail("path", path)
		}
		for i := range columns {
			if i < len(record) {
				columns[i].Values = append(columns[i].Values, record[i])
			} else {
				columns[i].Values = append(columns[i].Values, "")
			}
		}
	}

	return models.Table{Name: name, Columns: columns}, nil
}
