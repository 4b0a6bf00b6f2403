// pkg/model/metadata.go
package model

import "strings"

// TableMetadata contains the structure information for a table
type TableMetadata struct {
	Source  string           `json:"source"`  // Upload name or query the table came from
	Columns []ColumnMetadata `json:"columns"` // Column descriptions in table order
	Rows    int              `json:"rows"`    // Row count
}

// ColumnMetadata describes a column at a point in time
type ColumnMetadata struct {
	Name    string `json:"name"`    // Column name
	Kind    Kind   `json:"kind"`    // Kind derived from the current cells
	Missing int    `json:"missing"` // Number of null cells
}

// Metadata describes the table's current columns
func (t *Table) Metadata(source string) *TableMetadata {
	meta := &TableMetadata{
		Source:  source,
		Columns: make([]ColumnMetadata, len(t.Columns)),
		Rows:    t.NumRows(),
	}
	for i := range t.Columns {
		meta.Columns[i] = ColumnMetadata{
			Name:    t.Columns[i].Name,
			Kind:    t.Columns[i].Kind(),
			Missing: t.Columns[i].MissingCount(),
		}
	}
	return meta
}

// GetColumnByName returns a column by name (case-insensitive)
// Returns nil if column not found
func (tm *TableMetadata) GetColumnByName(name string) *ColumnMetadata {
	for i, col := range tm.Columns {
		if strings.EqualFold(col.Name, name) {
			return &tm.Columns[i]
		}
	}
	return nil
}

// ColumnsOfKind returns the names of the columns with the given kind
func (tm *TableMetadata) ColumnsOfKind(kind Kind) []string {
	var names []string
	for _, col := range tm.Columns {
		if col.Kind == kind {
			names = append(names, col.Name)
		}
	}
	return names
}
