package query

import (
	"fmt"

	"github.com/ivanyeors/ai-analytics-platform/internal/model"
)

// Column types as reported by Schema.
const (
	TypeU64       = "u64"
	TypeF64       = "f64"
	TypeString    = "String"
	TypeTimestamp = "Timestamp"
)

// Column describes one public column of a catalog table.
type Column struct {
	Name string `json:"name"`
	Type string `json:"type"`

	// column is the storage column name.
	column string

	// normalize marks category name columns, whose stored values are NFC.
	// Filter values are normalized the same way before comparison.
	normalize bool
}

// Table describes one public table and how it maps onto storage.
type Table struct {
	Name    string
	Columns []Column

	// relation and key are the storage table and primary key column.
	relation string
	key      string
}

// Column returns the public column with the given name.
func (t *Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// catalog lists the tables in Tables() order.
var catalog = []*Table{
	{
		Name: model.TableCategory,
		Columns: []Column{
			{Name: "name", Type: TypeString, column: "name", normalize: true},
			{Name: "description", Type: TypeString, column: "description"},
			{Name: "color", Type: TypeString, column: "color"},
		},
		relation: "categories",
		key:      "name",
	},
	{
		Name: model.TableDataPoint,
		Columns: []Column{
			{Name: "id", Type: TypeU64, column: "id"},
			{Name: "timestamp", Type: TypeTimestamp, column: "timestamp"},
			{Name: "category", Type: TypeString, column: "category", normalize: true},
			{Name: "value", Type: TypeF64, column: "value"},
		},
		relation: "data_points",
		key:      "id",
	},
}

// Tables returns the public table names.
func Tables() []string {
	names := make([]string, 0, len(catalog))
	for _, t := range catalog {
		names = append(names, t.Name)
	}
	return names
}

// Lookup returns the catalog entry for a public table name.
func Lookup(name string) (*Table, error) {
	for _, t := range catalog {
		if t.Name == name {
			return t, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownTable, name)
}

// Schema returns the columns of a public table in declaration order.
func Schema(name string) ([]Column, error) {
	t, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	cols := make([]Column, len(t.Columns))
	copy(cols, t.Columns)
	return cols, nil
}
