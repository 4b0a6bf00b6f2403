// pkg/model/table.go
package model

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// Kind is the scalar kind of a column, derived from its current contents
type Kind int

const (
	KindNumeric Kind = iota
	KindText
	KindTemporal
)

// String returns a string representation of the column kind
func (k Kind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindText:
		return "text"
	case KindTemporal:
		return "datetime"
	default:
		return "unknown"
	}
}

// MarshalText encodes the kind by name
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name
func (k *Kind) UnmarshalText(text []byte) error {
	for _, kind := range []Kind{KindNumeric, KindText, KindTemporal} {
		if kind.String() == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown column kind %q", text)
}

// ValueType tags the content of a single cell
type ValueType int

const (
	ValueNull ValueType = iota
	ValueText
	ValueNumber
	ValueTime
)

// Value is a single table cell
type Value struct {
	Type ValueType
	Str  string    // Set when Type is ValueText
	Num  float64   // Set when Type is ValueNumber
	Time time.Time // Set when Type is ValueTime
}

// Null returns a missing cell
func Null() Value { return Value{Type: ValueNull} }

// Text returns a text cell
func Text(s string) Value { return Value{Type: ValueText, Str: s} }

// Number returns a numeric cell; NaN is stored as a missing cell
func Number(f float64) Value {
	if math.IsNaN(f) {
		return Null()
	}
	return Value{Type: ValueNumber, Num: f}
}

// Timestamp returns a temporal cell
func Timestamp(t time.Time) Value { return Value{Type: ValueTime, Time: t} }

// IsNull reports whether the cell is missing
func (v Value) IsNull() bool { return v.Type == ValueNull }

// Equal compares two cells; two missing cells are equal
func (v Value) Equal(o Value) bool {
	if v.Type != o.Type {
		return false
	}
	switch v.Type {
	case ValueText:
		return v.Str == o.Str
	case ValueNumber:
		return v.Num == o.Num
	case ValueTime:
		return v.Time.Equal(o.Time)
	default:
		return true
	}
}

// Interface returns the cell as a plain Go value (nil for missing)
func (v Value) Interface() interface{} {
	switch v.Type {
	case ValueText:
		return v.Str
	case ValueNumber:
		if math.IsInf(v.Num, 0) {
			return v.String()
		}
		return v.Num
	case ValueTime:
		return v.Time
	default:
		return nil
	}
}

// String renders the cell for previews and row keys
func (v Value) String() string {
	switch v.Type {
	case ValueText:
		return v.Str
	case ValueNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case ValueTime:
		return v.Time.Format(time.RFC3339Nano)
	default:
		return ""
	}
}

// Column is a named sequence of cells
type Column struct {
	Name   string
	Values []Value
}

// Kind derives the column kind from the current cells
func (c *Column) Kind() Kind {
	var numbers, times int
	for _, v := range c.Values {
		switch v.Type {
		case ValueText:
			return KindText
		case ValueNumber:
			numbers++
		case ValueTime:
			times++
		}
	}
	if times > 0 && numbers > 0 {
		return KindText
	}
	if times > 0 {
		return KindTemporal
	}
	return KindNumeric
}

// MissingCount returns the number of null cells
func (c *Column) MissingCount() int {
	n := 0
	for _, v := range c.Values {
		if v.IsNull() {
			n++
		}
	}
	return n
}

// Table is a rectangular set of named columns in source order
type Table struct {
	Columns []Column
}

// NewTable creates an empty table with the given column names
func NewTable(names ...string) *Table {
	t := &Table{Columns: make([]Column, len(names))}
	for i, name := range names {
		t.Columns[i] = Column{Name: name}
	}
	return t
}

// AppendRow adds a row; the row must have one value per column
func (t *Table) AppendRow(row []Value) {
	for i := range t.Columns {
		t.Columns[i].Values = append(t.Columns[i].Values, row[i])
	}
}

// NumRows returns the number of rows
func (t *Table) NumRows() int {
	if len(t.Columns) == 0 {
		return 0
	}
	return len(t.Columns[0].Values)
}

// NumColumns returns the number of columns
func (t *Table) NumColumns() int {
	return len(t.Columns)
}

// ColumnNames returns the column names in order
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		names[i] = col.Name
	}
	return names
}

// Column returns a column by name, nil if absent
func (t *Table) Column(name string) *Column {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i]
		}
	}
	return nil
}

// Row returns the cells of row i
func (t *Table) Row(i int) []Value {
	row := make([]Value, len(t.Columns))
	for c := range t.Columns {
		row[c] = t.Columns[c].Values[i]
	}
	return row
}

// Head returns a copy of the first n rows
func (t *Table) Head(n int) *Table {
	if n > t.NumRows() {
		n = t.NumRows()
	}
	head := &Table{Columns: make([]Column, len(t.Columns))}
	for i, col := range t.Columns {
		head.Columns[i] = Column{Name: col.Name, Values: append([]Value(nil), col.Values[:n]...)}
	}
	return head
}

// Clone returns a deep copy of the table
func (t *Table) Clone() *Table {
	return t.Head(t.NumRows())
}

// Equal reports whether two tables have the same columns and cells
func (t *Table) Equal(o *Table) bool {
	if len(t.Columns) != len(o.Columns) || t.NumRows() != o.NumRows() {
		return false
	}
	for i := range t.Columns {
		if t.Columns[i].Name != o.Columns[i].Name {
			return false
		}
		for j := range t.Columns[i].Values {
			if !t.Columns[i].Values[j].Equal(o.Columns[i].Values[j]) {
				return false
			}
		}
	}
	return true
}

// MissingTotal returns the number of null cells across the table
func (t *Table) MissingTotal() int {
	n := 0
	for i := range t.Columns {
		n += t.Columns[i].MissingCount()
	}
	return n
}

// Records returns the rows as column-name keyed maps, used by JSON previews
func (t *Table) Records() []map[string]interface{} {
	records := make([]map[string]interface{}, t.NumRows())
	for i := range records {
		rec := make(map[string]interface{}, len(t.Columns))
		for _, col := range t.Columns {
			rec[col.Name] = col.Values[i].Interface()
		}
		records[i] = rec
	}
	return records
}
