// Package schema holds the canonical, parser-independent representation of a
// relational schema: tables, columns and constraints.
package schema

import (
	"strings"
)

// Column describes a single table column.
type Column struct {
	Name       string  `json:"name" yaml:"name"`
	Type       string  `json:"type" yaml:"type"`
	Nullable   bool    `json:"nullable" yaml:"nullable"`
	Default    *string `json:"defaultVal,omitempty" yaml:"defaultVal,omitempty"`
	PrimaryKey bool    `json:"primaryKey" yaml:"primaryKey"`
	Unique     bool    `json:"unique" yaml:"unique"`
}

// DefaultString returns the default value text, or "" when absent.
func (c Column) DefaultString() string {
	if c.Default == nil {
		return ""
	}
	return *c.Default
}

// Constraint is a table-level constraint.
type Constraint struct {
	Name       string         `json:"name" yaml:"name"`
	Type       ConstraintType `json:"type" yaml:"type"`
	Columns    []string       `json:"columns" yaml:"columns"`
	References string         `json:"references,omitempty" yaml:"references,omitempty"`
}

// Key identifies a constraint across schema versions. Name and References
// do not take part.
func (c Constraint) Key() string {
	return c.Type.String() + "|" + strings.Join(c.Columns, ",")
}

// Table is a named set of columns and constraints. Columns keep their
// insertion order.
type Table struct {
	Name        string
	Constraints []Constraint

	columns []Column
	index   map[string]int
}

// NewTable creates an empty table. The name is lower-cased.
func NewTable(name string) *Table {
	return &Table{
		Name:        strings.ToLower(name),
		Constraints: []Constraint{},
		index:       make(map[string]int),
	}
}

// PutColumn adds a column, lower-casing its name. A column with the same
// name replaces the earlier one in place.
func (t *Table) PutColumn(c Column) {
	c.Name = strings.ToLower(c.Name)
	if t.index == nil {
		t.index = make(map[string]int)
	}
	if i, ok := t.index[c.Name]; ok {
		t.columns[i] = c
		return
	}
	t.index[c.Name] = len(t.columns)
	t.columns = append(t.columns, c)
}

// AddConstraint appends a constraint.
func (t *Table) AddConstraint(c Constraint) {
	t.Constraints = append(t.Constraints, c)
}

// Column returns a column by name.
func (t *Table) Column(name string) (Column, bool) {
	i, ok := t.index[strings.ToLower(name)]
	if !ok {
		return Column{}, false
	}
	return t.columns[i], true
}

// HasColumn checks if a table has a column by name
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[strings.ToLower(name)]
	return ok
}

// Columns returns the columns in declaration order.
func (t *Table) Columns() []Column {
	out := make([]Column, len(t.columns))
	copy(out, t.columns)
	return out
}

// ColumnNames returns the column names in declaration order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}
	return names
}

// Schema maps table names to tables, preserving insertion order.
type Schema struct {
	tables []*Table
	index  map[string]int
}

// New creates an empty schema.
func New() *Schema {
	return &Schema{index: make(map[string]int)}
}

// Put adds a table. A table with the same name replaces the earlier one
// entirely, keeping its position.
func (s *Schema) Put(t *Table) {
	if s.index == nil {
		s.index = make(map[string]int)
	}
	if i, ok := s.index[t.Name]; ok {
		s.tables[i] = t
		return
	}
	s.index[t.Name] = len(s.tables)
	s.tables = append(s.tables, t)
}

// Table returns a table by name.
func (s *Schema) Table(name string) (*Table, bool) {
	if s == nil {
		return nil, false
	}
	i, ok := s.index[strings.ToLower(name)]
	if !ok {
		return nil, false
	}
	return s.tables[i], true
}

// Tables returns the tables in insertion order.
func (s *Schema) Tables() []*Table {
	if s == nil {
		return nil
	}
	out := make([]*Table, len(s.tables))
	copy(out, s.tables)
	return out
}

// Names returns the table names in insertion order.
func (s *Schema) Names() []string {
	if s == nil {
		return nil
	}
	names := make([]string, len(s.tables))
	for i, t := range s.tables {
		names[i] = t.Name
	}
	return names
}

// Len returns the number of tables.
func (s *Schema) Len() int {
	if s == nil {
		return 0
	}
	return len(s.tables)
}
