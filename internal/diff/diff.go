// Package diff compares two schemas and classifies each column change as
// breaking or not.
package diff

import (
	"github.com/riftdata/schemadiff/internal/schema"
)

// ColumnChange describes a column present in both schemas whose type,
// nullability or default differs. All six values are recorded even when
// only one of them changed.
type ColumnChange struct {
	Name        string  `json:"name" yaml:"name"`
	OldType     string  `json:"oldType" yaml:"oldType"`
	NewType     string  `json:"newType" yaml:"newType"`
	OldNullable bool    `json:"oldNullable" yaml:"oldNullable"`
	NewNullable bool    `json:"newNullable" yaml:"newNullable"`
	OldDefault  *string `json:"oldDefault,omitempty" yaml:"oldDefault,omitempty"`
	NewDefault  *string `json:"newDefault,omitempty" yaml:"newDefault,omitempty"`
	Breaking    bool    `json:"breaking" yaml:"breaking"`
}

// TableDiff collects the changes to a table present in both schemas.
type TableDiff struct {
	Name               string              `json:"name" yaml:"name"`
	AddedColumns       []schema.Column     `json:"addedColumns" yaml:"addedColumns"`
	RemovedColumns     []schema.Column     `json:"removedColumns" yaml:"removedColumns"`
	ChangedColumns     []ColumnChange      `json:"changedColumns" yaml:"changedColumns"`
	AddedConstraints   []schema.Constraint `json:"addedConstraints" yaml:"addedConstraints"`
	RemovedConstraints []schema.Constraint `json:"removedConstraints" yaml:"removedConstraints"`
}

// Empty reports whether none of the change lists has an entry.
func (t TableDiff) Empty() bool {
	return len(t.AddedColumns) == 0 &&
		len(t.RemovedColumns) == 0 &&
		len(t.ChangedColumns) == 0 &&
		len(t.AddedConstraints) == 0 &&
		len(t.RemovedConstraints) == 0
}

// Diff is the result of Compare.
type Diff struct {
	AddedTables   []string    `json:"addedTables" yaml:"addedTables"`
	RemovedTables []string    `json:"removedTables" yaml:"removedTables"`
	ChangedTables []TableDiff `json:"changedTables" yaml:"changedTables"`
}

// Compare builds the diff from schema a (old) to schema b (new).
//
// Removed tables, columns and constraints follow a's order; everything else
// follows b's order. Constraints are matched by Constraint.Key, so a renamed
// constraint or a foreign key retargeted without changing its columns is
// not reported.
func Compare(a, b *schema.Schema) *Diff {
	res := &Diff{
		AddedTables:   difference(b.Names(), a.Names()),
		RemovedTables: difference(a.Names(), b.Names()),
		ChangedTables: []TableDiff{},
	}

	for _, tableB := range b.Tables() {
		tableA, ok := a.Table(tableB.Name)
		if !ok {
			continue
		}
		if td := compareTables(tableA, tableB); !td.Empty() {
			res.ChangedTables = append(res.ChangedTables, td)
		}
	}
	return res
}

func compareTables(a, b *schema.Table) TableDiff {
	td := TableDiff{
		Name:               b.Name,
		AddedColumns:       []schema.Column{},
		RemovedColumns:     []schema.Column{},
		ChangedColumns:     []ColumnChange{},
		AddedConstraints:   []schema.Constraint{},
		RemovedConstraints: []schema.Constraint{},
	}

	for _, colB := range b.Columns() {
		colA, ok := a.Column(colB.Name)
		if !ok {
			td.AddedColumns = append(td.AddedColumns, colB)
			continue
		}
		if !columnsEqual(colA, colB) {
			td.ChangedColumns = append(td.ChangedColumns, newColumnChange(colA, colB))
		}
	}
	for _, colA := range a.Columns() {
		if !b.HasColumn(colA.Name) {
			td.RemovedColumns = append(td.RemovedColumns, colA)
		}
	}

	keysA := constraintKeys(a.Constraints)
	keysB := constraintKeys(b.Constraints)
	for _, c := range b.Constraints {
		if _, ok := keysA[c.Key()]; !ok {
			td.AddedConstraints = append(td.AddedConstraints, c)
		}
	}
	for _, c := range a.Constraints {
		if _, ok := keysB[c.Key()]; !ok {
			td.RemovedConstraints = append(td.RemovedConstraints, c)
		}
	}
	return td
}

func newColumnChange(a, b schema.Column) ColumnChange {
	ch := ColumnChange{
		Name:        b.Name,
		OldType:     a.Type,
		NewType:     b.Type,
		OldNullable: a.Nullable,
		NewNullable: b.Nullable,
		OldDefault:  a.Default,
		NewDefault:  b.Default,
	}
	ch.Breaking = IsBreaking(ch)
	return ch
}

func columnsEqual(a, b schema.Column) bool {
	return a.Type == b.Type &&
		a.Nullable == b.Nullable &&
		defaultsEqual(a.Default, b.Default)
}

func defaultsEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func constraintKeys(cs []schema.Constraint) map[string]struct{} {
	set := make(map[string]struct{}, len(cs))
	for _, c := range cs {
		set[c.Key()] = struct{}{}
	}
	return set
}

// difference returns the elements of a not in b, in a's order.
func difference(a, b []string) []string {
	set := make(map[string]struct{}, len(b))
	for _, v := range b {
		set[v] = struct{}{}
	}
	out := []string{}
	for _, v := range a {
		if _, ok := set[v]; !ok {
			out = append(out, v)
		}
	}
	return out
}
