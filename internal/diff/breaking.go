package diff

import (
	"github.com/riftdata/schemadiff/internal/schema"
)

// IsBreaking classifies a column change. Any type change is breaking, as is
// narrowing a nullable column to NOT NULL. Default changes and relaxing NOT
// NULL never are.
func IsBreaking(c ColumnChange) bool {
	return c.OldType != c.NewType || (c.OldNullable && !c.NewNullable)
}

// HasBreakingChanges reports whether d removes a table or a column, or
// contains a breaking column change. Dropped constraints do not count.
func HasBreakingChanges(d *Diff) bool {
	if len(d.RemovedTables) > 0 {
		return true
	}
	for _, t := range d.ChangedTables {
		if len(t.RemovedColumns) > 0 {
			return true
		}
		for _, c := range t.ChangedColumns {
			if c.Breaking {
				return true
			}
		}
	}
	return false
}

// FilterBreakingOnly keeps removed tables and, per table, removed columns,
// breaking column changes and removed constraints. Tables left with nothing
// are dropped.
func FilterBreakingOnly(d *Diff) *Diff {
	out := &Diff{
		AddedTables:   []string{},
		RemovedTables: append([]string{}, d.RemovedTables...),
		ChangedTables: []TableDiff{},
	}

	for _, t := range d.ChangedTables {
		ft := TableDiff{
			Name:               t.Name,
			AddedColumns:       []schema.Column{},
			RemovedColumns:     append([]schema.Column{}, t.RemovedColumns...),
			ChangedColumns:     []ColumnChange{},
			AddedConstraints:   []schema.Constraint{},
			RemovedConstraints: append([]schema.Constraint{}, t.RemovedConstraints...),
		}
		for _, c := range t.ChangedColumns {
			if c.Breaking {
				ft.ChangedColumns = append(ft.ChangedColumns, c)
			}
		}
		if !ft.Empty() {
			out.ChangedTables = append(out.ChangedTables, ft)
		}
	}
	return out
}

// Summary counts table-level changes.
type Summary struct {
	AddedTables    int `json:"addedTables" yaml:"addedTables"`
	RemovedTables  int `json:"removedTables" yaml:"removedTables"`
	ModifiedTables int `json:"modifiedTables" yaml:"modifiedTables"`
}

// Summary returns the table-level counts of d.
func (d *Diff) Summary() Summary {
	return Summary{
		AddedTables:    len(d.AddedTables),
		RemovedTables:  len(d.RemovedTables),
		ModifiedTables: len(d.ChangedTables),
	}
}

// IsEmpty reports whether the two schemas compared equal.
func (d *Diff) IsEmpty() bool {
	return len(d.AddedTables) == 0 && len(d.RemovedTables) == 0 && len(d.ChangedTables) == 0
}

// BreakingCount counts removed tables, removed columns and breaking column
// changes.
func (d *Diff) BreakingCount() int {
	n := len(d.RemovedTables)
	for _, t := range d.ChangedTables {
		n += len(t.RemovedColumns)
		for _, c := range t.ChangedColumns {
			if c.Breaking {
				n++
			}
		}
	}
	return n
}
