package diff

// Report is the serialised form of a diff, as written by the JSON and YAML
// renderers and returned by the HTTP API.
type Report struct {
	OldFile       string      `json:"oldFile" yaml:"oldFile"`
	NewFile       string      `json:"newFile" yaml:"newFile"`
	Breaking      bool        `json:"breaking" yaml:"breaking"`
	Summary       Summary     `json:"summary" yaml:"summary"`
	AddedTables   []string    `json:"addedTables" yaml:"addedTables"`
	RemovedTables []string    `json:"removedTables" yaml:"removedTables"`
	ChangedTables []TableDiff `json:"changedTables" yaml:"changedTables"`
}

// NewReport wraps d with the names of the compared sources.
func NewReport(oldName, newName string, d *Diff) Report {
	return Report{
		OldFile:       oldName,
		NewFile:       newName,
		Breaking:      HasBreakingChanges(d),
		Summary:       d.Summary(),
		AddedTables:   d.AddedTables,
		RemovedTables: d.RemovedTables,
		ChangedTables: d.ChangedTables,
	}
}
