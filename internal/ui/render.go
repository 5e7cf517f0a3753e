package ui

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/riftdata/schemadiff/internal/diff"
	"github.com/riftdata/schemadiff/internal/parser"
	"github.com/riftdata/schemadiff/internal/schema"
	"github.com/riftdata/schemadiff/internal/snapshot"
)

// RenderDiff writes r in the output's format.
func (o *Output) RenderDiff(r diff.Report) error {
	switch o.format {
	case FormatJSON:
		return o.JSON(r)
	case FormatYAML:
		return o.YAML(r)
	case FormatMarkdown:
		o.diffMarkdown(r)
	default:
		o.diffText(r)
	}
	return nil
}

func (o *Output) diffText(r diff.Report) {
	w := o.writer
	fmt.Fprintln(w, o.style(Bold, fmt.Sprintf("Schema diff: %s %s %s", r.OldFile, IconArrow, r.NewFile)))
	fmt.Fprintln(w)

	if len(r.AddedTables) == 0 && len(r.RemovedTables) == 0 && len(r.ChangedTables) == 0 {
		fmt.Fprintln(w, o.style(Success, IconSuccess)+" No differences")
		return
	}

	breaking := o.style(BreakingBadge, "BREAKING")
	if o.noColor {
		breaking = "[BREAKING]"
	}

	for _, name := range r.AddedTables {
		fmt.Fprintf(w, "%s table %s\n", o.style(Added, IconAdded), name)
	}
	for _, name := range r.RemovedTables {
		fmt.Fprintf(w, "%s table %s %s\n", o.style(Removed, IconRemoved), name, breaking)
	}
	for _, t := range r.ChangedTables {
		fmt.Fprintf(w, "%s table %s\n", o.style(Changed, IconChanged), t.Name)
		for _, c := range t.AddedColumns {
			fmt.Fprintf(w, "    %s column %s %s\n", o.style(Added, IconAdded), c.Name, describeColumn(c))
		}
		for _, c := range t.RemovedColumns {
			fmt.Fprintf(w, "    %s column %s %s %s\n", o.style(Removed, IconRemoved), c.Name, describeColumn(c), breaking)
		}
		for _, c := range t.ChangedColumns {
			line := fmt.Sprintf("    %s column %s: %s", o.style(Changed, IconChanged), c.Name, strings.Join(describeChange(c), "; "))
			if c.Breaking {
				line += " " + breaking
			}
			fmt.Fprintln(w, line)
		}
		for _, c := range t.AddedConstraints {
			fmt.Fprintf(w, "    %s constraint %s\n", o.style(Added, IconAdded), describeConstraint(c))
		}
		for _, c := range t.RemovedConstraints {
			fmt.Fprintf(w, "    %s constraint %s\n", o.style(Removed, IconRemoved), describeConstraint(c))
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, o.style(Muted, summaryLine(r)))
}

func (o *Output) diffMarkdown(r diff.Report) {
	w := o.writer
	fmt.Fprintf(w, "## Schema diff: `%s` %s `%s`\n\n", r.OldFile, IconArrow, r.NewFile)

	if len(r.AddedTables) == 0 && len(r.RemovedTables) == 0 && len(r.ChangedTables) == 0 {
		fmt.Fprintln(w, "No differences.")
		return
	}

	if r.Breaking {
		fmt.Fprintf(w, "> **%s Breaking changes:** %s\n\n", IconWarning, summaryLine(r))
	} else {
		fmt.Fprintf(w, "%s\n\n", summaryLine(r))
	}

	if len(r.AddedTables) > 0 || len(r.RemovedTables) > 0 {
		fmt.Fprintln(w, "### Tables")
		fmt.Fprintln(w)
		tbl := NewTable(o, "Table", "Change", "Breaking")
		for _, name := range r.AddedTables {
			tbl.AddRow("`"+name+"`", "added", "")
		}
		for _, name := range r.RemovedTables {
			tbl.AddRow("`"+name+"`", "removed", "yes")
		}
		tbl.Render()
		fmt.Fprintln(w)
	}

	for _, t := range r.ChangedTables {
		fmt.Fprintf(w, "### `%s`\n\n", t.Name)

		if len(t.AddedColumns)+len(t.RemovedColumns)+len(t.ChangedColumns) > 0 {
			tbl := NewTable(o, "Column", "Change", "Old", "New", "Breaking")
			for _, c := range t.AddedColumns {
				tbl.AddRow("`"+c.Name+"`", "added", "", describeColumn(c), "")
			}
			for _, c := range t.RemovedColumns {
				tbl.AddRow("`"+c.Name+"`", "removed", describeColumn(c), "", "yes")
			}
			for _, c := range t.ChangedColumns {
				tbl.AddRow("`"+c.Name+"`", "changed",
					describeColumnState(c.OldType, c.OldNullable, c.OldDefault),
					describeColumnState(c.NewType, c.NewNullable, c.NewDefault),
					yesNo(c.Breaking))
			}
			tbl.Render()
			fmt.Fprintln(w)
		}

		if len(t.AddedConstraints)+len(t.RemovedConstraints) > 0 {
			tbl := NewTable(o, "Constraint", "Change")
			for _, c := range t.AddedConstraints {
				tbl.AddRow(describeConstraint(c), "added")
			}
			for _, c := range t.RemovedConstraints {
				tbl.AddRow(describeConstraint(c), "removed")
			}
			tbl.Render()
			fmt.Fprintln(w)
		}
	}
}

func summaryLine(r diff.Report) string {
	s := r.Summary
	line := fmt.Sprintf("%s added, %s removed, %s modified",
		plural(s.AddedTables, "table"), plural(s.RemovedTables, "table"), plural(s.ModifiedTables, "table"))
	if n := breakingCount(r); n > 0 {
		line += ", " + plural(n, "breaking change")
	}
	return line
}

func breakingCount(r diff.Report) int {
	d := diff.Diff{AddedTables: r.AddedTables, RemovedTables: r.RemovedTables, ChangedTables: r.ChangedTables}
	return d.BreakingCount()
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return strconv.Itoa(n) + " " + noun + "s"
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return ""
}

func describeColumn(c schema.Column) string {
	s := describeColumnState(c.Type, c.Nullable, c.Default)
	if c.PrimaryKey {
		s += " PRIMARY KEY"
	}
	if c.Unique {
		s += " UNIQUE"
	}
	return s
}

func describeColumnState(typ string, nullable bool, def *string) string {
	parts := make([]string, 0, 3)
	if typ != "" {
		parts = append(parts, typ)
	}
	if nullable {
		parts = append(parts, "NULL")
	} else {
		parts = append(parts, "NOT NULL")
	}
	if def != nil {
		parts = append(parts, "DEFAULT "+*def)
	}
	return strings.Join(parts, " ")
}

func describeChange(c diff.ColumnChange) []string {
	var parts []string
	if c.OldType != c.NewType {
		parts = append(parts, fmt.Sprintf("type %s %s %s", orNone(c.OldType), IconArrow, orNone(c.NewType)))
	}
	if c.OldNullable != c.NewNullable {
		parts = append(parts, fmt.Sprintf("%s %s %s", nullWord(c.OldNullable), IconArrow, nullWord(c.NewNullable)))
	}
	if !sameDefault(c.OldDefault, c.NewDefault) {
		parts = append(parts, fmt.Sprintf("default %s %s %s", defaultWord(c.OldDefault), IconArrow, defaultWord(c.NewDefault)))
	}
	return parts
}

func describeConstraint(c schema.Constraint) string {
	s := fmt.Sprintf("%s (%s)", c.Type, strings.Join(c.Columns, ", "))
	if c.References != "" {
		s += " REFERENCES " + c.References
	}
	if c.Name != "" {
		s = c.Name + " " + s
	}
	return s
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

func nullWord(nullable bool) string {
	if nullable {
		return "NULL"
	}
	return "NOT NULL"
}

func defaultWord(d *string) string {
	if d == nil {
		return "(none)"
	}
	return *d
}

func sameDefault(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// RenderSchema writes s in the output's format. JSON output is the schema
// document the JSON parser reads back.
func (o *Output) RenderSchema(s *schema.Schema) error {
	switch o.format {
	case FormatJSON:
		doc, err := parser.EncodeJSON(s)
		if err != nil {
			return err
		}
		_, err = o.writer.Write(doc)
		return err
	case FormatYAML:
		return o.YAML(schemaNode(s))
	}

	if s.Len() == 0 {
		o.Info("No tables")
		return nil
	}

	for i, t := range s.Tables() {
		if i > 0 {
			fmt.Fprintln(o.writer)
		}
		if o.format == FormatMarkdown {
			fmt.Fprintf(o.writer, "### `%s`\n\n", t.Name)
		} else {
			fmt.Fprintln(o.writer, o.style(Bold, "table "+t.Name))
		}

		tbl := NewTable(o, "Column", "Type", "Null", "Default", "Key")
		for _, c := range t.Columns() {
			tbl.AddRow(c.Name, c.Type, yesNo(c.Nullable), c.DefaultString(), columnKey(c))
		}
		tbl.Render()

		if len(t.Constraints) > 0 {
			fmt.Fprintln(o.writer)
			for _, c := range t.Constraints {
				fmt.Fprintf(o.writer, "%s %s\n", o.style(Muted, "constraint"), describeConstraint(c))
			}
		}
	}
	return nil
}

func columnKey(c schema.Column) string {
	var keys []string
	if c.PrimaryKey {
		keys = append(keys, "PK")
	}
	if c.Unique {
		keys = append(keys, "UNIQUE")
	}
	return strings.Join(keys, ",")
}

// schemaNode builds the YAML form of the schema document, keeping table and
// column order.
func schemaNode(s *schema.Schema) *yaml.Node {
	tables := &yaml.Node{Kind: yaml.MappingNode}
	for _, t := range s.Tables() {
		cols := &yaml.Node{Kind: yaml.MappingNode}
		for _, c := range t.Columns() {
			col := &yaml.Node{Kind: yaml.MappingNode}
			addPair(col, "type", scalar(c.Type))
			addPair(col, "nullable", boolNode(c.Nullable))
			if c.Default != nil {
				addPair(col, "default", scalar(*c.Default))
			}
			addPair(col, "primaryKey", boolNode(c.PrimaryKey))
			addPair(col, "unique", boolNode(c.Unique))
			addPair(cols, c.Name, col)
		}

		cons := &yaml.Node{Kind: yaml.SequenceNode}
		for _, c := range t.Constraints {
			n := &yaml.Node{}
			if err := n.Encode(c); err == nil {
				cons.Content = append(cons.Content, n)
			}
		}

		tbl := &yaml.Node{Kind: yaml.MappingNode}
		addPair(tbl, "columns", cols)
		addPair(tbl, "constraints", cons)
		addPair(tables, t.Name, tbl)
	}

	root := &yaml.Node{Kind: yaml.MappingNode}
	addPair(root, "tables", tables)
	return root
}

func addPair(m *yaml.Node, key string, val *yaml.Node) {
	m.Content = append(m.Content, scalar(key), val)
}

func scalar(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

func boolNode(b bool) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(b)}
}

// WarnSkipped warns on stderr when parsing ref dropped CREATE TABLE clauses.
func (o *Output) WarnSkipped(ref string, r *parser.Report) {
	if r == nil || r.Lossless() {
		return
	}
	o.Warning(fmt.Sprintf("%s: skipped %d clause(s); see 'schemadiff parse %s --report'", ref, len(r.Skipped), ref))
}

// RenderParseReport lists the parts of a SQL input that were skipped or
// ignored. Structured formats get the report itself.
func (o *Output) RenderParseReport(r *parser.Report) error {
	if r == nil {
		return nil
	}
	if ok, err := o.Data(r); ok {
		return err
	}

	if len(r.Skipped) > 0 {
		fmt.Fprintln(o.writer)
		tbl := NewTable(o, "Line", "Table", "Reason", "Clause")
		for _, sk := range r.Skipped {
			tbl.AddRow(strconv.Itoa(sk.Line), sk.Table, sk.Reason, sk.Clause)
		}
		tbl.Render()
	}

	counts := r.IgnoredCounts()
	if len(counts) > 0 {
		kinds := make([]parser.StatementKind, 0, len(counts))
		for k := range counts {
			kinds = append(kinds, k)
		}
		sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })

		parts := make([]string, len(kinds))
		for i, k := range kinds {
			parts[i] = fmt.Sprintf("%s %d", k, counts[k])
		}
		fmt.Fprintln(o.writer)
		fmt.Fprintln(o.writer, o.style(Muted, "ignored statements: "+strings.Join(parts, ", ")))
	}
	return nil
}

// RenderSnapshots lists stored snapshots.
func (o *Output) RenderSnapshots(snaps []*snapshot.Snapshot) error {
	if ok, err := o.Data(snaps); ok {
		return err
	}
	if len(snaps) == 0 {
		o.Info("No snapshots saved yet")
		return nil
	}

	tbl := NewTable(o, "Name", "Tables", "Fingerprint", "Created", "Source")
	for _, s := range snaps {
		tbl.AddRow(s.Name, strconv.Itoa(s.Tables), shortHash(s.Fingerprint), s.CreatedAt.Local().Format(time.DateTime), s.Source)
	}
	tbl.Render()
	return nil
}

// RenderSnapshot shows a snapshot's metadata followed by its schema.
func (o *Output) RenderSnapshot(snap *snapshot.Snapshot, s *schema.Schema) error {
	if o.Structured() {
		return o.RenderSchema(s)
	}

	o.KeyValue("name", snap.Name)
	o.KeyValue("source", snap.Source)
	o.KeyValue("fingerprint", snap.Fingerprint)
	o.KeyValue("created", snap.CreatedAt.Local().Format(time.DateTime))
	o.KeyValue("tables", strconv.Itoa(snap.Tables))
	fmt.Fprintln(o.writer)
	return o.RenderSchema(s)
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
