package ui

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/riftdata/schemadiff/internal/diff"
	"github.com/riftdata/schemadiff/internal/parser"
	"github.com/riftdata/schemadiff/internal/schema"
	"github.com/riftdata/schemadiff/internal/snapshot"
)

const (
	oldDDL = `CREATE TABLE users (id INT PRIMARY KEY, email VARCHAR(100), age INT);`
	newDDL = `CREATE TABLE users (id INT PRIMARY KEY, email VARCHAR(255) NOT NULL, phone TEXT);
CREATE TABLE orders (id INT);`
)

func newTestOutput(format OutputFormat) (*Output, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	o := NewOutput(format, true, false)
	o.SetWriter(&out)
	o.SetErrWriter(&errOut)
	return o, &out, &errOut
}

func usersReport() diff.Report {
	d := diff.Compare(parser.ParseSQL(oldDDL), parser.ParseSQL(newDDL))
	return diff.NewReport("old.sql", "new.sql", d)
}

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"", FormatText, false},
		{"text", FormatText, false},
		{"TABLE", FormatText, false},
		{"md", FormatMarkdown, false},
		{"markdown", FormatMarkdown, false},
		{"json", FormatJSON, false},
		{"yml", FormatYAML, false},
		{"xml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseOutputFormat(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseOutputFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseOutputFormat(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestOutputQuiet(t *testing.T) {
	var out, errOut bytes.Buffer
	o := NewOutput(FormatText, true, true)
	o.SetWriter(&out)
	o.SetErrWriter(&errOut)

	o.Print("hello")
	o.Success("done")
	o.Info("note")
	o.Warning("careful")
	o.Error("failed")

	if out.Len() != 0 {
		t.Errorf("quiet output wrote %q to stdout", out.String())
	}
	if got := errOut.String(); got != IconError+" failed\n" {
		t.Errorf("Error() = %q, want %q", got, IconError+" failed\n")
	}
}

func TestOutputStructuredSuppressesStatus(t *testing.T) {
	o, out, _ := newTestOutput(FormatJSON)
	o.Success("saved")
	o.Info("note")
	if out.Len() != 0 {
		t.Errorf("JSON output got status lines %q", out.String())
	}
}

func TestRenderDiffText(t *testing.T) {
	o, out, _ := newTestOutput(FormatText)
	if err := o.RenderDiff(usersReport()); err != nil {
		t.Fatalf("RenderDiff() error = %v", err)
	}

	want := []string{
		"Schema diff: old.sql → new.sql",
		"+ table orders",
		"~ table users",
		"    + column phone TEXT NULL",
		"    - column age INT NULL [BREAKING]",
		"    ~ column email: type VARCHAR(100) → VARCHAR(255); NULL → NOT NULL [BREAKING]",
		"1 table added, 0 tables removed, 1 table modified, 2 breaking changes",
	}
	got := out.String()
	for _, line := range want {
		if !strings.Contains(got, line+"\n") {
			t.Errorf("RenderDiff() output missing line %q\n%s", line, got)
		}
	}
}

func TestRenderDiffEmpty(t *testing.T) {
	s := parser.ParseSQL(oldDDL)
	r := diff.NewReport("a.sql", "b.sql", diff.Compare(s, s))

	for _, format := range []OutputFormat{FormatText, FormatMarkdown} {
		t.Run(string(format), func(t *testing.T) {
			o, out, _ := newTestOutput(format)
			if err := o.RenderDiff(r); err != nil {
				t.Fatalf("RenderDiff() error = %v", err)
			}
			if !strings.Contains(out.String(), "No differences") {
				t.Errorf("RenderDiff() = %q, want a no-differences note", out.String())
			}
		})
	}
}

func TestRenderDiffMarkdown(t *testing.T) {
	o, out, _ := newTestOutput(FormatMarkdown)
	if err := o.RenderDiff(usersReport()); err != nil {
		t.Fatalf("RenderDiff() error = %v", err)
	}

	got := out.String()
	for _, want := range []string{
		"## Schema diff: `old.sql` → `new.sql`",
		"Breaking changes:",
		"| `orders` | added |",
		"### `users`",
		"| Column | Change | Old | New | Breaking |",
		"| --- | --- | --- | --- | --- |",
		"| `email` | changed | VARCHAR(100) NULL | VARCHAR(255) NOT NULL | yes |",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("markdown output missing %q\n%s", want, got)
		}
	}
}

func TestRenderDiffJSON(t *testing.T) {
	o, out, _ := newTestOutput(FormatJSON)
	if err := o.RenderDiff(usersReport()); err != nil {
		t.Fatalf("RenderDiff() error = %v", err)
	}

	var got struct {
		OldFile  string       `json:"oldFile"`
		Breaking bool         `json:"breaking"`
		Summary  diff.Summary `json:"summary"`
		Removed  []string     `json:"removedTables"`
	}
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out.String())
	}
	if got.OldFile != "old.sql" || !got.Breaking {
		t.Errorf("report = %+v", got)
	}
	if got.Summary != (diff.Summary{AddedTables: 1, RemovedTables: 0, ModifiedTables: 1}) {
		t.Errorf("summary = %+v", got.Summary)
	}
	if got.Removed == nil {
		t.Error("removedTables should render as [] rather than null")
	}
}

func TestRenderDiffYAML(t *testing.T) {
	o, out, _ := newTestOutput(FormatYAML)
	if err := o.RenderDiff(usersReport()); err != nil {
		t.Fatalf("RenderDiff() error = %v", err)
	}

	var got map[string]interface{}
	if err := yaml.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("output is not YAML: %v", err)
	}
	if got["breaking"] != true {
		t.Errorf("breaking = %v, want true", got["breaking"])
	}
}

func TestRenderSchemaJSONRoundTrip(t *testing.T) {
	s := parser.ParseSQL(newDDL)
	o, out, _ := newTestOutput(FormatJSON)
	if err := o.RenderSchema(s); err != nil {
		t.Fatalf("RenderSchema() error = %v", err)
	}

	back, err := parser.ParseJSON(out.String())
	if err != nil {
		t.Fatalf("ParseJSON() error = %v", err)
	}
	if schema.Fingerprint(back) != schema.Fingerprint(s) {
		t.Errorf("round trip changed the schema\n%s", out.String())
	}
}

func TestRenderSchemaYAML(t *testing.T) {
	s := parser.ParseSQL(`CREATE TABLE users (id INT PRIMARY KEY, qty INT DEFAULT 0);
CREATE TABLE orders (id INT, user_id INT, FOREIGN KEY (user_id) REFERENCES users(id));`)
	o, out, _ := newTestOutput(FormatYAML)
	if err := o.RenderSchema(s); err != nil {
		t.Fatalf("RenderSchema() error = %v", err)
	}

	got := out.String()
	if strings.Index(got, "users:") > strings.Index(got, "orders:") {
		t.Errorf("table order not kept:\n%s", got)
	}

	var doc struct {
		Tables map[string]struct {
			Columns map[string]struct {
				Type     string  `yaml:"type"`
				Nullable bool    `yaml:"nullable"`
				Default  *string `yaml:"default"`
			} `yaml:"columns"`
			Constraints []struct {
				Type       string   `yaml:"type"`
				Columns    []string `yaml:"columns"`
				References string   `yaml:"references"`
			} `yaml:"constraints"`
		} `yaml:"tables"`
	}
	if err := yaml.Unmarshal(out.Bytes(), &doc); err != nil {
		t.Fatalf("output is not YAML: %v\n%s", err, got)
	}
	qty := doc.Tables["users"].Columns["qty"]
	if qty.Type != "INT" || qty.Default == nil || *qty.Default != "0" {
		t.Errorf("users.qty = %+v", qty)
	}
	cons := doc.Tables["orders"].Constraints
	if len(cons) != 1 || cons[0].Type != "FOREIGN KEY" || cons[0].References != "users(id)" {
		t.Errorf("orders constraints = %+v", cons)
	}
}

func TestRenderSchemaText(t *testing.T) {
	o, out, _ := newTestOutput(FormatText)
	if err := o.RenderSchema(parser.ParseSQL(oldDDL)); err != nil {
		t.Fatalf("RenderSchema() error = %v", err)
	}

	got := out.String()
	for _, want := range []string{
		"table users\n",
		"Column  Type          Null  Default  Key\n",
		"id      INT                          PK\n",
		"email   VARCHAR(100)  yes\n",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("text schema missing %q\n%s", want, got)
		}
	}
}

func TestTableMarkdownEscapesPipes(t *testing.T) {
	o, out, _ := newTestOutput(FormatMarkdown)
	tbl := NewTable(o, "Name", "Default")
	tbl.AddRow("flags", "'a|b'")
	tbl.Render()

	want := "| Name | Default |\n| --- | --- |\n| flags | 'a\\|b' |\n"
	if out.String() != want {
		t.Errorf("Render() = %q, want %q", out.String(), want)
	}
}

func TestRenderParseReport(t *testing.T) {
	_, report := parser.ParseSQLReport(`CREATE TABLE t (id INT, CONSTRAINT);
CREATE INDEX i ON t(id);
INSERT INTO t VALUES (1);`)

	o, out, _ := newTestOutput(FormatText)
	if err := o.RenderParseReport(report); err != nil {
		t.Fatalf("RenderParseReport() error = %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "unnamed CONSTRAINT clause") {
		t.Errorf("report missing skipped clause:\n%s", got)
	}
	if !strings.Contains(got, "ignored statements:") {
		t.Errorf("report missing ignored statements:\n%s", got)
	}
}

func TestWarnSkipped(t *testing.T) {
	_, lossy := parser.ParseSQLReport(`CREATE TABLE t (id INT, CONSTRAINT);`)
	_, clean := parser.ParseSQLReport(`CREATE TABLE t (id INT);`)

	tests := []struct {
		name   string
		report *parser.Report
		want   string
	}{
		{"lossy", lossy, IconWarning + " schema.sql: skipped 1 clause(s); see 'schemadiff parse schema.sql --report'\n"},
		{"lossless", clean, ""},
		{"no report", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, out, errOut := newTestOutput(FormatJSON)
			o.WarnSkipped("schema.sql", tt.report)
			if errOut.String() != tt.want {
				t.Errorf("WarnSkipped() stderr = %q, want %q", errOut.String(), tt.want)
			}
			if out.Len() != 0 {
				t.Errorf("WarnSkipped() wrote %q to stdout", out.String())
			}
		})
	}
}

func TestRenderSnapshots(t *testing.T) {
	o, out, _ := newTestOutput(FormatText)
	if err := o.RenderSnapshots(nil); err != nil {
		t.Fatalf("RenderSnapshots() error = %v", err)
	}
	if !strings.Contains(out.String(), "No snapshots") {
		t.Errorf("RenderSnapshots(nil) = %q", out.String())
	}

	out.Reset()
	snaps := []*snapshot.Snapshot{{
		Name:        "prod",
		Source:      "postgres://app:****@db/app",
		Fingerprint: strings.Repeat("ab", 32),
		Tables:      12,
		CreatedAt:   time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}}
	if err := o.RenderSnapshots(snaps); err != nil {
		t.Fatalf("RenderSnapshots() error = %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "prod") || !strings.Contains(got, "abababababab ") || strings.Contains(got, strings.Repeat("ab", 32)) {
		t.Errorf("RenderSnapshots() = %q", got)
	}
}

func TestProgressModel(t *testing.T) {
	m := initialProgressModel()
	m.Update(progressUpdateMsg{label: "postgres://db/app"})
	if view := m.View(); !strings.Contains(view, "postgres://db/app") {
		t.Errorf("View() before count = %q", view)
	}

	m.Update(progressUpdateMsg{label: "postgres://db/app", done: 1, total: 4, table: "orders"})
	if view := m.View(); !strings.Contains(view, "orders") {
		t.Errorf("View() mid-way = %q", view)
	}

	m.Update(progressUpdateMsg{label: "mysql://db/shop", done: 2, total: 2, table: "users"})
	m.Update(progressDoneMsg{})
	view := m.View()
	if !strings.Contains(view, "mysql://db/shop (2 tables)") {
		t.Errorf("View() after done = %q", view)
	}
	if strings.Contains(view, "postgres://db/app") {
		t.Errorf("unfinished source left in final view: %q", view)
	}
	if len(m.sources) != 2 {
		t.Errorf("sources = %d, want 2", len(m.sources))
	}
}

func TestProgressDisabled(t *testing.T) {
	o, _, errOut := newTestOutput(FormatText)
	p := NewProgress(o)
	p.Start()
	p.Track("sqlite://app.db")(1, 1, "users")
	p.Stop()
	if errOut.Len() != 0 {
		t.Errorf("non-terminal progress wrote %q", errOut.String())
	}
}
