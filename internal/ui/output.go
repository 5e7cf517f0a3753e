package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"
)

// OutputFormat represents the output format
type OutputFormat string

const (
	FormatText     OutputFormat = "text"
	FormatMarkdown OutputFormat = "markdown"
	FormatJSON     OutputFormat = "json"
	FormatYAML     OutputFormat = "yaml"
)

// ParseOutputFormat accepts the format names used by --output and the
// config file. "md" is short for markdown; "" means text.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch strings.ToLower(s) {
	case "", "text", "table":
		return FormatText, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, markdown, json or yaml)", s)
	}
}

// Output handles formatted output
type Output struct {
	format    OutputFormat
	writer    io.Writer
	errWriter io.Writer
	noColor   bool
	quiet     bool
}

// NewOutput creates a new Output instance
func NewOutput(format OutputFormat, noColor, quiet bool) *Output {
	return &Output{
		format:    format,
		writer:    os.Stdout,
		errWriter: os.Stderr,
		noColor:   noColor,
		quiet:     quiet,
	}
}

// SetWriter sets the output writer
func (o *Output) SetWriter(w io.Writer) {
	o.writer = w
}

// SetErrWriter sets where errors go
func (o *Output) SetErrWriter(w io.Writer) {
	o.errWriter = w
}

// Format returns the configured output format
func (o *Output) Format() OutputFormat {
	return o.format
}

// Structured reports whether output is machine-readable, in which case
// status lines are suppressed so stdout stays parseable.
func (o *Output) Structured() bool {
	return o.format == FormatJSON || o.format == FormatYAML
}

// Writer returns the underlying output writer
func (o *Output) Writer() io.Writer {
	return o.writer
}

func (o *Output) style(s lipgloss.Style, text string) string {
	if o.noColor {
		return text
	}
	return s.Render(text)
}

// Print prints a message
func (o *Output) Print(msg string) {
	if o.quiet {
		return
	}
	fmt.Fprintln(o.writer, msg)
}

// Printf prints a formatted message
func (o *Output) Printf(format string, args ...interface{}) {
	if o.quiet {
		return
	}
	fmt.Fprintf(o.writer, format+"\n", args...)
}

// Success prints a success message
func (o *Output) Success(msg string) {
	if o.quiet || o.Structured() {
		return
	}
	fmt.Fprintln(o.writer, o.style(Success, IconSuccess)+" "+msg)
}

// Error prints an error message. It is never suppressed.
func (o *Output) Error(msg string) {
	fmt.Fprintln(o.errWriter, o.style(Error, IconError)+" "+o.style(Error, msg))
}

// Warning prints a warning message to stderr
func (o *Output) Warning(msg string) {
	if o.quiet {
		return
	}
	fmt.Fprintln(o.errWriter, o.style(Warning, IconWarning)+" "+o.style(Warning, msg))
}

// Info prints an info message
func (o *Output) Info(msg string) {
	if o.quiet || o.Structured() {
		return
	}
	fmt.Fprintln(o.writer, o.style(Info, IconInfo)+" "+msg)
}

// Title prints a title
func (o *Output) Title(msg string) {
	if o.quiet {
		return
	}
	if o.noColor {
		fmt.Fprintf(o.writer, "%s\n%s\n\n", msg, strings.Repeat("=", lipgloss.Width(msg)))
		return
	}
	fmt.Fprintln(o.writer, Title.Render(msg))
}

// KeyValue prints a key-value pair
func (o *Output) KeyValue(key, value string) {
	if o.quiet {
		return
	}
	fmt.Fprintf(o.writer, "  %s: %s\n", o.style(Muted, key), value)
}

// Box prints content in a box
func (o *Output) Box(content string) {
	if o.quiet {
		return
	}
	if o.noColor {
		fmt.Fprintln(o.writer, content)
		return
	}
	fmt.Fprintln(o.writer, BoxStyle.Render(content))
}

// JSON outputs data as JSON
func (o *Output) JSON(data interface{}) error {
	enc := json.NewEncoder(o.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// YAML outputs data as YAML
func (o *Output) YAML(data interface{}) error {
	enc := yaml.NewEncoder(o.writer)
	enc.SetIndent(2)
	if err := enc.Encode(data); err != nil {
		return err
	}
	return enc.Close()
}

// Data outputs data in the configured structured format. It returns false
// for text and markdown, which the caller renders itself.
func (o *Output) Data(data interface{}) (bool, error) {
	switch o.format {
	case FormatJSON:
		return true, o.JSON(data)
	case FormatYAML:
		return true, o.YAML(data)
	default:
		return false, nil
	}
}

// IsInteractive returns true if the output is to a terminal
func (o *Output) IsInteractive() bool {
	return isTerminal(o.writer)
}

// IsInteractiveErr returns true if stderr, where spinners and progress bars
// draw, is a terminal
func (o *Output) IsInteractiveErr() bool {
	return !o.quiet && isTerminal(o.errWriter)
}

func isTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		stat, err := f.Stat()
		if err != nil {
			return false
		}
		return (stat.Mode() & os.ModeCharDevice) != 0
	}
	return false
}

// Table is a simple aligned table. In markdown mode it renders as a pipe
// table.
type Table struct {
	headers []string
	rows    [][]string
	output  *Output
}

// NewTable creates a new table
func NewTable(output *Output, headers ...string) *Table {
	return &Table{
		headers: headers,
		rows:    make([][]string, 0),
		output:  output,
	}
}

// AddRow adds a row to the table
func (t *Table) AddRow(cols ...string) {
	t.rows = append(t.rows, cols)
}

// Render renders the table
func (t *Table) Render() {
	if t.output.format == FormatMarkdown {
		t.renderMarkdown()
		return
	}

	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.rows {
		for i, col := range row {
			if i < len(widths) && lipgloss.Width(col) > widths[i] {
				widths[i] = lipgloss.Width(col)
			}
		}
	}

	headerCells := make([]string, len(t.headers))
	for i, h := range t.headers {
		headerCells[i] = t.output.style(HeaderStyle, padRight(h, widths[i]))
	}
	fmt.Fprintln(t.output.writer, strings.TrimRight(strings.Join(headerCells, "  "), " "))

	for _, row := range t.rows {
		cells := make([]string, len(row))
		for i, col := range row {
			if i < len(widths) {
				col = padRight(col, widths[i])
			}
			cells[i] = col
		}
		fmt.Fprintln(t.output.writer, strings.TrimRight(strings.Join(cells, "  "), " "))
	}
}

func (t *Table) renderMarkdown() {
	fmt.Fprintf(t.output.writer, "| %s |\n", strings.Join(escapeCells(t.headers), " | "))
	seps := make([]string, len(t.headers))
	for i := range seps {
		seps[i] = "---"
	}
	fmt.Fprintf(t.output.writer, "| %s |\n", strings.Join(seps, " | "))
	for _, row := range t.rows {
		fmt.Fprintf(t.output.writer, "| %s |\n", strings.Join(escapeCells(row), " | "))
	}
}

func escapeCells(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = strings.ReplaceAll(c, "|", `\|`)
	}
	return out
}

func padRight(s string, width int) string {
	w := lipgloss.Width(s)
	if w >= width {
		return s
	}
	return s + strings.Repeat(" ", width-w)
}
