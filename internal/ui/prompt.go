package ui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// PromptTheme returns the schemadiff theme for prompts
func PromptTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorPrimary)

	t.Focused.Description = lipgloss.NewStyle().
		Foreground(ColorMuted)

	t.Focused.SelectSelector = lipgloss.NewStyle().
		Foreground(ColorPrimary).
		SetString("> ")

	t.Focused.SelectedOption = lipgloss.NewStyle().
		Foreground(ColorPrimary).
		Bold(true)

	t.Focused.UnselectedOption = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888888"))

	return t
}

// Confirm prompts for yes/no confirmation
func Confirm(message string, defaultValue bool) (bool, error) {
	result := defaultValue

	err := huh.NewConfirm().
		Title(message).
		Affirmative("Yes").
		Negative("No").
		Value(&result).
		WithTheme(PromptTheme()).
		Run()

	return result, err
}

// ConfigDetails holds the answers of the config init form
type ConfigDetails struct {
	OutputFormat   string
	LogLevel       string
	DataDir        string
	PostgresSchema string
	FailOnBreaking bool
}

// ConfigForm asks for the settings written by "config init", starting from
// defaults.
func ConfigForm(defaults ConfigDetails) (*ConfigDetails, error) {
	d := defaults

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Output format").
				Options(
					huh.NewOption("Text", string(FormatText)),
					huh.NewOption("Markdown", string(FormatMarkdown)),
					huh.NewOption("JSON", string(FormatJSON)),
					huh.NewOption("YAML", string(FormatYAML)),
				).
				Value(&d.OutputFormat),

			huh.NewSelect[string]().
				Title("Log level").
				Options(
					huh.NewOption("Debug", "debug"),
					huh.NewOption("Info", "info"),
					huh.NewOption("Warn", "warn"),
					huh.NewOption("Error", "error"),
				).
				Value(&d.LogLevel),

			huh.NewInput().
				Title("Data directory").
				Description("Where snapshots are stored").
				Value(&d.DataDir).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("data directory is required")
					}
					return nil
				}),

			huh.NewInput().
				Title("PostgreSQL schema").
				Description("Schema read when introspecting PostgreSQL").
				Value(&d.PostgresSchema),

			huh.NewConfirm().
				Title("Fail on breaking changes by default?").
				Value(&d.FailOnBreaking),
		),
	).WithTheme(PromptTheme())

	if err := form.Run(); err != nil {
		return nil, err
	}

	return &d, nil
}
