package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/riftdata/schemadiff/internal/api"
	"github.com/riftdata/schemadiff/internal/config"
	"github.com/riftdata/schemadiff/internal/diff"
	"github.com/riftdata/schemadiff/internal/introspect"
	"github.com/riftdata/schemadiff/internal/parser"
	"github.com/riftdata/schemadiff/internal/schema"
	"github.com/riftdata/schemadiff/internal/snapshot"
	"github.com/riftdata/schemadiff/internal/source"
	"github.com/riftdata/schemadiff/internal/ui"
	"github.com/riftdata/schemadiff/pkg/logger"
)

// Build-time variables
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

// Global flags
var (
	cfgFile string
	noColor bool
	quiet   bool
	verbose bool
	output  string
)

// Global instances
var (
	cfg *config.Config
	out *ui.Output
)

// errBreakingChanges is returned by diff when --fail-on-breaking is set and
// the report still contains breaking changes. It maps to exit code 2.
var errBreakingChanges = errors.New("breaking changes found")

const (
	exitOK       = 0
	exitError    = 1
	exitBreaking = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if errors.Is(err, errBreakingChanges) {
			return exitBreaking
		}
		if out != nil {
			out.Error(err.Error())
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		return exitError
	}
	return exitOK
}

var rootCmd = &cobra.Command{
	Use:   "schemadiff",
	Short: "Compare database schemas and flag breaking changes",
	Long: `schemadiff compares two database schemas and reports added, removed and
changed tables, columns and constraints. Column changes that can break
existing readers or writers are flagged as breaking.

A schema can come from a SQL file, a JSON schema document, stdin (-), a live
database (postgres://, mysql://, sqlite://) or a saved snapshot (@name).

Get started:
  schemadiff diff old.sql new.sql
  schemadiff diff @prod postgres://localhost:5432/app --fail-on-breaking
  schemadiff snapshot save prod postgres://prod-db/app`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip for completion and help commands
		if cmd.Name() == "completion" || cmd.Name() == "help" {
			return nil
		}

		// Load config (don't fail for config init, which writes a new one)
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			if cmd.Name() != "init" {
				out = ui.NewOutput(ui.FormatText, noColor, quiet)
				return fmt.Errorf("loading config: %w", err)
			}
			cfg = config.DefaultConfig()
		}

		// Flags win over the config file
		format := cfg.Output.Format
		if cmd.Flags().Changed("output") {
			format = output
		}
		of, err := ui.ParseOutputFormat(format)
		if err != nil {
			out = ui.NewOutput(ui.FormatText, noColor, quiet)
			return err
		}
		out = ui.NewOutput(of, noColor || !cfg.Output.Color, quiet)

		logger.SetFormatter(cfg.Log.Format)
		logger.SetLevel(cfg.Log.Level)
		if verbose {
			logger.SetLevel("debug")
		}
		if cfg.File != "" {
			logger.Debug("loaded config", "file", cfg.File)
		}

		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		info := map[string]string{
			"version":   version,
			"commit":    commit,
			"buildTime": buildTime,
			"goVersion": runtime.Version(),
			"os":        runtime.GOOS,
			"arch":      runtime.GOARCH,
		}
		if ok, err := out.Data(info); ok {
			return err
		}

		out.Title("schemadiff")
		out.KeyValue("Version", version)
		out.KeyValue("Commit", commit)
		out.KeyValue("Built", buildTime)
		out.KeyValue("Go", runtime.Version())
		out.KeyValue("OS/Arch", fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH))
		return nil
	},
}

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion scripts",
	Long: `Generate shell completion scripts for schemadiff.

To load completions:

Bash:
  $ source <(schemadiff completion bash)
  # To load completions for each session, execute once:
  # Linux:
  $ schemadiff completion bash > /etc/bash_completion.d/schemadiff
  # macOS:
  $ schemadiff completion bash > $(brew --prefix)/etc/bash_completion.d/schemadiff

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ schemadiff completion zsh > "${fpath[1]}/_schemadiff"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ schemadiff completion fish | source
  # To load completions for each session, execute once:
  $ schemadiff completion fish > ~/.config/fish/completions/schemadiff.fish

PowerShell:
  PS> schemadiff completion powershell | Out-String | Invoke-Expression
  # To load completions for every new session, run:
  PS> schemadiff completion powershell > schemadiff.ps1
  # and source this file from your PowerShell profile.
`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch args[0] {
		case "bash":
			return cmd.Root().GenBashCompletion(os.Stdout)
		case "zsh":
			return cmd.Root().GenZshCompletion(os.Stdout)
		case "fish":
			return cmd.Root().GenFishCompletion(os.Stdout, true)
		case "powershell":
			return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
		}
		return nil
	},
}

var diffCmd = &cobra.Command{
	Use:   "diff <old> <new>",
	Short: "Compare two schemas",
	Long: `Compare an old and a new schema and report what changed.

Each side is a source: a .sql or .json file, - for stdin, a database URL
(postgres://, mysql://, sqlite://) or @name for a saved snapshot. ${VAR}
references are expanded from the environment and .env.

A column change is breaking when its type changes or it goes from nullable
to NOT NULL. Removing a column or a table is always breaking.`,
	Example: `  schemadiff diff v1.sql v2.sql
  schemadiff diff old.json - --format json < new.json
  schemadiff diff @prod 'postgres://${PGUSER}@localhost/app' --breaking-only
  schemadiff diff old.sql new.sql --fail-on-breaking -o markdown`,
	Args:              cobra.ExactArgs(2),
	RunE:              runDiff,
	ValidArgsFunction: completeSources,
}

var parseCmd = &cobra.Command{
	Use:   "parse <source>",
	Short: "Parse a schema and print it",
	Long: `Parse a source and print the schema it describes. With -o json the
output is a JSON schema document that schemadiff can read back.

--report lists the statements and table parts that were skipped while
parsing SQL instead.`,
	Example: `  schemadiff parse schema.sql
  schemadiff parse schema.sql -o json > schema.json
  schemadiff parse schema.sql --report`,
	Args:              cobra.ExactArgs(1),
	RunE:              runParse,
	ValidArgsFunction: completeSources,
}

var fingerprintCmd = &cobra.Command{
	Use:   "fingerprint <source>",
	Short: "Print a schema's fingerprint",
	Long: `Print a BLAKE3 fingerprint of the canonical form of a schema. Two
sources with the same fingerprint produce an empty diff.`,
	Example: `  schemadiff fingerprint schema.sql
  schemadiff fingerprint postgres://localhost/app --short`,
	Args:              cobra.ExactArgs(1),
	RunE:              runFingerprint,
	ValidArgsFunction: completeSources,
}

var snapshotCmd = &cobra.Command{
	Use:     "snapshot",
	Aliases: []string{"snap"},
	Short:   "Manage saved schema snapshots",
	Long: `Save schemas under a name so later diffs can refer to them as @name.
Snapshots are stored under the configured data directory.`,
}

var snapshotSaveCmd = &cobra.Command{
	Use:   "save <name> <source>",
	Short: "Save a schema as a snapshot",
	Example: `  schemadiff snapshot save prod postgres://prod-db/app
  schemadiff snapshot save v1.2 schema.sql --force`,
	Args: cobra.ExactArgs(2),
	RunE: runSnapshotSave,
}

var snapshotListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List saved snapshots",
	Args:    cobra.NoArgs,
	RunE:    runSnapshotList,
}

var snapshotShowCmd = &cobra.Command{
	Use:               "show <name>",
	Short:             "Show a snapshot and its schema",
	Args:              cobra.ExactArgs(1),
	RunE:              runSnapshotShow,
	ValidArgsFunction: completeSnapshots,
}

var snapshotDeleteCmd = &cobra.Command{
	Use:     "delete <name>",
	Aliases: []string{"rm", "remove"},
	Short:   "Delete a snapshot",
	Long:    `Delete a saved snapshot. This cannot be undone.`,
	Example: `  schemadiff snapshot delete prod
  schemadiff snapshot delete prod --force`,
	Args:              cobra.ExactArgs(1),
	RunE:              runSnapshotDelete,
	ValidArgsFunction: completeSnapshots,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Serve parsing and diffing over HTTP. Saved snapshots can be listed and
diffed against a posted schema.`,
	Example: `  schemadiff serve
  schemadiff serve --listen 127.0.0.1:9090`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `View and manage schemadiff configuration.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runConfigShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show configuration file path",
	Run: func(cmd *cobra.Command, args []string) {
		if cfg.File != "" {
			fmt.Println(cfg.File)
			return
		}
		out.Info(fmt.Sprintf("No config file found; config init writes %s", config.DefaultPath()))
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file",
	Long: `Write a config file. On a terminal a form asks for the main settings;
otherwise the defaults are written.`,
	Example: `  schemadiff config init
  schemadiff config init --config ./schemadiff.yaml --force`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

// Flag variables
var (
	breakingOnly   bool
	failOnBreaking bool
	inputFormat    string
	showReport     bool
	shortPrint     bool
	forceSave      bool
	forceDelete    bool
	forceInit      bool
	listenAddr     string
)

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.schemadiff/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable color output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-essential output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "text", "output format (text, markdown, json, yaml)")

	// source flags
	for _, c := range []*cobra.Command{diffCmd, parseCmd, fingerprintCmd, snapshotSaveCmd} {
		c.Flags().StringVar(&inputFormat, "format", "", "schema format for stdin or to override the file extension (sql, json)")
	}

	// diff flags
	diffCmd.Flags().BoolVar(&breakingOnly, "breaking-only", false, "show only breaking column changes")
	diffCmd.Flags().BoolVar(&failOnBreaking, "fail-on-breaking", false, "exit with code 2 when breaking changes are found")

	// parse flags
	parseCmd.Flags().BoolVar(&showReport, "report", false, "list the parts of the SQL that were skipped")

	// fingerprint flags
	fingerprintCmd.Flags().BoolVar(&shortPrint, "short", false, "print the 12 character short form")

	// snapshot flags
	snapshotSaveCmd.Flags().BoolVarP(&forceSave, "force", "f", false, "replace an existing snapshot")
	snapshotDeleteCmd.Flags().BoolVarP(&forceDelete, "force", "f", false, "skip confirmation")

	// serve flags
	serveCmd.Flags().StringVar(&listenAddr, "listen", "", "API listen address (default from config, :8080)")

	// config flags
	configInitCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "overwrite an existing config file")

	// subcommands
	snapshotCmd.AddCommand(snapshotSaveCmd)
	snapshotCmd.AddCommand(snapshotListCmd)
	snapshotCmd.AddCommand(snapshotShowCmd)
	snapshotCmd.AddCommand(snapshotDeleteCmd)

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configInitCmd)

	// Add commands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(completionCmd)
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(fingerprintCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)

	// Register completion functions
	err := rootCmd.RegisterFlagCompletionFunc("output", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"text", "markdown", "json", "yaml"}, cobra.ShellCompDirectiveNoFileComp
	})
	if err != nil {
		return
	}

	for _, c := range []*cobra.Command{diffCmd, parseCmd, fingerprintCmd, snapshotSaveCmd} {
		err = c.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			return []string{"sql", "json"}, cobra.ShellCompDirectiveNoFileComp
		})
		if err != nil {
			return
		}
	}
}

// completeSnapshots completes saved snapshot names. Completion runs without
// PersistentPreRunE, so it loads the config itself.
func completeSnapshots(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	c, err := config.Load(cfgFile)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	store, err := snapshot.NewStore(c.Storage.DataDir)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}

	var names []string
	for _, s := range store.List() {
		names = append(names, s.Name)
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}

// completeSources offers @snapshot names once the user has typed "@", and
// files otherwise.
func completeSources(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(toComplete) == 0 || toComplete[0] != '@' {
		return nil, cobra.ShellCompDirectiveDefault
	}
	names, directive := completeSnapshots(cmd, nil, toComplete)
	for i, n := range names {
		names[i] = "@" + n
	}
	return names, directive
}

// Helpers

func openStore() (*snapshot.Store, error) {
	return snapshot.NewStore(cfg.Storage.DataDir)
}

// sourceOptions builds the options shared by every command that reads a
// source. The snapshot store is opened only when a ref needs it.
func sourceOptions(refs ...string) (source.Options, error) {
	opts := source.Options{
		Introspect: introspect.Options{PostgresSchema: cfg.Introspect.PostgresSchema},
		Timeout:    cfg.Introspect.Timeout,
	}

	if inputFormat != "" {
		f, err := parser.ParseFormat(inputFormat)
		if err != nil {
			return opts, err
		}
		opts.Format = f
	}

	for _, ref := range refs {
		if source.Classify(ref) == source.KindSnapshot {
			store, err := openStore()
			if err != nil {
				return opts, err
			}
			opts.Snapshots = store
			break
		}
	}
	return opts, nil
}

// loadSources resolves refs, drawing a progress display on stderr while
// databases are introspected.
func loadSources(ctx context.Context, refs ...string) ([]*source.Loaded, error) {
	opts, err := sourceOptions(refs...)
	if err != nil {
		return nil, err
	}

	if anyDatabase(refs) {
		progress := ui.NewProgress(out)
		opts.Progress = progress.Track
		progress.Start()
		defer progress.Stop()
	}

	var loaded []*source.Loaded
	if len(refs) == 2 {
		oldSrc, newSrc, err := source.LoadPair(ctx, refs[0], refs[1], opts)
		if err != nil {
			return nil, err
		}
		loaded = []*source.Loaded{oldSrc, newSrc}
	} else {
		for _, ref := range refs {
			l, err := source.Load(ctx, ref, opts)
			if err != nil {
				return nil, err
			}
			loaded = append(loaded, l)
		}
	}

	if !showReport {
		for _, l := range loaded {
			out.WarnSkipped(l.Ref, l.Report)
		}
	}
	return loaded, nil
}

func anyDatabase(refs []string) bool {
	for _, ref := range refs {
		if source.Classify(source.Expand(ref)) == source.KindDatabase {
			return true
		}
	}
	return false
}

// Command implementations

func runDiff(cmd *cobra.Command, args []string) error {
	if !cmd.Flags().Changed("breaking-only") {
		breakingOnly = cfg.Diff.BreakingOnly
	}
	if !cmd.Flags().Changed("fail-on-breaking") {
		failOnBreaking = cfg.Diff.FailOnBreaking
	}

	loaded, err := loadSources(cmd.Context(), args[0], args[1])
	if err != nil {
		return err
	}
	oldSrc, newSrc := loaded[0], loaded[1]

	d := diff.Compare(oldSrc.Schema, newSrc.Schema)
	if breakingOnly {
		d = diff.FilterBreakingOnly(d)
	}
	report := diff.NewReport(oldSrc.Ref, newSrc.Ref, d)

	logger.Debug("diff complete",
		"old", oldSrc.Ref,
		"new", newSrc.Ref,
		"tables_changed", len(report.ChangedTables),
		"breaking", report.Breaking,
	)

	if err := out.RenderDiff(report); err != nil {
		return err
	}

	if failOnBreaking && report.Breaking {
		return errBreakingChanges
	}
	return nil
}

func runParse(cmd *cobra.Command, args []string) error {
	loaded, err := loadSources(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	src := loaded[0]

	if showReport {
		if src.Report == nil {
			return fmt.Errorf("%s is not SQL; --report only applies to SQL sources", src.Ref)
		}
		return out.RenderParseReport(src.Report)
	}
	return out.RenderSchema(src.Schema)
}

func runFingerprint(cmd *cobra.Command, args []string) error {
	loaded, err := loadSources(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	src := loaded[0]

	fp := schema.Fingerprint(src.Schema)
	if shortPrint {
		fp = schema.ShortFingerprint(src.Schema)
	}

	ok, err := out.Data(map[string]interface{}{
		"source":      src.Ref,
		"fingerprint": fp,
		"tables":      src.Schema.Len(),
	})
	if ok {
		return err
	}
	fmt.Fprintln(out.Writer(), fp)
	return nil
}

func runSnapshotSave(cmd *cobra.Command, args []string) error {
	name, ref := args[0], args[1]
	if err := snapshot.ValidateName(name); err != nil {
		return err
	}

	loaded, err := loadSources(cmd.Context(), ref)
	if err != nil {
		return err
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	snap, err := store.Save(name, loaded[0].Ref, loaded[0].Schema, forceSave)
	if err != nil {
		if errors.Is(err, snapshot.ErrSnapshotExists) {
			return fmt.Errorf("snapshot %q already exists (use --force to replace it)", name)
		}
		return err
	}

	if ok, err := out.Data(snap); ok {
		return err
	}
	out.Success(fmt.Sprintf("Snapshot '%s' saved (%d tables)", snap.Name, snap.Tables))
	out.Print("")
	out.Info("Diff against it with:")
	out.Print(fmt.Sprintf("  schemadiff diff @%s <source>", snap.Name))
	return nil
}

func runSnapshotList(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	return out.RenderSnapshots(store.List())
}

func runSnapshotShow(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	sch, snap, err := store.Load(args[0])
	if err != nil {
		return err
	}
	return out.RenderSnapshot(snap, sch)
}

func runSnapshotDelete(cmd *cobra.Command, args []string) error {
	name := args[0]

	store, err := openStore()
	if err != nil {
		return err
	}
	if !store.Exists(name) {
		return fmt.Errorf("snapshot %q: %w", name, snapshot.ErrSnapshotNotFound)
	}

	if !forceDelete {
		if !out.IsInteractive() {
			return fmt.Errorf("refusing to delete snapshot %q without --force when not on a terminal", name)
		}
		confirmed, err := ui.Confirm(
			fmt.Sprintf("Delete snapshot '%s'? This cannot be undone.", name),
			false,
		)
		if err != nil {
			return err
		}
		if !confirmed {
			out.Info("Cancelled")
			return nil
		}
	}

	if err := store.Delete(name); err != nil {
		return err
	}
	out.Success(fmt.Sprintf("Snapshot '%s' deleted", name))
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	// Override config with flags
	if listenAddr != "" {
		cfg.API.ListenAddr = listenAddr
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	store, err := openStore()
	if err != nil {
		return err
	}

	server := api.New(&api.Config{
		ListenAddr:   cfg.API.ListenAddr,
		ReadTimeout:  cfg.API.ReadTimeout,
		WriteTimeout: cfg.API.WriteTimeout,
		MaxBodyBytes: cfg.API.MaxBodyBytes,
	}, store)
	if err := server.Start(); err != nil {
		return err
	}

	out.Title("schemadiff")
	box := fmt.Sprintf(
		"%s API:        http://%s\n"+
			"%s Snapshots:  %s",
		ui.IconInfo, server.Addr(),
		ui.IconDatabase, store.Dir(),
	)
	out.Box(box)

	out.Print("")
	out.Info("Ready to accept requests")
	out.Print("")
	out.Print(ui.Muted.Render("Press Ctrl+C to stop"))

	<-cmd.Context().Done()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Stop(ctx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}

	out.Print("")
	out.Success("Shutdown complete")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	if cfg == nil {
		return fmt.Errorf("no configuration loaded")
	}
	if ok, err := out.Data(cfg); ok {
		return err
	}
	return out.YAML(cfg)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := cfgFile
	if path == "" {
		path = config.DefaultPath()
	}
	if _, err := os.Stat(path); err == nil && !forceInit {
		return fmt.Errorf("%s already exists (use --force to overwrite it)", path)
	}

	newCfg := config.DefaultConfig()

	if out.IsInteractive() {
		out.Title("Configure schemadiff")
		details, err := ui.ConfigForm(ui.ConfigDetails{
			OutputFormat:   newCfg.Output.Format,
			LogLevel:       newCfg.Log.Level,
			DataDir:        newCfg.Storage.DataDir,
			PostgresSchema: newCfg.Introspect.PostgresSchema,
			FailOnBreaking: newCfg.Diff.FailOnBreaking,
		})
		if err != nil {
			return err
		}
		newCfg.Output.Format = details.OutputFormat
		newCfg.Log.Level = details.LogLevel
		newCfg.Storage.DataDir = details.DataDir
		newCfg.Introspect.PostgresSchema = details.PostgresSchema
		newCfg.Diff.FailOnBreaking = details.FailOnBreaking
	}

	if err := newCfg.Validate(); err != nil {
		return err
	}
	if err := newCfg.Save(path); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	out.Success("Config written")
	out.Print("")
	out.KeyValue("Config", path)
	out.KeyValue("Data", newCfg.Storage.DataDir)
	return nil
}
