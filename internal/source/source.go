// Package source turns a source reference (a file, "-", a database DSN or a
// saved @snapshot) into a schema.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/riftdata/schemadiff/internal/introspect"
	"github.com/riftdata/schemadiff/internal/parser"
	"github.com/riftdata/schemadiff/internal/schema"
	"github.com/riftdata/schemadiff/internal/snapshot"
	"github.com/riftdata/schemadiff/pkg/logger"
)

// Kind says where a schema came from.
type Kind string

const (
	KindFile     Kind = "file"
	KindStdin    Kind = "stdin"
	KindDatabase Kind = "database"
	KindSnapshot Kind = "snapshot"
)

var ErrNoSnapshotStore = errors.New("no snapshot store configured")

// Options control how references are resolved.
type Options struct {
	// Format overrides format detection. Files default to their extension,
	// stdin defaults to SQL.
	Format parser.Format
	Stdin  io.Reader

	Snapshots  *snapshot.Store
	Introspect introspect.Options
	// Progress, when set, supplies a progress callback for each database
	// being introspected, keyed by its redacted reference.
	Progress func(ref string) introspect.ProgressFunc
	// Timeout bounds database introspection. Zero means no limit.
	Timeout time.Duration
}

// Loaded is a resolved source.
type Loaded struct {
	Ref    string // display name, passwords redacted
	Kind   Kind
	Schema *schema.Schema
	Report *parser.Report // SQL inputs only
}

var envRefRe = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Expand replaces ${VAR} references with environment values. A bare $ is
// left alone so passwords containing one survive.
func Expand(ref string) string {
	return envRefRe.ReplaceAllStringFunc(ref, func(m string) string {
		return os.Getenv(m[2 : len(m)-1])
	})
}

// Classify reports which kind of source ref names.
func Classify(ref string) Kind {
	switch {
	case ref == "-":
		return KindStdin
	case strings.HasPrefix(ref, "@"):
		return KindSnapshot
	case introspect.IsDSN(ref):
		return KindDatabase
	default:
		return KindFile
	}
}

// Load resolves ref into a schema.
func Load(ctx context.Context, ref string, opts Options) (*Loaded, error) {
	ref = Expand(ref)

	switch Classify(ref) {
	case KindStdin:
		return loadStdin(opts)
	case KindSnapshot:
		return loadSnapshot(ref, opts)
	case KindDatabase:
		return loadDatabase(ctx, ref, opts)
	default:
		return loadFile(ref, opts)
	}
}

// LoadPair resolves the old and new references concurrently.
func LoadPair(ctx context.Context, oldRef, newRef string, opts Options) (*Loaded, *Loaded, error) {
	if oldRef == "-" && newRef == "-" {
		return nil, nil, fmt.Errorf("only one source can be read from stdin")
	}

	var oldSrc, newSrc *Loaded
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		oldSrc, err = Load(gctx, oldRef, opts)
		return err
	})
	g.Go(func() error {
		var err error
		newSrc, err = Load(gctx, newRef, opts)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return oldSrc, newSrc, nil
}

func loadFile(path string, opts Options) (*Loaded, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	format := opts.Format
	if format == "" {
		format = parser.FormatFromPath(path)
	}
	return parseText(path, KindFile, format, string(data))
}

func loadStdin(opts Options) (*Loaded, error) {
	r := opts.Stdin
	if r == nil {
		r = os.Stdin
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}

	format := opts.Format
	if format == "" {
		format = parser.FormatSQL
	}
	return parseText("stdin", KindStdin, format, string(data))
}

func parseText(name string, kind Kind, format parser.Format, text string) (*Loaded, error) {
	l := &Loaded{Ref: name, Kind: kind}

	switch format {
	case parser.FormatJSON:
		s, err := parser.ParseJSON(text)
		if err != nil {
			return nil, fmt.Errorf("invalid JSON schema in %s: %w", name, err)
		}
		l.Schema = s
	default:
		s, report := parser.ParseSQLReport(text)
		for _, sk := range report.Skipped {
			logger.Debug("skipped part of schema", "source", name, "table", sk.Table, "line", sk.Line, "reason", sk.Reason)
		}
		l.Schema, l.Report = s, report
	}
	return l, nil
}

func loadSnapshot(ref string, opts Options) (*Loaded, error) {
	name := strings.TrimPrefix(ref, "@")
	if opts.Snapshots == nil {
		return nil, fmt.Errorf("load %s: %w", ref, ErrNoSnapshotStore)
	}
	s, _, err := opts.Snapshots.Load(name)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", ref, err)
	}
	return &Loaded{Ref: ref, Kind: KindSnapshot, Schema: s}, nil
}

func loadDatabase(ctx context.Context, dsn string, opts Options) (*Loaded, error) {
	display := introspect.Redact(dsn)
	log := logger.With("source", display)

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	iopts := opts.Introspect
	if opts.Progress != nil {
		iopts.Progress = opts.Progress(display)
	}

	start := time.Now()
	db, err := introspect.Open(ctx, dsn, iopts)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", display, err)
	}
	defer db.Close()

	s, err := db.Introspect(ctx)
	if err != nil {
		return nil, fmt.Errorf("introspect %s: %w", display, err)
	}

	log.Debug("introspected database", "dialect", db.Dialect(), "tables", s.Len(), "took", time.Since(start))
	return &Loaded{Ref: display, Kind: KindDatabase, Schema: s}, nil
}
