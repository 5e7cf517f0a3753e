// Package snapshot keeps named schema snapshots on disk so later diffs can
// refer to them as @name.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/riftdata/schemadiff/internal/parser"
	"github.com/riftdata/schemadiff/internal/schema"
)

var (
	ErrSnapshotNotFound = errors.New("snapshot not found")
	ErrSnapshotExists   = errors.New("snapshot already exists")
	ErrInvalidName      = errors.New("invalid snapshot name")
)

var nameRe = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_.-]*$`)

// Snapshot is the metadata kept for a stored schema.
type Snapshot struct {
	ID          string    `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	Source      string    `json:"source" yaml:"source"` // where it was taken from, passwords redacted
	Fingerprint string    `json:"fingerprint" yaml:"fingerprint"`
	Tables      int       `json:"tables" yaml:"tables"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
}

// ValidateName checks that name is usable as a snapshot name and file name.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidName)
	}
	if len(name) > 63 {
		return fmt.Errorf("%w: name too long (max 63 characters)", ErrInvalidName)
	}
	if !nameRe.MatchString(name) {
		return fmt.Errorf("%w: %q must contain only alphanumeric characters, dots, hyphens, and underscores", ErrInvalidName, name)
	}
	return nil
}

// Store is a directory of snapshots: an index file plus one JSON schema
// document per snapshot.
type Store struct {
	mu        sync.RWMutex
	snapshots map[string]*Snapshot
	dir       string
}

// NewStore opens (creating if needed) the snapshot store under dataDir.
func NewStore(dataDir string) (*Store, error) {
	s := &Store{
		snapshots: make(map[string]*Snapshot),
		dir:       filepath.Join(dataDir, "snapshots"),
	}

	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}

	if err := s.load(); err != nil {
		return nil, fmt.Errorf("load snapshots: %w", err)
	}

	return s, nil
}

// Dir returns the directory the store writes to.
func (s *Store) Dir() string {
	return s.dir
}

// Save stores sch under name. An existing snapshot is replaced only when
// force is set.
func (s *Store) Save(name, source string, sch *schema.Schema, force bool) (*Snapshot, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev, exists := s.snapshots[name]
	if exists && !force {
		return nil, fmt.Errorf("%w: %s", ErrSnapshotExists, name)
	}

	doc, err := parser.EncodeJSON(sch)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot %s: %w", name, err)
	}
	// The document replaces the live one only once the index has been
	// written, so a failed save leaves the previous pair intact.
	staged := s.schemaPath(name) + ".new"
	if err := writeFileAtomic(staged, doc); err != nil {
		return nil, fmt.Errorf("write snapshot %s: %w", name, err)
	}

	snap := &Snapshot{
		ID:          uuid.NewString(),
		Name:        name,
		Source:      source,
		Fingerprint: schema.Fingerprint(sch),
		Tables:      sch.Len(),
		CreatedAt:   time.Now().UTC(),
	}
	s.snapshots[name] = snap

	restore := func() {
		if exists {
			s.snapshots[name] = prev
		} else {
			delete(s.snapshots, name)
		}
	}

	if err := s.save(); err != nil {
		restore()
		_ = os.Remove(staged)
		return nil, err
	}
	if err := os.Rename(staged, s.schemaPath(name)); err != nil {
		restore()
		_ = s.save()
		_ = os.Remove(staged)
		return nil, fmt.Errorf("write snapshot %s: %w", name, err)
	}

	return snap, nil
}

// Get returns the metadata of a snapshot.
func (s *Store) Get(name string) (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.snapshots[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSnapshotNotFound, name)
	}
	return snap, nil
}

// Load reads the schema stored under name.
func (s *Store) Load(name string) (*schema.Schema, *Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.snapshots[name]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrSnapshotNotFound, name)
	}

	data, err := os.ReadFile(s.schemaPath(name))
	if err != nil {
		return nil, nil, fmt.Errorf("read snapshot %s: %w", name, err)
	}
	sch, err := parser.ParseJSON(string(data))
	if err != nil {
		return nil, nil, fmt.Errorf("decode snapshot %s: %w", name, err)
	}
	return sch, snap, nil
}

// List returns all snapshots ordered by name.
func (s *Store) List() []*Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snaps := make([]*Snapshot, 0, len(s.snapshots))
	for _, snap := range s.snapshots {
		snaps = append(snaps, snap)
	}
	sort.Slice(snaps, func(i, j int) bool { return snaps[i].Name < snaps[j].Name })
	return snaps
}

// Exists reports whether a snapshot called name is stored.
func (s *Store) Exists(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.snapshots[name]
	return ok
}

// Delete removes a snapshot and its schema document.
func (s *Store) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, ok := s.snapshots[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrSnapshotNotFound, name)
	}

	delete(s.snapshots, name)
	if err := s.save(); err != nil {
		s.snapshots[name] = snap
		return err
	}

	if err := os.Remove(s.schemaPath(name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove snapshot %s: %w", name, err)
	}
	return nil
}

func (s *Store) indexPath() string {
	return filepath.Join(s.dir, "index.json")
}

func (s *Store) schemaPath(name string) string {
	return filepath.Join(s.dir, name+".schema.json")
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.indexPath())
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	var snaps []*Snapshot
	if err := json.Unmarshal(data, &snaps); err != nil {
		return err
	}

	for _, snap := range snaps {
		s.snapshots[snap.Name] = snap
	}

	return nil
}

func (s *Store) save() error {
	snaps := make([]*Snapshot, 0, len(s.snapshots))
	for _, snap := range s.snapshots {
		snaps = append(snaps, snap)
	}
	sort.Slice(snaps, func(i, j int) bool { return snaps[i].Name < snaps[j].Name })

	data, err := json.MarshalIndent(snaps, "", "  ")
	if err != nil {
		return err
	}

	return writeFileAtomic(s.indexPath(), data)
}

func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
