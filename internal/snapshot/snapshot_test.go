package snapshot

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/riftdata/schemadiff/internal/parser"
	"github.com/riftdata/schemadiff/internal/schema"
)

const usersDDL = `CREATE TABLE users (
  id INT PRIMARY KEY,
  email VARCHAR(255) NOT NULL UNIQUE,
  status TEXT DEFAULT 'active'
);
CREATE TABLE orders (id INT PRIMARY KEY, user_id INT, FOREIGN KEY (user_id) REFERENCES users(id));`

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	return s
}

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "prod", false},
		{"with hyphen", "before-migration", false},
		{"with underscore", "v1_2", false},
		{"with dot", "release.4", false},
		{"empty", "", true},
		{"starts with dot", ".hidden", true},
		{"starts with hyphen", "-x", true},
		{"slash", "a/b", true},
		{"space", "a b", true},
		{"at sign", "@prod", true},
		{"max length 63", strings.Repeat("a", 63), false},
		{"64 chars", strings.Repeat("a", 64), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidName) {
				t.Errorf("ValidateName(%q) error = %v, want ErrInvalidName", tt.input, err)
			}
		})
	}
}

func TestStoreSaveAndLoad(t *testing.T) {
	s := newStore(t)
	sch := parser.ParseSQL(usersDDL)

	snap, err := s.Save("prod", "schema.sql", sch, false)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if snap.ID == "" {
		t.Error("snap.ID should not be empty")
	}
	if snap.Tables != 2 {
		t.Errorf("snap.Tables = %d, want 2", snap.Tables)
	}
	if snap.Fingerprint != schema.Fingerprint(sch) {
		t.Errorf("snap.Fingerprint = %q, want %q", snap.Fingerprint, schema.Fingerprint(sch))
	}

	got, meta, err := s.Load("prod")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if meta.Name != "prod" || meta.Source != "schema.sql" {
		t.Errorf("Load() meta = %+v", meta)
	}
	if schema.Fingerprint(got) != snap.Fingerprint {
		t.Errorf("loaded fingerprint = %q, want %q", schema.Fingerprint(got), snap.Fingerprint)
	}
	if names := got.Names(); len(names) != 2 || names[0] != "users" || names[1] != "orders" {
		t.Errorf("loaded tables = %v, want [users orders]", names)
	}
}

func TestStoreSaveDuplicate(t *testing.T) {
	s := newStore(t)
	first := parser.ParseSQL("CREATE TABLE a (id INT);")
	second := parser.ParseSQL("CREATE TABLE b (id INT);")

	if _, err := s.Save("prod", "a.sql", first, false); err != nil {
		t.Fatalf("first Save() error = %v", err)
	}

	_, err := s.Save("prod", "b.sql", second, false)
	if !errors.Is(err, ErrSnapshotExists) {
		t.Fatalf("second Save() error = %v, want ErrSnapshotExists", err)
	}

	if _, err := s.Save("prod", "b.sql", second, true); err != nil {
		t.Fatalf("forced Save() error = %v", err)
	}
	got, meta, err := s.Load("prod")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if meta.Source != "b.sql" {
		t.Errorf("meta.Source = %q, want %q", meta.Source, "b.sql")
	}
	if _, ok := got.Table("b"); !ok {
		t.Error("forced Save() should replace the stored schema")
	}
}

func TestStoreSaveIndexFailureKeepsPrevious(t *testing.T) {
	s := newStore(t)
	v1 := parser.ParseSQL(usersDDL)
	if _, err := s.Save("prod", "v1.sql", v1, false); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	// A directory where the index temp file goes makes the index write fail.
	if err := os.Mkdir(s.indexPath()+".tmp", 0o750); err != nil {
		t.Fatal(err)
	}

	v2 := parser.ParseSQL("CREATE TABLE accounts (id INT);")
	if _, err := s.Save("prod", "v2.sql", v2, true); err == nil {
		t.Fatal("Save() should fail when the index cannot be written")
	}
	if _, err := s.Save("staging", "v2.sql", v2, false); err == nil {
		t.Fatal("Save() should fail when the index cannot be written")
	}

	got, snap, err := s.Load("prod")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if snap.Source != "v1.sql" {
		t.Errorf("snap.Source = %q, want v1.sql", snap.Source)
	}
	if fp := schema.Fingerprint(got); fp != snap.Fingerprint || fp != schema.Fingerprint(v1) {
		t.Errorf("stored document does not match its metadata after a failed save")
	}

	if s.Exists("staging") {
		t.Error("failed save of a new snapshot should not register it")
	}
	if _, err := os.Stat(s.schemaPath("staging")); !os.IsNotExist(err) {
		t.Errorf("failed save left a schema document behind: %v", err)
	}
}

func TestStoreTypelessColumn(t *testing.T) {
	s := newStore(t)
	sch := parser.ParseSQL("CREATE TABLE t (a, b INTEGER);")
	if _, err := s.Save("lite", "sqlite://app.db", sch, false); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, _, err := s.Load("lite")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if schema.Fingerprint(got) != schema.Fingerprint(sch) {
		t.Errorf("Load() changed the schema:\n%s\nwant\n%s", schema.Canonical(got), schema.Canonical(sch))
	}
}

func TestStoreSaveInvalidName(t *testing.T) {
	s := newStore(t)
	_, err := s.Save("../escape", "x.sql", schema.New(), false)
	if !errors.Is(err, ErrInvalidName) {
		t.Errorf("Save() error = %v, want ErrInvalidName", err)
	}
}

func TestStoreNotFound(t *testing.T) {
	s := newStore(t)

	if _, err := s.Get("missing"); !errors.Is(err, ErrSnapshotNotFound) {
		t.Errorf("Get() error = %v, want ErrSnapshotNotFound", err)
	}
	if _, _, err := s.Load("missing"); !errors.Is(err, ErrSnapshotNotFound) {
		t.Errorf("Load() error = %v, want ErrSnapshotNotFound", err)
	}
	if err := s.Delete("missing"); !errors.Is(err, ErrSnapshotNotFound) {
		t.Errorf("Delete() error = %v, want ErrSnapshotNotFound", err)
	}
}

func TestStoreDelete(t *testing.T) {
	s := newStore(t)
	if _, err := s.Save("prod", "a.sql", schema.New(), false); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if err := s.Delete("prod"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if s.Exists("prod") {
		t.Error("snapshot should not exist after Delete")
	}
	if _, err := os.Stat(filepath.Join(s.Dir(), "prod.schema.json")); !os.IsNotExist(err) {
		t.Errorf("schema file should be removed, stat error = %v", err)
	}
}

func TestStoreList(t *testing.T) {
	s := newStore(t)
	for _, name := range []string{"staging", "dev", "prod"} {
		if _, err := s.Save(name, name+".sql", schema.New(), false); err != nil {
			t.Fatalf("Save(%q) error = %v", name, err)
		}
	}

	snaps := s.List()
	var names []string
	for _, snap := range snaps {
		names = append(names, snap.Name)
	}
	if strings.Join(names, ",") != "dev,prod,staging" {
		t.Errorf("List() = %v, want [dev prod staging]", names)
	}
}

func TestStorePersistence(t *testing.T) {
	dir := t.TempDir()

	s1, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	if _, err := s1.Save("prod", "schema.sql", parser.ParseSQL(usersDDL), false); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	s2, err := NewStore(dir)
	if err != nil {
		t.Fatalf("second NewStore() error = %v", err)
	}
	if !s2.Exists("prod") {
		t.Fatal("snapshot should survive reopening the store")
	}
	got, _, err := s2.Load("prod")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	users, ok := got.Table("users")
	if !ok {
		t.Fatal("users table missing after reload")
	}
	email, _ := users.Column("email")
	if email.Nullable || !email.Unique || email.Type != "VARCHAR(255)" {
		t.Errorf("email column after reload = %+v", email)
	}
}

func TestNewStoreCorruptIndex(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "snapshots"), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "snapshots", "index.json"), []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := NewStore(dir); err == nil {
		t.Error("NewStore() should fail on a corrupt index")
	}
}
