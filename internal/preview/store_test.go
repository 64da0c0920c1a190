package preview

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestStoreSaveReadDelete(t *testing.T) {
	store := newTestStore(t)

	if err := store.Save("label.png", []byte("image bytes")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !store.Exists("label.png") {
		t.Fatal("saved artifact should exist")
	}

	data, err := store.Read("label.png")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !bytes.Equal(data, []byte("image bytes")) {
		t.Errorf("read back %q", data)
	}

	if _, err := store.Path("label.png"); err != nil {
		t.Errorf("Path: %v", err)
	}

	if err := store.Delete("label.png"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if store.Exists("label.png") {
		t.Error("deleted artifact still exists")
	}
	if _, err := store.Read("label.png"); !errors.Is(err, ErrArtifactNotFound) {
		t.Errorf("Read after delete = %v, want ErrArtifactNotFound", err)
	}
	if err := store.Delete("label.png"); !errors.Is(err, ErrArtifactNotFound) {
		t.Errorf("second Delete = %v, want ErrArtifactNotFound", err)
	}
}

func TestStoreRejectsUnsafeNames(t *testing.T) {
	store := newTestStore(t)

	for _, name := range []string{"../escape.png", "a/b.png", ".hidden", "", "ni\x00l"} {
		if err := store.Save(name, []byte("x")); !errors.Is(err, ErrInvalidName) {
			t.Errorf("Save(%q) = %v, want ErrInvalidName", name, err)
		}
		if store.Exists(name) {
			t.Errorf("Exists(%q) = true", name)
		}
	}
}

func TestStoreSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir, zap.NewNop())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	if err := store.Save("a.png", []byte("x")); err != nil {
		t.Fatalf("Save: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "a.png" {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("directory contents = %v, want only a.png", names)
	}
}

func TestStoreCleanupOlderThan(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir, zap.NewNop())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	if err := store.Save("old.png", []byte("old")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Save("new.png", []byte("new")); err != nil {
		t.Fatalf("Save: %v", err)
	}

	stale := time.Now().AddDate(0, 0, -10)
	if err := os.Chtimes(filepath.Join(dir, "old.png"), stale, stale); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}

	result, err := store.CleanupOlderThan(7)
	if err != nil {
		t.Fatalf("CleanupOlderThan: %v", err)
	}
	if result.Deleted != 1 {
		t.Errorf("deleted = %d, want 1", result.Deleted)
	}
	if len(result.Errors) != 0 {
		t.Errorf("errors = %v", result.Errors)
	}
	if store.Exists("old.png") {
		t.Error("stale artifact survived cleanup")
	}
	if !store.Exists("new.png") {
		t.Error("fresh artifact removed by cleanup")
	}
}

func TestStoreStats(t *testing.T) {
	store := newTestStore(t)

	if err := store.Save("a.png", make([]byte, 100)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Save("b.png", make([]byte, 50)); err != nil {
		t.Fatalf("Save: %v", err)
	}

	count, total, err := store.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
	if total != 150 {
		t.Errorf("total = %d, want 150", total)
	}
}

func TestHumanSize(t *testing.T) {
	cases := []struct {
		n    int64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{2048, "2.0 KB"},
		{3 << 20, "3.0 MB"},
	}
	for _, c := range cases {
		if got := HumanSize(c.n); got != c.want {
			t.Errorf("HumanSize(%d) = %s, want %s", c.n, got, c.want)
		}
	}
}
