package storage_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Tiliavir/trivial-toggl-viewer/internal/storage"
)

type sample struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestReadJSONNotExist(t *testing.T) {
	var s sample
	found, err := storage.ReadJSON(filepath.Join(t.TempDir(), "missing.json"), &s)
	if err != nil {
		t.Fatalf("ReadJSON on missing file: %v", err)
	}
	if found {
		t.Error("ReadJSON found = true for a missing file")
	}
}

func TestWriteJSONAndReadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")

	if err := storage.WriteJSON(path, sample{Name: "quota", Count: 3}); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	var loaded sample
	found, err := storage.ReadJSON(path, &loaded)
	if err != nil {
		t.Fatalf("ReadJSON after write: %v", err)
	}
	if !found {
		t.Fatal("ReadJSON found = false after write")
	}
	if loaded.Name != "quota" || loaded.Count != 3 {
		t.Errorf("loaded = %+v", loaded)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}
}

func TestWriteJSONLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")
	for i := 0; i < 3; i++ {
		if err := storage.WriteJSON(path, sample{Count: i}); err != nil {
			t.Fatalf("WriteJSON #%d: %v", i, err)
		}
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("dir holds %d files, want only state.json", len(entries))
	}
}

func TestReadJSONCorruptIsBackedUp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte("{bad json"), 0o600); err != nil {
		t.Fatal(err)
	}

	var s sample
	_, err := storage.ReadJSON(path, &s)
	if !errors.Is(err, storage.ErrCorrupt) {
		t.Fatalf("err = %v, want ErrCorrupt", err)
	}

	if _, err2 := os.Stat(path + ".corrupt"); os.IsNotExist(err2) {
		t.Error("expected backup file to exist after corrupt JSON")
	}
	if _, err2 := os.Stat(path); !os.IsNotExist(err2) {
		t.Error("corrupt file should have been moved aside")
	}
}

func TestReadJSONToleratesUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte(`{"name":"x","count":1,"added_later":true}`), 0o600); err != nil {
		t.Fatal(err)
	}
	var s sample
	if _, err := storage.ReadJSON(path, &s); err != nil {
		t.Fatalf("ReadJSON with unknown field: %v", err)
	}
	if s.Name != "x" {
		t.Errorf("Name = %q", s.Name)
	}
}

func TestRemoveMissingFile(t *testing.T) {
	if err := storage.Remove(filepath.Join(t.TempDir(), "nope.json")); err != nil {
		t.Errorf("Remove on missing file: %v", err)
	}
}
