package snapshot

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type testDoc struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.json")
	want := testDoc{Name: "kaede", Count: 7}

	if err := Write(path, 3, want); err != nil {
		t.Fatalf("write: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if !strings.Contains(string(raw), `"snapshot_version": 3`) {
		t.Fatalf("envelope missing version tag:\n%s", raw)
	}

	data, err := Read(path, 3, nil)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var got testDoc
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestWriteCreatesBackup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.json")
	if err := Write(path, 3, testDoc{Count: 1}); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if _, err := os.Stat(path + BackupSuffix); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("backup exists before a second write")
	}

	if err := Write(path, 3, testDoc{Count: 2}); err != nil {
		t.Fatalf("second write: %v", err)
	}
	data, err := Read(path+BackupSuffix, 3, nil)
	if err != nil {
		t.Fatalf("read backup: %v", err)
	}
	var got testDoc
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal backup: %v", err)
	}
	if got.Count != 1 {
		t.Fatalf("backup holds count %d, want the previous document", got.Count)
	}
}

func TestReadMigrates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.json")
	if err := Write(path, 2, testDoc{Name: "ancien"}); err != nil {
		t.Fatalf("write: %v", err)
	}

	migrated := false
	data, err := Read(path, 3, func(from int, data json.RawMessage) (json.RawMessage, error) {
		if from != 2 {
			t.Fatalf("migrator called with version %d", from)
		}
		migrated = true
		return data, nil
	})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !migrated {
		t.Fatalf("migrator never called")
	}
	var got testDoc
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Name != "ancien" {
		t.Fatalf("payload lost in migration: %+v", got)
	}
}

func TestReadFutureVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.json")
	if err := Write(path, 9, testDoc{}); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, err := Read(path, 3, func(int, json.RawMessage) (json.RawMessage, error) {
		t.Fatalf("migrator called for a future version")
		return nil, nil
	})
	var verr *VersionError
	if !errors.As(err, &verr) || verr.Found != 9 {
		t.Fatalf("err = %v, want VersionError{Found: 9}", err)
	}
}

// A version error on the primary must not fall back to the backup: the
// file is intact, just foreign.
func TestVersionErrorSkipsBackup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.json")
	if err := Write(path, 3, testDoc{Count: 1}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := Write(path, 9, testDoc{Count: 2}); err != nil {
		t.Fatalf("rewrite: %v", err)
	}

	_, err := Read(path, 3, nil)
	var verr *VersionError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want VersionError despite a valid backup", err)
	}
}

func TestReadCorruptFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.json")
	if err := Write(path, 3, testDoc{Count: 1}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := Write(path, 3, testDoc{Count: 2}); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatalf("corrupt: %v", err)
	}

	data, err := Read(path, 3, nil)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var got testDoc
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Count != 1 {
		t.Fatalf("fallback count = %d, want the backup document", got.Count)
	}
}

func TestReadBothCorrupt(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.json")
	os.WriteFile(path, []byte("x"), 0o644)
	os.WriteFile(path+BackupSuffix, []byte("y"), 0o644)

	_, err := Read(path, 3, nil)
	var cerr *CorruptError
	if !errors.As(err, &cerr) {
		t.Fatalf("err = %v, want CorruptError", err)
	}
	if cerr.Path != path {
		t.Fatalf("CorruptError path = %q", cerr.Path)
	}
}
