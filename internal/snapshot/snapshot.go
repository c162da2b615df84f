// Package snapshot persists versioned engine documents: write to a
// temporary file, back up the previous snapshot, rename atomically,
// and fall back to the backup when the primary is corrupt.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// BackupSuffix is appended to the snapshot path for the backup copy.
const BackupSuffix = ".bak"

// VersionError reports an unknown or unmigratable snapshot version.
type VersionError struct {
	Found int
}

func (e *VersionError) Error() string {
	return fmt.Sprintf("snapshot version %d inconnue", e.Found)
}

// CorruptError reports an unreadable snapshot after all fallbacks.
type CorruptError struct {
	Path string
	Err  error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("snapshot corrompu %s: %v", e.Path, e.Err)
}

func (e *CorruptError) Unwrap() error { return e.Err }

// envelope is the on-disk shape: version tag plus opaque payload.
type envelope struct {
	Version int             `json:"snapshot_version"`
	SavedAt time.Time       `json:"saved_at"`
	Data    json.RawMessage `json:"data"`
}

// Migrator upgrades a payload from a known prior version to the
// current one. It must return an error for versions it cannot handle.
type Migrator func(from int, data json.RawMessage) (json.RawMessage, error)

// Write serializes doc under the given version tag and atomically
// replaces path, copying any existing file to the backup first.
func Write(path string, version int, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("snapshot marshal: %w", err)
	}
	env, err := json.MarshalIndent(envelope{
		Version: version,
		SavedAt: time.Now().UTC(),
		Data:    data,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("snapshot envelope marshal: %w", err)
	}

	if err := backup(path); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".snapshot-*")
	if err != nil {
		return fmt.Errorf("snapshot temp: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(env); err != nil {
		tmp.Close()
		return fmt.Errorf("snapshot write: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("snapshot sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("snapshot close: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("snapshot chmod: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("snapshot replace: %w", err)
	}
	return nil
}

// backup copies the current snapshot to path+BackupSuffix if present.
func backup(path string) error {
	src, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("snapshot backup open: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(path + BackupSuffix)
	if err != nil {
		return fmt.Errorf("snapshot backup create: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("snapshot backup copy: %w", err)
	}
	return dst.Sync()
}

// Read loads a snapshot payload, migrating prior versions forward. A
// corrupt primary falls back to the backup copy; a version error never
// does — an unknown version is a fact about the file, not damage.
func Read(path string, current int, migrate Migrator) (json.RawMessage, error) {
	data, err := readOne(path, current, migrate)
	if err == nil {
		return data, nil
	}
	var verr *VersionError
	if errors.As(err, &verr) {
		return nil, err
	}

	data, bakErr := readOne(path+BackupSuffix, current, migrate)
	if bakErr == nil {
		return data, nil
	}
	if errors.As(bakErr, &verr) {
		return nil, bakErr
	}
	return nil, &CorruptError{Path: path, Err: err}
}

func readOne(path string, current int, migrate Migrator) (json.RawMessage, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("snapshot read: %w", err)
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("snapshot parse: %w", err)
	}
	if env.Version == 0 || len(env.Data) == 0 {
		return nil, fmt.Errorf("snapshot parse: enveloppe incomplète")
	}
	if env.Version == current {
		return env.Data, nil
	}
	if env.Version > current || migrate == nil {
		return nil, &VersionError{Found: env.Version}
	}
	data, err := migrate(env.Version, env.Data)
	if err != nil {
		return nil, err
	}
	return data, nil
}
