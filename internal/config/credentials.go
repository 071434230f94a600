package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/janekbaraniewski/claudewatch/internal/core"
)

// credMu guards read-modify-write cycles on the credentials file.
var credMu sync.Mutex

func CredentialsPath() string {
	return filepath.Join(ConfigDir(), "credentials.json")
}

// CredentialStore reads and writes the persisted OAuth token record at a
// fixed path. The zero value uses the default location.
type CredentialStore struct {
	Path string
}

func (s CredentialStore) path() string {
	if s.Path != "" {
		return s.Path
	}
	return CredentialsPath()
}

func (s CredentialStore) Load() (core.Credentials, error) {
	var creds core.Credentials

	data, err := os.ReadFile(s.path())
	if err != nil {
		if os.IsNotExist(err) {
			return creds, nil
		}
		return creds, fmt.Errorf("reading credentials: %w", err)
	}

	if err := json.Unmarshal(data, &creds); err != nil {
		return core.Credentials{}, fmt.Errorf("parsing credentials %s: %w", s.path(), err)
	}

	return creds, nil
}

// Save replaces the stored record atomically: the new record is written to a
// temp file and renamed over the old one, so a partially written record is
// never observable.
func (s CredentialStore) Save(creds core.Credentials) error {
	credMu.Lock()
	defer credMu.Unlock()

	path := s.path()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating credentials dir: %w", err)
	}

	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling credentials: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(dir, ".credentials-*.json")
	if err != nil {
		return fmt.Errorf("creating temp credentials file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing credentials: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("chmod credentials: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing credentials file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replacing credentials file: %w", err)
	}
	return nil
}

func (s CredentialStore) Delete() error {
	credMu.Lock()
	defer credMu.Unlock()

	if err := os.Remove(s.path()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing credentials: %w", err)
	}
	return nil
}
