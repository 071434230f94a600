package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
)

const (
	DefaultUpdateIntervalSeconds = 300
	MinUpdateIntervalSeconds     = 60
	MaxUpdateIntervalSeconds     = 3600
)

type Config struct {
	UpdateIntervalSeconds int    `json:"update_interval_seconds"`
	AccountName           string `json:"account_name,omitempty"`
	SubscriptionLevel     string `json:"subscription_level,omitempty"`
}

func DefaultConfig() Config {
	return Config{
		UpdateIntervalSeconds: DefaultUpdateIntervalSeconds,
	}
}

// ValidateInterval rejects out-of-range poll intervals. Values are never
// clamped; the caller decides what to do with a rejection.
func ValidateInterval(seconds int) error {
	if seconds < MinUpdateIntervalSeconds || seconds > MaxUpdateIntervalSeconds {
		return fmt.Errorf("update interval %ds out of range [%d, %d]",
			seconds, MinUpdateIntervalSeconds, MaxUpdateIntervalSeconds)
	}
	return nil
}

func ConfigDir() string {
	if runtime.GOOS == "windows" {
		return filepath.Join(os.Getenv("APPDATA"), "claudewatch")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "claudewatch")
}

func ConfigPath() string {
	return filepath.Join(ConfigDir(), "settings.json")
}

func Load() (Config, error) {
	return LoadFrom(ConfigPath())
}

func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.UpdateIntervalSeconds == 0 {
		cfg.UpdateIntervalSeconds = DefaultUpdateIntervalSeconds
	}

	return cfg, nil
}

// saveMu guards read-modify-write cycles on the config file.
var saveMu sync.Mutex

func Save(cfg Config) error {
	return SaveTo(ConfigPath(), cfg)
}

func SaveTo(path string, cfg Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// SaveAccount persists account display metadata (read-modify-write).
func SaveAccount(name, subscriptionLevel string) error {
	return SaveAccountTo(ConfigPath(), name, subscriptionLevel)
}

func SaveAccountTo(path, name, subscriptionLevel string) error {
	saveMu.Lock()
	defer saveMu.Unlock()

	cfg, err := LoadFrom(path)
	if err != nil {
		cfg = DefaultConfig()
	}
	cfg.AccountName = name
	cfg.SubscriptionLevel = subscriptionLevel
	return SaveTo(path, cfg)
}

// SaveInterval persists a validated poll interval (read-modify-write).
func SaveInterval(seconds int) error {
	return SaveIntervalTo(ConfigPath(), seconds)
}

func SaveIntervalTo(path string, seconds int) error {
	if err := ValidateInterval(seconds); err != nil {
		return err
	}

	saveMu.Lock()
	defer saveMu.Unlock()

	cfg, err := LoadFrom(path)
	if err != nil {
		cfg = DefaultConfig()
	}
	cfg.UpdateIntervalSeconds = seconds
	return SaveTo(path, cfg)
}
