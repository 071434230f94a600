package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFrom_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "settings.json"))
	if err != nil {
		t.Fatalf("LoadFrom() error: %v", err)
	}
	if cfg.UpdateIntervalSeconds != DefaultUpdateIntervalSeconds {
		t.Errorf("interval = %d, want %d", cfg.UpdateIntervalSeconds, DefaultUpdateIntervalSeconds)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")

	cfg := Config{
		UpdateIntervalSeconds: 600,
		AccountName:           "Ada",
		SubscriptionLevel:     "Max",
	}
	if err := SaveTo(path, cfg); err != nil {
		t.Fatalf("SaveTo() error: %v", err)
	}

	got, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error: %v", err)
	}
	if got != cfg {
		t.Errorf("round trip = %+v, want %+v", got, cfg)
	}
}

func TestLoadFrom_CorruptFileFallsBackToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err == nil {
		t.Fatal("LoadFrom() expected error for corrupt file")
	}
	if cfg.UpdateIntervalSeconds != DefaultUpdateIntervalSeconds {
		t.Errorf("interval after corrupt load = %d, want default", cfg.UpdateIntervalSeconds)
	}
}

func TestValidateInterval(t *testing.T) {
	tests := []struct {
		seconds int
		wantErr bool
	}{
		{30, true},
		{59, true},
		{60, false},
		{300, false},
		{3600, false},
		{3601, true},
		{4000, true},
	}
	for _, tt := range tests {
		err := ValidateInterval(tt.seconds)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateInterval(%d) error = %v, wantErr %v", tt.seconds, err, tt.wantErr)
		}
	}
}

func TestSaveIntervalTo_RejectsOutOfRange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")

	if err := SaveIntervalTo(path, 4000); err == nil {
		t.Fatal("SaveIntervalTo(4000) expected error")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("rejected interval should not create a config file")
	}

	if err := SaveIntervalTo(path, 120); err != nil {
		t.Fatalf("SaveIntervalTo(120) error: %v", err)
	}
	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error: %v", err)
	}
	if cfg.UpdateIntervalSeconds != 120 {
		t.Errorf("interval = %d, want 120", cfg.UpdateIntervalSeconds)
	}
}

func TestSaveAccountTo_PreservesInterval(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := SaveIntervalTo(path, 900); err != nil {
		t.Fatal(err)
	}
	if err := SaveAccountTo(path, "Ada", "Pro"); err != nil {
		t.Fatalf("SaveAccountTo() error: %v", err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.UpdateIntervalSeconds != 900 {
		t.Errorf("interval = %d, want 900 after account save", cfg.UpdateIntervalSeconds)
	}
	if cfg.AccountName != "Ada" || cfg.SubscriptionLevel != "Pro" {
		t.Errorf("account = %q/%q, want Ada/Pro", cfg.AccountName, cfg.SubscriptionLevel)
	}
}
