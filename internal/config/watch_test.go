package config

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestWatch_ReportsRewrittenConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.json")
	if err := SaveTo(path, Config{UpdateIntervalSeconds: 300}); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan Config, 4)
	go func() {
		_ = Watch(ctx, path, func(cfg Config) {
			changes <- cfg
		})
	}()

	// Give the watcher a moment to register before rewriting.
	time.Sleep(100 * time.Millisecond)
	if err := SaveTo(path, Config{UpdateIntervalSeconds: 900}); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(5 * time.Second)
	for {
		select {
		case cfg := <-changes:
			if cfg.UpdateIntervalSeconds == 900 {
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for config change notification")
		}
	}
}
