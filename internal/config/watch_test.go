package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatchDeliversReloadedConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 3001\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan *Config, 1)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, cfg, nil, func(fresh *Config) {
			select {
			case reloaded <- fresh:
			default:
			}
		})
	}()

	// Give the watcher a moment to register before touching the file.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte("server:\n  port: 4002\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case fresh := <-reloaded:
		if fresh.Port != 4002 {
			t.Fatalf("reloaded port = %d, want 4002", fresh.Port)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("reload never observed")
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("watch returned: %v", err)
	}
}

func TestWatchNoFileInUse(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	// Defaults-only configs have nothing to watch; Watch returns cleanly.
	if err := Watch(context.Background(), cfg, nil, func(*Config) {}); err != nil {
		t.Fatalf("watch returned: %v", err)
	}
}
