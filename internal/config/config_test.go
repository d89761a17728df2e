package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Port != 3001 {
		t.Errorf("Port = %d, want 3001", cfg.Port)
	}
	if cfg.RunMode != "release" {
		t.Errorf("RunMode = %q", cfg.RunMode)
	}
	if cfg.Storage.Provider != "filesystem" || cfg.Storage.Bucket != "./downloads" {
		t.Errorf("storage defaults = %+v", cfg.Storage)
	}
	if cfg.Convert.MaxWorkers != 10 || cfg.Convert.QueueSize != 100 {
		t.Errorf("pool defaults = %+v", cfg.Convert)
	}
	if !cfg.Convert.DegradeToPlaceholder {
		t.Error("DegradeToPlaceholder should default to true")
	}
	if cfg.Convert.Retention != time.Hour {
		t.Errorf("Retention = %v, want 1h", cfg.Convert.Retention)
	}
	if cfg.Redis.Addr != "" {
		t.Errorf("Redis.Addr = %q, want empty (in-memory store)", cfg.Redis.Addr)
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := `
app_name: converter-test
run_mode: debug
server:
  port: 8080
storage:
  provider: filesystem
  bucket: /tmp/artifacts
convert:
  max_workers: 3
  degrade_to_placeholder: false
  retention: 30m
data:
  redis:
    addr: 127.0.0.1:6379
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.AppName != "converter-test" || cfg.RunMode != "debug" {
		t.Errorf("app fields = %q %q", cfg.AppName, cfg.RunMode)
	}
	if cfg.Port != 8080 {
		t.Errorf("Port = %d", cfg.Port)
	}
	if cfg.Storage.Bucket != "/tmp/artifacts" {
		t.Errorf("Bucket = %q", cfg.Storage.Bucket)
	}
	if cfg.Convert.MaxWorkers != 3 {
		t.Errorf("MaxWorkers = %d", cfg.Convert.MaxWorkers)
	}
	if cfg.Convert.DegradeToPlaceholder {
		t.Error("DegradeToPlaceholder should be overridden to false")
	}
	if cfg.Convert.Retention != 30*time.Minute {
		t.Errorf("Retention = %v", cfg.Convert.Retention)
	}
	if cfg.Redis.Addr != "127.0.0.1:6379" {
		t.Errorf("Redis.Addr = %q", cfg.Redis.Addr)
	}

	// Unset keys still fall back to defaults.
	if cfg.Convert.QueueSize != 100 {
		t.Errorf("QueueSize = %d, want default 100", cfg.Convert.QueueSize)
	}
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("explicitly named missing file should fail")
	}
}
