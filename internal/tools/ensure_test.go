package tools

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

var errNotFound = errors.New("executable file not found in $PATH")

func testEnsurer(dir string, autoInstall bool) *Ensurer {
	e := NewEnsurer(&Config{Dir: dir, AutoInstall: autoInstall}, nil)
	e.lookPath = func(string) (string, error) { return "", errNotFound }
	e.stat = os.Stat
	return e
}

func TestYtDlpOnPath(t *testing.T) {
	e := testEnsurer(t.TempDir(), false)
	e.lookPath = func(name string) (string, error) {
		if name != "yt-dlp" {
			t.Fatalf("looked up %q", name)
		}
		return "/usr/bin/yt-dlp", nil
	}

	path, err := e.YtDlp(context.Background())
	if err != nil {
		t.Fatalf("YtDlp: %v", err)
	}
	if path != "/usr/bin/yt-dlp" {
		t.Fatalf("path = %q", path)
	}
}

func TestYtDlpLocalBinary(t *testing.T) {
	dir := t.TempDir()
	local := filepath.Join(dir, "yt-dlp")
	if err := os.WriteFile(local, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	e := testEnsurer(dir, false)

	path, err := e.YtDlp(context.Background())
	if err != nil {
		t.Fatalf("YtDlp: %v", err)
	}
	if path != local {
		t.Fatalf("path = %q, want %q", path, local)
	}
}

func TestYtDlpAutoInstallDisabled(t *testing.T) {
	e := testEnsurer(t.TempDir(), false)
	e.fetch = func(ctx context.Context, url, dest string) error {
		t.Fatal("fetch should not run when auto-install is off")
		return nil
	}

	if _, err := e.YtDlp(context.Background()); err == nil {
		t.Fatal("expected an error with no binary available")
	}
}

func TestYtDlpAutoInstall(t *testing.T) {
	dir := t.TempDir()
	e := testEnsurer(dir, true)

	fetched := ""
	e.fetch = func(ctx context.Context, url, dest string) error {
		fetched = url
		return os.WriteFile(dest, []byte("binary"), 0o644)
	}

	path, err := e.YtDlp(context.Background())
	if err != nil {
		t.Fatalf("YtDlp: %v", err)
	}
	if fetched != ytdlpReleaseURL {
		t.Fatalf("fetched %q", fetched)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat installed binary: %v", err)
	}
	if info.Mode().Perm()&0o111 == 0 {
		t.Fatal("installed binary is not executable")
	}
}

// TestYtDlpConcurrentInstall checks that simultaneous callers on a tool-less
// host trigger exactly one download and all get the same usable path.
func TestYtDlpConcurrentInstall(t *testing.T) {
	dir := t.TempDir()
	e := testEnsurer(dir, true)

	var fetches atomic.Int32
	e.fetch = func(ctx context.Context, url, dest string) error {
		fetches.Add(1)
		time.Sleep(20 * time.Millisecond)
		return os.WriteFile(dest, []byte("binary"), 0o644)
	}

	const callers = 5
	paths := make([]string, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			paths[i], errs[i] = e.YtDlp(context.Background())
		}(i)
	}
	wg.Wait()

	want := filepath.Join(dir, "yt-dlp")
	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d: %v", i, errs[i])
		}
		if paths[i] != want {
			t.Fatalf("caller %d path = %q, want %q", i, paths[i], want)
		}
	}
	if got := fetches.Load(); got != 1 {
		t.Fatalf("download ran %d times, want 1", got)
	}
	if _, err := os.Stat(want + ".partial"); err == nil {
		t.Fatal("partial download left behind")
	}
}

func TestYtDlpAutoInstallFailure(t *testing.T) {
	e := testEnsurer(t.TempDir(), true)
	e.fetch = func(ctx context.Context, url, dest string) error {
		return errors.New("network unreachable")
	}

	if _, err := e.YtDlp(context.Background()); err == nil {
		t.Fatal("expected install failure to surface")
	}
}

func TestFFmpeg(t *testing.T) {
	e := testEnsurer(t.TempDir(), false)
	if _, ok := e.FFmpeg(); ok {
		t.Fatal("ffmpeg reported available with nothing installed")
	}

	e.lookPath = func(name string) (string, error) { return "/usr/bin/" + name, nil }
	path, ok := e.FFmpeg()
	if !ok || path != "/usr/bin/ffmpeg" {
		t.Fatalf("FFmpeg = %q, %v", path, ok)
	}
}
