// Package tools locates the external extraction binaries and performs a
// one-time best-effort install when they are missing.
package tools

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/iamMichaelSmith/Youtube-MP3-Converter/internal/logging"
)

const (
	ytdlpReleaseURL = "https://github.com/yt-dlp/yt-dlp/releases/latest/download/yt-dlp"

	installTimeout = 60 * time.Second
)

// Config holds tool resolution settings.
type Config struct {
	Dir         string // directory holding downloaded binaries
	AutoInstall bool   // attempt to fetch yt-dlp when missing
}

// Ensurer resolves and installs external binaries. The OS hooks are
// injectable so tests can run without touching the real system.
type Ensurer struct {
	cfg    *Config
	logger *logging.Logger

	installMu sync.Mutex

	lookPath func(string) (string, error)
	stat     func(string) (os.FileInfo, error)
	fetch    func(ctx context.Context, url, dest string) error
}

// NewEnsurer builds an ensurer using real OS dependencies.
func NewEnsurer(cfg *Config, log *logging.Logger) *Ensurer {
	if cfg == nil {
		cfg = &Config{Dir: ".", AutoInstall: true}
	}
	if cfg.Dir == "" {
		cfg.Dir = "."
	}
	if log == nil {
		log = logging.StdLogger()
	}
	return &Ensurer{
		cfg:      cfg,
		logger:   log,
		lookPath: exec.LookPath,
		stat:     os.Stat,
		fetch:    fetchToFile,
	}
}

// YtDlp returns the path of a usable yt-dlp binary, installing it when
// allowed. The install attempt is bounded and happens at most once per call.
func (e *Ensurer) YtDlp(ctx context.Context) (string, error) {
	if path, err := e.lookPath("yt-dlp"); err == nil {
		return path, nil
	}

	local := filepath.Join(e.cfg.Dir, "yt-dlp")
	if info, err := e.stat(local); err == nil && !info.IsDir() {
		return local, nil
	}

	if !e.cfg.AutoInstall {
		return "", fmt.Errorf("yt-dlp not found and auto-install is disabled")
	}

	// Concurrent jobs on a tool-less host must not race the install into
	// the same path; only one download runs, the rest wait and re-check.
	e.installMu.Lock()
	defer e.installMu.Unlock()

	if info, err := e.stat(local); err == nil && !info.IsDir() {
		return local, nil
	}

	e.logger.Warn(ctx, "yt-dlp not found, attempting download", "dest", local)

	installCtx, cancel := context.WithTimeout(ctx, installTimeout)
	defer cancel()

	// Download to a side path and rename so a failed or partial fetch never
	// leaves a corrupt binary where the next stat check would find it.
	tmp := local + ".partial"
	if err := e.fetch(installCtx, ytdlpReleaseURL, tmp); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to download yt-dlp: %w", err)
	}
	if err := os.Chmod(tmp, 0o755); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to mark yt-dlp executable: %w", err)
	}
	if err := os.Rename(tmp, local); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to install yt-dlp: %w", err)
	}

	e.logger.Info(ctx, "yt-dlp installed", "path", local)
	return local, nil
}

// FFmpeg reports the path of an ffmpeg binary if one is available. The
// pipeline's download methods avoid transcoding, so a missing ffmpeg only
// narrows yt-dlp's options rather than failing the job.
func (e *Ensurer) FFmpeg() (string, bool) {
	if path, err := e.lookPath("ffmpeg"); err == nil {
		return path, true
	}
	local := filepath.Join(e.cfg.Dir, "ffmpeg")
	if info, err := e.stat(local); err == nil && !info.IsDir() {
		return local, true
	}
	return "", false
}

// EnsureAll warms the tool cache at startup. Failures are logged and
// swallowed; jobs re-attempt resolution when they run.
func (e *Ensurer) EnsureAll(ctx context.Context) {
	if _, err := e.YtDlp(ctx); err != nil {
		e.logger.Warn(ctx, "yt-dlp unavailable, downloads will degrade", "error", err)
	}
	if _, ok := e.FFmpeg(); !ok {
		e.logger.Warn(ctx, "ffmpeg unavailable, post-processing disabled")
	}
}

func fetchToFile(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", res.StatusCode)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	f, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := io.Copy(f, res.Body); err != nil {
		os.Remove(dest)
		return err
	}
	return nil
}
