// Package pipeline drives one conversion job through its staged state
// machine: resolve metadata, acquire the audio stream through the external
// tool, persist the artifact to object storage, and report every transition
// through the progress store.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/iamMichaelSmith/Youtube-MP3-Converter/internal/idgen"
	"github.com/iamMichaelSmith/Youtube-MP3-Converter/internal/logging"
	"github.com/iamMichaelSmith/Youtube-MP3-Converter/internal/metadata"
	"github.com/iamMichaelSmith/Youtube-MP3-Converter/internal/progress"
	"github.com/iamMichaelSmith/Youtube-MP3-Converter/internal/storage"
)

// ToolResolver locates the external extraction binary, installing it when
// possible. Implemented by tools.Ensurer.
type ToolResolver interface {
	YtDlp(ctx context.Context) (string, error)
}

// ErrExtractionUnavailable reports that every real download method failed
// or the required tooling could not be provisioned.
var ErrExtractionUnavailable = errors.New("extraction tooling unavailable")

// ErrStorageFailure reports that a finished artifact could not be persisted.
var ErrStorageFailure = errors.New("failed to store audio file")

// Config holds pipeline tuning knobs.
type Config struct {
	WorkDir              string        // scratch directory for in-flight artifacts
	DegradeToPlaceholder bool          // substitute-output policy; false fails the job instead
	SubstituteDuration   time.Duration // length of the synthetic artifact
	ResolveTimeout       time.Duration // yt-dlp -g invocation bound
	FetchTimeout         time.Duration // stream fetch / full command bound
	Retention            time.Duration // progress record TTL after terminal write
}

// DefaultConfig returns the reference timeouts.
func DefaultConfig() *Config {
	return &Config{
		WorkDir:              os.TempDir(),
		DegradeToPlaceholder: true,
		SubstituteDuration:   30 * time.Second,
		ResolveTimeout:       30 * time.Second,
		FetchTimeout:         60 * time.Second,
		Retention:            progress.DefaultRetention,
	}
}

// Pipeline executes conversion jobs. It is the sole writer of a job's
// progress record once the orchestrator hands the job over.
type Pipeline struct {
	cfg      *Config
	store    progress.Store
	resolver *metadata.Resolver
	tools    ToolResolver
	storage  storage.Interface
	logger   *logging.Logger

	httpClient *http.Client
}

// New creates a pipeline. A nil config uses defaults.
func New(cfg *Config, store progress.Store, resolver *metadata.Resolver, tr ToolResolver, st storage.Interface, log *logging.Logger) *Pipeline {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if log == nil {
		log = logging.StdLogger()
	}
	return &Pipeline{
		cfg:        cfg,
		store:      store,
		resolver:   resolver,
		tools:      tr,
		storage:    st,
		logger:     log,
		httpClient: &http.Client{Timeout: cfg.FetchTimeout},
	}
}

// Run drives the job to a terminal state. Errors are reported through the
// progress record; the returned error only feeds worker pool metrics.
func (p *Pipeline) Run(ctx context.Context, jobID, sourceURL, format string) error {
	ext := normalizeFormat(format)

	meta, err := p.resolver.Resolve(ctx, sourceURL)
	if err != nil {
		p.fail(ctx, jobID, progress.Record{}, fmt.Sprintf("invalid YouTube URL: %v", err))
		return err
	}

	fileName := safeFileName(meta.Title, idgen.Suffix(jobID, 8), ext)
	outputPath := filepath.Join(p.cfg.WorkDir, fileName)
	defer os.Remove(outputPath)

	base := progress.Record{Title: meta.Title, FileName: fileName}

	p.update(ctx, jobID, base, 10, progress.StatusProcessing)
	p.logger.Info(ctx, "processing job", "job_id", jobID, "title", meta.Title, "output", fileName)

	p.update(ctx, jobID, base, 20, progress.StatusDownloading)

	downloaded := false
	if err := p.downloadAudio(ctx, sourceURL, outputPath); err != nil {
		p.logger.Warn(ctx, "all download methods failed", "job_id", jobID, "error", err)
	} else {
		downloaded = true
	}

	if !downloaded {
		if !p.cfg.DegradeToPlaceholder {
			p.fail(ctx, jobID, base, "all download methods failed")
			return ErrExtractionUnavailable
		}
		if err := p.generateSubstitute(ctx, jobID, base, outputPath, ext); err != nil {
			p.fail(ctx, jobID, base, fmt.Sprintf("failed to create audio file: %v", err))
			return err
		}
	}

	p.update(ctx, jobID, base, 90, progress.StatusUploading)

	if err := p.upload(ctx, fileName, outputPath); err != nil {
		p.fail(ctx, jobID, base, fmt.Sprintf("failed to store audio file: %v", err))
		return fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	done := base
	done.Progress = 100
	done.Status = progress.StatusCompleted
	done.Key = fileName
	finishCtx := context.WithoutCancel(ctx)
	p.put(finishCtx, jobID, done)
	p.expire(finishCtx, jobID)

	p.logger.Info(ctx, "job completed", "job_id", jobID, "file", fileName)
	return nil
}

// downloadAudio tries the two real extraction methods in order: resolve a
// direct media URL and stream it ourselves, then a single end-to-end yt-dlp
// download. Both avoid post-processing so ffmpeg is not required.
func (p *Pipeline) downloadAudio(ctx context.Context, sourceURL, outputPath string) error {
	ytdlp, err := p.tools.YtDlp(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrExtractionUnavailable, err)
	}

	directErr := p.directFetch(ctx, ytdlp, sourceURL, outputPath)
	if directErr == nil {
		return nil
	}
	p.logger.Warn(ctx, "direct URL method failed, trying simple download", "error", directErr)

	if cmdErr := p.fullCommand(ctx, ytdlp, sourceURL, outputPath); cmdErr != nil {
		return fmt.Errorf("direct fetch: %v; full command: %w", directErr, cmdErr)
	}
	return nil
}

// directFetch resolves a time-limited direct media URL via yt-dlp -g and
// streams its bytes to the output path.
func (p *Pipeline) directFetch(ctx context.Context, ytdlp, sourceURL, outputPath string) error {
	resolveCtx, cancel := context.WithTimeout(ctx, p.cfg.ResolveTimeout)
	defer cancel()

	out, err := exec.CommandContext(resolveCtx, ytdlp,
		"-f", "bestaudio/best",
		"-g", sourceURL,
		"--no-check-certificate",
		"--force-ipv4",
	).Output()
	if err != nil {
		return fmt.Errorf("failed to resolve direct URL: %w", err)
	}

	directURL := strings.TrimSpace(string(out))
	if !strings.HasPrefix(directURL, "http") {
		return fmt.Errorf("unexpected direct URL output: %q", truncate(directURL, 50))
	}

	fetchCtx, cancel := context.WithTimeout(ctx, p.cfg.FetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, directURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")

	res, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch media stream: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return fmt.Errorf("media stream returned status %d", res.StatusCode)
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := io.Copy(f, res.Body); err != nil {
		return fmt.Errorf("failed to write media stream: %w", err)
	}

	return requireNonEmpty(outputPath)
}

// fullCommand lets yt-dlp download to the output path directly. No -x flag:
// extraction/transcoding would require ffmpeg, which may be absent.
func (p *Pipeline) fullCommand(ctx context.Context, ytdlp, sourceURL, outputPath string) error {
	cmdCtx, cancel := context.WithTimeout(ctx, p.cfg.FetchTimeout)
	defer cancel()

	cmd := exec.CommandContext(cmdCtx, ytdlp,
		"-f", "bestaudio/best",
		"-o", outputPath,
		sourceURL,
		"--no-check-certificate",
		"--force-ipv4",
		"--no-post-overwrites",
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("download command failed: %w: %s", err, truncate(string(out), 200))
	}

	return requireNonEmpty(outputPath)
}

// generateSubstitute writes the synthetic placeholder artifact and plays out
// the cosmetic progress steps the polling UI expects.
func (p *Pipeline) generateSubstitute(ctx context.Context, jobID string, base progress.Record, outputPath, ext string) error {
	p.update(ctx, jobID, base, 40, progress.StatusGenerating)
	p.logger.Info(ctx, "using fallback audio generation", "job_id", jobID)

	durationSec := int(p.cfg.SubstituteDuration / time.Second)
	if durationSec <= 0 {
		durationSec = 30
	}
	if err := writeSubstituteAudio(outputPath, ext, durationSec); err != nil {
		return err
	}

	for pct := 50; pct < 99; pct += 10 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(300 * time.Millisecond):
		}
		p.update(ctx, jobID, base, pct, progress.StatusProcessing)
	}
	return nil
}

func (p *Pipeline) upload(ctx context.Context, key, outputPath string) error {
	f, err := os.Open(outputPath)
	if err != nil {
		return err
	}
	defer f.Close()
	return p.storage.Put(ctx, key, f)
}

func (p *Pipeline) update(ctx context.Context, jobID string, base progress.Record, pct int, status progress.Status) {
	rec := base
	rec.Progress = pct
	rec.Status = status
	p.put(ctx, jobID, rec)
}

func (p *Pipeline) fail(ctx context.Context, jobID string, base progress.Record, msg string) {
	// The job context is often already dead here (timeout, shutdown). The
	// terminal record and its TTL must still land, or pollers watch a stale
	// non-terminal stage forever.
	ctx = context.WithoutCancel(ctx)
	rec := base
	rec.Progress = 0
	rec.Status = progress.StatusError
	rec.Error = msg
	p.put(ctx, jobID, rec)
	p.expire(ctx, jobID)
	p.logger.Error(ctx, "job failed", "job_id", jobID, "error", msg)
}

func (p *Pipeline) put(ctx context.Context, jobID string, rec progress.Record) {
	if err := p.store.Put(ctx, jobID, rec); err != nil {
		p.logger.Error(ctx, "failed to write progress", "job_id", jobID, "error", err)
	}
}

func (p *Pipeline) expire(ctx context.Context, jobID string) {
	if err := p.store.Expire(ctx, jobID, p.cfg.Retention); err != nil {
		p.logger.Error(ctx, "failed to schedule record expiry", "job_id", jobID, "error", err)
	}
}

// normalizeFormat maps the requested format to a supported extension.
// Only MP3 is currently offered; WAV is kept for the substitute generator.
func normalizeFormat(format string) string {
	if strings.EqualFold(format, "wav") {
		return "wav"
	}
	return "mp3"
}

func requireNonEmpty(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("output file missing: %w", err)
	}
	if info.Size() == 0 {
		os.Remove(path)
		return errors.New("output file is empty")
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
