// Package convert is the service entry point for conversion jobs: it
// accepts requests, allocates ids, detaches pipeline execution onto the
// worker pool, and serves the polling read path.
package convert

import (
	"context"
	"fmt"

	"github.com/iamMichaelSmith/Youtube-MP3-Converter/internal/idgen"
	"github.com/iamMichaelSmith/Youtube-MP3-Converter/internal/logging"
	"github.com/iamMichaelSmith/Youtube-MP3-Converter/internal/metadata"
	"github.com/iamMichaelSmith/Youtube-MP3-Converter/internal/pipeline"
	"github.com/iamMichaelSmith/Youtube-MP3-Converter/internal/progress"
	"github.com/iamMichaelSmith/Youtube-MP3-Converter/internal/storage"
	"github.com/iamMichaelSmith/Youtube-MP3-Converter/internal/worker"
)

// Service orchestrates conversion jobs.
type Service struct {
	store    progress.Store
	pool     *worker.Pool
	pipe     *pipeline.Pipeline
	resolver *metadata.Resolver
	storage  storage.Interface
	logger   *logging.Logger
}

// NewService wires the orchestrator.
func NewService(store progress.Store, pool *worker.Pool, pipe *pipeline.Pipeline, resolver *metadata.Resolver, st storage.Interface, log *logging.Logger) *Service {
	if log == nil {
		log = logging.StdLogger()
	}
	return &Service{
		store:    store,
		pool:     pool,
		pipe:     pipe,
		resolver: resolver,
		storage:  st,
		logger:   log,
	}
}

// Submit validates the URL, allocates a job id, durably records the initial
// state, and detaches the pipeline. The initial Put happens before the id is
// returned so a poll issued immediately after never sees an absent record.
func (s *Service) Submit(ctx context.Context, sourceURL, format string) (string, error) {
	if _, err := metadata.ExtractVideoID(sourceURL); err != nil {
		return "", err
	}

	jobID := idgen.String()

	initial := progress.Record{Progress: 0, Status: progress.StatusPreparing}
	if err := s.store.Put(ctx, jobID, initial); err != nil {
		return "", fmt.Errorf("failed to record initial job state: %w", err)
	}

	err := s.pool.Submit(func(jobCtx context.Context) error {
		return s.pipe.Run(jobCtx, jobID, sourceURL, format)
	})
	if err != nil {
		_ = s.store.Delete(ctx, jobID)
		return "", fmt.Errorf("failed to schedule job: %w", err)
	}

	s.logger.Info(ctx, "job submitted", "job_id", jobID, "url", sourceURL, "format", format)
	return jobID, nil
}

// Poll returns the job's current record, defaulting to the pending sentinel
// for unknown or expired ids. For completed jobs a fresh retrieval URL is
// resolved on every poll, since presigned URLs expire independently of the
// record's retention window.
func (s *Service) Poll(ctx context.Context, jobID string) (progress.Record, error) {
	rec, found, err := s.store.Get(ctx, jobID)
	if err != nil {
		return progress.Record{}, err
	}
	if !found {
		return progress.Pending(), nil
	}

	if rec.Status == progress.StatusCompleted && rec.Key != "" {
		url, err := s.storage.GetURL(ctx, rec.Key)
		if err != nil {
			s.logger.Error(ctx, "failed to resolve download URL", "job_id", jobID, "error", err)
		} else {
			rec.DownloadURL = url
		}
	}

	return rec, nil
}

// Info resolves descriptive metadata for a URL without starting a job.
func (s *Service) Info(ctx context.Context, sourceURL string) (metadata.Metadata, error) {
	return s.resolver.Resolve(ctx, sourceURL)
}
