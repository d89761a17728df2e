// Package progress tracks the pollable state of conversion jobs.
//
// The store is the single piece of shared mutable state in the service: the
// pipeline is the only writer for a given job id and pollers are concurrent
// readers. Records carry a retention window after which they are reclaimed;
// a reclaimed or never-written id reads back as absent and the API layer
// reports the pending sentinel instead.
package progress

import (
	"context"
	"time"
)

// Status is a stage tag of the conversion state machine.
type Status string

const (
	StatusPending     Status = "pending"     // sentinel for unknown ids
	StatusPreparing   Status = "preparing"   // initial record, before metadata
	StatusProcessing  Status = "processing"  // metadata resolved, output named
	StatusDownloading Status = "downloading" // external tool running
	StatusGenerating  Status = "generating"  // substitute artifact synthesis
	StatusUploading   Status = "uploading"   // artifact moving to storage
	StatusCompleted   Status = "completed"
	StatusError       Status = "error"
)

// Terminal reports whether s is a terminal state.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// Record is the mutable, pollable state of one job.
type Record struct {
	Progress    int    `json:"progress"`
	Status      Status `json:"status"`
	Title       string `json:"title,omitempty"`
	FileName    string `json:"fileName,omitempty"`
	Key         string `json:"s3Key,omitempty"`       // storage handle, set on completion
	DownloadURL string `json:"downloadUrl,omitempty"` // resolved at poll time
	Error       string `json:"error,omitempty"`
}

// Pending is the sentinel returned for ids that have no stored record.
func Pending() Record {
	return Record{Progress: 0, Status: StatusPending}
}

// DefaultRetention is how long records survive after their terminal write.
const DefaultRetention = time.Hour

// Store is a keyed, TTL-capable record store.
//
// Put upserts and always succeeds for a reachable backend. Get returns
// found=false for absent ids rather than an error, since a client may poll
// before or after the record's lifetime. Expire schedules reclamation of the
// record after ttl.
type Store interface {
	Put(ctx context.Context, id string, rec Record) error
	Get(ctx context.Context, id string) (Record, bool, error)
	Delete(ctx context.Context, id string) error
	Expire(ctx context.Context, id string, ttl time.Duration) error
}
