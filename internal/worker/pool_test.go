package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestPoolRunsSubmittedJobs(t *testing.T) {
	p := NewPool(&Config{MaxWorkers: 4, QueueSize: 16})
	p.Start()
	defer stop(p)

	var wg sync.WaitGroup
	var mu sync.Mutex
	ran := 0

	for i := 0; i < 10; i++ {
		wg.Add(1)
		err := p.Submit(func(ctx context.Context) error {
			defer wg.Done()
			mu.Lock()
			ran++
			mu.Unlock()
			return nil
		})
		if err != nil {
			t.Fatalf("submit: %v", err)
		}
	}

	wg.Wait()

	if ran != 10 {
		t.Fatalf("ran %d jobs, want 10", ran)
	}
	if got := p.GetMetrics()["completed_jobs"]; got != 10 {
		t.Fatalf("completed_jobs = %d, want 10", got)
	}
}

func TestPoolQueueFull(t *testing.T) {
	// Workers never started, so the queue cannot drain.
	p := NewPool(&Config{MaxWorkers: 1, QueueSize: 1})
	defer stop(p)

	noop := func(ctx context.Context) error { return nil }

	if err := p.Submit(noop); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if err := p.Submit(noop); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("second submit = %v, want ErrQueueFull", err)
	}
}

func TestPoolCountsFailures(t *testing.T) {
	p := NewPool(&Config{MaxWorkers: 1, QueueSize: 4})
	p.Start()
	defer stop(p)

	done := make(chan struct{})
	_ = p.Submit(func(ctx context.Context) error {
		defer close(done)
		return errors.New("boom")
	})
	<-done

	waitFor(t, func() bool { return p.GetMetrics()["failed_jobs"] == 1 })
}

func TestPoolRecoversFromPanic(t *testing.T) {
	p := NewPool(&Config{MaxWorkers: 1, QueueSize: 4})
	p.Start()
	defer stop(p)

	_ = p.Submit(func(ctx context.Context) error { panic("job blew up") })

	// A panicking job must not take the worker down with it.
	done := make(chan struct{})
	_ = p.Submit(func(ctx context.Context) error {
		close(done)
		return nil
	})

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not survive the panic")
	}
	waitFor(t, func() bool { return p.GetMetrics()["failed_jobs"] == 1 })
}

func TestPoolJobTimeout(t *testing.T) {
	p := NewPool(&Config{MaxWorkers: 1, QueueSize: 4, JobTimeout: 20 * time.Millisecond})
	p.Start()
	defer stop(p)

	got := make(chan error, 1)
	_ = p.Submit(func(ctx context.Context) error {
		<-ctx.Done()
		got <- ctx.Err()
		return ctx.Err()
	})

	select {
	case err := <-got:
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("ctx err = %v, want deadline exceeded", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("job context never expired")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{MaxWorkers: 1, QueueSize: 1}, false},
		{"no workers", Config{MaxWorkers: 0, QueueSize: 1}, true},
		{"no queue", Config{MaxWorkers: 1, QueueSize: 0}, true},
		{"negative timeout", Config{MaxWorkers: 1, QueueSize: 1, JobTimeout: -time.Second}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Fatalf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func stop(p *Pool) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	p.Stop(ctx)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
