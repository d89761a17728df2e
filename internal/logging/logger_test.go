package logging

import (
	"testing"

	"github.com/sirupsen/logrus"
)

func TestReconfigure(t *testing.T) {
	lg, cleanup, err := New(&Config{Level: int(logrus.InfoLevel), Format: "text"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer cleanup()

	lg.Reconfigure(&Config{Level: int(logrus.DebugLevel), Format: "json"})

	if got := lg.l.GetLevel(); got != logrus.DebugLevel {
		t.Fatalf("level = %v, want debug", got)
	}
	if _, ok := lg.l.Formatter.(*logrus.JSONFormatter); !ok {
		t.Fatalf("formatter = %T, want JSON", lg.l.Formatter)
	}

	// Out-of-range levels fall back to info instead of breaking the logger.
	lg.Reconfigure(&Config{Level: 99})
	if got := lg.l.GetLevel(); got != logrus.InfoLevel {
		t.Fatalf("level = %v, want info fallback", got)
	}

	// A nil config is a no-op.
	lg.Reconfigure(nil)
	if got := lg.l.GetLevel(); got != logrus.InfoLevel {
		t.Fatalf("level changed by nil config: %v", got)
	}
}

func TestFields(t *testing.T) {
	f := fields([]any{"job_id", "abc", "attempt", 2})
	if f["job_id"] != "abc" || f["attempt"] != 2 {
		t.Fatalf("fields = %v", f)
	}

	// A dangling key is dropped rather than panicking.
	f = fields([]any{"job_id"})
	if len(f) != 0 {
		t.Fatalf("fields = %v, want empty", f)
	}
}
