package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DmitryBochkarev/string-tools/internal/config"
	"github.com/DmitryBochkarev/string-tools/internal/model"
)

// TestBatchProcessorNew tests the BatchProcessor constructor.
func TestBatchProcessorNew(t *testing.T) {
	t.Parallel()

	t.Run("creates processor with defaults", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(func() *Pipeline { return New() })
		if bp.Concurrency() != config.DefaultBatchSize {
			t.Errorf("expected default concurrency %d, got %d", config.DefaultBatchSize, bp.Concurrency())
		}
	})

	t.Run("applies WithConcurrency option", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(func() *Pipeline { return New() }, WithConcurrency(2))
		if bp.Concurrency() != 2 {
			t.Errorf("expected concurrency 2, got %d", bp.Concurrency())
		}
	})

	t.Run("ignores non-positive concurrency", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(func() *Pipeline { return New() }, WithConcurrency(0))
		if bp.Concurrency() != config.DefaultBatchSize {
			t.Errorf("expected default concurrency, got %d", bp.Concurrency())
		}
	})
}

// TestBatchProcessorProcessBatch tests concurrent processing of documents.
func TestBatchProcessorProcessBatch(t *testing.T) {
	t.Parallel()

	t.Run("returns reports in input order", func(t *testing.T) {
		t.Parallel()

		factory := func() *Pipeline {
			p := New()
			p.AddStep(&mockStep{name: "tag", doFunc: func(_ context.Context, r *model.FilterReport) error {
				// Later sources finish first.
				if r.Source == "a.html" {
					time.Sleep(20 * time.Millisecond)
				}
				r.Output = "done:" + r.Source
				return nil
			}})
			return p
		}

		sources := []string{"a.html", "b.html", "c.html"}
		reports, err := NewBatchProcessor(factory, WithConcurrency(3)).ProcessBatch(t.Context(), sources)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(reports) != len(sources) {
			t.Fatalf("expected %d reports, got %d", len(sources), len(reports))
		}
		for i, r := range reports {
			if r.Source != sources[i] || r.Output != "done:"+sources[i] {
				t.Errorf("report %d = %s/%s", i, r.Source, r.Output)
			}
		}
	})

	t.Run("failed documents do not stop the batch", func(t *testing.T) {
		t.Parallel()

		factory := func() *Pipeline {
			p := New()
			p.AddStep(&mockStep{name: "read", doFunc: func(_ context.Context, r *model.FilterReport) error {
				if r.Source == "bad.html" {
					return ErrInputTooLarge
				}
				return nil
			}})
			return p
		}

		reports, err := NewBatchProcessor(factory).ProcessBatch(t.Context(), []string{"ok.html", "bad.html", "ok2.html"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if reports[0].Failed() || reports[2].Failed() {
			t.Error("expected good documents to succeed")
		}
		if !errors.Is(reports[1].Error, ErrInputTooLarge) {
			t.Errorf("expected ErrInputTooLarge on bad document, got %v", reports[1].Error)
		}
	})

	t.Run("respects the concurrency limit", func(t *testing.T) {
		t.Parallel()

		var running, peak atomic.Int32
		factory := func() *Pipeline {
			p := New()
			p.AddStep(&mockStep{name: "slow", doFunc: func(context.Context, *model.FilterReport) error {
				n := running.Add(1)
				for {
					old := peak.Load()
					if n <= old || peak.CompareAndSwap(old, n) {
						break
					}
				}
				time.Sleep(10 * time.Millisecond)
				running.Add(-1)
				return nil
			}})
			return p
		}

		sources := make([]string, 8)
		for i := range sources {
			sources[i] = "doc.html"
		}
		if _, err := NewBatchProcessor(factory, WithConcurrency(2)).ProcessBatch(t.Context(), sources); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if peak.Load() > 2 {
			t.Errorf("expected at most 2 concurrent documents, saw %d", peak.Load())
		}
	})

	t.Run("cancelled context returns error", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		_, err := NewBatchProcessor(func() *Pipeline { return New() }).ProcessBatch(ctx, []string{"a.html"})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})

	t.Run("empty batch", func(t *testing.T) {
		t.Parallel()

		reports, err := NewBatchProcessor(func() *Pipeline { return New() }).ProcessBatch(t.Context(), nil)
		if err != nil || len(reports) != 0 {
			t.Errorf("expected no reports and no error, got %d, %v", len(reports), err)
		}
	})
}

// TestBatchProcessorProcessBatchWithCallback tests streaming results.
func TestBatchProcessorProcessBatchWithCallback(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	seen := make(map[int]string)

	err := NewBatchProcessor(func() *Pipeline { return New() }).ProcessBatchWithCallback(
		t.Context(),
		[]string{"a.html", "b.html"},
		func(report *model.FilterReport, index int) {
			mu.Lock()
			defer mu.Unlock()
			seen[index] = report.Source
		},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seen[0] != "a.html" || seen[1] != "b.html" {
		t.Errorf("unexpected callbacks: %v", seen)
	}
}
