package pool

import (
	"context"
	"testing"
	"time"

	"clarifyagent/internal/session"
)

type fakeRunner struct {
	confidence float64
	delay      time.Duration
}

func (f *fakeRunner) Run(ctx context.Context, subtask session.Subtask) session.SubtaskResult {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return session.SubtaskResult{SubtaskID: subtask.ID, Focus: subtask.Focus, Confidence: f.confidence}
}

func TestExecuteParallelPreservesPositionalOrder(t *testing.T) {
	p := New(func() Runner { return &fakeRunner{confidence: 0.6} }, 3)
	subtasks := []session.Subtask{{ID: 0, Focus: "a"}, {ID: 1, Focus: "b"}, {ID: 2, Focus: "c"}}

	results := p.ExecuteParallel(context.Background(), subtasks)

	if len(results) != 3 {
		t.Fatalf("len(results) = %d, want 3", len(results))
	}
	for i, r := range results {
		if r == nil {
			t.Fatalf("results[%d] is nil", i)
		}
		if r.SubtaskID != subtasks[i].ID {
			t.Fatalf("results[%d].SubtaskID = %d, want %d", i, r.SubtaskID, subtasks[i].ID)
		}
	}
}

func TestExecuteParallelEmptyInput(t *testing.T) {
	p := New(func() Runner { return &fakeRunner{} }, 3)
	results := p.ExecuteParallel(context.Background(), nil)
	if len(results) != 0 {
		t.Fatalf("len(results) = %d, want 0", len(results))
	}
}

func TestControllerAdjustsDownOnHighErrorRate(t *testing.T) {
	c := NewController(4)
	base := time.Now().Add(-time.Hour)
	c.lastAdjust = base
	for i := 0; i < windowSize; i++ {
		c.Record(time.Second, i < 2) // 20% error rate, above the 10% threshold
	}
	if got := c.MaxParallel(); got != 3 {
		t.Fatalf("MaxParallel() = %d, want 3", got)
	}
}

func TestControllerAdjustsUpOnLowLatencyAndErrors(t *testing.T) {
	c := NewController(2)
	c.lastAdjust = time.Now().Add(-time.Hour)
	for i := 0; i < windowSize; i++ {
		c.Record(time.Second, false)
	}
	if got := c.MaxParallel(); got != 3 {
		t.Fatalf("MaxParallel() = %d, want 3", got)
	}
}

func TestControllerRespectsRateLimit(t *testing.T) {
	c := NewController(4)
	c.lastAdjust = time.Now() // just adjusted
	for i := 0; i < windowSize; i++ {
		c.Record(time.Second, true) // 100% error rate, would normally decrement
	}
	if got := c.MaxParallel(); got != 4 {
		t.Fatalf("MaxParallel() = %d, want 4 (rate-limited)", got)
	}
}

func TestControllerStatsReportsRecentSample(t *testing.T) {
	c := NewController(2)
	c.Record(2*time.Second, false)
	c.Record(4*time.Second, true)
	st := c.Stats()
	if st.TotalRequests != 2 {
		t.Fatalf("TotalRequests = %d, want 2", st.TotalRequests)
	}
	if st.RecentResponse != 4*time.Second {
		t.Fatalf("RecentResponse = %v, want 4s", st.RecentResponse)
	}
}
