package pool

import (
	"sync"
	"time"
)

const (
	windowSize       = 10
	maxSamples       = 50
	adjustInterval   = 30 * time.Second
	errorRateHighPct = 0.10
	errorRateLowPct  = 0.05
	avgLatencyHigh   = 15 * time.Second
	avgLatencyLow    = 5 * time.Second
	floorParallel    = 1
	ceilingParallel  = 8
)

// sample is one completed task's outcome, used by Controller to compute
// rolling error rate and average latency.
type sample struct {
	elapsed time.Duration
	failed  bool
}

// Controller holds the adaptive concurrency state: a rolling window of
// recent task outcomes and the current max_parallel ceiling, adjusted
// at most once every 30 seconds (spec.md §4.5).
type Controller struct {
	mu          sync.Mutex
	maxParallel int
	samples     []sample
	lastAdjust  time.Time
}

// NewController seeds the controller at the given starting ceiling,
// clamped to [floorParallel, ceilingParallel].
func NewController(startMaxParallel int) *Controller {
	if startMaxParallel < floorParallel {
		startMaxParallel = floorParallel
	}
	if startMaxParallel > ceilingParallel {
		startMaxParallel = ceilingParallel
	}
	return &Controller{maxParallel: startMaxParallel}
}

// MaxParallel returns the current ceiling.
func (c *Controller) MaxParallel() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.maxParallel
}

// Record appends a completed task's outcome and, if the last adjustment
// was over 30 seconds ago, considers adjusting the ceiling based on the
// last windowSize samples.
func (c *Controller) Record(elapsed time.Duration, failed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.samples = append(c.samples, sample{elapsed: elapsed, failed: failed})
	if len(c.samples) > maxSamples {
		c.samples = c.samples[len(c.samples)-maxSamples:]
	}

	now := time.Now()
	if !c.lastAdjust.IsZero() && now.Sub(c.lastAdjust) < adjustInterval {
		return
	}
	if len(c.samples) < windowSize {
		return
	}

	recent := c.samples[len(c.samples)-windowSize:]
	var errCount int
	var total time.Duration
	for _, s := range recent {
		if s.failed {
			errCount++
		}
		total += s.elapsed
	}
	errorRate := float64(errCount) / float64(len(recent))
	avg := total / time.Duration(len(recent))

	switch {
	case errorRate > errorRateHighPct || avg > avgLatencyHigh:
		if c.maxParallel > floorParallel {
			c.maxParallel--
			c.lastAdjust = now
		}
	case errorRate < errorRateLowPct && avg < avgLatencyLow:
		if c.maxParallel < ceilingParallel {
			c.maxParallel++
			c.lastAdjust = now
		}
	}
}

// Stats is a snapshot of the controller's rolling statistics for
// introspection (logging, diagnostics), supplementing the bare
// MaxParallel() getter spec.md calls for.
type Stats struct {
	MaxParallel    int
	TotalRequests  int
	ErrorRate      float64
	AvgResponse    time.Duration
	RecentResponse time.Duration
}

// Stats computes a snapshot over all retained samples (up to the last
// 50) and, separately, the most recent response time.
func (c *Controller) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := Stats{MaxParallel: c.maxParallel, TotalRequests: len(c.samples)}
	if len(c.samples) == 0 {
		return st
	}
	var errCount int
	var total time.Duration
	for _, s := range c.samples {
		if s.failed {
			errCount++
		}
		total += s.elapsed
	}
	st.ErrorRate = float64(errCount) / float64(len(c.samples))
	st.AvgResponse = total / time.Duration(len(c.samples))
	st.RecentResponse = c.samples[len(c.samples)-1].elapsed
	return st
}
