package ingestion

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// ProgressTracker reports how many chunks of a build have been embedded.
// It is safe for concurrent use by pool workers.
type ProgressTracker struct {
	mu           sync.Mutex
	writer       io.Writer
	label        string
	total        int
	done         int
	every        int
	lastReported int
	started      time.Time
}

// NewProgressTracker returns a tracker writing to w every time at least
// every further items complete. A nil writer discards output.
func NewProgressTracker(w io.Writer, label string, total, every int) *ProgressTracker {
	if w == nil {
		w = io.Discard
	}
	if every < 1 {
		every = 1
	}
	return &ProgressTracker{
		writer:  w,
		label:   label,
		total:   total,
		every:   every,
		started: time.Now(),
	}
}

// Add records n more completed items.
func (p *ProgressTracker) Add(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done = min(p.done+n, p.total)
	if p.done-p.lastReported >= p.every {
		p.report()
		p.lastReported = p.done
	}
}

// Done returns the number of completed items.
func (p *ProgressTracker) Done() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done
}

// Finish writes a final line.
func (p *ProgressTracker) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.report()
	fmt.Fprintln(p.writer)
}

// Elapsed returns the time since the tracker was created.
func (p *ProgressTracker) Elapsed() time.Duration {
	return time.Since(p.started)
}

// report must be called with the lock held.
func (p *ProgressTracker) report() {
	rate := 0.0
	if secs := time.Since(p.started).Seconds(); secs > 0 {
		rate = float64(p.done) / secs
	}
	pct := 100.0
	if p.total > 0 {
		pct = float64(p.done) / float64(p.total) * 100
	}
	fmt.Fprintf(p.writer, "\r%s: %d/%d (%.1f%%) - %.1f chunks/s", p.label, p.done, p.total, pct, rate)
}
