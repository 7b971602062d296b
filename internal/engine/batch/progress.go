package batch

import (
	"sync"
	"time"
)

// Progress tracks a run page by page. The processor writes it; callbacks and
// other goroutines read it through Snapshot.
type Progress struct {
	mu sync.RWMutex

	total     int
	processed int
	failed    int
	pages     int
	pageCount int
	started   time.Time
	updated   time.Time
	now       func() time.Time
}

// Status is a point-in-time copy of a Progress.
type Status struct {
	Total     int
	Processed int
	Failed    int
	Page      int
	Pages     int
	Elapsed   time.Duration
	Remaining time.Duration
}

// Percent returns the share of processed items, 0-100.
func (s Status) Percent() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Processed) * 100 / float64(s.Total)
}

// Done reports whether every item has been handled.
func (s Status) Done() bool {
	return s.Processed >= s.Total
}

// NewProgress starts tracking total items split into pageCount pages.
func NewProgress(total, pageCount int) *Progress {
	return newProgress(total, pageCount, time.Now)
}

func newProgress(total, pageCount int, now func() time.Time) *Progress {
	start := now()
	return &Progress{total: total, pageCount: pageCount, started: start, updated: start, now: now}
}

// pageDone records a finished page of n items, failed of which returned an error.
func (p *Progress) pageDone(n, failed int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.processed += n
	p.failed += failed
	p.pages++
	p.updated = p.now()
}

// Snapshot returns the current status. Remaining extrapolates the average
// time per item so far and is zero until the first page completes.
func (p *Progress) Snapshot() Status {
	p.mu.RLock()
	defer p.mu.RUnlock()

	s := Status{
		Total:     p.total,
		Processed: p.processed,
		Failed:    p.failed,
		Page:      p.pages,
		Pages:     p.pageCount,
		Elapsed:   p.updated.Sub(p.started),
	}
	if p.processed > 0 {
		s.Remaining = s.Elapsed / time.Duration(p.processed) * time.Duration(p.total-p.processed)
	}
	return s
}
