package batch

import (
	"context"
	"errors"
	"fmt"
)

// Default batch processing configuration.
const (
	// DefaultBatchSize is the default number of items per progress page.
	DefaultBatchSize = 100

	// MinBatchSize is the minimum allowed batch size.
	MinBatchSize = 1

	// MaxBatchSize is the maximum allowed batch size.
	MaxBatchSize = 1000
)

// Common batch processing errors.
var (
	ErrInvalidBatchSize = errors.New("batch size must be between 1 and 1000")
	ErrNilCallback      = errors.New("batch callback cannot be nil")
)

// ItemFunc processes one item. index is the item's position in the input.
type ItemFunc[T any] func(ctx context.Context, item T, index int) error

// ProgressCallback is an optional callback invoked after each page of items.
type ProgressCallback func(progress *Progress)

// Failure is one item that returned an error.
type Failure struct {
	Index int
	Err   error
}

// Report summarizes a run.
type Report struct {
	Processed int
	Failed    int
	Failures  []Failure
}

// Succeeded returns the number of items that completed without error.
func (r Report) Succeeded() int {
	return r.Processed - r.Failed
}

// Processor runs an ItemFunc over items sequentially.
type Processor[T any] struct {
	batchSize  int
	onProgress ProgressCallback
}

// NewProcessor creates a processor that reports progress every batchSize items.
func NewProcessor[T any](batchSize int) (*Processor[T], error) {
	if batchSize < MinBatchSize || batchSize > MaxBatchSize {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidBatchSize, batchSize)
	}
	return &Processor[T]{batchSize: batchSize}, nil
}

// WithProgressCallback sets a progress callback for the processor.
func (p *Processor[T]) WithProgressCallback(callback ProgressCallback) *Processor[T] {
	p.onProgress = callback
	return p
}

// Process calls fn for every item in order. Item errors are collected in the
// report. The returned error is non-nil only for a nil fn or when ctx is
// canceled, in which case the report covers the items handled so far.
func (p *Processor[T]) Process(ctx context.Context, items []T, fn ItemFunc[T]) (Report, error) {
	var report Report
	if fn == nil {
		return report, ErrNilCallback
	}
	if len(items) == 0 {
		return report, nil
	}

	progress := NewProgress(len(items), p.pageCount(len(items)))
	for start := 0; start < len(items); start += p.batchSize {
		end := min(start+p.batchSize, len(items))

		failed := 0
		for i := start; i < end; i++ {
			if err := ctx.Err(); err != nil {
				return report, err
			}
			report.Processed++
			if err := fn(ctx, items[i], i); err != nil {
				report.Failed++
				report.Failures = append(report.Failures, Failure{Index: i, Err: err})
				failed++
			}
		}

		progress.pageDone(end-start, failed)
		if p.onProgress != nil {
			p.onProgress(progress)
		}
	}
	return report, nil
}

func (p *Processor[T]) pageCount(n int) int {
	return (n + p.batchSize - 1) / p.batchSize
}
