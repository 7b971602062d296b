package batch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessor_Process(t *testing.T) {
	items := make([]int, 25)
	for i := range items {
		items[i] = i
	}

	t.Run("Sequential in order", func(t *testing.T) {
		p, err := NewProcessor[int](10)
		require.NoError(t, err)

		var seen []int
		var pages []int
		p.WithProgressCallback(func(progress *Progress) {
			pages = append(pages, progress.Snapshot().Processed)
		})

		report, err := p.Process(context.Background(), items, func(_ context.Context, item, index int) error {
			assert.Equal(t, item, index)
			seen = append(seen, item)
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, items, seen)
		assert.Equal(t, []int{10, 20, 25}, pages)
		assert.Equal(t, 25, report.Processed)
		assert.Equal(t, 25, report.Succeeded())
	})

	t.Run("Item errors do not stop the run", func(t *testing.T) {
		p, _ := NewProcessor[int](10)
		report, err := p.Process(context.Background(), items, func(_ context.Context, item, _ int) error {
			if item%10 == 3 {
				return errors.New("bad item")
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 25, report.Processed)
		assert.Equal(t, 3, report.Failed)
		assert.Equal(t, 22, report.Succeeded())
		require.Len(t, report.Failures, 3)
		assert.Equal(t, 13, report.Failures[1].Index)
	})

	t.Run("Cancellation stops the run", func(t *testing.T) {
		p, _ := NewProcessor[int](10)
		ctx, cancel := context.WithCancel(context.Background())
		report, err := p.Process(ctx, items, func(_ context.Context, item, _ int) error {
			if item == 4 {
				cancel()
			}
			return nil
		})
		require.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 5, report.Processed)
	})

	t.Run("EmptyItems", func(t *testing.T) {
		p, err := NewProcessor[int](DefaultBatchSize)
		require.NoError(t, err)
		report, err := p.Process(context.Background(), nil, func(context.Context, int, int) error { return nil })
		require.NoError(t, err)
		assert.Zero(t, report.Processed)
	})

	t.Run("NilCallback", func(t *testing.T) {
		p, err := NewProcessor[int](DefaultBatchSize)
		require.NoError(t, err)
		_, err = p.Process(context.Background(), items, nil)
		assert.ErrorIs(t, err, ErrNilCallback)
	})

	t.Run("InvalidBatchSize", func(t *testing.T) {
		_, err := NewProcessor[int](0)
		assert.ErrorIs(t, err, ErrInvalidBatchSize)
		_, err = NewProcessor[int](2000)
		assert.ErrorIs(t, err, ErrInvalidBatchSize)
	})
}

func TestProgress(t *testing.T) {
	clock := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	p := newProgress(100, 10, func() time.Time { return clock })

	s := p.Snapshot()
	assert.Zero(t, s.Percent())
	assert.False(t, s.Done())
	assert.Zero(t, s.Remaining)

	clock = clock.Add(10 * time.Second)
	p.pageDone(10, 1)
	s = p.Snapshot()
	assert.InDelta(t, 10.0, s.Percent(), 1e-9)
	assert.Equal(t, 1, s.Page)
	assert.Equal(t, 10, s.Pages)
	assert.Equal(t, 90*time.Second, s.Remaining)

	p.pageDone(90, 0)
	s = p.Snapshot()
	assert.True(t, s.Done())
	assert.Equal(t, 100, s.Processed)
	assert.Equal(t, 1, s.Failed)
	assert.InDelta(t, 100.0, s.Percent(), 1e-9)
}

func TestProgress_EmptyRun(t *testing.T) {
	s := NewProgress(0, 0).Snapshot()
	assert.Zero(t, s.Percent())
	assert.True(t, s.Done())
}
