package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func TestEntry(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	entry := NewEntry("k", 42, now, time.Minute)

	assert.Equal(t, 42, entry.Value)
	assert.False(t, entry.IsExpiredAt(now.Add(30*time.Second)))
	assert.True(t, entry.IsExpiredAt(now.Add(61*time.Second)))
	assert.Equal(t, now.Add(time.Minute), entry.ExpiresAt)
}

func TestMemoryStore_GetSet(t *testing.T) {
	clock := newFakeClock()
	s := NewMemoryStore[*string](5*time.Minute, WithClock(clock.Now))

	v := "tofu"
	s.Set("a", &v)

	got, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, "tofu", *got)

	t.Run("negative results are hits", func(t *testing.T) {
		s.Set("missing", nil)
		got, ok := s.Get("missing")
		assert.True(t, ok)
		assert.Nil(t, got)
	})

	t.Run("expired entries miss", func(t *testing.T) {
		clock.Advance(6 * time.Minute)
		_, ok := s.Get("a")
		assert.False(t, ok)
	})
}

func TestMemoryStore_SweepOverThreshold(t *testing.T) {
	clock := newFakeClock()
	s := NewMemoryStore[int](time.Minute, WithClock(clock.Now), WithCleanupThreshold(3))

	s.Set("a", 1)
	s.Set("b", 2)
	clock.Advance(2 * time.Minute)
	s.Set("c", 3)
	s.Set("d", 4) // size 4 > 3: a and b are swept

	assert.Equal(t, 2, s.Len())
	_, ok := s.Get("c")
	assert.True(t, ok)
}

func TestMemoryStore_PurgeWhenSweepInsufficient(t *testing.T) {
	clock := newFakeClock()
	s := NewMemoryStore[int](time.Minute, WithClock(clock.Now), WithCleanupThreshold(2))

	s.Set("a", 1)
	s.Set("b", 2)
	s.Set("c", 3)

	assert.Equal(t, 0, s.Len())
}

func TestMemoryStore_DefaultTTL(t *testing.T) {
	clock := newFakeClock()
	s := NewMemoryStore[int](0, WithClock(clock.Now))
	s.Set("a", 1)

	clock.Advance(DefaultTTL)
	_, ok := s.Get("a")
	assert.True(t, ok)

	clock.Advance(time.Second)
	_, ok = s.Get("a")
	assert.False(t, ok)
}

func TestMemoryStore_Concurrent(t *testing.T) {
	s := NewMemoryStore[int](time.Minute)
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("k%d", i%5)
			s.Set(key, i)
			_, _ = s.Get(key)
		}(i)
	}
	wg.Wait()
	assert.LessOrEqual(t, s.Len(), 5)
}

func TestParseTTL(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{in: "300", want: 5 * time.Minute},
		{in: "5m", want: 5 * time.Minute},
		{in: "1h30m", want: 90 * time.Minute},
		{in: "0", wantErr: true},
		{in: "200h", wantErr: true},
		{in: "forever", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTTL(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "45s", FormatDuration(45*time.Second))
	assert.Equal(t, "5m", FormatDuration(5*time.Minute))
	assert.Equal(t, "1h30m", FormatDuration(90*time.Minute))
	assert.Equal(t, "2d3h", FormatDuration(51*time.Hour))
}
