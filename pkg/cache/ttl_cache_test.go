package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSetExpire(t *testing.T) {
	c := New[string, int](30*time.Millisecond, time.Hour)
	defer c.Close()

	c.Set("viewer", 8)
	v, ok := c.Get("viewer")
	require.True(t, ok)
	assert.Equal(t, 8, v)

	time.Sleep(50 * time.Millisecond)
	_, ok = c.Get("viewer")
	assert.False(t, ok)
}

func TestUpdateStartsFromZeroWhenMissing(t *testing.T) {
	c := New[string, int](time.Minute, time.Hour)
	defer c.Close()

	got := c.Update("a", func(cur int, found bool) int {
		assert.False(t, found)
		return cur + 8
	})
	assert.Equal(t, 8, got)

	got = c.Update("a", func(cur int, found bool) int {
		assert.True(t, found)
		return cur + 8
	})
	assert.Equal(t, 16, got)
}

func TestSweepCallsEvictHook(t *testing.T) {
	c := New[string, int](10*time.Millisecond, 5*time.Millisecond)
	defer c.Close()

	var mu sync.Mutex
	var evicted []string
	c.OnEvict(func(key string, _ int) {
		mu.Lock()
		evicted = append(evicted, key)
		mu.Unlock()
	})

	c.Set("viewer-1", 1)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(evicted) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, c.Len())
}

func TestCloseTwice(t *testing.T) {
	c := New[string, int](time.Minute, time.Hour)
	c.Close()
	c.Close()
}

func TestTouchExtendsLiveEntriesOnly(t *testing.T) {
	c := New[string, int](40*time.Millisecond, time.Hour)
	defer c.Close()

	c.Set("page", 1)
	for i := 0; i < 4; i++ {
		time.Sleep(20 * time.Millisecond)
		assert.True(t, c.Touch("page"))
	}
	v, ok := c.Get("page")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	time.Sleep(60 * time.Millisecond)
	assert.False(t, c.Touch("page"), "an expired entry stays expired")
	assert.False(t, c.Touch("missing"))
}
