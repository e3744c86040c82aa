package memcache

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeClock lets tests advance time without sleeping.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestCache(clock *fakeClock) *Cache {
	c := New(testLogger())
	c.now = clock.now
	return c
}

func TestCache_RoundTrip(t *testing.T) {
	assert := assert.New(t)
	clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	c := newTestCache(clock)

	c.Set("applications", []string{"a", "b"}, time.Minute)

	v, ok := c.Get("applications")
	assert.True(ok)
	assert.Equal([]string{"a", "b"}, v)
}

func TestCache_ExpiryIsLazyAndIdempotent(t *testing.T) {
	assert := assert.New(t)
	clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	c := newTestCache(clock)

	c.Set("usage:app-1:last30days", "snapshot", 5*time.Minute)

	// Just before expiry the value is still served.
	clock.advance(5*time.Minute - time.Second)
	v, ok := c.Get("usage:app-1:last30days")
	assert.True(ok)
	assert.Equal("snapshot", v)

	// At exactly expiresAt the entry is absent and removed as a side
	// effect of the read.
	clock.advance(time.Second)
	_, ok = c.Get("usage:app-1:last30days")
	assert.False(ok)
	assert.Equal(0, c.size())

	// A second read never resurrects the expired value.
	_, ok = c.Get("usage:app-1:last30days")
	assert.False(ok)
}

func TestCache_SetReplaces(t *testing.T) {
	assert := assert.New(t)
	clock := &fakeClock{t: time.Now()}
	c := newTestCache(clock)

	c.Set("k", "first", time.Minute)
	c.Set("k", "second", time.Minute)

	v, ok := c.Get("k")
	assert.True(ok)
	assert.Equal("second", v)
	assert.Equal(1, c.size())
}

func TestCache_DistinctPeriodKeysDoNotCollide(t *testing.T) {
	assert := assert.New(t)
	clock := &fakeClock{t: time.Now()}
	c := newTestCache(clock)

	c.Set("usage:app-1:last30days", "thirty", time.Minute)
	c.Set("usage:app-1:last90days", "ninety", time.Minute)

	v, _ := c.Get("usage:app-1:last30days")
	assert.Equal("thirty", v)
	v, _ = c.Get("usage:app-1:last90days")
	assert.Equal("ninety", v)
}

func TestCache_Delete(t *testing.T) {
	assert := assert.New(t)
	clock := &fakeClock{t: time.Now()}
	c := newTestCache(clock)

	c.Set("k", 1, time.Minute)
	c.Delete("k")

	_, ok := c.Get("k")
	assert.False(ok)
}

func TestCache_ClearRemovesEverythingIncludingUnexpired(t *testing.T) {
	assert := assert.New(t)
	clock := &fakeClock{t: time.Now()}
	c := newTestCache(clock)

	c.Set("a", 1, time.Hour)
	c.Set("b", 2, time.Hour)

	assert.Equal(2, c.Clear())
	assert.Equal(0, c.size())
	_, ok := c.Get("a")
	assert.False(ok)
}

func TestCache_ZeroTTLIsImmediatelyStale(t *testing.T) {
	assert := assert.New(t)
	clock := &fakeClock{t: time.Now()}
	c := newTestCache(clock)

	c.Set("k", "v", 0)
	_, ok := c.Get("k")
	assert.False(ok)
}
