package cache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newClock() *fakeClock { return &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)} }

type doc struct {
	Name  string `json:"name"`
	Price float64
}

// exerciseStore runs the shared expiry contract against any store.
func exerciseStore(t *testing.T, c Cache[doc], clock *fakeClock) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	e, err := c.Set(ctx, "k", doc{Name: "PEPE", Price: 1.5})
	require.NoError(t, err)
	assert.Equal(t, clock.Now().UnixMilli(), e.FetchedAtMillis)

	got, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "PEPE", got.Value.Name)
	assert.False(t, c.IsExpired(got))

	clock.Advance(4*time.Minute + 59*time.Second)
	v, ok, err := Fresh(ctx, c, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1.5, v.Price)

	// age == TTL is already stale
	clock.Advance(time.Second)
	_, ok, err = Fresh(ctx, c, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	e2, err := c.Set(ctx, "k", doc{Name: "PEPE2"})
	require.NoError(t, err)
	assert.Greater(t, e2.FetchedAtMillis, e.FetchedAtMillis)
	v, ok, err = Fresh(ctx, c, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "PEPE2", v.Name)
}

func TestMemoryStore(t *testing.T) {
	clock := newClock()
	exerciseStore(t, NewMemoryStore[doc](5*time.Minute, WithClock(clock.Now)), clock)
}

func TestMemoryStore_SweepsExpired(t *testing.T) {
	clock := newClock()
	m := NewMemoryStore[int](time.Minute, WithClock(clock.Now))
	ctx := context.Background()
	for i := 0; i < sweepThreshold; i++ {
		_, _ = m.Set(ctx, fmt.Sprintf("k%d", i), i)
	}
	clock.Advance(2 * time.Minute)
	_, _ = m.Set(ctx, "fresh-1", 1)
	_, _ = m.Set(ctx, "fresh-2", 2)
	assert.Equal(t, 2, m.Len())
}

func TestDefaultTTL(t *testing.T) {
	clock := newClock()
	m := NewMemoryStore[int](0, WithClock(clock.Now))
	e, err := m.Set(context.Background(), "k", 1)
	require.NoError(t, err)

	clock.Advance(DefaultTTL - time.Millisecond)
	assert.False(t, m.IsExpired(e))
	clock.Advance(time.Millisecond)
	assert.True(t, m.IsExpired(e))
}

func TestNoopStore(t *testing.T) {
	var s NoopStore[doc]
	ctx := context.Background()
	_, err := s.Set(ctx, "k", doc{Name: "x"})
	require.NoError(t, err)
	_, ok, err := Fresh[doc](ctx, s, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	clock := newClock()
	store := NewRedisStore[doc](rdb, "md:", 5*time.Minute, WithClock(clock.Now))
	exerciseStore(t, store, clock)

	assert.True(t, mr.Exists("md:k"))
	assert.Equal(t, 5*time.Minute, mr.TTL("md:k"))
}

func TestRedisStore_CorruptValueIsMiss(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	require.NoError(t, mr.Set("md:bad", "{not json"))
	store := NewRedisStore[doc](rdb, "md:", time.Minute)
	_, ok, err := store.Get(context.Background(), "bad")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStore_Unavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { rdb.Close() })
	mr.Close()

	store := NewRedisStore[doc](rdb, "md:", time.Minute)
	_, _, err := store.Get(context.Background(), "k")
	assert.Error(t, err)
}

type docCodec struct{}

func (docCodec) Encode(d doc) ([]byte, error) { return []byte(d.Name), nil }

func (docCodec) Decode(b []byte) (doc, error) {
	if len(b) == 0 {
		return doc{}, errors.New("empty")
	}
	return doc{Name: string(b), Price: 1.5}, nil
}

func TestFileStore(t *testing.T) {
	clock := newClock()
	store, err := NewFileStore[doc](t.TempDir(), ".bin", docCodec{}, 5*time.Minute, WithClock(clock.Now))
	require.NoError(t, err)
	exerciseStore(t, store, clock)
}

func TestFileStore_RejectsEmptyKey(t *testing.T) {
	store, err := NewFileStore[doc](t.TempDir(), ".bin", docCodec{}, time.Minute)
	require.NoError(t, err)
	_, err = store.Set(context.Background(), "../..", doc{Name: "x"})
	assert.Error(t, err)
}

func TestSanitizeKey(t *testing.T) {
	assert.Equal(t, "So1_png-x", SanitizeKey("So1_png-x"))
	assert.Empty(t, SanitizeKey("<>.."))

	unsafeKey := SanitizeKey("../etc/passwd")
	assert.True(t, strings.HasPrefix(unsafeKey, "etcpasswd-"), unsafeKey)
	assert.NotEqual(t, SanitizeKey("etcpasswd"), unsafeKey)

	long := strings.Repeat("a", 200)
	assert.Len(t, SanitizeKey(long), maxKeyLen)
	assert.NotEqual(t, SanitizeKey(long), SanitizeKey(long+"b"))

	addr := "0x" + strings.Repeat("ab", 32)
	png, svg := SanitizeKey(addr+"_png"), SanitizeKey(addr+"_svg")
	assert.NotEqual(t, png, svg)
	assert.LessOrEqual(t, len(png), maxKeyLen)
	assert.Equal(t, png, SanitizeKey(addr+"_png"))
}

func TestFileStore_LongKeysDoNotCollide(t *testing.T) {
	store, err := NewFileStore[doc](t.TempDir(), ".bin", docCodec{}, time.Minute)
	require.NoError(t, err)
	ctx := context.Background()
	prefix := strings.Repeat("x", maxKeyLen)

	_, err = store.Set(ctx, prefix+"_one", doc{Name: "one"})
	require.NoError(t, err)
	_, err = store.Set(ctx, prefix+"_two", doc{Name: "two"})
	require.NoError(t, err)

	got, ok, err := store.Get(ctx, prefix+"_one")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "one", got.Value.Name)
}

func TestFileStore_ConcurrentSetNeverExposesPartialFile(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore[doc](dir, ".bin", docCodec{}, time.Minute)
	require.NoError(t, err)
	ctx := context.Background()

	const writers = 8
	values := make(map[string]bool, writers)
	for i := 0; i < writers; i++ {
		values[strings.Repeat(string(rune('a'+i)), 64<<10+i)] = true
	}

	var wg sync.WaitGroup
	for v := range values {
		wg.Add(1)
		go func(v string) {
			defer wg.Done()
			for j := 0; j < 5; j++ {
				_, err := store.Set(ctx, "same", doc{Name: v})
				assert.NoError(t, err)
			}
		}(v)
	}
	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()

	for reading := true; reading; {
		select {
		case <-done:
			reading = false
		default:
		}
		got, ok, err := store.Get(ctx, "same")
		require.NoError(t, err)
		if ok {
			require.True(t, values[got.Value.Name], "read a partial value of %d bytes", len(got.Value.Name))
		}
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "same.bin", entries[0].Name())
}
