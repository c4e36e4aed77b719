package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unfazed24072005io/luxe-jewellery/internal/domain"
)

func TestMemoryGetSet(t *testing.T) {
	ctx := context.Background()
	store := NewMemory(time.Minute)

	_, ok, err := store.Get(ctx, domain.KindProducts, "list:all")
	require.NoError(t, err)
	assert.False(t, ok)

	payload := []byte(`[{"slug":"ring"}]`)
	require.NoError(t, store.Set(ctx, domain.KindProducts, 0, "list:all", payload))
	payload[0] = 'X'

	got, ok, err := store.Get(ctx, domain.KindProducts, "list:all")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `[{"slug":"ring"}]`, string(got), "stored value must not alias the caller's slice")
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	store := NewMemory(time.Minute, WithMemoryClock(func() time.Time { return now }))

	require.NoError(t, store.Set(ctx, domain.KindBlogs, 0, "k", []byte("v")))
	now = now.Add(59 * time.Second)
	_, ok, _ := store.Get(ctx, domain.KindBlogs, "k")
	assert.True(t, ok)

	now = now.Add(time.Second)
	_, ok, _ = store.Get(ctx, domain.KindBlogs, "k")
	assert.False(t, ok)
	assert.Equal(t, 0, store.Len(domain.KindBlogs))
}

func TestMemoryInvalidateIsScopedToKind(t *testing.T) {
	ctx := context.Background()
	store := NewMemory(0)
	require.NoError(t, store.Set(ctx, domain.KindProducts, 0, "a", []byte("1")))
	require.NoError(t, store.Set(ctx, domain.KindProducts, 0, "b", []byte("2")))
	require.NoError(t, store.Set(ctx, domain.KindCollections, 0, "a", []byte("3")))

	require.NoError(t, store.Invalidate(ctx, domain.KindProducts))

	_, ok, _ := store.Get(ctx, domain.KindProducts, "a")
	assert.False(t, ok)
	_, ok, _ = store.Get(ctx, domain.KindProducts, "b")
	assert.False(t, ok)
	_, ok, _ = store.Get(ctx, domain.KindCollections, "a")
	assert.True(t, ok)
}

func TestMemorySetDropsValuesFetchedBeforeInvalidate(t *testing.T) {
	ctx := context.Background()
	store := NewMemory(0)

	gen, err := store.Generation(ctx, domain.KindProducts)
	require.NoError(t, err)
	require.NoError(t, store.Invalidate(ctx, domain.KindProducts))
	require.NoError(t, store.Set(ctx, domain.KindProducts, gen, "list", []byte("stale")))

	_, ok, _ := store.Get(ctx, domain.KindProducts, "list")
	assert.False(t, ok)

	fresh, err := store.Generation(ctx, domain.KindProducts)
	require.NoError(t, err)
	assert.Equal(t, gen+1, fresh)
	require.NoError(t, store.Set(ctx, domain.KindProducts, fresh, "list", []byte("fresh")))
	got, ok, _ := store.Get(ctx, domain.KindProducts, "list")
	require.True(t, ok)
	assert.Equal(t, "fresh", string(got))

	other, err := store.Generation(ctx, domain.KindBlogs)
	require.NoError(t, err)
	assert.Zero(t, other)
}

func TestNopNeverHits(t *testing.T) {
	ctx := context.Background()
	var store Store = Nop{}
	require.NoError(t, store.Set(ctx, domain.KindProducts, 0, "k", []byte("v")))
	_, ok, err := store.Get(ctx, domain.KindProducts, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "by_slug:gold%3Aring", Key("by_slug", " gold:ring "))
	assert.NotEqual(t, Key("slug", "a:b"), Key("slug", "a_b"))
	assert.NotEqual(t, Key("a:b", "c"), Key("a", "b:c"))
	assert.Equal(t, "luxe:gen:products", generationKey(domain.KindProducts))
	assert.Equal(t, "luxe:products:3:list", entryKey(domain.KindProducts, 3, "list"))
}
