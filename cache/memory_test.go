package cache_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arete-go/retrieval/cache"
)

func TestMemoryCacheGetSet(t *testing.T) {
	c := cache.NewMemoryCache()
	c.Set("k", []byte("v"), time.Minute)

	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), v)
}

func TestMemoryCacheExpires(t *testing.T) {
	c := cache.NewMemoryCache()
	c.Set("k", []byte("v"), -time.Second)

	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestMemoryCacheSoftCapEvictsOldest(t *testing.T) {
	c := cache.NewMemoryCache(cache.WithSoftCap(2, 1))
	c.Set("a", []byte("1"), time.Minute)
	time.Sleep(time.Millisecond)
	c.Set("b", []byte("2"), time.Minute)
	time.Sleep(time.Millisecond)
	c.Set("c", []byte("3"), time.Minute)

	assert.LessOrEqual(t, c.Len(), 2)
	_, aOK := c.Get("a")
	assert.False(t, aOK)
}

func TestKeyIsDeterministic(t *testing.T) {
	k1 := cache.Key("query", "method", cache.JoinIDs([]string{"p1", "p2"}))
	k2 := cache.Key("query", "method", cache.JoinIDs([]string{"p1", "p2"}))
	assert.Equal(t, k1, k2)
}

func TestKeyDiffersOnDifferentInputs(t *testing.T) {
	k1 := cache.Key("query-a")
	k2 := cache.Key("query-b")
	assert.NotEqual(t, k1, k2)
}
