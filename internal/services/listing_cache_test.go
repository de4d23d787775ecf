package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/anonto42/yatube/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	ttls    map[string]time.Duration
	failGet bool
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet {
		return nil, false, errors.New("cache down")
	}
	v, ok := m.entries[key]
	return v, ok, nil
}

func (m *memoryCache) Set(_ context.Context, key string, val []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = val
	m.ttls[key] = ttl
	return nil
}

func (m *memoryCache) DeletePrefix(_ context.Context, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.entries {
		if strings.HasPrefix(k, prefix) {
			delete(m.entries, k)
		}
	}
	return nil
}

// stubListing counts the ListPosts calls that reach it.
type stubListing struct {
	Listing
	calls int
	text  string
}

func (s *stubListing) ListPosts(_ context.Context, _ Principal, f Filter, page int) (*Page[models.Post], error) {
	s.calls++
	if f.Kind == FilterGroup && f.Slug == "missing" {
		return nil, ErrNotFound
	}
	return newPage([]models.Post{{ID: "p1", Text: s.text}}, 1, 1, 1, PageSize), nil
}

func TestCachedListingServesHomeFromCache(t *testing.T) {
	ctx := context.Background()
	next := &stubListing{text: "v1"}
	cache := newMemoryCache()
	cached := NewCachedListing(next, cache, 20*time.Second, nil)

	first, err := cached.ListPosts(ctx, Anonymous, AllPosts(), 1)
	require.NoError(t, err)
	next.text = "v2"
	second, err := cached.ListPosts(ctx, Anonymous, AllPosts(), 1)
	require.NoError(t, err)

	assert.Equal(t, 1, next.calls)
	assert.Equal(t, "v1", first.Items[0].Text)
	assert.Equal(t, "v1", second.Items[0].Text)
	assert.Equal(t, 20*time.Second, cache.ttls[indexKeyPrefix+"1"])

	// another page is a separate entry
	_, err = cached.ListPosts(ctx, Anonymous, AllPosts(), 2)
	require.NoError(t, err)
	assert.Equal(t, 2, next.calls)
}

func TestCachedListingKeysByServedPage(t *testing.T) {
	ctx := context.Background()
	next := &stubListing{text: "v1"}
	cache := newMemoryCache()
	cached := NewCachedListing(next, cache, time.Minute, nil)

	for _, page := range []int{5, 999, -3} {
		_, err := cached.ListPosts(ctx, Anonymous, AllPosts(), page)
		require.NoError(t, err)
	}
	assert.Len(t, cache.entries, 1)
	assert.Contains(t, cache.entries, indexKeyPrefix+"1")

	_, err := cached.ListPosts(ctx, Anonymous, AllPosts(), 1)
	require.NoError(t, err)
	assert.Equal(t, 3, next.calls)
}

func TestCachedListingInvalidate(t *testing.T) {
	ctx := context.Background()
	next := &stubListing{text: "v1"}
	cached := NewCachedListing(next, newMemoryCache(), time.Minute, nil)

	_, err := cached.ListPosts(ctx, Anonymous, AllPosts(), 1)
	require.NoError(t, err)
	next.text = "v2"
	cached.InvalidatePosts(ctx)

	page, err := cached.ListPosts(ctx, Anonymous, AllPosts(), 1)
	require.NoError(t, err)
	assert.Equal(t, "v2", page.Items[0].Text)
	assert.Equal(t, 2, next.calls)
}

func TestCachedListingPassesFilteredQueriesThrough(t *testing.T) {
	ctx := context.Background()
	next := &stubListing{}
	cache := newMemoryCache()
	cached := NewCachedListing(next, cache, time.Minute, nil)

	for i := 0; i < 2; i++ {
		_, err := cached.ListPosts(ctx, Anonymous, InGroup("cats"), 1)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, next.calls)
	assert.Empty(t, cache.entries)

	_, err := cached.ListPosts(ctx, Anonymous, InGroup("missing"), 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCachedListingFallsBackWhenCacheFails(t *testing.T) {
	ctx := context.Background()
	next := &stubListing{text: "live"}
	cache := newMemoryCache()
	cache.failGet = true
	cached := NewCachedListing(next, cache, time.Minute, nil)

	page, err := cached.ListPosts(ctx, Anonymous, AllPosts(), 1)
	require.NoError(t, err)
	assert.Equal(t, "live", page.Items[0].Text)
}

func TestMutationInvalidatesCachedListing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cached := NewCachedListing(f.listing, newMemoryCache(), time.Minute, nil)
	f.mutation = NewMutationService(f.stores, f.media, cached, nil)

	before, err :=cached.ListPosts(ctx, Anonymous, AllPosts(), 1)
	require.NoError(t, err)
	assert.Empty(t, before.Items)

	user := &models.User{Username: "leo", Email: "leo@example.com"}
	require.NoError(t, f.stores.Users.CreateUser(ctx, user))
	_, err = f.mutation.CreatePost(ctx, principal(user.ID, "leo"), PostInput{Text: "fresh"})
	require.NoError(t, err)

	after, err := cached.ListPosts(ctx, Anonymous, AllPosts(), 1)
	require.NoError(t, err)
	require.Len(t, after.Items, 1)
	assert.Equal(t, "fresh", after.Items[0].Text)
}
