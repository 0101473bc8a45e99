package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/imagifhub/media-catalog/internal/catalog"
)

func TestInsertAssignsMonotonicIDs(t *testing.T) {
	t.Parallel()

	store := NewCatalogStore()
	ctx := context.Background()

	first, err := store.Insert(ctx, catalog.Entry{URL: "mem://a", Category: "anime"})
	require.NoError(t, err)
	second, err := store.Insert(ctx, catalog.Entry{URL: "mem://b", Category: "cars"})
	require.NoError(t, err)

	require.Equal(t, int64(1), first.ID)
	require.Equal(t, int64(2), second.ID)
	require.Equal(t, "Anime", first.Category)
	require.Equal(t, 0, first.Likes)
	require.False(t, first.CreatedAt.IsZero())
}

func TestInsertRejectsEmptyURL(t *testing.T) {
	t.Parallel()

	store := NewCatalogStore()
	_, err := store.Insert(context.Background(), catalog.Entry{Category: "anime"})
	require.ErrorIs(t, err, catalog.ErrRejected)
}

func TestQueryFiltersAreCaseInsensitive(t *testing.T) {
	t.Parallel()

	store := NewCatalogStore()
	ctx := context.Background()
	mustInsert(t, store, "mem://1", "Dark Aesthetic", "rainy window")
	mustInsert(t, store, "mem://2", "Anime", "ninja, sword")
	mustInsert(t, store, "mem://3", "Dark Aesthetic", "neon alley")

	lower, err := store.Query(ctx, catalog.Filter{Category: "dark aesthetic"})
	require.NoError(t, err)
	upper, err := store.Query(ctx, catalog.Filter{Category: "Dark Aesthetic"})
	require.NoError(t, err)
	require.Equal(t, lower, upper)
	require.Len(t, lower, 2)

	search, err := store.Query(ctx, catalog.Filter{Search: "NINJA"})
	require.NoError(t, err)
	require.Len(t, search, 1)
	require.Equal(t, "mem://2", search[0].URL)

	all, err := store.Query(ctx, catalog.Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	// Newest first.
	require.Equal(t, int64(3), all[0].ID)
}

func TestLikeIsIdempotentPerSubscriber(t *testing.T) {
	t.Parallel()

	store := NewCatalogStore()
	ctx := context.Background()
	entry := mustInsert(t, store, "mem://1", "Anime", "")

	first, err := store.Like(ctx, entry.ID, "sub-42")
	require.NoError(t, err)
	require.Equal(t, 1, first)

	second, err := store.Like(ctx, entry.ID, "sub-42")
	require.NoError(t, err)
	require.Equal(t, 1, second)

	_, err = store.Like(ctx, 999, "sub-42")
	require.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestLikeConcurrentDistinctSubscribers(t *testing.T) {
	t.Parallel()

	store := NewCatalogStore()
	ctx := context.Background()
	entry := mustInsert(t, store, "mem://1", "Anime", "")

	const subscribers = 64
	errs := make(chan error, subscribers*2)
	var wg sync.WaitGroup
	for i := 0; i < subscribers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			// Each subscriber likes twice; the repeat must not count.
			_, err := store.Like(ctx, entry.ID, fmt.Sprintf("sub-%d", n))
			errs <- err
			_, err = store.Like(ctx, entry.ID, fmt.Sprintf("sub-%d", n))
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	entries, err := store.ListByIDs(ctx, []int64{entry.ID})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, subscribers, entries[0].Likes)
}

func TestDeleteRemovesDependentRows(t *testing.T) {
	t.Parallel()

	store := NewCatalogStore()
	ctx := context.Background()
	entry := mustInsert(t, store, "mem://1", "Cars", "")

	_, err := store.Like(ctx, entry.ID, "sub-1")
	require.NoError(t, err)
	require.NoError(t, store.SaveToPlaylist(ctx, "user-1", entry.ID))

	require.NoError(t, store.Delete(ctx, entry.ID))
	require.ErrorIs(t, store.Delete(ctx, entry.ID), catalog.ErrNotFound)

	playlist, err := store.Playlist(ctx, "user-1")
	require.NoError(t, err)
	require.Empty(t, playlist)
}

func TestPlaylistUpsertAndRemove(t *testing.T) {
	t.Parallel()

	store := NewCatalogStore()
	ctx := context.Background()
	entry := mustInsert(t, store, "mem://1", "Space", "")

	require.NoError(t, store.SaveToPlaylist(ctx, "user-1", entry.ID))
	require.NoError(t, store.SaveToPlaylist(ctx, "user-1", entry.ID))
	require.ErrorIs(t, store.SaveToPlaylist(ctx, "user-1", 999), catalog.ErrNotFound)

	playlist, err := store.Playlist(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, playlist, 1)

	empty, err := store.Playlist(ctx, "user-without-saves")
	require.NoError(t, err)
	require.NotNil(t, empty)
	require.Empty(t, empty)

	require.NoError(t, store.RemoveFromPlaylist(ctx, "user-1", entry.ID))
	playlist, err = store.Playlist(ctx, "user-1")
	require.NoError(t, err)
	require.Empty(t, playlist)
}

func mustInsert(t *testing.T, store *CatalogStore, url, category, keywords string) catalog.Entry {
	t.Helper()
	entry, err := store.Insert(context.Background(), catalog.Entry{
		URL:      url,
		Category: category,
		Keywords: keywords,
	})
	if err != nil {
		t.Fatalf("insert %s: %v", url, err)
	}
	return entry
}
