package feed

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/imagifhub/media-catalog/internal/catalog"
	storememory "github.com/imagifhub/media-catalog/internal/storage/memory"
)

func seedEntries(t *testing.T, repo catalog.Repository, category string, n int) []int64 {
	t.Helper()
	ids := make([]int64, 0, n)
	for i := 0; i < n; i++ {
		entry, err := repo.Insert(context.Background(), catalog.Entry{
			URL:      fmt.Sprintf("https://media.example/%s/%d.jpg", category, i),
			Category: category,
			Keywords: fmt.Sprintf("%s, item %d", category, i),
		})
		require.NoError(t, err)
		ids = append(ids, entry.ID)
	}
	return ids
}

func TestFeedIsCappedAtMaxItems(t *testing.T) {
	t.Parallel()

	repo := storememory.NewCatalogStore()
	seedEntries(t, repo, "Space", 60)
	svc := New(repo, Config{MaxItems: 50}, zap.NewNop())

	entries, err := svc.Feed(context.Background(), "Space", "")
	require.NoError(t, err)
	require.Len(t, entries, 50)
}

func TestFeedFiltersAreCaseInsensitive(t *testing.T) {
	t.Parallel()

	repo := storememory.NewCatalogStore()
	seedEntries(t, repo, "Anime", 3)
	seedEntries(t, repo, "Cars", 2)
	svc := New(repo, Config{MaxItems: 50}, zap.NewNop())

	for _, category := range []string{"Anime", "anime", "ANIME"} {
		entries, err := svc.Feed(context.Background(), category, "")
		require.NoError(t, err)
		require.Len(t, entries, 3)
		for _, e := range entries {
			require.Equal(t, "Anime", e.Category)
		}
	}
}

func TestFeedMatchAllSentinel(t *testing.T) {
	t.Parallel()

	repo := storememory.NewCatalogStore()
	seedEntries(t, repo, "Anime", 3)
	seedEntries(t, repo, "Cars", 2)
	svc := New(repo, Config{MaxItems: 50}, zap.NewNop())

	entries, err := svc.Feed(context.Background(), "all", "")
	require.NoError(t, err)
	require.Len(t, entries, 5)
}

func TestFeedKeywordSearchIsSubstring(t *testing.T) {
	t.Parallel()

	repo := storememory.NewCatalogStore()
	_, err := repo.Insert(context.Background(), catalog.Entry{
		URL:      "https://media.example/1.jpg",
		Category: "Anime",
		Keywords: "ninja, sword",
	})
	require.NoError(t, err)
	_, err = repo.Insert(context.Background(), catalog.Entry{
		URL:      "https://media.example/2.jpg",
		Category: "Anime",
		Keywords: "mecha, city",
	})
	require.NoError(t, err)
	svc := New(repo, Config{MaxItems: 50}, zap.NewNop())

	entries, err := svc.Feed(context.Background(), "all", "NINJA")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "ninja, sword", entries[0].Keywords)
}

func TestFeedShufflesPerRequest(t *testing.T) {
	t.Parallel()

	repo := storememory.NewCatalogStore()
	seedEntries(t, repo, "Nature", 30)
	svc := New(repo, Config{MaxItems: 30}, zap.NewNop())

	key := func(entries []catalog.Entry) string {
		s := ""
		for _, e := range entries {
			s += fmt.Sprintf("%d,", e.ID)
		}
		return s
	}

	first, err := svc.Feed(context.Background(), "Nature", "")
	require.NoError(t, err)

	// 30! orderings; twenty identical draws in a row would be absurd.
	varied := false
	for i := 0; i < 20 && !varied; i++ {
		next, err := svc.Feed(context.Background(), "Nature", "")
		require.NoError(t, err)
		varied = key(next) != key(first)
	}
	require.True(t, varied)
}

func TestLikeUnknownEntry(t *testing.T) {
	t.Parallel()

	svc := New(storememory.NewCatalogStore(), Config{}, zap.NewNop())
	_, err := svc.Like(context.Background(), 999, "sub-1")
	require.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestLikeIsIdempotentPerSubscriber(t *testing.T) {
	t.Parallel()

	repo := storememory.NewCatalogStore()
	ids := seedEntries(t, repo, "Cars", 1)
	svc := New(repo, Config{}, zap.NewNop())

	count, err := svc.Like(context.Background(), ids[0], "sub-1")
	require.NoError(t, err)
	require.Equal(t, 1, count)

	count, err = svc.Like(context.Background(), ids[0], "sub-1")
	require.NoError(t, err)
	require.Equal(t, 1, count)

	count, err = svc.Like(context.Background(), ids[0], "sub-2")
	require.NoError(t, err)
	require.Equal(t, 2, count)
}

func TestPlaylistRoundTrip(t *testing.T) {
	t.Parallel()

	repo := storememory.NewCatalogStore()
	ids := seedEntries(t, repo, "Luxury", 2)
	svc := New(repo, Config{}, zap.NewNop())
	ctx := context.Background()

	entries, err := svc.Playlist(ctx, "user-1")
	require.NoError(t, err)
	require.Empty(t, entries)

	require.NoError(t, svc.SaveToPlaylist(ctx, "user-1", ids[0]))
	// Duplicate save is a quiet success.
	require.NoError(t, svc.SaveToPlaylist(ctx, "user-1", ids[0]))
	require.ErrorIs(t, svc.SaveToPlaylist(ctx, "user-1", 999), catalog.ErrNotFound)

	entries, err = svc.Playlist(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, ids[0], entries[0].ID)

	require.NoError(t, svc.RemoveFromPlaylist(ctx, "user-1", ids[0]))
	entries, err = svc.Playlist(ctx, "user-1")
	require.NoError(t, err)
	require.Empty(t, entries)
}

type brokenRepo struct {
	catalog.Repository
}

func (brokenRepo) Query(context.Context, catalog.Filter) ([]catalog.Entry, error) {
	return nil, errors.New("connection reset")
}

func TestFeedSurfacesQueryErrors(t *testing.T) {
	t.Parallel()

	svc := New(brokenRepo{}, Config{}, zap.NewNop())
	_, err := svc.Feed(context.Background(), "all", "")
	require.Error(t, err)
	require.Contains(t, err.Error(), "query feed")
}
