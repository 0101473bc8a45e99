// Package memory provides an in-memory catalog repository for
// development and testing.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/imagifhub/media-catalog/internal/catalog"
)

type likeKey struct {
	subscriberID string
	mediaID      int64
}

type playlistKey struct {
	userID  string
	mediaID int64
}

// CatalogStore implements catalog.Repository with mutex-guarded maps.
type CatalogStore struct {
	mu       sync.RWMutex
	nextID   int64
	entries  map[int64]catalog.Entry
	likes    map[likeKey]struct{}
	playlist map[playlistKey]struct{}
}

// NewCatalogStore constructs an empty store.
func NewCatalogStore() *CatalogStore {
	return &CatalogStore{
		nextID:   1,
		entries:  make(map[int64]catalog.Entry),
		likes:    make(map[likeKey]struct{}),
		playlist: make(map[playlistKey]struct{}),
	}
}

// Insert assigns the next id and stores the entry.
func (s *CatalogStore) Insert(_ context.Context, entry catalog.Entry) (catalog.Entry, error) {
	if entry.URL == "" {
		return catalog.Entry{}, catalog.ErrRejected
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	entry.ID = s.nextID
	s.nextID++
	entry.Category = catalog.CanonicalCategory(entry.Category)
	entry.Likes = 0
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	s.entries[entry.ID] = entry
	return entry, nil
}

// Query returns all matching entries, newest first.
func (s *CatalogStore) Query(_ context.Context, filter catalog.Filter) ([]catalog.Entry, error) {
	category := catalog.CanonicalCategory(filter.Category)
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []catalog.Entry{}
	for id := s.nextID - 1; id >= 1; id-- {
		e, ok := s.entries[id]
		if !ok {
			continue
		}
		if category != catalog.CategoryAll && e.Category != category {
			continue
		}
		if filter.Search != "" && !containsFold(e.Keywords, filter.Search) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// Like records the like once per (media, subscriber) pair and returns
// the derived count.
func (s *CatalogStore) Like(_ context.Context, mediaID int64, subscriberID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[mediaID]
	if !ok {
		return 0, catalog.ErrNotFound
	}
	key := likeKey{subscriberID: subscriberID, mediaID: mediaID}
	if _, dup := s.likes[key]; !dup {
		s.likes[key] = struct{}{}
		entry.Likes++
		s.entries[mediaID] = entry
	}
	return entry.Likes, nil
}

// Delete removes the entry and its dependent rows.
func (s *CatalogStore) Delete(_ context.Context, mediaID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[mediaID]; !ok {
		return catalog.ErrNotFound
	}
	delete(s.entries, mediaID)
	for k := range s.likes {
		if k.mediaID == mediaID {
			delete(s.likes, k)
		}
	}
	for k := range s.playlist {
		if k.mediaID == mediaID {
			delete(s.playlist, k)
		}
	}
	return nil
}

// ListByIDs batch-fetches entries; unknown ids are skipped.
func (s *CatalogStore) ListByIDs(_ context.Context, ids []int64) ([]catalog.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []catalog.Entry{}
	for _, id := range ids {
		if e, ok := s.entries[id]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

// SaveToPlaylist upserts the pair; duplicate saves are no-ops.
func (s *CatalogStore) SaveToPlaylist(_ context.Context, userID string, mediaID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[mediaID]; !ok {
		return catalog.ErrNotFound
	}
	s.playlist[playlistKey{userID: userID, mediaID: mediaID}] = struct{}{}
	return nil
}

// Playlist lists a user's saved entries, newest save first.
func (s *CatalogStore) Playlist(_ context.Context, userID string) ([]catalog.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []catalog.Entry{}
	for id := s.nextID - 1; id >= 1; id-- {
		if _, ok := s.playlist[playlistKey{userID: userID, mediaID: id}]; !ok {
			continue
		}
		if e, ok := s.entries[id]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

// RemoveFromPlaylist deletes one saved pair.
func (s *CatalogStore) RemoveFromPlaylist(_ context.Context, userID string, mediaID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.playlist, playlistKey{userID: userID, mediaID: mediaID})
	return nil
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
