package catalog

import (
	"context"
	"time"
)

// Repository persists catalog entries, the like relation, and playlists.
type Repository interface {
	// Insert commits one entry atomically and returns it with its
	// assigned id and creation timestamp.
	Insert(ctx context.Context, entry Entry) (Entry, error)
	// Query returns all entries matching the filter.
	Query(ctx context.Context, filter Filter) ([]Entry, error)
	// Like records a like from subscriberID on mediaID and returns the
	// new count. It is idempotent per (mediaID, subscriberID) and safe
	// under concurrent callers. Returns ErrNotFound for unknown ids.
	Like(ctx context.Context, mediaID int64, subscriberID string) (int, error)
	// Delete removes an entry. Used by the reaper after a definitive
	// not-found probe.
	Delete(ctx context.Context, mediaID int64) error
	// ListByIDs batch-fetches entries; unknown ids are skipped.
	ListByIDs(ctx context.Context, ids []int64) ([]Entry, error)

	// SaveToPlaylist upserts (userID, mediaID); duplicate saves are
	// no-ops. Returns ErrNotFound for unknown media ids.
	SaveToPlaylist(ctx context.Context, userID string, mediaID int64) error
	// Playlist lists a user's saved entries; a user with no saves gets
	// an empty list, not an error.
	Playlist(ctx context.Context, userID string) ([]Entry, error)
	// RemoveFromPlaylist deletes one saved pair.
	RemoveFromPlaylist(ctx context.Context, userID string, mediaID int64) error
}

// MediaStore pushes raw asset bytes to durable storage and returns a
// retrievable URL.
type MediaStore interface {
	Put(ctx context.Context, name string, contentType string, data []byte) (string, error)
}

// Prober issues a lightweight existence check against an asset URL.
type Prober interface {
	Probe(ctx context.Context, url string) ProbeResult
}

// Publisher pushes commit events to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces object names for uploaded media (UUIDs).
type IDGenerator interface {
	NewID() (string, error)
}
