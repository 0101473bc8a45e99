// Package feed serves the public read surface of the catalog.
package feed

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"go.uber.org/zap"

	"github.com/imagifhub/media-catalog/internal/catalog"
	"github.com/imagifhub/media-catalog/internal/telemetry"
)

// Config bounds the feed.
type Config struct {
	MaxItems int
}

// Service answers public reads against the catalog repository.
type Service struct {
	repo   catalog.Repository
	cfg    Config
	logger *zap.Logger
}

// New constructs a Service.
func New(repo catalog.Repository, cfg Config, logger *zap.Logger) *Service {
	if cfg.MaxItems <= 0 {
		cfg.MaxItems = 50
	}
	return &Service{
		repo:   repo,
		cfg:    cfg,
		logger: logger,
	}
}

// Feed returns a uniformly shuffled subset of matching entries, capped
// at the configured maximum. The shuffle is per request; identical
// filters may return different subsets and orders.
func (s *Service) Feed(ctx context.Context, category, search string) ([]catalog.Entry, error) {
	canonical := catalog.CanonicalCategory(category)
	telemetry.ObserveFeedRequest(canonical)

	entries, err := s.repo.Query(ctx, catalog.Filter{Category: canonical, Search: search})
	if err != nil {
		s.logger.Error("feed query failed",
			zap.String("category", canonical),
			zap.Error(err),
		)
		return nil, fmt.Errorf("query feed: %w", err)
	}

	rand.Shuffle(len(entries), func(i, j int) {
		entries[i], entries[j] = entries[j], entries[i]
	})
	if len(entries) > s.cfg.MaxItems {
		entries = entries[:s.cfg.MaxItems]
	}
	return entries, nil
}

// Like records a like and returns the new count. Unknown ids surface
// catalog.ErrNotFound; repeated likes from one subscriber are no-op
// successes.
func (s *Service) Like(ctx context.Context, mediaID int64, subscriberID string) (int, error) {
	count, err := s.repo.Like(ctx, mediaID, subscriberID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			telemetry.ObserveLike("not_found")
			return 0, catalog.ErrNotFound
		}
		telemetry.ObserveLike("error")
		return 0, fmt.Errorf("like entry: %w", err)
	}
	telemetry.ObserveLike("ok")
	return count, nil
}

// SaveToPlaylist upserts the pair; duplicate saves succeed quietly.
func (s *Service) SaveToPlaylist(ctx context.Context, userID string, mediaID int64) error {
	if err := s.repo.SaveToPlaylist(ctx, userID, mediaID); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return catalog.ErrNotFound
		}
		return fmt.Errorf("save to playlist: %w", err)
	}
	return nil
}

// Playlist lists a user's saved entries; no saves means an empty list.
func (s *Service) Playlist(ctx context.Context, userID string) ([]catalog.Entry, error) {
	entries, err := s.repo.Playlist(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list playlist: %w", err)
	}
	return entries, nil
}

// RemoveFromPlaylist deletes one saved pair.
func (s *Service) RemoveFromPlaylist(ctx context.Context, userID string, mediaID int64) error {
	if err := s.repo.RemoveFromPlaylist(ctx, userID, mediaID); err != nil {
		return fmt.Errorf("remove from playlist: %w", err)
	}
	return nil
}
