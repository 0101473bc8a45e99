// Package reaper removes catalog entries whose backing asset is gone.
package reaper

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/imagifhub/media-catalog/internal/catalog"
	"github.com/imagifhub/media-catalog/internal/telemetry"
)

// Config controls sweep cadence and probe pressure.
type Config struct {
	Interval    time.Duration
	ProbeRPS    float64
	Concurrency int
}

// Reaper periodically probes entry URLs and deletes entries whose
// probe is a definitive not-found. Ambiguous outcomes leave the entry
// untouched.
type Reaper struct {
	repo    catalog.Repository
	prober  catalog.Prober
	limiter *rate.Limiter
	cfg     Config
	logger  *zap.Logger
}

// New constructs a Reaper.
func New(repo catalog.Repository, prober catalog.Prober, cfg Config, logger *zap.Logger) *Reaper {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	limit := rate.Limit(cfg.ProbeRPS)
	if cfg.ProbeRPS <= 0 {
		limit = rate.Inf
	}
	return &Reaper{
		repo:    repo,
		prober:  prober,
		limiter: rate.NewLimiter(limit, 1),
		cfg:     cfg,
		logger:  logger,
	}
}

// Run blocks, sweeping on the configured interval until the context
// finishes.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}

// Sweep probes every entry once, deleting those that are definitively
// gone. Probes are rate-limited and concurrency-bounded so the sweep
// never overwhelms the asset host.
func (r *Reaper) Sweep(ctx context.Context) {
	entries, err := r.repo.Query(ctx, catalog.Filter{})
	if err != nil {
		r.logger.Error("reaper list failed", zap.Error(err))
		return
	}

	sem := make(chan struct{}, r.cfg.Concurrency)
	var wg sync.WaitGroup
	for _, entry := range entries {
		if ctx.Err() != nil {
			break
		}
		if err := r.limiter.Wait(ctx); err != nil {
			break
		}
		sem <- struct{}{}
		wg.Add(1)
		go func(e catalog.Entry) {
			defer wg.Done()
			defer func() { <-sem }()
			r.probeOne(ctx, e)
		}(entry)
	}
	wg.Wait()
}

func (r *Reaper) probeOne(ctx context.Context, entry catalog.Entry) {
	result := r.prober.Probe(ctx, entry.URL)
	telemetry.ObserveProbe(string(result))
	switch result {
	case catalog.ProbeMissing:
		if err := r.repo.Delete(ctx, entry.ID); err != nil {
			r.logger.Warn("reap delete failed",
				zap.Int64("entry_id", entry.ID),
				zap.Error(err),
			)
			return
		}
		telemetry.ObserveReaperDeletion()
		r.logger.Info("dead entry reaped",
			zap.Int64("entry_id", entry.ID),
			zap.String("url", entry.URL),
		)
	case catalog.ProbeAmbiguous:
		r.logger.Debug("probe inconclusive, entry kept",
			zap.Int64("entry_id", entry.ID),
			zap.String("url", entry.URL),
		)
	case catalog.ProbeAlive:
	}
}
