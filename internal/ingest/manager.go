package ingest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/imagifhub/media-catalog/internal/catalog"
	"github.com/imagifhub/media-catalog/internal/telemetry"
)

// Config controls Manager behavior.
type Config struct {
	SessionTTL  time.Duration
	ExpirySweep time.Duration
	MediaPrefix string
	ContentType string
	Topic       string
}

// Result is what an operator command reports back to the command
// channel. A zero Result means the command was silently ignored
// (unauthorized identity or stale transition).
type Result struct {
	Handled bool   `json:"handled"`
	Message string `json:"message,omitempty"`
	Saved   int    `json:"saved,omitempty"`
	Failed  int    `json:"failed,omitempty"`
}

// Manager owns the live-session set and applies operator commands to
// the per-operator state machine. The manager mutex guards only the
// session map; per-session state has its own lock and no lock is held
// across MediaStore or repository calls.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session

	gate      *Gate
	media     catalog.MediaStore
	repo      catalog.Repository
	publisher catalog.Publisher
	retry     *catalog.ExponentialRetryPolicy
	clock     catalog.Clock
	ids       catalog.IDGenerator
	cfg       Config
	logger    *zap.Logger
}

// NewManager constructs a Manager. The publisher may be nil.
func NewManager(
	gate *Gate,
	media catalog.MediaStore,
	repo catalog.Repository,
	publisher catalog.Publisher,
	clock catalog.Clock,
	ids catalog.IDGenerator,
	cfg Config,
	logger *zap.Logger,
) *Manager {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 15 * time.Minute
	}
	if cfg.ExpirySweep <= 0 {
		cfg.ExpirySweep = time.Minute
	}
	if cfg.ContentType == "" {
		cfg.ContentType = "image/jpeg"
	}
	return &Manager{
		sessions:  make(map[string]*Session),
		gate:      gate,
		media:     media,
		repo:      repo,
		publisher: publisher,
		retry:     catalog.NewExponentialRetryPolicy(),
		clock:     clock,
		ids:       ids,
		cfg:       cfg,
		logger:    logger,
	}
}

// Begin starts a fresh collecting session for the operator, replacing
// any live one.
func (m *Manager) Begin(_ context.Context, operator string) Result {
	if !m.gate.Allow(operator) {
		return Result{}
	}
	sess := newSession(m.clock.Now())
	m.mu.Lock()
	if old, ok := m.sessions[operator]; ok {
		old.cancel()
	}
	m.sessions[operator] = sess
	m.mu.Unlock()
	m.logger.Info("ingestion session started", zap.String("operator", operator))
	return Result{Handled: true, Message: "send media items, then finish the batch"}
}

// AddMedia pushes one media item to the MediaStore with bounded
// retries. A failed item is dropped and reported; the session keeps
// collecting.
func (m *Manager) AddMedia(ctx context.Context, operator string, data []byte) Result {
	if !m.gate.Allow(operator) {
		return Result{}
	}
	sess := m.session(operator)
	if sess == nil {
		return Result{}
	}
	if err := sess.beginPush(m.clock.Now()); err != nil {
		return Result{}
	}

	name := m.objectName()
	url, err := m.pushWithRetry(ctx, name, data)
	if err != nil {
		sess.finishPush("", false)
		telemetry.ObserveMediaFailure()
		m.logger.Warn("media push failed, item dropped",
			zap.String("operator", operator),
			zap.String("object", name),
			zap.Error(err),
		)
		return Result{Handled: true, Message: "upload failed, item dropped; keep sending"}
	}
	sess.finishPush(url, true)
	return Result{Handled: true, Saved: sess.PendingCount(), Message: "stored"}
}

// Done signals the end of collection. It waits for outstanding pushes,
// then advances to category selection. With zero collected items the
// session stays in collecting.
func (m *Manager) Done(_ context.Context, operator string) Result {
	if !m.gate.Allow(operator) {
		return Result{}
	}
	sess := m.session(operator)
	if sess == nil {
		return Result{}
	}
	sess.inflight.Wait()
	count, err := sess.advance(m.clock.Now())
	if err != nil {
		return Result{}
	}
	if count == 0 {
		return Result{Handled: true, Message: "no media collected yet"}
	}
	return Result{Handled: true, Saved: count, Message: "choose a category"}
}

// SelectCategory records the taxonomy choice. Events arriving outside
// the awaiting_category state are stale callbacks and are ignored.
func (m *Manager) SelectCategory(_ context.Context, operator, category string) Result {
	if !m.gate.Allow(operator) {
		return Result{}
	}
	sess := m.session(operator)
	if sess == nil {
		return Result{}
	}
	if !catalog.ValidCategory(category) {
		return Result{Handled: true, Message: "unknown category"}
	}
	if err := sess.chooseCategory(catalog.CanonicalCategory(category), m.clock.Now()); err != nil {
		return Result{}
	}
	return Result{Handled: true, Message: "send keywords"}
}

// SubmitKeywords commits the session: every pending URL becomes one
// catalog entry. Per-item insert failures are counted, never aborting
// the rest of the batch.
func (m *Manager) SubmitKeywords(ctx context.Context, operator, keywords string) Result {
	if !m.gate.Allow(operator) {
		return Result{}
	}
	sess := m.session(operator)
	if sess == nil {
		return Result{}
	}
	urls, category, err := sess.takeForCommit(keywords, m.clock.Now())
	if err != nil {
		return Result{}
	}
	m.remove(operator, sess)

	var ids []int64
	saved, failed := 0, 0
	for _, url := range urls {
		entry, insertErr := m.repo.Insert(ctx, catalog.Entry{
			URL:      url,
			Category: category,
			Keywords: keywords,
		})
		if insertErr != nil {
			failed++
			m.logger.Warn("entry insert failed",
				zap.String("operator", operator),
				zap.String("url", url),
				zap.Error(insertErr),
			)
			continue
		}
		saved++
		ids = append(ids, entry.ID)
	}
	telemetry.ObserveCommit()
	m.publishCommit(ctx, category, keywords, ids)
	m.logger.Info("ingestion session committed",
		zap.String("operator", operator),
		zap.String("category", category),
		zap.Int("saved", saved),
		zap.Int("failed", failed),
	)
	return Result{
		Handled: true,
		Saved:   saved,
		Failed:  failed,
		Message: fmt.Sprintf("%d of %d saved", saved, len(urls)),
	}
}

// Cancel discards the operator's live session; nothing partial is
// persisted.
func (m *Manager) Cancel(_ context.Context, operator string) Result {
	if !m.gate.Allow(operator) {
		return Result{}
	}
	sess := m.session(operator)
	if sess == nil {
		return Result{}
	}
	sess.cancel()
	m.remove(operator, sess)
	m.logger.Info("ingestion session cancelled", zap.String("operator", operator))
	return Result{Handled: true, Message: "session cancelled"}
}

// Session exposes the live session for an operator (nil if none).
func (m *Manager) Session(operator string) *Session {
	return m.session(operator)
}

// RunExpiry blocks, sweeping idle sessions until the context finishes.
func (m *Manager) RunExpiry(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.ExpirySweep)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.sweepExpired()
		}
	}
}

func (m *Manager) sweepExpired() {
	now := m.clock.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	for operator, sess := range m.sessions {
		if sess.expired(now, m.cfg.SessionTTL) {
			delete(m.sessions, operator)
			m.logger.Info("idle ingestion session reclaimed", zap.String("operator", operator))
		}
	}
}

func (m *Manager) session(operator string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[operator]
}

// remove deletes the session only if it is still the live one for the
// operator, so a Begin that replaced it is not clobbered.
func (m *Manager) remove(operator string, sess *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sessions[operator] == sess {
		delete(m.sessions, operator)
	}
}

func (m *Manager) pushWithRetry(ctx context.Context, name string, data []byte) (string, error) {
	var lastErr error
	for attempt := 0; attempt < m.retry.MaxAttempts(); attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", fmt.Errorf("push canceled: %w", ctx.Err())
			case <-time.After(m.retry.Backoff(attempt - 1)):
			}
		}
		url, err := m.media.Put(ctx, name, m.cfg.ContentType, data)
		if err == nil {
			return url, nil
		}
		lastErr = err
		if !m.retry.ShouldRetry(err, attempt+1) {
			break
		}
	}
	return "", lastErr
}

func (m *Manager) objectName() string {
	id, err := m.ids.NewID()
	if err != nil {
		id = fmt.Sprintf("media-%d", m.clock.Now().UnixNano())
	}
	name := id + extensionFor(m.cfg.ContentType)
	prefix := strings.Trim(m.cfg.MediaPrefix, "/")
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

func (m *Manager) publishCommit(ctx context.Context, category, keywords string, ids []int64) {
	if m.publisher == nil || m.cfg.Topic == "" || len(ids) == 0 {
		return
	}
	payload := map[string]any{
		"entry_ids": ids,
		"category":  category,
		"keywords":  keywords,
		"timestamp": m.clock.Now().Format(time.RFC3339),
	}
	if _, err := m.publisher.Publish(ctx, m.cfg.Topic, payload); err != nil {
		m.logger.Warn("commit event publish failed", zap.Error(err))
	}
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}
