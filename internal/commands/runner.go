package commands

import (
	"context"

	"go.uber.org/zap"

	"github.com/imagifhub/media-catalog/internal/ingest"
)

// Runner consumes operator commands and applies them to the ingestion
// manager, one at a time so at most one FSM transition is in flight per
// operator.
type Runner struct {
	queue   *Queue
	manager *ingest.Manager
	logger  *zap.Logger
}

// NewRunner constructs a Runner.
func NewRunner(queue *Queue, manager *ingest.Manager, logger *zap.Logger) *Runner {
	return &Runner{
		queue:   queue,
		manager: manager,
		logger:  logger,
	}
}

// Run blocks, consuming commands until the context finishes.
func (r *Runner) Run(ctx context.Context) {
	for {
		cmd, err := r.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			r.logger.Error("command dequeue failed", zap.Error(err))
			return
		}
		r.apply(ctx, cmd)
	}
}

func (r *Runner) apply(ctx context.Context, cmd Command) {
	var result ingest.Result
	switch cmd.Kind {
	case KindBeginUpload:
		result = r.manager.Begin(ctx, cmd.Operator)
	case KindMediaItemReceived:
		result = r.manager.AddMedia(ctx, cmd.Operator, cmd.Data)
	case KindDoneCollecting:
		result = r.manager.Done(ctx, cmd.Operator)
	case KindCategorySelected:
		result = r.manager.SelectCategory(ctx, cmd.Operator, cmd.Category)
	case KindKeywordsSubmitted:
		result = r.manager.SubmitKeywords(ctx, cmd.Operator, cmd.Keywords)
	case KindCancel:
		result = r.manager.Cancel(ctx, cmd.Operator)
	default:
		r.logger.Warn("unknown command kind", zap.String("kind", string(cmd.Kind)))
		return
	}
	// Unauthorized and stale commands produce no reply and no log.
	if !result.Handled {
		return
	}
	r.logger.Debug("command applied",
		zap.String("kind", string(cmd.Kind)),
		zap.String("message", result.Message),
		zap.Int("saved", result.Saved),
		zap.Int("failed", result.Failed),
	)
}
