package commands

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Queue is a bounded in-memory command queue with context-aware
// operations. A chat-transport binding enqueues; the Runner dequeues.
type Queue struct {
	ch      chan Command
	closeMu sync.Mutex
	closed  bool
}

// NewQueue constructs a new queue with the provided capacity.
func NewQueue(capacity int) *Queue {
	return &Queue{
		ch: make(chan Command, capacity),
	}
}

// Enqueue pushes a command into the queue or returns if the context ends.
func (q *Queue) Enqueue(ctx context.Context, cmd Command) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("enqueue canceled: %w", ctx.Err())
	case q.ch <- cmd:
		return nil
	}
}

// Dequeue pops the next command, respecting context cancellation.
func (q *Queue) Dequeue(ctx context.Context) (Command, error) {
	select {
	case <-ctx.Done():
		return Command{}, fmt.Errorf("dequeue canceled: %w", ctx.Err())
	case cmd, ok := <-q.ch:
		if !ok {
			return Command{}, errors.New("queue closed")
		}
		return cmd, nil
	}
}

// Close closes the underlying channel for shutdown.
func (q *Queue) Close() {
	q.closeMu.Lock()
	defer q.closeMu.Unlock()
	if q.closed {
		return
	}
	close(q.ch)
	q.closed = true
}
