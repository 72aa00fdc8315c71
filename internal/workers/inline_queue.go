package workers

import (
	"context"
	"errors"

	"github.com/yoockh/callassist/internal/services"
)

// inlineBacklog is the number of queued jobs allowed per worker before
// Enqueue starts to block.
const inlineBacklog = 64

var ErrQueueClosed = errors.New("utterance queue closed")

// InlineQueue processes jobs on n in-process workers fed by a buffered
// channel. It stands in for the Redis stream when no Redis is configured.
type InlineQueue struct {
	ctx  context.Context
	jobs chan services.UtteranceJob
}

// NewInlineQueue starts the workers; they stop when ctx is done.
func NewInlineQueue(ctx context.Context, p *Processor, n int) *InlineQueue {
	if n <= 0 {
		n = 5
	}
	q := &InlineQueue{ctx: ctx, jobs: make(chan services.UtteranceJob, n*inlineBacklog)}
	for i := 0; i < n; i++ {
		go q.run(p)
	}
	return q
}

func (q *InlineQueue) run(p *Processor) {
	for {
		select {
		case <-q.ctx.Done():
			return
		case job := <-q.jobs:
			_ = p.Process(q.ctx, job)
		}
	}
}

// Enqueue waits for room in the backlog. It fails only when the caller's
// context or the queue itself is done.
func (q *InlineQueue) Enqueue(ctx context.Context, job services.UtteranceJob) error {
	if q.ctx.Err() != nil {
		return ErrQueueClosed
	}
	select {
	case q.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-q.ctx.Done():
		return ErrQueueClosed
	}
}
