package mailer

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	ErrQueueFull   = errors.New("mail queue full")
	ErrQueueClosed = errors.New("mail queue closed")
)

type job struct {
	ctx               context.Context
	to, subject, body string
}

// Queue delivers mail on a background worker so callers never wait on
// the relay. Delivery errors are logged, not returned.
type Queue struct {
	next    Sender
	log     *zap.Logger
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	jobs   chan job
	wg     sync.WaitGroup
}

// NewQueue starts one worker draining up to size pending messages.
func NewQueue(next Sender, size int, timeout time.Duration, l *zap.Logger) *Queue {
	if size <= 0 {
		size = 64
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if l == nil {
		l = zap.NewNop()
	}
	q := &Queue{next: next, log: l, timeout: timeout, jobs: make(chan job, size)}
	q.wg.Add(1)
	go q.run()
	return q
}

// Send enqueues the message and returns immediately.
func (q *Queue) Send(ctx context.Context, to, subject, body string) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}
	select {
	case q.jobs <- job{ctx: context.WithoutCancel(ctx), to: to, subject: subject, body: body}:
		return nil
	default:
		return ErrQueueFull
	}
}

func (q *Queue) run() {
	defer q.wg.Done()
	for j := range q.jobs {
		ctx, cancel := context.WithTimeout(j.ctx, q.timeout)
		if err := q.next.Send(ctx, j.to, j.subject, j.body); err != nil {
			q.log.Warn("mail delivery failed", zap.String("to", j.to), zap.String("subject", j.subject), zap.Error(err))
		}
		cancel()
	}
}

// Close stops accepting mail and waits for queued messages to go out.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.jobs)
	q.mu.Unlock()
	q.wg.Wait()
}
