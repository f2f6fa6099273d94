package client

import (
	"context"
	"sync"

	"github.com/luaraperilli/classroom-feedback-analyzer/analytics"
)

// FeedbackLoader fetches filtered feedback for one logical view. Starting a
// new load cancels the in-flight one, and a superseded load's outcome
// (success or error) is discarded instead of being applied: a stale result
// must never overwrite the state of a newer filter selection.
type FeedbackLoader struct {
	client *Client
	apply  func([]analytics.FeedbackRecord, error)

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc

	applyMu sync.Mutex
}

// NewFeedbackLoader wires the loader to the view's apply callback. apply is
// invoked at most once per Load, never for superseded loads, and never
// concurrently with itself.
func NewFeedbackLoader(c *Client, apply func([]analytics.FeedbackRecord, error)) *FeedbackLoader {
	return &FeedbackLoader{client: c, apply: apply}
}

// Load starts an asynchronous fetch for filter, superseding any fetch still
// in flight. The returned channel closes when the fetch goroutine finishes,
// whether its result was applied or discarded.
func (l *FeedbackLoader) Load(ctx context.Context, filter Filter) <-chan struct{} {
	l.mu.Lock()
	if l.cancel != nil {
		l.cancel()
	}
	loadCtx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.seq++
	seq := l.seq
	l.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer cancel()
		records, err := l.client.Feedbacks(loadCtx, filter)

		l.applyMu.Lock()
		defer l.applyMu.Unlock()
		l.mu.Lock()
		current := l.seq == seq
		l.mu.Unlock()
		if !current {
			return
		}
		l.apply(records, err)
	}()
	return done
}

// Cancel aborts the in-flight load, if any, without starting a new one.
func (l *FeedbackLoader) Cancel() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	l.seq++
}
