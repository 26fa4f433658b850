package ratelimiting

import (
	"context"
	"time"
)

// Limits an operation to at most `limit` runs within any `window`
type RequestLimiter interface {
	Limit(ctx context.Context, maxOperationTime time.Duration, operation func()) bool
	LimitCancelable(ctx context.Context, maxOperationTime time.Duration, operation func() bool) bool
}

type slidingWindowLimiter struct {
	window    time.Duration
	nowFunc   func() time.Time
	afterFunc func(time.Duration) <-chan time.Time

	// One entry per slot holding when it was last used. Receiving checks a slot out.
	slots chan time.Time
}

func NewSlidingWindowLimiter(
	limit int,
	window time.Duration,
	nowFunc func() time.Time,
	afterFunc func(time.Duration) <-chan time.Time,
) RequestLimiter {
	if limit <= 0 {
		panic("window limiter needs a positive limit")
	}

	slots := make(chan time.Time, limit)
	neverUsed := nowFunc().Add(-window)
	for range limit {
		slots <- neverUsed
	}

	return &slidingWindowLimiter{
		window:    window,
		nowFunc:   nowFunc,
		afterFunc: afterFunc,
		slots:     slots,
	}
}

func (l *slidingWindowLimiter) Limit(ctx context.Context, maxOperationTime time.Duration, operation func()) bool {
	return l.LimitCancelable(ctx, maxOperationTime, func() bool {
		operation()
		return true
	})
}

// Run the operation once a slot is free, unless the wait plus maxOperationTime would
// exceed the context deadline. An operation returning false leaves its slot unused.
// Returns whether the operation ran.
func (l *slidingWindowLimiter) LimitCancelable(ctx context.Context, maxOperationTime time.Duration, operation func() bool) bool {
	var lastUsed time.Time
	select {
	case lastUsed = <-l.slots:
	case <-ctx.Done():
		return false
	}

	returnedAt := lastUsed
	defer func() {
		l.slots <- returnedAt
	}()

	wait := max(l.window-l.nowFunc().Sub(lastUsed), 0)

	if deadline, ok := ctx.Deadline(); ok && wait+maxOperationTime > deadline.Sub(l.nowFunc()) {
		return false
	}

	if wait > 0 {
		select {
		case <-ctx.Done():
			return false
		case <-l.afterFunc(wait):
		}
	}

	if !operation() {
		return false
	}

	returnedAt = l.nowFunc()
	return true
}
