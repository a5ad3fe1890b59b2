package render

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"
)

// Engine bounds how many documents are painted at once. Each call to Do holds
// one session slot from acquisition until painting stops, even when the caller
// gives up early.
type Engine struct {
	sem *semaphore.Weighted
}

func NewEngine(maxSessions int64) *Engine {
	if maxSessions < 1 {
		maxSessions = 1
	}
	return &Engine{sem: semaphore.NewWeighted(maxSessions)}
}

type paintResult struct {
	data []byte
	err  error
}

// Do runs fn inside a session. It returns when fn finishes or ctx is done,
// whichever comes first. A panic in fn is reported as an error.
func (e *Engine) Do(ctx context.Context, fn func() ([]byte, error)) ([]byte, error) {
	if err := e.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("acquire render session: %w", err)
	}

	done := make(chan paintResult, 1)
	go func() {
		defer e.sem.Release(1)
		defer func() {
			if r := recover(); r != nil {
				done <- paintResult{err: fmt.Errorf("render session panicked: %v", r)}
			}
		}()
		data, err := fn()
		done <- paintResult{data: data, err: err}
	}()

	select {
	case res := <-done:
		return res.data, res.err
	case <-ctx.Done():
		return nil, fmt.Errorf("render session: %w", ctx.Err())
	}
}
