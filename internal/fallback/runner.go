// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fallback

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/pdiddy/imrad-graph/pkg/types"
)

// backoffBase controls the base duration for retry backoff. Tests override
// this to avoid real sleeps.
var backoffBase = time.Second

// Task is one escalated sentence. Position is the caller's slot for the
// outcome, so completion order never affects result order.
type Task struct {
	Position int
	Request  Request
}

// Outcome is the terminal result of one task: either a validated response
// or the last error after retries. Exactly one of the two is meaningful.
type Outcome struct {
	Response Response
	Err      error
}

// Runner executes fallback calls with bounded concurrency, a per-call
// timeout, and bounded retries with exponential backoff on failure.
type Runner struct {
	backend Backend
	cfg     types.FallbackConfig
}

// NewRunner wraps a backend with the retry and concurrency policy.
func NewRunner(backend Backend, cfg types.FallbackConfig) *Runner {
	return &Runner{backend: backend, cfg: cfg}
}

// Run classifies all tasks and returns outcomes indexed by each task's
// Position. Cancelling ctx stops new work; in-flight calls surface
// ctx.Err() as their outcome, leaving the corresponding nodes untouched.
func (r *Runner) Run(ctx context.Context, tasks []Task) map[int]Outcome {
	outcomes := make(map[int]Outcome, len(tasks))
	if len(tasks) == 0 {
		return outcomes
	}

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, r.cfg.Workers())
	)

	for _, task := range tasks {
		wg.Add(1)
		go func(task Task) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			resp, err := r.classifyWithRetry(ctx, task.Request)
			mu.Lock()
			outcomes[task.Position] = Outcome{Response: resp, Err: err}
			mu.Unlock()
		}(task)
	}
	wg.Wait()

	return outcomes
}

// classifyWithRetry calls the backend with exponential backoff. Each
// attempt gets its own timeout derived from ctx.
func (r *Runner) classifyWithRetry(ctx context.Context, req Request) (Response, error) {
	maxRetries := r.cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			select {
			case <-ctx.Done():
				return Response{}, ctx.Err()
			case <-time.After(backoff):
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, r.cfg.CallTimeout())
		resp, err := r.backend.Classify(callCtx, req)
		cancel()

		if err == nil {
			if verr := resp.Validate(); verr != nil {
				lastErr = verr
				continue
			}
			return resp, nil
		}
		if ctx.Err() != nil {
			return Response{}, ctx.Err()
		}
		lastErr = err
	}

	return Response{}, fmt.Errorf("after %d retries: %w", maxRetries, lastErr)
}
