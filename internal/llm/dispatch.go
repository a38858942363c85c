package llm

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Request pairs one prompt with the client that should serve it. Model is a
// label carried into the emitted Records.
type Request struct {
	Prompt  string
	Client  LLMClient
	Model   string
	Timeout time.Duration // per-call; zero means no deadline
}

// Result is the outcome for one Request. Results are returned in input
// order regardless of completion order.
type Result struct {
	Text    string
	Err     error
	Records []*Record
}

// RetryPolicy bounds transient-failure retries. The delay doubles per
// attempt up to MaxDelay.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 5
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = time.Second
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = 60 * time.Second
	}
	return p
}

// Dispatcher is the bounded-concurrency contract: submit many, await all,
// preserve index correspondence, isolate failures. SemaphoreDispatcher and
// PoolDispatcher are interchangeable implementations.
type Dispatcher interface {
	Dispatch(ctx context.Context, reqs []Request) []Result
}

// SemaphoreDispatcher runs one goroutine per request, gated by a channel
// semaphore so at most Limit calls are in flight.
type SemaphoreDispatcher struct {
	Limit  int
	Retry  RetryPolicy
	Logger *zap.Logger
}

func (d *SemaphoreDispatcher) Dispatch(ctx context.Context, reqs []Request) []Result {
	limit := d.Limit
	if limit <= 0 {
		limit = 1
	}
	results := make([]Result, len(reqs))
	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup

	for i, req := range reqs {
		wg.Add(1)
		go func(i int, req Request) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = runCall(ctx, i, req, d.Retry, d.Logger)
		}(i, req)
	}
	wg.Wait()
	return results
}

// PoolDispatcher runs a fixed pool of Workers pulling requests off a job
// channel.
type PoolDispatcher struct {
	Workers int
	Retry   RetryPolicy
	Logger  *zap.Logger
}

func (d *PoolDispatcher) Dispatch(ctx context.Context, reqs []Request) []Result {
	workers := d.Workers
	if workers <= 0 {
		workers = 1
	}
	if workers > len(reqs) {
		workers = len(reqs)
	}
	results := make([]Result, len(reqs))
	jobs := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = runCall(ctx, i, reqs[i], d.Retry, d.Logger)
			}
		}()
	}
	for i := range reqs {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return results
}

// runCall executes one request with per-call timeout and bounded retries.
// A timeout aborts only this call; sibling calls keep their own contexts.
func runCall(ctx context.Context, index int, req Request, retry RetryPolicy, logger *zap.Logger) Result {
	retry = retry.withDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}

	var records []*Record
	delay := retry.BaseDelay

	for attempt := 1; attempt <= retry.MaxAttempts; attempt++ {
		callCtx := ctx
		cancel := context.CancelFunc(func() {})
		if req.Timeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, req.Timeout)
		}

		started := time.Now().UTC()
		text, err := req.Client.Generate(callCtx, req.Prompt)
		cancel()

		rec := newRecord(index, attempt, req.Model, req.Prompt, started)
		rec.FinishedAt = time.Now().UTC()
		if err == nil {
			rec.Outcome = "success"
			rec.Response = text
			records = append(records, rec)
			return Result{Text: text, Records: records}
		}

		cerr := Classify(err)
		rec.Outcome = "failure"
		rec.ErrorKind = cerr.Kind
		records = append(records, rec)

		// A cancelled parent context means the caller gave up; a per-call
		// deadline is retryable on its own.
		if ctx.Err() != nil {
			return Result{Err: cerr, Records: records}
		}
		if !cerr.Retryable() || attempt == retry.MaxAttempts {
			logger.Warn("llm call failed",
				zap.Int("index", index),
				zap.Int("attempt", attempt),
				zap.String("kind", string(cerr.Kind)),
				zap.Error(cerr.Err))
			return Result{Err: cerr, Records: records}
		}

		logger.Warn("llm call failed, retrying",
			zap.Int("index", index),
			zap.Int("attempt", attempt),
			zap.String("kind", string(cerr.Kind)),
			zap.Duration("backoff", delay))

		select {
		case <-ctx.Done():
			return Result{Err: Classify(ctx.Err()), Records: records}
		case <-time.After(delay):
		}
		if delay *= 2; delay > retry.MaxDelay {
			delay = retry.MaxDelay
		}
	}
	// Unreachable: the loop always returns.
	return Result{}
}

// NewDispatcher builds a dispatcher by strategy name; unknown names fall
// back to the semaphore strategy.
func NewDispatcher(strategy string, limit int, retry RetryPolicy, logger *zap.Logger) Dispatcher {
	if strategy == "pool" {
		return &PoolDispatcher{Workers: limit, Retry: retry, Logger: logger}
	}
	return &SemaphoreDispatcher{Limit: limit, Retry: retry, Logger: logger}
}
