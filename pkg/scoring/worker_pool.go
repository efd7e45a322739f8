package scoring

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// WorkerPool bounds how many scoring calls run at once. A semaphore caps
// outstanding requests; results are collected as they complete and one
// failing item never stops the rest of the batch.
type WorkerPool struct {
	maxConcurrent int
	logger        *zap.Logger
}

// NewWorkerPool creates a pool with the given concurrency bound (minimum 1,
// default 8 when zero or negative).
func NewWorkerPool(maxConcurrent int, logger *zap.Logger) *WorkerPool {
	if maxConcurrent < 1 {
		maxConcurrent = 8
	}
	return &WorkerPool{
		maxConcurrent: maxConcurrent,
		logger:        logger.Named("scoring-pool"),
	}
}

// Task is one unit of scoring work.
type Task[T any] struct {
	ID  string
	Run func(ctx context.Context) (T, error)
}

// TaskResult pairs a task's outcome with its ID.
type TaskResult[T any] struct {
	ID     string
	Result T
	Err    error
}

// Run executes all tasks with bounded parallelism and returns results in
// completion order. Context cancellation fails the not-yet-started tasks
// with ctx.Err() but lets in-flight ones finish.
func Run[T any](ctx context.Context, pool *WorkerPool, tasks []Task[T]) []TaskResult[T] {
	if len(tasks) == 0 {
		return nil
	}

	resultsChan := make(chan TaskResult[T], len(tasks))
	sem := make(chan struct{}, pool.maxConcurrent)

	var wg sync.WaitGroup
	for _, task := range tasks {
		wg.Add(1)
		go func(task Task[T]) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				var zero T
				resultsChan <- TaskResult[T]{ID: task.ID, Result: zero, Err: ctx.Err()}
				return
			}

			result, err := task.Run(ctx)
			resultsChan <- TaskResult[T]{ID: task.ID, Result: result, Err: err}
		}(task)
	}

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	results := make([]TaskResult[T], 0, len(tasks))
	failed := 0
	for r := range resultsChan {
		if r.Err != nil {
			failed++
		}
		results = append(results, r)
	}

	if failed > 0 {
		pool.logger.Warn("batch finished with failures",
			zap.Int("total", len(tasks)),
			zap.Int("failed", failed))
	}

	return results
}
