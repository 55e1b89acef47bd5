package progress

import (
	"context"
	"fmt"
	"sync"
)

// Task is one unit of work run by RunWorkers.
type Task func(ctx context.Context) error

// RunWorkers runs tasks on a pool of workers goroutines and reports 1 to rep
// for every task that succeeds. The first error (from a task or from rep)
// cancels the context handed to the remaining tasks and is returned once all
// workers have stopped.
func RunWorkers(ctx context.Context, workers int, tasks []Task, rep Reporter) error {
	if workers < 1 {
		workers = 1
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)
	fail := func(err error) {
		once.Do(func() {
			firstErr = err
			cancel()
		})
	}

	queue := make(chan Task)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range queue {
				if err := task(runCtx); err != nil {
					fail(err)
					continue
				}
				if err := rep.Report(runCtx, 1); err != nil {
					fail(fmt.Errorf("failed to report progress: %w", err))
				}
			}
		}()
	}

feed:
	for _, task := range tasks {
		select {
		case queue <- task:
		case <-runCtx.Done():
			break feed
		}
	}
	close(queue)
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	return ctx.Err()
}
