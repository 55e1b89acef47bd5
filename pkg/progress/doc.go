// Package progress aggregates completion counts reported by many concurrent
// workers and renders them as a single terminal progress bar.
//
// # Overview
//
// Workers hold a Reporter and call Report(ctx, n) whenever they finish n items.
// A single consumer calls Drain, which blocks until at least one report has
// arrived since the previous Drain and then returns the pooled increment
// together with the running total. RenderLoop drives a Renderer from Drain
// until the target count is reached.
//
// # Substrates
//
// Counter keeps the state in process memory and suits goroutine workers.
// RedisAggregator keeps the state in Redis so that workers in other processes
// or on other machines can report into the same bar:
//
//	expkit:{name}:progress:completed  running total (INCRBY)
//	expkit:{name}:progress:delta      increment not yet drained (INCRBY, GETSET 0)
//	expkit:{name}:progress:pending    set by Report, cleared by Drain
//	expkit:{name}:progress_events     Pub/Sub channel that wakes Drain
//
// # Usage Example
//
//	counter := progress.NewCounter()
//	bar := progress.NewProgressBar(counter, int64(len(tasks)), "experiments")
//
//	go func() {
//		if err := progress.RunWorkers(ctx, 4, tasks, bar.Reporter()); err != nil {
//			log.Printf("[ERROR] %v", err)
//		}
//	}()
//
//	if err := bar.PrintUntilDone(ctx); err != nil {
//		log.Fatal(err)
//	}
package progress
