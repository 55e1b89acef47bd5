package commands

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dyluth/expkit/internal/printer"
	"github.com/dyluth/expkit/pkg/progress"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	progressName  string
	progressTotal int64
	progressDesc  string
	reportCount   int64
	demoTasks     int
	demoWorkers   int
	demoDelay     time.Duration
)

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Report and display aggregated progress",
	Long: `Report and display progress aggregated across processes via Redis.

Any number of processes may report completions under the same name while one
process watches and renders a progress bar. Names are scoped by --namespace.

Examples:
  # Render a bar until 500 items are done
  expkit progress watch --name sweep --total 500

  # From each worker, after finishing an item
  expkit progress report --name sweep

  # Try it locally without Redis
  expkit progress demo --tasks 20 --workers 4`,
}

var progressWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Render a progress bar until the total is reached",
	Args:  cobra.NoArgs,
	RunE:  runProgressWatch,
}

var progressReportCmd = &cobra.Command{
	Use:   "report",
	Short: "Report completed items",
	Args:  cobra.NoArgs,
	RunE:  runProgressReport,
}

var progressResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete the stored counts for a progress name",
	Args:  cobra.NoArgs,
	RunE:  runProgressReset,
}

var progressDemoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run sleeping tasks on a worker pool and render their progress",
	Long: `Run sleeping tasks on a worker pool and render their progress.

Uses an in-process counter, or Redis when a Redis URL is configured.`,
	Args: cobra.NoArgs,
	RunE: runProgressDemo,
}

func init() {
	for _, c := range []*cobra.Command{progressWatchCmd, progressReportCmd, progressResetCmd} {
		c.Flags().StringVarP(&progressName, "name", "n", "", "Progress name (required)")
		_ = c.MarkFlagRequired("name")
	}

	progressWatchCmd.Flags().Int64VarP(&progressTotal, "total", "t", 0, "Target count (required)")
	progressWatchCmd.Flags().StringVarP(&progressDesc, "desc", "d", "", "Bar description (defaults to the name)")
	_ = progressWatchCmd.MarkFlagRequired("total")

	progressReportCmd.Flags().Int64Var(&reportCount, "count", 1, "Number of completed items to report")

	progressDemoCmd.Flags().IntVar(&demoTasks, "tasks", 6, "Number of tasks")
	progressDemoCmd.Flags().IntVar(&demoWorkers, "workers", 0, "Worker pool size (defaults to the workers setting)")
	progressDemoCmd.Flags().DurationVar(&demoDelay, "delay", 300*time.Millisecond, "Time each task sleeps")

	progressCmd.AddCommand(progressWatchCmd, progressReportCmd, progressResetCmd, progressDemoCmd)
	rootCmd.AddCommand(progressCmd)
}

// connectAggregator opens and pings the Redis aggregator for name.
func connectAggregator(ctx context.Context, out *printer.Printer, name string) (*progress.RedisAggregator, error) {
	opts, err := settings.RedisOptions()
	if err != nil {
		return nil, out.Error(
			"Redis not configured",
			err.Error(),
			[]string{"Pass --redis-url redis://localhost:6379", "Set redis_url in the settings file"},
		)
	}

	agg, err := progress.NewRedisAggregator(opts, settings.AggregatorName(name))
	if err != nil {
		return nil, fmt.Errorf("failed to create progress aggregator: %w", err)
	}

	if err := agg.Ping(ctx); err != nil {
		agg.Close()
		return nil, out.ErrorWithContext(
			"Redis connection failed",
			err.Error(),
			map[string]string{"Redis": settings.RedisURL},
			[]string{"Check that Redis is running and reachable"},
		)
	}

	return agg, nil
}

func closeAggregator(agg *progress.RedisAggregator) {
	if err := agg.Close(); err != nil {
		log.Printf("[WARN] failed to close progress aggregator %s: %v", agg.Name(), err)
	}
}

func barOptions(cmd *cobra.Command) []progress.BarOption {
	return []progress.BarOption{
		progress.WithOutput(cmd.ErrOrStderr()),
		progress.WithWidth(settings.BarWidth),
		progress.WithColor(settings.Color),
	}
}

func runProgressWatch(cmd *cobra.Command, args []string) error {
	out := cmdPrinter(cmd)

	if progressTotal < 0 {
		return out.Error("invalid total", fmt.Sprintf("--total must not be negative, got %d", progressTotal), nil)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	agg, err := connectAggregator(ctx, out, progressName)
	if err != nil {
		return err
	}
	defer closeAggregator(agg)

	desc := progressDesc
	if desc == "" {
		desc = progressName
	}

	bar := progress.NewProgressBar(agg, progressTotal, desc, barOptions(cmd)...)
	if err := bar.PrintUntilDone(ctx); err != nil {
		if ctx.Err() != nil {
			out.Warning("interrupted\n")
			return nil
		}
		return fmt.Errorf("failed to watch progress: %w", err)
	}

	out.Success("%s complete (%d/%d)\n", desc, progressTotal, progressTotal)
	return nil
}

func runProgressReport(cmd *cobra.Command, args []string) error {
	out := cmdPrinter(cmd)
	ctx := cmd.Context()

	agg, err := connectAggregator(ctx, out, progressName)
	if err != nil {
		return err
	}
	defer closeAggregator(agg)

	if err := agg.Report(ctx, reportCount); err != nil {
		return out.ErrorWithContext("failed to report progress", err.Error(), map[string]string{"Name": agg.Name()}, nil)
	}

	completed, err := agg.Completed(ctx)
	if err != nil {
		return fmt.Errorf("failed to read progress: %w", err)
	}

	out.Success("reported %d for %s (completed: %d)\n", reportCount, progressName, completed)
	return nil
}

func runProgressReset(cmd *cobra.Command, args []string) error {
	out := cmdPrinter(cmd)
	ctx := cmd.Context()

	agg, err := connectAggregator(ctx, out, progressName)
	if err != nil {
		return err
	}
	defer closeAggregator(agg)

	if err := agg.Reset(ctx); err != nil {
		return fmt.Errorf("failed to reset progress: %w", err)
	}

	out.Success("reset %s\n", progressName)
	return nil
}

func runProgressDemo(cmd *cobra.Command, args []string) error {
	out := cmdPrinter(cmd)

	if demoTasks < 0 {
		return out.Error("invalid task count", fmt.Sprintf("--tasks must not be negative, got %d", demoTasks), nil)
	}
	workers := demoWorkers
	if workers <= 0 {
		workers = settings.Workers
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var agg progress.Aggregator = progress.NewCounter()
	if settings.RedisURL != "" {
		redisAgg, err := connectAggregator(ctx, out, "demo-"+uuid.NewString())
		if err != nil {
			return err
		}
		defer closeAggregator(redisAgg)
		defer func() {
			if err := redisAgg.Reset(context.Background()); err != nil {
				log.Printf("[WARN] failed to clean up demo progress %s: %v", redisAgg.Name(), err)
			}
		}()
		agg = redisAgg
	}

	out.Step("running %d tasks on %d workers\n", demoTasks, workers)

	tasks := make([]progress.Task, demoTasks)
	for i := range tasks {
		tasks[i] = sleepTask(demoDelay)
	}

	return runWithBar(ctx, cmd, agg, tasks, workers)
}

// runWithBar runs tasks on the worker pool while rendering their progress.
// A failing task stops the bar.
func runWithBar(ctx context.Context, cmd *cobra.Command, agg progress.Aggregator, tasks []progress.Task, workers int) error {
	out := cmdPrinter(cmd)

	parent := ctx
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	bar := progress.NewProgressBar(agg, int64(len(tasks)), "demo", barOptions(cmd)...)

	workErr := make(chan error, 1)
	go func() {
		err := progress.RunWorkers(ctx, workers, tasks, bar.Reporter())
		if err != nil {
			cancel()
		}
		workErr <- err
	}()

	renderErr := bar.PrintUntilDone(ctx)
	if err := <-workErr; err != nil {
		if parent.Err() != nil {
			out.Warning("interrupted\n")
			return nil
		}
		return out.Error("demo failed", err.Error(), nil)
	}
	if renderErr != nil {
		return fmt.Errorf("failed to render progress: %w", renderErr)
	}

	out.Success("%d tasks complete\n", len(tasks))
	return nil
}

func sleepTask(d time.Duration) progress.Task {
	return func(ctx context.Context) error {
		select {
		case <-time.After(d):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
