package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/adalbafotos-dev/carrinhosbb-affiliate-platform-sub001/internal/analysis"
	"github.com/adalbafotos-dev/carrinhosbb-affiliate-platform-sub001/internal/cli"
)

func runSweep(args []string) int {
	fs := flag.NewFlagSet("sweep", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	schedule := fs.String("schedule", "@every 6h", "Cron schedule for recurring sweeps")
	once := fs.Bool("once", false, "Run a single sweep and exit")
	runTimeout := fs.Duration("run-timeout", 30*time.Minute, "Timeout for each sweep run")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if *runTimeout <= 0 {
		fmt.Fprintln(os.Stderr, "--run-timeout must be positive")
		return 2
	}
	if !*once {
		if _, err := cron.ParseStandard(*schedule); err != nil {
			fmt.Fprintf(os.Stderr, "Invalid --schedule: %v\n", err)
			return 2
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	rt, err := openRuntime(ctx, envLoader, 0)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer rt.Close()

	service := rt.service()
	logger := rt.logger.With().Str("component", "sweep").Logger()

	runOnce := func() (analysis.SweepResult, error) {
		runCtx, runCancel := context.WithTimeout(ctx, *runTimeout)
		defer runCancel()

		result, err := service.Sweep(runCtx)
		if err != nil {
			logger.Error().Err(err).
				Int("silos", result.Silos).
				Int("posts", result.Posts).
				Msg("sweep aborted")
		}
		return result, err
	}

	if *once {
		result, err := runOnce()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Sweep failed: %v\n", err)
			return 1
		}
		if err := printJSON(result); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to render result: %v\n", err)
			return 1
		}
		return 0
	}

	scheduler := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := scheduler.AddFunc(*schedule, func() {
		_, _ = runOnce()
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid --schedule: %v\n", err)
		return 2
	}

	scheduler.Start()
	logger.Info().Str("schedule", *schedule).Msg("sweep scheduler started")

	<-ctx.Done()
	stopped := scheduler.Stop()
	<-stopped.Done()
	logger.Info().Msg("sweep scheduler stopped")
	return 0
}
