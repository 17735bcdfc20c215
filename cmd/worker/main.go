package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hatch-crm/hatch/internal/infrastructure/scheduler"
	"github.com/hatch-crm/hatch/internal/interfaces/cli/bootstrap"
	"github.com/hatch-crm/hatch/internal/shared/version"
)

var opts bootstrap.Options

func main() {
	rootCmd := &cobra.Command{
		Use:     "hatch-worker",
		Short:   "Run the SLA sweep and capacity rebuild schedule",
		Version: version.Current,
		RunE:    run,
	}

	rootCmd.Flags().StringVarP(&opts.Env, "env", "e", "development", "Environment (development, test, production)")
	rootCmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to config file (default: ./configs/config.yaml)")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	container, cfg, log, cleanup, err := bootstrap.NewContainer(opts)
	if err != nil {
		return err
	}
	defer cleanup()

	log.Infow("starting worker", "environment", opts.ResolveEnv(), "version", version.Current)

	mgr, err := scheduler.NewSchedulerManager(log)
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	if err := mgr.RegisterSLASweepJob(container.SweepService(), cfg.SLA.SweepInterval()); err != nil {
		return fmt.Errorf("failed to register sla sweep job: %w", err)
	}

	if cfg.Routing.RebuildCron != "" {
		rebuild := container.RebuildCapacityUseCase()
		job := scheduler.BatchJobFunc(func(ctx context.Context) (int, error) {
			rows, err := rebuild.Execute(ctx)
			return len(rows), err
		})
		if err := mgr.RegisterCapacityRebuildJob(job, cfg.Routing.RebuildCron); err != nil {
			return fmt.Errorf("failed to register capacity rebuild job: %w", err)
		}
	}

	mgr.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Infow("received shutdown signal", "signal", sig.String())

	if err := mgr.Stop(); err != nil {
		log.Errorw("scheduler did not stop cleanly", "error", err)
		return err
	}

	log.Infow("worker stopped")
	return nil
}
