// Package sweep runs one SLA sweep pass outside the worker schedule.
package sweep

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hatch-crm/hatch/internal/interfaces/cli/bootstrap"
	"github.com/hatch-crm/hatch/internal/shared/biztime"
)

var (
	opts bootstrap.Options
	at   string
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run a single SLA sweep pass",
		Long:  `Recompute the status of live SLA timers once and escalate any fresh breaches.`,
		RunE:  run,
	}

	cmd.Flags().StringVarP(&opts.Env, "env", "e", "development", "Environment (development, test, production)")
	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to config file (default: ./configs/config.yaml)")
	cmd.Flags().StringVar(&at, "now", "", "Evaluate as of this instant (RFC3339 or YYYY-MM-DD) instead of the current time")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	container, _, log, cleanup, err := bootstrap.NewContainer(opts)
	if err != nil {
		return err
	}
	defer cleanup()

	now := biztime.NowUTC()
	if at != "" {
		if now, err = biztime.ParseBound(at, false); err != nil {
			return fmt.Errorf("invalid --now value: %w", err)
		}
	}

	start := time.Now()
	res, err := container.SweepService().Sweep(cmd.Context(), now)
	if err != nil {
		return fmt.Errorf("sweep failed: %w", err)
	}

	log.Infow("sweep completed",
		"processed", res.Processed,
		"advanced", res.Advanced,
		"escalated", res.Escalated,
		"failed", res.Failed,
		"duration", time.Since(start))

	fmt.Fprintf(cmd.OutOrStdout(), "processed=%d advanced=%d escalated=%d failed=%d\n",
		res.Processed, res.Advanced, res.Escalated, res.Failed)
	return nil
}
