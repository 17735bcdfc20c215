package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/hatch-crm/hatch/internal/interfaces/cli/migrate"
	"github.com/hatch-crm/hatch/internal/interfaces/cli/rules"
	"github.com/hatch-crm/hatch/internal/interfaces/cli/server"
	"github.com/hatch-crm/hatch/internal/interfaces/cli/sweep"
	"github.com/hatch-crm/hatch/internal/shared/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "hatch",
		Short:   "Hatch - record admission and lead routing",
		Long:    `Hatch admits CRM records through validation rules, routes them to owners with capacity, and tracks first-touch SLAs.`,
		Version: version.Current,
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		migrate.NewCommand(),
		sweep.NewCommand(),
		rules.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
