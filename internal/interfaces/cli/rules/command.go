// Package rules holds rule administration commands.
package rules

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/hatch-crm/hatch/internal/application/rule/usecases"
	"github.com/hatch-crm/hatch/internal/interfaces/cli/bootstrap"
)

var (
	opts         bootstrap.Options
	file         string
	orgID        string
	skipExisting bool
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Rule administration",
	}

	cmd.PersistentFlags().StringVarP(&opts.Env, "env", "e", "development", "Environment (development, test, production)")
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to config file (default: ./configs/config.yaml)")

	cmd.AddCommand(newImportCommand())
	return cmd
}

func newImportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import rules from a YAML seed file",
		Long:  `Create every rule listed in a YAML seed file for one organization. Use "-" to read from stdin.`,
		RunE:  runImport,
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Path to the YAML seed file (required)")
	cmd.Flags().StringVar(&orgID, "org", "", "Organization the rules belong to (required)")
	cmd.Flags().BoolVar(&skipExisting, "skip-existing", false, "Skip rules whose name already exists instead of failing them")
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("org")

	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	data, err := readSeed(cmd, file)
	if err != nil {
		return err
	}

	container, _, log, cleanup, err := bootstrap.NewContainer(opts)
	if err != nil {
		return err
	}
	defer cleanup()

	res, err := container.ImportRulesUseCase().Execute(cmd.Context(), usecases.ImportRulesCommand{
		OrgID:        orgID,
		Data:         data,
		SkipExisting: skipExisting,
	})
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	log.Infow("rules imported",
		"org_id", orgID,
		"created", len(res.Created),
		"skipped", len(res.Skipped),
		"failed", len(res.Failed))

	writeResult(cmd.OutOrStdout(), res)
	if len(res.Failed) > 0 {
		return fmt.Errorf("%d rule(s) failed to import", len(res.Failed))
	}
	return nil
}

func readSeed(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	return data, nil
}

func writeResult(w io.Writer, res *usecases.ImportRulesResult) {
	for _, id := range res.Created {
		fmt.Fprintf(w, "created  %s\n", id)
	}
	for _, name := range res.Skipped {
		fmt.Fprintf(w, "skipped  %s\n", name)
	}
	for _, f := range res.Failed {
		fmt.Fprintf(w, "failed   #%d %s: %s\n", f.Index, f.Name, f.Error)
	}
	fmt.Fprintf(w, "created=%d skipped=%d failed=%d\n", len(res.Created), len(res.Skipped), len(res.Failed))
}
