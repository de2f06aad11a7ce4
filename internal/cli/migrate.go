package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"ideaplan-api/internal/wire"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the plans and llm_usage_events tables",
	Long: `Create or update the PostgreSQL schema, including the row-level security
policy that restricts plans to their owner.`,
	Args: cobra.NoArgs,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)
	client, cleanup, err := wire.InitializePostgres(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	defer cleanup()

	if err := client.Migrate(ctx); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), styleSection.Render("✓")+" schema is up to date")
	return nil
}
