package admin

import (
	"context"
	"fmt"

	"github.com/canopy-labs/knowledgebot/internal/config"
	"github.com/canopy-labs/knowledgebot/internal/repository"
	"github.com/spf13/cobra"
)

// SourceCmd returns the source management command
func SourceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "source",
		Short: "Manage registered sources",
	}

	cmd.AddCommand(sourceListCmd())
	cmd.AddCommand(sourceIngestCmd())

	return cmd
}

func sourceListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all registered sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			pool, err := openPool(ctx, cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			sources, err := repository.NewSourceRepository(pool).GetAll(ctx)
			if err != nil {
				return fmt.Errorf("failed to list sources: %w", err)
			}

			if len(sources) == 0 {
				fmt.Println("No sources registered")
				return nil
			}

			for _, s := range sources {
				fmt.Printf("%s  tenant=%s  type=%s  status=%s  %s\n",
					s.ID, s.TenantID, s.Type, s.IngestStatus, truncate(s.Value, 60))
			}
			return nil
		},
	}
}

func sourceIngestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <source-id>",
		Short: "Run the ingest pipeline for a source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			pool, err := openPool(ctx, cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			sourceRepo := repository.NewSourceRepository(pool)
			orchestrator, cleanup, err := buildOrchestrator(ctx, cfg, sourceRepo)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := orchestrator.Ingest(ctx, args[0], "cli"); err != nil {
				return fmt.Errorf("ingest failed: %w", err)
			}

			fmt.Printf("source %s ingested\n", args[0])
			return nil
		},
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
