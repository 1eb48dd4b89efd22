package main

import (
	"fmt"
	"os"

	"github.com/canopy-labs/knowledgebot/internal/cli"
	"github.com/canopy-labs/knowledgebot/internal/cli/admin"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "knowledgebotd",
		Short: "Knowledgebot daemon and CLI",
		Long:  "Knowledgebot daemon for running the ingestion API server and managing sources",
	}

	cli.AddHelpJSONFlag(rootCmd)
	rootCmd.AddCommand(admin.ServeCmd())
	rootCmd.AddCommand(admin.SourceCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
