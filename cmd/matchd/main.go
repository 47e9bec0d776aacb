package main

import (
	"context"
	"fmt"
	"os"

	"github.com/cloo-solutions/matchd/internal/cli"
	"github.com/cloo-solutions/matchd/internal/cli/admin"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "matchd",
		Short:         "Candidate/job match scoring service",
		Long:          "matchd scores candidates against jobs, stores match records with their review status, and keeps an audit history of every change",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cli.AddHelpJSONFlag(rootCmd)
	rootCmd.AddCommand(admin.ServeCmd())
	rootCmd.AddCommand(admin.MigrateCmd())
	rootCmd.AddCommand(admin.ScoreCmd())
	rootCmd.AddCommand(admin.RescoreCmd())
	rootCmd.AddCommand(admin.ExportHistoryCmd())

	return rootCmd
}

func main() {
	rootCmd := newRootCmd()

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
