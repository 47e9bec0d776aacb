package admin

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func ExportHistoryCmd() *cobra.Command {
	var jobID string

	cmd := &cobra.Command{
		Use:   "export-history",
		Short: "Export a job's match history to S3",
		Long:  "Write every match record of a job with its full history as JSON Lines to the configured S3 bucket",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputFormat, _ := cmd.Flags().GetString("output")
			return runExportHistory(cmd.Context(), cmd.OutOrStdout(), outputFormat, jobID)
		},
	}

	cmd.Flags().StringVar(&jobID, "job", "", "Job ID")
	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")
	_ = cmd.MarkFlagRequired("job")

	return cmd
}

func runExportHistory(ctx context.Context, out io.Writer, outputFormat, jobID string) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	exporter, err := a.exporter(ctx)
	if err != nil {
		return err
	}
	if exporter == nil {
		return errors.New("history export not configured: set MATCHD_S3_ENDPOINT, MATCHD_S3_ACCESS_KEY_ID and MATCHD_S3_SECRET_ACCESS_KEY")
	}

	result, err := exporter.ExportJob(ctx, jobID)
	if err != nil {
		return fmt.Errorf("failed to export history: %w", err)
	}

	if outputFormat == "json" {
		return writeJSON(out, result)
	}

	fmt.Fprintf(out, "Exported %d matches (%d history entries) to %s\n", result.Matches, result.Entries, result.Key)
	if result.DownloadURL != "" {
		fmt.Fprintf(out, "Download: %s\n", result.DownloadURL)
	}
	return nil
}
