package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/cloo-solutions/matchd/internal/domain"
	"github.com/spf13/cobra"
)

const cliActorID = "matchd-cli"

func ScoreCmd() *cobra.Command {
	var candidateID, jobID string

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score one stored candidate against one stored job",
		Long:  "Compute and store the match record for a candidate/job pair using their stored profiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputFormat, _ := cmd.Flags().GetString("output")
			return runScore(cmd.Context(), cmd.OutOrStdout(), outputFormat, candidateID, jobID)
		},
	}

	cmd.Flags().StringVar(&candidateID, "candidate", "", "Candidate ID")
	cmd.Flags().StringVar(&jobID, "job", "", "Job ID")
	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")
	_ = cmd.MarkFlagRequired("candidate")
	_ = cmd.MarkFlagRequired("job")

	return cmd
}

func runScore(ctx context.Context, out io.Writer, outputFormat, candidateID, jobID string) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	match, err := a.matches.ScorePair(ctx, candidateID, jobID, cliActorID)
	if err != nil {
		return fmt.Errorf("failed to score pair: %w", err)
	}

	return printMatch(out, outputFormat, match)
}

func RescoreCmd() *cobra.Command {
	var jobID string

	cmd := &cobra.Command{
		Use:   "rescore",
		Short: "Recompute every candidate's score for a job",
		Long:  "Score all stored candidates against a job with bounded concurrency (MATCHD_RESCORE_CONCURRENCY)",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputFormat, _ := cmd.Flags().GetString("output")
			return runRescore(cmd.Context(), cmd.OutOrStdout(), outputFormat, jobID)
		},
	}

	cmd.Flags().StringVar(&jobID, "job", "", "Job ID")
	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")
	_ = cmd.MarkFlagRequired("job")

	return cmd
}

func runRescore(ctx context.Context, out io.Writer, outputFormat, jobID string) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	summary, err := a.matches.RescoreJob(ctx, jobID, cliActorID)
	if err != nil {
		return fmt.Errorf("failed to rescore job: %w", err)
	}

	if outputFormat == "json" {
		return writeJSON(out, summary)
	}

	fmt.Fprintf(out, "Rescored job %s: %d candidates, %d scored, %d failed\n",
		summary.JobID, summary.Total, summary.Scored, summary.Failed)
	return nil
}

func printMatch(out io.Writer, outputFormat string, m *domain.MatchRecord) error {
	if outputFormat == "json" {
		return writeJSON(out, map[string]interface{}{
			"id":              m.ID,
			"candidate_id":    m.CandidateID,
			"job_id":          m.JobID,
			"match_score":     m.MatchScore,
			"skill_score":     m.SkillScore,
			"embedding_score": m.EmbeddingScore,
			"status":          m.Status,
			"score_detail":    m.ScoreDetail,
			"computed_at":     m.ComputedAt,
		})
	}

	fmt.Fprintf(out, "Match %s: candidate %s / job %s\n", m.ID, m.CandidateID, m.JobID)
	fmt.Fprintf(out, "  score:   %.4f (%s)\n", m.MatchScore, m.ScoreDetail.Method)
	fmt.Fprintf(out, "  status:  %s\n", m.Status)
	if len(m.ScoreDetail.MatchedSkills) > 0 {
		fmt.Fprintf(out, "  matched: %v\n", m.ScoreDetail.MatchedSkills)
	}
	if len(m.ScoreDetail.MissingSkills) > 0 {
		fmt.Fprintf(out, "  missing: %v\n", m.ScoreDetail.MissingSkills)
	}
	return nil
}

func writeJSON(out io.Writer, v interface{}) error {
	jsonBytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(jsonBytes))
	return err
}
