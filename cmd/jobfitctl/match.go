package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/yanqian/jobfit/internal/domain/matching"
	"github.com/yanqian/jobfit/internal/infra/sentencestore"
)

const offlineUser = "offline"

func newMatchCmd(newLogger func(*cobra.Command) *slog.Logger) *cobra.Command {
	var resumePath, jdPath string
	cmd := &cobra.Command{
		Use:   "match",
		Short: "Match embedded job description sentences against embedded resume bundles",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var bundles []matching.Bundle
			if err := readJSONFile(resumePath, &bundles); err != nil {
				return err
			}
			var queries []matching.JDSentenceQuery
			if err := readJSONFile(jdPath, &queries); err != nil {
				return err
			}

			ctx := cmd.Context()
			repo := sentencestore.NewMemoryRepository()
			if err := repo.SaveBundles(ctx, offlineUser, bundles); err != nil {
				return fmt.Errorf("load bundles: %w", err)
			}
			logger := newLogger(cmd)
			aggregator := matching.NewAggregator(matching.NewAccessor(repo, logger), nil, logger)
			results, err := aggregator.Match(ctx, offlineUser, queries)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), matching.MatchResponse{Results: results})
		},
	}
	cmd.Flags().StringVar(&resumePath, "resume", "", "JSON file with resume bundles ({contentType, sentences, embeddings})")
	cmd.Flags().StringVar(&jdPath, "jd", "", "JSON file with job description queries ({sentence, embedding})")
	_ = cmd.MarkFlagRequired("resume")
	_ = cmd.MarkFlagRequired("jd")
	return cmd
}
