package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/yanqian/jobfit/internal/domain/matching"
	"github.com/yanqian/jobfit/internal/infra/config"
	"github.com/yanqian/jobfit/internal/infra/embedder"
	"github.com/yanqian/jobfit/internal/infra/sentencestore"
)

func newIndexCmd(newLogger func(*cobra.Command) *slog.Logger) *cobra.Command {
	var userID, blocksPath string
	var replace bool
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Embed resume blocks and store them for a user in the configured Postgres database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var blocks []matching.ResumeBlock
			if err := readJSONFile(blocksPath, &blocks); err != nil {
				return err
			}
			cfg, err := config.LoadUnvalidated()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			logger := newLogger(cmd)
			repo, closeRepo, err := sentencestore.Open(ctx, cfg.Postgres)
			if err != nil {
				return fmt.Errorf("open sentence store: %w", err)
			}
			defer closeRepo()

			emb := embedder.FromConfig(cfg.LLM, cfg.Embedding, nil, nil, logger)
			svc, err := matching.NewService(matching.Config{}, repo, emb, nil, nil, nil, logger)
			if err != nil {
				return err
			}
			resp, err := svc.IndexResume(ctx, userID, matching.IndexRequest{Blocks: blocks, ReplaceExisting: replace})
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), resp)
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id that owns the resume")
	cmd.Flags().StringVar(&blocksPath, "file", "", "JSON file with resume blocks ({contentType, text})")
	cmd.Flags().BoolVar(&replace, "replace", false, "delete the user's existing bundles first")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
