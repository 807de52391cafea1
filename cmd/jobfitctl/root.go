package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/yanqian/jobfit/pkg/logger"
)

const app = "jobfitctl"

func newRootCmd() *cobra.Command {
	var logLevel string
	root := &cobra.Command{
		Use:           app,
		Short:         "jobfitctl indexes resumes and matches them against job descriptions offline",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level written to stderr (debug|info|warn|error)")

	newLogger := func(cmd *cobra.Command) *slog.Logger {
		return logger.NewWithWriter(cmd.ErrOrStderr(), logLevel)
	}
	root.AddCommand(newMatchCmd(newLogger), newIndexCmd(newLogger))
	return root
}

func readJSONFile(path string, dst any) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(dst); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
