package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
)

// Execute runs the resourcegen CLI.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd constructs the root command so tests can exercise the CLI easily.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "resourcegen",
		Short:         "Generate resource-oriented client SDKs from annotated OpenAPI specs",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringP("config", "c", "", "Path to resourcegen.yaml config")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")

	for _, sub := range []*cobra.Command{newGenerateCmd(), newValidateCmd(), newPlanCmd()} {
		cmd.AddCommand(sub)
	}
	for _, c := range append([]*cobra.Command{cmd}, cmd.Commands()...) {
		c.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
			return newUsageError(fmt.Sprintf("%v\n\n%s", err, c.UsageString()))
		})
	}
	return cmd
}

// newLogger returns a text logger on w, at debug level when verbose.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func verboseFlag(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("verbose")
	return v
}
