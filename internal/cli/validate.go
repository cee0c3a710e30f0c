package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blimu-dev/resourcegen/pkg/config"
	"github.com/blimu-dev/resourcegen/pkg/openapi"
)

var validateRunner = runValidate

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate an OpenAPI spec and its resource annotations",
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := specInput(cmd)
			if err != nil {
				return err
			}
			return validateRunner(cmd, input)
		},
	}
	cmd.Flags().String("input", "", "OpenAPI spec file (yaml/json) or URL; defaults to the config's spec")
	return cmd
}

// specInput returns --input, or the spec named by --config.
func specInput(cmd *cobra.Command) (string, error) {
	input, err := cmd.Flags().GetString("input")
	if err != nil {
		return "", err
	}
	if input = strings.TrimSpace(input); input != "" {
		return input, nil
	}
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return "", err
	}
	if configPath = strings.TrimSpace(configPath); configPath == "" {
		return "", newUsageError("either --input or --config must be provided")
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return "", err
	}
	return cfg.Spec, nil
}

func runValidate(cmd *cobra.Command, input string) error {
	logger := newLogger(cmd.ErrOrStderr(), verboseFlag(cmd))
	if err := openapi.ValidateDocument(input); err != nil {
		return fmt.Errorf("validate %s: %w", input, err)
	}
	s, err := openapi.LoadSpec(input)
	if err != nil {
		return err
	}
	logger.Debug("spec loaded", "resources", len(s.Resources))
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d resources)\n", input, len(s.Resources))
	return err
}
