package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/blimu-dev/resourcegen/pkg/config"
	"github.com/blimu-dev/resourcegen/pkg/generator"
)

// GenerateParams captures the inputs of the generate command after merging the
// config file with command-line overrides.
type GenerateParams struct {
	ConfigPath   string
	SingleClient string
	Fallback     generator.FallbackOptions
	Verbose      bool
}

var generateRunner = runGenerate

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate client SDKs",
		Example: strings.TrimSpace(`  resourcegen generate --config resourcegen.yaml
  resourcegen generate --input openapi.yaml --type go --out ./sdk --package-name acme --client-name AcmeClient`),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := resolveGenerateParams(cmd)
			if err != nil {
				return err
			}
			return generateRunner(cmd.Context(), cmd, p)
		},
	}

	flags := cmd.Flags()
	flags.String("client", "", "Generate only the named client from config")
	// Fallback single-client flags
	flags.String("input", "", "OpenAPI spec file (yaml/json) or URL")
	flags.String("type", "", "Client type (go, python or typescript)")
	flags.String("out", "", "Output directory")
	flags.String("package-name", "", "Package name")
	flags.String("module-name", "", "Module or npm package name")
	flags.String("client-name", "", "Client type name")
	flags.String("base-url", "", "Default base URL of the generated client")
	flags.StringArray("include-resources", nil, "Regex patterns for resources to include")
	flags.StringArray("exclude-resources", nil, "Regex patterns for resources to exclude")
	flags.Bool("strict-formats", false, "Treat unknown integer formats as strings")

	return cmd
}

func resolveGenerateParams(cmd *cobra.Command) (*GenerateParams, error) {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	p := &GenerateParams{
		ConfigPath: strings.TrimSpace(configPath),
		Verbose:    verboseFlag(cmd),
	}
	if err := applyGenerateFlagOverrides(cmd.Flags(), p); err != nil {
		return nil, err
	}
	if p.ConfigPath == "" {
		f := p.Fallback
		if f.Spec == "" || f.Type == "" || f.OutDir == "" || f.PackageName == "" || f.Name == "" {
			return nil, newUsageError("either --config or all of --input, --type, --out, --package-name, --client-name must be provided")
		}
		if !config.IsURL(f.Spec) {
			p.Fallback.Spec = absPath(f.Spec)
		}
		p.Fallback.OutDir = absPath(f.OutDir)
	}
	return p, nil
}

func applyGenerateFlagOverrides(flags *pflag.FlagSet, p *GenerateParams) error {
	stringFlags := map[string]*string{
		"client":       &p.SingleClient,
		"input":        &p.Fallback.Spec,
		"type":         &p.Fallback.Type,
		"out":          &p.Fallback.OutDir,
		"package-name": &p.Fallback.PackageName,
		"module-name":  &p.Fallback.ModuleName,
		"client-name":  &p.Fallback.Name,
		"base-url":     &p.Fallback.DefaultBaseURL,
	}
	for name, dst := range stringFlags {
		if !flags.Changed(name) {
			continue
		}
		value, err := flags.GetString(name)
		if err != nil {
			return err
		}
		*dst = strings.TrimSpace(value)
	}
	sliceFlags := map[string]*[]string{
		"include-resources": &p.Fallback.IncludeResources,
		"exclude-resources": &p.Fallback.ExcludeResources,
	}
	for name, dst := range sliceFlags {
		if !flags.Changed(name) {
			continue
		}
		value, err := flags.GetStringArray(name)
		if err != nil {
			return err
		}
		*dst = value
	}
	if flags.Changed("strict-formats") {
		value, err := flags.GetBool("strict-formats")
		if err != nil {
			return err
		}
		p.Fallback.StrictFormats = value
	}
	return nil
}

func runGenerate(ctx context.Context, cmd *cobra.Command, p *GenerateParams) error {
	svc := generator.NewService(generator.WithLogger(newLogger(cmd.ErrOrStderr(), p.Verbose)))
	if p.ConfigPath == "" {
		return svc.Generate(ctx, generator.GenerateOptions{Fallback: p.Fallback})
	}
	cfg, err := config.Load(p.ConfigPath)
	if err != nil {
		return err
	}
	if p.Fallback.StrictFormats {
		cfg.StrictFormats = true
	}
	if err := svc.GenerateFromConfig(ctx, cfg, p.SingleClient); err != nil {
		return fmt.Errorf("generate from %s: %w", p.ConfigPath, err)
	}
	return nil
}

func absPath(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return p
	}
	return abs
}
