package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/blimu-dev/resourcegen/pkg/config"
	"github.com/blimu-dev/resourcegen/pkg/generator"
	"github.com/blimu-dev/resourcegen/pkg/planner"
)

// PlanParams captures the inputs of the plan command.
type PlanParams struct {
	Config  *config.Config
	Client  string
	Format  string
	Verbose bool
}

var planRunner = runPlan

func newPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the artifact descriptions of one client without rendering",
		Example: strings.TrimSpace(`  resourcegen plan --config resourcegen.yaml --client AcmeClient
  resourcegen plan --input openapi.yaml --type python --format yaml`),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := resolvePlanParams(cmd)
			if err != nil {
				return err
			}
			return planRunner(cmd.Context(), cmd.OutOrStdout(), cmd, p)
		},
	}
	flags := cmd.Flags()
	flags.String("client", "", "Client to plan; defaults to the first in config")
	flags.String("input", "", "OpenAPI spec file (yaml/json) or URL")
	flags.String("type", "go", "Client type when planning without config")
	flags.String("format", "json", "Output format (json or yaml)")
	flags.Bool("strict-formats", false, "Treat unknown integer formats as strings")
	return cmd
}

func resolvePlanParams(cmd *cobra.Command) (*PlanParams, error) {
	flags := cmd.Flags()
	p := &PlanParams{Verbose: verboseFlag(cmd)}
	var err error
	if p.Client, err = flags.GetString("client"); err != nil {
		return nil, err
	}
	if p.Format, err = flags.GetString("format"); err != nil {
		return nil, err
	}
	if p.Format != "json" && p.Format != "yaml" {
		return nil, newUsageError(fmt.Sprintf("unsupported --format %q (expected json or yaml)", p.Format))
	}

	configPath, _ := flags.GetString("config")
	input, _ := flags.GetString("input")
	switch {
	case strings.TrimSpace(configPath) != "":
		if p.Config, err = config.Load(configPath); err != nil {
			return nil, err
		}
	case strings.TrimSpace(input) != "":
		typ, _ := flags.GetString("type")
		name := p.Client
		if name == "" {
			name = "Client"
		}
		p.Config = &config.Config{
			Spec:    strings.TrimSpace(input),
			Clients: []config.Client{{Type: typ, OutDir: ".", PackageName: "client", Name: name}},
		}
		if err := p.Config.Validate(); err != nil {
			return nil, newUsageError(err.Error())
		}
	default:
		return nil, newUsageError("either --config or --input must be provided")
	}
	if flags.Changed("strict-formats") {
		p.Config.StrictFormats, _ = flags.GetBool("strict-formats")
	}
	return p, nil
}

func runPlan(ctx context.Context, w io.Writer, cmd *cobra.Command, p *PlanParams) error {
	svc := generator.NewService(generator.WithLogger(newLogger(cmd.ErrOrStderr(), p.Verbose)))
	res, err := svc.Plan(ctx, p.Config, p.Client)
	if err != nil {
		return err
	}
	return writePlan(w, res, p.Format)
}

// writePlan encodes a plan result as indented JSON or block-style YAML.
func writePlan(w io.Writer, res *planner.Result, format string) error {
	data, err := json.Marshal(res, json.Deterministic(true), jsontext.WithIndent("  "))
	if err != nil {
		return fmt.Errorf("encode plan: %w", err)
	}
	if format == "yaml" {
		var node yaml.Node
		if err := yaml.Unmarshal(data, &node); err != nil {
			return fmt.Errorf("encode plan: %w", err)
		}
		blockStyle(&node)
		if data, err = yaml.Marshal(&node); err != nil {
			return fmt.Errorf("encode plan: %w", err)
		}
	} else {
		data = append(data, '\n')
	}
	_, err = w.Write(data)
	return err
}

// blockStyle clears the flow and quoting styles JSON input leaves on every
// node. Strings that would read back as another type stay quoted.
func blockStyle(n *yaml.Node) {
	n.Style &^= yaml.FlowStyle
	if n.Kind == yaml.ScalarNode {
		n.Style &^= yaml.DoubleQuotedStyle | yaml.SingleQuotedStyle
	}
	for _, c := range n.Content {
		blockStyle(c)
	}
}
