package generator

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/blimu-dev/resourcegen/pkg/config"
	"github.com/blimu-dev/resourcegen/pkg/generator/golang"
	"github.com/blimu-dev/resourcegen/pkg/generator/python"
	"github.com/blimu-dev/resourcegen/pkg/generator/typescript"
	"github.com/blimu-dev/resourcegen/pkg/openapi"
	"github.com/blimu-dev/resourcegen/pkg/planner"
	"github.com/blimu-dev/resourcegen/pkg/render"
	"github.com/blimu-dev/resourcegen/pkg/resolve"
	"github.com/blimu-dev/resourcegen/pkg/sink"
	"github.com/blimu-dev/resourcegen/pkg/spec"
	"github.com/blimu-dev/resourcegen/pkg/submodel"
)

// Generator defines the interface for SDK generators
type Generator interface {
	// GetType returns the type identifier for this generator (e.g., "typescript")
	GetType() string
	// Capabilities returns the type and naming table the planner resolves against
	Capabilities() *resolve.Capabilities
	// Generate renders a plan into files relative to the client's output directory
	Generate(client config.Client, plan *planner.Result) ([]render.File, error)
}

// Registry manages available generators
type Registry struct {
	generators map[string]Generator
}

// NewRegistry creates a new generator registry
func NewRegistry() *Registry {
	return &Registry{
		generators: make(map[string]Generator),
	}
}

// Register adds a generator to the registry
func (r *Registry) Register(gen Generator) {
	r.generators[gen.GetType()] = gen
}

// Get retrieves a generator by type
func (r *Registry) Get(genType string) (Generator, bool) {
	gen, exists := r.generators[genType]
	return gen, exists
}

// GetAvailableTypes returns all registered generator types, sorted
func (r *Registry) GetAvailableTypes() []string {
	types := make([]string, 0, len(r.generators))
	for t := range r.generators {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// GenerateOptions contains options for SDK generation
type GenerateOptions struct {
	ConfigPath   string
	SingleClient string
	Fallback     FallbackOptions
}

// FallbackOptions contains fallback options when no config file is provided
type FallbackOptions struct {
	Spec             string
	Type             string
	OutDir           string
	PackageName      string
	ModuleName       string
	Name             string
	DefaultBaseURL   string
	IncludeResources []string
	ExcludeResources []string
	StrictFormats    bool
}

// Config turns the fallback options into a single-client configuration.
func (f FallbackOptions) Config() (*config.Config, error) {
	if f.Spec == "" || f.Type == "" || f.OutDir == "" || f.PackageName == "" || f.Name == "" {
		return nil, fmt.Errorf("either config path or all fallback options must be provided")
	}
	cfg := &config.Config{
		Spec:          f.Spec,
		StrictFormats: f.StrictFormats,
		Clients: []config.Client{
			{
				Type:             f.Type,
				OutDir:           f.OutDir,
				PackageName:      f.PackageName,
				ModuleName:       f.ModuleName,
				Name:             f.Name,
				DefaultBaseURL:   f.DefaultBaseURL,
				IncludeResources: f.IncludeResources,
				ExcludeResources: f.ExcludeResources,
			},
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SinkFactory returns the destination of one client's files.
type SinkFactory func(client config.Client) sink.OutputSink

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets the structured logger handed to every planner run.
func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSink replaces the filesystem output. Pre and post commands are skipped for
// clients written to a custom sink.
func WithSink(f SinkFactory) ServiceOption {
	return func(s *Service) { s.sink = f }
}

// WithRegistry replaces the default generators.
func WithRegistry(r *Registry) ServiceOption {
	return func(s *Service) { s.registry = r }
}

// Service provides high-level SDK generation functionality
type Service struct {
	registry *Registry
	logger   *slog.Logger
	sink     SinkFactory
}

// NewService creates a new generator service with default generators
func NewService(opts ...ServiceOption) *Service {
	registry := NewRegistry()
	// Register default generators
	registry.Register(typescript.NewTypeScriptGenerator())
	registry.Register(golang.NewGoGenerator())
	registry.Register(python.NewPythonGenerator())
	s := &Service{registry: registry, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewServiceWithRegistry creates a new generator service with a custom registry
func NewServiceWithRegistry(registry *Registry) *Service {
	return NewService(WithRegistry(registry))
}

// Generate generates SDKs based on the provided options
func (s *Service) Generate(ctx context.Context, opts GenerateOptions) error {
	var cfg *config.Config
	var err error

	if opts.ConfigPath == "" {
		cfg, err = opts.Fallback.Config()
	} else {
		cfg, err = config.Load(opts.ConfigPath)
	}
	if err != nil {
		return err
	}

	return s.GenerateFromConfig(ctx, cfg, opts.SingleClient)
}

// GenerateFromConfig generates SDKs from a configuration
func (s *Service) GenerateFromConfig(ctx context.Context, cfg *config.Config, onlyClient string) error {
	doc, err := openapi.LoadSpec(cfg.Spec)
	if err != nil {
		return err
	}

	found := onlyClient == ""
	for _, client := range cfg.Clients {
		if onlyClient != "" && client.Name != onlyClient {
			continue
		}
		found = true
		if err := s.generateClient(ctx, cfg, doc, client); err != nil {
			return err
		}
	}
	if !found {
		return fmt.Errorf("no client named %q in config", onlyClient)
	}
	return nil
}

func (s *Service) generateClient(ctx context.Context, cfg *config.Config, doc *spec.Spec, client config.Client) error {
	generator, exists := s.registry.Get(client.Type)
	if !exists {
		return fmt.Errorf("unsupported client type: %s", client.Type)
	}
	logger := s.logger.With("client", client.Name, "type", client.Type)

	out := s.sink
	if out == nil {
		// Ensure output directory exists before pre-commands
		if err := os.MkdirAll(client.OutDir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory for client %s: %w", client.Name, err)
		}
		if err := s.executeCommand(ctx, client.GetPreCommand(), client.OutDir, "pre-command"); err != nil {
			return fmt.Errorf("pre-generation commands failed for client %s: %w", client.Name, err)
		}
		out = func(c config.Client) sink.OutputSink { return sink.NewFilesystemSink(c.OutDir) }
	}

	result, err := s.planClient(ctx, cfg, doc, client, generator)
	if err != nil {
		return fmt.Errorf("plan client %s: %w", client.Name, err)
	}
	files, err := generator.Generate(client, result)
	if err != nil {
		return fmt.Errorf("generate client %s: %w", client.Name, err)
	}

	dest := sink.Excluding(out(client), client.ShouldExcludeFile)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, f := range files {
		g.Go(func() error {
			return dest.WriteFile(gctx, f.Path, f.Content)
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("write client %s: %w", client.Name, err)
	}
	logger.Info("generated client", "files", len(files), "outDir", client.OutDir)

	if s.sink == nil {
		if err := s.executeCommand(ctx, client.GetPostCommand(), client.OutDir, "post-command"); err != nil {
			return fmt.Errorf("post-generation commands failed for client %s: %w", client.Name, err)
		}
	}
	return nil
}

// Plan loads the spec and plans one client without rendering.
func (s *Service) Plan(ctx context.Context, cfg *config.Config, clientName string) (*planner.Result, error) {
	doc, err := openapi.LoadSpec(cfg.Spec)
	if err != nil {
		return nil, err
	}
	for _, client := range cfg.Clients {
		if clientName != "" && client.Name != clientName {
			continue
		}
		generator, exists := s.registry.Get(client.Type)
		if !exists {
			return nil, fmt.Errorf("unsupported client type: %s", client.Type)
		}
		return s.planClient(ctx, cfg, doc, client, generator)
	}
	return nil, fmt.Errorf("no client named %q in config", clientName)
}

func (s *Service) planClient(ctx context.Context, cfg *config.Config, doc *spec.Spec, client config.Client, generator Generator) (*planner.Result, error) {
	opts, err := s.plannerOptions(cfg, client)
	if err != nil {
		return nil, err
	}
	return planner.New(generator.Capabilities(), opts...).Plan(ctx, doc)
}

// plannerOptions maps a client configuration to planner options.
func (s *Service) plannerOptions(cfg *config.Config, client config.Client) ([]planner.Option, error) {
	opts := []planner.Option{
		planner.WithLogger(s.logger.With("client", client.Name)),
		planner.WithStrictFormats(cfg.StrictFormats),
		planner.WithClientName(client.Name),
	}

	include, err := resourceFilter(client.IncludeResources, client.ExcludeResources)
	if err != nil {
		return nil, err
	}
	if include != nil {
		opts = append(opts, planner.WithResourceFilter(include))
	}

	perResource := map[string]submodel.BlankIndex{}
	for id, ro := range client.ResourceOptions {
		if ro.BlankIndex != "" {
			perResource[id] = submodel.BlankIndex(ro.BlankIndex)
		}
	}
	opts = append(opts, planner.WithBlankIndex(submodel.BlankIndex(client.BlankIndex), perResource))

	if client.FlattenNestedParams != nil {
		opts = append(opts, planner.WithFlattenNestedParams(*client.FlattenNestedParams))
	}
	return opts, nil
}

// GetRegistry returns the generator registry
func (s *Service) GetRegistry() *Registry {
	return s.registry
}

// executeCommand executes a single command in Docker Compose array format
func (s *Service) executeCommand(ctx context.Context, command []string, workDir, commandLabel string) error {
	if len(command) == 0 {
		return nil // Skip empty commands
	}

	// Create command with first element as executable and rest as arguments
	cmd := exec.CommandContext(ctx, command[0], command[1:]...)
	cmd.Dir = workDir      // Execute in the specified directory
	cmd.Stdout = os.Stdout // Forward stdout to see command output
	cmd.Stderr = os.Stderr // Forward stderr to see errors

	cmdDescription := strings.Join(command, " ")
	s.logger.Debug("running command", "label", commandLabel, "command", cmdDescription, "dir", workDir)

	// Execute the command
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s (%s) failed: %w", commandLabel, cmdDescription, err)
	}

	return nil
}
