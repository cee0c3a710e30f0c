// Package planner drives a generation run: it registers every artifact name in one
// sequential discovery pass, then resolves resources concurrently into the ordered
// list of artifact descriptions a backend renders.
package planner

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/blimu-dev/resourcegen/pkg/classify"
	"github.com/blimu-dev/resourcegen/pkg/filter"
	"github.com/blimu-dev/resourcegen/pkg/ir"
	"github.com/blimu-dev/resourcegen/pkg/naming"
	"github.com/blimu-dev/resourcegen/pkg/resolve"
	"github.com/blimu-dev/resourcegen/pkg/spec"
	"github.com/blimu-dev/resourcegen/pkg/submodel"
)

// Option configures a Planner.
type Option func(*Planner)

// WithLogger sets the structured logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(p *Planner) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithStrictFormats maps unknown string formats to the string type instead of the
// integer fallback.
func WithStrictFormats(strict bool) Option {
	return func(p *Planner) { p.strict = strict }
}

// WithResourceFilter restricts the run to resources for which include returns true.
// Excluded resources are not emitted; references to them become inline sub-models.
func WithResourceFilter(include func(id string) bool) Option {
	return func(p *Planner) { p.include = include }
}

// WithBlankIndex sets the composite-array policy, with per-resource overrides.
func WithBlankIndex(def submodel.BlankIndex, perResource map[string]submodel.BlankIndex) Option {
	return func(p *Planner) {
		if def != "" {
			p.blankIndex = def
		}
		p.resourceBlank = perResource
	}
}

// WithFlattenNestedParams overrides the target's nested parameter mode.
func WithFlattenNestedParams(flatten bool) Option {
	return func(p *Planner) { p.flatten = &flatten }
}

// WithClientName sets the name of the client artifact.
func WithClientName(name string) Option {
	return func(p *Planner) { p.clientName = name }
}

// WithConcurrency bounds the number of resources resolved at once. Zero means no limit.
func WithConcurrency(n int) Option {
	return func(p *Planner) { p.concurrency = n }
}

// Planner plans the artifacts of one target language.
type Planner struct {
	caps          *resolve.Capabilities
	logger        *slog.Logger
	strict        bool
	include       func(id string) bool
	blankIndex    submodel.BlankIndex
	resourceBlank map[string]submodel.BlankIndex
	flatten       *bool
	clientName    string
	concurrency   int
}

// New returns a planner for the given capability table.
func New(caps *resolve.Capabilities, opts ...Option) *Planner {
	p := &Planner{
		caps:       caps,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		blankIndex: submodel.BlankIndexError,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Severity grades a diagnostic.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
)

// Diagnostic is a non-fatal finding of a run.
type Diagnostic struct {
	Severity Severity `json:"severity"`
	Resource string   `json:"resource,omitempty"`
	Artifact string   `json:"artifact,omitempty"`
	Message  string   `json:"message"`
}

// Result is the outcome of a run.
type Result struct {
	Outputs     []ir.Output  `json:"outputs"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}

// Plan resolves s into artifact descriptions. The output order and content depend
// only on s and the planner's configuration.
func (p *Planner) Plan(ctx context.Context, s *spec.Spec) (*Result, error) {
	if err := p.caps.Validate(); err != nil {
		return nil, fmt.Errorf("planner: %w", err)
	}
	r := newRun(p, s)
	r.discover()

	outputs, err := r.build(ctx)
	if err != nil {
		return nil, err
	}
	for _, d := range r.diags {
		if d.Severity == SeverityWarning {
			p.logger.Warn(d.Message, "resource", d.Resource, "artifact", d.Artifact)
		}
	}
	p.logger.Debug("plan complete", "outputs", len(outputs), "diagnostics", len(r.diags))
	return &Result{Outputs: outputs, Diagnostics: r.diags}, nil
}

// run holds the state of one Plan call.
type run struct {
	*Planner
	spec      *spec.Spec
	resources []*spec.Resource
	index     map[string]*spec.Resource
	reg       *resolve.Registry
	res       *resolve.Resolver
	flat      bool

	// ops are the planned operations of each resource, in declaration order.
	ops map[string][]*opPlan
	// modules maps model, sub-model and response names to the module emitting them.
	modules map[string]string
	// subDomain is the shared enum of sub-domain identifiers, nil when unused.
	subDomain *ir.Enum
	warned    map[*resolve.Entry]bool
	diags     []Diagnostic
}

func newRun(p *Planner, s *spec.Spec) *run {
	r := &run{
		Planner: p,
		spec:    s,
		index:   make(map[string]*spec.Resource),
		reg:     resolve.NewRegistry(),
		flat:    p.caps.FlattenNestedParams,
		ops:     make(map[string][]*opPlan),
		modules: make(map[string]string),
		warned:  make(map[*resolve.Entry]bool),
	}
	if p.flatten != nil {
		r.flat = *p.flatten
	}
	for _, res := range s.Resources {
		if p.include != nil && !p.include(res.ID) {
			p.logger.Debug("resource excluded", "resource", res.ID)
			continue
		}
		r.resources = append(r.resources, res)
		r.index[res.ID] = res
	}
	r.res = resolve.NewResolver(p.caps, r.reg, p.strict)
	return r
}

// Resource implements classify.Resources over the included resources.
func (r *run) Resource(id string) *spec.Resource {
	return r.index[id]
}

// lookupResource finds a resource by id or by a model-style name.
func (r *run) lookupResource(name string) *spec.Resource {
	if name == "" {
		return nil
	}
	if res := r.index[name]; res != nil {
		return res
	}
	return r.index[naming.ToSnake(name)]
}

// diag records a discovery finding. Resource builders keep their own list.
func (r *run) diag(sev Severity, resource, artifact, format string, args ...any) {
	r.diags = append(r.diags, Diagnostic{
		Severity: sev,
		Resource: resource,
		Artifact: artifact,
		Message:  fmt.Sprintf(format, args...),
	})
}

func (r *run) blankFor(resource string) submodel.BlankIndex {
	if b, ok := r.resourceBlank[resource]; ok && b != "" {
		return b
	}
	return r.blankIndex
}

// build resolves every resource concurrently against the frozen registry and
// appends the shared artifacts.
func (r *run) build(ctx context.Context) ([]ir.Output, error) {
	type result struct {
		outputs []ir.Output
		diags   []Diagnostic
	}
	results := make([]result, len(r.resources))

	g, gctx := errgroup.WithContext(ctx)
	if r.concurrency > 0 {
		g.SetLimit(r.concurrency)
	}
	for i, res := range r.resources {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			b := r.newResourceBuilder(res)
			results[i] = result{outputs: b.outputs(), diags: b.diags}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("planner: %w", err)
	}

	var outputs []ir.Output
	var services []*ir.ServiceRef
	for i, res := range results {
		outputs = append(outputs, res.outputs...)
		r.diags = append(r.diags, res.diags...)
		for _, o := range res.outputs {
			if o.Artifact.Kind == ir.KindService {
				services = append(services, &ir.ServiceRef{
					Name:     o.Artifact.Name,
					Accessor: r.caps.FieldName(r.resources[i].ID),
					Resource: r.resources[i].ID,
					Module:   r.caps.Module(ir.KindService, o.Artifact.Name),
				})
			}
		}
	}

	if o := r.enumsOutput(); o != nil {
		outputs = append(outputs, *o)
	}
	if o := r.filtersOutput(); o != nil {
		outputs = append(outputs, *o)
	}
	outputs = append(outputs, r.clientOutput(services))
	return outputs, nil
}

// Module names of the shared artifacts.
const (
	enumsArtifact   = "enums"
	filtersArtifact = "filters"
)

func (r *run) output(kind ir.Kind, name string, a *ir.Artifact) ir.Output {
	return ir.Output{
		Dir:      r.caps.Dirs[kind],
		File:     r.caps.FileName(name),
		Artifact: a,
	}
}

func (r *run) enumsOutput() *ir.Output {
	var enums []*ir.Enum
	for _, e := range r.reg.Entries(resolve.KindEnum) {
		if e.Owner == "" {
			enums = append(enums, r.caps.Enum(e))
		}
	}
	if len(enums) == 0 {
		return nil
	}
	o := r.output(ir.KindEnums, enumsArtifact, &ir.Artifact{Kind: ir.KindEnums, Name: enumsArtifact, Enums: enums})
	return &o
}

func (r *run) filtersOutput() *ir.Output {
	fs := &ir.Filters{}
	for _, e := range r.reg.Entries(resolve.KindFilter, resolve.KindSort) {
		switch data := e.Data.(type) {
		case classify.Filter:
			fs.Filters = append(fs.Filters, filter.Build(e.Name, data, r.res))
		case classify.SortSpec:
			fs.Sorts = append(fs.Sorts, filter.BuildSort(e.Name, data, r.caps))
		}
	}
	if len(fs.Filters) == 0 && len(fs.Sorts) == 0 {
		return nil
	}
	a := &ir.Artifact{Kind: ir.KindFilters, Name: filtersArtifact, Filters: fs}
	o := r.output(ir.KindFilters, filtersArtifact, a)
	return &o
}

func (r *run) clientOutput(services []*ir.ServiceRef) ir.Output {
	name := r.clientName
	if name == "" {
		name = naming.ToPascal(r.spec.Title) + "Client"
	}
	c := &ir.Client{Name: r.caps.TypeName(name), Services: services, SubDomains: r.subDomain}

	imports := map[string]bool{}
	for _, s := range services {
		imports[s.Module] = true
	}
	if r.subDomain != nil {
		imports[r.caps.Module(ir.KindEnums, enumsArtifact)] = true
	}
	a := &ir.Artifact{Kind: ir.KindClient, Name: c.Name, Client: c, Imports: sortedKeys(imports)}
	return r.output(ir.KindClient, c.Name, a)
}

func sortedKeys(m map[string]bool) []string {
	if len(m) == 0 {
		return nil
	}
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
