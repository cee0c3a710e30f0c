package render

import (
	"regexp"
	"sort"
	"strings"

	"github.com/blimu-dev/resourcegen/pkg/ir"
	"github.com/blimu-dev/resourcegen/pkg/resolve"
)

var ident = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)

// Import is one module and the top-level names taken from it.
type Import struct {
	Module string
	Names  []string
}

// Symbols indexes the top-level names every planned artifact declares.
type Symbols struct {
	caps   *resolve.Capabilities
	module map[string]string
}

// NewSymbols indexes outputs.
func NewSymbols(outputs []ir.Output, caps *resolve.Capabilities) *Symbols {
	s := &Symbols{caps: caps, module: map[string]string{}}
	for _, o := range outputs {
		mod := ModuleOf(o, caps)
		for _, name := range Declared(o.Artifact) {
			if _, dup := s.module[name]; !dup {
				s.module[name] = mod
			}
		}
	}
	return s
}

// ModuleOf returns the extension-less path of an output, the identity imports use.
func ModuleOf(o ir.Output, caps *resolve.Capabilities) string {
	file := strings.TrimSuffix(o.File, caps.FileExt)
	if o.Dir == "" {
		return file
	}
	return o.Dir + "/" + file
}

// Module returns the module declaring name.
func (s *Symbols) Module(name string) (string, bool) {
	m, ok := s.module[name]
	return m, ok
}

// Imports returns the names o references from other modules, grouped by module and
// sorted.
func (s *Symbols) Imports(o ir.Output) []Import {
	self := ModuleOf(o, s.caps)
	byModule := map[string]map[string]bool{}
	for _, t := range Referenced(o.Artifact) {
		for _, id := range ident.FindAllString(t, -1) {
			mod, ok := s.module[id]
			if !ok || mod == self {
				continue
			}
			if byModule[mod] == nil {
				byModule[mod] = map[string]bool{}
			}
			byModule[mod][id] = true
		}
	}
	out := make([]Import, 0, len(byModule))
	for mod, names := range byModule {
		imp := Import{Module: mod}
		for n := range names {
			imp.Names = append(imp.Names, n)
		}
		sort.Strings(imp.Names)
		out = append(out, imp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Module < out[j].Module })
	return out
}

// Declared returns the top-level names an artifact defines.
func Declared(a *ir.Artifact) []string {
	var out []string
	var models func(ms []*ir.Model)
	models = func(ms []*ir.Model) {
		for _, m := range ms {
			if m == nil {
				continue
			}
			out = append(out, m.Name)
			models(m.SubModels)
		}
	}
	switch a.Kind {
	case ir.KindModel:
		models([]*ir.Model{a.Model})
	case ir.KindService:
		out = append(out, a.Service.Name)
		for _, p := range a.Service.Params {
			out = append(out, p.Name)
			for _, b := range p.Builders {
				out = append(out, b.Name)
			}
		}
		for _, r := range a.Service.Responses {
			out = append(out, r.Name)
			models(r.SubModels)
			models([]*ir.Model{r.Item})
		}
	case ir.KindEnums:
		for _, e := range a.Enums {
			out = append(out, e.Name)
		}
	case ir.KindFilters:
		for _, f := range a.Filters.Filters {
			out = append(out, f.Name)
		}
		for _, so := range a.Filters.Sorts {
			out = append(out, so.Name)
		}
	case ir.KindClient:
		out = append(out, a.Client.Name)
	}
	return out
}

// Referenced returns every type expression an artifact mentions.
func Referenced(a *ir.Artifact) []string {
	var out []string
	fields := func(fs []*ir.Field) {
		for _, f := range fs {
			out = append(out, f.Type)
		}
	}
	var models func(ms []*ir.Model)
	models = func(ms []*ir.Model) {
		for _, m := range ms {
			if m == nil {
				continue
			}
			fields(m.Fields)
			models(m.SubModels)
		}
	}
	setters := func(ss []*ir.Setter) {
		for _, s := range ss {
			out = append(out, s.Type, s.Target)
		}
	}
	switch a.Kind {
	case ir.KindModel:
		models([]*ir.Model{a.Model})
	case ir.KindService:
		out = append(out, a.Service.Model)
		for _, m := range a.Service.Methods {
			out = append(out, m.Params, m.Response)
			if m.Batch != nil {
				out = append(out, m.Batch.Params, m.Batch.Response)
			}
			for _, p := range m.PathParams {
				out = append(out, p.Type)
			}
			out = append(out, m.SubDomainType)
		}
		for _, p := range a.Service.Params {
			setters(p.Setters)
			for _, b := range p.Builders {
				setters(b.Setters)
			}
		}
		for _, r := range a.Service.Responses {
			fields(r.Fields)
			models(r.SubModels)
			models([]*ir.Model{r.Item})
		}
	case ir.KindFilters:
		for _, f := range a.Filters.Filters {
			out = append(out, f.ValueType)
		}
	case ir.KindClient:
		for _, s := range a.Client.Services {
			out = append(out, s.Name)
		}
		if a.Client.SubDomains != nil {
			out = append(out, a.Client.SubDomains.Name)
		}
	}
	return out
}
