package resolve

import (
	"fmt"
	"strconv"

	"github.com/blimu-dev/resourcegen/pkg/naming"
)

// ArtifactKind groups registry entries.
type ArtifactKind string

const (
	KindModel    ArtifactKind = "model"
	KindSubModel ArtifactKind = "submodel"
	KindEnum     ArtifactKind = "enum"
	KindFilter   ArtifactKind = "filter"
	KindSort     ArtifactKind = "sort"
	KindParams   ArtifactKind = "params"
	KindBuilder  ArtifactKind = "builder"
	KindResponse ArtifactKind = "response"
)

// Key is the stable identity of an artifact use site: the owning resource plus the
// scoped attribute path.
type Key struct {
	Kind     ArtifactKind
	Resource string
	Path     string
}

func (k Key) String() string {
	return fmt.Sprintf("%s:%s:%s", k.Kind, k.Resource, k.Path)
}

// Candidate is a request to name an artifact.
type Candidate struct {
	Name string
	// Owner is the artifact a nested enum lives under; empty for top-level artifacts.
	Owner string
	// Resource is the resource registering the artifact; collisions are qualified with it.
	Resource    string
	Fingerprint string
	// Data is carried on the entry for the planner (the shape or values behind it).
	Data any
}

// Entry is one named artifact.
type Entry struct {
	Kind        ArtifactKind
	Name        string
	Owner       string
	Resource    string
	Fingerprint string
	Data        any
	// Requested is the name asked for before collision qualification.
	Requested string
	Keys      []Key
}

// Qualified reports whether the entry was renamed to avoid a collision.
func (e *Entry) Qualified() bool {
	return e.Name != e.Requested
}

// Registry assigns collision-free names to artifacts. Registration happens in one
// sequential pass in a deterministic order, after which the registry is only read.
type Registry struct {
	entries []*Entry
	byKey   map[Key]*Entry
	byName  map[string]*Entry
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byKey:  make(map[Key]*Entry),
		byName: make(map[string]*Entry),
	}
}

// namespace: enums are unique per owner, every other kind shares the flat type namespace.
func nameKey(kind ArtifactKind, owner, name string) string {
	if kind == KindEnum {
		return "enum:" + owner + "." + name
	}
	return "type:" + name
}

// Register names the artifact at key. A candidate whose name is taken by an artifact
// with the same fingerprint shares that artifact; a different fingerprint is qualified
// with the registering resource's name, then numbered if still taken.
func (r *Registry) Register(key Key, c Candidate) *Entry {
	if e, ok := r.byKey[key]; ok {
		return e
	}

	names := []string{c.Name}
	if q := naming.Qualify(c.Resource, c.Name); q != c.Name {
		names = append(names, q)
	}
	base := names[len(names)-1]
	for attempt := 0; ; attempt++ {
		name := base + strconv.Itoa(attempt-len(names)+2)
		if attempt < len(names) {
			name = names[attempt]
		}
		existing, taken := r.byName[nameKey(key.Kind, c.Owner, name)]
		if !taken {
			e := &Entry{
				Kind:        key.Kind,
				Name:        name,
				Owner:       c.Owner,
				Resource:    c.Resource,
				Fingerprint: c.Fingerprint,
				Data:        c.Data,
				Requested:   c.Name,
			}
			r.entries = append(r.entries, e)
			r.byName[nameKey(key.Kind, c.Owner, name)] = e
			r.attach(key, e)
			return e
		}
		if existing.Kind == key.Kind && existing.Fingerprint == c.Fingerprint {
			r.attach(key, existing)
			return existing
		}
	}
}

// Alias points key at an existing entry.
func (r *Registry) Alias(key Key, e *Entry) {
	if _, ok := r.byKey[key]; ok || e == nil {
		return
	}
	r.attach(key, e)
}

func (r *Registry) attach(key Key, e *Entry) {
	r.byKey[key] = e
	e.Keys = append(e.Keys, key)
}

// Lookup returns the entry registered at key.
func (r *Registry) Lookup(key Key) (*Entry, bool) {
	e, ok := r.byKey[key]
	return e, ok
}

// Named returns the entry with the given final name.
func (r *Registry) Named(kind ArtifactKind, owner, name string) (*Entry, bool) {
	e, ok := r.byName[nameKey(kind, owner, name)]
	return e, ok
}

// Entries returns entries of the given kinds (all when none given) in registration order.
func (r *Registry) Entries(kinds ...ArtifactKind) []*Entry {
	var out []*Entry
	for _, e := range r.entries {
		if len(kinds) == 0 || containsKind(kinds, e.Kind) {
			out = append(out, e)
		}
	}
	return out
}

// Owned returns the enum entries nested under owner, in registration order.
func (r *Registry) Owned(owner string) []*Entry {
	var out []*Entry
	for _, e := range r.entries {
		if e.Kind == KindEnum && e.Owner == owner {
			out = append(out, e)
		}
	}
	return out
}

func containsKind(kinds []ArtifactKind, k ArtifactKind) bool {
	for _, kind := range kinds {
		if kind == k {
			return true
		}
	}
	return false
}
