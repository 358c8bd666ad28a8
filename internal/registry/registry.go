// Package registry holds the specialist agent catalog and the phase templates
// used for decomposition. The catalog is declarative YAML: a built-in default
// compiled into the binary, optionally replaced by a user file. A loaded
// Registry is immutable; reload swaps a whole new snapshot through Handle.
package registry

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/taskgate/taskgate/models"
	"github.com/taskgate/taskgate/types"
)

// PhaseSpec is one step of a phase template.
type PhaseSpec struct {
	Title string `yaml:"title"`
	// Share is the proportion of the parent estimate this phase consumes.
	// Shares within one template sum to 1.0.
	Share float64 `yaml:"share"`
	// Specialty terms select the agent for this phase: the best-ranked match
	// whose profile keywords overlap the specialty wins.
	Specialty []string `yaml:"specialty"`
	// Parallel marks this phase as running alongside the previous one: both
	// depend on the same upstream phase and have no edge between them.
	Parallel bool `yaml:"parallel,omitempty"`
}

// PhaseTemplate is a fixed, named phase sequence keyed to trigger vocabulary.
type PhaseTemplate struct {
	Key      string      `yaml:"key"`
	Triggers []string    `yaml:"triggers"`
	Phases   []PhaseSpec `yaml:"phases"`
}

// catalog is the YAML document shape.
type catalog struct {
	Agents    []models.AgentProfile `yaml:"agents"`
	Templates []PhaseTemplate       `yaml:"templates"`
}

// Registry is an immutable snapshot of the agent catalog.
type Registry struct {
	profiles  []models.AgentProfile
	byID      map[string]int
	keywordOf map[string]int // keyword -> number of profiles declaring it
	templates []PhaseTemplate
	source    string
}

// Load builds a Registry from the YAML catalog at path, or from the built-in
// catalog when path is empty. Any structural problem is a fatal
// ConfigurationError: a process must not start with a broken catalog.
func Load(fs afero.Fs, path string) (*Registry, error) {
	source := "builtin"
	data := defaultCatalog
	if path != "" {
		source = path
		b, err := afero.ReadFile(fs, path)
		if err != nil {
			return nil, types.NewConfigurationError(path, "read catalog: %v", err)
		}
		data = b
	}

	var cat catalog
	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	dec.KnownFields(true)
	if err := dec.Decode(&cat); err != nil {
		return nil, types.NewConfigurationError(source, "parse catalog: %v", err)
	}

	return build(cat, source)
}

func build(cat catalog, source string) (*Registry, error) {
	if len(cat.Agents) == 0 {
		return nil, types.NewConfigurationError(source, "catalog declares no agents")
	}

	r := &Registry{
		byID:      make(map[string]int, len(cat.Agents)),
		keywordOf: make(map[string]int),
		source:    source,
	}

	for _, p := range cat.Agents {
		// Keywords are stored normalized so matching against extracted
		// tokens is exact.
		for i, kw := range p.Keywords {
			p.Keywords[i] = strings.ToLower(strings.TrimSpace(kw))
		}
		if err := models.ValidateStruct(p); err != nil {
			return nil, types.NewConfigurationError(source, "agent %q: %v", p.ID, err)
		}
		if _, dup := r.byID[p.ID]; dup {
			return nil, types.NewConfigurationError(source, "duplicate agent id %q", p.ID)
		}
		seen := map[string]struct{}{}
		for _, kw := range p.Keywords {
			if kw == "" {
				return nil, types.NewConfigurationError(source, "agent %q: empty keyword", p.ID)
			}
			if _, ok := seen[kw]; ok {
				continue
			}
			seen[kw] = struct{}{}
			r.keywordOf[kw]++
		}
		r.byID[p.ID] = len(r.profiles)
		r.profiles = append(r.profiles, p)
	}

	// Stable profile order keeps scoring iteration deterministic.
	sort.Slice(r.profiles, func(i, j int) bool { return r.profiles[i].ID < r.profiles[j].ID })
	for i, p := range r.profiles {
		r.byID[p.ID] = i
	}

	keys := map[string]struct{}{}
	for _, t := range cat.Templates {
		if t.Key == "" {
			return nil, types.NewConfigurationError(source, "template with empty key")
		}
		if _, dup := keys[t.Key]; dup {
			return nil, types.NewConfigurationError(source, "duplicate template key %q", t.Key)
		}
		keys[t.Key] = struct{}{}
		if len(t.Triggers) == 0 {
			return nil, types.NewConfigurationError(source, "template %q: no triggers", t.Key)
		}
		if len(t.Phases) == 0 {
			return nil, types.NewConfigurationError(source, "template %q: no phases", t.Key)
		}
		if t.Phases[0].Parallel {
			return nil, types.NewConfigurationError(source, "template %q: first phase cannot be parallel", t.Key)
		}
		sum := 0.0
		for _, ph := range t.Phases {
			if ph.Title == "" {
				return nil, types.NewConfigurationError(source, "template %q: phase with empty title", t.Key)
			}
			if ph.Share <= 0 {
				return nil, types.NewConfigurationError(source, "template %q: phase %q share must be positive", t.Key, ph.Title)
			}
			sum += ph.Share
		}
		if math.Abs(sum-1.0) > 0.001 {
			return nil, types.NewConfigurationError(source, "template %q: phase shares sum to %.3f, want 1.0", t.Key, sum)
		}
		r.templates = append(r.templates, t)
	}

	return r, nil
}

// Profiles returns all agent profiles ordered by id.
func (r *Registry) Profiles() []models.AgentProfile {
	return r.profiles
}

// Find returns the profile for id.
func (r *Registry) Find(id string) (models.AgentProfile, bool) {
	i, ok := r.byID[id]
	if !ok {
		return models.AgentProfile{}, false
	}
	return r.profiles[i], true
}

// Specific reports whether the keyword appears in exactly one profile.
// Matching a specific keyword earns the specificity bonus: precise vocabulary
// ("kubernetes", "jwt") outranks terms half the catalog shares.
func (r *Registry) Specific(keyword string) bool {
	return r.keywordOf[keyword] == 1
}

// Templates returns the phase templates in declaration order.
func (r *Registry) Templates() []PhaseTemplate {
	return r.templates
}

// Len returns the number of registered agents.
func (r *Registry) Len() int {
	return len(r.profiles)
}

// Source identifies where the catalog was loaded from.
func (r *Registry) Source() string {
	return r.source
}

// Handle is a shared pointer to the current registry snapshot. Reload swaps
// the snapshot atomically so in-flight analyses always see one consistent
// catalog, never a half-updated one.
type Handle struct {
	ptr atomic.Pointer[Registry]
}

// NewHandle creates a handle holding the given snapshot.
func NewHandle(r *Registry) *Handle {
	h := &Handle{}
	h.ptr.Store(r)
	return h
}

// Snapshot returns the current registry. Callers hold the returned pointer
// for the duration of one analysis.
func (h *Handle) Snapshot() *Registry {
	return h.ptr.Load()
}

// Swap replaces the current snapshot.
func (h *Handle) Swap(r *Registry) {
	h.ptr.Store(r)
}

// String describes the handle's current snapshot.
func (h *Handle) String() string {
	r := h.Snapshot()
	return fmt.Sprintf("registry(%s, %d agents, %d templates)", r.source, len(r.profiles), len(r.templates))
}
