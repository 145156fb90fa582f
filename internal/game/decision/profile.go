package decision

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tgoodington/Ancient-Order-sub001/internal/game/combat"
	"github.com/tgoodington/Ancient-Order-sub001/internal/game/element"
)

// Profile is an archetype's decision personality: a base bias per action
// type, a weight per scoring factor, and a signature elemental path used
// to break ties when the combatant's own path is unset. Profiles are
// pure data and never mutated after validation.
//
// Bias keys are action type names ("attack", "defend", "evade",
// "special", "group"); weight keys are the Factor* names. Unlisted keys
// contribute zero.
type Profile struct {
	Archetype string             `yaml:"archetype"`
	Path      string             `yaml:"path"`
	Bias      map[string]float64 `yaml:"bias"`
	Weights   map[string]float64 `yaml:"weights"`
}

// Validate checks all required fields and key references.
//
// Postcondition: nil return guarantees a non-empty archetype, a parseable
// path, bias keys drawn from the declarable action types, and weight
// keys drawn from the scoring factor names.
func (p *Profile) Validate() error {
	if p.Archetype == "" {
		return errors.New("decision.Profile: archetype must not be empty")
	}
	if _, err := element.ParsePath(p.Path); err != nil {
		return fmt.Errorf("decision.Profile %q: %w", p.Archetype, err)
	}
	actions := make(map[string]struct{}, len(combat.ActionTypes()))
	for _, a := range combat.ActionTypes() {
		actions[a.String()] = struct{}{}
	}
	for key := range p.Bias {
		if _, ok := actions[key]; !ok {
			return fmt.Errorf("decision.Profile %q: bias key %q is not an action type", p.Archetype, key)
		}
	}
	factors := make(map[string]struct{}, len(factorTable))
	for _, f := range factorTable {
		factors[f.name] = struct{}{}
	}
	for key := range p.Weights {
		if _, ok := factors[key]; !ok {
			return fmt.Errorf("decision.Profile %q: weight key %q is not a scoring factor", p.Archetype, key)
		}
	}
	return nil
}

// SignaturePath returns the parsed tie-break path.
//
// Precondition: Validate passed; an unparseable path returns PathUnknown.
func (p *Profile) SignaturePath() element.Path {
	path, err := element.ParsePath(p.Path)
	if err != nil {
		return element.PathUnknown
	}
	return path
}

// BiasFor returns the base bias for an action type; unlisted types score
// zero.
func (p *Profile) BiasFor(a combat.ActionType) float64 {
	return p.Bias[a.String()]
}

// WeightFor returns the weight for the named factor; unlisted factors
// weigh zero.
func (p *Profile) WeightFor(name string) float64 {
	return p.Weights[name]
}

// DefaultArchetype is the registry fallback for unknown archetype tags.
const DefaultArchetype = "vanguard"

// Builtins returns the three built-in archetype profiles. The vanguard
// presses wounded targets, the warden shields the weakest ally, and the
// mystic banks energy for charged strikes.
func Builtins() []*Profile {
	return []*Profile{
		{
			Archetype: "vanguard",
			Path:      "ember",
			Bias: map[string]float64{
				"attack":  0.30,
				"special": 0.25,
				"group":   0.15,
			},
			Weights: map[string]float64{
				FactorSelfPreservation:  0.35,
				FactorAllyProtection:    0.10,
				FactorTargetOpportunism: 0.90,
				FactorResourceTiming:    0.60,
				FactorSpeedAdvantage:    0.70,
				FactorRoundPhase:        0.50,
				FactorTeamBalance:       0.40,
			},
		},
		{
			Archetype: "warden",
			Path:      "stone",
			Bias: map[string]float64{
				"attack": 0.15,
				"defend": 0.30,
				"evade":  0.10,
				"group":  0.05,
			},
			Weights: map[string]float64{
				FactorSelfPreservation:  0.70,
				FactorAllyProtection:    1.00,
				FactorTargetOpportunism: 0.30,
				FactorResourceTiming:    0.30,
				FactorSpeedAdvantage:    0.20,
				FactorRoundPhase:        0.40,
				FactorTeamBalance:       0.80,
			},
		},
		{
			Archetype: "mystic",
			Path:      "void",
			Bias: map[string]float64{
				"attack":  0.10,
				"special": 0.30,
				"group":   0.10,
				"defend":  0.05,
				"evade":   0.15,
			},
			Weights: map[string]float64{
				FactorSelfPreservation:  0.55,
				FactorAllyProtection:    0.25,
				FactorTargetOpportunism: 1.00,
				FactorResourceTiming:    0.90,
				FactorSpeedAdvantage:    0.85,
				FactorRoundPhase:        0.70,
				FactorTeamBalance:       0.30,
			},
		},
	}
}

// Registry resolves archetype tags to profiles. File-loaded profiles
// shadow the built-ins; unknown tags fall back to DefaultArchetype.
//
// Invariant: each custom archetype tag is registered at most once.
type Registry struct {
	builtin map[string]*Profile
	custom  map[string]*Profile
}

// NewRegistry returns a Registry preloaded with the built-in profiles.
func NewRegistry() *Registry {
	r := &Registry{
		builtin: make(map[string]*Profile),
		custom:  make(map[string]*Profile),
	}
	for _, p := range Builtins() {
		r.builtin[p.Archetype] = p
	}
	return r
}

// Register validates and stores a custom profile.
//
// Postcondition: returns error on an invalid profile or a tag collision
// with a previously registered custom profile; shadowing a built-in is
// allowed.
func (r *Registry) Register(p *Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if _, exists := r.custom[p.Archetype]; exists {
		return fmt.Errorf("decision.Registry: archetype %q already registered", p.Archetype)
	}
	r.custom[p.Archetype] = p
	return nil
}

// Resolve returns the profile for tag.
//
// Postcondition: never nil; unknown tags resolve to DefaultArchetype.
func (r *Registry) Resolve(tag string) *Profile {
	if p, ok := r.custom[tag]; ok {
		return p
	}
	if p, ok := r.builtin[tag]; ok {
		return p
	}
	if p, ok := r.custom[DefaultArchetype]; ok {
		return p
	}
	return r.builtin[DefaultArchetype]
}

// yamlProfileFile wraps the YAML top-level key.
type yamlProfileFile struct {
	Profile *Profile `yaml:"profile"`
}

// LoadProfiles reads all *.yaml files from dir, validates them, and
// registers them on r.
//
// Precondition: dir must be a readable directory.
// Postcondition: returns error if any file fails to parse or validate,
// or collides with an already-registered custom profile; a dir with no
// .yaml files leaves r unchanged.
func (r *Registry) LoadProfiles(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("decision.LoadProfiles: reading %q: %w", dir, err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return fmt.Errorf("decision.LoadProfiles: reading %s: %w", e.Name(), err)
		}
		var f yamlProfileFile
		if err := yaml.Unmarshal(data, &f); err != nil {
			return fmt.Errorf("decision.LoadProfiles: parsing %s: %w", e.Name(), err)
		}
		if f.Profile == nil {
			return fmt.Errorf("decision.LoadProfiles: %s missing top-level 'profile' key", e.Name())
		}
		if err := r.Register(f.Profile); err != nil {
			return err
		}
	}
	return nil
}
