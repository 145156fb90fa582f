// Package encounter loads battle setups from YAML files and instantiates
// the combat rosters they describe. The engine itself never reads files;
// this package is the load-time boundary in front of it.
package encounter

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/tgoodington/Ancient-Order-sub001/internal/game/combat"
	"github.com/tgoodington/Ancient-Order-sub001/internal/game/element"
	"github.com/tgoodington/Ancient-Order-sub001/internal/game/formula"
)

// rosterMin and rosterMax bound each side's size.
const (
	rosterMin = 1
	rosterMax = 3
)

// SkillSpec carries one reaction skill's rates as written in an encounter
// file. All three rates are fractions in [0, 1].
type SkillSpec struct {
	Success           float64 `yaml:"success"`
	SuccessMitigation float64 `yaml:"success_mitigation"`
	FailureMitigation float64 `yaml:"failure_mitigation"`
}

// FighterSpec describes one roster member. Stamina is the maximum; every
// fighter starts a battle at full stamina. An empty ID is replaced with a
// generated one at build time.
type FighterSpec struct {
	ID        string    `yaml:"id"`
	Name      string    `yaml:"name"`
	Archetype string    `yaml:"archetype"`
	Rank      float64   `yaml:"rank"`
	Stamina   float64   `yaml:"stamina"`
	Power     float64   `yaml:"power"`
	Speed     float64   `yaml:"speed"`
	Path      string    `yaml:"path"`
	Block     SkillSpec `yaml:"block"`
	Dodge     SkillSpec `yaml:"dodge"`
	Parry     SkillSpec `yaml:"parry"`
	Ascension int       `yaml:"ascension"`
}

// Adjustment is the pre-combat stat tweak applied once to the player
// roster, standing in for the external team-synergy calculator's output.
type Adjustment struct {
	Stat       string  `yaml:"stat"` // "power" or "speed"
	Multiplier float64 `yaml:"multiplier"`
}

// Encounter is a full battle setup.
type Encounter struct {
	ID         string        `yaml:"id"`
	Name       string        `yaml:"name"`
	Players    []FighterSpec `yaml:"players"`
	Enemies    []FighterSpec `yaml:"enemies"`
	Adjustment *Adjustment   `yaml:"adjustment"`
}

// Validate checks all required fields and value ranges.
//
// Postcondition: nil return guarantees non-empty id and name, both rosters
// sized 1-3, every fighter with positive rank/stamina/power/speed, rates in
// [0, 1], a parseable path, ascension within the level table, no duplicate
// explicit ids, and a well-formed adjustment if one is present.
func (e *Encounter) Validate() error {
	if e.ID == "" {
		return errors.New("encounter: id must not be empty")
	}
	if e.Name == "" {
		return fmt.Errorf("encounter %q: name must not be empty", e.ID)
	}
	if len(e.Players) < rosterMin || len(e.Players) > rosterMax {
		return fmt.Errorf("encounter %q: players roster must have %d to %d members, got %d", e.ID, rosterMin, rosterMax, len(e.Players))
	}
	if len(e.Enemies) < rosterMin || len(e.Enemies) > rosterMax {
		return fmt.Errorf("encounter %q: enemies roster must have %d to %d members, got %d", e.ID, rosterMin, rosterMax, len(e.Enemies))
	}
	ids := make(map[string]struct{}, len(e.Players)+len(e.Enemies))
	for i := range e.Players {
		if err := e.Players[i].validate(); err != nil {
			return fmt.Errorf("encounter %q: players[%d]: %w", e.ID, i, err)
		}
		if err := recordID(ids, e.Players[i].ID); err != nil {
			return fmt.Errorf("encounter %q: %w", e.ID, err)
		}
	}
	for i := range e.Enemies {
		if err := e.Enemies[i].validate(); err != nil {
			return fmt.Errorf("encounter %q: enemies[%d]: %w", e.ID, i, err)
		}
		if err := recordID(ids, e.Enemies[i].ID); err != nil {
			return fmt.Errorf("encounter %q: %w", e.ID, err)
		}
	}
	if e.Adjustment != nil {
		if err := e.Adjustment.validate(); err != nil {
			return fmt.Errorf("encounter %q: %w", e.ID, err)
		}
	}
	return nil
}

func recordID(ids map[string]struct{}, id string) error {
	if id == "" {
		return nil
	}
	if _, dup := ids[id]; dup {
		return fmt.Errorf("duplicate fighter id %q", id)
	}
	ids[id] = struct{}{}
	return nil
}

func (f *FighterSpec) validate() error {
	if f.Name == "" {
		return errors.New("name must not be empty")
	}
	if f.Rank <= 0 {
		return fmt.Errorf("fighter %q: rank must be positive, got %v", f.Name, f.Rank)
	}
	if f.Stamina <= 0 {
		return fmt.Errorf("fighter %q: stamina must be positive, got %v", f.Name, f.Stamina)
	}
	if f.Power <= 0 {
		return fmt.Errorf("fighter %q: power must be positive, got %v", f.Name, f.Power)
	}
	if f.Speed <= 0 {
		return fmt.Errorf("fighter %q: speed must be positive, got %v", f.Name, f.Speed)
	}
	if _, err := element.ParsePath(f.Path); err != nil {
		return fmt.Errorf("fighter %q: %w", f.Name, err)
	}
	if err := f.Block.validate("block"); err != nil {
		return fmt.Errorf("fighter %q: %w", f.Name, err)
	}
	if err := f.Dodge.validate("dodge"); err != nil {
		return fmt.Errorf("fighter %q: %w", f.Name, err)
	}
	if err := f.Parry.validate("parry"); err != nil {
		return fmt.Errorf("fighter %q: %w", f.Name, err)
	}
	if f.Ascension < 0 || f.Ascension > formula.MaxAscension {
		return fmt.Errorf("fighter %q: ascension must be 0 to %d, got %d", f.Name, formula.MaxAscension, f.Ascension)
	}
	return nil
}

func (s SkillSpec) validate(reaction string) error {
	for _, rate := range []struct {
		name  string
		value float64
	}{
		{"success", s.Success},
		{"success_mitigation", s.SuccessMitigation},
		{"failure_mitigation", s.FailureMitigation},
	} {
		if rate.value < 0 || rate.value > 1 {
			return fmt.Errorf("%s %s rate must be in [0, 1], got %v", reaction, rate.name, rate.value)
		}
	}
	return nil
}

func (a *Adjustment) validate() error {
	if a.Stat != "power" && a.Stat != "speed" {
		return fmt.Errorf("adjustment stat must be \"power\" or \"speed\", got %q", a.Stat)
	}
	if a.Multiplier <= 0 {
		return fmt.Errorf("adjustment multiplier must be positive, got %v", a.Multiplier)
	}
	return nil
}

// Build validates the encounter and instantiates both combat rosters.
// Fighters without an explicit id get a generated one. The adjustment,
// when present, is applied to the player roster exactly once.
func (e *Encounter) Build() (players, enemies []combat.Combatant, err error) {
	if err := e.Validate(); err != nil {
		return nil, nil, err
	}
	players = make([]combat.Combatant, len(e.Players))
	for i := range e.Players {
		players[i] = e.Players[i].build()
		if e.Adjustment != nil {
			players[i] = e.Adjustment.apply(players[i])
		}
	}
	enemies = make([]combat.Combatant, len(e.Enemies))
	for i := range e.Enemies {
		enemies[i] = e.Enemies[i].build()
	}
	return players, enemies, nil
}

func (f *FighterSpec) build() combat.Combatant {
	id := f.ID
	if id == "" {
		id = uuid.New().String()
	}
	// Validate guarantees the path parses.
	path, _ := element.ParsePath(f.Path)
	return combat.Combatant{
		ID:         id,
		Name:       f.Name,
		Archetype:  f.Archetype,
		Rank:       f.Rank,
		Stamina:    f.Stamina,
		MaxStamina: f.Stamina,
		Power:      f.Power,
		Speed:      f.Speed,
		Path:       path,
		Block:      combat.Skill(f.Block),
		Dodge:      combat.Skill(f.Dodge),
		Parry:      combat.Skill(f.Parry),
		Energy:     element.NewProgress(f.Ascension),
	}
}

func (a *Adjustment) apply(c combat.Combatant) combat.Combatant {
	switch a.Stat {
	case "power":
		c.Power *= a.Multiplier
	case "speed":
		c.Speed *= a.Multiplier
	}
	return c
}

// yamlEncounterFile is the top-level YAML structure for encounter files.
type yamlEncounterFile struct {
	Encounter *Encounter `yaml:"encounter"`
}

// LoadFromBytes parses and validates an encounter from YAML bytes.
// Unknown fields are rejected so a typoed rate cannot silently default to
// zero.
func LoadFromBytes(data []byte) (*Encounter, error) {
	var f yamlEncounterFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parsing encounter YAML: %w", err)
	}
	if f.Encounter == nil {
		return nil, errors.New("encounter YAML missing top-level 'encounter' key")
	}
	if err := f.Encounter.Validate(); err != nil {
		return nil, err
	}
	return f.Encounter, nil
}

// LoadFile reads and validates a single encounter file.
func LoadFile(path string) (*Encounter, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading encounter file %s: %w", path, err)
	}
	enc, err := LoadFromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return enc, nil
}

// LoadDir loads all *.yaml and *.yml files in dir as encounters.
//
// Postcondition: returns all validated encounters or the first error;
// a directory with no encounter files is an error.
func LoadDir(dir string) ([]*Encounter, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading encounter directory %s: %w", dir, err)
	}
	var encounters []*Encounter
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}
		enc, err := LoadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		encounters = append(encounters, enc)
	}
	if len(encounters) == 0 {
		return nil, fmt.Errorf("no encounter files found in %s", dir)
	}
	return encounters, nil
}
