// Package decision implements the utility-scoring action chooser for
// non-player combatants.
//
// Every legal (action type, target) pair is scored simultaneously: a
// profile's base bias for the action type plus the weighted sum of seven
// factor scores. The highest total wins, with ties broken by an ordering
// keyed to the combatant's elemental path. Scoring works entirely from a
// Perception snapshot, so identical snapshots always produce identical
// choices, and the factors can never mutate or depend on engine state.
package decision

import (
	"sort"

	"github.com/tgoodington/Ancient-Order-sub001/internal/game/combat"
	"github.com/tgoodington/Ancient-Order-sub001/internal/game/element"
)

// SelfView is the perceiving combatant's own condition.
type SelfView struct {
	ID              string
	Archetype       string
	StaminaFraction float64
	Segments        float64
	EnergyCap       float64
	Level           int
	Rank            float64
	Speed           float64
	Power           float64
	Path            element.Path
}

// EnergyFraction returns banked segments as a share of the level cap.
//
// Postcondition: result is in [0, 1]; 0 if EnergyCap is not positive.
func (v SelfView) EnergyFraction() float64 {
	if v.EnergyCap <= 0 {
		return 0
	}
	f := v.Segments / v.EnergyCap
	if f > 1 {
		return 1
	}
	return f
}

// UnitSummary describes one other combatant relative to the perceiver.
// Deltas are perceiver minus unit, so a positive SpeedDelta means the
// perceiver is faster and a positive RankDelta means they outrank.
type UnitSummary struct {
	ID              string
	StaminaFraction float64
	SpeedDelta      float64
	RankDelta       float64
	Power           float64
	Path            element.Path
}

// Perception is one combatant's precomputed view of the battlefield for a
// single decision. Ally and enemy summaries carry living combatants only,
// sorted weakest first. TeamStamina and EnemyStamina are mean stamina
// fractions over each living side, the perceiver included in its own.
type Perception struct {
	Self         SelfView
	Allies       []UnitSummary
	Enemies      []UnitSummary
	Round        int
	GroupReady   bool
	TeamStamina  float64
	EnemyStamina float64
}

// Perceive builds actor id's view of s. It is the only function in this
// package that reads engine state; every factor and the chooser work from
// the returned snapshot alone.
//
// Postcondition: returns false when the actor is missing or knocked out;
// on true, summaries contain no knocked-out combatants and exclude the
// perceiver from its own ally list.
func Perceive(s combat.State, id string) (Perception, bool) {
	self, side, ok := s.Find(id)
	if !ok || !self.Living() {
		return Perception{}, false
	}

	team := s.Living(side)
	foes := s.Living(side.Opponent())

	p := Perception{
		Self: SelfView{
			ID:              self.ID,
			Archetype:       self.Archetype,
			StaminaFraction: self.StaminaFraction(),
			Segments:        self.Energy.Segments,
			EnergyCap:       self.Energy.Cap(),
			Level:           self.Energy.Level,
			Rank:            self.Rank,
			Speed:           self.Speed,
			Power:           self.Power,
			Path:            self.Path,
		},
		Round:        s.Round,
		GroupReady:   groupReady(team),
		TeamStamina:  meanStamina(team),
		EnemyStamina: meanStamina(foes),
	}

	for _, ally := range team {
		if ally.ID == id {
			continue
		}
		p.Allies = append(p.Allies, summarize(self, ally))
	}
	for _, enemy := range foes {
		p.Enemies = append(p.Enemies, summarize(self, enemy))
	}
	sortWeakestFirst(p.Allies)
	sortWeakestFirst(p.Enemies)
	return p, true
}

func summarize(self, other combat.Combatant) UnitSummary {
	return UnitSummary{
		ID:              other.ID,
		StaminaFraction: other.StaminaFraction(),
		SpeedDelta:      self.Speed - other.Speed,
		RankDelta:       self.Rank - other.Rank,
		Power:           other.Power,
		Path:            other.Path,
	}
}

// sortWeakestFirst orders summaries by ascending stamina fraction, with
// id as the final key so equal fractions stay deterministic.
func sortWeakestFirst(units []UnitSummary) {
	sort.SliceStable(units, func(i, j int) bool {
		if units[i].StaminaFraction != units[j].StaminaFraction {
			return units[i].StaminaFraction < units[j].StaminaFraction
		}
		return units[i].ID < units[j].ID
	})
}

// groupReady mirrors the declaration rule for group strikes: every living
// member of the side must be at full energy.
func groupReady(team []combat.Combatant) bool {
	if len(team) == 0 {
		return false
	}
	for _, c := range team {
		if !c.Energy.Full() {
			return false
		}
	}
	return true
}

func meanStamina(team []combat.Combatant) float64 {
	if len(team) == 0 {
		return 0
	}
	var sum float64
	for _, c := range team {
		sum += c.StaminaFraction()
	}
	return sum / float64(len(team))
}
