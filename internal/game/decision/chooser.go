package decision

import (
	"errors"
	"fmt"

	"github.com/tgoodington/Ancient-Order-sub001/internal/game/combat"
	"github.com/tgoodington/Ancient-Order-sub001/internal/game/element"
)

// ErrNoActor reports a decision request for a combatant who is missing or
// knocked out.
var ErrNoActor = errors.New("no living combatant to decide for")

// FactorScore is one factor's contribution to a candidate's total.
type FactorScore struct {
	Name   string
	Raw    float64
	Weight float64
	Value  float64
}

// Candidate is one scored (action, target) pair.
type Candidate struct {
	Action  combat.Action
	Bias    float64
	Factors []FactorScore
	Total   float64
}

// Explanation records every candidate scored during one decision so a
// choice can be audited and replayed after the fact.
type Explanation struct {
	Actor      string
	Archetype  string
	Round      int
	Candidates []Candidate
	Chosen     Candidate
}

// Chooser scores every legal (action, target) candidate for a combatant
// and picks the highest. Group strikes can be withheld from the
// candidate set by configuration.
//
// Invariant: registry must not be nil.
type Chooser struct {
	registry    *Registry
	enableGroup bool
}

// NewChooser constructs a Chooser.
//
// Precondition: registry must not be nil.
func NewChooser(registry *Registry, enableGroup bool) *Chooser {
	if registry == nil {
		panic("decision.NewChooser: registry must not be nil")
	}
	return &Chooser{registry: registry, enableGroup: enableGroup}
}

// Choose picks the best-scoring legal action for actor id.
//
// Postcondition: the returned action passes State.Declare against the
// same state; the explanation lists every candidate in evaluation order.
func (c *Chooser) Choose(s combat.State, id string) (combat.Action, Explanation, error) {
	p, ok := Perceive(s, id)
	if !ok {
		return combat.Action{}, Explanation{}, fmt.Errorf("decision: choose for %q: %w", id, ErrNoActor)
	}
	action, expl := c.ChooseFrom(p)
	return action, expl, nil
}

// ChooseFrom scores candidates against an already-built perception.
// Evade is always a candidate, so a choice always exists.
func (c *Chooser) ChooseFrom(p Perception) (combat.Action, Explanation) {
	profile := c.registry.Resolve(p.Self.Archetype)
	pref := preferenceOrder(tiePath(p, profile))

	expl := Explanation{
		Actor:     p.Self.ID,
		Archetype: profile.Archetype,
		Round:     p.Round,
	}

	best := -1
	for _, action := range c.enumerate(p) {
		cand := scoreCandidate(profile, p, action)
		expl.Candidates = append(expl.Candidates, cand)
		if best < 0 || better(cand, expl.Candidates[best], pref) {
			best = len(expl.Candidates) - 1
		}
	}
	expl.Chosen = expl.Candidates[best]
	return expl.Chosen.Action, expl
}

// enumerate lists every legal candidate in a fixed order: offensive
// actions against each enemy weakest first, guards over each ally
// weakest first, then the always-legal evade.
func (c *Chooser) enumerate(p Perception) []combat.Action {
	var out []combat.Action
	for _, enemy := range p.Enemies {
		out = append(out, combat.Action{Actor: p.Self.ID, Type: combat.ActionAttack, Target: enemy.ID})
	}
	if spend := specialSpend(p.Self.Segments); spend > 0 {
		for _, enemy := range p.Enemies {
			out = append(out, combat.Action{Actor: p.Self.ID, Type: combat.ActionSpecial, Target: enemy.ID, Segments: spend})
		}
	}
	if c.enableGroup && p.GroupReady {
		for _, enemy := range p.Enemies {
			out = append(out, combat.Action{Actor: p.Self.ID, Type: combat.ActionGroup, Target: enemy.ID})
		}
	}
	for _, ally := range p.Allies {
		out = append(out, combat.Action{Actor: p.Self.ID, Type: combat.ActionDefend, Target: ally.ID})
	}
	out = append(out, combat.Action{Actor: p.Self.ID, Type: combat.ActionEvade})
	return out
}

// specialSpend converts banked segments to a declarable spend: whole
// segments only, clamped to the legal 1-5 range.
//
// Postcondition: returns 0 when less than one full segment is banked.
func specialSpend(segments float64) int {
	n := int(segments)
	if n < 1 {
		return 0
	}
	if n > 5 {
		return 5
	}
	return n
}

// scoreCandidate totals one candidate: the profile's base bias for the
// action type plus every factor's weighted contribution.
func scoreCandidate(profile *Profile, p Perception, action combat.Action) Candidate {
	cand := Candidate{
		Action:  action,
		Bias:    profile.BiasFor(action.Type),
		Factors: make([]FactorScore, 0, len(factorTable)),
	}
	cand.Total = cand.Bias
	target := targetSummary(p, action)
	for _, f := range factorTable {
		raw := f.score(action.Type, p, target)
		weight := profile.WeightFor(f.name)
		fs := FactorScore{Name: f.name, Raw: raw, Weight: weight, Value: raw * weight}
		cand.Factors = append(cand.Factors, fs)
		cand.Total += fs.Value
	}
	return cand
}

// targetSummary finds the perception entry for the action's target, or
// nil for untargeted actions.
func targetSummary(p Perception, action combat.Action) *UnitSummary {
	if action.Target == "" {
		return nil
	}
	for i := range p.Enemies {
		if p.Enemies[i].ID == action.Target {
			return &p.Enemies[i]
		}
	}
	for i := range p.Allies {
		if p.Allies[i].ID == action.Target {
			return &p.Allies[i]
		}
	}
	return nil
}

// better reports whether cand should replace the current best. A higher
// total wins; exact ties fall to the path preference order; a candidate
// tying on both keeps the earlier entry, which the weakest-first
// enumeration turns into "weakest target wins".
func better(cand, best Candidate, pref [5]combat.ActionType) bool {
	if cand.Total != best.Total {
		return cand.Total > best.Total
	}
	return preferenceRank(pref, cand.Action.Type) < preferenceRank(pref, best.Action.Type)
}

// preferenceOrder returns the tie-break ordering for a path. Each path
// leans on the habits its style rewards: Stone holds the line, Gale
// slips away, Flow trades and counters, Ember and Thunder press, Void
// finishes.
func preferenceOrder(path element.Path) [5]combat.ActionType {
	switch path {
	case element.PathStone:
		return [5]combat.ActionType{combat.ActionDefend, combat.ActionAttack, combat.ActionGroup, combat.ActionSpecial, combat.ActionEvade}
	case element.PathGale:
		return [5]combat.ActionType{combat.ActionEvade, combat.ActionAttack, combat.ActionSpecial, combat.ActionDefend, combat.ActionGroup}
	case element.PathFlow:
		return [5]combat.ActionType{combat.ActionAttack, combat.ActionDefend, combat.ActionSpecial, combat.ActionEvade, combat.ActionGroup}
	case element.PathEmber:
		return [5]combat.ActionType{combat.ActionAttack, combat.ActionSpecial, combat.ActionGroup, combat.ActionDefend, combat.ActionEvade}
	case element.PathThunder:
		return [5]combat.ActionType{combat.ActionSpecial, combat.ActionAttack, combat.ActionGroup, combat.ActionEvade, combat.ActionDefend}
	case element.PathVoid:
		return [5]combat.ActionType{combat.ActionSpecial, combat.ActionGroup, combat.ActionAttack, combat.ActionEvade, combat.ActionDefend}
	}
	return [5]combat.ActionType{combat.ActionAttack, combat.ActionDefend, combat.ActionEvade, combat.ActionSpecial, combat.ActionGroup}
}

func preferenceRank(pref [5]combat.ActionType, a combat.ActionType) int {
	for i, t := range pref {
		if t == a {
			return i
		}
	}
	return len(pref)
}

// tiePath picks the tie-break key: the combatant's own path, or the
// profile's signature path when the combatant has none.
func tiePath(p Perception, profile *Profile) element.Path {
	if p.Self.Path.Valid() {
		return p.Self.Path
	}
	return profile.SignaturePath()
}
