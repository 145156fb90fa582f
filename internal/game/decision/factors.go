package decision

import (
	"github.com/tgoodington/Ancient-Order-sub001/internal/game/combat"
	"github.com/tgoodington/Ancient-Order-sub001/internal/game/formula"
)

// Factor scores one candidate action type for the acting combatant.
// target is the perception summary of the candidate's target, nil for
// untargeted candidates. Scores are in [0, 1]; a factor with nothing to
// say about an action type returns 0.
type Factor func(action combat.ActionType, p Perception, target *UnitSummary) float64

// Factor names as they appear in profile weight maps.
const (
	FactorSelfPreservation  = "self_preservation"
	FactorAllyProtection    = "ally_protection"
	FactorTargetOpportunism = "target_opportunism"
	FactorResourceTiming    = "resource_timing"
	FactorSpeedAdvantage    = "speed_advantage"
	FactorRoundPhase        = "round_phase"
	FactorTeamBalance       = "team_balance"
)

type namedFactor struct {
	name  string
	score Factor
}

// factorTable fixes the evaluation order so score breakdowns list their
// contributions identically on every run.
var factorTable = []namedFactor{
	{FactorSelfPreservation, SelfPreservation},
	{FactorAllyProtection, AllyProtection},
	{FactorTargetOpportunism, TargetOpportunism},
	{FactorResourceTiming, ResourceTiming},
	{FactorSpeedAdvantage, SpeedAdvantage},
	{FactorRoundPhase, RoundPhase},
	{FactorTeamBalance, TeamBalance},
}

// FactorNames returns the valid profile weight keys in evaluation order.
func FactorNames() []string {
	names := make([]string, len(factorTable))
	for i, f := range factorTable {
		names[i] = f.name
	}
	return names
}

// peril maps own stamina fraction to urgency in [0, 1]. The curve is
// piecewise linear with brackets at 0.25 and 0.50: critical below a
// quarter, guarded below half, easing to zero at full stamina.
func peril(staminaFraction float64) float64 {
	f := clamp01(staminaFraction)
	switch {
	case f < 0.25:
		// 1.0 at zero stamina down to 0.75 at the bracket edge.
		return 1.0 - f
	case f < 0.50:
		// 0.75 down to 0.40 across the middle bracket.
		return 0.75 - (f-0.25)*1.4
	default:
		// 0.40 easing to zero at full stamina.
		return 0.40 * (1.0 - f) / 0.50
	}
}

// SelfPreservation favors evading as own stamina drops. Every other
// action type scores by how safe the combatant currently is, so a
// battered fighter stops volunteering for guard duty and melee.
func SelfPreservation(action combat.ActionType, p Perception, _ *UnitSummary) float64 {
	danger := peril(p.Self.StaminaFraction)
	if action == combat.ActionEvade {
		return danger
	}
	return 1 - danger
}

// AllyProtection favors guarding when the weakest ally is in trouble.
func AllyProtection(action combat.ActionType, p Perception, _ *UnitSummary) float64 {
	if action != combat.ActionDefend || len(p.Allies) == 0 {
		return 0
	}
	// Allies are sorted weakest first.
	return 1 - p.Allies[0].StaminaFraction
}

// TargetOpportunism favors striking the most wounded target.
func TargetOpportunism(action combat.ActionType, _ Perception, target *UnitSummary) float64 {
	if target == nil || !offensive(action) {
		return 0
	}
	return 1 - target.StaminaFraction
}

// ResourceTiming favors spending banked energy on specials and group
// strikes when charged, and plain attacks while the bank refills.
func ResourceTiming(action combat.ActionType, p Perception, _ *UnitSummary) float64 {
	charge := p.Self.EnergyFraction()
	switch action {
	case combat.ActionSpecial, combat.ActionGroup:
		return charge
	case combat.ActionAttack:
		return 1 - charge
	}
	return 0
}

// SpeedAdvantage favors attacking targets the combatant can blindside.
// The score is the blindside threshold itself, capped at 1, so a target
// the combatant doubles in speed scores a guaranteed strip.
func SpeedAdvantage(action combat.ActionType, p Perception, target *UnitSummary) float64 {
	if target == nil {
		return 0
	}
	// Group strikes never roll Blindside, so speed buys them nothing.
	if action != combat.ActionAttack && action != combat.ActionSpecial {
		return 0
	}
	threshold, ok := formula.BlindsideThreshold(p.Self.Speed, p.Self.Speed-target.SpeedDelta)
	if !ok {
		return 0
	}
	return clamp01(threshold)
}

// phase buckets for the round-phase factor.
type phase int

const (
	phaseEarly phase = iota // rounds 1-2: probing
	phaseMid                // rounds 3-5: committed
	phaseLate               // rounds 6+: decisive
)

func phaseOf(round int) phase {
	switch {
	case round <= 2:
		return phaseEarly
	case round <= 5:
		return phaseMid
	}
	return phaseLate
}

// posture scores each action type per combat phase. Early rounds favor
// probing attacks and caution while energy banks fill; late rounds push
// charged finishers and drop passive play.
var posture = map[phase]map[combat.ActionType]float64{
	phaseEarly: {
		combat.ActionAttack:  0.6,
		combat.ActionSpecial: 0.2,
		combat.ActionGroup:   0.0,
		combat.ActionDefend:  0.5,
		combat.ActionEvade:   0.5,
	},
	phaseMid: {
		combat.ActionAttack:  0.5,
		combat.ActionSpecial: 0.6,
		combat.ActionGroup:   0.5,
		combat.ActionDefend:  0.4,
		combat.ActionEvade:   0.3,
	},
	phaseLate: {
		combat.ActionAttack:  0.4,
		combat.ActionSpecial: 0.9,
		combat.ActionGroup:   1.0,
		combat.ActionDefend:  0.2,
		combat.ActionEvade:   0.1,
	},
}

// RoundPhase shifts posture as the combat ages.
func RoundPhase(action combat.ActionType, p Perception, _ *UnitSummary) float64 {
	return posture[phaseOf(p.Round)][action]
}

// TeamBalance presses the advantage when the combatant's side is
// healthier on average, and turns defensive when it is losing. 0.5 is
// the even-footing score for every action type.
func TeamBalance(action combat.ActionType, p Perception, _ *UnitSummary) float64 {
	edge := p.TeamStamina - p.EnemyStamina
	if offensive(action) {
		return clamp01((1 + edge) / 2)
	}
	return clamp01((1 - edge) / 2)
}

// offensive reports whether the action type strikes an enemy.
func offensive(action combat.ActionType) bool {
	switch action {
	case combat.ActionAttack, combat.ActionSpecial, combat.ActionGroup:
		return true
	}
	return false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
