// Package formula implements the pure combat math for the Ancient Order
// engine: dominance-check thresholds, damage and mitigation, energy gain,
// and ascension lookups. Functions here hold no state and never touch the
// combat pipeline; callers are responsible for the documented eligibility
// preconditions.
package formula

// RollMax is the upper bound of an injected roll. Rolls are uniform
// integers in [0, RollMax].
const RollMax = 20

const (
	// RankGapMin is the minimum attacker-over-target rank advantage for a
	// Rank KO check to be eligible.
	RankGapMin = 0.5

	// rankKOPerPoint converts a rank gap into a Rank KO threshold.
	rankKOPerPoint = 3.0 / 10.0

	// SpecialBonusPerSegment is the damage bonus granted by each energy
	// segment spent on a special attack.
	SpecialBonusPerSegment = 0.10

	// SpecialSegmentsMin and SpecialSegmentsMax bound the legal spend on a
	// single special attack.
	SpecialSegmentsMin = 1
	SpecialSegmentsMax = 5

	// EvadeRegenFraction is the share of max stamina restored by an evade.
	EvadeRegenFraction = 0.30
)

// RankKOThreshold computes the Rank KO threshold for an attacker/target
// rank pair.
// Precondition: none.
// Postcondition: Returns the threshold and true when the rank gap is at
// least RankGapMin; returns (0, false) otherwise.
func RankKOThreshold(attackerRank, targetRank float64) (float64, bool) {
	gap := attackerRank - targetRank
	if gap < RankGapMin {
		return 0, false
	}
	return gap * rankKOPerPoint, true
}

// BlindsideThreshold computes the Blindside threshold for an
// attacker/target speed pair.
// Precondition: targetSpeed > 0 whenever the attacker is faster; roster
// validation guarantees positive speeds.
// Postcondition: Returns the threshold and true when the attacker is
// strictly faster; returns (0, false) otherwise.
func BlindsideThreshold(attackerSpeed, targetSpeed float64) (float64, bool) {
	if attackerSpeed <= targetSpeed || targetSpeed <= 0 {
		return 0, false
	}
	return (attackerSpeed - targetSpeed) / targetSpeed, true
}

// CrushingThreshold computes the Crushing Blow threshold for an action
// power against a target power. Block eligibility is the caller's check;
// this function only applies the power-dominance condition.
// Precondition: none.
// Postcondition: Returns the threshold and true when actionPower exceeds a
// positive targetPower; returns (0, false) otherwise.
func CrushingThreshold(actionPower, targetPower float64) (float64, bool) {
	if targetPower <= 0 || actionPower <= targetPower {
		return 0, false
	}
	return (actionPower - targetPower) / targetPower, true
}

// ThresholdMet reports whether a roll passes a dominance-check threshold.
// Success requires roll/RollMax >= 1 - threshold, so a threshold of 1.0 or
// more always succeeds and a threshold of 0 succeeds only on a maximum
// roll.
func ThresholdMet(roll int, threshold float64) bool {
	return float64(roll)/RollMax >= 1.0-threshold
}

// DefenseRollSuccess reports whether a defense roll succeeds against a
// success rate. Success requires roll <= successRate x RollMax.
func DefenseRollSuccess(roll int, successRate float64) bool {
	return float64(roll) <= successRate*RollMax
}

// BaseDamage computes raw attack damage from the two powers. The quadratic
// attacker term rewards overmatching and punishes being under-powered more
// severely than a linear model would.
// Precondition: targetPower > 0; roster validation guarantees positive
// powers. A non-positive targetPower is treated as power parity.
// Postcondition: Returns a non-negative damage value.
func BaseDamage(attackerPower, targetPower float64) float64 {
	if targetPower <= 0 {
		return attackerPower
	}
	return attackerPower * (attackerPower / targetPower)
}

// SpecialDamage scales base damage by the spent-segment bonus. Spends
// outside the legal range are clamped to it.
// Postcondition: Returns base x (1 + SpecialBonusPerSegment x segments)
// with segments clamped to [SpecialSegmentsMin, SpecialSegmentsMax].
func SpecialDamage(base float64, segments int) float64 {
	if segments < SpecialSegmentsMin {
		segments = SpecialSegmentsMin
	}
	if segments > SpecialSegmentsMax {
		segments = SpecialSegmentsMax
	}
	return base * (1.0 + SpecialBonusPerSegment*float64(segments))
}

// Mitigated applies a mitigation rate to raw damage.
// Postcondition: Returns raw x (1 - rate); a rate of 1 zeroes the damage
// and a rate of 0 passes it through.
func Mitigated(raw, rate float64) float64 {
	return raw * (1.0 - rate)
}

// EvadeRegen computes the stamina restored by an evade. Callers clamp the
// result against the combatant's max stamina.
func EvadeRegen(maxStamina float64) float64 {
	return EvadeRegenFraction * maxStamina
}
