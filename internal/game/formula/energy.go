package formula

// GainCategory distinguishes the two energy-award event categories.
type GainCategory int

const (
	// GainAction covers a combatant's own declared action resolving.
	GainAction GainCategory = iota
	// GainReaction covers defending against someone else's action.
	GainReaction
)

// MaxAscension is the highest ascension level a combatant can reach.
const MaxAscension = 3

// ascensionThresholds holds the cumulative-energy requirement for levels
// 1..MaxAscension. Level 0 has no requirement.
var ascensionThresholds = [MaxAscension]float64{35, 95, 180}

// accumulationBonus is the energy-gain bonus per ascension level.
var accumulationBonus = [MaxAscension + 1]float64{0, 0.25, 0.25, 0.50}

// energyCaps bounds current segments per ascension level.
var energyCaps = [MaxAscension + 1]float64{2, 3, 4, 5}

// startingSegments is the round-start segment allotment per ascension level.
var startingSegments = [MaxAscension + 1]float64{0, 0, 1, 2}

// clampLevel folds out-of-range levels onto the valid [0, MaxAscension]
// range so the lookup tables never index past their bounds.
func clampLevel(level int) int {
	if level < 0 {
		return 0
	}
	if level > MaxAscension {
		return MaxAscension
	}
	return level
}

// BaseGain returns the unscaled energy award for an event category and
// outcome: 1.0/0.5 for action success/failure, 0.5/0.25 for reaction
// success/failure.
func BaseGain(category GainCategory, success bool) float64 {
	switch category {
	case GainAction:
		if success {
			return 1.0
		}
		return 0.5
	case GainReaction:
		if success {
			return 0.5
		}
		return 0.25
	}
	return 0
}

// EnergyGain returns the full energy award for an event, scaling the base
// gain by the ascension accumulation bonus.
// Postcondition: Returns BaseGain x (1 + AccumulationBonus(level)).
func EnergyGain(category GainCategory, success bool, level int) float64 {
	return BaseGain(category, success) * (1.0 + AccumulationBonus(level))
}

// AccumulationBonus returns the energy-gain bonus for an ascension level.
func AccumulationBonus(level int) float64 {
	return accumulationBonus[clampLevel(level)]
}

// EnergyCap returns the maximum current segments at an ascension level.
func EnergyCap(level int) float64 {
	return energyCaps[clampLevel(level)]
}

// StartingSegments returns the round-start segment allotment for an
// ascension level.
func StartingSegments(level int) float64 {
	return startingSegments[clampLevel(level)]
}

// AscensionLevel returns the highest level whose cumulative-energy
// threshold has been met. Advancing several tiers in one lookup is legal.
// Postcondition: Returns a level in [0, MaxAscension], non-decreasing in
// cumulative.
func AscensionLevel(cumulative float64) int {
	level := 0
	for tier, threshold := range ascensionThresholds {
		if cumulative < threshold {
			break
		}
		level = tier + 1
	}
	return level
}

// NextAscensionThreshold returns the cumulative energy required for the
// level after the given one.
// Postcondition: Returns (threshold, true) when a next level exists and
// (0, false) at MaxAscension and above.
func NextAscensionThreshold(level int) (float64, bool) {
	level = clampLevel(level)
	if level >= MaxAscension {
		return 0, false
	}
	return ascensionThresholds[level], true
}
