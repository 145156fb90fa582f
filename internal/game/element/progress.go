package element

import "github.com/tgoodington/Ancient-Order-sub001/internal/game/formula"

// fullTolerance absorbs float drift when comparing segments to the cap.
const fullTolerance = 1e-9

// Progress is one combatant's energy meter: spendable current segments,
// lifetime cumulative energy, and the ascension level derived from it.
// All transformations return a new value.
//
// Invariant: Segments ∈ [0, Cap()]; Level ∈ [0, formula.MaxAscension];
// Level never decreases across transformations.
type Progress struct {
	Segments   float64
	Cumulative float64
	Level      int
}

// NewProgress creates a meter at the given starting ascension level, with
// the level's round-start segment allotment and just enough cumulative
// energy to hold the level.
//
// Postcondition: CheckAscensionAdvance on the result is a no-op.
func NewProgress(level int) Progress {
	if level < 0 {
		level = 0
	}
	if level > formula.MaxAscension {
		level = formula.MaxAscension
	}
	floor := 0.0
	if level > 0 {
		floor, _ = formula.NextAscensionThreshold(level - 1)
	}
	return Progress{
		Segments:   formula.StartingSegments(level),
		Cumulative: floor,
		Level:      level,
	}
}

// Cap returns the segment cap for the current ascension level.
func (p Progress) Cap() float64 {
	return formula.EnergyCap(p.Level)
}

// Full reports whether the meter holds its cap, the precondition each
// group-strike participant must meet.
func (p Progress) Full() bool {
	return p.Segments >= p.Cap()-fullTolerance
}

// AddSegments awards energy: current segments grow up to the cap,
// cumulative energy grows unbounded.
//
// Precondition: gain >= 0.
// Postcondition: Segments <= Cap(); Cumulative grows by exactly gain;
// Level is unchanged (advancement is CheckAscensionAdvance's job).
func (p Progress) AddSegments(gain float64) Progress {
	p.Segments += gain
	if limit := p.Cap(); p.Segments > limit {
		p.Segments = limit
	}
	p.Cumulative += gain
	return p
}

// SpendSegments deducts a special-attack spend from current segments.
//
// Precondition: declaration validation guarantees n <= Segments; the
// result is floored at zero regardless.
func (p Progress) SpendSegments(n int) Progress {
	p.Segments -= float64(n)
	if p.Segments < 0 {
		p.Segments = 0
	}
	return p
}

// Zeroed empties current segments, the cost a group-strike participant
// pays whether or not the strike connects. Cumulative energy is untouched.
func (p Progress) Zeroed() Progress {
	p.Segments = 0
	return p
}

// CheckAscensionAdvance recomputes the level from cumulative energy.
// Advancing several tiers in one check is legal; the level never drops.
//
// Postcondition: Returns p unchanged when no threshold is newly met.
func (p Progress) CheckAscensionAdvance() Progress {
	level := formula.AscensionLevel(p.Cumulative)
	if level <= p.Level {
		return p
	}
	p.Level = level
	return p
}

// ResetRound applies the round-boundary stipend: the ascension level's
// starting-segment allotment is added to current segments, clamped at
// the cap. Earned segments persist across rounds so multi-round charge
// toward a group strike stays possible; the stipend is the level's
// per-round head start only and never counts toward cumulative energy.
//
// Postcondition: Segments <= Cap(); Cumulative is unchanged.
func (p Progress) ResetRound() Progress {
	p.Segments += formula.StartingSegments(p.Level)
	if limit := p.Cap(); p.Segments > limit {
		p.Segments = limit
	}
	return p
}
