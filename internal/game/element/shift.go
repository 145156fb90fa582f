package element

// ShiftKind identifies the origin of a success-rate shift.
type ShiftKind int

const (
	// ShiftPathBuff is earned by Reaction-path users on a successful
	// matching defense.
	ShiftPathBuff ShiftKind = iota
	// ShiftPathDebuff is inflicted by Action-path attackers whose attacks
	// land.
	ShiftPathDebuff
	// ShiftCrushing is inflicted by a successful Crushing Blow.
	ShiftCrushing
)

const (
	// StepPathBuff and StepPathDebuff are the per-stack success-rate
	// deltas for path shifts; StepCrushing for Crushing Blow shifts.
	StepPathBuff   = 0.05
	StepPathDebuff = -0.05
	StepCrushing   = -0.10

	// MaxStacksPath and MaxStacksCrushing cap stacking per
	// (kind, defense) pair.
	MaxStacksPath     = 4
	MaxStacksCrushing = 3
)

// Step returns the per-stack success-rate delta for a shift kind.
func (k ShiftKind) Step() float64 {
	switch k {
	case ShiftPathBuff:
		return StepPathBuff
	case ShiftPathDebuff:
		return StepPathDebuff
	case ShiftCrushing:
		return StepCrushing
	}
	return 0
}

// MaxStacks returns the stack cap for a shift kind.
func (k ShiftKind) MaxStacks() int {
	if k == ShiftCrushing {
		return MaxStacksCrushing
	}
	return MaxStacksPath
}

// String returns the shift-kind name used in logs and reports.
func (k ShiftKind) String() string {
	switch k {
	case ShiftPathBuff:
		return "path_buff"
	case ShiftPathDebuff:
		return "path_debuff"
	case ShiftCrushing:
		return "crushing"
	}
	return "unknown"
}

// RateShift is one stacked success-rate modifier on a single defense.
type RateShift struct {
	Defense Reaction
	Kind    ShiftKind
	Stacks  int
}

// Delta returns the shift's total success-rate contribution.
func (r RateShift) Delta() float64 {
	return float64(r.Stacks) * r.Kind.Step()
}

// ShiftSet holds every rate shift active on one combatant. The zero value
// is an empty set. Entries keep insertion order so resolution stays
// deterministic; shifts are strictly additive, so ordering never changes
// the effective rate.
type ShiftSet struct {
	shifts []RateShift
}

// Apply returns a new set with one more stack of the given kind on the
// given defense, capped at the kind's stack limit.
//
// Postcondition: The receiver is unchanged; the returned set shares no
// backing storage with it.
func (s ShiftSet) Apply(kind ShiftKind, defense Reaction) ShiftSet {
	out := make([]RateShift, len(s.shifts))
	copy(out, s.shifts)
	for i := range out {
		if out[i].Kind == kind && out[i].Defense == defense {
			if out[i].Stacks < kind.MaxStacks() {
				out[i].Stacks++
			}
			return ShiftSet{shifts: out}
		}
	}
	return ShiftSet{shifts: append(out, RateShift{Defense: defense, Kind: kind, Stacks: 1})}
}

// Stacks returns the current stack count for a (kind, defense) pair.
func (s ShiftSet) Stacks(kind ShiftKind, defense Reaction) int {
	for _, sh := range s.shifts {
		if sh.Kind == kind && sh.Defense == defense {
			return sh.Stacks
		}
	}
	return 0
}

// Delta returns the summed success-rate delta affecting a defense.
func (s ShiftSet) Delta(defense Reaction) float64 {
	total := 0.0
	for _, sh := range s.shifts {
		if sh.Defense == defense {
			total += sh.Delta()
		}
	}
	return total
}

// All returns a copy of the active shifts for audit records.
func (s ShiftSet) All() []RateShift {
	if len(s.shifts) == 0 {
		return nil
	}
	out := make([]RateShift, len(s.shifts))
	copy(out, s.shifts)
	return out
}

// Clone returns a deep copy of the set.
func (s ShiftSet) Clone() ShiftSet {
	return ShiftSet{shifts: s.All()}
}

// EffectiveRate applies a shift delta to a base success rate, clamped to
// [0, 1].
func EffectiveRate(base, delta float64) float64 {
	rate := base + delta
	if rate < 0 {
		return 0
	}
	if rate > 1 {
		return 1
	}
	return rate
}
