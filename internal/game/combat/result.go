package combat

// NoRoll marks a check that was never rolled because its precondition
// did not hold.
const NoRoll = -1

// CheckResult is the outcome of one threshold check, recorded whether or
// not the check was eligible so a round transcript reads completely.
type CheckResult struct {
	Eligible  bool
	Threshold float64
	Roll      int
	Success   bool
}

// DefenseResult captures a target's defensive resolution against one
// incoming strike.
type DefenseResult struct {
	Reaction   string
	Forced     bool
	Roll       int
	Success    bool
	Multiplier float64
}

// CounterHop is one swing inside a parry counter chain.
type CounterHop struct {
	Attacker string
	Defender string
	Raw      float64
	Roll     int
	Parried  bool
	Damage   float64
}

// AttackResult is the full transcript of one ATTACK or SPECIAL
// resolution: the three pre-strike checks, the defense, the damage
// applied, and any counter chain the defense spawned.
type AttackResult struct {
	Attacker      string
	ActionType    ActionType
	NominalTarget string
	Target        string
	Redirected    bool
	Segments      int
	RankKO        CheckResult
	Blindside     CheckResult
	Crushing      CheckResult
	Defense       DefenseResult
	Raw           float64
	Final         float64
	Chain         []CounterHop
}

// GroupResult is the transcript of one group strike.
type GroupResult struct {
	Leader         string
	Target         string
	Participants   []string
	BaseSum        float64
	Multiplier     float64
	Raw            float64
	Defense        DefenseResult
	Final          float64
	TargetVanished bool
}

// EvadeResult records a recovery action.
type EvadeResult struct {
	Actor string
	Regen float64
}

// Event is one resolved queue entry. Exactly one of the typed payloads
// is set for substantive outcomes; Narrative alone carries entries that
// resolved to nothing, such as a strike on an already fallen target.
type Event struct {
	Actor     string
	Narrative string
	Attack    *AttackResult
	Group     *GroupResult
	Evade     *EvadeResult
}

// Record is everything that happened in one resolved round.
type Record struct {
	Round  int
	Events []Event
}

// Clone returns a Record sharing no mutable storage with the receiver.
func (r Record) Clone() Record {
	out := Record{Round: r.Round}
	if r.Events == nil {
		return out
	}
	out.Events = make([]Event, len(r.Events))
	for i, e := range r.Events {
		out.Events[i] = e.clone()
	}
	return out
}

func (e Event) clone() Event {
	out := e
	if e.Attack != nil {
		attack := *e.Attack
		if e.Attack.Chain != nil {
			attack.Chain = make([]CounterHop, len(e.Attack.Chain))
			copy(attack.Chain, e.Attack.Chain)
		}
		out.Attack = &attack
	}
	if e.Group != nil {
		group := *e.Group
		if e.Group.Participants != nil {
			group.Participants = make([]string, len(e.Group.Participants))
			copy(group.Participants, e.Group.Participants)
		}
		out.Group = &group
	}
	if e.Evade != nil {
		evade := *e.Evade
		out.Evade = &evade
	}
	return out
}
