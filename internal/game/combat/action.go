package combat

// ActionType identifies what a combatant declares for the round.
// The zero value (ActionUnknown) is intentionally invalid.
type ActionType int

const (
	ActionUnknown ActionType = iota // zero value; intentionally invalid
	ActionAttack
	ActionDefend
	ActionEvade
	ActionSpecial
	ActionGroup
)

// ActionTypes lists the five declarable action types in enum order.
func ActionTypes() []ActionType {
	return []ActionType{ActionAttack, ActionDefend, ActionEvade, ActionSpecial, ActionGroup}
}

// PriorityClass returns the resolution bracket for the action type; lower
// brackets resolve first. Group strikes lead, then guards, then attacks
// and specials together, then evades.
// Postcondition: returns 0-3 for valid types and 4 for ActionUnknown so a
// malformed entry can never jump the queue.
func (a ActionType) PriorityClass() int {
	switch a {
	case ActionGroup:
		return 0
	case ActionDefend:
		return 1
	case ActionAttack, ActionSpecial:
		return 2
	case ActionEvade:
		return 3
	}
	return 4
}

// Targeted reports whether the action type requires a target id. Only
// EVADE is untargeted.
func (a ActionType) Targeted() bool {
	return a != ActionEvade
}

// String returns the human-readable name of the ActionType.
// Postcondition: returns "attack", "defend", "evade", "special", "group",
// or "unknown".
func (a ActionType) String() string {
	switch a {
	case ActionAttack:
		return "attack"
	case ActionDefend:
		return "defend"
	case ActionEvade:
		return "evade"
	case ActionSpecial:
		return "special"
	case ActionGroup:
		return "group"
	default:
		return "unknown"
	}
}

// Action is one combatant's declaration for a round: who acts, what they
// do, against whom, and for SPECIAL how many energy segments they spend.
// Target is empty only for EVADE. Actions are immutable once queued.
type Action struct {
	Actor    string
	Type     ActionType
	Target   string
	Segments int
}
