package combat

import (
	"errors"
	"fmt"
)

// Phase tracks where a combat sits inside its round cycle.
type Phase int

const (
	// PhaseDeclaration accepts one action per living combatant.
	PhaseDeclaration Phase = iota
	// PhaseResolution is transient: the pipeline is consuming the queue.
	PhaseResolution
	// PhaseComplete means a side has been emptied; no further declarations
	// or resolutions are accepted.
	PhaseComplete
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseDeclaration:
		return "declaration"
	case PhaseResolution:
		return "resolution"
	case PhaseComplete:
		return "complete"
	}
	return "unknown"
}

// Status is the overall outcome of a combat, from the player roster's
// point of view.
type Status int

const (
	StatusActive Status = iota
	StatusVictory
	StatusDefeat
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusVictory:
		return "victory"
	case StatusDefeat:
		return "defeat"
	}
	return "unknown"
}

// Side identifies a roster.
type Side int

const (
	SideUnknown Side = iota
	SidePlayers
	SideEnemies
)

// Opponent returns the other roster.
func (s Side) Opponent() Side {
	switch s {
	case SidePlayers:
		return SideEnemies
	case SideEnemies:
		return SidePlayers
	}
	return SideUnknown
}

// String returns the side name.
func (s Side) String() string {
	switch s {
	case SidePlayers:
		return "players"
	case SideEnemies:
		return "enemies"
	}
	return "unknown"
}

// Declaration and lookup failures surfaced at the engine boundary.
var (
	ErrUnknownActor         = errors.New("unknown combatant")
	ErrActorDown            = errors.New("combatant is knocked out")
	ErrDuplicateDeclaration = errors.New("combatant already declared this round")
	ErrInvalidTarget        = errors.New("invalid target")
	ErrIllegalSpend         = errors.New("segment spend outside the legal range")
	ErrInsufficientEnergy   = errors.New("insufficient energy segments")
	ErrGroupNotReady        = errors.New("group strike requires the full roster at full energy")
	ErrWrongPhase           = errors.New("combat is not accepting declarations")
	ErrCombatComplete       = errors.New("combat is already complete")
)

// State is one combat's complete situation: the two ordered rosters, the
// round counter and phase, the pending declaration queue, the accumulated
// per-round history, and the overall status. The engine owns its State
// exclusively while a combat runs; outside callers receive deep copies
// via Snapshot. All transformations return a new State.
type State struct {
	Round   int
	Phase   Phase
	Players []Combatant
	Enemies []Combatant
	Queue   []Action
	History []Record
	Status  Status
}

// NewState starts a combat at round one, in declaration phase, with the
// given rosters. The slices are copied; callers keep ownership of theirs.
func NewState(players, enemies []Combatant) State {
	return State{
		Round:   1,
		Phase:   PhaseDeclaration,
		Players: cloneRoster(players),
		Enemies: cloneRoster(enemies),
	}
}

// Roster returns the live slice backing a side. Callers must treat it as
// read-only; Snapshot provides an owned copy.
func (s State) Roster(side Side) []Combatant {
	switch side {
	case SidePlayers:
		return s.Players
	case SideEnemies:
		return s.Enemies
	}
	return nil
}

// Find locates a combatant by id on either roster.
// Postcondition: Returns the combatant, its side, and true when present;
// the zero Combatant, SideUnknown, and false otherwise.
func (s State) Find(id string) (Combatant, Side, bool) {
	for _, c := range s.Players {
		if c.ID == id {
			return c, SidePlayers, true
		}
	}
	for _, c := range s.Enemies {
		if c.ID == id {
			return c, SideEnemies, true
		}
	}
	return Combatant{}, SideUnknown, false
}

// SideOf returns the roster a combatant belongs to, or SideUnknown.
func (s State) SideOf(id string) Side {
	_, side, _ := s.Find(id)
	return side
}

// Living returns the living members of a side in roster order.
func (s State) Living(side Side) []Combatant {
	var out []Combatant
	for _, c := range s.Roster(side) {
		if c.Living() {
			out = append(out, c)
		}
	}
	return out
}

// LivingCount returns how many of a side's members are still standing.
func (s State) LivingCount(side Side) int {
	n := 0
	for _, c := range s.Roster(side) {
		if c.Living() {
			n++
		}
	}
	return n
}

// Declared reports whether an actor already has an action in the queue.
func (s State) Declared(actor string) bool {
	for _, a := range s.Queue {
		if a.Actor == actor {
			return true
		}
	}
	return false
}

// AllDeclared reports whether every living combatant on both rosters has
// declared, the condition for resolving the round.
func (s State) AllDeclared() bool {
	for _, side := range []Side{SidePlayers, SideEnemies} {
		for _, c := range s.Roster(side) {
			if c.Living() && !s.Declared(c.ID) {
				return false
			}
		}
	}
	return true
}

// Declare validates one action and returns a new State with it queued.
// This is the boundary where malformed declarations are rejected; the
// resolution pipeline trusts the queue completely.
//
// Postcondition: on error the returned State is the receiver unchanged.
func (s State) Declare(a Action) (State, error) {
	if s.Phase != PhaseDeclaration {
		return s, ErrWrongPhase
	}
	actor, side, ok := s.Find(a.Actor)
	if !ok {
		return s, fmt.Errorf("declare %s: %w", a.Actor, ErrUnknownActor)
	}
	if !actor.Living() {
		return s, fmt.Errorf("declare %s: %w", a.Actor, ErrActorDown)
	}
	if s.Declared(a.Actor) {
		return s, fmt.Errorf("declare %s: %w", a.Actor, ErrDuplicateDeclaration)
	}

	switch a.Type {
	case ActionAttack:
		if err := s.checkEnemyTarget(a, side); err != nil {
			return s, err
		}
	case ActionSpecial:
		if err := s.checkEnemyTarget(a, side); err != nil {
			return s, err
		}
		if a.Segments < 1 || a.Segments > 5 {
			return s, fmt.Errorf("declare %s: spend %d: %w", a.Actor, a.Segments, ErrIllegalSpend)
		}
		if float64(a.Segments) > actor.Energy.Segments+1e-9 {
			return s, fmt.Errorf("declare %s: spend %d of %.2f: %w",
				a.Actor, a.Segments, actor.Energy.Segments, ErrInsufficientEnergy)
		}
	case ActionDefend:
		ward, wardSide, ok := s.Find(a.Target)
		if !ok || wardSide != side || !ward.Living() || a.Target == a.Actor {
			return s, fmt.Errorf("declare %s: guard %q: %w", a.Actor, a.Target, ErrInvalidTarget)
		}
	case ActionEvade:
		if a.Target != "" {
			return s, fmt.Errorf("declare %s: evade takes no target: %w", a.Actor, ErrInvalidTarget)
		}
	case ActionGroup:
		if err := s.checkEnemyTarget(a, side); err != nil {
			return s, err
		}
		for _, member := range s.Living(side) {
			if !member.Energy.Full() {
				return s, fmt.Errorf("declare %s: %s is not at full energy: %w",
					a.Actor, member.ID, ErrGroupNotReady)
			}
		}
	default:
		return s, fmt.Errorf("declare %s: action type %d: %w", a.Actor, a.Type, ErrInvalidTarget)
	}

	queue := make([]Action, len(s.Queue), len(s.Queue)+1)
	copy(queue, s.Queue)
	s.Queue = append(queue, a)
	return s, nil
}

// checkEnemyTarget validates that an offensive action names a living
// member of the opposing roster.
func (s State) checkEnemyTarget(a Action, side Side) error {
	target, targetSide, ok := s.Find(a.Target)
	if !ok || targetSide != side.Opponent() || !target.Living() {
		return fmt.Errorf("declare %s: target %q: %w", a.Actor, a.Target, ErrInvalidTarget)
	}
	return nil
}

// Snapshot returns a deep copy sharing no storage with the receiver, the
// form handed across the session boundary at round edges.
func (s State) Snapshot() State {
	out := s
	out.Players = cloneRoster(s.Players)
	out.Enemies = cloneRoster(s.Enemies)
	if s.Queue != nil {
		out.Queue = make([]Action, len(s.Queue))
		copy(out.Queue, s.Queue)
	}
	if s.History != nil {
		out.History = make([]Record, len(s.History))
		for i, r := range s.History {
			out.History[i] = r.Clone()
		}
	}
	return out
}

// withCombatant returns a new State with the combatant bearing the same
// id replaced on its roster. A missing id leaves the state unchanged,
// matching the silent no-op rule for vanished combatants.
func (s State) withCombatant(c Combatant) State {
	if replaced, ok := replaceByID(s.Players, c); ok {
		s.Players = replaced
		return s
	}
	if replaced, ok := replaceByID(s.Enemies, c); ok {
		s.Enemies = replaced
		return s
	}
	return s
}

// replaceByID copies roster with the matching member replaced.
func replaceByID(roster []Combatant, c Combatant) ([]Combatant, bool) {
	for i := range roster {
		if roster[i].ID == c.ID {
			out := make([]Combatant, len(roster))
			copy(out, roster)
			out[i] = c
			return out, true
		}
	}
	return nil, false
}

// cloneRoster deep-copies a roster slice.
func cloneRoster(roster []Combatant) []Combatant {
	if roster == nil {
		return nil
	}
	out := make([]Combatant, len(roster))
	for i, c := range roster {
		out[i] = c.clone()
	}
	return out
}
