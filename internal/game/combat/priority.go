package combat

import (
	"sort"

	"github.com/tgoodington/Ancient-Order-sub001/internal/game/roll"
)

// queueEntry pairs an action with its precomputed ordering key.
type queueEntry struct {
	action Action
	class  int
	speed  float64
	jitter int
}

// SortQueue orders the declared queue for resolution: priority class
// first, then speed descending inside a class, then a rolled jitter to
// split exact speed ties. The sort is stable, so entries identical on
// all three keys keep declaration order.
//
// One jitter is drawn per queued entry in declaration order before
// sorting, whether or not that entry ends up tied, which keeps the roll
// stream's consumption independent of the queue's contents.
//
// Invariant: the input queue is not modified.
func SortQueue(s State, src roll.Source) []Action {
	entries := make([]queueEntry, len(s.Queue))
	for i, a := range s.Queue {
		entries[i] = queueEntry{
			action: a,
			class:  a.Type.PriorityClass(),
			speed:  actionSpeed(s, a),
			jitter: src.Roll(),
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].class != entries[j].class {
			return entries[i].class < entries[j].class
		}
		if entries[i].speed != entries[j].speed {
			return entries[i].speed > entries[j].speed
		}
		return entries[i].jitter > entries[j].jitter
	})

	out := make([]Action, len(entries))
	for i, e := range entries {
		out[i] = e.action
	}
	return out
}

// actionSpeed returns the ordering speed for one queued action. Group
// strikes move at the mean speed of the leader's living roster; every
// other action moves at its actor's speed.
func actionSpeed(s State, a Action) float64 {
	actor, side, ok := s.Find(a.Actor)
	if !ok {
		return 0
	}
	if a.Type == ActionGroup {
		return meanLivingSpeed(s, side)
	}
	return actor.Speed
}

// meanLivingSpeed averages the speed of a side's living members.
func meanLivingSpeed(s State, side Side) float64 {
	living := s.Living(side)
	if len(living) == 0 {
		return 0
	}
	sum := 0.0
	for _, c := range living {
		sum += c.Speed
	}
	return sum / float64(len(living))
}
