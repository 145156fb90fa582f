package sim

import (
	"fmt"
	"io"

	"github.com/tgoodington/Ancient-Order-sub001/internal/game/combat"
)

// Observer receives round-edge snapshots as a battle runs. Both calls
// happen on the battle's goroutine with deep copies; an observer may
// keep them.
type Observer interface {
	OnRound(s combat.State, r combat.Record)
	OnEnd(s combat.State, result Result)
}

// ConsoleObserver writes a play-by-play transcript to one writer. It is
// meant for single battles; concurrent battles sharing one would
// interleave their rounds.
type ConsoleObserver struct {
	w io.Writer
}

// NewConsoleObserver returns an observer writing to w.
func NewConsoleObserver(w io.Writer) *ConsoleObserver {
	return &ConsoleObserver{w: w}
}

// OnRound prints the round header, one line per event, and the
// surviving headcount.
func (o *ConsoleObserver) OnRound(s combat.State, r combat.Record) {
	fmt.Fprintf(o.w, "--- round %d ---\n", r.Round)
	for _, e := range r.Events {
		fmt.Fprintf(o.w, "  %s\n", Narrate(s, e))
	}
	fmt.Fprintf(o.w, "  standing: players %d/%d, enemies %d/%d\n",
		s.LivingCount(combat.SidePlayers), len(s.Players),
		s.LivingCount(combat.SideEnemies), len(s.Enemies))
}

// OnEnd prints the final outcome.
func (o *ConsoleObserver) OnEnd(s combat.State, result Result) {
	fmt.Fprintf(o.w, "%s after %d round(s) (seed %d)\n",
		result.Status, result.Rounds, result.Seed)
}
