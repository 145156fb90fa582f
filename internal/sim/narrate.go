package sim

import (
	"fmt"

	"github.com/tgoodington/Ancient-Order-sub001/internal/game/combat"
)

// Narrate renders one resolved event as a single sentence, resolving
// ids against the post-round snapshot so reports read by name.
func Narrate(s combat.State, e combat.Event) string {
	switch {
	case e.Attack != nil:
		return narrateAttack(s, *e.Attack)
	case e.Group != nil:
		if e.Group.TargetVanished && e.Narrative != "" {
			return e.Narrative
		}
		return narrateGroup(s, *e.Group)
	case e.Evade != nil:
		return fmt.Sprintf("%s gives ground and recovers %.1f stamina.", name(s, e.Evade.Actor), e.Evade.Regen)
	}
	return e.Narrative
}

func narrateAll(s combat.State, events []combat.Event) []string {
	out := make([]string, 0, len(events))
	for _, e := range events {
		out = append(out, Narrate(s, e))
	}
	return out
}

func narrateAttack(s combat.State, r combat.AttackResult) string {
	head := fmt.Sprintf("%s attacks %s", name(s, r.Attacker), name(s, r.Target))
	if r.ActionType == combat.ActionSpecial {
		head = fmt.Sprintf("%s unleashes a %d-segment special at %s",
			name(s, r.Attacker), r.Segments, name(s, r.Target))
	}
	if r.Redirected {
		head += fmt.Sprintf(" (guarding %s)", name(s, r.NominalTarget))
	}

	line := fmt.Sprintf("%s: %s, %.1f damage.", head, defenseClause(r.Defense), r.Final)
	if r.Crushing.Success {
		line += fmt.Sprintf(" The blow crushes %s's guard.", name(s, r.Target))
	}
	if n := len(r.Chain); n > 0 {
		last := r.Chain[n-1]
		if last.Parried {
			line += fmt.Sprintf(" The parry chain breaks off after %d swings.", n)
		} else {
			line += fmt.Sprintf(" Counter chain: %d swing(s), %s takes %.1f.",
				n, name(s, last.Defender), last.Damage)
		}
	}
	if r.RankKO.Success {
		line += fmt.Sprintf(" The rank gap ends it: %s is knocked out outright.", name(s, r.Target))
	}
	return line
}

func narrateGroup(s combat.State, g combat.GroupResult) string {
	return fmt.Sprintf("%s leads a gathered strike of %d at %s: %s, %.1f damage.",
		name(s, g.Leader), len(g.Participants), name(s, g.Target), defenseClause(g.Defense), g.Final)
}

// defenseClause describes how the defense resolved. A stripped defense
// never rolled; the defenseless reaction with Forced set marks it.
func defenseClause(d combat.DefenseResult) string {
	if d.Reaction == "defenseless" {
		if d.Forced {
			return "caught defenseless"
		}
		return "undefended"
	}
	if d.Success {
		return fmt.Sprintf("%s holds (roll %d)", d.Reaction, d.Roll)
	}
	return fmt.Sprintf("%s fails (roll %d)", d.Reaction, d.Roll)
}

func name(s combat.State, id string) string {
	if c, _, ok := s.Find(id); ok {
		return c.Name
	}
	return id
}
