package sim

import (
	"context"

	"github.com/tgoodington/Ancient-Order-sub001/internal/game/combat"
)

// ReportSink receives battle reports. The postgres report repository
// satisfies it through a thin adapter; tests use an in-memory fake.
// A sink must tolerate battles that are never finished: an aborted run
// leaves its battle record open.
type ReportSink interface {
	InsertBattle(ctx context.Context, battleID, encounterID string, seed int64) error
	InsertRound(ctx context.Context, battleID string, round int, report any) error
	FinishBattle(ctx context.Context, battleID, status string, rounds int) error
}

// FighterStatus is one fighter's condition at a round boundary.
type FighterStatus struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Stamina    float64 `json:"stamina"`
	MaxStamina float64 `json:"max_stamina"`
	Energy     float64 `json:"energy"`
	Level      int     `json:"level"`
	KO         bool    `json:"ko"`
}

// RoundReport is the persisted record of one resolved round: both
// rosters as the round left them, plus one narrated line per event.
type RoundReport struct {
	Round   int             `json:"round"`
	Status  string          `json:"status"`
	Players []FighterStatus `json:"players"`
	Enemies []FighterStatus `json:"enemies"`
	Events  []string        `json:"events"`
}

// NewRoundReport builds the report for one resolved round from the
// post-round snapshot and the round record.
func NewRoundReport(snap combat.State, record combat.Record) RoundReport {
	return RoundReport{
		Round:   record.Round,
		Status:  snap.Status.String(),
		Players: fighterStatuses(snap.Players),
		Enemies: fighterStatuses(snap.Enemies),
		Events:  narrateAll(snap, record.Events),
	}
}

func fighterStatuses(roster []combat.Combatant) []FighterStatus {
	out := make([]FighterStatus, len(roster))
	for i, c := range roster {
		out[i] = FighterStatus{
			ID:         c.ID,
			Name:       c.Name,
			Stamina:    c.Stamina,
			MaxStamina: c.MaxStamina,
			Energy:     c.Energy.Segments,
			Level:      c.Energy.Level,
			KO:         c.KO,
		}
	}
	return out
}
