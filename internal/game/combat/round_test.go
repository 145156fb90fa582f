package combat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgoodington/Ancient-Order-sub001/internal/game/combat"
	"github.com/tgoodington/Ancient-Order-sub001/internal/game/element"
	"github.com/tgoodington/Ancient-Order-sub001/internal/game/roll"
)

// declareAll queues the given actions, failing the test on any rejection.
func declareAll(t *testing.T, s combat.State, actions ...combat.Action) combat.State {
	t.Helper()
	var err error
	for _, a := range actions {
		s, err = s.Declare(a)
		require.NoError(t, err, "declare %s", a.Actor)
	}
	return s
}

func TestResolveRound_MutualBlocks(t *testing.T) {
	s := combat.NewState(
		[]combat.Combatant{makeFighter("p1", "Asha")},
		[]combat.Combatant{makeFighter("e1", "Husk")},
	)
	s = declareAll(t, s,
		combat.Action{Actor: "p1", Type: combat.ActionAttack, Target: "e1"},
		combat.Action{Actor: "e1", Type: combat.ActionAttack, Target: "p1"},
	)

	// Two jitters, then p1's defense roll 5 (block success → 25 damage)
	// and e1's defense roll 20 (block failure → 40 damage).
	src := &seqSrc{vals: []int{0, 0, 5, 20}}
	s, record, err := combat.ResolveRound(s, combat.DefaultRules(), src)
	require.NoError(t, err)

	e1, _, _ := s.Find("e1")
	p1, _, _ := s.Find("p1")
	assert.InDelta(t, 75, e1.Stamina, 1e-9)
	assert.InDelta(t, 60, p1.Stamina, 1e-9)

	// p1: action success 1.0 + blocked-failure reaction 0.25.
	assert.InDelta(t, 1.25, p1.Energy.Segments, 1e-9)
	// e1: blocked-success reaction 0.5 + action success 1.0.
	assert.InDelta(t, 1.5, e1.Energy.Segments, 1e-9)

	assert.Equal(t, 2, s.Round)
	assert.Equal(t, combat.PhaseDeclaration, s.Phase)
	assert.Equal(t, combat.StatusActive, s.Status)
	assert.Empty(t, s.Queue)
	require.Len(t, record.Events, 2)
	assert.NotNil(t, record.Events[0].Attack)
	assert.NotNil(t, record.Events[1].Attack)
	require.Len(t, s.History, 1)
}

func TestResolveRound_RankKOOverridesDamage(t *testing.T) {
	p1 := makeFighter("p1", "Asha")
	p1.Rank = 3.0
	s := combat.NewState(
		[]combat.Combatant{p1},
		[]combat.Combatant{makeFighter("e1", "Husk")},
	)
	s = declareAll(t, s,
		combat.Action{Actor: "p1", Type: combat.ActionAttack, Target: "e1"},
		combat.Action{Actor: "e1", Type: combat.ActionEvade},
	)

	// Rank gap 2.0 → threshold 0.6; roll 10 means 0.5 ≥ 0.4 → knockout.
	s, record, err := combat.ResolveRound(s, combat.DefaultRules(), fixedSrc{val: 10})
	require.NoError(t, err)

	e1, _, _ := s.Find("e1")
	assert.True(t, e1.KO)
	assert.InDelta(t, 0, e1.Stamina, 1e-9)

	// The underlying attack still resolved normally before the knockout.
	require.Len(t, record.Events, 1, "the fallen target's evade never fires")
	attack := record.Events[0].Attack
	require.NotNil(t, attack)
	assert.True(t, attack.RankKO.Success)
	assert.True(t, attack.Defense.Success)
	assert.InDelta(t, 25, attack.Final, 1e-9)

	assert.Equal(t, combat.StatusVictory, s.Status)
	assert.Equal(t, combat.PhaseComplete, s.Phase)
}

func TestResolveRound_BlindsideStripsDefense(t *testing.T) {
	p1 := makeFighter("p1", "Asha")
	p1.Speed = 15
	s := combat.NewState(
		[]combat.Combatant{p1},
		[]combat.Combatant{makeFighter("e1", "Husk")},
	)
	s = declareAll(t, s,
		combat.Action{Actor: "p1", Type: combat.ActionAttack, Target: "e1"},
		combat.Action{Actor: "e1", Type: combat.ActionAttack, Target: "p1"},
	)

	// Speed 15 vs 10 → threshold 0.5; roll 10 succeeds → full damage.
	s, record, err := combat.ResolveRound(s, combat.DefaultRules(), fixedSrc{val: 10})
	require.NoError(t, err)

	e1, _, _ := s.Find("e1")
	p1, _, _ = s.Find("p1")
	assert.InDelta(t, 50, e1.Stamina, 1e-9, "a blindsided target takes the raw hit")
	assert.InDelta(t, 75, p1.Stamina, 1e-9, "the slower counterpart cannot blindside back")

	attack := record.Events[0].Attack
	require.NotNil(t, attack)
	assert.True(t, attack.Blindside.Success)
	assert.Equal(t, "defenseless", attack.Defense.Reaction)
	assert.Equal(t, combat.NoRoll, attack.Defense.Roll)
	assert.InDelta(t, 1.25, e1.Energy.Segments, 1e-9, "defenseless counts as a failed reaction")
}

func TestResolveRound_SpecialForcesPathReaction(t *testing.T) {
	p1 := makeFighter("p1", "Asha")
	p1.Path = element.PathFlow
	p1.Energy = element.Progress{Segments: 2, Level: 0}
	e1 := makeFighter("e1", "Husk")
	e1.Path = element.PathFlow
	s := combat.NewState([]combat.Combatant{p1}, []combat.Combatant{e1})
	s = declareAll(t, s,
		combat.Action{Actor: "p1", Type: combat.ActionSpecial, Target: "e1", Segments: 1},
		combat.Action{Actor: "e1", Type: combat.ActionEvade},
	)

	// Jitters 0,0; forced parry roll 5 succeeds (≤8); the counter's own
	// parry roll 9 fails, landing 37.5 back on the attacker.
	src := &seqSrc{vals: []int{0, 0, 5, 9}}
	s, record, err := combat.ResolveRound(s, combat.DefaultRules(), src)
	require.NoError(t, err)

	attack := record.Events[0].Attack
	require.NotNil(t, attack)
	assert.Equal(t, "parry", attack.Defense.Reaction)
	assert.True(t, attack.Defense.Forced)
	assert.InDelta(t, 55, attack.Raw, 1e-9, "one segment adds ten percent")
	assert.InDelta(t, 0, attack.Final, 1e-9)
	require.Len(t, attack.Chain, 1)

	p1, _, _ = s.Find("p1")
	e1, _, _ = s.Find("e1")
	assert.InDelta(t, 62.5, p1.Stamina, 1e-9)
	assert.InDelta(t, 100, e1.Stamina, 1e-9)
	// Failure gain 0.5 caps at 2, then the declared segment is spent.
	assert.InDelta(t, 1, p1.Energy.Segments, 1e-9)
	// Parry success 0.5 plus the evade's action success 1.0.
	assert.InDelta(t, 1.5, e1.Energy.Segments, 1e-9)
	// A matching-path parry success banks a buff stack.
	assert.Equal(t, 1, e1.Shifts.Stacks(element.ShiftPathBuff, element.ReactionParry))
	assert.InDelta(t, 0.45, e1.EffectiveSuccess(element.ReactionParry), 1e-9)
}

func TestResolveRound_ActionPathDebuffsTarget(t *testing.T) {
	p1 := makeFighter("p1", "Asha")
	p1.Path = element.PathThunder
	s := combat.NewState(
		[]combat.Combatant{p1},
		[]combat.Combatant{makeFighter("e1", "Husk")},
	)
	s = declareAll(t, s,
		combat.Action{Actor: "p1", Type: combat.ActionAttack, Target: "e1"},
		combat.Action{Actor: "e1", Type: combat.ActionEvade},
	)

	s, _, err := combat.ResolveRound(s, combat.DefaultRules(), fixedSrc{val: 5})
	require.NoError(t, err)

	e1, _, _ := s.Find("e1")
	assert.InDelta(t, 75, e1.Stamina, 1e-9)
	assert.Equal(t, 1, e1.Shifts.Stacks(element.ShiftPathDebuff, element.ReactionDodge))
	assert.InDelta(t, 0.45, e1.EffectiveSuccess(element.ReactionDodge), 1e-9)
	assert.Equal(t, 0, e1.Shifts.Stacks(element.ShiftCrushing, element.ReactionBlock),
		"power parity never crushes")
}

func TestResolveRound_CrushingDebuffsBlock(t *testing.T) {
	p1 := makeFighter("p1", "Asha")
	p1.Power = 80
	e1 := makeFighter("e1", "Husk")
	e1.Path = element.PathGale
	e1.Stamina = 200
	e1.MaxStamina = 200
	s := combat.NewState([]combat.Combatant{p1}, []combat.Combatant{e1})
	s = declareAll(t, s,
		combat.Action{Actor: "p1", Type: combat.ActionAttack, Target: "e1"},
		combat.Action{Actor: "e1", Type: combat.ActionEvade},
	)

	// Power 80 vs 50 → base 128, crushing threshold 0.6; roll 8 both
	// blocks (≤12) and crushes (0.4 ≥ 0.4).
	s, record, err := combat.ResolveRound(s, combat.DefaultRules(), fixedSrc{val: 8})
	require.NoError(t, err)

	attack := record.Events[0].Attack
	require.NotNil(t, attack)
	assert.True(t, attack.Crushing.Success)
	assert.InDelta(t, 64, attack.Final, 1e-9)

	e1, _, _ = s.Find("e1")
	assert.InDelta(t, 166, e1.Stamina, 1e-9, "166 after regen: 200 − 64 + 30")
	assert.Equal(t, 1, e1.Shifts.Stacks(element.ShiftCrushing, element.ReactionBlock))
	assert.InDelta(t, 0.5, e1.EffectiveSuccess(element.ReactionBlock), 1e-9)
}

func TestResolveRound_GuardRedirectsStrike(t *testing.T) {
	s := combat.NewState(
		[]combat.Combatant{makeFighter("p1", "Asha"), makeFighter("p2", "Bren")},
		[]combat.Combatant{makeFighter("e1", "Husk")},
	)
	s = declareAll(t, s,
		combat.Action{Actor: "p1", Type: combat.ActionDefend, Target: "p2"},
		combat.Action{Actor: "p2", Type: combat.ActionEvade},
		combat.Action{Actor: "e1", Type: combat.ActionAttack, Target: "p2"},
	)

	s, record, err := combat.ResolveRound(s, combat.DefaultRules(), fixedSrc{val: 5})
	require.NoError(t, err)

	require.Len(t, record.Events, 3)
	assert.Contains(t, record.Events[0].Narrative, "guard", "the guard stance resolves first")

	attack := record.Events[1].Attack
	require.NotNil(t, attack)
	assert.True(t, attack.Redirected)
	assert.Equal(t, "p2", attack.NominalTarget)
	assert.Equal(t, "p1", attack.Target)

	p1, _, _ := s.Find("p1")
	p2, _, _ := s.Find("p2")
	assert.InDelta(t, 75, p1.Stamina, 1e-9, "the guard takes the blocked hit")
	assert.InDelta(t, 100, p2.Stamina, 1e-9)
}

func TestResolveRound_FallenGuardCannotRedirect(t *testing.T) {
	p1 := makeFighter("p1", "Asha")
	p1.Stamina = 30
	e2 := makeFighter("e2", "Shade")
	e2.Speed = 20
	s := combat.NewState(
		[]combat.Combatant{p1, makeFighter("p2", "Bren")},
		[]combat.Combatant{makeFighter("e1", "Husk"), e2},
	)
	s = declareAll(t, s,
		combat.Action{Actor: "p1", Type: combat.ActionDefend, Target: "p2"},
		combat.Action{Actor: "p2", Type: combat.ActionEvade},
		combat.Action{Actor: "e1", Type: combat.ActionAttack, Target: "p2"},
		combat.Action{Actor: "e2", Type: combat.ActionAttack, Target: "p1"},
	)

	// Roll 15 fails every block. The faster e2 drops the guard for 40
	// before e1's strike arrives, so p2 takes their own hit.
	s, record, err := combat.ResolveRound(s, combat.DefaultRules(), fixedSrc{val: 15})
	require.NoError(t, err)

	p1After, _, _ := s.Find("p1")
	require.True(t, p1After.KO)

	var e1Attack *combat.AttackResult
	for _, ev := range record.Events {
		if ev.Actor == "e1" {
			e1Attack = ev.Attack
		}
	}
	require.NotNil(t, e1Attack)
	assert.False(t, e1Attack.Redirected)
	assert.Equal(t, "p2", e1Attack.Target)

	p2, _, _ := s.Find("p2")
	assert.InDelta(t, 90, p2.Stamina, 1e-9, "90 after regen: 100 − 40 + 30")
}

func TestResolveRound_DeadTargetIsSilentNoOp(t *testing.T) {
	p1 := makeFighter("p1", "Asha")
	p1.Speed = 12
	e1 := makeFighter("e1", "Husk")
	e1.Stamina = 25
	s := combat.NewState(
		[]combat.Combatant{p1, makeFighter("p2", "Bren")},
		[]combat.Combatant{e1},
	)
	s = declareAll(t, s,
		combat.Action{Actor: "p1", Type: combat.ActionAttack, Target: "e1"},
		combat.Action{Actor: "p2", Type: combat.ActionAttack, Target: "e1"},
		combat.Action{Actor: "e1", Type: combat.ActionEvade},
	)

	// p1's blocked 25 finishes e1 exactly; p2 swings at nothing.
	s, record, err := combat.ResolveRound(s, combat.DefaultRules(), fixedSrc{val: 5})
	require.NoError(t, err)

	require.Len(t, record.Events, 2)
	assert.NotNil(t, record.Events[0].Attack)
	assert.Nil(t, record.Events[1].Attack)
	assert.Contains(t, record.Events[1].Narrative, "no one")
	assert.Equal(t, combat.StatusVictory, s.Status)
}

func TestResolveRound_GroupConscriptsQueuedActions(t *testing.T) {
	players := []combat.Combatant{
		makeFighter("p1", "Asha"),
		makeFighter("p2", "Bren"),
		makeFighter("p3", "Cai"),
	}
	for i := range players {
		players[i].Energy = element.Progress{Segments: 2, Level: 0}
	}
	e1 := makeFighter("e1", "Colossus")
	e1.Stamina = 200
	e1.MaxStamina = 200
	s := combat.NewState(players, []combat.Combatant{e1})
	s = declareAll(t, s,
		combat.Action{Actor: "p1", Type: combat.ActionGroup, Target: "e1"},
		combat.Action{Actor: "p2", Type: combat.ActionAttack, Target: "e1"},
		combat.Action{Actor: "p3", Type: combat.ActionEvade},
		combat.Action{Actor: "e1", Type: combat.ActionAttack, Target: "p1"},
	)

	s, record, err := combat.ResolveRound(s, combat.DefaultRules(), fixedSrc{val: 15})
	require.NoError(t, err)

	// Only the group strike and the enemy's own attack resolve.
	require.Len(t, record.Events, 2)
	require.NotNil(t, record.Events[0].Group)
	assert.InDelta(t, 180, record.Events[0].Group.Final, 1e-9)
	assert.NotNil(t, record.Events[1].Attack)

	e1After, _, _ := s.Find("e1")
	assert.InDelta(t, 20, e1After.Stamina, 1e-9)

	p1After, _, _ := s.Find("p1")
	p2After, _, _ := s.Find("p2")
	p3After, _, _ := s.Find("p3")
	assert.InDelta(t, 60, p1After.Stamina, 1e-9, "conscription does not shield the leader")
	assert.InDelta(t, 0.25, p1After.Energy.Segments, 1e-9, "zeroed, then a failed block's reaction gain")
	assert.InDelta(t, 0, p2After.Energy.Segments, 1e-9)
	assert.InDelta(t, 0, p3After.Energy.Segments, 1e-9)
	assert.InDelta(t, 100, p3After.Stamina, 1e-9, "the conscripted evade never fires")
}

func TestResolveRound_MutualWipeScoresDefeat(t *testing.T) {
	p1 := makeFighter("p1", "Asha")
	p1.Rank = 3.0
	p1.Path = element.PathFlow
	p1.Stamina = 30
	p1.Energy = element.Progress{Segments: 1, Level: 0}
	e1 := makeFighter("e1", "Husk")
	e1.Parry = combat.Skill{Success: 0.6, FailureMitigation: 0.25}
	s := combat.NewState([]combat.Combatant{p1}, []combat.Combatant{e1})
	s = declareAll(t, s,
		combat.Action{Actor: "p1", Type: combat.ActionSpecial, Target: "e1", Segments: 1},
		combat.Action{Actor: "e1", Type: combat.ActionEvade},
	)

	// Roll 10 everywhere: the rank KO lands, the forced parry succeeds,
	// and the counter drops the attacker. Both sides empty at once.
	s, _, err := combat.ResolveRound(s, combat.DefaultRules(), fixedSrc{val: 10})
	require.NoError(t, err)

	p1After, _, _ := s.Find("p1")
	e1After, _, _ := s.Find("e1")
	assert.True(t, p1After.KO)
	assert.True(t, e1After.KO)
	assert.Equal(t, combat.StatusDefeat, s.Status, "a mutual wipe is still a loss")
	assert.Equal(t, combat.PhaseComplete, s.Phase)
}

func TestResolveRound_BoundaryGrantsStipend(t *testing.T) {
	p1 := makeFighter("p1", "Asha")
	p1.Energy = element.NewProgress(2)
	e1 := makeFighter("e1", "Husk")
	e1.Energy = element.NewProgress(2)
	s := combat.NewState([]combat.Combatant{p1}, []combat.Combatant{e1})
	s = declareAll(t, s,
		combat.Action{Actor: "p1", Type: combat.ActionEvade},
		combat.Action{Actor: "e1", Type: combat.ActionEvade},
	)

	s, record, err := combat.ResolveRound(s, combat.DefaultRules(), fixedSrc{val: 0})
	require.NoError(t, err)

	// 1 start + 1.25 evade gain (25% bonus at level 2) + 1 stipend.
	for _, id := range []string{"p1", "e1"} {
		c, _, _ := s.Find(id)
		assert.InDelta(t, 3.25, c.Energy.Segments, 1e-9, id)
	}
	assert.Equal(t, 2, s.Round)
	require.Len(t, record.Events, 2)
	require.NotNil(t, record.Events[0].Evade)
	assert.InDelta(t, 30, record.Events[0].Evade.Regen, 1e-9)
}

func TestResolveRound_RequiresFullDeclarations(t *testing.T) {
	s := makeState()
	s, err := s.Declare(combat.Action{Actor: "p1", Type: combat.ActionEvade})
	require.NoError(t, err)

	_, _, err = combat.ResolveRound(s, combat.DefaultRules(), fixedSrc{val: 0})
	assert.ErrorIs(t, err, combat.ErrIncompleteDeclarations)
	assert.Equal(t, 1, s.Round)
	assert.Equal(t, combat.PhaseDeclaration, s.Phase)
}

func TestResolveRound_RejectsCompletedCombat(t *testing.T) {
	p1 := makeFighter("p1", "Asha")
	p1.Rank = 3.0
	s := combat.NewState(
		[]combat.Combatant{p1},
		[]combat.Combatant{makeFighter("e1", "Husk")},
	)
	s = declareAll(t, s,
		combat.Action{Actor: "p1", Type: combat.ActionAttack, Target: "e1"},
		combat.Action{Actor: "e1", Type: combat.ActionEvade},
	)
	s, _, err := combat.ResolveRound(s, combat.DefaultRules(), fixedSrc{val: 10})
	require.NoError(t, err)
	require.Equal(t, combat.StatusVictory, s.Status)

	_, _, err = combat.ResolveRound(s, combat.DefaultRules(), fixedSrc{val: 10})
	assert.ErrorIs(t, err, combat.ErrCombatComplete)
}

func TestResolveRound_Deterministic(t *testing.T) {
	build := func() combat.State {
		players := []combat.Combatant{
			makeFighter("p1", "Asha"),
			makeFighter("p2", "Bren"),
			makeFighter("p3", "Cai"),
		}
		players[0].Speed = 14
		players[1].Path = element.PathThunder
		players[2].Energy = element.Progress{Segments: 2, Level: 0}
		enemies := []combat.Combatant{
			makeFighter("e1", "Husk"),
			makeFighter("e2", "Shade"),
			makeFighter("e3", "Wisp"),
		}
		enemies[1].Speed = 18
		enemies[2].Rank = 2.2
		s := combat.NewState(players, enemies)
		return declareAll(t, s,
			combat.Action{Actor: "p1", Type: combat.ActionAttack, Target: "e2"},
			combat.Action{Actor: "p2", Type: combat.ActionAttack, Target: "e1"},
			combat.Action{Actor: "p3", Type: combat.ActionSpecial, Target: "e3", Segments: 2},
			combat.Action{Actor: "e1", Type: combat.ActionDefend, Target: "e2"},
			combat.Action{Actor: "e2", Type: combat.ActionAttack, Target: "p3"},
			combat.Action{Actor: "e3", Type: combat.ActionEvade},
		)
	}

	first, firstRecord, err := combat.ResolveRound(build(), combat.DefaultRules(), roll.NewSeededSource(99))
	require.NoError(t, err)
	second, secondRecord, err := combat.ResolveRound(build(), combat.DefaultRules(), roll.NewSeededSource(99))
	require.NoError(t, err)

	assert.Equal(t, first, second, "identical state and roll sequence must replay identically")
	assert.Equal(t, firstRecord, secondRecord)
}
