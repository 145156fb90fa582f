package combat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tgoodington/Ancient-Order-sub001/internal/game/combat"
)

func TestActionType_PriorityClass(t *testing.T) {
	assert.Equal(t, 0, combat.ActionGroup.PriorityClass())
	assert.Equal(t, 1, combat.ActionDefend.PriorityClass())
	assert.Equal(t, 2, combat.ActionAttack.PriorityClass())
	assert.Equal(t, 2, combat.ActionSpecial.PriorityClass())
	assert.Equal(t, 3, combat.ActionEvade.PriorityClass())
}

func TestActionType_Targeted(t *testing.T) {
	for _, at := range combat.ActionTypes() {
		if at == combat.ActionEvade {
			assert.False(t, at.Targeted(), "%s takes no target", at)
		} else {
			assert.True(t, at.Targeted(), "%s requires a target", at)
		}
	}
}

func TestActionType_String(t *testing.T) {
	assert.Equal(t, "attack", combat.ActionAttack.String())
	assert.Equal(t, "defend", combat.ActionDefend.String())
	assert.Equal(t, "evade", combat.ActionEvade.String())
	assert.Equal(t, "special", combat.ActionSpecial.String())
	assert.Equal(t, "group", combat.ActionGroup.String())
	assert.Equal(t, "unknown", combat.ActionUnknown.String())
}
