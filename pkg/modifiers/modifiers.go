// Package modifiers derives numeric roll modifiers from actor attributes
// and formats them for display. Every derivation accepts a nil actor and
// returns nil (rendered as the unavailable marker) instead of failing.
package modifiers

import (
	"strconv"

	"github.com/tablemark/quickbar/pkg/model"
)

// Unavailable is rendered when a modifier cannot be derived.
const Unavailable = "—"

// FormatSigned renders a modifier with an explicit sign. Zero renders as
// "+0"; a nil value renders as the unavailable marker, never as "0".
func FormatSigned(n *int) string {
	if n == nil {
		return Unavailable
	}
	if *n >= 0 {
		return "+" + strconv.Itoa(*n)
	}
	return strconv.Itoa(*n)
}

// AbilityScoreMod converts a raw ability score to its modifier.
func AbilityScoreMod(score int) int {
	if score < 0 {
		score = 0
	}
	return score/2 - 5
}

// AbilityCheckBonus returns the actor's check modifier for an ability.
// A precomputed Mod wins; otherwise the modifier is derived from the
// score. Returns nil when the ability is absent.
func AbilityCheckBonus(actor *model.Actor, ability string) *int {
	if actor == nil {
		return nil
	}
	abi, ok := actor.Abilities[ability]
	if !ok {
		return nil
	}
	if abi.Mod != nil {
		v := *abi.Mod
		return &v
	}
	v := AbilityScoreMod(abi.Score)
	return &v
}

// AbilitySaveBonus returns the actor's saving throw modifier for an
// ability. A precomputed Save wins; otherwise the check modifier plus
// proficiency bonus when the save proficiency flag is set.
func AbilitySaveBonus(actor *model.Actor, ability string) *int {
	if actor == nil {
		return nil
	}
	abi, ok := actor.Abilities[ability]
	if !ok {
		return nil
	}
	if abi.Save != nil {
		v := *abi.Save
		return &v
	}
	base := AbilityCheckBonus(actor, ability)
	if base == nil {
		return nil
	}
	v := *base
	if abi.Proficient {
		v += actor.Prof
	}
	return &v
}

// SkillCheckBonus returns the host-computed skill total. There is no
// manual fallback formula: skill math is host-system specific.
func SkillCheckBonus(actor *model.Actor, skill string) *int {
	if actor == nil {
		return nil
	}
	sk, ok := actor.Skills[skill]
	if !ok || sk.Total == nil {
		return nil
	}
	v := *sk.Total
	return &v
}

// InitiativeBonus returns the initiative modifier. A precomputed total
// wins; otherwise the dexterity modifier plus the initiative bonus.
func InitiativeBonus(actor *model.Actor) *int {
	if actor == nil {
		return nil
	}
	if actor.Init.Total != nil {
		v := *actor.Init.Total
		return &v
	}
	dex := AbilityCheckBonus(actor, "dex")
	if dex == nil {
		return nil
	}
	v := *dex + actor.Init.Bonus
	return &v
}

// DeathSaveBonus returns the death save modifier. Death saves are
// unmodified d20 rolls.
func DeathSaveBonus(actor *model.Actor) *int {
	if actor == nil {
		return nil
	}
	v := 0
	return &v
}
