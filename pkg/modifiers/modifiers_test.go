package modifiers

import (
	"testing"

	"github.com/tablemark/quickbar/pkg/model"
)

func intPtr(n int) *int { return &n }

func TestFormatSigned(t *testing.T) {
	tests := []struct {
		name string
		in   *int
		want string
	}{
		{"zero renders plus zero", intPtr(0), "+0"},
		{"positive gets plus", intPtr(5), "+5"},
		{"negative keeps minus", intPtr(-3), "-3"},
		{"missing renders marker", nil, "—"},
	}
	for _, tt := range tests {
		if got := FormatSigned(tt.in); got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestAbilityScoreMod(t *testing.T) {
	tests := []struct {
		score int
		want  int
	}{
		{10, 0},
		{11, 0},
		{12, 1},
		{8, -1},
		{20, 5},
		{3, -4},
		{1, -5},
		{-5, -5}, // negative scores clamp to zero before derivation
	}
	for _, tt := range tests {
		if got := AbilityScoreMod(tt.score); got != tt.want {
			t.Errorf("AbilityScoreMod(%d) = %d, want %d", tt.score, got, tt.want)
		}
	}
}

func TestAbilityCheckBonusPrefersPrecomputed(t *testing.T) {
	actor := &model.Actor{
		ID:   "a1",
		Name: "Test",
		Abilities: map[string]model.Ability{
			"str": {Score: 8, Mod: intPtr(7)},
			"dex": {Score: 14},
		},
	}

	if got := AbilityCheckBonus(actor, "str"); got == nil || *got != 7 {
		t.Errorf("precomputed mod should win, got %v", got)
	}
	if got := AbilityCheckBonus(actor, "dex"); got == nil || *got != 2 {
		t.Errorf("derived mod for score 14 should be 2, got %v", got)
	}
	if got := AbilityCheckBonus(actor, "cha"); got != nil {
		t.Errorf("absent ability should derive nil, got %v", got)
	}
}

func TestAbilitySaveBonus(t *testing.T) {
	actor := &model.Actor{
		ID:   "a1",
		Name: "Test",
		Prof: 3,
		Abilities: map[string]model.Ability{
			"con": {Score: 14, Proficient: true},
			"wis": {Score: 14},
			"cha": {Score: 8, Save: intPtr(9)},
		},
	}

	if got := AbilitySaveBonus(actor, "con"); got == nil || *got != 5 {
		t.Errorf("proficient save should add prof, got %v", got)
	}
	if got := AbilitySaveBonus(actor, "wis"); got == nil || *got != 2 {
		t.Errorf("non-proficient save should not add prof, got %v", got)
	}
	if got := AbilitySaveBonus(actor, "cha"); got == nil || *got != 9 {
		t.Errorf("precomputed save should win, got %v", got)
	}
}

func TestSkillCheckBonusNoFallback(t *testing.T) {
	actor := &model.Actor{
		ID:   "a1",
		Name: "Test",
		Abilities: map[string]model.Ability{
			"dex": {Score: 18},
		},
		Skills: map[string]model.Skill{
			"stealth":    {Ability: "dex", Total: intPtr(6)},
			"acrobatics": {Ability: "dex"},
		},
	}

	if got := SkillCheckBonus(actor, "stealth"); got == nil || *got != 6 {
		t.Errorf("skill total should be used, got %v", got)
	}
	if got := SkillCheckBonus(actor, "acrobatics"); got != nil {
		t.Errorf("skill without a total has no fallback formula, got %v", got)
	}
}

func TestInitiativeBonus(t *testing.T) {
	withTotal := &model.Actor{
		ID: "a1", Name: "T",
		Init:      model.Initiative{Total: intPtr(8), Bonus: 2},
		Abilities: map[string]model.Ability{"dex": {Score: 14}},
	}
	if got := InitiativeBonus(withTotal); got == nil || *got != 8 {
		t.Errorf("precomputed total should win, got %v", got)
	}

	derived := &model.Actor{
		ID: "a2", Name: "T",
		Init:      model.Initiative{Bonus: 1},
		Abilities: map[string]model.Ability{"dex": {Score: 14}},
	}
	if got := InitiativeBonus(derived); got == nil || *got != 3 {
		t.Errorf("dex mod plus bonus should be 3, got %v", got)
	}
}

func TestNilActorIsSafe(t *testing.T) {
	if AbilityCheckBonus(nil, "str") != nil {
		t.Error("nil actor ability check should be nil")
	}
	if AbilitySaveBonus(nil, "str") != nil {
		t.Error("nil actor save should be nil")
	}
	if SkillCheckBonus(nil, "stealth") != nil {
		t.Error("nil actor skill should be nil")
	}
	if InitiativeBonus(nil) != nil {
		t.Error("nil actor initiative should be nil")
	}
	if DeathSaveBonus(nil) != nil {
		t.Error("nil actor death save should be nil")
	}
}
