package panel

import (
	"testing"

	"github.com/tablemark/quickbar/pkg/host"
	"github.com/tablemark/quickbar/pkg/model"
)

func TestResolvePrefersRequestedToken(t *testing.T) {
	env := newTestEnv()
	env.table.SetControlled("tok-2")

	id, warn := ResolveTokenID(env.table, env.settings, "tok-1")
	if id != "tok-1" || warn {
		t.Errorf("requested token should win: id=%s warn=%v", id, warn)
	}
}

func TestResolveControlledBeforeStored(t *testing.T) {
	env := newTestEnv()
	env.table.SetControlled("tok-2")
	env.settings.Set(host.SettingLastToken, "tok-1")

	if id, _ := ResolveTokenID(env.table, env.settings, ""); id != "tok-2" {
		t.Errorf("controlled should beat stored, got %s", id)
	}
}

func TestResolveStoredBeforeFirstOwned(t *testing.T) {
	env := newTestEnv()
	env.settings.Set(host.SettingLastToken, "tok-2")

	if id, _ := ResolveTokenID(env.table, env.settings, ""); id != "tok-2" {
		t.Errorf("stored last token should beat scene order, got %s", id)
	}
}

func TestResolveIgnoresStoredWhenNoLongerOwned(t *testing.T) {
	env := newTestEnv()
	env.settings.Set(host.SettingLastToken, "tok-3") // GM's token

	if id, _ := ResolveTokenID(env.table, env.settings, ""); id != "tok-1" {
		t.Errorf("unowned stored token should fall through to first owned, got %s", id)
	}
}

func TestResolveDeletedTokenFallsBack(t *testing.T) {
	env := newTestEnv()
	env.table.RemoveToken("tok-1")

	id, warn := ResolveTokenID(env.table, env.settings, "tok-1")
	if id != "tok-2" {
		t.Errorf("deleted binding should fall back to an owned token, got %s", id)
	}
	if warn {
		t.Error("falling back is not worth a warning while tokens remain")
	}
}

func TestShouldWarnNoTokenOnlyWhenNoneOwned(t *testing.T) {
	env := newTestEnv()
	env.table.RemoveToken("tok-1")
	env.table.RemoveToken("tok-2")

	ctx := BuildContext(env.buildInput("", TabItems))
	if !ctx.ShouldWarnNoToken {
		t.Error("owning zero tokens should warn")
	}
	if ctx.Bound {
		t.Error("nothing to bind to")
	}
}

func TestItemsTabSections(t *testing.T) {
	env := newTestEnv()
	ctx := BuildContext(env.buildInput("tok-1", TabItems))
	if !ctx.Bound || ctx.Title != "Aria" {
		t.Fatalf("context not bound to Aria: %+v", ctx)
	}

	weapons := findSection(ctx, "kind:weapon")
	if weapons == nil || len(weapons.Rows) != 2 {
		t.Fatalf("weapons section wrong: %+v", weapons)
	}
	if weapons.Rows[0].Name != "Axe" {
		t.Errorf("weapons should be name sorted, got %s first", weapons.Rows[0].Name)
	}

	dry := findRowIn(ctx, "i-dry")
	if dry == nil || !dry.Disabled {
		t.Error("consumable with zero uses should be disabled")
	}
	potion := findRowIn(ctx, "i-potion")
	if potion == nil || potion.Uses != "2/2" {
		t.Errorf("uses string wrong: %+v", potion)
	}
}

func TestSpellsTabUnpreparedModes(t *testing.T) {
	env := newTestEnv()

	in := env.buildInput("tok-1", TabSpells)
	in.Unprepared = UnpreparedHide
	ctx := BuildContext(in)
	if findRowIn(ctx, "s-sleep") != nil {
		t.Error("hide mode should drop unprepared spells")
	}
	if findRowIn(ctx, "s-shield") == nil || findRowIn(ctx, "s-bolt") == nil {
		t.Error("prepared and at-will spells must survive hide mode")
	}

	in.Unprepared = UnpreparedDisable
	ctx = BuildContext(in)
	sleep := findRowIn(ctx, "s-sleep")
	if sleep == nil || !sleep.Disabled {
		t.Error("disable mode should keep unprepared spells, disabled")
	}
	if shield := findRowIn(ctx, "s-shield"); shield == nil || shield.Disabled {
		t.Error("prepared spell should stay enabled")
	}

	in.Unprepared = UnpreparedIgnore
	ctx = BuildContext(in)
	if sleep := findRowIn(ctx, "s-sleep"); sleep == nil || sleep.Disabled {
		t.Error("ignore mode should leave unprepared spells usable")
	}
}

func TestSpellsTabLevelSectionsAndSlots(t *testing.T) {
	env := newTestEnv()
	ctx := BuildContext(env.buildInput("tok-1", TabSpells))

	if sec := findSection(ctx, "level:0"); sec == nil || sec.Title != "Cantrips" {
		t.Errorf("cantrip section wrong: %+v", sec)
	}
	lvl1 := findSection(ctx, "level:1")
	if lvl1 == nil {
		t.Fatal("level 1 section missing")
	}
	if lvl1.Title != "1st Circle ●●○○" {
		t.Errorf("level title should carry slot glyphs, got %q", lvl1.Title)
	}
	if ctx.SlotSummary != "L1 ●●○○ · Pact ●○" {
		t.Errorf("slot summary = %q", ctx.SlotSummary)
	}
}

func TestFeaturesTabPassiveNeedsForceShow(t *testing.T) {
	env := newTestEnv()
	ctx := BuildContext(env.buildInput("tok-1", TabFeatures))
	if findRowIn(ctx, "f-aura") != nil {
		t.Error("passive feature should stay off the bar")
	}
	if findRowIn(ctx, "f-surge") == nil {
		t.Error("action feature missing")
	}

	host.SetBool(env.flags, host.ItemScope("a1", "f-aura"), host.FlagForceShow, true)
	ctx = BuildContext(env.buildInput("tok-1", TabFeatures))
	if findRowIn(ctx, "f-aura") == nil {
		t.Error("force-shown passive feature should appear")
	}
}

func TestHiddenRowsRespectShowHidden(t *testing.T) {
	env := newTestEnv()
	host.SetBool(env.flags, host.ItemScope("a1", "i-axe"), host.FlagHidden, true)

	ctx := BuildContext(env.buildInput("tok-1", TabItems))
	if findRowIn(ctx, "i-axe") != nil {
		t.Error("hidden row should be omitted by default")
	}

	in := env.buildInput("tok-1", TabItems)
	in.ShowHidden = true
	ctx = BuildContext(in)
	axe := findRowIn(ctx, "i-axe")
	if axe == nil || !axe.Hidden {
		t.Error("show-hidden mode should surface the row, marked hidden")
	}
}

func TestAliasChangesNameAndOrder(t *testing.T) {
	env := newTestEnv()
	env.flags.Set(host.ItemScope("a1", "i-axe"), host.FlagAlias, "Zealot's Axe")

	ctx := BuildContext(env.buildInput("tok-1", TabItems))
	weapons := findSection(ctx, "kind:weapon")
	if weapons == nil || len(weapons.Rows) != 2 {
		t.Fatal("weapons section missing")
	}
	if weapons.Rows[0].ID != "i-mace" {
		t.Error("aliased name should sort after Mace")
	}
	if weapons.Rows[1].Name != "Zealot's Axe" {
		t.Errorf("alias not applied: %q", weapons.Rows[1].Name)
	}
}

func TestManualOrderOverlaysGrouping(t *testing.T) {
	env := newTestEnv()
	host.SetJSON(env.flags, host.ActorScope("a1"), host.FlagSortOrders,
		map[string][]string{"kind:weapon": {"i-mace", "i-axe"}})

	ctx := BuildContext(env.buildInput("tok-1", TabItems))
	weapons := findSection(ctx, "kind:weapon")
	if weapons.Rows[0].ID != "i-mace" || weapons.Rows[1].ID != "i-axe" {
		t.Errorf("manual order not applied: %s, %s", weapons.Rows[0].ID, weapons.Rows[1].ID)
	}
}

func TestChecksTabModifierStrings(t *testing.T) {
	env := newTestEnv()
	ctx := BuildContext(env.buildInput("tok-1", TabChecks))

	dex := findRowIn(ctx, "ability:dex")
	if dex == nil || dex.Modifier != "+3" {
		t.Errorf("dex check modifier = %+v", dex)
	}
	dexSave := findRowIn(ctx, "save:dex")
	if dexSave == nil || dexSave.Modifier != "+6" {
		t.Errorf("dex save modifier = %+v", dexSave)
	}
	stealth := findRowIn(ctx, "skill:stealth")
	if stealth == nil || stealth.Modifier != "+6" {
		t.Errorf("stealth modifier = %+v", stealth)
	}
	death := findRowIn(ctx, "death")
	if death == nil || death.Modifier != "+0" {
		t.Errorf("death save modifier = %+v", death)
	}
}

func TestStateTabTogglesAndCapabilities(t *testing.T) {
	env := newTestEnv()
	env.table.UpdateToken("tok-1", func(tok *model.Token) {
		tok.Statuses = []string{"prone"}
		tok.Movement = model.MoveFly
	})

	ctx := BuildContext(env.buildInput("tok-1", TabState))
	prone := findRowIn(ctx, "status:prone")
	if prone == nil || !prone.Toggled {
		t.Error("active status should render toggled")
	}
	fly := findRowIn(ctx, "move:fly")
	if fly == nil || !fly.Toggled || fly.Disabled {
		t.Errorf("current movement mode wrong: %+v", fly)
	}
	swim := findRowIn(ctx, "move:swim")
	if swim == nil || !swim.Disabled {
		t.Error("unsupported movement mode should be disabled")
	}
	if findRowIn(ctx, "effect:e-bless") == nil {
		t.Error("effect row missing")
	}
	hd := findRowIn(ctx, "hitdie")
	if hd == nil || hd.Uses != "3/5" {
		t.Errorf("hit die row wrong: %+v", hd)
	}
}

func TestCustomTabCollectsFavorites(t *testing.T) {
	env := newTestEnv()
	host.SetBool(env.flags, host.ItemScope("a1", "i-axe"), host.FlagFavorited, true)
	host.SetBool(env.flags, host.ItemScope("a1", "s-shield"), host.FlagFavorited, true)

	ctx := BuildContext(env.buildInput("tok-1", TabCustom))
	sec := findSection(ctx, "custom")
	if sec == nil || len(sec.Rows) != 2 {
		t.Fatalf("custom section wrong: %+v", sec)
	}
	shield := findRowIn(ctx, "s-shield")
	if shield == nil || shield.Kind != RowSpell {
		t.Errorf("favorited spell should keep its spell kind: %+v", shield)
	}
}

func TestFilterNarrowsRows(t *testing.T) {
	env := newTestEnv()
	in := env.buildInput("tok-1", TabItems)
	in.Filter = "axe"

	ctx := BuildContext(in)
	if findRowIn(ctx, "i-axe") == nil {
		t.Error("matching row filtered out")
	}
	if findRowIn(ctx, "i-potion") != nil {
		t.Error("non-matching row survived the filter")
	}
}

func TestContextIsDerivedFresh(t *testing.T) {
	env := newTestEnv()
	first := BuildContext(env.buildInput("tok-1", TabItems))

	env.table.UpdateActor("a1", func(a *model.Actor) {
		a.Item("i-potion").Uses.Value = 0
	})
	second := BuildContext(env.buildInput("tok-1", TabItems))

	if findRowIn(first, "i-potion").Disabled {
		t.Error("earlier context mutated retroactively")
	}
	potion := findRowIn(second, "i-potion")
	if potion == nil || !potion.Disabled {
		t.Error("fresh derivation should see the drained potion")
	}
}
