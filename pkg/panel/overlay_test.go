package panel

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tablemark/quickbar/pkg/host"
	"github.com/tablemark/quickbar/pkg/model"
)

func hover(x, y int) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionMotion, Button: tea.MouseButtonNone}
}

func rightRelease(x, y int) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionRelease, Button: tea.MouseButtonRight}
}

func key(t tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: t} }

func TestStaleHoverTimerDoesNotOpenCard(t *testing.T) {
	env := newTestEnv()
	c := env.controller("tok-1")
	axe, mace := weaponRects(t, c)

	c.Update(hover(axe.X, axe.Y))
	stale := c.hoverGen
	c.Update(hover(mace.X, mace.Y))

	c.Update(hoverFireMsg{gen: stale})
	if c.overlay != nil {
		t.Error("stale hover timer opened a card")
	}

	c.Update(hoverFireMsg{gen: c.hoverGen})
	hc, ok := c.overlay.(*hoverCard)
	if !ok || hc.row != "i-mace" {
		t.Errorf("live hover timer should open the mace card, got %#v", c.overlay)
	}
}

func TestHoverCardFollowsThePointerAway(t *testing.T) {
	env := newTestEnv()
	c := env.controller("tok-1")
	axe, mace := weaponRects(t, c)

	c.Update(hover(axe.X, axe.Y))
	c.Update(hoverFireMsg{gen: c.hoverGen})
	if c.overlay == nil {
		t.Fatal("fixture: card not open")
	}

	c.Update(hover(mace.X, mace.Y))
	if c.overlay != nil {
		t.Error("moving to another row should dismiss the transient card")
	}
}

func TestPinnedCardIgnoresHoverMotion(t *testing.T) {
	env := newTestEnv()
	c := env.controller("tok-1")
	axe, mace := weaponRects(t, c)

	c.openHoverCard("i-axe", true)
	c.Update(hover(mace.X, mace.Y))
	if _, ok := c.overlay.(*hoverCard); !ok {
		t.Fatal("pinned card dismissed by motion")
	}

	c.Update(key(tea.KeyEsc))
	if c.overlay != nil {
		t.Error("esc should close the pinned card")
	}
	_ = axe
}

func TestClicksInsideHoverCardAreInert(t *testing.T) {
	env := newTestEnv()
	c := env.controller("tok-1")
	weaponRects(t, c)

	c.openHoverCard("i-axe", true)
	c.View()
	bounds := c.overlayBounds()

	c.Update(press(bounds.X, bounds.Y))
	if c.overlay == nil {
		t.Error("click inside the card dismissed it")
	}
	if env.engine.callCount() != 0 {
		t.Errorf("click inside the card dispatched: %v", env.engine.calls)
	}
}

func TestRightClickOpensActionPopover(t *testing.T) {
	env := newTestEnv()
	c := env.controller("tok-1")
	axe, _ := weaponRects(t, c)

	c.Update(rightRelease(axe.X, axe.Y))
	p, ok := c.overlay.(*actionPopover)
	if !ok {
		t.Fatalf("overlay = %#v, want action popover", c.overlay)
	}
	if p.row != "i-axe" || len(p.actions) != 8 {
		t.Errorf("popover = %q with %d actions", p.row, len(p.actions))
	}
}

func TestActionPopoverDisablesConflictingActions(t *testing.T) {
	env := newTestEnv()
	host.SetBool(env.flags, host.ItemScope("a1", "i-axe"), host.FlagHidden, true)
	c := env.controller("tok-1")
	c.showHidden = true
	c.Update(rebuildMsg{})
	axe, _ := weaponRects(t, c)

	c.Update(rightRelease(axe.X, axe.Y))
	p, ok := c.overlay.(*actionPopover)
	if !ok {
		t.Fatal("popover did not open")
	}
	byLabel := map[string]popoverAction{}
	for _, a := range p.actions {
		byLabel[a.label] = a
	}
	if fav, ok := byLabel["Favorite"]; !ok || !fav.disabled {
		t.Error("favorite must be disabled on a hidden row")
	}
	if show, ok := byLabel["Show"]; !ok || show.disabled {
		t.Error("a hidden row should offer Show")
	}
	if reset, ok := byLabel["Reset name"]; !ok || !reset.disabled {
		t.Error("reset name should be disabled without an alias")
	}
}

func TestPopoverSelectionSkipsDisabled(t *testing.T) {
	actions := []popoverAction{
		{label: "a"},
		{label: "b", disabled: true},
		{label: "c", disabled: true},
		{label: "d"},
	}
	if got := movePopoverSelection(actions, 0, 1); got != 3 {
		t.Errorf("down from 0 = %d, want 3", got)
	}
	if got := movePopoverSelection(actions, 3, -1); got != 0 {
		t.Errorf("up from 3 = %d, want 0", got)
	}
	// No enabled action past the end: stay put.
	if got := movePopoverSelection(actions, 3, 1); got != 3 {
		t.Errorf("down from the last = %d, want 3", got)
	}
}

func TestPopoverIsModal(t *testing.T) {
	env := newTestEnv()
	c := env.controller("tok-1")
	axe, _ := weaponRects(t, c)

	c.Update(rightRelease(axe.X, axe.Y))
	before := c.activeTab
	c.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'2'}})
	if c.activeTab != before {
		t.Error("tab binding leaked through an open popover")
	}
	if _, ok := c.overlay.(*actionPopover); !ok {
		t.Error("popover closed by a swallowed key")
	}
}

func TestEffectRowSecondaryClickOpensPopover(t *testing.T) {
	env := newTestEnv()
	c := env.controller("tok-1")
	c.SetActiveTab(TabState)
	c.View()

	rect, ok := c.layout.Row("effect:e-bless")
	if !ok {
		t.Fatal("effect row missing from layout")
	}
	c.Update(rightRelease(rect.X, rect.Y))
	p, ok := c.overlay.(*actionPopover)
	if !ok {
		t.Fatalf("overlay = %#v, want effect popover", c.overlay)
	}
	if len(p.actions) != 3 || p.actions[0].label != "Disable" || p.actions[1].label != "Delete" {
		t.Errorf("effect popover actions wrong: %+v", p.actions)
	}
}

func TestEffectPopoverDeletesEffect(t *testing.T) {
	env := newTestEnv()
	c := env.controller("tok-1")
	c.SetActiveTab(TabState)
	c.View()

	rect, _ := c.layout.Row("effect:e-bless")
	c.Update(rightRelease(rect.X, rect.Y))
	c.Update(key(tea.KeyDown))
	c.Update(key(tea.KeyEnter))

	if env.table.Actor("a1").Effect("e-bless") != nil {
		t.Fatal("effect survived the delete action")
	}
	if c.overlay != nil {
		t.Error("popover should close on delete")
	}
	c.Update(rebuildMsg{})
	if findRowIn(c.Context(), "effect:e-bless") != nil {
		t.Error("deleted effect still renders")
	}
}

func TestDeleteVanishedEffectWarns(t *testing.T) {
	env := newTestEnv()
	c := env.controller("tok-1")
	c.SetActiveTab(TabState)
	row := findRowIn(c.Context(), "effect:e-bless")
	if row == nil {
		t.Fatal("effect row missing")
	}

	env.table.DeleteEffect("a1", "e-bless")
	c.deleteEffect(row)

	if env.notify.warnCount() != 1 {
		t.Errorf("deleting a vanished effect should warn, got %d warns", env.notify.warnCount())
	}
}

func TestRollModePopoverDispatchesOnce(t *testing.T) {
	env := newTestEnv()
	c := env.controller("tok-1")
	c.SetActiveTab(TabChecks)
	c.View()

	rect, ok := c.layout.Row("ability:dex")
	if !ok {
		t.Fatal("dex row missing from layout")
	}
	c.Update(rightRelease(rect.X, rect.Y))
	if _, ok := c.overlay.(*rollModePopover); !ok {
		t.Fatalf("overlay = %#v, want roll-mode popover", c.overlay)
	}

	c.Update(key(tea.KeyDown))
	c.Update(key(tea.KeyEnter))

	if env.engine.callCount() != 1 {
		t.Fatalf("engine calls = %v, want exactly one", env.engine.calls)
	}
	if env.engine.calls[0] != "check:dex" || env.engine.modes[0] != host.RollAdvantage {
		t.Errorf("dispatched %s %v", env.engine.calls[0], env.engine.modes[0])
	}
	if c.overlay != nil {
		t.Error("popover should close on dispatch")
	}
}

func TestRollModePopoverClickDispatches(t *testing.T) {
	env := newTestEnv()
	c := env.controller("tok-1")
	c.SetActiveTab(TabChecks)
	c.View()

	rect, _ := c.layout.Row("save:dex")
	c.Update(rightRelease(rect.X, rect.Y))
	c.View()
	bounds := c.overlayBounds()

	// Third line is disadvantage.
	c.Update(press(bounds.X, bounds.Y+2))
	if env.engine.callCount() != 1 || env.engine.modes[0] != host.RollDisadvantage {
		t.Errorf("click dispatch wrong: %v %v", env.engine.calls, env.engine.modes)
	}
}

func TestDescriptionCappedForHover(t *testing.T) {
	env := newTestEnv()
	long := strings.Repeat("lorem ipsum ", 100)
	env.table.UpdateActor("a1", func(a *model.Actor) {
		a.Item("i-axe").Description = long
	})

	ctx := BuildContext(env.buildInput("tok-1", TabItems))
	desc := findRowIn(ctx, "i-axe").Description
	if got := len([]rune(desc)); got > descriptionCap+1 {
		t.Errorf("description carries %d runes, cap is %d", got, descriptionCap)
	}
	if !strings.HasSuffix(desc, "…") {
		t.Error("truncated description should end with an ellipsis")
	}
}
