package panel

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tablemark/quickbar/pkg/grouping"
	"github.com/tablemark/quickbar/pkg/host"
)

// keyIntents maps key presses to panel intents. A key missing from the
// table falls through untouched; unknown input is never an error.
var keyIntents = map[string]func(*Controller) tea.Cmd{
	"tab":       func(c *Controller) tea.Cmd { c.shiftTab(1); return nil },
	"right":     func(c *Controller) tea.Cmd { c.shiftTab(1); return nil },
	"shift+tab": func(c *Controller) tea.Cmd { c.shiftTab(-1); return nil },
	"left":      func(c *Controller) tea.Cmd { c.shiftTab(-1); return nil },
	"1":         func(c *Controller) tea.Cmd { c.selectTab(0); return nil },
	"2":         func(c *Controller) tea.Cmd { c.selectTab(1); return nil },
	"3":         func(c *Controller) tea.Cmd { c.selectTab(2); return nil },
	"4":         func(c *Controller) tea.Cmd { c.selectTab(3); return nil },
	"5":         func(c *Controller) tea.Cmd { c.selectTab(4); return nil },
	"6":         func(c *Controller) tea.Cmd { c.selectTab(5); return nil },
	"/":         func(c *Controller) tea.Cmd { return c.startFilter() },
	"s":         func(c *Controller) tea.Cmd { c.cycleSortMode(); return nil },
	"u":         func(c *Controller) tea.Cmd { c.cycleUnpreparedMode(); return nil },
	"h":         func(c *Controller) tea.Cmd { c.toggleShowHidden(); return nil },
	"b":         func(c *Controller) tea.Cmd { c.cycleBinding(); return nil },
	"esc":       func(c *Controller) tea.Cmd { c.clearFilter(); return nil },
	"q":         func(c *Controller) tea.Cmd { c.Close(); return tea.Quit },
	"ctrl+c":    func(c *Controller) tea.Cmd { c.Close(); return tea.Quit },
}

func (c *Controller) handleKey(msg tea.KeyMsg) tea.Cmd {
	if c.overlay != nil {
		if cmd, handled := c.overlayKey(msg); handled {
			return cmd
		}
	}
	if c.filtering {
		return c.filterKey(msg)
	}
	if fn, ok := keyIntents[msg.String()]; ok {
		return fn(c)
	}
	return nil
}

// SetActiveTab switches tabs and re-renders synchronously. Tab changes
// are user intent and never wait out the debounce.
func (c *Controller) SetActiveTab(tab Tab) {
	if tab == c.activeTab {
		return
	}
	c.activeTab = tab
	c.overlay = nil
	c.drag = nil
	c.rebuild()
}

func (c *Controller) shiftTab(delta int) {
	for i, t := range TabOrder {
		if t == c.activeTab {
			next := (i + delta + len(TabOrder)) % len(TabOrder)
			c.SetActiveTab(TabOrder[next])
			return
		}
	}
	c.SetActiveTab(TabOrder[0])
}

func (c *Controller) selectTab(index int) {
	if index >= 0 && index < len(TabOrder) {
		c.SetActiveTab(TabOrder[index])
	}
}

// cycleSortMode advances the active tab's sort mode. The spell sort
// mode persists across sessions; the item priority is per-panel.
func (c *Controller) cycleSortMode() {
	switch c.activeTab {
	case TabItems:
		if c.itemSort == grouping.WeaponFirst {
			c.itemSort = grouping.ConsumableFirst
		} else {
			c.itemSort = grouping.WeaponFirst
		}
	case TabSpells:
		if c.spellSort == SpellSortLevel {
			c.spellSort = SpellSortName
		} else {
			c.spellSort = SpellSortLevel
		}
		if c.deps.Settings != nil {
			c.deps.Settings.Set(host.SettingSpellSortMode, string(c.spellSort))
		}
	default:
		return
	}
	c.rebuild()
}

// cycleUnpreparedMode rotates hide → disable → ignore and persists.
func (c *Controller) cycleUnpreparedMode() {
	switch c.unprepared {
	case UnpreparedHide:
		c.unprepared = UnpreparedDisable
	case UnpreparedDisable:
		c.unprepared = UnpreparedIgnore
	default:
		c.unprepared = UnpreparedHide
	}
	if c.deps.Settings != nil {
		c.deps.Settings.Set(host.SettingUnpreparedMode, string(c.unprepared))
	}
	c.rebuild()
}

func (c *Controller) toggleShowHidden() {
	c.showHidden = !c.showHidden
	c.rebuild()
}

// cycleBinding rebinds to the next owned token in scene order.
func (c *Controller) cycleBinding() {
	owned := c.deps.Registry.OwnedTokens()
	if len(owned) == 0 {
		return
	}
	current := c.TokenID()
	next := owned[0].ID
	for i, tok := range owned {
		if tok.ID == current {
			next = owned[(i+1)%len(owned)].ID
			break
		}
	}
	c.Bind(next)
}

// ── Quick filter ──────────────────────────────────────────────────────

func (c *Controller) startFilter() tea.Cmd {
	c.filtering = true
	c.filterInput.SetValue(c.filter)
	c.filterInput.CursorEnd()
	return c.filterInput.Focus()
}

func (c *Controller) clearFilter() {
	if !c.filtering && c.filter == "" {
		return
	}
	c.filtering = false
	c.filter = ""
	c.filterInput.SetValue("")
	c.filterInput.Blur()
	c.rebuild()
}

func (c *Controller) filterKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		c.clearFilter()
		return nil
	case "enter":
		c.filtering = false
		c.filterInput.Blur()
		return nil
	}
	var cmd tea.Cmd
	c.filterInput, cmd = c.filterInput.Update(msg)
	if v := c.filterInput.Value(); v != c.filter {
		c.filter = v
		c.rebuild()
	}
	return cmd
}

// ── Mouse ─────────────────────────────────────────────────────────────

func (c *Controller) handleMouse(msg tea.MouseMsg) tea.Cmd {
	if c.drag != nil {
		return c.dragMouse(msg)
	}

	switch {
	case msg.Action == tea.MouseActionMotion && msg.Button == tea.MouseButtonNone:
		return c.hoverMotion(msg.X, msg.Y)

	case msg.Button == tea.MouseButtonLeft && msg.Action == tea.MouseActionPress:
		if c.overlay != nil {
			if cmd, handled := c.overlayClick(msg.X, msg.Y); handled {
				return cmd
			}
			// A press outside the overlay dismisses it and nothing else.
			c.overlay = nil
			return nil
		}
		return c.pressRow(msg.X, msg.Y)

	case msg.Button == tea.MouseButtonLeft && msg.Action == tea.MouseActionRelease:
		return c.releaseRow(msg.X, msg.Y)

	case msg.Button == tea.MouseButtonRight && msg.Action == tea.MouseActionRelease:
		c.overlay = nil
		return c.secondaryClick(msg.X, msg.Y)
	}
	return nil
}

// hoverMotion arms the hover-card delay for the row under the pointer.
// Moving to another row rearms; leaving all rows closes the card.
func (c *Controller) hoverMotion(x, y int) tea.Cmd {
	rowID := c.rowAt(x, y)

	if hc, ok := c.overlay.(*hoverCard); ok && !hc.pinned && hc.row != rowID {
		c.overlay = nil
	}
	if rowID == c.hoverRow {
		return nil
	}
	c.hoverRow = rowID
	c.hoverGen++
	if rowID == "" {
		return nil
	}
	gen := c.hoverGen
	return tea.Tick(hoverDelay, func(time.Time) tea.Msg {
		return hoverFireMsg{gen: gen}
	})
}

// pressRow starts a potential drag on draggable rows; the press only
// becomes a drag past the movement threshold, and only becomes a click
// if released in place.
func (c *Controller) pressRow(x, y int) tea.Cmd {
	rowID := c.rowAt(x, y)
	if rowID == "" {
		return nil
	}
	row := c.findRow(rowID)
	if row == nil {
		return nil
	}
	if row.Draggable {
		c.beginDrag(rowID, x, y)
		return nil
	}
	return nil
}

// releaseRow fires the primary action of the row under the pointer.
// Releases inside the post-drag grace window are swallowed.
func (c *Controller) releaseRow(x, y int) tea.Cmd {
	if time.Now().Before(c.suppressClickUntil) {
		return nil
	}
	rowID := c.rowAt(x, y)
	if rowID == "" {
		return nil
	}
	row := c.findRow(rowID)
	if row == nil || row.Disabled {
		return nil
	}
	c.overlay = nil
	c.DispatchAction(row.Kind, row.Key, host.RollNormal)
	return nil
}

// secondaryClick opens the management popover matching the row: the
// full action popover on sheet entries, the effect popover on effects,
// and the roll-mode popover on roll-capable rows.
func (c *Controller) secondaryClick(x, y int) tea.Cmd {
	rowID := c.rowAt(x, y)
	if rowID == "" {
		return nil
	}
	row := c.findRow(rowID)
	if row == nil {
		return nil
	}
	switch row.Kind {
	case RowItem, RowSpell, RowFeature:
		c.openActionPopover(row, x, y)
	case RowEffect:
		c.openEffectPopover(row, x, y)
	default:
		if row.HasRollModes {
			c.openRollModePopover(row, x, y)
		}
	}
	return nil
}
