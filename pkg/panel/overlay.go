package panel

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/tablemark/quickbar/pkg/host"
	"github.com/tablemark/quickbar/pkg/ui"
)

// overlay is the closed set of floating surfaces. At most one overlay
// is open at a time, and never during an active drag.
type overlay interface {
	rowID() string
}

// hoverCard shows a row's summary and description near the pointer.
// A pinned card (opened via the Details action) ignores hover motion
// and closes only on Esc or outside click.
type hoverCard struct {
	row              string
	pinned           bool
	anchorX, anchorY int
}

func (h *hoverCard) rowID() string { return h.row }

// popoverAction is one line of the action popover.
type popoverAction struct {
	label    string
	disabled bool
	run      func(c *Controller)
}

// actionPopover is the secondary-click management menu on item rows.
type actionPopover struct {
	row              string
	actions          []popoverAction
	selected         int
	anchorX, anchorY int
}

func (p *actionPopover) rowID() string { return p.row }

// rollModePopover offers normal/advantage/disadvantage fast rolls on
// roll-capable rows.
type rollModePopover struct {
	row              string
	kind             RowKind
	key              string
	selected         int
	anchorX, anchorY int
}

func (p *rollModePopover) rowID() string { return p.row }

var rollModeOrder = []host.RollMode{host.RollNormal, host.RollAdvantage, host.RollDisadvantage}

var rollModeLabels = map[host.RollMode]string{
	host.RollNormal:       "Roll",
	host.RollAdvantage:    "Roll with advantage",
	host.RollDisadvantage: "Roll with disadvantage",
}

func (c *Controller) openHoverCard(rowID string, pinned bool) {
	row := c.findRow(rowID)
	if row == nil {
		return
	}
	x, y := 0, 0
	if c.layout != nil {
		if r, ok := c.layout.Row(rowID); ok {
			x, y = r.X, r.Y+r.H
		}
	}
	c.overlay = &hoverCard{row: rowID, pinned: pinned, anchorX: x, anchorY: y}
}

func (c *Controller) openActionPopover(row *Row, x, y int) {
	alias := c.rowAlias(row)
	p := &actionPopover{row: row.ID, anchorX: x, anchorY: y}
	p.actions = []popoverAction{
		{label: "Use", disabled: row.Disabled, run: func(c *Controller) {
			c.DispatchAction(row.Kind, row.Key, host.RollNormal)
		}},
		{label: "Roll modes", disabled: !row.HasRollModes, run: func(c *Controller) {
			c.openRollModePopover(row, x, y)
		}},
		{label: "Rename", run: func(c *Controller) { c.startRename(row) }},
		{label: "Reset name", disabled: alias == "", run: func(c *Controller) { c.resetName(row) }},
		{label: favoriteLabel(row), disabled: row.Hidden, run: func(c *Controller) { c.toggleFavorite(row) }},
		{label: hideLabel(row), disabled: row.Favorited, run: func(c *Controller) { c.toggleHidden(row) }},
		{label: "Details", run: func(c *Controller) { c.openHoverCard(row.ID, true) }},
		{label: "Send to log", run: func(c *Controller) { c.sendToLog(row) }},
	}
	c.overlay = p
}

func favoriteLabel(row *Row) string {
	if row.Favorited {
		return "Unfavorite"
	}
	return "Favorite"
}

func hideLabel(row *Row) string {
	if row.Hidden {
		return "Show"
	}
	return "Hide"
}

// openEffectPopover is the secondary-click menu on effect rows. Delete
// lives here and only here; the primary click stays a toggle.
func (c *Controller) openEffectPopover(row *Row, x, y int) {
	toggleLabel := "Disable"
	if !row.Toggled {
		toggleLabel = "Enable"
	}
	c.overlay = &actionPopover{
		row:     row.ID,
		anchorX: x,
		anchorY: y,
		actions: []popoverAction{
			{label: toggleLabel, run: func(c *Controller) {
				c.DispatchAction(row.Kind, row.Key, host.RollNormal)
			}},
			{label: "Delete", run: func(c *Controller) { c.deleteEffect(row) }},
			{label: "Send to log", run: func(c *Controller) { c.sendToLog(row) }},
		},
	}
}

func (c *Controller) openRollModePopover(row *Row, x, y int) {
	c.overlay = &rollModePopover{row: row.ID, kind: row.Kind, key: row.Key, anchorX: x, anchorY: y}
}

// overlayKey routes keys into the open overlay. The second result
// reports whether the key was consumed; unconsumed keys fall through to
// the global bindings.
func (c *Controller) overlayKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch ov := c.overlay.(type) {
	case *hoverCard:
		if msg.String() == "esc" {
			c.overlay = nil
			return nil, true
		}
		if !ov.pinned {
			// Any key dismisses a transient hover card but still acts.
			c.overlay = nil
		}
		return nil, false

	case *actionPopover:
		switch msg.String() {
		case "esc":
			c.overlay = nil
			return nil, true
		case "up", "k":
			ov.selected = movePopoverSelection(ov.actions, ov.selected, -1)
			return nil, true
		case "down", "j":
			ov.selected = movePopoverSelection(ov.actions, ov.selected, 1)
			return nil, true
		case "enter":
			action := ov.actions[ov.selected]
			c.overlay = nil
			if !action.disabled {
				action.run(c)
			}
			return nil, true
		}
		return nil, true // popover is modal

	case *rollModePopover:
		switch msg.String() {
		case "esc":
			c.overlay = nil
			return nil, true
		case "up", "k":
			if ov.selected > 0 {
				ov.selected--
			}
			return nil, true
		case "down", "j":
			if ov.selected < len(rollModeOrder)-1 {
				ov.selected++
			}
			return nil, true
		case "enter":
			mode := rollModeOrder[ov.selected]
			c.overlay = nil
			c.DispatchAction(ov.kind, ov.key, mode)
			return nil, true
		}
		return nil, true
	}
	return nil, false
}

// overlayClick executes the popover line under the pointer. Clicks
// outside the overlay are not consumed; the caller dismisses.
func (c *Controller) overlayClick(x, y int) (tea.Cmd, bool) {
	bounds := c.overlayBounds()
	if !bounds.Contains(x, y) {
		return nil, false
	}

	switch ov := c.overlay.(type) {
	case *hoverCard:
		return nil, true // clicks inside the card are inert

	case *actionPopover:
		idx := y - bounds.Y
		if idx < 0 || idx >= len(ov.actions) {
			return nil, true
		}
		action := ov.actions[idx]
		c.overlay = nil
		if !action.disabled {
			action.run(c)
		}
		return nil, true

	case *rollModePopover:
		idx := y - bounds.Y
		if idx < 0 || idx >= len(rollModeOrder) {
			return nil, true
		}
		mode := rollModeOrder[idx]
		c.overlay = nil
		c.DispatchAction(ov.kind, ov.key, mode)
		return nil, true
	}
	return nil, false
}

func movePopoverSelection(actions []popoverAction, current, delta int) int {
	next := current
	for {
		next += delta
		if next < 0 || next >= len(actions) {
			return current
		}
		if !actions[next].disabled {
			return next
		}
	}
}

// overlayBounds returns the on-screen rect of the open overlay after
// viewport clamping, matching what renderOverlay produced.
func (c *Controller) overlayBounds() Rect {
	lines, x, y := c.overlayLines()
	if len(lines) == 0 {
		return Rect{}
	}
	w := 0
	for _, l := range lines {
		if lw := visibleWidth(l); lw > w {
			w = lw
		}
	}
	return Rect{X: x, Y: y, W: w, H: len(lines)}
}

// overlayLines renders the open overlay to styled lines plus its
// clamped anchor.
func (c *Controller) overlayLines() ([]string, int, int) {
	switch ov := c.overlay.(type) {
	case *hoverCard:
		lines := c.hoverCardLines(ov)
		x, y := ui.ClampAnchor(ov.anchorX, ov.anchorY, maxLineWidth(lines), len(lines), c.width, c.height)
		return lines, x, y
	case *actionPopover:
		lines := actionPopoverLines(ov)
		x, y := ui.ClampAnchor(ov.anchorX, ov.anchorY, maxLineWidth(lines), len(lines), c.width, c.height)
		return lines, x, y
	case *rollModePopover:
		lines := rollModePopoverLines(ov)
		x, y := ui.ClampAnchor(ov.anchorX, ov.anchorY, maxLineWidth(lines), len(lines), c.width, c.height)
		return lines, x, y
	}
	return nil, 0, 0
}

// hoverCardWidth is the inner text width of the hover card.
const hoverCardWidth = 44

func (c *Controller) hoverCardLines(ov *hoverCard) []string {
	row := c.findRow(ov.row)
	if row == nil {
		return nil
	}

	var content []string
	title := row.Name
	if row.Uses != "" {
		title += "  " + row.Uses
	}
	content = append(content, ui.OverlayTitleStyle.Render(title))
	if row.Modifier != "" {
		content = append(content, ui.OverlayTextStyle.Render("Modifier "+row.Modifier))
	}
	for _, tag := range row.Tags {
		content = append(content, ui.OverlayTagStyle.Render("⚠ "+tag))
	}
	if row.Description != "" {
		for _, line := range renderDescription(row.Description, hoverCardWidth) {
			content = append(content, ui.OverlayTextStyle.Render(line))
		}
	}

	out := make([]string, len(content))
	for i, line := range content {
		out[i] = ui.PadOverlayLine(line, hoverCardWidth, ui.OverlayBackground)
	}
	return out
}

// renderDescription runs the description through the markdown renderer
// and falls back to plain excerpt lines when rendering fails.
func renderDescription(desc string, width int) []string {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err == nil {
		if rendered, err := r.Render(desc); err == nil {
			var lines []string
			for _, l := range strings.Split(strings.Trim(rendered, "\n"), "\n") {
				lines = append(lines, strings.TrimRight(l, " "))
			}
			return lines
		}
	}
	return ui.ExtractExcerpt(desc, width, 8)
}

func actionPopoverLines(ov *actionPopover) []string {
	width := 0
	for _, a := range ov.actions {
		if len(a.label) > width {
			width = len(a.label)
		}
	}
	out := make([]string, len(ov.actions))
	for i, a := range ov.actions {
		style := ui.OverlayTextStyle
		switch {
		case a.disabled:
			style = ui.OverlayDisabledStyle
		case i == ov.selected:
			style = ui.OverlaySelectedStyle
		}
		out[i] = ui.PadOverlayLine(style.Render(a.label), width, ui.OverlayBackground)
	}
	return out
}

func rollModePopoverLines(ov *rollModePopover) []string {
	width := 0
	for _, m := range rollModeOrder {
		if len(rollModeLabels[m]) > width {
			width = len(rollModeLabels[m])
		}
	}
	out := make([]string, len(rollModeOrder))
	for i, m := range rollModeOrder {
		style := ui.OverlayTextStyle
		if i == ov.selected {
			style = ui.OverlaySelectedStyle
		}
		out[i] = ui.PadOverlayLine(style.Render(rollModeLabels[m]), width, ui.OverlayBackground)
	}
	return out
}

func maxLineWidth(lines []string) int {
	w := 0
	for _, l := range lines {
		if lw := visibleWidth(l); lw > w {
			w = lw
		}
	}
	return w
}
