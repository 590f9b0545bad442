package panel

import (
	"log/slog"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"

	"github.com/tablemark/quickbar/pkg/ui"
)

// maxButtonNameWidth caps a button's name in display cells so one
// verbose sheet entry cannot eat a whole line.
const maxButtonNameWidth = 24

// Rect is a screen-space rectangle in cells.
type Rect struct {
	X, Y, W, H int
}

// Contains reports whether the point lies inside the rect.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// Layout records where each row landed during the last render, for
// mouse hit-testing and drag slot targeting.
type Layout struct {
	rows  map[string]Rect
	slots map[string][]Rect
}

func newLayout() *Layout {
	return &Layout{rows: map[string]Rect{}, slots: map[string][]Rect{}}
}

// Row returns the rect of a rendered row.
func (l *Layout) Row(rowID string) (Rect, bool) {
	r, ok := l.rows[rowID]
	return r, ok
}

// Slot returns the rect of the i-th display slot in a section.
func (l *Layout) Slot(sectionKey string, i int) (Rect, bool) {
	slots := l.slots[sectionKey]
	if i < 0 || i >= len(slots) {
		return Rect{}, false
	}
	return slots[i], true
}

// rowAt returns the ID of the row under the point, or "".
func (c *Controller) rowAt(x, y int) string {
	if c.layout == nil {
		return ""
	}
	for id, r := range c.layout.rows {
		if r.Contains(x, y) {
			return id
		}
	}
	return ""
}

func visibleWidth(s string) int {
	return ansi.StringWidth(s)
}

// View renders the panel and records the row layout as a side effect;
// hit-testing always matches what is on screen.
func (c *Controller) View() string {
	if c.rename != nil {
		return c.rename.form.View()
	}
	if c.ctx == nil {
		return "loading table…"
	}

	width := c.width
	if width <= 0 {
		width = 80
	}

	layout := newLayout()
	var lines []string

	lines = append(lines, c.titleLine())
	lines = append(lines, c.tabLine())
	if c.filtering || c.filter != "" {
		lines = append(lines, c.filterInput.View())
	}
	if mode := c.modeLine(); mode != "" {
		lines = append(lines, mode)
	}
	lines = append(lines, "")

	if !c.ctx.Bound {
		if c.ctx.ShouldWarnNoToken {
			lines = append(lines, ui.WarnStyle.Render("You own no tokens on this table."))
		} else {
			lines = append(lines, ui.StatusBarStyle.Render("No token bound. Press b to bind one."))
		}
	}

	for _, sec := range c.ctx.Sections {
		lines = append(lines, ui.SectionTitleStyle.Render(sec.Title))
		lines = append(lines, c.renderSection(sec, width, len(lines), layout)...)
		lines = append(lines, "")
	}

	lines = append(lines, c.statusLine())
	c.layout = layout

	view := strings.Join(lines, "\n")
	view = c.spliceDrag(view)
	if c.overlay != nil {
		if ov, x, y := c.overlayLines(); len(ov) > 0 {
			view = ui.SpliceOverlay(view, ov, x, y)
		}
	}
	return view
}

func (c *Controller) titleLine() string {
	title := ui.TitleStyle.Render("⚑ " + c.ctx.Title)
	if c.ctx.ShouldWarnNoToken {
		title += " " + ui.WarnStyle.Render("(no tokens owned)")
	}
	return title
}

func (c *Controller) tabLine() string {
	var parts []string
	for _, tab := range c.ctx.Tabs {
		if tab == c.ctx.ActiveTab {
			parts = append(parts, ui.ActiveTabStyle.Render(tab.Title()))
		} else {
			parts = append(parts, ui.TabStyle.Render(tab.Title()))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

// modeLine shows the active tab's mode selectors and, on the spells
// tab, the slot summary.
func (c *Controller) modeLine() string {
	var parts []string
	for _, opt := range c.ctx.SortOptions {
		if opt.Selected {
			parts = append(parts, ui.ToggledButtonStyle.Render(opt.Label))
		}
	}
	if c.ctx.ActiveTab == TabSpells {
		for _, opt := range c.ctx.UnpreparedOptions {
			if opt.Selected {
				parts = append(parts, ui.ToggledButtonStyle.Render(opt.Label))
			}
		}
		if c.ctx.SlotSummary != "" {
			parts = append(parts, ui.StatusBarStyle.Render(c.ctx.SlotSummary))
		}
	}
	if c.showHidden {
		parts = append(parts, ui.WarnStyle.Render("showing hidden"))
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, " ")
}

// renderSection flows the section's buttons into wrapped lines starting
// at startY, recording each button's rect and slot.
func (c *Controller) renderSection(sec SectionView, width, startY int, layout *Layout) []string {
	rows := sec.Rows
	dragging := c.drag != nil && c.drag.Active && c.drag.SectionKey == sec.Key
	if dragging {
		rows = reorderRows(rows, c.drag.Order)
	}

	var lines []string
	var current []string
	x := 0
	y := startY

	flush := func() {
		if len(current) == 0 {
			return
		}
		lines = append(lines, strings.Join(current, " "))
		current = nil
		x = 0
		y++
	}

	for _, row := range rows {
		label := c.buttonLabel(row)
		rendered := c.buttonStyle(row, dragging).Render(label)
		w := visibleWidth(rendered)

		// Settling offset after a reorder, rendered as leading gap.
		if off := c.RowOffset(row.ID); off > 0 {
			rendered = strings.Repeat(" ", off) + rendered
			w += off
		}

		if x > 0 && x+1+w > width {
			flush()
		}
		if x > 0 {
			x++ // separator
		}
		rect := Rect{X: x, Y: y, W: w, H: 1}
		layout.rows[row.ID] = rect
		layout.slots[sec.Key] = append(layout.slots[sec.Key], rect)
		current = append(current, rendered)
		x += w
	}
	flush()
	return lines
}

func (c *Controller) buttonLabel(row Row) string {
	var b strings.Builder
	if row.Icon != "" {
		b.WriteString(row.Icon)
		b.WriteString(" ")
	}
	if row.Favorited {
		b.WriteString("★ ")
	}
	b.WriteString(runewidth.Truncate(row.Name, maxButtonNameWidth, "…"))
	if row.Uses != "" {
		b.WriteString(" ")
		b.WriteString(row.Uses)
	}
	if row.Modifier != "" {
		b.WriteString(" ")
		b.WriteString(ui.ModStyle.Render(row.Modifier))
	}
	return b.String()
}

func (c *Controller) buttonStyle(row Row, dragging bool) lipgloss.Style {
	if dragging && c.drag != nil && row.ID == c.drag.RowID {
		return ui.PlaceholderStyle
	}
	switch {
	case row.Disabled:
		return ui.DisabledButtonStyle
	case row.Toggled:
		return ui.ToggledButtonStyle
	case row.Hidden:
		return ui.DisabledButtonStyle
	case row.Favorited:
		return ui.FavoritedButtonStyle
	default:
		return ui.ButtonStyle
	}
}

// spliceDrag floats the dragged button over the view at the pointer,
// honoring the grab offset.
func (c *Controller) spliceDrag(view string) string {
	d := c.drag
	if d == nil || !d.Active {
		return view
	}
	row := c.findRow(d.RowID)
	if row == nil {
		return view
	}
	floated := ui.DraggedButtonStyle.Render(c.buttonLabel(*row))
	x := d.X - d.GrabDX
	y := d.Y - d.GrabDY
	if x < 0 {
		x = 0
	}
	if y < 0 {
		y = 0
	}
	return ui.SpliceOverlay(view, []string{floated}, x, y)
}

func (c *Controller) statusLine() string {
	if c.status != "" {
		style := ui.StatusBarStyle
		switch {
		case c.statusLevel >= slog.LevelError:
			style = ui.ErrorStyle
		case c.statusLevel >= slog.LevelWarn:
			style = ui.WarnStyle
		}
		return style.Render(c.status)
	}
	return ui.StatusBarStyle.Render("tab/1-6 tabs · s sort · u unprepared · h hidden · b bind · / filter · q quit")
}

// reorderRows applies the drag's working order to the section rows.
func reorderRows(rows []Row, order []string) []Row {
	byID := make(map[string]Row, len(rows))
	for _, r := range rows {
		byID[r.ID] = r
	}
	out := make([]Row, 0, len(rows))
	seen := map[string]bool{}
	for _, id := range order {
		if r, ok := byID[id]; ok && !seen[id] {
			out = append(out, r)
			seen[id] = true
		}
	}
	for _, r := range rows {
		if !seen[r.ID] {
			out = append(out, r)
		}
	}
	return out
}
