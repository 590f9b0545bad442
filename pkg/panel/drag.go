package panel

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/harmonica"

	"github.com/tablemark/quickbar/pkg/host"
)

// dragThresholdSq is the squared pointer travel, in cells, past which a
// press becomes a drag instead of a click.
const dragThresholdSq = 4

// dragFPS drives the displacement spring animation.
const dragFPS = 30

// rowTopTolerance groups sibling rects into visual rows: rects whose
// tops differ by at most this many cells sit on the same row.
const rowTopTolerance = 1

// DragSession tracks one press-drag-release interaction. The dragged
// row detaches from its section, leaves a placeholder at the insertion
// point, and floats under the pointer; displaced siblings spring toward
// their new slots.
type DragSession struct {
	RowID      string
	SectionKey string

	StartX, StartY int
	GrabDX, GrabDY int
	X, Y           int

	// Active flips once the pointer travels past the threshold. An
	// inactive session released in place is a click.
	Active bool

	// Order is the working row-ID order of the section, placeholder
	// included at the current insertion point.
	Order []string

	spring  harmonica.Spring
	offsets map[string]*rowOffset
	ticking bool
}

// rowOffset animates one displaced sibling's horizontal shift.
type rowOffset struct {
	pos, vel float64
	target   float64
}

// beginDrag starts a potential drag on the row under the pointer.
func (c *Controller) beginDrag(rowID string, x, y int) {
	sec := c.sectionOf(rowID)
	if sec == nil || c.layout == nil {
		return
	}
	rect, ok := c.layout.Row(rowID)
	if !ok {
		return
	}
	order := make([]string, 0, len(sec.Rows))
	for _, r := range sec.Rows {
		order = append(order, r.ID)
	}
	c.drag = &DragSession{
		RowID:      rowID,
		SectionKey: sec.Key,
		StartX:     x,
		StartY:     y,
		GrabDX:     x - rect.X,
		GrabDY:     y - rect.Y,
		X:          x,
		Y:          y,
		Order:      order,
		spring:     harmonica.NewSpring(harmonica.FPS(dragFPS), 8.0, 0.6),
		offsets:    map[string]*rowOffset{},
	}
}

func (c *Controller) dragMouse(msg tea.MouseMsg) tea.Cmd {
	d := c.drag
	if d == nil {
		return nil
	}

	switch msg.Action {
	case tea.MouseActionMotion:
		d.X, d.Y = msg.X, msg.Y
		if !d.Active {
			dx, dy := d.X-d.StartX, d.Y-d.StartY
			if dx*dx+dy*dy < dragThresholdSq {
				return nil
			}
			// Threshold crossed: the press is a drag now. Drags and
			// overlays are mutually exclusive.
			d.Active = true
			c.overlay = nil
			c.hoverRow = ""
			c.hoverGen++
		}
		c.updateInsertion()
		if !d.ticking {
			d.ticking = true
			return dragFrame()
		}
		return nil

	case tea.MouseActionRelease:
		if msg.Button != tea.MouseButtonLeft && msg.Button != tea.MouseButtonNone {
			return nil
		}
		active := d.Active
		c.drag = nil
		if !active {
			// Never moved far enough: this release is the click.
			return c.releaseRow(msg.X, msg.Y)
		}
		c.persistOrder(d.SectionKey, d.Order)
		c.suppressClickUntil = time.Now().Add(clickGrace)
		c.rebuild()
		return nil
	}
	return nil
}

func dragFrame() tea.Cmd {
	return tea.Tick(time.Second/dragFPS, func(time.Time) tea.Msg {
		return dragFrameMsg{}
	})
}

// stepDrag advances displacement springs one frame and keeps ticking
// while a drag is live or offsets are still settling.
func (c *Controller) stepDrag() tea.Cmd {
	d := c.drag
	if d == nil {
		return nil
	}
	settled := true
	for _, o := range d.offsets {
		o.pos, o.vel = d.spring.Update(o.pos, o.vel, o.target)
		if !springSettled(o) {
			settled = false
		}
	}
	if settled && !d.Active {
		d.ticking = false
		return nil
	}
	return dragFrame()
}

func springSettled(o *rowOffset) bool {
	const eps = 0.05
	d := o.pos - o.target
	return d < eps && d > -eps && o.vel < eps && o.vel > -eps
}

// updateInsertion recomputes the placeholder position from the pointer
// and retargets displaced siblings.
func (c *Controller) updateInsertion() {
	d := c.drag
	if d == nil || c.layout == nil {
		return
	}

	var siblings []string
	for _, id := range d.Order {
		if id != d.RowID {
			siblings = append(siblings, id)
		}
	}
	var rects []Rect
	var withRects []string
	for _, id := range siblings {
		if r, ok := c.layout.Row(id); ok {
			rects = append(rects, r)
			withRects = append(withRects, id)
		}
	}

	idx := insertionIndex(rects, d.X, d.Y)

	order := make([]string, 0, len(siblings)+1)
	inserted := false
	for _, id := range siblings {
		pos := indexOf(withRects, id)
		if !inserted && pos >= 0 && pos >= idx {
			order = append(order, d.RowID)
			inserted = true
		}
		order = append(order, id)
	}
	if !inserted {
		order = append(order, d.RowID)
	}
	if equalOrder(order, d.Order) {
		return
	}
	d.Order = order

	// Retarget displaced rows toward their new slots.
	for _, id := range withRects {
		old, _ := c.layout.Row(id)
		slot, ok := c.layout.Slot(d.SectionKey, indexOf(order, id))
		if !ok {
			continue
		}
		o := d.offsets[id]
		if o == nil {
			o = &rowOffset{}
			d.offsets[id] = o
		}
		o.target = float64(slot.X - old.X)
	}
}

// insertionIndex maps a pointer position to an insertion slot among the
// sibling rects, given in display order. Rects are grouped into visual
// rows by top coordinate; the row whose vertical center is nearest the
// pointer wins, and within it the slot before the first rect whose
// horizontal center lies past the pointer. Past the last rect of the
// row, the slot after it.
func insertionIndex(rects []Rect, px, py int) int {
	if len(rects) == 0 {
		return 0
	}

	type visualRow struct {
		top        int
		start, end int // index range [start, end) into rects
	}
	var rows []visualRow
	for i, r := range rects {
		if len(rows) > 0 && abs(r.Y-rows[len(rows)-1].top) <= rowTopTolerance {
			rows[len(rows)-1].end = i + 1
			continue
		}
		rows = append(rows, visualRow{top: r.Y, start: i, end: i + 1})
	}

	best := 0
	bestDist := -1
	for i, row := range rows {
		r := rects[row.start]
		center := r.Y*2 + r.H // twice the vertical center
		dist := abs(center - py*2)
		if bestDist < 0 || dist < bestDist {
			best = i
			bestDist = dist
		}
	}

	row := rows[best]
	for i := row.start; i < row.end; i++ {
		r := rects[i]
		centerX := r.X + r.W/2
		if centerX > px {
			return i
		}
	}
	return row.end
}

// persistOrder stores the section's manual order under the actor's
// sortOrders flag, merged with orders of other sections.
func (c *Controller) persistOrder(sectionKey string, order []string) {
	if c.deps.Flags == nil || c.ctx == nil || c.ctx.ActorID == "" {
		return
	}
	scope := host.ActorScope(c.ctx.ActorID)
	stored := map[string][]string{}
	if _, err := host.GetJSON(c.deps.Flags, scope, host.FlagSortOrders, &stored); err != nil {
		c.deps.Log.Error("read sort orders", "actor", c.ctx.ActorID, "error", err)
	}
	stored[sectionKey] = order
	if err := host.SetJSON(c.deps.Flags, scope, host.FlagSortOrders, stored); err != nil {
		c.deps.Log.Error("persist sort order", "actor", c.ctx.ActorID, "section", sectionKey, "error", err)
		if c.deps.Notify != nil {
			c.deps.Notify.Error("could not save the new order")
		}
	}
}

// RowOffset returns the animated horizontal offset for a displaced row
// during a drag, rounded to whole cells.
func (c *Controller) RowOffset(rowID string) int {
	if c.drag == nil {
		return 0
	}
	o := c.drag.offsets[rowID]
	if o == nil {
		return 0
	}
	return int(o.pos + 0.5)
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

func equalOrder(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
