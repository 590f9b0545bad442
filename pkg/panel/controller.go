// Package panel is the quickbar panel itself: the stateful controller,
// the pure context builder deriving each render's view model, the
// drag-reorder session, the overlay stack, and the action handlers.
package panel

import (
	"log/slog"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/text/collate"

	"github.com/tablemark/quickbar/pkg/grouping"
	"github.com/tablemark/quickbar/pkg/host"
	"github.com/tablemark/quickbar/pkg/ui"
	"github.com/tablemark/quickbar/pkg/watcher"
)

// Deps are the platform surfaces the controller consumes. Everything is
// an interface so tests can substitute in-memory fakes.
type Deps struct {
	Registry host.Registry
	Writer   host.Writer
	Bus      *host.Bus
	Flags    host.FlagStore
	Settings host.Settings
	Rolls    host.RollEngine
	Notify   host.Notifier
	Log      *slog.Logger
	Collator *collate.Collator

	// Debounce overrides the external-change coalescing window; zero
	// means watcher.DefaultDebounce. Tests shrink it.
	Debounce time.Duration
}

// rebuildMsg asks the update loop for a fresh context. Delivered by the
// debouncer after external changes settle.
type rebuildMsg struct{}

// hoverFireMsg opens the hover card if the pointer still rests on the
// same row when the delay elapses.
type hoverFireMsg struct{ gen int }

// dragFrameMsg advances displacement springs during a drag.
type dragFrameMsg struct{}

// Controller is the panel's bubbletea model. View state lives here;
// everything derived from live entities lives in the Context and is
// rebuilt per render.
type Controller struct {
	deps Deps

	// mu guards the fields the bus subscription reads off the update
	// loop: binding, closed, and the pending auto-rebind.
	mu          sync.Mutex
	tokenID     string
	actorID     string
	closed      bool
	pendingBind string

	activeTab  Tab
	itemSort   grouping.KindPriority
	spellSort  SpellSort
	unprepared UnpreparedMode
	showHidden bool

	filter      string
	filtering   bool
	filterInput textinput.Model

	ctx           *Context
	contextBuilds int
	warnedNoToken bool

	debounce    *watcher.Debouncer
	unsubscribe func()

	sendMu sync.Mutex
	send   func(tea.Msg)

	width, height int
	sized         bool

	layout   *Layout
	overlay  overlay
	hoverRow string
	hoverGen int
	drag     *DragSession
	rename   *renameState

	// suppressClickUntil swallows the click a drag release would
	// otherwise fire.
	suppressClickUntil time.Time

	status      string
	statusLevel slog.Level

	onClosed func()
}

// hoverDelay is how long the pointer must rest on a row before the
// hover card opens.
const hoverDelay = 700 * time.Millisecond

// clickGrace is the window after a drag release during which clicks on
// the released row are swallowed.
const clickGrace = 250 * time.Millisecond

// NewController creates a panel bound to tokenID (empty defers binding
// to resolution) and subscribes it to the event bus.
func NewController(deps Deps, tokenID string) *Controller {
	if deps.Log == nil {
		deps.Log = slog.Default()
	}
	c := &Controller{
		deps:       deps,
		tokenID:    tokenID,
		activeTab:  TabItems,
		itemSort:   grouping.WeaponFirst,
		spellSort:  SpellSortLevel,
		unprepared: UnpreparedDisable,
		debounce:   watcher.NewDebouncer(deps.Debounce),
	}
	c.filterInput = textinput.New()
	c.filterInput.Prompt = "/"
	c.filterInput.Placeholder = "filter"
	c.filterInput.CharLimit = 64
	if deps.Settings != nil {
		if v, ok := deps.Settings.Get(host.SettingSpellSortMode); ok && v != "" {
			c.spellSort = SpellSort(v)
		}
		if v, ok := deps.Settings.Get(host.SettingUnpreparedMode); ok && v != "" {
			c.unprepared = UnpreparedMode(v)
		}
	}
	if deps.Bus != nil {
		c.unsubscribe = deps.Bus.Subscribe(c.OnExternalChange)
	}
	return c
}

// SetSend connects the controller to a running program so debounced
// rebuilds can enter the update loop. Messages posted before a send
// function exists are dropped; the next rebuild covers them.
func (c *Controller) SetSend(send func(tea.Msg)) {
	c.sendMu.Lock()
	c.send = send
	c.sendMu.Unlock()
}

func (c *Controller) post(msg tea.Msg) {
	c.sendMu.Lock()
	send := c.send
	c.sendMu.Unlock()
	if send != nil {
		send(msg)
	}
}

// Init builds the first context.
func (c *Controller) Init() tea.Cmd {
	c.rebuild()
	return nil
}

// Bind points the panel at a token and re-renders synchronously.
// Resolution still happens at render time: a stale ID falls through the
// normal resolution order.
func (c *Controller) Bind(tokenID string) {
	c.mu.Lock()
	c.tokenID = tokenID
	c.mu.Unlock()
	c.rebuild()
}

// TokenID returns the currently bound token ID.
func (c *Controller) TokenID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tokenID
}

// Context returns the current view model. Nil before the first render.
func (c *Controller) Context() *Context { return c.ctx }

// ContextBuilds counts view-model derivations since creation.
func (c *Controller) ContextBuilds() int { return c.contextBuilds }

// OnExternalChange receives platform events, possibly off the update
// loop. Irrelevant events are dropped before they can schedule work;
// relevant ones arm the single-flight debounce so a burst of changes
// produces one rebuild.
func (c *Controller) OnExternalChange(ev host.Event) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	relevant := c.relevantLocked(ev)
	if sel, ok := ev.(host.SelectionChanged); ok && relevant {
		c.noteSelectionLocked(sel)
	}
	c.mu.Unlock()

	if !relevant {
		return
	}
	c.debounce.Trigger(func() {
		c.post(rebuildMsg{})
	})
}

// relevantLocked filters events to the bound token and its actor.
// Selection changes are always relevant: they can rebind the panel.
func (c *Controller) relevantLocked(ev host.Event) bool {
	switch e := ev.(type) {
	case host.SelectionChanged:
		return true
	case host.TokenUpdated:
		return e.TokenID == c.tokenID
	case host.ActorUpdated:
		return e.ActorID == c.actorID
	case host.ItemCreated:
		return e.ActorID == c.actorID
	case host.ItemUpdated:
		return e.ActorID == c.actorID
	case host.ItemDeleted:
		return e.ActorID == c.actorID
	case host.EffectCreated:
		return e.ActorID == c.actorID
	case host.EffectUpdated:
		return e.ActorID == c.actorID
	case host.EffectDeleted:
		return e.ActorID == c.actorID
	}
	return false
}

// noteSelectionLocked records an auto-rebind when exactly one owned
// token is newly selected. The rebind itself lands with the debounced
// rebuild so selection churn coalesces like any other change.
func (c *Controller) noteSelectionLocked(sel host.SelectionChanged) {
	if c.deps.Registry == nil {
		return
	}
	owned := map[string]bool{}
	for _, tok := range c.deps.Registry.OwnedTokens() {
		owned[tok.ID] = true
	}
	var mine []string
	for _, id := range sel.TokenIDs {
		if owned[id] {
			mine = append(mine, id)
		}
	}
	if len(mine) == 1 && mine[0] != c.tokenID {
		c.pendingBind = mine[0]
	}
}

// Close tears the panel down: no callback fires after Close returns.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	if c.unsubscribe != nil {
		c.unsubscribe()
	}
	c.debounce.Cancel()
	c.overlay = nil
	c.drag = nil
	c.rename = nil
	if c.onClosed != nil {
		c.onClosed()
	}
}

// Closed reports whether the panel has been torn down.
func (c *Controller) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// rebuild derives a fresh context from live entities and the current
// view state. The resolved binding is adopted so the next event filter
// matches what is actually displayed.
func (c *Controller) rebuild() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if c.pendingBind != "" {
		c.tokenID = c.pendingBind
		c.pendingBind = ""
	}
	requested := c.tokenID
	c.mu.Unlock()

	ctx := BuildContext(BuildInput{
		Registry:   c.deps.Registry,
		Flags:      c.deps.Flags,
		Settings:   c.deps.Settings,
		Collator:   c.deps.Collator,
		TokenID:    requested,
		ActiveTab:  c.activeTab,
		ItemSort:   c.itemSort,
		SpellSort:  c.spellSort,
		Unprepared: c.unprepared,
		ShowHidden: c.showHidden,
		Filter:     c.filter,
	})
	c.contextBuilds++
	c.ctx = ctx

	c.mu.Lock()
	c.tokenID = ctx.TokenID
	c.actorID = ctx.ActorID
	c.mu.Unlock()

	if ctx.Bound && c.deps.Settings != nil {
		c.deps.Settings.Set(host.SettingLastToken, ctx.TokenID)
	}
	if ctx.ShouldWarnNoToken && !c.warnedNoToken {
		c.warnedNoToken = true
		if c.deps.Notify != nil {
			c.deps.Notify.Warn("you own no tokens on this table")
		}
	}

	// A vanished row cannot keep an overlay or drag alive.
	if c.overlay != nil && !c.rowExists(c.overlay.rowID()) {
		c.overlay = nil
	}
	if c.drag != nil && !c.rowExists(c.drag.RowID) {
		c.drag = nil
	}
}

func (c *Controller) rowExists(rowID string) bool {
	if rowID == "" || c.ctx == nil {
		return false
	}
	return c.findRow(rowID) != nil
}

// findRow locates a row in the current context by ID.
func (c *Controller) findRow(rowID string) *Row {
	if c.ctx == nil {
		return nil
	}
	for si := range c.ctx.Sections {
		for ri := range c.ctx.Sections[si].Rows {
			if c.ctx.Sections[si].Rows[ri].ID == rowID {
				return &c.ctx.Sections[si].Rows[ri]
			}
		}
	}
	return nil
}

// sectionOf returns the section containing the row, or nil.
func (c *Controller) sectionOf(rowID string) *SectionView {
	if c.ctx == nil {
		return nil
	}
	for si := range c.ctx.Sections {
		for ri := range c.ctx.Sections[si].Rows {
			if c.ctx.Sections[si].Rows[ri].ID == rowID {
				return &c.ctx.Sections[si]
			}
		}
	}
	return nil
}

// Update is the bubbletea update loop.
func (c *Controller) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if c.Closed() {
		return c, nil
	}

	// An open rename form captures input until it finishes.
	if c.rename != nil {
		if cmd, done := c.rename.update(msg); !done {
			return c, cmd
		}
		c.finishRename()
		return c, nil
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		c.width, c.height = msg.Width, msg.Height
		c.sized = true
		return c, nil

	case rebuildMsg:
		c.rebuild()
		return c, nil

	case hoverFireMsg:
		if msg.gen == c.hoverGen && c.hoverRow != "" && c.overlay == nil && c.drag == nil {
			c.openHoverCard(c.hoverRow, false)
		}
		return c, nil

	case dragFrameMsg:
		return c, c.stepDrag()

	case ui.StatusMsg:
		c.status = msg.Message
		c.statusLevel = msg.Level
		return c, nil

	case tea.KeyMsg:
		return c, c.handleKey(msg)

	case tea.MouseMsg:
		return c, c.handleMouse(msg)
	}
	return c, nil
}
