package panel

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/tablemark/quickbar/pkg/host"
)

// renameState is the modal alias-edit form. While open it captures all
// input; the controller resumes when the form completes or aborts.
type renameState struct {
	form  *huh.Form
	value string
	rowID string
	key   string
}

// startRename opens the rename form prefilled with the current display
// name.
func (c *Controller) startRename(row *Row) {
	r := &renameState{rowID: row.ID, key: row.Key, value: row.Name}
	r.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Rename").
				Description("Shown on this panel only; the sheet keeps its name.").
				Value(&r.value),
		),
	).WithShowHelp(false)
	r.form.Init()
	c.rename = r
}

// update feeds a message to the form. done reports that the form
// finished, successfully or not.
func (r *renameState) update(msg tea.Msg) (tea.Cmd, bool) {
	m, cmd := r.form.Update(msg)
	if f, ok := m.(*huh.Form); ok {
		r.form = f
	}
	switch r.form.State {
	case huh.StateCompleted, huh.StateAborted:
		return cmd, true
	}
	return cmd, false
}

// finishRename persists the alias. An empty or unchanged value clears
// the alias instead of storing a copy of the sheet name.
func (c *Controller) finishRename() {
	r := c.rename
	c.rename = nil
	if r == nil || r.form.State != huh.StateCompleted {
		return
	}
	if c.ctx == nil || c.ctx.ActorID == "" || c.deps.Flags == nil {
		return
	}

	scope := host.ItemScope(c.ctx.ActorID, r.key)
	var err error
	if r.value == "" {
		err = c.deps.Flags.Unset(scope, host.FlagAlias)
	} else {
		err = c.deps.Flags.Set(scope, host.FlagAlias, r.value)
	}
	if err != nil {
		c.deps.Log.Error("rename", "item", r.key, "error", err)
		c.notifyError("could not save the name")
		return
	}
	c.rebuild()
}
