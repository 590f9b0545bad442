package panel

import (
	"context"
	"errors"
	"fmt"

	"github.com/atotto/clipboard"

	"github.com/tablemark/quickbar/pkg/host"
	"github.com/tablemark/quickbar/pkg/model"
)

// actionHandlers routes a dispatched action to its handler. Unknown
// kinds are logged and ignored; a bad dispatch must never take the
// panel down.
var actionHandlers = map[RowKind]func(*Controller, string, host.RollMode){
	RowAbility:   (*Controller).rollAbility,
	RowSave:      (*Controller).rollSave,
	RowSkill:     (*Controller).rollSkill,
	RowInit:      (*Controller).rollInitiative,
	RowDeathSave: (*Controller).rollDeathSave,
	RowItem:      (*Controller).useItem,
	RowSpell:     (*Controller).useItem,
	RowFeature:   (*Controller).useItem,
	RowStatus:    (*Controller).toggleStatus,
	RowMovement:  (*Controller).setMovement,
	RowEffect:    (*Controller).toggleEffect,
	RowHitDie:    (*Controller).spendHitDie,
	RowShortRest: (*Controller).shortRest,
	RowLongRest:  (*Controller).longRest,
}

// DispatchAction runs the handler for a row action. Every handler goes
// through safeRun: errors are contained here and never escape into the
// update loop.
func (c *Controller) DispatchAction(kind RowKind, key string, mode host.RollMode) {
	fn, ok := actionHandlers[kind]
	if !ok {
		c.deps.Log.Warn("unknown action", "kind", string(kind), "key", key)
		return
	}
	fn(c, key, mode)
}

// safeRun is the uniform action wrapper: unbound panels warn and abort,
// cancellation is silent, and any other error is logged with context
// while the user sees a generic notice.
func (c *Controller) safeRun(action string, fn func(ctx context.Context, token *model.Token, actor *model.Actor) error) {
	if c.Closed() {
		return
	}
	view := c.ctx
	if view == nil || !view.Bound {
		c.notifyWarn("no token bound")
		return
	}
	token, actor := c.deps.Registry.ResolveToken(view.TokenID)
	if token == nil {
		c.notifyWarn("the bound token is no longer on the scene")
		return
	}

	err := fn(context.Background(), token, actor)
	if err == nil || errors.Is(err, host.ErrCancelled) {
		return
	}
	c.deps.Log.Error("action failed", "action", action, "token", token.ID, "error", err)
	c.notifyError("the action failed; check the log")
}

func (c *Controller) notifyInfo(msg string) {
	if c.deps.Notify != nil {
		c.deps.Notify.Info(msg)
	}
}

func (c *Controller) notifyWarn(msg string) {
	if c.deps.Notify != nil {
		c.deps.Notify.Warn(msg)
	}
}

func (c *Controller) notifyError(msg string) {
	if c.deps.Notify != nil {
		c.deps.Notify.Error(msg)
	}
}

func (c *Controller) notifyRoll(name string, res host.RollResult) {
	msg := fmt.Sprintf("%s: %d", name, res.Total)
	if res.Mode != host.RollNormal {
		msg += fmt.Sprintf(" (%s, kept %d over %d)", res.Mode, res.Kept, res.Dropped)
	}
	if res.Crit {
		msg += " (critical)"
	}
	if res.Fumble {
		msg += " (fumble)"
	}
	c.notifyInfo(msg)
}

// ── Rolls ─────────────────────────────────────────────────────────────

func (c *Controller) rollAbility(key string, mode host.RollMode) {
	c.safeRun("ability check", func(ctx context.Context, _ *model.Token, actor *model.Actor) error {
		if actor == nil {
			c.notifyWarn("the token has no character sheet")
			return nil
		}
		res, err := c.deps.Rolls.AbilityCheck(ctx, actor, key, mode)
		if err != nil {
			return err
		}
		c.notifyRoll(abilityLabel(key)+" check", res)
		return nil
	})
}

func (c *Controller) rollSave(key string, mode host.RollMode) {
	c.safeRun("saving throw", func(ctx context.Context, _ *model.Token, actor *model.Actor) error {
		if actor == nil {
			c.notifyWarn("the token has no character sheet")
			return nil
		}
		res, err := c.deps.Rolls.AbilitySave(ctx, actor, key, mode)
		if err != nil {
			return err
		}
		c.notifyRoll(abilityLabel(key)+" save", res)
		return nil
	})
}

func (c *Controller) rollSkill(key string, mode host.RollMode) {
	c.safeRun("skill check", func(ctx context.Context, _ *model.Token, actor *model.Actor) error {
		if actor == nil {
			c.notifyWarn("the token has no character sheet")
			return nil
		}
		res, err := c.deps.Rolls.SkillCheck(ctx, actor, key, mode)
		if err != nil {
			return err
		}
		c.notifyRoll(titleCase(key), res)
		return nil
	})
}

// rollInitiative requires an active encounter with the actor in it;
// initiative outside combat has nowhere to go.
func (c *Controller) rollInitiative(_ string, mode host.RollMode) {
	c.safeRun("initiative", func(ctx context.Context, _ *model.Token, actor *model.Actor) error {
		if actor == nil {
			c.notifyWarn("the token has no character sheet")
			return nil
		}
		enc := c.deps.Registry.Encounter()
		if !enc.HasParticipant(actor.ID) {
			c.notifyWarn("not in an active encounter")
			return nil
		}
		res, err := c.deps.Rolls.Initiative(ctx, actor, mode)
		if err != nil {
			return err
		}
		c.notifyRoll("Initiative", res)
		return nil
	})
}

// rollDeathSave requires the actor to actually be dying and the save
// sequence unresolved. The result is recorded on the sheet: a natural
// 20 recovers with one hit point, a natural 1 counts as two failures.
func (c *Controller) rollDeathSave(_ string, mode host.RollMode) {
	c.safeRun("death save", func(ctx context.Context, _ *model.Token, actor *model.Actor) error {
		if actor == nil {
			c.notifyWarn("the token has no character sheet")
			return nil
		}
		if actor.HP.Value > 0 {
			c.notifyWarn("not at zero hit points")
			return nil
		}
		if actor.Death.Successes >= 3 || actor.Death.Failures >= 3 {
			c.notifyWarn("death saves already resolved")
			return nil
		}
		res, err := c.deps.Rolls.DeathSave(ctx, actor, mode)
		if err != nil {
			return err
		}
		if c.deps.Writer != nil {
			c.deps.Writer.UpdateActor(actor.ID, func(a *model.Actor) {
				switch {
				case res.Crit:
					a.HP.Value = 1
					a.Death = model.DeathSaves{}
				case res.Fumble:
					a.Death.Failures += 2
				case res.Total >= host.DeathSaveDC:
					a.Death.Successes++
				default:
					a.Death.Failures++
				}
			})
		}
		switch {
		case res.Crit:
			c.notifyRoll("Death save (back on your feet)", res)
		case res.Total >= host.DeathSaveDC:
			c.notifyRoll("Death save (success)", res)
		default:
			c.notifyRoll("Death save (failure)", res)
		}
		return nil
	})
}

// ── Items ─────────────────────────────────────────────────────────────

// useItem resolves the item fresh at dispatch time; the row the user
// clicked may describe an item another tool deleted moments ago.
func (c *Controller) useItem(itemID string, _ host.RollMode) {
	c.safeRun("use item", func(ctx context.Context, _ *model.Token, actor *model.Actor) error {
		if actor == nil {
			c.notifyWarn("the token has no character sheet")
			return nil
		}
		item := actor.Item(itemID)
		if item == nil {
			c.notifyWarn("that entry is no longer on the sheet")
			return nil
		}
		if item.Uses != nil && item.Uses.Max > 0 && item.Uses.Value <= 0 {
			c.notifyWarn("no uses remaining")
			return nil
		}
		res, err := c.deps.Rolls.UseItem(ctx, actor, item)
		if err != nil {
			return err
		}
		if item.Uses != nil && item.Uses.Max > 0 && c.deps.Writer != nil {
			c.deps.Writer.UpdateActor(actor.ID, func(a *model.Actor) {
				if it := a.Item(itemID); it != nil && it.Uses != nil {
					it.Uses.Value--
				}
			})
		}
		c.notifyRoll(c.itemDisplayName(actor, item), res)
		return nil
	})
}

func (c *Controller) itemDisplayName(actor *model.Actor, item *model.Item) string {
	if c.deps.Flags != nil {
		if alias, ok, _ := c.deps.Flags.Get(host.ItemScope(actor.ID, item.ID), host.FlagAlias); ok && alias != "" {
			return alias
		}
	}
	return item.Name
}

// ── Token state ───────────────────────────────────────────────────────

func (c *Controller) toggleStatus(statusID string, _ host.RollMode) {
	c.safeRun("toggle status", func(_ context.Context, token *model.Token, _ *model.Actor) error {
		if c.deps.Writer == nil {
			return errors.New("no writer configured")
		}
		c.deps.Writer.UpdateToken(token.ID, func(t *model.Token) {
			for i, s := range t.Statuses {
				if s == statusID {
					t.Statuses = append(t.Statuses[:i], t.Statuses[i+1:]...)
					return
				}
			}
			t.Statuses = append(t.Statuses, statusID)
		})
		return nil
	})
}

func (c *Controller) setMovement(mode string, _ host.RollMode) {
	c.safeRun("set movement", func(_ context.Context, token *model.Token, _ *model.Actor) error {
		m := model.Movement(mode)
		if !m.IsValid() {
			c.notifyWarn("unknown movement mode")
			return nil
		}
		if !token.CanMove(m) {
			c.notifyWarn("this token cannot " + mode)
			return nil
		}
		if c.deps.Writer == nil {
			return errors.New("no writer configured")
		}
		c.deps.Writer.UpdateToken(token.ID, func(t *model.Token) {
			t.Movement = m
		})
		return nil
	})
}

func (c *Controller) toggleEffect(effectID string, _ host.RollMode) {
	c.safeRun("toggle effect", func(_ context.Context, _ *model.Token, actor *model.Actor) error {
		if actor == nil || actor.Effect(effectID) == nil {
			c.notifyWarn("that effect is no longer active")
			return nil
		}
		if c.deps.Writer == nil {
			return errors.New("no writer configured")
		}
		c.deps.Writer.UpdateEffect(actor.ID, effectID, func(e *model.Effect) {
			e.Disabled = !e.Disabled
		})
		return nil
	})
}

// deleteEffect removes an effect from the sheet outright. Reached
// through the effect popover, never through primary dispatch: a stray
// click must not destroy data.
func (c *Controller) deleteEffect(row *Row) {
	name := row.Name
	c.safeRun("delete effect", func(_ context.Context, _ *model.Token, actor *model.Actor) error {
		if actor == nil || actor.Effect(row.Key) == nil {
			c.notifyWarn("that effect is no longer active")
			return nil
		}
		if c.deps.Writer == nil {
			return errors.New("no writer configured")
		}
		c.deps.Writer.DeleteEffect(actor.ID, row.Key)
		c.notifyInfo(name + " removed")
		return nil
	})
}

// ── Recovery ──────────────────────────────────────────────────────────

func (c *Controller) spendHitDie(_ string, _ host.RollMode) {
	c.safeRun("spend hit die", func(_ context.Context, _ *model.Token, actor *model.Actor) error {
		if actor == nil {
			c.notifyWarn("the token has no character sheet")
			return nil
		}
		if actor.HitDice.Max == 0 {
			c.notifyWarn("this character has no hit dice")
			return nil
		}
		if actor.HitDice.Value <= 0 {
			c.notifyWarn("no hit dice remaining")
			return nil
		}
		if c.deps.Writer == nil {
			return errors.New("no writer configured")
		}
		remaining := 0
		c.deps.Writer.UpdateActor(actor.ID, func(a *model.Actor) {
			a.HitDice.Value--
			remaining = a.HitDice.Value
		})
		c.notifyInfo(fmt.Sprintf("hit die spent, %d remaining", remaining))
		return nil
	})
}

// shortRest restores pact slots; everything else on a short rest is
// player bookkeeping through hit dice.
func (c *Controller) shortRest(_ string, _ host.RollMode) {
	c.safeRun("short rest", func(_ context.Context, _ *model.Token, actor *model.Actor) error {
		if actor == nil {
			c.notifyWarn("the token has no character sheet")
			return nil
		}
		if c.deps.Writer == nil {
			return errors.New("no writer configured")
		}
		c.deps.Writer.UpdateActor(actor.ID, func(a *model.Actor) {
			a.Pact.Value = a.Pact.Max
		})
		c.notifyInfo("short rest taken")
		return nil
	})
}

// longRest restores hit points, all slot pools, and hit dice.
func (c *Controller) longRest(_ string, _ host.RollMode) {
	c.safeRun("long rest", func(_ context.Context, _ *model.Token, actor *model.Actor) error {
		if actor == nil {
			c.notifyWarn("the token has no character sheet")
			return nil
		}
		if c.deps.Writer == nil {
			return errors.New("no writer configured")
		}
		c.deps.Writer.UpdateActor(actor.ID, func(a *model.Actor) {
			a.HP.Value = a.HP.Max
			for lvl, pool := range a.Slots {
				pool.Value = pool.Max
				a.Slots[lvl] = pool
			}
			a.Pact.Value = a.Pact.Max
			a.HitDice.Value = a.HitDice.Max
			a.Death = model.DeathSaves{}
		})
		c.notifyInfo("long rest taken")
		return nil
	})
}

// ── Row management ────────────────────────────────────────────────────

// toggleFavorite flips the favorite flag. A hidden row cannot be
// favorited: the handler rejects the mutation outright rather than
// resolving the conflict silently.
func (c *Controller) toggleFavorite(row *Row) {
	if c.ctx == nil || c.ctx.ActorID == "" || c.deps.Flags == nil {
		return
	}
	if !row.Favorited && row.Hidden {
		c.notifyWarn("unhide the entry before favoriting it")
		return
	}
	scope := host.ItemScope(c.ctx.ActorID, row.Key)
	if err := host.SetBool(c.deps.Flags, scope, host.FlagFavorited, !row.Favorited); err != nil {
		c.deps.Log.Error("toggle favorite", "item", row.Key, "error", err)
		c.notifyError("could not update the favorite flag")
		return
	}
	c.rebuild()
}

// toggleHidden flips the hidden flag, refusing while favorited.
func (c *Controller) toggleHidden(row *Row) {
	if c.ctx == nil || c.ctx.ActorID == "" || c.deps.Flags == nil {
		return
	}
	if !row.Hidden && row.Favorited {
		c.notifyWarn("unfavorite the entry before hiding it")
		return
	}
	scope := host.ItemScope(c.ctx.ActorID, row.Key)
	if err := host.SetBool(c.deps.Flags, scope, host.FlagHidden, !row.Hidden); err != nil {
		c.deps.Log.Error("toggle hidden", "item", row.Key, "error", err)
		c.notifyError("could not update the hidden flag")
		return
	}
	c.rebuild()
}

func (c *Controller) rowAlias(row *Row) string {
	if c.ctx == nil || c.ctx.ActorID == "" || c.deps.Flags == nil {
		return ""
	}
	alias, _, _ := c.deps.Flags.Get(host.ItemScope(c.ctx.ActorID, row.Key), host.FlagAlias)
	return alias
}

// resetName drops the alias so the row shows its sheet name again.
func (c *Controller) resetName(row *Row) {
	if c.ctx == nil || c.ctx.ActorID == "" || c.deps.Flags == nil {
		return
	}
	if err := c.deps.Flags.Unset(host.ItemScope(c.ctx.ActorID, row.Key), host.FlagAlias); err != nil {
		c.deps.Log.Error("reset name", "item", row.Key, "error", err)
		c.notifyError("could not reset the name")
		return
	}
	c.rebuild()
}

// sendToLog copies the row summary to the clipboard so it can be pasted
// into the table chat.
func (c *Controller) sendToLog(row *Row) {
	summary := row.Name
	if row.Uses != "" {
		summary += " " + row.Uses
	}
	if row.Modifier != "" {
		summary += " " + row.Modifier
	}
	if row.Description != "" {
		summary += "\n" + row.Description
	}
	if err := clipboard.WriteAll(summary); err != nil {
		c.deps.Log.Error("send to log", "item", row.ID, "error", err)
		c.notifyError("could not copy to the clipboard")
		return
	}
	c.notifyInfo("copied to clipboard")
}
