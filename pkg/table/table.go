// Package table holds the live game table: the scene's tokens, their
// actors, the current user, and the active encounter. It implements the
// registry contract the panel resolves entities through, and publishes
// change events on mutation so the panel's debounced re-render loop can
// react.
package table

import (
	"sync"

	"github.com/tablemark/quickbar/pkg/host"
	"github.com/tablemark/quickbar/pkg/model"
)

// Table is the in-memory game table. All reads and mutations go through
// its methods; mutations publish the matching host event.
type Table struct {
	mu sync.RWMutex

	userID     string
	tokens     []*model.Token
	actors     map[string]*model.Actor
	controlled []string
	encounter  *model.Encounter

	bus *host.Bus
}

// New creates a table for the given user publishing on bus.
func New(userID string, bus *host.Bus) *Table {
	return &Table{
		userID: userID,
		actors: map[string]*model.Actor{},
		bus:    bus,
	}
}

// ResolveToken returns the live token and actor for an ID, or nils when
// the token is gone from the scene.
func (t *Table) ResolveToken(tokenID string) (*model.Token, *model.Actor) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, tok := range t.tokens {
		if tok.ID == tokenID {
			return tok, t.actors[tok.ActorID]
		}
	}
	return nil, nil
}

// OwnedTokens returns the scene tokens owned by the current user.
func (t *Table) OwnedTokens() []*model.Token {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var owned []*model.Token
	for _, tok := range t.tokens {
		if tok.OwnerID == t.userID {
			owned = append(owned, tok)
		}
	}
	return owned
}

// Controlled returns the currently selected tokens in selection order.
func (t *Table) Controlled() []*model.Token {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []*model.Token
	for _, id := range t.controlled {
		for _, tok := range t.tokens {
			if tok.ID == id {
				out = append(out, tok)
			}
		}
	}
	return out
}

// Encounter returns the active encounter, or nil.
func (t *Table) Encounter() *model.Encounter {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.encounter == nil || !t.encounter.Active {
		return nil
	}
	return t.encounter
}

// Actor returns the actor with the given ID, or nil.
func (t *Table) Actor(actorID string) *model.Actor {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.actors[actorID]
}

// AddToken places a token (and its actor, when provided) on the scene.
func (t *Table) AddToken(tok *model.Token, actor *model.Actor) {
	t.mu.Lock()
	t.tokens = append(t.tokens, tok)
	if actor != nil {
		t.actors[actor.ID] = actor
	}
	t.mu.Unlock()
	t.bus.Publish(host.TokenUpdated{TokenID: tok.ID})
}

// RemoveToken removes a token from the scene. The actor stays loaded;
// other tokens may reference it.
func (t *Table) RemoveToken(tokenID string) {
	t.mu.Lock()
	for i, tok := range t.tokens {
		if tok.ID == tokenID {
			t.tokens = append(t.tokens[:i], t.tokens[i+1:]...)
			break
		}
	}
	// Deselect if it was controlled.
	for i, id := range t.controlled {
		if id == tokenID {
			t.controlled = append(t.controlled[:i], t.controlled[i+1:]...)
			break
		}
	}
	controlled := append([]string(nil), t.controlled...)
	t.mu.Unlock()
	t.bus.Publish(host.TokenUpdated{TokenID: tokenID})
	t.bus.Publish(host.SelectionChanged{TokenIDs: controlled})
}

// SetControlled replaces the selection and publishes SelectionChanged.
func (t *Table) SetControlled(tokenIDs ...string) {
	t.mu.Lock()
	t.controlled = append([]string(nil), tokenIDs...)
	t.mu.Unlock()
	t.bus.Publish(host.SelectionChanged{TokenIDs: tokenIDs})
}

// SetEncounter replaces the active encounter.
func (t *Table) SetEncounter(enc *model.Encounter) {
	t.mu.Lock()
	t.encounter = enc
	t.mu.Unlock()
}

// UpdateActor applies fn to the actor under the table lock, then
// publishes ActorUpdated. No-op when the actor is not loaded.
func (t *Table) UpdateActor(actorID string, fn func(*model.Actor)) {
	t.mu.Lock()
	actor := t.actors[actorID]
	if actor == nil {
		t.mu.Unlock()
		return
	}
	fn(actor)
	t.mu.Unlock()
	t.bus.Publish(host.ActorUpdated{ActorID: actorID})
}

// UpdateToken applies fn to the token under the table lock, then
// publishes TokenUpdated. No-op when the token is gone.
func (t *Table) UpdateToken(tokenID string, fn func(*model.Token)) {
	t.mu.Lock()
	var target *model.Token
	for _, tok := range t.tokens {
		if tok.ID == tokenID {
			target = tok
			break
		}
	}
	if target == nil {
		t.mu.Unlock()
		return
	}
	fn(target)
	t.mu.Unlock()
	t.bus.Publish(host.TokenUpdated{TokenID: tokenID})
}

// UpdateEffect applies fn to an effect on an actor, then publishes
// EffectUpdated. No-op when actor or effect is gone.
func (t *Table) UpdateEffect(actorID, effectID string, fn func(*model.Effect)) {
	t.mu.Lock()
	actor := t.actors[actorID]
	if actor == nil {
		t.mu.Unlock()
		return
	}
	effect := actor.Effect(effectID)
	if effect == nil {
		t.mu.Unlock()
		return
	}
	fn(effect)
	t.mu.Unlock()
	t.bus.Publish(host.EffectUpdated{ActorID: actorID, EffectID: effectID})
}

// DeleteEffect removes an effect from an actor and publishes
// EffectDeleted.
func (t *Table) DeleteEffect(actorID, effectID string) {
	t.mu.Lock()
	actor := t.actors[actorID]
	if actor == nil {
		t.mu.Unlock()
		return
	}
	for i, e := range actor.Effects {
		if e.ID == effectID {
			actor.Effects = append(actor.Effects[:i], actor.Effects[i+1:]...)
			break
		}
	}
	t.mu.Unlock()
	t.bus.Publish(host.EffectDeleted{ActorID: actorID, EffectID: effectID})
}

// Replace swaps the full table contents in one step, used by the file
// watcher after a reload. Publishes a single ActorUpdated per changed
// actor and TokenUpdated per changed token; callers relying on finer
// diffs should mutate through the Update methods instead.
func (t *Table) Replace(tokens []*model.Token, actors map[string]*model.Actor, enc *model.Encounter) {
	t.mu.Lock()
	oldTokens := t.tokens
	t.tokens = tokens
	t.actors = actors
	t.encounter = enc
	t.mu.Unlock()

	seen := map[string]bool{}
	for _, tok := range tokens {
		seen[tok.ID] = true
		t.bus.Publish(host.TokenUpdated{TokenID: tok.ID})
	}
	for _, tok := range oldTokens {
		if !seen[tok.ID] {
			t.bus.Publish(host.TokenUpdated{TokenID: tok.ID})
		}
	}
	for id := range actors {
		t.bus.Publish(host.ActorUpdated{ActorID: id})
	}
}

// UserID returns the current user.
func (t *Table) UserID() string {
	return t.userID
}
