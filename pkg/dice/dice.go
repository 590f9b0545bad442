// Package dice implements the d20 roll engine backing the quickbar panel.
package dice

import (
	"context"
	"errors"
	"math/rand"
	"sync"

	"github.com/tablemark/quickbar/pkg/host"
	"github.com/tablemark/quickbar/pkg/model"
	"github.com/tablemark/quickbar/pkg/modifiers"
)

// ErrNilActor indicates a roll was requested without an actor.
var ErrNilActor = errors.New("roll requires an actor")

// ErrNilItem indicates item use was requested without an item.
var ErrNilItem = errors.New("use requires an item")

// CheckRequest describes a single d20 check.
type CheckRequest struct {
	Modifier int
	Mode     host.RollMode
	Seed     int64
}

// RollCheck performs one d20 check. Deterministic with respect to Seed:
// the same seed, modifier, and mode always produce the same result.
// Advantage rolls two dice and keeps the higher; disadvantage keeps the
// lower. Crit and fumble are judged on the kept die.
func RollCheck(req CheckRequest) host.RollResult {
	rng := rand.New(rand.NewSource(req.Seed))
	first := rng.Intn(20) + 1
	kept, dropped := first, 0

	switch req.Mode {
	case host.RollAdvantage:
		second := rng.Intn(20) + 1
		kept, dropped = max(first, second), min(first, second)
	case host.RollDisadvantage:
		second := rng.Intn(20) + 1
		kept, dropped = min(first, second), max(first, second)
	}

	return host.RollResult{
		Kept:     kept,
		Dropped:  dropped,
		Modifier: req.Modifier,
		Total:    kept + req.Modifier,
		Mode:     req.Mode,
		Crit:     kept == 20,
		Fumble:   kept == 1,
	}
}

// Engine implements host.RollEngine on top of RollCheck. Each roll draws
// a fresh seed from the engine's source, so an Engine seeded once at
// startup produces a reproducible session.
type Engine struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewEngine creates an engine whose roll sequence is determined by seed.
func NewEngine(seed int64) *Engine {
	return &Engine{rng: rand.New(rand.NewSource(seed))}
}

func (e *Engine) nextSeed() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rng.Int63()
}

func (e *Engine) check(actor *model.Actor, modifier *int, mode host.RollMode) (host.RollResult, error) {
	if actor == nil {
		return host.RollResult{}, ErrNilActor
	}
	mod := 0
	if modifier != nil {
		mod = *modifier
	}
	return RollCheck(CheckRequest{Modifier: mod, Mode: mode, Seed: e.nextSeed()}), nil
}

// AbilityCheck rolls a d20 plus the actor's ability modifier.
func (e *Engine) AbilityCheck(_ context.Context, actor *model.Actor, ability string, mode host.RollMode) (host.RollResult, error) {
	return e.check(actor, modifiers.AbilityCheckBonus(actor, ability), mode)
}

// AbilitySave rolls a d20 plus the actor's save modifier.
func (e *Engine) AbilitySave(_ context.Context, actor *model.Actor, ability string, mode host.RollMode) (host.RollResult, error) {
	return e.check(actor, modifiers.AbilitySaveBonus(actor, ability), mode)
}

// SkillCheck rolls a d20 plus the actor's skill total.
func (e *Engine) SkillCheck(_ context.Context, actor *model.Actor, skill string, mode host.RollMode) (host.RollResult, error) {
	return e.check(actor, modifiers.SkillCheckBonus(actor, skill), mode)
}

// Initiative rolls a d20 plus the actor's initiative modifier.
func (e *Engine) Initiative(_ context.Context, actor *model.Actor, mode host.RollMode) (host.RollResult, error) {
	return e.check(actor, modifiers.InitiativeBonus(actor), mode)
}

// DeathSave rolls an unmodified d20. The result is judged against
// host.DeathSaveDC by the caller, which also owns the crit and fumble
// consequences.
func (e *Engine) DeathSave(_ context.Context, actor *model.Actor, mode host.RollMode) (host.RollResult, error) {
	return e.check(actor, nil, mode)
}

// UseItem resolves an item use. Items without an attack roll resolve as
// an automatic flat result.
func (e *Engine) UseItem(_ context.Context, actor *model.Actor, item *model.Item) (host.RollResult, error) {
	if actor == nil {
		return host.RollResult{}, ErrNilActor
	}
	if item == nil {
		return host.RollResult{}, ErrNilItem
	}
	return RollCheck(CheckRequest{Seed: e.nextSeed()}), nil
}
