package host

import (
	"context"
	"errors"

	"github.com/tablemark/quickbar/pkg/model"
)

// ErrCancelled is returned by a RollEngine when the user dismissed the
// roll. Cancellation is not a failure; callers treat it as a silent no-op.
var ErrCancelled = errors.New("roll cancelled")

// RollMode selects how the d20 is rolled.
type RollMode int

const (
	RollNormal RollMode = iota
	RollAdvantage
	RollDisadvantage
)

// String returns the display name for the roll mode.
func (m RollMode) String() string {
	switch m {
	case RollAdvantage:
		return "advantage"
	case RollDisadvantage:
		return "disadvantage"
	default:
		return "normal"
	}
}

// DeathSaveDC is the threshold an unmodified death save must meet.
const DeathSaveDC = 10

// RollResult is the resolved outcome of a d20 roll.
type RollResult struct {
	Kept     int // the die that counted
	Dropped  int // the discarded die for advantage/disadvantage, else 0
	Modifier int
	Total    int
	Mode     RollMode
	Crit     bool // natural 20
	Fumble   bool // natural 1
}

// RollEngine performs rolls and item use on behalf of the panel. Every
// method may return ErrCancelled when the user backs out; any other
// error is a genuine failure.
type RollEngine interface {
	AbilityCheck(ctx context.Context, actor *model.Actor, ability string, mode RollMode) (RollResult, error)
	AbilitySave(ctx context.Context, actor *model.Actor, ability string, mode RollMode) (RollResult, error)
	SkillCheck(ctx context.Context, actor *model.Actor, skill string, mode RollMode) (RollResult, error)
	Initiative(ctx context.Context, actor *model.Actor, mode RollMode) (RollResult, error)
	DeathSave(ctx context.Context, actor *model.Actor, mode RollMode) (RollResult, error)
	UseItem(ctx context.Context, actor *model.Actor, item *model.Item) (RollResult, error)
}

// Notifier surfaces messages to the user. Implementations must be safe
// to call from the UI event loop.
type Notifier interface {
	Info(msg string)
	Warn(msg string)
	Error(msg string)
}
