package model

import "fmt"

// Token is a placed presence of an actor on the current scene. Tokens are
// resolved by ID on every render; a Token value held across renders may be
// stale and must not be trusted.
type Token struct {
	ID       string   `yaml:"id"`
	Name     string   `yaml:"name"`
	ActorID  string   `yaml:"actor_id"`
	OwnerID  string   `yaml:"owner_id"`
	Movement Movement `yaml:"movement,omitempty"`
	// Statuses holds the IDs of common status effects currently applied
	// to this token (prone, poisoned, ...).
	Statuses []string `yaml:"statuses,omitempty"`
	// MovementModes lists the movement modes this token can select.
	// An empty list means walk only.
	MovementModes []Movement `yaml:"movement_modes,omitempty"`
}

// HasStatus reports whether the token currently carries the status.
func (t *Token) HasStatus(statusID string) bool {
	for _, s := range t.Statuses {
		if s == statusID {
			return true
		}
	}
	return false
}

// CanMove reports whether the token can select the given movement mode.
func (t *Token) CanMove(mode Movement) bool {
	if len(t.MovementModes) == 0 {
		return mode == MoveWalk
	}
	for _, m := range t.MovementModes {
		if m == mode {
			return true
		}
	}
	return false
}

// Movement is a token movement mode.
type Movement string

const (
	MoveWalk     Movement = "walk"
	MoveFly      Movement = "fly"
	MoveSwim     Movement = "swim"
	MoveClimb    Movement = "climb"
	MoveBurrow   Movement = "burrow"
	MoveTeleport Movement = "teleport"
)

// MovementOrder is the fixed display order for movement mode buttons.
var MovementOrder = []Movement{MoveWalk, MoveFly, MoveSwim, MoveClimb, MoveBurrow, MoveTeleport}

// IsValid returns true if the movement mode is a recognized value.
func (m Movement) IsValid() bool {
	switch m {
	case MoveWalk, MoveFly, MoveSwim, MoveClimb, MoveBurrow, MoveTeleport:
		return true
	}
	return false
}

// Actor is a character sheet. All fields are live, externally owned data:
// the panel derives a fresh display model from them on every render and
// never caches derived values across renders.
type Actor struct {
	ID        string             `yaml:"id"`
	Name      string             `yaml:"name"`
	HP        HitPoints          `yaml:"hp"`
	Prof      int                `yaml:"prof"`
	Abilities map[string]Ability `yaml:"abilities"`
	Skills    map[string]Skill   `yaml:"skills,omitempty"`
	Init      Initiative         `yaml:"init,omitempty"`
	Slots     map[int]SlotPool   `yaml:"slots,omitempty"`
	Pact      SlotPool           `yaml:"pact,omitempty"`
	HitDice   Uses               `yaml:"hit_dice,omitempty"`
	Death     DeathSaves         `yaml:"death,omitempty"`
	Items     []*Item            `yaml:"items,omitempty"`
	Effects   []*Effect          `yaml:"effects,omitempty"`
}

// Item returns the item with the given ID, or nil if it does not exist.
// Items can be deleted concurrently by other tools, so callers must handle
// a nil result.
func (a *Actor) Item(id string) *Item {
	for _, it := range a.Items {
		if it.ID == id {
			return it
		}
	}
	return nil
}

// Effect returns the effect with the given ID, or nil.
func (a *Actor) Effect(id string) *Effect {
	for _, e := range a.Effects {
		if e.ID == id {
			return e
		}
	}
	return nil
}

// Validate checks that the actor data is logically valid.
func (a *Actor) Validate() error {
	if a.ID == "" {
		return fmt.Errorf("actor ID cannot be empty")
	}
	if a.Name == "" {
		return fmt.Errorf("actor name cannot be empty")
	}
	for _, it := range a.Items {
		if err := it.Validate(); err != nil {
			return fmt.Errorf("item %s: %w", it.ID, err)
		}
	}
	return nil
}

// HitPoints tracks current and maximum hit points.
type HitPoints struct {
	Value int `yaml:"value"`
	Max   int `yaml:"max"`
}

// Ability is a single ability score. Mod and Save are optional precomputed
// totals; when absent the panel derives the modifier from the score.
type Ability struct {
	Score      int  `yaml:"score"`
	Mod        *int `yaml:"mod,omitempty"`
	Save       *int `yaml:"save,omitempty"`
	Proficient bool `yaml:"proficient,omitempty"`
}

// Skill is a single skill entry. Total is the host-computed modifier; there
// is no manual fallback formula because skill math is system specific.
type Skill struct {
	Ability string `yaml:"ability"`
	Total   *int   `yaml:"total,omitempty"`
}

// Initiative holds initiative modifiers. Total, when present, wins over
// the derived dexterity modifier plus Bonus.
type Initiative struct {
	Total *int `yaml:"total,omitempty"`
	Bonus int  `yaml:"bonus,omitempty"`
}

// SlotPool is a pool of expendable spell slots.
type SlotPool struct {
	Value int `yaml:"value"`
	Max   int `yaml:"max"`
}

// Uses tracks limited-use charges on an item or feature.
type Uses struct {
	Value int `yaml:"value"`
	Max   int `yaml:"max"`
}

// DeathSaves tracks recorded death saving throw results.
type DeathSaves struct {
	Successes int `yaml:"successes"`
	Failures  int `yaml:"failures"`
}

// ItemKind categorizes an item on the sheet.
type ItemKind string

const (
	KindWeapon     ItemKind = "weapon"
	KindEquipment  ItemKind = "equipment"
	KindConsumable ItemKind = "consumable"
	KindTool       ItemKind = "tool"
	KindLoot       ItemKind = "loot"
	KindContainer  ItemKind = "container"
	KindSpell      ItemKind = "spell"
	KindFeature    ItemKind = "feature"
)

// IsValid returns true if the item kind is a recognized value.
func (k ItemKind) IsValid() bool {
	switch k {
	case KindWeapon, KindEquipment, KindConsumable, KindTool, KindLoot,
		KindContainer, KindSpell, KindFeature:
		return true
	}
	return false
}

// Activation describes how quickly an item or feature can be used.
type Activation string

const (
	ActivationAction    Activation = "action"
	ActivationBonus     Activation = "bonus"
	ActivationReaction  Activation = "reaction"
	ActivationLegendary Activation = "legendary"
	ActivationPassive   Activation = "passive"
	ActivationNone      Activation = ""
)

// IsPassive reports whether the activation marks a passive entry.
func (a Activation) IsPassive() bool {
	return a == ActivationPassive || a == ActivationNone
}

// Preparation is a spell preparation mode.
type Preparation string

const (
	PrepPrepared Preparation = "prepared"
	PrepAlways   Preparation = "always"
	PrepAtWill   Preparation = "atwill"
	PrepInnate   Preparation = "innate"
	PrepPact     Preparation = "pact"
	PrepRitual   Preparation = "ritual"
)

// PrepState is the derived preparation state used for display.
type PrepState string

const (
	PrepStateAlways     PrepState = "always"
	PrepStatePrepared   PrepState = "prepared"
	PrepStateUnprepared PrepState = "unprepared"
)

// Item is anything usable from the sheet: gear, a spell, or a feature.
type Item struct {
	ID          string      `yaml:"id"`
	Name        string      `yaml:"name"`
	Kind        ItemKind    `yaml:"kind"`
	Icon        string      `yaml:"icon,omitempty"`
	Activation  Activation  `yaml:"activation,omitempty"`
	Uses        *Uses       `yaml:"uses,omitempty"`
	Level       int         `yaml:"level,omitempty"`
	Preparation Preparation `yaml:"preparation,omitempty"`
	Prepared    bool        `yaml:"prepared,omitempty"`
	Equipped    bool        `yaml:"equipped,omitempty"`
	Proficient  bool        `yaml:"proficient,omitempty"`
	Description string      `yaml:"description,omitempty"`
}

// Validate checks that the item data is logically valid.
func (i *Item) Validate() error {
	if i.ID == "" {
		return fmt.Errorf("item ID cannot be empty")
	}
	if i.Kind != "" && !i.Kind.IsValid() {
		return fmt.Errorf("invalid item kind: %s", i.Kind)
	}
	if i.Level < 0 || i.Level > 9 {
		return fmt.Errorf("spell level out of range: %d", i.Level)
	}
	return nil
}

// PrepState derives the display preparation state for a spell.
func (i *Item) PrepState() PrepState {
	switch i.Preparation {
	case PrepAlways, PrepAtWill, PrepInnate, PrepPact, PrepRitual:
		return PrepStateAlways
	case PrepPrepared, "":
		if i.Prepared {
			return PrepStatePrepared
		}
		return PrepStateUnprepared
	}
	return PrepStatePrepared
}

// Effect is an active effect on an actor beyond the common status set.
type Effect struct {
	ID       string   `yaml:"id"`
	Name     string   `yaml:"name"`
	Icon     string   `yaml:"icon,omitempty"`
	Disabled bool     `yaml:"disabled,omitempty"`
	Statuses []string `yaml:"statuses,omitempty"`
}

// Encounter is the active combat encounter, if any.
type Encounter struct {
	Active       bool     `yaml:"active"`
	Participants []string `yaml:"participants,omitempty"` // actor IDs
}

// HasParticipant reports whether the actor takes part in the encounter.
func (e *Encounter) HasParticipant(actorID string) bool {
	if e == nil || !e.Active {
		return false
	}
	for _, id := range e.Participants {
		if id == actorID {
			return true
		}
	}
	return false
}
