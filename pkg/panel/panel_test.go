package panel

import (
	"context"
	"sync"

	"github.com/tablemark/quickbar/pkg/host"
	"github.com/tablemark/quickbar/pkg/model"
	"github.com/tablemark/quickbar/pkg/table"
)

// noteRecorder captures notifications for assertions.
type noteRecorder struct {
	mu    sync.Mutex
	infos []string
	warns []string
	errs  []string
}

func (n *noteRecorder) Info(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.infos = append(n.infos, msg)
}

func (n *noteRecorder) Warn(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.warns = append(n.warns, msg)
}

func (n *noteRecorder) Error(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errs = append(n.errs, msg)
}

func (n *noteRecorder) warnCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.warns)
}

func (n *noteRecorder) errCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.errs)
}

// fakeEngine records roll calls and returns a canned result.
type fakeEngine struct {
	mu     sync.Mutex
	calls  []string
	modes  []host.RollMode
	result host.RollResult
	err    error
}

func (f *fakeEngine) record(call string, mode host.RollMode) (host.RollResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	f.modes = append(f.modes, mode)
	return f.result, f.err
}

func (f *fakeEngine) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeEngine) AbilityCheck(_ context.Context, _ *model.Actor, ability string, mode host.RollMode) (host.RollResult, error) {
	return f.record("check:"+ability, mode)
}

func (f *fakeEngine) AbilitySave(_ context.Context, _ *model.Actor, ability string, mode host.RollMode) (host.RollResult, error) {
	return f.record("save:"+ability, mode)
}

func (f *fakeEngine) SkillCheck(_ context.Context, _ *model.Actor, skill string, mode host.RollMode) (host.RollResult, error) {
	return f.record("skill:"+skill, mode)
}

func (f *fakeEngine) Initiative(_ context.Context, _ *model.Actor, mode host.RollMode) (host.RollResult, error) {
	return f.record("init", mode)
}

func (f *fakeEngine) DeathSave(_ context.Context, _ *model.Actor, mode host.RollMode) (host.RollResult, error) {
	return f.record("death", mode)
}

func (f *fakeEngine) UseItem(_ context.Context, _ *model.Actor, item *model.Item) (host.RollResult, error) {
	return f.record("use:"+item.ID, host.RollNormal)
}

// testActor is a sheet with a bit of everything on it.
func testActor() *model.Actor {
	uses := func(v, m int) *model.Uses { return &model.Uses{Value: v, Max: m} }
	total := 6
	return &model.Actor{
		ID:   "a1",
		Name: "Aria",
		HP:   model.HitPoints{Value: 22, Max: 30},
		Prof: 3,
		Abilities: map[string]model.Ability{
			"str": {Score: 10},
			"dex": {Score: 16, Proficient: true},
		},
		Skills: map[string]model.Skill{
			"stealth": {Ability: "dex", Total: &total},
		},
		Slots:   map[int]model.SlotPool{1: {Value: 2, Max: 4}},
		Pact:    model.SlotPool{Value: 1, Max: 2},
		HitDice: model.Uses{Value: 3, Max: 5},
		Items: []*model.Item{
			{ID: "i-axe", Name: "Axe", Kind: model.KindWeapon, Equipped: true, Proficient: true},
			{ID: "i-mace", Name: "Mace", Kind: model.KindWeapon, Equipped: true, Proficient: true},
			{ID: "i-potion", Name: "Potion", Kind: model.KindConsumable, Uses: uses(2, 2)},
			{ID: "i-dry", Name: "Dry Flask", Kind: model.KindConsumable, Uses: uses(0, 2)},
			{ID: "s-bolt", Name: "Fire Bolt", Kind: model.KindSpell, Level: 0, Preparation: model.PrepAtWill},
			{ID: "s-shield", Name: "Shield", Kind: model.KindSpell, Level: 1, Prepared: true},
			{ID: "s-sleep", Name: "Sleep", Kind: model.KindSpell, Level: 1},
			{ID: "f-surge", Name: "Action Surge", Kind: model.KindFeature, Activation: model.ActivationAction, Uses: uses(1, 1)},
			{ID: "f-aura", Name: "Aura", Kind: model.KindFeature, Activation: model.ActivationPassive},
		},
		Effects: []*model.Effect{
			{ID: "e-bless", Name: "Bless"},
		},
	}
}

// testEnv is the wired fixture most panel tests start from.
type testEnv struct {
	bus      *host.Bus
	table    *table.Table
	flags    *host.MemoryFlagStore
	settings *host.MemorySettings
	notify   *noteRecorder
	engine   *fakeEngine
}

func newTestEnv() *testEnv {
	bus := host.NewBus()
	tbl := table.New("u1", bus)
	tbl.AddToken(&model.Token{
		ID: "tok-1", Name: "Aria", ActorID: "a1", OwnerID: "u1",
		MovementModes: []model.Movement{model.MoveWalk, model.MoveFly},
	}, testActor())
	tbl.AddToken(&model.Token{ID: "tok-2", Name: "Brin", ActorID: "a2", OwnerID: "u1"},
		&model.Actor{ID: "a2", Name: "Brin", Abilities: map[string]model.Ability{"str": {Score: 12}}})
	tbl.AddToken(&model.Token{ID: "tok-3", Name: "Ogre", ActorID: "a3", OwnerID: "gm"},
		&model.Actor{ID: "a3", Name: "Ogre"})

	return &testEnv{
		bus:      bus,
		table:    tbl,
		flags:    host.NewMemoryFlagStore(),
		settings: host.NewMemorySettings(),
		notify:   &noteRecorder{},
		engine:   &fakeEngine{result: host.RollResult{Kept: 12, Total: 15, Modifier: 3}},
	}
}

func (env *testEnv) deps() Deps {
	return Deps{
		Registry: env.table,
		Writer:   env.table,
		Bus:      env.bus,
		Flags:    env.flags,
		Settings: env.settings,
		Rolls:    env.engine,
		Notify:   env.notify,
	}
}

func (env *testEnv) buildInput(tokenID string, tab Tab) BuildInput {
	return BuildInput{
		Registry:   env.table,
		Flags:      env.flags,
		Settings:   env.settings,
		TokenID:    tokenID,
		ActiveTab:  tab,
		Unprepared: UnpreparedDisable,
		SpellSort:  SpellSortLevel,
	}
}

// controller creates a bound controller with the first context built.
func (env *testEnv) controller(tokenID string) *Controller {
	c := NewController(env.deps(), tokenID)
	c.Init()
	c.width, c.height = 100, 40
	return c
}

func findSection(ctx *Context, key string) *SectionView {
	for i := range ctx.Sections {
		if ctx.Sections[i].Key == key {
			return &ctx.Sections[i]
		}
	}
	return nil
}

func findRowIn(ctx *Context, rowID string) *Row {
	for si := range ctx.Sections {
		for ri := range ctx.Sections[si].Rows {
			if ctx.Sections[si].Rows[ri].ID == rowID {
				return &ctx.Sections[si].Rows[ri]
			}
		}
	}
	return nil
}
