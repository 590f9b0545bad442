package panel

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/sahilm/fuzzy"
	"golang.org/x/text/collate"

	"github.com/tablemark/quickbar/pkg/grouping"
	"github.com/tablemark/quickbar/pkg/host"
	"github.com/tablemark/quickbar/pkg/model"
	"github.com/tablemark/quickbar/pkg/modifiers"
)

// Tab identifies one of the panel's tabs.
type Tab string

const (
	TabItems    Tab = "items"
	TabFeatures Tab = "features"
	TabSpells   Tab = "spells"
	TabChecks   Tab = "checks"
	TabState    Tab = "state"
	TabCustom   Tab = "custom"
)

// TabOrder is the fixed display order of tabs.
var TabOrder = []Tab{TabItems, TabFeatures, TabSpells, TabChecks, TabState, TabCustom}

var tabTitles = map[Tab]string{
	TabItems:    "Items",
	TabFeatures: "Features",
	TabSpells:   "Spells",
	TabChecks:   "Checks",
	TabState:    "State",
	TabCustom:   "Custom",
}

// Title returns the display title for the tab.
func (t Tab) Title() string {
	if title, ok := tabTitles[t]; ok {
		return title
	}
	return string(t)
}

// UnpreparedMode controls how unprepared spells appear on the spells tab.
type UnpreparedMode string

const (
	UnpreparedHide    UnpreparedMode = "hide"
	UnpreparedDisable UnpreparedMode = "disable"
	UnpreparedIgnore  UnpreparedMode = "ignore"
)

// SpellSort selects spell ordering on the spells tab.
type SpellSort string

const (
	SpellSortLevel SpellSort = "level"
	SpellSortName  SpellSort = "name"
)

// RowKind tells the dispatcher what an actionable row does.
type RowKind string

const (
	RowItem      RowKind = "item"
	RowSpell     RowKind = "spell"
	RowFeature   RowKind = "feature"
	RowAbility   RowKind = "ability"
	RowSave      RowKind = "save"
	RowSkill     RowKind = "skill"
	RowInit      RowKind = "init"
	RowDeathSave RowKind = "death"
	RowStatus    RowKind = "status"
	RowMovement  RowKind = "movement"
	RowEffect    RowKind = "effect"
	RowHitDie    RowKind = "hitdie"
	RowShortRest RowKind = "shortrest"
	RowLongRest  RowKind = "longrest"
)

// Row is one rendered button. Everything the view and the handlers need
// is derived here so rendering never reaches back into live entities.
type Row struct {
	ID   string
	Kind RowKind
	// Key is what the dispatcher acts on: the item/effect ID, the
	// ability or skill key, the status ID, or the movement mode.
	Key  string
	Name string
	Icon string
	// Uses renders as "2/3" when the row has limited charges.
	Uses string
	// Modifier is the signed bonus string on check rows.
	Modifier  string
	Disabled  bool
	Favorited bool
	Hidden    bool
	// Toggled marks an active status, the current movement mode, or an
	// enabled effect.
	Toggled bool
	// Description feeds the hover card, pre-capped at the rune limit.
	Description string
	// Tags are short warnings shown on the hover card.
	Tags []string
	// HasRollModes marks rows that accept a roll-mode popover.
	HasRollModes bool
	// Draggable marks rows that participate in manual reordering.
	Draggable bool
}

// SectionView is an ordered group of rows under a title.
type SectionView struct {
	Key   string
	Title string
	Rows  []Row
}

// ModeOption is one entry of a header mode selector.
type ModeOption struct {
	Value    string
	Label    string
	Selected bool
}

// Context is the fully derived view model for one render. It is built
// fresh every render and never cached across external changes.
type Context struct {
	TokenID string
	ActorID string
	Title   string
	Bound   bool
	// ShouldWarnNoToken is set when the user owns no tokens at all, as
	// opposed to merely having none bound right now.
	ShouldWarnNoToken bool

	Tabs      []Tab
	ActiveTab Tab
	Sections  []SectionView

	SortOptions       []ModeOption
	UnpreparedOptions []ModeOption
	SlotSummary       string
}

// BuildInput carries everything BuildContext reads. The function is
// pure with respect to its input: same input, same context.
type BuildInput struct {
	Registry host.Registry
	Flags    host.FlagStore
	Settings host.Settings
	Collator *collate.Collator

	TokenID    string
	ActiveTab  Tab
	ItemSort   grouping.KindPriority
	SpellSort  SpellSort
	Unprepared UnpreparedMode
	ShowHidden bool
	Filter     string
}

// descriptionCap bounds hover card descriptions.
const descriptionCap = 360

// ResolveTokenID picks the token the panel binds to. Resolution order:
// the requested ID when it still resolves, then the first controlled
// token the user owns, then the stored last token when still owned,
// then the first owned token. The second result reports whether the
// user owns no tokens at all; an unlucky binding with tokens available
// elsewhere is not worth a warning.
func ResolveTokenID(reg host.Registry, settings host.Settings, requested string) (string, bool) {
	owned := reg.OwnedTokens()
	warn := len(owned) == 0

	if requested != "" {
		if tok, _ := reg.ResolveToken(requested); tok != nil {
			return requested, warn
		}
	}

	ownedSet := map[string]bool{}
	for _, tok := range owned {
		ownedSet[tok.ID] = true
	}
	for _, tok := range reg.Controlled() {
		if ownedSet[tok.ID] {
			return tok.ID, warn
		}
	}
	if settings != nil {
		if last, ok := settings.Get(host.SettingLastToken); ok && ownedSet[last] {
			return last, warn
		}
	}
	if len(owned) > 0 {
		return owned[0].ID, warn
	}
	return "", warn
}

// BuildContext derives the complete view model for the current render.
func BuildContext(in BuildInput) *Context {
	ctx := &Context{
		Tabs:      TabOrder,
		ActiveTab: in.ActiveTab,
	}

	tokenID, warn := ResolveTokenID(in.Registry, in.Settings, in.TokenID)
	ctx.ShouldWarnNoToken = warn
	ctx.TokenID = tokenID
	if tokenID == "" {
		ctx.Title = "quickbar — no token"
		return ctx
	}

	token, actor := in.Registry.ResolveToken(tokenID)
	if token == nil {
		ctx.Title = "quickbar — no token"
		ctx.TokenID = ""
		return ctx
	}
	ctx.Bound = true
	ctx.Title = token.Name
	if actor != nil {
		ctx.ActorID = actor.ID
	}

	ctx.SortOptions = sortOptions(in.ActiveTab, in.ItemSort, in.SpellSort)
	ctx.UnpreparedOptions = unpreparedOptions(in.Unprepared)

	b := &contextBuilder{in: in, token: token, actor: actor}
	switch in.ActiveTab {
	case TabItems:
		ctx.Sections = b.itemSections()
	case TabFeatures:
		ctx.Sections = b.featureSections()
	case TabSpells:
		ctx.Sections = b.spellSections()
		ctx.SlotSummary = slotSummary(actor)
	case TabChecks:
		ctx.Sections = b.checkSections()
	case TabState:
		ctx.Sections = b.stateSections()
	case TabCustom:
		ctx.Sections = b.customSections()
	}

	if in.Filter != "" {
		ctx.Sections = filterSections(ctx.Sections, in.Filter)
	}
	return ctx
}

type contextBuilder struct {
	in    BuildInput
	token *model.Token
	actor *model.Actor

	sortOrders     map[string][]string
	sortOrdersRead bool
}

// itemFlags is the per-item flag set, read in one pass per row.
type itemFlags struct {
	hidden    bool
	favorited bool
	forceShow bool
	alias     string
}

func (b *contextBuilder) flagsOf(itemID string) itemFlags {
	var f itemFlags
	if b.in.Flags == nil || b.actor == nil {
		return f
	}
	scope := host.ItemScope(b.actor.ID, itemID)
	f.hidden, _ = host.GetBool(b.in.Flags, scope, host.FlagHidden)
	f.favorited, _ = host.GetBool(b.in.Flags, scope, host.FlagFavorited)
	f.forceShow, _ = host.GetBool(b.in.Flags, scope, host.FlagForceShow)
	f.alias, _, _ = b.in.Flags.Get(scope, host.FlagAlias)
	return f
}

// displayName applies the alias flag; grouping sorts on the same name
// the user sees.
func (b *contextBuilder) displayName(it *model.Item) string {
	if f := b.flagsOf(it.ID); f.alias != "" {
		return f.alias
	}
	return it.Name
}

func (b *contextBuilder) manualOrder(sectionKey string) []string {
	if b.in.Flags == nil || b.actor == nil {
		return nil
	}
	if !b.sortOrdersRead {
		b.sortOrdersRead = true
		b.sortOrders = map[string][]string{}
		host.GetJSON(b.in.Flags, host.ActorScope(b.actor.ID), host.FlagSortOrders, &b.sortOrders)
	}
	return b.sortOrders[sectionKey]
}

func (b *contextBuilder) itemsOfKinds(kinds ...model.ItemKind) []*model.Item {
	if b.actor == nil {
		return nil
	}
	want := map[model.ItemKind]bool{}
	for _, k := range kinds {
		want[k] = true
	}
	var out []*model.Item
	for _, it := range b.actor.Items {
		if want[it.Kind] {
			out = append(out, it)
		}
	}
	return out
}

// itemRow builds the display row for a sheet item. A nil-flagged hidden
// row is not skipped here; visibility is the section builders' call.
func (b *contextBuilder) itemRow(it *model.Item, kind RowKind) (Row, itemFlags) {
	f := b.flagsOf(it.ID)
	row := Row{
		ID:           it.ID,
		Kind:         kind,
		Key:          it.ID,
		Name:         b.displayName(it),
		Icon:         it.Icon,
		Favorited:    f.favorited,
		Hidden:       f.hidden,
		Description:  truncateRunes(it.Description, descriptionCap),
		HasRollModes: true,
		Draggable:    true,
	}
	if it.Uses != nil {
		row.Uses = fmt.Sprintf("%d/%d", it.Uses.Value, it.Uses.Max)
		if it.Uses.Value <= 0 && it.Uses.Max > 0 {
			row.Disabled = true
		}
	}
	if it.Kind == model.KindWeapon && !it.Equipped {
		row.Tags = append(row.Tags, "not equipped")
	}
	if (it.Kind == model.KindWeapon || it.Kind == model.KindTool) && !it.Proficient {
		row.Tags = append(row.Tags, "not proficient")
	}
	return row, f
}

// sectionsFromGroups converts grouping sections into display sections,
// applying manual order, hidden-row visibility, and a per-row decorator.
func (b *contextBuilder) sectionsFromGroups(groups []grouping.Section, kind RowKind, decorate func(*model.Item, *Row) bool) []SectionView {
	var out []SectionView
	for _, g := range groups {
		items := grouping.ApplyManualOrder(g.Items, b.manualOrder(g.Key))
		sec := SectionView{Key: g.Key, Title: g.Title}
		for _, it := range items {
			row, f := b.itemRow(it, kind)
			if f.hidden && !b.in.ShowHidden {
				continue
			}
			if decorate != nil && !decorate(it, &row) {
				continue
			}
			sec.Rows = append(sec.Rows, row)
		}
		if len(sec.Rows) > 0 {
			out = append(out, sec)
		}
	}
	return out
}

func (b *contextBuilder) itemSections() []SectionView {
	items := b.itemsOfKinds(model.KindWeapon, model.KindEquipment, model.KindConsumable,
		model.KindTool, model.KindLoot, model.KindContainer)
	groups := grouping.ByKind(items, b.in.ItemSort, b.in.Collator, b.displayName)
	return b.sectionsFromGroups(groups, RowItem, nil)
}

func (b *contextBuilder) featureSections() []SectionView {
	all := b.itemsOfKinds(model.KindFeature)
	// Passive features stay off the bar unless force-shown.
	var features []*model.Item
	for _, it := range all {
		if it.Activation.IsPassive() && !b.flagsOf(it.ID).forceShow {
			continue
		}
		features = append(features, it)
	}
	groups := grouping.ByActivation(features, true, b.in.Collator, b.displayName)
	return b.sectionsFromGroups(groups, RowFeature, nil)
}

func (b *contextBuilder) spellSections() []SectionView {
	spells := b.itemsOfKinds(model.KindSpell)
	if b.in.Unprepared == UnpreparedHide {
		var kept []*model.Item
		for _, s := range spells {
			if s.PrepState() != model.PrepStateUnprepared {
				kept = append(kept, s)
			}
		}
		spells = kept
	}

	var groups []grouping.Section
	if b.in.SpellSort == SpellSortName {
		sorted := append([]*model.Item(nil), spells...)
		coll := b.in.Collator
		sort.SliceStable(sorted, func(i, j int) bool {
			a, c := b.displayName(sorted[i]), b.displayName(sorted[j])
			if coll == nil {
				return a < c
			}
			return coll.CompareString(a, c) < 0
		})
		groups = []grouping.Section{{Key: "spells:all", Title: "Spells", Items: sorted}}
	} else {
		groups = grouping.SpellsByLevel(spells, b.in.Collator, b.displayName)
		for i := range groups {
			if glyphs := b.levelGlyphs(groups[i].Key); glyphs != "" {
				groups[i].Title += " " + glyphs
			}
		}
	}

	return b.sectionsFromGroups(groups, RowSpell, func(it *model.Item, row *Row) bool {
		if b.in.Unprepared == UnpreparedDisable && it.PrepState() == model.PrepStateUnprepared {
			row.Disabled = true
		}
		return true
	})
}

// levelGlyphs annotates a level section title with the slot pool.
func (b *contextBuilder) levelGlyphs(sectionKey string) string {
	if b.actor == nil {
		return ""
	}
	lvl, err := strconv.Atoi(strings.TrimPrefix(sectionKey, "level:"))
	if err != nil || lvl == 0 {
		return ""
	}
	return grouping.SlotGlyphs(b.actor.Slots[lvl])
}

func (b *contextBuilder) checkSections() []SectionView {
	a := b.actor

	abilities := SectionView{Key: "checks:abilities", Title: "Abilities"}
	saves := SectionView{Key: "checks:saves", Title: "Saves"}
	for _, key := range abilityKeys(a) {
		abilities.Rows = append(abilities.Rows, Row{
			ID:           "ability:" + key,
			Kind:         RowAbility,
			Key:          key,
			Name:         abilityLabel(key),
			Modifier:     modifiers.FormatSigned(modifiers.AbilityCheckBonus(a, key)),
			HasRollModes: true,
		})
		saves.Rows = append(saves.Rows, Row{
			ID:           "save:" + key,
			Kind:         RowSave,
			Key:          key,
			Name:         abilityLabel(key),
			Modifier:     modifiers.FormatSigned(modifiers.AbilitySaveBonus(a, key)),
			HasRollModes: true,
		})
	}

	skills := SectionView{Key: "checks:skills", Title: "Skills"}
	for _, key := range skillKeys(a, b.in.Collator) {
		skills.Rows = append(skills.Rows, Row{
			ID:           "skill:" + key,
			Kind:         RowSkill,
			Key:          key,
			Name:         titleCase(key),
			Modifier:     modifiers.FormatSigned(modifiers.SkillCheckBonus(a, key)),
			HasRollModes: true,
		})
	}

	other := SectionView{
		Key:   "checks:other",
		Title: "Other",
		Rows: []Row{
			{
				ID:           "init",
				Kind:         RowInit,
				Name:         "Initiative",
				Modifier:     modifiers.FormatSigned(modifiers.InitiativeBonus(a)),
				HasRollModes: true,
			},
			{
				ID:           "death",
				Kind:         RowDeathSave,
				Name:         "Death Save",
				Modifier:     modifiers.FormatSigned(modifiers.DeathSaveBonus(a)),
				HasRollModes: true,
			},
		},
	}

	var out []SectionView
	for _, sec := range []SectionView{abilities, saves, skills, other} {
		if len(sec.Rows) > 0 {
			out = append(out, sec)
		}
	}
	return out
}

// DefaultStatuses is the common status set toggled from the state tab.
var DefaultStatuses = []string{
	"prone", "grappled", "restrained", "poisoned",
	"stunned", "blinded", "invisible", "concentrating",
}

func (b *contextBuilder) stateSections() []SectionView {
	statuses := SectionView{Key: "state:statuses", Title: "Statuses"}
	for _, id := range DefaultStatuses {
		statuses.Rows = append(statuses.Rows, Row{
			ID:      "status:" + id,
			Kind:    RowStatus,
			Key:     id,
			Name:    titleCase(id),
			Toggled: b.token.HasStatus(id),
		})
	}

	movement := SectionView{Key: "state:movement", Title: "Movement"}
	current := b.token.Movement
	if current == "" {
		current = model.MoveWalk
	}
	for _, mode := range model.MovementOrder {
		movement.Rows = append(movement.Rows, Row{
			ID:       "move:" + string(mode),
			Kind:     RowMovement,
			Key:      string(mode),
			Name:     titleCase(string(mode)),
			Toggled:  mode == current,
			Disabled: !b.token.CanMove(mode),
		})
	}

	effects := SectionView{Key: "state:effects", Title: "Effects"}
	if b.actor != nil {
		for _, e := range b.actor.Effects {
			effects.Rows = append(effects.Rows, Row{
				ID:      "effect:" + e.ID,
				Kind:    RowEffect,
				Key:     e.ID,
				Name:    e.Name,
				Icon:    e.Icon,
				Toggled: !e.Disabled,
			})
		}
	}

	recovery := SectionView{Key: "state:recovery", Title: "Recovery"}
	if b.actor != nil {
		hd := Row{ID: "hitdie", Kind: RowHitDie, Name: "Hit Die"}
		if b.actor.HitDice.Max > 0 {
			hd.Uses = fmt.Sprintf("%d/%d", b.actor.HitDice.Value, b.actor.HitDice.Max)
		}
		hd.Disabled = b.actor.HitDice.Value <= 0
		recovery.Rows = append(recovery.Rows,
			hd,
			Row{ID: "shortrest", Kind: RowShortRest, Name: "Short Rest"},
			Row{ID: "longrest", Kind: RowLongRest, Name: "Long Rest"},
		)
	}

	var out []SectionView
	for _, sec := range []SectionView{statuses, movement, effects, recovery} {
		if len(sec.Rows) > 0 {
			out = append(out, sec)
		}
	}
	return out
}

// customSections collects favorited rows across every category into a
// single manually orderable bar.
func (b *contextBuilder) customSections() []SectionView {
	if b.actor == nil {
		return nil
	}
	var favs []*model.Item
	for _, it := range b.actor.Items {
		if b.flagsOf(it.ID).favorited {
			favs = append(favs, it)
		}
	}
	coll := b.in.Collator
	sort.SliceStable(favs, func(i, j int) bool {
		a, c := b.displayName(favs[i]), b.displayName(favs[j])
		if coll == nil {
			return a < c
		}
		return coll.CompareString(a, c) < 0
	})

	group := grouping.Section{Key: "custom", Title: "Favorites", Items: favs}
	return b.sectionsFromGroups([]grouping.Section{group}, RowItem, func(it *model.Item, row *Row) bool {
		switch it.Kind {
		case model.KindSpell:
			row.Kind = RowSpell
		case model.KindFeature:
			row.Kind = RowFeature
		}
		return true
	})
}

func sortOptions(tab Tab, itemSort grouping.KindPriority, spellSort SpellSort) []ModeOption {
	switch tab {
	case TabItems:
		return []ModeOption{
			{Value: string(grouping.WeaponFirst), Label: "Weapons first", Selected: itemSort == grouping.WeaponFirst},
			{Value: string(grouping.ConsumableFirst), Label: "Consumables first", Selected: itemSort == grouping.ConsumableFirst},
		}
	case TabSpells:
		return []ModeOption{
			{Value: string(SpellSortLevel), Label: "By level", Selected: spellSort == SpellSortLevel},
			{Value: string(SpellSortName), Label: "By name", Selected: spellSort == SpellSortName},
		}
	}
	return nil
}

func unpreparedOptions(mode UnpreparedMode) []ModeOption {
	return []ModeOption{
		{Value: string(UnpreparedHide), Label: "Hide unprepared", Selected: mode == UnpreparedHide},
		{Value: string(UnpreparedDisable), Label: "Disable unprepared", Selected: mode == UnpreparedDisable},
		{Value: string(UnpreparedIgnore), Label: "Show unprepared", Selected: mode == UnpreparedIgnore},
	}
}

// slotSummary renders the actor's slot pools for the spells tab header.
func slotSummary(actor *model.Actor) string {
	if actor == nil {
		return ""
	}
	var levels []int
	for lvl, pool := range actor.Slots {
		if pool.Max > 0 {
			levels = append(levels, lvl)
		}
	}
	sort.Ints(levels)

	var parts []string
	for _, lvl := range levels {
		parts = append(parts, fmt.Sprintf("L%d %s", lvl, grouping.SlotGlyphs(actor.Slots[lvl])))
	}
	if actor.Pact.Max > 0 {
		parts = append(parts, "Pact "+grouping.SlotGlyphs(actor.Pact))
	}
	return strings.Join(parts, " · ")
}

// filterSections keeps only rows fuzzy-matching the query, preserving
// section and match order. Empty sections drop out.
func filterSections(sections []SectionView, query string) []SectionView {
	var out []SectionView
	for _, sec := range sections {
		names := make([]string, len(sec.Rows))
		for i, r := range sec.Rows {
			names[i] = r.Name
		}
		matches := fuzzy.Find(query, names)
		if len(matches) == 0 {
			continue
		}
		kept := SectionView{Key: sec.Key, Title: sec.Title}
		for _, m := range matches {
			kept.Rows = append(kept.Rows, sec.Rows[m.Index])
		}
		out = append(out, kept)
	}
	return out
}

var abilityDisplayOrder = []string{"str", "dex", "con", "int", "wis", "cha"}

var abilityLabels = map[string]string{
	"str": "Strength",
	"dex": "Dexterity",
	"con": "Constitution",
	"int": "Intelligence",
	"wis": "Wisdom",
	"cha": "Charisma",
}

func abilityLabel(key string) string {
	if l, ok := abilityLabels[key]; ok {
		return l
	}
	return titleCase(key)
}

// abilityKeys returns the actor's abilities in the fixed display order,
// with unrecognized keys sorted after the known ones.
func abilityKeys(actor *model.Actor) []string {
	if actor == nil {
		return nil
	}
	known := map[string]bool{}
	var keys []string
	for _, k := range abilityDisplayOrder {
		if _, ok := actor.Abilities[k]; ok {
			keys = append(keys, k)
			known[k] = true
		}
	}
	var extra []string
	for k := range actor.Abilities {
		if !known[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	return append(keys, extra...)
}

func skillKeys(actor *model.Actor, coll *collate.Collator) []string {
	if actor == nil {
		return nil
	}
	keys := make([]string, 0, len(actor.Skills))
	for k := range actor.Skills {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if coll == nil {
			return keys[i] < keys[j]
		}
		return coll.CompareString(keys[i], keys[j]) < 0
	})
	return keys
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

func truncateRunes(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "…"
}
