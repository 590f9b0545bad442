// Package grouping partitions and orders sheet items into display
// sections. All functions are pure: they never mutate their inputs and
// every input item appears in exactly one output section.
package grouping

import (
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/tablemark/quickbar/pkg/model"
)

// Section is an ordered group of items under a display title.
type Section struct {
	Key   string
	Title string
	Items []*model.Item
}

// KindPriority selects which kind bucket leads the by-kind ordering.
type KindPriority string

const (
	WeaponFirst     KindPriority = "weapon"
	ConsumableFirst KindPriority = "consumable"
)

var kindTitles = map[model.ItemKind]string{
	model.KindWeapon:     "Weapons",
	model.KindEquipment:  "Equipment",
	model.KindConsumable: "Consumables",
	model.KindTool:       "Tools",
	model.KindLoot:       "Loot",
	model.KindContainer:  "Containers",
}

// NewCollator builds a locale-aware collator for the given BCP 47 tag.
// An unparseable tag falls back to English.
func NewCollator(tag string) *collate.Collator {
	t, err := language.Parse(tag)
	if err != nil {
		t = language.English
	}
	return collate.New(t)
}

// compareNames orders two names with the collator, or bytewise when nil.
func compareNames(coll *collate.Collator, a, b string) int {
	if coll == nil {
		return strings.Compare(a, b)
	}
	return coll.CompareString(a, b)
}

func sortByName(coll *collate.Collator, items []*model.Item, nameOf func(*model.Item) string) {
	sort.SliceStable(items, func(i, j int) bool {
		return compareNames(coll, nameOf(items[i]), nameOf(items[j])) < 0
	})
}

// ByKind partitions items into kind buckets. Bucket order is the known
// priority list with the leading pair swapped per priority, then
// unrecognized kinds ordered by collated name. Entries within a bucket
// are collated by display name. Empty buckets are omitted.
func ByKind(items []*model.Item, priority KindPriority, coll *collate.Collator, nameOf func(*model.Item) string) []Section {
	if nameOf == nil {
		nameOf = func(i *model.Item) string { return i.Name }
	}

	buckets := map[model.ItemKind][]*model.Item{}
	for _, it := range items {
		buckets[it.Kind] = append(buckets[it.Kind], it)
	}

	first, second := model.KindWeapon, model.KindConsumable
	if priority == ConsumableFirst {
		first, second = second, first
	}
	known := []model.ItemKind{model.KindEquipment, model.KindTool, model.KindLoot, model.KindContainer}
	order := append([]model.ItemKind{first, second}, known...)

	inOrder := map[model.ItemKind]bool{}
	for _, k := range order {
		inOrder[k] = true
	}
	var extra []model.ItemKind
	for k := range buckets {
		if !inOrder[k] {
			extra = append(extra, k)
		}
	}
	sort.Slice(extra, func(i, j int) bool {
		return compareNames(coll, string(extra[i]), string(extra[j])) < 0
	})
	order = append(order, extra...)

	var sections []Section
	for _, kind := range order {
		list := buckets[kind]
		if len(list) == 0 {
			continue
		}
		sorted := append([]*model.Item(nil), list...)
		sortByName(coll, sorted, nameOf)
		title, ok := kindTitles[kind]
		if !ok {
			title = string(kind)
		}
		sections = append(sections, Section{Key: "kind:" + string(kind), Title: title, Items: sorted})
	}
	return sections
}

var activationTitles = map[model.Activation]string{
	model.ActivationAction:    "Actions",
	model.ActivationBonus:     "Bonus Actions",
	model.ActivationReaction:  "Reactions",
	model.ActivationLegendary: "Legendary",
}

// ByActivation partitions items by activation timing into the fixed
// order {action, bonus, reaction, legendary, other}. The legendary
// bucket only exists when includeLegendary is set (features); otherwise
// legendary entries fold into other. Empty buckets are omitted.
func ByActivation(items []*model.Item, includeLegendary bool, coll *collate.Collator, nameOf func(*model.Item) string) []Section {
	if nameOf == nil {
		nameOf = func(i *model.Item) string { return i.Name }
	}

	normalize := func(a model.Activation) model.Activation {
		switch a {
		case model.ActivationAction, model.ActivationBonus, model.ActivationReaction:
			return a
		case model.ActivationLegendary:
			if includeLegendary {
				return a
			}
		}
		return "other"
	}

	order := []model.Activation{model.ActivationAction, model.ActivationBonus, model.ActivationReaction}
	if includeLegendary {
		order = append(order, model.ActivationLegendary)
	}
	order = append(order, "other")

	buckets := map[model.Activation][]*model.Item{}
	for _, it := range items {
		key := normalize(it.Activation)
		buckets[key] = append(buckets[key], it)
	}

	var sections []Section
	for _, act := range order {
		list := buckets[act]
		if len(list) == 0 {
			continue
		}
		sorted := append([]*model.Item(nil), list...)
		sortByName(coll, sorted, nameOf)
		title, ok := activationTitles[act]
		if !ok {
			title = "Other"
		}
		sections = append(sections, Section{Key: "time:" + string(act), Title: title, Items: sorted})
	}
	return sections
}

var levelTitles = [10]string{
	"Cantrips",
	"1st Circle",
	"2nd Circle",
	"3rd Circle",
	"4th Circle",
	"5th Circle",
	"6th Circle",
	"7th Circle",
	"8th Circle",
	"9th Circle",
}

// LevelTitle returns the fixed display title for a spell level.
func LevelTitle(level int) string {
	if level >= 0 && level < len(levelTitles) {
		return levelTitles[level]
	}
	return "Unknown Circle"
}

// SpellsByLevel partitions spells by level 0-9 in ascending order with
// fixed titles. Entries within a level are collated by display name.
// Empty levels are omitted.
func SpellsByLevel(spells []*model.Item, coll *collate.Collator, nameOf func(*model.Item) string) []Section {
	if nameOf == nil {
		nameOf = func(i *model.Item) string { return i.Name }
	}

	buckets := map[int][]*model.Item{}
	for _, s := range spells {
		buckets[s.Level] = append(buckets[s.Level], s)
	}

	var levels []int
	for lvl := range buckets {
		levels = append(levels, lvl)
	}
	sort.Ints(levels)

	var sections []Section
	for _, lvl := range levels {
		sorted := append([]*model.Item(nil), buckets[lvl]...)
		sortByName(coll, sorted, nameOf)
		sections = append(sections, Section{
			Key:   "level:" + strconv.Itoa(lvl),
			Title: LevelTitle(lvl),
			Items: sorted,
		})
	}
	return sections
}

// SlotGlyphs renders a slot pool as filled and empty glyphs, for
// annotating spell level section titles.
func SlotGlyphs(pool model.SlotPool) string {
	if pool.Max <= 0 {
		return ""
	}
	filled := pool.Value
	if filled < 0 {
		filled = 0
	}
	if filled > pool.Max {
		filled = pool.Max
	}
	return strings.Repeat("●", filled) + strings.Repeat("○", pool.Max-filled)
}
