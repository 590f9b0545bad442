package grouping

import "github.com/tablemark/quickbar/pkg/model"

// ApplyManualOrder overlays a stored manual order on a base item list.
// Items whose IDs appear in stored come first, in stored order; the
// remaining items keep their original relative order and follow.
// Stored IDs that no longer resolve to an item are skipped. The overlay
// is idempotent: applying the order produced by ExtractOrder of a
// previous application changes nothing.
func ApplyManualOrder(items []*model.Item, stored []string) []*model.Item {
	if len(stored) == 0 {
		return items
	}

	byID := make(map[string]*model.Item, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}

	placed := make(map[string]bool, len(stored))
	result := make([]*model.Item, 0, len(items))
	for _, id := range stored {
		it, ok := byID[id]
		if !ok || placed[id] {
			continue
		}
		placed[id] = true
		result = append(result, it)
	}
	for _, it := range items {
		if !placed[it.ID] {
			result = append(result, it)
		}
	}
	return result
}

// ExtractOrder returns the item IDs in list order, suitable for
// persisting as a manual sort order.
func ExtractOrder(items []*model.Item) []string {
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	return ids
}
