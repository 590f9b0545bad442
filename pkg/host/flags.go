package host

import (
	"encoding/json"
	"fmt"
)

// Flag keys stored per item under the quickbar namespace.
const (
	FlagHidden    = "hidden"
	FlagFavorited = "favorited"
	FlagForceShow = "forceShow"
	FlagAlias     = "alias"
)

// FlagSortOrders is the per-actor flag holding manual sort orders,
// a JSON object mapping section keys to ordered item ID lists.
const FlagSortOrders = "sortOrders"

// Setting keys for client-scoped settings that persist across sessions.
const (
	SettingLastToken      = "lastToken"
	SettingSpellSortMode  = "spellSortMode"
	SettingUnpreparedMode = "spellUnpreparedMode"
)

// FlagStore is namespaced key/value storage scoped to an entity or
// sub-item. Values are opaque strings; JSON helpers below handle
// structured values. Writes are read-modify-write with last-write-wins
// semantics, matching the single-user-editing-their-own-entity pattern.
type FlagStore interface {
	Get(scope, key string) (string, bool, error)
	Set(scope, key, value string) error
	Unset(scope, key string) error
}

// Settings is client-scoped storage persisting across sessions for the
// local user only.
type Settings interface {
	Get(key string) (string, bool)
	Set(key, value string)
}

// ItemScope builds the flag scope for a sub-item of an actor.
func ItemScope(actorID, itemID string) string {
	return "actor:" + actorID + "/item:" + itemID
}

// ActorScope builds the flag scope for an actor.
func ActorScope(actorID string) string {
	return "actor:" + actorID
}

// GetBool reads a boolean flag; absent flags read as false.
func GetBool(s FlagStore, scope, key string) (bool, error) {
	v, ok, err := s.Get(scope, key)
	if err != nil || !ok {
		return false, err
	}
	return v == "true", nil
}

// SetBool writes a boolean flag; false unsets it to keep stores compact.
func SetBool(s FlagStore, scope, key string, value bool) error {
	if !value {
		return s.Unset(scope, key)
	}
	return s.Set(scope, key, "true")
}

// GetJSON reads a JSON-encoded flag into target. A missing flag leaves
// target untouched and returns false.
func GetJSON(s FlagStore, scope, key string, target any) (bool, error) {
	v, ok, err := s.Get(scope, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal([]byte(v), target); err != nil {
		return false, fmt.Errorf("decode flag %s/%s: %w", scope, key, err)
	}
	return true, nil
}

// SetJSON writes a JSON-encoded flag.
func SetJSON(s FlagStore, scope, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode flag %s/%s: %w", scope, key, err)
	}
	return s.Set(scope, key, string(data))
}
