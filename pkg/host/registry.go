package host

import "github.com/tablemark/quickbar/pkg/model"

// Registry resolves tokens and actors on the current scene. Lookups are
// live: a token present on one call may be gone on the next, and callers
// must tolerate a nil result.
type Registry interface {
	// ResolveToken returns the token and its actor, or nils when the ID
	// no longer resolves.
	ResolveToken(tokenID string) (*model.Token, *model.Actor)

	// OwnedTokens returns the scene tokens owned by the current user,
	// in scene order.
	OwnedTokens() []*model.Token

	// Controlled returns the currently selected tokens, in selection order.
	Controlled() []*model.Token

	// Encounter returns the active encounter, or nil when none is running.
	Encounter() *model.Encounter
}

// Writer applies mutations to live entities. Each method is a no-op
// when the target no longer exists; implementations publish the
// matching change event after the mutation lands.
type Writer interface {
	UpdateActor(actorID string, fn func(*model.Actor))
	UpdateToken(tokenID string, fn func(*model.Token))
	UpdateEffect(actorID, effectID string, fn func(*model.Effect))
	DeleteEffect(actorID, effectID string)
}
