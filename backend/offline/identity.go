package offline

import (
	"context"

	"focusync/backend"
	"focusync/internal/storage"
	"focusync/internal/utils"
)

// LastUserKey is the storage key remembering the last resolved identity
const LastUserKey = "offline-last-user-id"

// IdentitySource says where a resolved identity came from
type IdentitySource string

const (
	IdentityNone      IdentitySource = ""
	IdentityExplicit  IdentitySource = "explicit"
	IdentityRemote    IdentitySource = "remote"
	IdentityLastKnown IdentitySource = "last-known"
)

// IdentityResolver picks the user a flush acts as.
type IdentityResolver struct {
	remote backend.RemoteStore
	store  storage.Store
	log    *utils.Logger
}

// NewIdentityResolver creates a resolver asking remote for the session and
// remembering identities in store.
func NewIdentityResolver(remote backend.RemoteStore, store storage.Store) *IdentityResolver {
	return &IdentityResolver{
		remote: remote,
		store:  store,
		log:    utils.Component("identity"),
	}
}

// Resolve returns the acting user id: explicit first, then the remote
// session, then the last identity the remote session reported. Explicit ids
// are one-offs and are not remembered. An empty id with IdentityNone means
// the flush has to wait; it is not an error.
func (r *IdentityResolver) Resolve(ctx context.Context, explicit string) (string, IdentitySource) {
	if explicit != "" {
		return explicit, IdentityExplicit
	}

	if r.remote != nil {
		id, err := r.remote.CurrentIdentity(ctx)
		switch {
		case err != nil:
			r.log.Debug("remote session lookup failed: %v", err)
		case id != "":
			r.remember(ctx, id)
			return id, IdentityRemote
		}
	}

	if id := r.LastKnown(ctx); id != "" {
		return id, IdentityLastKnown
	}
	return "", IdentityNone
}

// LastKnown returns the remembered identity, or "" when none is stored or
// storage cannot be read.
func (r *IdentityResolver) LastKnown(ctx context.Context) string {
	data, found, err := r.store.Get(ctx, LastUserKey)
	if err != nil {
		r.log.Debug("reading last known identity failed: %v", err)
		return ""
	}
	if !found {
		return ""
	}
	return string(data)
}

func (r *IdentityResolver) remember(ctx context.Context, id string) {
	if r.LastKnown(ctx) == id {
		return
	}
	if err := r.store.Set(ctx, LastUserKey, []byte(id)); err != nil {
		r.log.Warn("remembering identity failed: %v", err)
	}
}
