package mail

import (
	"github.com/sandeep231004/gmailassistant/core"
	"github.com/sandeep231004/gmailassistant/logging"
)

// Resolver implements core.AccountResolver over a profile store. Store
// failures resolve to "" so callers degrade to the not-connected path
// instead of propagating storage errors through tool handlers.
type Resolver struct {
	profiles core.ProfileStore
	logger   logging.Logger
}

// NewResolver constructs a resolver over the given profile store.
func NewResolver(profiles core.ProfileStore, optFns ...func(o *ResolverOptions)) *Resolver {
	opts := ResolverOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Resolver{profiles: profiles, logger: logging.OrNoOp(opts.Logger)}
}

// ResolverOptions configures a Resolver.
type ResolverOptions struct {
	Logger logging.Logger
}

// ActiveAccountID implements core.AccountResolver.
func (r *Resolver) ActiveAccountID() string {
	id, err := r.profiles.ActiveAccount()
	if err != nil {
		r.logger.Warn("active account lookup failed", "error", err)
		return ""
	}
	return id
}

// DisplayName implements core.AccountResolver.
func (r *Resolver) DisplayName(accountID string) string {
	if accountID == "" {
		return ""
	}
	name, err := r.profiles.DisplayNameFor(accountID)
	if err != nil {
		r.logger.Warn("display name lookup failed", "account", accountID, "error", err)
		return ""
	}
	return name
}
