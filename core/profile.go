package core

// ProfileStore persists the active external account id and preferred display
// names keyed by account id. The mail package layers an AccountResolver on
// top of it.
type ProfileStore interface {
	// SetActiveAccount marks the account as the active one. An empty id
	// clears the active account.
	SetActiveAccount(accountID string) error

	// ActiveAccount returns the active account id, or "" if none.
	ActiveAccount() (string, error)

	// SetDisplayName stores the preferred display name for an account.
	SetDisplayName(accountID, name string) error

	// DisplayNameFor returns the stored display name for an account, or ""
	// if unknown.
	DisplayNameFor(accountID string) (string, error)
}
