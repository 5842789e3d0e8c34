package repo

// TokenStore abstracts where the client keeps its auth token.
type TokenStore interface {
	Save(token string) error
	Load() (string, error)
	Clear() error
}

// UserContextStore remembers the last logged-in user between runs.
type UserContextStore interface {
	SaveLogin(login string) error
	LoadLogin() (string, error)
}
