package service

import (
	"errors"

	"go.uber.org/zap"

	"BabyKeeper/internal/cli/api"
	"BabyKeeper/internal/cli/repo"
	"BabyKeeper/internal/cli/repo/sqlite"
	"BabyKeeper/internal/cli/store"
	"BabyKeeper/internal/config"
)

// Engine owns all client-side sync state: the local store, its repositories,
// the wire client and the revocation detector. Nothing here is package-level;
// two engines over two stores can coexist in one process (tests do exactly
// that).
type Engine struct {
	cfg    *config.Config
	log    *zap.SugaredLogger
	store  *store.Store
	client *api.Client
	tokens repo.TokenStore

	Entities *sqlite.EntityRepo
	Logs     *sqlite.LogRepo
	Outbox   *sqlite.OutboxRepo
	Cursors  *sqlite.CursorRepo
	Session  *sqlite.SessionRepo

	events   *Events
	detector *detector
}

func NewEngine(cfg *config.Config, log *zap.SugaredLogger, s *store.Store, client *api.Client, tokens repo.TokenStore) *Engine {
	return &Engine{
		cfg:      cfg,
		log:      log,
		store:    s,
		client:   client,
		tokens:   tokens,
		Entities: sqlite.NewEntityRepo(s),
		Logs:     sqlite.NewLogRepo(s),
		Outbox:   sqlite.NewOutboxRepo(s),
		Cursors:  sqlite.NewCursorRepo(s),
		Session:  sqlite.NewSessionRepo(s),
		events:   NewEvents(),
		detector: newDetector(),
	}
}

// Events exposes the notice bus for the UI layer.
func (e *Engine) Events() *Events { return e.events }

// Store exposes the underlying store, mainly for the notifier.
func (e *Engine) Store() *store.Store { return e.store }

var (
	ErrNotSignedIn = errors.New("not signed in")
	ErrNoAccess    = errors.New("no access to this baby")
	ErrReadOnly    = errors.New("access is read-only")
)

// currentUserID returns the cached user's id or ErrNotSignedIn on a cold
// store.
func (e *Engine) currentUserID() (string, error) {
	u, err := e.Entities.GetUser()
	if err != nil {
		return "", err
	}
	if u == nil {
		return "", ErrNotSignedIn
	}
	return u.ID, nil
}

// requireEdit checks the local access grant before accepting a mutation.
// Viewers are rejected up front rather than round-tripping a doomed push.
func (e *Engine) requireEdit(babyID string) (string, error) {
	userID, err := e.currentUserID()
	if err != nil {
		return "", err
	}
	g, err := e.Entities.GetAccess(babyID, userID)
	if err != nil {
		return "", err
	}
	if g == nil {
		return "", ErrNoAccess
	}
	if !g.Level.CanEdit() {
		return "", ErrReadOnly
	}
	return userID, nil
}
