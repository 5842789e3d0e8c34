package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"BabyKeeper/internal/cli/api"
)

var ErrSessionExpired = errors.New("offline session expired")

// Register creates an account. The wire client persists the auth cookie the
// server sets on success.
func (e *Engine) Register(ctx context.Context, email, password string) error {
	st, msg := e.client.Register(ctx, email, password)
	if st != api.StatusOK {
		return fmt.Errorf("register failed (%s): %s", st.String(), msg)
	}
	return nil
}

// Login authenticates against the server and records the offline session.
func (e *Engine) Login(ctx context.Context, email, password string) (string, error) {
	resp, st, msg := e.client.Login(ctx, email, password)
	if st != api.StatusOK {
		return "", fmt.Errorf("login failed (%s): %s", st.String(), msg)
	}
	if err := e.Session.Save(resp.UserID, resp.ExternalID, e.cfg.SessionTTL); err != nil {
		return "", err
	}
	return resp.UserID, nil
}

// RequireSession answers "may this user work offline right now". A missing
// or expired session sends the user back to login; cached data is left
// untouched either way.
func (e *Engine) RequireSession() error {
	sess, err := e.Session.Get()
	if err != nil {
		return err
	}
	if sess == nil {
		return ErrNotSignedIn
	}
	if sess.Expired(time.Now()) {
		return ErrSessionExpired
	}
	return nil
}
