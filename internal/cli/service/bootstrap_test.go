package service

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BabyKeeper/internal/cli/api"
	"BabyKeeper/internal/cli/model"
)

func bootstrapHandler(resp api.BootstrapResponse) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/sync/bootstrap", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(resp)
	})
	return mux
}

func TestBootstrapSeedsColdStore(t *testing.T) {
	now := time.Now().UTC().Format(time.RFC3339)
	resp := api.BootstrapResponse{
		User: api.UserDTO{ID: "u1", ExternalID: "ext-u1", Email: "mum@example.com", DefaultBabyID: "b1", CreatedAt: now, UpdatedAt: now},
		Babies: []api.BabyDTO{
			{ID: "b1", Name: "Ada", OwnerUserID: "u1", CreatedAt: now, UpdatedAt: now},
			{ID: "b2", Name: "Bo", OwnerUserID: "u9", CreatedAt: now, UpdatedAt: now},
		},
		BabyAccess: []api.AccessDTO{
			{BabyID: "b1", UserID: "u1", AccessLevel: "owner"},
			{BabyID: "b2", UserID: "u1", AccessLevel: "viewer", CaregiverLabel: "grandma"},
		},
		RecentLogs:    []api.ChangeRecord{feedChange("f1", 17, 80)},
		CursorsByBaby: map[string]int64{"b1": 17, "b2": 3},
		ServerTime:    now,
	}
	e := newTestEngine(t, bootstrapHandler(resp))

	cold, err := e.NeedsBootstrap()
	require.NoError(t, err)
	assert.True(t, cold)

	st, msg := e.Bootstrap(context.Background())
	require.Equal(t, api.StatusOK, st, msg)

	cold, err = e.NeedsBootstrap()
	require.NoError(t, err)
	assert.False(t, cold)

	u, err := e.Entities.GetUser()
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "mum@example.com", u.Email)

	babies, err := e.Entities.ListBabies()
	require.NoError(t, err)
	assert.Len(t, babies, 2)

	g, err := e.Entities.GetAccess("b2", "u1")
	require.NoError(t, err)
	require.NotNil(t, g)
	assert.Equal(t, model.AccessViewer, g.Level)
	assert.Equal(t, "grandma", g.CaregiverLabel)

	feeds, err := e.Logs.ListFeed("b1", 10)
	require.NoError(t, err)
	assert.Len(t, feeds, 1)

	// Cursors sit at the snapshot watermark so the first pull starts there.
	c1, err := e.Cursors.Cursor("b1")
	require.NoError(t, err)
	assert.EqualValues(t, 17, c1)
	c2, err := e.Cursors.Cursor("b2")
	require.NoError(t, err)
	assert.EqualValues(t, 3, c2)

	// The default baby became the active selection and a session exists.
	active, err := e.Entities.ActiveBaby()
	require.NoError(t, err)
	assert.Equal(t, "b1", active)
	sess, err := e.Session.Get()
	require.NoError(t, err)
	assert.NotNil(t, sess)
}

func TestBootstrapTransientFailureLeavesStoreCold(t *testing.T) {
	e := newTestEngine(t, nil) // every call fails

	st, _ := e.Bootstrap(context.Background())
	assert.Equal(t, api.StatusTransient, st)

	cold, err := e.NeedsBootstrap()
	require.NoError(t, err)
	assert.True(t, cold)
}
