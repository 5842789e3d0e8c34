package service

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"BabyKeeper/internal/cli/api"
	"BabyKeeper/internal/cli/model"
	"BabyKeeper/internal/cli/store"
	"BabyKeeper/internal/config"
)

type memTokens struct{ token string }

func (m *memTokens) Save(token string) error { m.token = token; return nil }
func (m *memTokens) Load() (string, error)   { return m.token, nil }
func (m *memTokens) Clear() error            { m.token = ""; return nil }

func newTestEngine(t *testing.T, handler http.Handler) *Engine {
	t.Helper()
	t.Setenv("CLIENT_DB_PATH", t.TempDir())

	s, _, err := store.OpenForUser("tester")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate())

	if handler == nil {
		handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":"unexpected call"}`, http.StatusInternalServerError)
		})
	}
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		PullPageLimit: 100,
		SessionTTL:    time.Hour,
		HTTPTimeout:   5 * time.Second,
		SyncInterval:  time.Second,
	}
	tokens := &memTokens{token: "test-token"}
	client := api.NewClient(srv.URL, cfg.HTTPTimeout, tokens)
	return NewEngine(cfg, zap.NewNop().Sugar(), s, client, tokens)
}

// seedCaregiver caches a signed-in editor with one baby selected.
func seedCaregiver(t *testing.T, e *Engine, level model.AccessLevel) {
	t.Helper()
	now := time.Now()
	err := e.store.WithTx(func(tx *sql.Tx) error {
		if err := e.Entities.UpsertUser(tx, model.User{ID: "u1", ExternalID: "ext-u1", Email: "mum@example.com", CreatedAt: now, UpdatedAt: now}); err != nil {
			return err
		}
		if err := e.Entities.UpsertBaby(tx, model.Baby{ID: "b1", Name: "Ada", OwnerUserID: "u1", CreatedAt: now, UpdatedAt: now}); err != nil {
			return err
		}
		return e.Entities.UpsertAccess(tx, model.AccessGrant{BabyID: "b1", UserID: "u1", Level: level})
	}, "users", "babies", "baby_access")
	require.NoError(t, err)
	require.NoError(t, e.Entities.SetActiveBaby("b1"))
	require.NoError(t, e.Session.Save("u1", "ext-u1", time.Hour))
}

func TestCreateFeedWritesRowAndQueuesMutation(t *testing.T) {
	e := newTestEngine(t, nil)
	seedCaregiver(t, e, model.AccessEditor)

	l, err := e.CreateFeed(model.FeedLog{BabyID: "b1", Method: model.FeedBottle, AmountML: 120})
	require.NoError(t, err)
	assert.NotEmpty(t, l.ID)
	assert.Equal(t, "u1", l.LoggedByUserID)

	got, err := e.Logs.GetFeed(l.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 120.0, got.AmountML)

	pending, err := e.Outbox.ListPending()
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, model.EntityFeedLog, pending[0].EntityType)
	assert.Equal(t, model.OpCreate, pending[0].Op)
	assert.Equal(t, "b1", pending[0].BabyID)
	assert.Equal(t, l.ID, pending[0].EntityID)
}

func TestOutboxPreservesCreationOrder(t *testing.T) {
	e := newTestEngine(t, nil)
	seedCaregiver(t, e, model.AccessEditor)

	// Three activities logged offline must be delivered in the order they
	// happened, not reordered by type or timestamp.
	f, err := e.CreateFeed(model.FeedLog{BabyID: "b1", Method: model.FeedBreast, DurationMinutes: 15})
	require.NoError(t, err)
	s, err := e.CreateSleep(model.SleepLog{BabyID: "b1"})
	require.NoError(t, err)
	n, err := e.CreateNappy(model.NappyLog{BabyID: "b1", Type: model.NappyWee})
	require.NoError(t, err)

	pending, err := e.Outbox.ListPending()
	require.NoError(t, err)
	require.Len(t, pending, 3)
	assert.Equal(t, f.ID, pending[0].EntityID)
	assert.Equal(t, s.ID, pending[1].EntityID)
	assert.Equal(t, n.ID, pending[2].EntityID)
}

func TestDeleteAfterCreateKeepsCausalOrder(t *testing.T) {
	e := newTestEngine(t, nil)
	seedCaregiver(t, e, model.AccessEditor)

	l, err := e.CreateFeed(model.FeedLog{BabyID: "b1", Method: model.FeedBottle})
	require.NoError(t, err)
	require.NoError(t, e.DeleteFeed(l.ID))

	got, err := e.Logs.GetFeed(l.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	pending, err := e.Outbox.ListPending()
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, model.OpCreate, pending[0].Op)
	assert.Equal(t, model.OpDelete, pending[1].Op)
}

func TestViewerCannotMutate(t *testing.T) {
	e := newTestEngine(t, nil)
	seedCaregiver(t, e, model.AccessViewer)

	_, err := e.CreateFeed(model.FeedLog{BabyID: "b1", Method: model.FeedBottle})
	assert.ErrorIs(t, err, ErrReadOnly)

	n, err := e.Outbox.CountUnsynced()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMutationWithoutGrantRejected(t *testing.T) {
	e := newTestEngine(t, nil)
	seedCaregiver(t, e, model.AccessEditor)

	_, err := e.CreateFeed(model.FeedLog{BabyID: "b-unknown", Method: model.FeedBottle})
	assert.ErrorIs(t, err, ErrNoAccess)
}

func TestCreateFeedValidatesMethod(t *testing.T) {
	e := newTestEngine(t, nil)
	seedCaregiver(t, e, model.AccessEditor)

	_, err := e.CreateFeed(model.FeedLog{BabyID: "b1", Method: "intravenous"})
	assert.Error(t, err)
}

func TestSelectBabySwitchesActive(t *testing.T) {
	e := newTestEngine(t, nil)
	seedCaregiver(t, e, model.AccessEditor)
	now := time.Now()
	err := e.store.WithTx(func(tx *sql.Tx) error {
		if err := e.Entities.UpsertBaby(tx, model.Baby{ID: "b2", Name: "Bo", OwnerUserID: "u1", CreatedAt: now, UpdatedAt: now}); err != nil {
			return err
		}
		return e.Entities.UpsertAccess(tx, model.AccessGrant{BabyID: "b2", UserID: "u1", Level: model.AccessViewer})
	}, "babies", "baby_access")
	require.NoError(t, err)

	require.NoError(t, e.SelectBaby("b2"))
	active, err := e.Entities.ActiveBaby()
	require.NoError(t, err)
	assert.Equal(t, "b2", active)

	assert.ErrorIs(t, e.SelectBaby("nope"), ErrNotFound)
}

func TestCheckLogoutCountsUnsyncedWork(t *testing.T) {
	e := newTestEngine(t, nil)
	seedCaregiver(t, e, model.AccessEditor)

	_, err := e.CreateFeed(model.FeedLog{BabyID: "b1", Method: model.FeedBottle})
	require.NoError(t, err)

	check, err := e.CheckLogout()
	require.NoError(t, err)
	assert.Equal(t, 1, check.Unsynced)
	assert.True(t, check.CanSync, "no failed sync on record, sync-and-exit is worth offering")

	// A failed cycle means the server is presumed unreachable.
	require.NoError(t, e.Cursors.SetStatus(model.SyncStatus{
		EntityType: model.EntityBaby, Status: model.SyncError, ErrorMessage: "connection refused", Progress: -1,
	}))
	check, err = e.CheckLogout()
	require.NoError(t, err)
	assert.False(t, check.CanSync, "a failed last sync must not offer sync-and-exit")

	require.NoError(t, e.Cursors.SetStatus(model.SyncStatus{
		EntityType: model.EntityBaby, Status: model.SyncComplete, Progress: -1,
	}))
	check, err = e.CheckLogout()
	require.NoError(t, err)
	assert.True(t, check.CanSync)
}

func TestSyncAndLogoutFailsWhenServerUnreachable(t *testing.T) {
	e := newTestEngine(t, nil) // default handler fails every call
	seedCaregiver(t, e, model.AccessEditor)
	_, err := e.CreateFeed(model.FeedLog{BabyID: "b1", Method: model.FeedBottle})
	require.NoError(t, err)

	err = e.SyncAndLogout(context.Background())
	assert.Error(t, err)

	// Nothing was destroyed and the queue survived for a later attempt.
	n, err := e.Outbox.CountUnsynced()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	sess, err := e.Session.Get()
	require.NoError(t, err)
	assert.NotNil(t, sess)
}

func TestLogoutKeepsLocalData(t *testing.T) {
	e := newTestEngine(t, nil)
	seedCaregiver(t, e, model.AccessEditor)

	require.NoError(t, e.Logout())

	sess, err := e.Session.Get()
	require.NoError(t, err)
	assert.Nil(t, sess)
	u, err := e.Entities.GetUser()
	require.NoError(t, err)
	assert.NotNil(t, u, "plain logout must not wipe cached records")
}

func TestLogoutAndWipeDestroysEverything(t *testing.T) {
	e := newTestEngine(t, nil)
	seedCaregiver(t, e, model.AccessEditor)
	_, err := e.CreateFeed(model.FeedLog{BabyID: "b1", Method: model.FeedBottle})
	require.NoError(t, err)

	require.NoError(t, e.LogoutAndWipe())

	u, err := e.Entities.GetUser()
	require.NoError(t, err)
	assert.Nil(t, u)
	n, err := e.Outbox.CountUnsynced()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestUpdateSolidsKeepsIdentityAndQueuesUpdate(t *testing.T) {
	e := newTestEngine(t, nil)
	seedCaregiver(t, e, model.AccessEditor)

	l, err := e.CreateSolids(model.SolidsLog{BabyID: "b1", Food: "banana"})
	require.NoError(t, err)

	got, err := e.Logs.GetSolids(l.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	upd := *got
	upd.Reaction = "loved"
	require.NoError(t, e.UpdateSolids(upd))

	got, err = e.Logs.GetSolids(l.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "loved", got.Reaction)
	assert.Equal(t, "banana", got.Food)
	assert.Equal(t, "u1", got.LoggedByUserID)

	pending, err := e.Outbox.ListPending()
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, model.OpUpdate, pending[1].Op)
	assert.Equal(t, model.EntitySolidsLog, pending[1].EntityType)

	assert.ErrorIs(t, e.UpdateGrowth(model.GrowthLog{ID: "nope", WeightG: 1}), ErrNotFound)
}

func TestDeleteMedicationRemovesRowAndQueuesTombstone(t *testing.T) {
	e := newTestEngine(t, nil)
	seedCaregiver(t, e, model.AccessEditor)

	l, err := e.CreateMedication(model.MedicationLog{BabyID: "b1", Name: "paracetamol"})
	require.NoError(t, err)
	require.NoError(t, e.DeleteMedication(l.ID))

	got, err := e.Logs.GetMedication(l.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	pending, err := e.Outbox.ListPending()
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, model.OpDelete, pending[1].Op)
	assert.Equal(t, "b1", pending[1].BabyID, "the tombstone carries the owning baby for permission checks")

	assert.ErrorIs(t, e.DeleteMedication("nope"), ErrNotFound)
}

func TestViewerCannotUpdateOrDelete(t *testing.T) {
	e := newTestEngine(t, nil)
	seedCaregiver(t, e, model.AccessEditor)
	l, err := e.CreateBath(model.BathLog{BabyID: "b1"})
	require.NoError(t, err)

	// Demote the grant after the fact; corrections must now be refused.
	err = e.store.WithTx(func(tx *sql.Tx) error {
		return e.Entities.UpsertAccess(tx, model.AccessGrant{BabyID: "b1", UserID: "u1", Level: model.AccessViewer})
	}, "baby_access")
	require.NoError(t, err)

	assert.ErrorIs(t, e.UpdateBath(*mustGetBath(t, e, l.ID)), ErrReadOnly)
	assert.ErrorIs(t, e.DeleteBath(l.ID), ErrReadOnly)
}

func mustGetBath(t *testing.T, e *Engine, id string) *model.BathLog {
	t.Helper()
	l, err := e.Logs.GetBath(id)
	require.NoError(t, err)
	require.NotNil(t, l)
	return l
}

func TestRequireSession(t *testing.T) {
	e := newTestEngine(t, nil)
	assert.ErrorIs(t, e.RequireSession(), ErrNotSignedIn)

	require.NoError(t, e.Session.Save("u1", "ext", time.Hour))
	assert.NoError(t, e.RequireSession())

	require.NoError(t, e.Session.Save("u1", "ext", -time.Hour))
	assert.ErrorIs(t, e.RequireSession(), ErrSessionExpired)
}
