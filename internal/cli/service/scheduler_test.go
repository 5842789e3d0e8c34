package service

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BabyKeeper/internal/cli/api"
	"BabyKeeper/internal/cli/model"
)

func TestSchedulerRunsOneCycleAtATime(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var pushCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/sync/push", func(w http.ResponseWriter, r *http.Request) {
		var req api.PushRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"bad body"}`, http.StatusBadRequest)
			return
		}
		if pushCalls.Add(1) == 1 {
			close(entered)
			<-release
		}
		var resp api.PushResponse
		for _, m := range req.Mutations {
			resp.Results = append(resp.Results, api.MutationResult{MutationID: m.MutationID, Status: api.ResultSuccess})
		}
		_ = json.NewEncoder(w).Encode(resp)
	})
	mux.HandleFunc("/api/sync/pull", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(api.PullResponse{})
	})
	e := newTestEngine(t, mux)
	seedCaregiver(t, e, model.AccessEditor)
	_, err := e.CreateFeed(model.FeedLog{BabyID: "b1", Method: model.FeedBottle})
	require.NoError(t, err)

	s := NewScheduler(e, time.Hour)
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.cycle(context.Background())
	}()
	<-entered

	// A tick landing mid-cycle is a no-op, not a queued second cycle.
	s.cycle(context.Background())
	assert.EqualValues(t, 1, pushCalls.Load())

	close(release)
	<-done
	n, err := e.Outbox.CountUnsynced()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSchedulerOfflineGatesCycles(t *testing.T) {
	srv := &syncServer{pushResult: successResults}
	e := newTestEngine(t, srv.handler())
	seedCaregiver(t, e, model.AccessEditor)
	_, err := e.CreateFeed(model.FeedLog{BabyID: "b1", Method: model.FeedBottle})
	require.NoError(t, err)

	s := NewScheduler(e, time.Hour)
	s.SetOnline(false)
	s.cycle(context.Background())

	assert.Empty(t, srv.pushed, "an offline scheduler must not touch the network")
	n, err := e.Outbox.CountUnsynced()
	require.NoError(t, err)
	assert.Equal(t, 1, n, "queued work survives untouched for when connectivity returns")
}

func TestSchedulerWakeSemantics(t *testing.T) {
	e := newTestEngine(t, nil)
	s := NewScheduler(e, time.Hour)

	s.Kick()
	s.Kick()
	assert.Len(t, s.wake, 1, "kicks coalesce into a single wake")
	<-s.wake

	s.SetOnline(true) // no edge, already online
	assert.Empty(t, s.wake)

	s.SetOnline(false)
	s.SetOnline(true)
	assert.Len(t, s.wake, 1, "the offline-to-online edge wakes the loop immediately")
}

func TestSchedulerRunDeliversOnKick(t *testing.T) {
	srv := &syncServer{pushResult: successResults}
	e := newTestEngine(t, srv.handler())
	seedCaregiver(t, e, model.AccessEditor)
	_, err := e.CreateFeed(model.FeedLog{BabyID: "b1", Method: model.FeedBottle})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := NewScheduler(e, time.Hour)
	go s.Run(ctx)

	s.Kick()
	require.Eventually(t, func() bool {
		n, err := e.Outbox.CountUnsynced()
		return err == nil && n == 0
	}, 5*time.Second, 10*time.Millisecond, "a kick must trigger a cycle without waiting out the interval")
}
