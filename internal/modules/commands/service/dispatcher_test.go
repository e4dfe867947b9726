package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"strategy_dashboard/internal/derive"
	"strategy_dashboard/internal/models"
	apisvc "strategy_dashboard/internal/modules/api_client/service"
	healthsvc "strategy_dashboard/internal/modules/health/service"
	snapshotsvc "strategy_dashboard/internal/modules/snapshot/service"
	"strategy_dashboard/internal/runner"
	"strategy_dashboard/internal/store"
)

type fakeRemote struct {
	err   error
	calls []string
}

func (f *fakeRemote) StartStrategy(_ context.Context, id string) error {
	f.calls = append(f.calls, "start:"+id)
	return f.err
}

func (f *fakeRemote) StopStrategy(_ context.Context, id string) error {
	f.calls = append(f.calls, "stop:"+id)
	return f.err
}

func (f *fakeRemote) StartAll(context.Context) error {
	f.calls = append(f.calls, "start-all")
	return f.err
}

func (f *fakeRemote) StopAll(context.Context) error {
	f.calls = append(f.calls, "stop-all")
	return f.err
}

type countingRoster struct{ n int }

func (c *countingRoster) RefreshStrategies(context.Context) error {
	c.n++
	return nil
}

func TestRefreshAfterEveryCommandEvenOnFailure(t *testing.T) {
	remote := &fakeRemote{err: errors.New("500")}
	roster := &countingRoster{}
	d := NewDispatcher(remote, roster, zaptest.NewLogger(t))

	ctx := context.Background()
	d.Start(ctx, "a")
	d.Stop(ctx, "a")
	d.StartAll(ctx)
	d.StopAll(ctx)

	require.Equal(t, []string{"start:a", "stop:a", "start-all", "stop-all"}, remote.calls)
	require.Equal(t, 4, roster.n)
}

// Полный путь: start("a") -> POST на сервер -> перечитанный ростер -> "1/1".
func TestStartScenarioThroughBackend(t *testing.T) {
	var (
		mu      sync.Mutex
		running bool
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/strategies/a/start":
			running = true
			_, _ = w.Write([]byte(`{"success":true}`))
		case r.Method == http.MethodGet && r.URL.Path == "/api/strategies":
			if running {
				_, _ = w.Write([]byte(`[{"id":"a","running":true}]`))
				return
			}
			_, _ = w.Write([]byte(`[{"id":"a","running":false}]`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	loop := runner.NewLoop()
	go loop.Run(ctx)
	defer func() {
		cancel()
		<-loop.Done()
	}()

	log := zaptest.NewLogger(t)
	api := apisvc.NewClientWithHTTP(srv.URL, srv.Client())
	st := store.New()
	snap := snapshotsvc.NewIngestor(api, loop, st, healthsvc.NewState(), nil, log, 0)

	require.NoError(t, snap.RefreshStrategies(context.Background()))
	read := func() []models.Strategy {
		var list []models.Strategy
		require.NoError(t, loop.Call(context.Background(), func() { list = st.Strategies() }))
		return list
	}
	require.Equal(t, "0/1", derive.RunningCount(read()).String())

	d := NewDispatcher(api, snap, log)
	d.Start(context.Background(), "a")

	list := read()
	require.True(t, list[0].Running)
	require.Equal(t, "1/1", derive.RunningCount(list).String())
}
