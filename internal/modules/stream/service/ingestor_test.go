package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"strategy_dashboard/internal/models"
	healthsvc "strategy_dashboard/internal/modules/health/service"
	"strategy_dashboard/internal/runner"
	"strategy_dashboard/internal/store"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// gatedRoster отдаёт новый ростер только после release.
type gatedRoster struct {
	loop    *runner.Loop
	st      *store.Store
	next    []models.Strategy
	release chan struct{}

	mu    sync.Mutex
	calls int
}

func (g *gatedRoster) RefreshStrategies(ctx context.Context) error {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()
	select {
	case <-g.release:
	case <-ctx.Done():
		return ctx.Err()
	}
	return g.loop.Call(ctx, func() { g.st.ReplaceStrategies(g.next) })
}

func (g *gatedRoster) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

type recordingSignals struct {
	mu  sync.Mutex
	got []models.TradeEvent
}

func (r *recordingSignals) Signal(ev models.TradeEvent) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, ev)
	return true
}

type fixture struct {
	loop    *runner.Loop
	st      *store.Store
	state   *healthsvc.State
	roster  *gatedRoster
	signals *recordingSignals
	ing     *Ingestor
}

func newFixture(t *testing.T, url string) *fixture {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	loop := runner.NewLoop()
	go loop.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-loop.Done()
	})

	st := store.New()
	f := &fixture{
		loop:    loop,
		st:      st,
		state:   healthsvc.NewState(),
		roster:  &gatedRoster{loop: loop, st: st, release: make(chan struct{})},
		signals: &recordingSignals{},
	}
	f.ing = NewIngestor(Options{
		URL:            url,
		PingInterval:   20 * time.Millisecond,
		BackoffInitial: 10 * time.Millisecond,
		BackoffMax:     50 * time.Millisecond,
	}, loop, st, f.roster, f.state, f.signals, zaptest.NewLogger(t))
	t.Cleanup(f.ing.Stop)
	return f
}

func (f *fixture) read(t *testing.T, fn func(st *store.Store)) {
	t.Helper()
	require.NoError(t, f.loop.Call(context.Background(), func() { fn(f.st) }))
}

func (f *fixture) revision(t *testing.T) uint64 {
	var rev uint64
	f.read(t, func(st *store.Store) { rev = st.Revision() })
	return rev
}

func TestSignalPrependsGlobalAndActiveDetail(t *testing.T) {
	f := newFixture(t, "")
	f.read(t, func(st *store.Store) { st.OpenDetail("a") })

	ctx := context.Background()
	require.NoError(t, f.ing.HandleMessage(ctx, []byte(`{"type":"signal","data":{"id":1,"strategy_id":"a","direction":"LONG","entry_price":97000.5,"status":"OPEN"}}`)))
	require.NoError(t, f.ing.HandleMessage(ctx, []byte(`{"type":"signal","data":{"id":2,"strategy_id":"b","direction":"SHORT","status":"OPEN"}}`)))

	f.read(t, func(st *store.Store) {
		global := st.GlobalTrades()
		require.Len(t, global, 2)
		require.Equal(t, models.FlexID("2"), global[0].ID)
		require.Equal(t, models.FlexID("1"), global[1].ID)

		detail := st.StrategyTrades()
		require.Len(t, detail, 1)
		require.Equal(t, "a", detail[0].StrategyID)
	})
	require.Len(t, f.signals.got, 2)
}

func TestSignalShortFieldNames(t *testing.T) {
	f := newFixture(t, "")

	raw := `{"type":"signal","data":{"type":"ENTRY","strategy_id":"a","direction":"LONG","entry":100.5,"tp":110,"sl":95,"score":0.0007,"time":"2026-02-08T10:00:00","trade_id":42}}`
	require.NoError(t, f.ing.HandleMessage(context.Background(), []byte(raw)))

	f.read(t, func(st *store.Store) {
		ev := st.GlobalTrades()[0]
		require.Equal(t, models.FlexID("42"), ev.ID)
		require.Equal(t, "2026-02-08T10:00:00", ev.Timestamp)
		require.Equal(t, 100.5, *ev.EntryPrice)
		require.Equal(t, 110.0, *ev.TakeProfit)
		require.Equal(t, 95.0, *ev.StopLoss)
		require.Equal(t, models.TradeOpen, ev.Status)
		require.Nil(t, ev.Pnl)
	})
}

func TestExitSignalIsClosed(t *testing.T) {
	f := newFixture(t, "")
	raw := `{"type":"signal","data":{"type":"EXIT","strategy_id":"a","direction":"LONG","pnl":12.5}}`
	require.NoError(t, f.ing.HandleMessage(context.Background(), []byte(raw)))

	f.read(t, func(st *store.Store) {
		ev := st.GlobalTrades()[0]
		require.Equal(t, models.TradeClosed, ev.Status)
		require.Equal(t, 12.5, ev.PnlOrZero())
	})
}

func TestMalformedAndUnknownMessages(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()
	before := f.revision(t)

	require.ErrorIs(t, f.ing.HandleMessage(ctx, []byte(`{"type":"signal","data":`)), ErrMalformedMessage)
	require.ErrorIs(t, f.ing.HandleMessage(ctx, []byte(`{"type":"signal"}`)), ErrMalformedMessage)
	require.ErrorIs(t, f.ing.HandleMessage(ctx, []byte(`{"type":"signal","data":{"direction":7}}`)), ErrMalformedMessage)
	require.NoError(t, f.ing.HandleMessage(ctx, []byte(`{"type":"heartbeat","data":{}}`)))
	require.NoError(t, f.ing.HandleMessage(ctx, []byte("pong")))

	require.Equal(t, before, f.revision(t))
	require.Zero(t, f.roster.Calls())
}

func TestStatusChangeOnlyRefetchesRoster(t *testing.T) {
	f := newFixture(t, "")
	f.read(t, func(st *store.Store) {
		st.ReplaceStrategies([]models.Strategy{{ID: "a", Running: false}})
	})
	f.roster.next = []models.Strategy{{ID: "a", Running: true}}
	before := f.revision(t)

	raw := `{"type":"status_change","strategy_id":"a","status":"RUNNING"}`
	require.NoError(t, f.ing.HandleMessage(context.Background(), []byte(raw)))

	require.Eventually(t, func() bool { return f.roster.Calls() == 1 }, time.Second, 5*time.Millisecond)
	// пока refetch не завершился, стор не меняется
	require.Equal(t, before, f.revision(t))
	f.read(t, func(st *store.Store) {
		s, ok := st.Strategy("a")
		require.True(t, ok)
		require.False(t, s.Running)
	})

	close(f.roster.release)
	require.Eventually(t, func() bool { return f.revision(t) != before }, time.Second, 5*time.Millisecond)
	f.read(t, func(st *store.Store) {
		s, _ := st.Strategy("a")
		require.True(t, s.Running)
	})
}

func TestConnectPingAndReconnect(t *testing.T) {
	var (
		mu    sync.Mutex
		conns int
		pings int
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()

		mu.Lock()
		conns++
		n := conns
		mu.Unlock()

		if n == 1 {
			// первое соединение: один сигнал и обрыв
			_ = c.WriteMessage(websocket.TextMessage, []byte(`{"type":"signal","data":{"id":"1","strategy_id":"a","direction":"LONG","status":"OPEN"}}`))
			return
		}
		_ = c.WriteMessage(websocket.TextMessage, []byte(`{"type":"signal","data":{"id":"2","strategy_id":"a","direction":"SHORT","status":"OPEN"}}`))
		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				return
			}
			if string(msg) == "ping" {
				mu.Lock()
				pings++
				mu.Unlock()
				_ = c.WriteMessage(websocket.TextMessage, []byte("pong"))
			}
		}
	}))
	defer server.Close()

	f := newFixture(t, "ws"+strings.TrimPrefix(server.URL, "http")+"/ws")
	f.ing.Start(context.Background())

	require.Eventually(t, func() bool {
		var n int
		f.read(t, func(st *store.Store) { n = len(st.GlobalTrades()) })
		return n == 2
	}, 2*time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return pings > 0
	}, 2*time.Second, 10*time.Millisecond)

	require.True(t, f.state.WSConnected())
	require.GreaterOrEqual(t, f.state.Reconnects(), int64(1))

	f.ing.Stop()
	require.False(t, f.state.WSConnected())
}

func TestDialFailureRetriesUntilStop(t *testing.T) {
	f := newFixture(t, "ws://127.0.0.1:1/ws")
	f.ing.Start(context.Background())
	time.Sleep(80 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		f.ing.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stop did not return")
	}
	require.False(t, f.state.WSConnected())
}
