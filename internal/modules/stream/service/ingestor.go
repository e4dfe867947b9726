package service

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/sourcegraph/conc"
	"go.uber.org/zap"

	"strategy_dashboard/internal/models"
	healthsvc "strategy_dashboard/internal/modules/health/service"
	"strategy_dashboard/internal/runner"
	"strategy_dashboard/internal/store"
)

// RosterRefresher: повторная загрузка ростера (snapshot-инжестор).
type RosterRefresher interface {
	RefreshStrategies(ctx context.Context) error
}

type SignalAlerts interface {
	Signal(ev models.TradeEvent) bool
}

type Options struct {
	URL            string
	PingInterval   time.Duration
	BackoffInitial time.Duration
	BackoffMax     time.Duration
}

// Ingestor держит одно долгоживущее соединение с /ws и раскладывает события в стор.
type Ingestor struct {
	opts   Options
	dialer *websocket.Dialer

	loop   *runner.Loop
	st     *store.Store
	roster RosterRefresher
	state  *healthsvc.State
	alerts SignalAlerts
	log    *zap.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	running conc.WaitGroup
	// фоновые перезагрузки ростера по status_change
	refetches conc.WaitGroup
}

func NewIngestor(
	opts Options,
	loop *runner.Loop,
	st *store.Store,
	roster RosterRefresher,
	state *healthsvc.State,
	alerts SignalAlerts,
	log *zap.Logger,
) *Ingestor {
	return &Ingestor{
		opts:   opts,
		dialer: &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		loop:   loop,
		st:     st,
		roster: roster,
		state:  state,
		alerts: alerts,
		log:    log,
	}
}

func (i *Ingestor) Start(ctx context.Context) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.cancel != nil {
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	i.cancel = cancel
	i.running.Go(func() { i.connectLoop(runCtx) })
}

// Stop закрывает сокет, гасит таймеры и ждёт все горутины.
func (i *Ingestor) Stop() {
	i.mu.Lock()
	cancel := i.cancel
	i.cancel = nil
	i.mu.Unlock()
	if cancel != nil {
		cancel()
		i.running.Wait()
	}
	i.refetches.Wait()
}

func (i *Ingestor) connectLoop(ctx context.Context) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = i.opts.BackoffInitial
	bo.MaxInterval = i.opts.BackoffMax

	for {
		if ctx.Err() != nil {
			return
		}

		conn, _, err := i.dialer.DialContext(ctx, i.opts.URL, nil)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			sleep := bo.NextBackOff()
			if sleep == backoff.Stop {
				sleep = i.opts.BackoffMax
			}
			i.log.Warn("stream dial failed", zap.String("url", i.opts.URL), zap.Duration("retry_in", sleep), zap.Error(err))
			if !i.sleep(ctx, sleep) {
				return
			}
			continue
		}
		bo.Reset()

		connID := uuid.NewString()
		i.log.Info("stream connected", zap.String("url", i.opts.URL), zap.String("conn_id", connID))
		i.state.SetWSConnected(true)

		err = i.session(ctx, conn)

		i.state.SetWSConnected(false)
		if ctx.Err() != nil {
			i.log.Info("stream closed", zap.String("conn_id", connID))
			return
		}
		// события за время разрыва теряются, догонит следующий snapshot
		i.state.IncReconnects()
		i.log.Warn("stream disconnected, reconnecting", zap.String("conn_id", connID), zap.Error(err))
		if !i.sleep(ctx, bo.NextBackOff()) {
			return
		}
	}
}

func (i *Ingestor) sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// session: read-loop одного соединения; выходит по ошибке чтения или отмене ctx.
func (i *Ingestor) session(ctx context.Context, conn *websocket.Conn) error {
	sessCtx, cancel := context.WithCancel(ctx)
	var wg conc.WaitGroup
	defer func() {
		cancel()
		wg.Wait()
	}()

	// ReadMessage не слушает ctx, закрываем сокет сами
	wg.Go(func() {
		<-sessCtx.Done()
		_ = conn.Close()
	})

	// keepalive: сервер отвечает "pong" на текстовый "ping"
	wg.Go(func() {
		t := time.NewTicker(i.opts.PingInterval)
		defer t.Stop()
		for {
			select {
			case <-sessCtx.Done():
				return
			case <-t.C:
				_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.TextMessage, []byte("ping")); err != nil {
					i.log.Debug("stream ping failed", zap.Error(err))
					cancel()
					return
				}
			}
		}
	})

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return errors.Wrap(err, "stream read")
		}
		if err := i.HandleMessage(sessCtx, msg); err != nil {
			// одно битое сообщение не рвёт соединение
			i.log.Warn("stream message dropped", zap.ByteString("raw", truncate(msg, 256)), zap.Error(err))
		}
	}
}

func truncate(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}
