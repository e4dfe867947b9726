package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/sourcegraph/conc"
	"go.uber.org/zap"

	"strategy_dashboard/internal/derive"
	"strategy_dashboard/internal/models"
	apisvc "strategy_dashboard/internal/modules/api_client/service"
	healthsvc "strategy_dashboard/internal/modules/health/service"
	"strategy_dashboard/internal/runner"
	"strategy_dashboard/internal/store"
)

var ErrRefreshInFlight = errors.New("prediction refresh already in flight")

type API interface {
	GetStrategies(ctx context.Context) ([]models.Strategy, error)
	GetTrades(ctx context.Context, strategyID string, limit int) ([]models.TradeEvent, error)
	GetPrediction(ctx context.Context) (models.Prediction, error)
}

type PredictionAlerts interface {
	Prediction(v derive.PredictionView) bool
}

// Ingestor делает периодический полный снапшот (ростер, глобальная лента, прогноз).
// Только replace, никогда не merge. Сбой одного запроса не мешает остальным:
// ошибка логируется, в сторе остаются прежние данные.
type Ingestor struct {
	api    API
	loop   *runner.Loop
	st     *store.Store
	state  *healthsvc.State
	alerts PredictionAlerts
	log    *zap.Logger

	interval time.Duration

	predictionLoading atomic.Bool

	mu     sync.Mutex
	cron   *cron.Cron
	cancel context.CancelFunc
	wg     conc.WaitGroup
}

func NewIngestor(
	api API,
	loop *runner.Loop,
	st *store.Store,
	state *healthsvc.State,
	alerts PredictionAlerts,
	log *zap.Logger,
	interval time.Duration,
) *Ingestor {
	return &Ingestor{
		api:      api,
		loop:     loop,
		st:       st,
		state:    state,
		alerts:   alerts,
		log:      log,
		interval: interval,
	}
}

// Start: один снапшот сразу, дальше по расписанию "@every interval".
func (i *Ingestor) Start(ctx context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.cron != nil {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	c := cron.New(cron.WithChain(
		cron.Recover(cron.PrintfLogger(zap.NewStdLog(i.log))),
		// следующий тик не стартует, пока не закончился предыдущий
		cron.SkipIfStillRunning(cron.PrintfLogger(zap.NewStdLog(i.log))),
	))
	if _, err := c.AddFunc(fmt.Sprintf("@every %s", i.interval), func() {
		i.RefreshAll(runCtx)
	}); err != nil {
		cancel()
		return errors.Wrap(err, "schedule snapshot poll")
	}

	i.cron = c
	i.cancel = cancel

	i.wg.Go(func() { i.RefreshAll(runCtx) })
	c.Start()
	i.log.Info("snapshot poll started", zap.Duration("interval", i.interval))
	return nil
}

// Stop гасит расписание и дожидается запросов в полёте.
func (i *Ingestor) Stop() {
	i.mu.Lock()
	c, cancel := i.cron, i.cancel
	i.cron, i.cancel = nil, nil
	i.mu.Unlock()
	if c == nil {
		return
	}

	cancel()
	<-c.Stop().Done()
	i.wg.Wait()
	i.log.Info("snapshot poll stopped")
}

// RefreshAll: три независимых запроса параллельно.
func (i *Ingestor) RefreshAll(ctx context.Context) {
	var wg conc.WaitGroup
	wg.Go(func() { _ = i.RefreshStrategies(ctx) })
	wg.Go(func() { _ = i.RefreshGlobalTrades(ctx) })
	wg.Go(func() { _ = i.RefreshPrediction(ctx) })
	wg.Wait()

	if i.state != nil {
		i.state.TouchPoll(time.Now())
		i.state.SetReady(true)
	}
}

// RefreshStrategies перечитывает ростер. Возвращается после того, как замена применена к стору.
func (i *Ingestor) RefreshStrategies(ctx context.Context) error {
	list, err := i.api.GetStrategies(ctx)
	if err != nil {
		i.fetchFailed("strategies", err)
		return err
	}
	return i.apply(ctx, func() { i.st.ReplaceStrategies(list) })
}

func (i *Ingestor) RefreshGlobalTrades(ctx context.Context) error {
	list, err := i.api.GetTrades(ctx, "", store.GlobalTradesCapacity)
	if err != nil {
		i.fetchFailed("trades", err)
		return err
	}
	return i.apply(ctx, func() { i.st.ReplaceGlobalTrades(list) })
}

func (i *Ingestor) RefreshPrediction(ctx context.Context) error {
	p, err := i.api.GetPrediction(ctx)
	if err != nil {
		i.fetchFailed("prediction", err)
		return err
	}
	if err := i.apply(ctx, func() { i.st.ReplacePrediction(p) }); err != nil {
		return err
	}
	if i.alerts != nil {
		i.alerts.Prediction(derive.ClassifyPrediction(p))
	}
	return nil
}

// TryRefreshPrediction: ручное обновление прогноза, не больше одного в полёте.
func (i *Ingestor) TryRefreshPrediction(ctx context.Context) error {
	if !i.predictionLoading.CompareAndSwap(false, true) {
		return ErrRefreshInFlight
	}
	defer i.predictionLoading.Store(false)
	return i.RefreshPrediction(ctx)
}

func (i *Ingestor) PredictionLoading() bool { return i.predictionLoading.Load() }

// LoadStrategyTrades: разовая загрузка истории выбранной стратегии (лимит 200).
// Если выбор успел смениться, стор сам выбросит ответ.
func (i *Ingestor) LoadStrategyTrades(ctx context.Context, strategyID string) error {
	list, err := i.api.GetTrades(ctx, strategyID, store.DetailTradesCapacity)
	if err != nil {
		i.fetchFailed("strategy_trades", err, zap.String("strategy_id", strategyID))
		return err
	}
	var applied bool
	if err := i.apply(ctx, func() { applied = i.st.ReplaceStrategyTrades(strategyID, list) }); err != nil {
		return err
	}
	if !applied {
		i.log.Debug("strategy trades dropped: selection changed", zap.String("strategy_id", strategyID))
	}
	return nil
}

func (i *Ingestor) apply(ctx context.Context, fn func()) error {
	if err := i.loop.Call(ctx, fn); err != nil {
		i.log.Debug("snapshot result not applied", zap.Error(err))
		return err
	}
	return nil
}

func (i *Ingestor) fetchFailed(what string, err error, fields ...zap.Field) {
	fields = append(fields, zap.String("endpoint", what), zap.Error(err))
	if errors.Is(err, context.Canceled) {
		i.log.Debug("snapshot fetch cancelled", fields...)
		return
	}
	// прогноз без 2xx, просто "нет обновления в этом цикле"
	if what == "prediction" && isHTTPStatus(err) {
		i.log.Info("prediction not updated this cycle", fields...)
		return
	}
	i.log.Warn("snapshot fetch failed, keeping previous data", fields...)
}

func isHTTPStatus(err error) bool {
	var se *apisvc.StatusError
	return errors.As(err, &se)
}
