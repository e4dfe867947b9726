package service

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sourcegraph/conc"
	"go.uber.org/zap"

	"strategy_dashboard/internal/runner"
	"strategy_dashboard/internal/store"
)

var ErrUnknownStrategy = errors.New("unknown strategy")

type TradesLoader interface {
	LoadStrategyTrades(ctx context.Context, strategyID string) error
}

type PredictionStatus interface {
	PredictionLoading() bool
}

// Controller: навигация Aggregate <-> Detail(id). Состояние меняется только в лупе,
// сущности трогает только через операции стора.
type Controller struct {
	loop       *runner.Loop
	st         *store.Store
	loader     TradesLoader
	prediction PredictionStatus
	log        *zap.Logger

	// только из лупа
	kind     Kind
	selected string

	ctx     context.Context
	cancel  context.CancelFunc
	fetches conc.WaitGroup
}

func NewController(loop *runner.Loop, st *store.Store, loader TradesLoader, prediction PredictionStatus, log *zap.Logger) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		loop:       loop,
		st:         st,
		loader:     loader,
		prediction: prediction,
		log:        log,
		kind:       KindAggregate,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// ViewStrategy переключает на Detail(id) и запускает разовую загрузку истории.
// id проверяется по ростеру только в момент выбора.
func (c *Controller) ViewStrategy(ctx context.Context, strategyID string) error {
	var known bool
	err := c.loop.Call(ctx, func() {
		if _, known = c.st.Strategy(strategyID); !known {
			return
		}
		c.kind = KindDetail
		c.selected = strategyID
		c.st.OpenDetail(strategyID)
	})
	if err != nil {
		return err
	}
	if !known {
		return errors.Wrapf(ErrUnknownStrategy, "strategy %q", strategyID)
	}

	c.log.Info("view strategy", zap.String("strategy_id", strategyID))
	c.fetches.Go(func() {
		if err := c.loader.LoadStrategyTrades(c.ctx, strategyID); err != nil {
			c.log.Warn("strategy trades load failed", zap.String("strategy_id", strategyID), zap.Error(err))
		}
	})
	return nil
}

// Back возвращает в обзор и освобождает ленту стратегии.
func (c *Controller) Back(ctx context.Context) error {
	return c.loop.Call(ctx, func() {
		c.kind = KindAggregate
		c.selected = ""
		c.st.CloseDetail()
	})
}

// Current собирает экран из текущего содержимого стора.
func (c *Controller) Current(ctx context.Context) (Screen, error) {
	loading := c.prediction != nil && c.prediction.PredictionLoading()
	var s Screen
	err := c.loop.Call(ctx, func() {
		s.View = c.kind
		if c.kind == KindDetail {
			s.Detail = buildDetail(c.st, c.selected)
			return
		}
		s.Overview = buildOverview(c.st, loading)
	})
	return s, err
}

// Wait ждёт загрузки истории, уже запущенные ViewStrategy.
func (c *Controller) Wait() { c.fetches.Wait() }

// Close отменяет загрузки в полёте и ждёт их.
func (c *Controller) Close() {
	c.cancel()
	c.fetches.Wait()
}
