package service

import (
	"context"

	"go.uber.org/zap"
)

type Remote interface {
	StartStrategy(ctx context.Context, strategyID string) error
	StopStrategy(ctx context.Context, strategyID string) error
	StartAll(ctx context.Context) error
	StopAll(ctx context.Context) error
}

type RosterRefresher interface {
	RefreshStrategies(ctx context.Context) error
}

// Dispatcher: команды стратегиям. Локально ничего не меняем: после вызова
// (удачного или нет) ростер перечитывается, UI видит только состояние сервера.
type Dispatcher struct {
	remote Remote
	roster RosterRefresher
	log    *zap.Logger
}

func NewDispatcher(remote Remote, roster RosterRefresher, log *zap.Logger) *Dispatcher {
	return &Dispatcher{remote: remote, roster: roster, log: log}
}

func (d *Dispatcher) Start(ctx context.Context, strategyID string) {
	d.run(ctx, "start", strategyID, func(ctx context.Context) error {
		return d.remote.StartStrategy(ctx, strategyID)
	})
}

func (d *Dispatcher) Stop(ctx context.Context, strategyID string) {
	d.run(ctx, "stop", strategyID, func(ctx context.Context) error {
		return d.remote.StopStrategy(ctx, strategyID)
	})
}

func (d *Dispatcher) StartAll(ctx context.Context) {
	d.run(ctx, "start_all", "", d.remote.StartAll)
}

func (d *Dispatcher) StopAll(ctx context.Context) {
	d.run(ctx, "stop_all", "", d.remote.StopAll)
}

func (d *Dispatcher) run(ctx context.Context, action, strategyID string, call func(context.Context) error) {
	log := d.log.With(zap.String("action", action))
	if strategyID != "" {
		log = log.With(zap.String("strategy_id", strategyID))
	}

	if err := call(ctx); err != nil {
		log.Warn("strategy command failed", zap.Error(err))
	} else {
		log.Info("strategy command sent")
	}

	if err := d.roster.RefreshStrategies(ctx); err != nil {
		log.Warn("roster refresh after command failed", zap.Error(err))
	}
}
