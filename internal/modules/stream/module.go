package stream

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"strategy_dashboard/internal/modules/config"
	healthsvc "strategy_dashboard/internal/modules/health/service"
	snapshotsvc "strategy_dashboard/internal/modules/snapshot/service"
	"strategy_dashboard/internal/modules/stream/service"
	"strategy_dashboard/internal/notify"
	"strategy_dashboard/internal/runner"
	"strategy_dashboard/internal/store"
)

func newIngestor(
	cfg *config.Config,
	loop *runner.Loop,
	st *store.Store,
	snap *snapshotsvc.Ingestor,
	state *healthsvc.State,
	alerts *notify.Alerter,
	log *zap.Logger,
) *service.Ingestor {
	return service.NewIngestor(service.Options{
		URL:            cfg.StreamURL(),
		PingInterval:   cfg.Stream.PingInterval,
		BackoffInitial: cfg.Stream.BackoffInitial,
		BackoffMax:     cfg.Stream.BackoffMax,
	}, loop, st, snap, state, alerts, log.Named("stream"))
}

// Module поднимает подписку на /ws.
func Module() fx.Option {
	return fx.Module("stream",
		fx.Provide(newIngestor),
		fx.Invoke(func(lc fx.Lifecycle, ing *service.Ingestor) {
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					ing.Start(context.Background())
					return nil
				},
				OnStop: func(_ context.Context) error {
					ing.Stop()
					return nil
				},
			})
		}),
	)
}
