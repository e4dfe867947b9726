package snapshot

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	apisvc "strategy_dashboard/internal/modules/api_client/service"
	"strategy_dashboard/internal/modules/config"
	healthsvc "strategy_dashboard/internal/modules/health/service"
	"strategy_dashboard/internal/modules/snapshot/service"
	"strategy_dashboard/internal/notify"
	"strategy_dashboard/internal/runner"
	"strategy_dashboard/internal/store"
)

func Module() fx.Option {
	return fx.Module("snapshot",
		fx.Provide(
			func(
				cfg *config.Config,
				api *apisvc.Client,
				loop *runner.Loop,
				st *store.Store,
				state *healthsvc.State,
				alerts *notify.Alerter,
				log *zap.Logger,
			) *service.Ingestor {
				return service.NewIngestor(api, loop, st, state, alerts, log.Named("snapshot"), cfg.Snapshot.Interval)
			},
		),
		fx.Invoke(func(lc fx.Lifecycle, ing *service.Ingestor) {
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					// ctx хука живёт только на время старта, поллинг держит свой
					return ing.Start(context.Background())
				},
				OnStop: func(_ context.Context) error {
					ing.Stop()
					return nil
				},
			})
		}),
	)
}
