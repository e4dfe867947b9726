package view

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	snapshotsvc "strategy_dashboard/internal/modules/snapshot/service"
	"strategy_dashboard/internal/modules/view/service"
	"strategy_dashboard/internal/runner"
	"strategy_dashboard/internal/store"
)

func Module() fx.Option {
	return fx.Module("view",
		fx.Provide(
			func(loop *runner.Loop, st *store.Store, snap *snapshotsvc.Ingestor, log *zap.Logger) *service.Controller {
				return service.NewController(loop, st, snap, snap, log.Named("view"))
			},
		),
		fx.Invoke(func(lc fx.Lifecycle, c *service.Controller) {
			lc.Append(fx.Hook{
				OnStop: func(_ context.Context) error {
					c.Close()
					return nil
				},
			})
		}),
	)
}
