package commands

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	apisvc "strategy_dashboard/internal/modules/api_client/service"
	"strategy_dashboard/internal/modules/commands/service"
	snapshotsvc "strategy_dashboard/internal/modules/snapshot/service"
)

func Module() fx.Option {
	return fx.Module("commands",
		fx.Provide(
			func(api *apisvc.Client, snap *snapshotsvc.Ingestor, log *zap.Logger) *service.Dispatcher {
				return service.NewDispatcher(api, snap, log.Named("commands"))
			},
		),
	)
}
