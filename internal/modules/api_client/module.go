package api_client

import (
	"go.uber.org/fx"

	"strategy_dashboard/internal/modules/api_client/service"
)

func Module() fx.Option {
	return fx.Module("api_client",
		fx.Provide(
			service.NewClient, // *service.Client
		),
	)
}
