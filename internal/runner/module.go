package runner

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"strategy_dashboard/internal/store"
)

func Module() fx.Option {
	return fx.Module("runner",
		fx.Provide(
			NewLoop,   // *Loop
			store.New, // *store.Store, трогается только из Loop
		),
		fx.Invoke(func(lc fx.Lifecycle, l *Loop, log *zap.Logger) {
			ctx, cancel := context.WithCancel(context.Background())
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					go func() {
						log.Info("event loop started")
						l.Run(ctx)
						log.Info("event loop stopped")
					}()
					return nil
				},
				OnStop: func(stopCtx context.Context) error {
					cancel()
					select {
					case <-l.Done():
					case <-stopCtx.Done():
					}
					return nil
				},
			})
		}),
	)
}
