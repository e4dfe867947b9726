package health

import (
	"context"
	"net"
	"net/http"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	commandsvc "strategy_dashboard/internal/modules/commands/service"
	"strategy_dashboard/internal/modules/config"
	"strategy_dashboard/internal/modules/health/service"
	snapshotsvc "strategy_dashboard/internal/modules/snapshot/service"
	viewsvc "strategy_dashboard/internal/modules/view/service"
)

func newHandlers(
	state *service.State,
	view *viewsvc.Controller,
	cmd *commandsvc.Dispatcher,
	snap *snapshotsvc.Ingestor,
	log *zap.Logger,
) *Handlers {
	return NewHandlers(state, view, cmd, snap, log.Named("admin"))
}

func RunHTTP(lc fx.Lifecycle, cfg *config.Config, h *Handlers, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.Admin.Addr,
		Handler:           h.Mux(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", cfg.Admin.Addr)
			if err != nil {
				return err
			}
			log.Info("admin http listening", zap.String("addr", ln.Addr().String()))
			go func() {
				if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
					log.Error("admin http stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			err := srv.Shutdown(ctx)
			// дожидаемся команд, принятых с 202
			h.Wait()
			return err
		},
	})
}

func Module() fx.Option {
	return fx.Module("health",
		fx.Provide(
			service.NewState,
			newHandlers,
		),
		fx.Invoke(RunHTTP),
	)
}
