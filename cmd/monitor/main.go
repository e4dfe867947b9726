package main

import (
	"context"
	"log"

	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	api "strategy_dashboard/internal/modules/api_client"
	"strategy_dashboard/internal/modules/commands"
	"strategy_dashboard/internal/modules/config"
	"strategy_dashboard/internal/modules/health"
	"strategy_dashboard/internal/modules/snapshot"
	"strategy_dashboard/internal/modules/stream"
	telegram "strategy_dashboard/internal/modules/telegram_bot"
	"strategy_dashboard/internal/modules/view"
	"strategy_dashboard/internal/notify"
	"strategy_dashboard/internal/runner"
	"strategy_dashboard/pkg/logger"
	"strategy_dashboard/pkg/tracing"
)

const serviceName = "strategy-dashboard"

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	logger.SetServiceName(serviceName)
	l, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Encoding:    cfg.Log.Encoding,
		Development: cfg.Log.Development,
	})
	if err != nil {
		return nil, err
	}
	// одна сессия дашборда = один запуск процесса
	return l.With(zap.String("session_id", uuid.NewString())), nil
}

func initTracing(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) error {
	name := cfg.Tracing.ServiceName
	if name == "" {
		name = serviceName
	}
	tracing.SetServiceName(name)
	_, closer, err := tracing.InitTracer(tracing.Config{
		Enabled: cfg.Tracing.Enabled,
		Host:    cfg.Tracing.Host,
		Port:    cfg.Tracing.Port,
	})
	if err != nil {
		return err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			closer()
			return nil
		},
	})
	log.Info("tracing initialised", zap.Bool("enabled", cfg.Tracing.Enabled))
	return nil
}

// modules: граф приложения без логгера fx, чтобы его можно было собрать в тестах.
func modules() fx.Option {
	return fx.Options(
		config.Module(),
		fx.Provide(newLogger),
		fx.Invoke(initTracing),
		runner.Module(),
		api.Module(),
		notify.Module(),
		snapshot.Module(),
		stream.Module(),
		view.Module(),
		commands.Module(),
		health.Module(),
		telegram.Module(),
	)
}

func main() {
	app := fx.New(
		modules(),
		fx.WithLogger(func(l *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: l.Named("fx")}
		}),
	)
	if err := app.Err(); err != nil {
		log.Fatal(err)
	}
	app.Run()
}
