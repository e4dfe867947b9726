package notify

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"strategy_dashboard/internal/modules/config"
)

func newNotifier(cfg *config.Config, log *zap.Logger) Notifier {
	if cfg.Telegram.Token == "" || cfg.Telegram.ChatID == 0 {
		log.Info("telegram alerts disabled")
		return Noop{}
	}
	t, err := NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID)
	if err != nil {
		// без телеграма дашборд всё равно работает
		log.Warn("telegram init failed, alerts disabled", zap.Error(err))
		return Noop{}
	}
	return t
}

func Module() fx.Option {
	return fx.Module("notify",
		fx.Provide(
			newNotifier,
			func(n Notifier, cfg *config.Config, log *zap.Logger) *Alerter {
				return NewAlerter(n, log.Named("alerts"), cfg.Telegram.NotifySignals)
			},
		),
		fx.Invoke(func(lc fx.Lifecycle, a *Alerter) {
			ctx, cancel := context.WithCancel(context.Background())
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					go a.Run(ctx)
					return nil
				},
				OnStop: func(_ context.Context) error {
					cancel()
					return nil
				},
			})
		}),
	)
}
