package telegram

import (
	"context"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/fx"
	"go.uber.org/zap"

	commandsvc "strategy_dashboard/internal/modules/commands/service"
	"strategy_dashboard/internal/modules/config"
	snapshotsvc "strategy_dashboard/internal/modules/snapshot/service"
	"strategy_dashboard/internal/modules/telegram_bot/service"
	viewsvc "strategy_dashboard/internal/modules/view/service"
)

// Module: пульт в Telegram. Без токена или с telegram.commands=false ничего не поднимает.
func Module() fx.Option {
	return fx.Module("telegram",
		fx.Invoke(
			func(
				lc fx.Lifecycle,
				cfg *config.Config,
				view *viewsvc.Controller,
				cmd *commandsvc.Dispatcher,
				snap *snapshotsvc.Ingestor,
				log *zap.Logger,
			) {
				log = log.Named("telegram")
				if !cfg.Telegram.Commands || cfg.Telegram.Token == "" || cfg.Telegram.ChatID == 0 {
					log.Info("telegram commands disabled")
					return
				}

				var t *service.Telegram
				lc.Append(fx.Hook{
					OnStart: func(_ context.Context) error {
						bot, err := tgbot.NewBotAPI(cfg.Telegram.Token)
						if err != nil {
							// дашборд работает и без пульта
							log.Warn("telegram init failed, commands disabled", zap.Error(err))
							return nil
						}
						t = service.NewTelegram(bot, cfg.Telegram.ChatID, view, cmd, snap, log)
						t.Start(context.Background())
						return nil
					},
					OnStop: func(_ context.Context) error {
						if t != nil {
							t.Stop()
						}
						return nil
					},
				})
			},
		),
	)
}
