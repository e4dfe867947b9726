package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"

	"strategy_dashboard/internal/models"
	apisvc "strategy_dashboard/internal/modules/api_client/service"
	"strategy_dashboard/internal/modules/config"
	healthsvc "strategy_dashboard/internal/modules/health/service"
	snapshotsvc "strategy_dashboard/internal/modules/snapshot/service"
	viewsvc "strategy_dashboard/internal/modules/view/service"
	"strategy_dashboard/internal/runner"
	"strategy_dashboard/internal/store"
	"strategy_dashboard/pkg/logger"
)

// report: один снимок дашборда; в режиме -strategy плюс статистика и equity с сервера.
type report struct {
	GeneratedAt string                `yaml:"generated_at"`
	Screen      viewsvc.Screen        `yaml:"screen"`
	Stats       *models.StrategyStats `yaml:"stats,omitempty"`
	Equity      []models.EquityPoint  `yaml:"equity,omitempty"`
}

func main() {
	var (
		strategyID = flag.String("strategy", "", "show detail view of one strategy")
		hours      = flag.Int("hours", 24, "equity window in hours (with -strategy)")
		timeout    = flag.Duration("timeout", 30*time.Second, "overall deadline")
	)
	flag.Parse()

	if err := run(*strategyID, *hours, *timeout); err != nil {
		log.Fatal(err)
	}
}

func run(strategyID string, hours int, timeout time.Duration) error {
	cfg, err := config.NewConfig()
	if err != nil {
		return err
	}
	logger.SetServiceName("strategy-snapshot")
	l, err := logger.New(logger.Config{Level: "warn", Encoding: "console"})
	if err != nil {
		return err
	}
	defer func() { _ = l.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	loop := runner.NewLoop()
	loopCtx, stopLoop := context.WithCancel(context.Background())
	go loop.Run(loopCtx)
	defer func() {
		stopLoop()
		<-loop.Done()
	}()

	api := apisvc.NewClient(cfg)
	st := store.New()
	snap := snapshotsvc.NewIngestor(api, loop, st, healthsvc.NewState(), nil, l, cfg.Snapshot.Interval)
	ctrl := viewsvc.NewController(loop, st, snap, snap, l)

	snap.RefreshAll(ctx)

	var rep report
	if strategyID != "" {
		if err := ctrl.ViewStrategy(ctx, strategyID); err != nil {
			return err
		}
		stats, err := api.GetTradeStats(ctx, strategyID)
		if err != nil {
			l.Warn("trade stats unavailable", zap.Error(err))
		} else {
			rep.Stats = &stats
		}
		if rep.Equity, err = api.GetEquity(ctx, strategyID, hours); err != nil {
			l.Warn("equity unavailable", zap.Error(err))
		}
	}
	ctrl.Wait()
	defer ctrl.Close()

	if rep.Screen, err = ctrl.Current(ctx); err != nil {
		return errors.Wrap(err, "build screen")
	}
	rep.GeneratedAt = time.Now().Format(time.RFC3339)

	out, err := yaml.Marshal(rep)
	if err != nil {
		return errors.Wrap(err, "encode report")
	}
	_, err = fmt.Fprint(os.Stdout, string(out))
	return err
}
