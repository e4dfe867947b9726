package service

import (
	"bytes"
	"context"
	"time"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"strategy_dashboard/internal/models"
)

var ErrMalformedMessage = errors.New("malformed stream message")

// HandleMessage разбирает один кадр и применяет его.
func (i *Ingestor) HandleMessage(ctx context.Context, raw []byte) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("pong")) {
		return nil
	}

	var env models.Envelope
	if err := sonic.Unmarshal(raw, &env); err != nil {
		return errors.Wrap(ErrMalformedMessage, err.Error())
	}
	i.state.TouchEvent(time.Now())

	switch env.Type {
	case models.MessageSignal:
		ev, err := decodeSignal(env.Data)
		if err != nil {
			return err
		}
		i.applySignal(ev)
		return nil
	case models.MessageStatusChange:
		i.refetchRoster(ctx, env.StrategyID, env.Status)
		return nil
	default:
		i.log.Debug("stream message ignored", zap.String("type", string(env.Type)))
		return nil
	}
}

func (i *Ingestor) applySignal(ev models.TradeEvent) {
	posted := i.loop.Post(func() {
		i.st.PrependGlobalTrade(ev)
		i.st.PrependStrategyTradeIfActive(ev)
	})
	if !posted {
		return
	}
	if i.alerts != nil {
		i.alerts.Signal(ev)
	}
}

// refetchRoster: флагу running из события не верим, ростер перечитывается целиком.
func (i *Ingestor) refetchRoster(ctx context.Context, strategyID, status string) {
	i.log.Debug("status change, refetching roster",
		zap.String("strategy_id", strategyID), zap.String("status", status))
	i.refetches.Go(func() {
		_ = i.roster.RefreshStrategies(ctx)
	})
}

// signalPayload: data сигнала; стратегии шлют короткие имена полей.
type signalPayload struct {
	models.TradeEvent

	TradeID models.FlexID `json:"trade_id"`
	Entry   *float64      `json:"entry"`
	TP      *float64      `json:"tp"`
	SL      *float64      `json:"sl"`
	Time    string        `json:"time"`
	Kind    string        `json:"type"`
}

func decodeSignal(data []byte) (models.TradeEvent, error) {
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return models.TradeEvent{}, errors.Wrap(ErrMalformedMessage, "signal without data")
	}
	var p signalPayload
	if err := sonic.Unmarshal(data, &p); err != nil {
		return models.TradeEvent{}, errors.Wrap(ErrMalformedMessage, err.Error())
	}

	ev := p.TradeEvent
	if ev.ID == "" {
		ev.ID = p.TradeID
	}
	if ev.EntryPrice == nil {
		ev.EntryPrice = p.Entry
	}
	if ev.TakeProfit == nil {
		ev.TakeProfit = p.TP
	}
	if ev.StopLoss == nil {
		ev.StopLoss = p.SL
	}
	if ev.Timestamp == "" {
		ev.Timestamp = p.Time
	}
	if ev.Status == "" {
		ev.Status = models.TradeOpen
		if p.Kind == "EXIT" {
			ev.Status = models.TradeClosed
		}
	}
	return ev, nil
}
