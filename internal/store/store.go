// Package store: единственный владелец данных дашборда: ростер стратегий,
// глобальная лента сигналов, лента выбранной стратегии и последний прогноз.
//
// Store не потокобезопасен: все вызовы идут из одного event loop (см. runner.Loop),
// каждая операция синхронная и оставляет стор в согласованном состоянии.
package store

import (
	"strategy_dashboard/internal/models"
)

const (
	GlobalTradesCapacity = 100
	DetailTradesCapacity = 200
)

type Store struct {
	strategies []models.Strategy
	byID       map[string]int

	global *Sequence[models.TradeEvent]
	detail *detailSlot

	prediction *models.Prediction

	revision uint64
}

// detailSlot: лента одной стратегии; одновременно держим не больше одной.
type detailSlot struct {
	strategyID string
	trades     *Sequence[models.TradeEvent]
	loaded     bool
}

func New() *Store {
	return &Store{
		byID:   make(map[string]int),
		global: NewSequence[models.TradeEvent](GlobalTradesCapacity),
	}
}

// ReplaceStrategies: полная замена ростера, без слияния с running из стрима.
func (s *Store) ReplaceStrategies(list []models.Strategy) {
	s.strategies = append(make([]models.Strategy, 0, len(list)), list...)
	s.byID = make(map[string]int, len(list))
	for i, st := range s.strategies {
		s.byID[st.ID] = i
	}
	s.revision++
}

// ReplaceGlobalTrades: полная замена глобальной ленты, порядок источника сохраняется.
func (s *Store) ReplaceGlobalTrades(list []models.TradeEvent) {
	s.global.Replace(list)
	s.revision++
}

// PrependGlobalTrade: событие из стрима всегда встаёт в индекс 0.
func (s *Store) PrependGlobalTrade(ev models.TradeEvent) {
	s.global.Prepend(ev)
	s.revision++
}

// OpenDetail заводит пустую ленту под стратегию, прежняя лента выбрасывается.
func (s *Store) OpenDetail(strategyID string) {
	s.detail = &detailSlot{
		strategyID: strategyID,
		trades:     NewSequence[models.TradeEvent](DetailTradesCapacity),
	}
	s.revision++
}

// CloseDetail освобождает ленту стратегии; дальше события в неё не маршрутизируются.
func (s *Store) CloseDetail() {
	if s.detail == nil {
		return
	}
	s.detail = nil
	s.revision++
}

// ReplaceStrategyTrades: замена ленты стратегии. Если к моменту ответа выбрана
// другая стратегия (или уже вернулись назад), ответ выбрасывается.
func (s *Store) ReplaceStrategyTrades(strategyID string, list []models.TradeEvent) bool {
	if s.detail == nil || s.detail.strategyID != strategyID {
		return false
	}
	s.detail.trades.Replace(list)
	s.detail.loaded = true
	s.revision++
	return true
}

// PrependStrategyTradeIfActive: вставка в ленту стратегии только если событие
// относится к выбранной сейчас стратегии. Иначе no-op, ничего не копим.
func (s *Store) PrependStrategyTradeIfActive(ev models.TradeEvent) bool {
	if s.detail == nil || s.detail.strategyID != ev.StrategyID {
		return false
	}
	s.detail.trades.Prepend(ev)
	s.revision++
	return true
}

// SetStrategyRunning идемпотентен; неизвестный id (ростер ещё не загружен), no-op.
func (s *Store) SetStrategyRunning(strategyID string, running bool) bool {
	i, ok := s.byID[strategyID]
	if !ok {
		return false
	}
	if s.strategies[i].Running == running {
		return true
	}
	s.strategies[i].Running = running
	s.revision++
	return true
}

func (s *Store) ReplacePrediction(p models.Prediction) {
	s.prediction = &p
	s.revision++
}

// ---- чтение ----

func (s *Store) Strategies() []models.Strategy {
	return append(make([]models.Strategy, 0, len(s.strategies)), s.strategies...)
}

func (s *Store) Strategy(id string) (models.Strategy, bool) {
	i, ok := s.byID[id]
	if !ok {
		return models.Strategy{}, false
	}
	return s.strategies[i], true
}

func (s *Store) GlobalTrades() []models.TradeEvent { return s.global.Items() }

func (s *Store) RecentGlobalTrades(n int) []models.TradeEvent { return s.global.Head(n) }

// DetailStrategyID: чья лента сейчас загружена (если есть).
func (s *Store) DetailStrategyID() (string, bool) {
	if s.detail == nil {
		return "", false
	}
	return s.detail.strategyID, true
}

// DetailLoaded: пришёл ли уже ответ истории для выбранной стратегии.
func (s *Store) DetailLoaded() bool {
	return s.detail != nil && s.detail.loaded
}

func (s *Store) StrategyTrades() []models.TradeEvent {
	if s.detail == nil {
		return nil
	}
	return s.detail.trades.Items()
}

func (s *Store) Prediction() (models.Prediction, bool) {
	if s.prediction == nil {
		return models.Prediction{}, false
	}
	return *s.prediction, true
}

// Revision растёт на каждой фактической мутации.
func (s *Store) Revision() uint64 { return s.revision }
