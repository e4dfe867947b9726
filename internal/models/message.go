package models

import (
	"encoding/json"
	"strings"

	"github.com/bytedance/sonic"
)

type MessageType string

const (
	MessageSignal       MessageType = "signal"
	MessageStatusChange MessageType = "status_change"
)

// Envelope: кадр из /ws. У status_change бэкенд кладёт strategy_id/status
// на верхний уровень, а не в data; оба варианта считаем непрозрачными.
type Envelope struct {
	Type       MessageType     `json:"type"`
	Data       json.RawMessage `json:"data,omitempty"`
	StrategyID string          `json:"strategy_id,omitempty"`
	Status     string          `json:"status,omitempty"`
}

// FlexID принимает id и строкой, и числом (в журнале сделок это autoincrement).
type FlexID string

func (id *FlexID) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	switch {
	case s == "" || s == "null":
		*id = ""
		return nil
	case strings.HasPrefix(s, `"`):
		var v string
		if err := sonic.Unmarshal(b, &v); err != nil {
			return err
		}
		*id = FlexID(v)
		return nil
	default:
		*id = FlexID(s)
		return nil
	}
}

func (id FlexID) String() string { return string(id) }
