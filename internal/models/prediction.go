package models

// Prediction: последний прогноз внешней модели (/api/predict/btc).
// История не хранится: каждый опрос заменяет значение целиком.
type Prediction struct {
	Datetime string  `json:"datetime" yaml:"datetime"`
	Price    float64 `json:"price" yaml:"price"`
	Score    float64 `json:"score" yaml:"score"` // 0..1
	Signal   string  `json:"signal" yaml:"signal"`
}
