package derive

import "strategy_dashboard/internal/models"

const (
	HighConfidenceScore = 0.6
	BearishScore        = 0.35
)

type Tone string

const (
	ToneBullish Tone = "bullish"
	ToneNeutral Tone = "neutral"
	ToneBearish Tone = "bearish"
)

const StrongBullishLabel = "STRONG BULLISH"

// PredictionView: как показывать прогноз: выше 0.6 метка сервера
// перекрывается "strong bullish", ниже 0.35, медвежий тон.
type PredictionView struct {
	models.Prediction `yaml:",inline"`
	Label             string `json:"label" yaml:"label"`
	Tone              Tone   `json:"tone" yaml:"tone"`
	HighConfidence    bool   `json:"high_confidence" yaml:"high_confidence"`
}

func ClassifyPrediction(p models.Prediction) PredictionView {
	v := PredictionView{Prediction: p, Label: p.Signal, Tone: ToneNeutral}
	switch {
	case p.Score > HighConfidenceScore:
		v.Label = StrongBullishLabel
		v.Tone = ToneBullish
		v.HighConfidence = true
	case p.Score < BearishScore:
		v.Tone = ToneBearish
	}
	return v
}
