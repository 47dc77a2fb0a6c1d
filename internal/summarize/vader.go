package summarize

import (
	govader "github.com/jonreiter/govader"

	"github.com/marketminds/engine/internal/models"
)

// Compound-score cutoffs follow the VADER paper's recommended
// thresholds for positive/negative classification.
const (
	bullishThreshold = 0.05
	bearishThreshold = -0.05
)

// VaderScorer labels text with a market-sentiment label using local
// VADER scoring. Used for feed items that already carry a description
// and skip the LLM path.
type VaderScorer struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

// NewVader creates a local sentiment scorer
func NewVader() *VaderScorer {
	return &VaderScorer{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

func (v *VaderScorer) Score(text string) string {
	if text == "" {
		return models.SentimentNeutral
	}

	compound := v.analyzer.PolarityScores(text).Compound
	switch {
	case compound >= bullishThreshold:
		return models.SentimentBullish
	case compound <= bearishThreshold:
		return models.SentimentBearish
	default:
		return models.SentimentNeutral
	}
}

var _ SentimentScorer = (*VaderScorer)(nil)
