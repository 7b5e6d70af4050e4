package models

import "math"

// Ranking timeframes accepted in weights.
const (
	Timeframe3Mo  = "3mo"
	Timeframe6Mo  = "6mo"
	Timeframe12Mo = "12mo"
)

// Ranking criteria.
const (
	CriterionYield       = "yield"
	CriterionVolatility  = "volatility"
	CriterionZScore      = "zScore"
	CriterionTotalReturn = "totalReturn"
)

// RankingWeights are user-supplied percentages per criterion. They are
// intended to sum to 100, but any sum is ranked.
type RankingWeights struct {
	Yield       float64 `json:"yield" yaml:"yield"`
	Volatility  float64 `json:"volatility" yaml:"volatility"`
	ZScore      float64 `json:"zScore" yaml:"zScore"`
	TotalReturn float64 `json:"totalReturn" yaml:"totalReturn"`
	Timeframe   string  `json:"timeframe" yaml:"timeframe"`
}

// DefaultWeights mirrors the dashboard's initial slider positions.
func DefaultWeights() RankingWeights {
	return RankingWeights{Yield: 50, Volatility: 30, TotalReturn: 20, Timeframe: Timeframe12Mo}
}

// Sum adds all criterion weights.
func (w RankingWeights) Sum() float64 {
	return w.Yield + w.Volatility + w.ZScore + w.TotalReturn
}

// Valid reports whether the weights sum to 100 within a cent.
func (w RankingWeights) Valid() bool {
	return math.Abs(w.Sum()-100) < 0.01
}

// Horizon maps the timeframe onto a total-return horizon. Unknown values use 12M.
func (w RankingWeights) Horizon() Horizon {
	switch w.Timeframe {
	case Timeframe3Mo:
		return Horizon3M
	case Timeframe6Mo:
		return Horizon6M
	default:
		return Horizon12M
	}
}

// RankInput is one fund's raw metric values for ranking.
type RankInput struct {
	Ticker       string    `json:"ticker"`
	Name         string    `json:"name"`
	Category     string    `json:"category"`
	Yield        NullFloat `json:"yield"`
	DVI          NullFloat `json:"dvi"`
	ZScore       NullFloat `json:"z_score"`
	TotalReturns ReturnSet `json:"total_returns"`
}

// RankedFund is a fund after scoring. Metric ranks are 1-based; a missing
// value carries the fund count.
type RankedFund struct {
	Ticker      string         `json:"ticker"`
	Name        string         `json:"name"`
	Category    string         `json:"category,omitempty"`
	Yield       NullFloat      `json:"yield"`
	DVI         NullFloat      `json:"dvi"`
	ZScore      NullFloat      `json:"z_score"`
	TotalReturn NullFloat      `json:"total_return"`
	MetricRanks map[string]int `json:"metric_ranks"`
	TotalScore  float64        `json:"total_score"`
	FinalRank   int            `json:"final_rank"`
}

// RankingResult is the ranked list, best first.
type RankingResult struct {
	Weights      RankingWeights `json:"weights"`
	WeightSum    float64        `json:"weight_sum"`
	WeightsValid bool           `json:"weights_valid"`
	Warning      string         `json:"warning,omitempty"`
	FundCount    int            `json:"fund_count"`
	Funds        []RankedFund   `json:"funds"`
}
