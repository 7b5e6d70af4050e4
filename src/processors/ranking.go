package processors

import (
	"fmt"
	"sort"

	"github.com/Skythrill256/yield-ranker-sub001/src/models"
)

type criterion struct {
	name           string
	weight         float64
	// higherIsBetter sorts descending; otherwise ascending.
	higherIsBetter bool
	value          func(models.RankInput) models.NullFloat
}

func activeCriteria(w models.RankingWeights) []criterion {
	horizon := w.Horizon()
	all := []criterion{
		{models.CriterionYield, w.Yield, true, func(f models.RankInput) models.NullFloat { return f.Yield }},
		{models.CriterionVolatility, w.Volatility, false, func(f models.RankInput) models.NullFloat { return f.DVI }},
		{models.CriterionZScore, w.ZScore, false, func(f models.RankInput) models.NullFloat { return f.ZScore }},
		{models.CriterionTotalReturn, w.TotalReturn, true, func(f models.RankInput) models.NullFloat { return f.TotalReturns.For(horizon) }},
	}
	active := all[:0]
	for _, c := range all {
		if c.weight != 0 {
			active = append(active, c)
		}
	}
	return active
}

func usable(v models.NullFloat) bool {
	return v.Valid && isFinite(v.Float64)
}

// Rank scores funds against weighted criteria. For every criterion with a
// non-zero weight, funds holding a value are ordered best first and ranked
// 1..K; funds without a value get rank N, the fund count. The total score is
// the sum of rank x weight / 100 and a lower score is better.
//
// Both the per-criterion sort and the final sort are stable, so equal values
// and equal scores keep input order rather than sharing a rank.
//
// Weights that do not sum to 100 are reported through WeightsValid and
// Warning but still ranked.
func Rank(funds []models.RankInput, weights models.RankingWeights) models.RankingResult {
	n := len(funds)
	sum := weights.Sum()
	result := models.RankingResult{
		Weights:      weights,
		WeightSum:    sum,
		WeightsValid: weights.Valid(),
		FundCount:    n,
		Funds:        make([]models.RankedFund, 0, n),
	}
	if !result.WeightsValid {
		result.Warning = fmt.Sprintf("weights sum to %.2f, expected 100", sum)
	}

	horizon := weights.Horizon()
	ranked := make([]models.RankedFund, n)
	for i, f := range funds {
		ranked[i] = models.RankedFund{
			Ticker:      f.Ticker,
			Name:        f.Name,
			Category:    f.Category,
			Yield:       f.Yield,
			DVI:         f.DVI,
			ZScore:      f.ZScore,
			TotalReturn: f.TotalReturns.For(horizon),
			MetricRanks: make(map[string]int),
		}
	}

	for _, c := range activeCriteria(weights) {
		var present []int
		for i, f := range funds {
			if usable(c.value(f)) {
				present = append(present, i)
			} else {
				ranked[i].MetricRanks[c.name] = n
			}
		}
		sort.SliceStable(present, func(a, b int) bool {
			va, vb := c.value(funds[present[a]]).Float64, c.value(funds[present[b]]).Float64
			if c.higherIsBetter {
				return va > vb
			}
			return va < vb
		})
		for pos, i := range present {
			ranked[i].MetricRanks[c.name] = pos + 1
		}
		for i := range ranked {
			ranked[i].TotalScore += float64(ranked[i].MetricRanks[c.name]) * c.weight / 100
		}
	}

	sort.SliceStable(ranked, func(a, b int) bool { return ranked[a].TotalScore < ranked[b].TotalScore })
	for i := range ranked {
		ranked[i].FinalRank = i + 1
	}
	result.Funds = append(result.Funds, ranked...)
	return result
}
