package services

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/Skythrill256/yield-ranker-sub001/src/models"
	"github.com/Skythrill256/yield-ranker-sub001/src/security/validation"
)

var rankingCSVHeader = []string{
	"final_rank", "ticker", "name", "category",
	"yield_pct", "dvi_pct", "z_score", "total_return_pct",
	"yield_rank", "volatility_rank", "z_score_rank", "total_return_rank",
	"total_score",
}

// WriteRankingCSV writes a ranking result, best first. Text cells are
// guarded against spreadsheet formula injection; missing values are empty.
func WriteRankingCSV(w io.Writer, result *models.RankingResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(rankingCSVHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, f := range result.Funds {
		row := []string{
			strconv.Itoa(f.FinalRank),
			validation.SanitizeForFormulaInjection(f.Ticker),
			validation.SanitizeForFormulaInjection(f.Name),
			validation.SanitizeForFormulaInjection(f.Category),
			csvFloat(f.Yield),
			csvFloat(f.DVI),
			csvFloat(f.ZScore),
			csvFloat(f.TotalReturn),
			csvRank(f.MetricRanks, models.CriterionYield),
			csvRank(f.MetricRanks, models.CriterionVolatility),
			csvRank(f.MetricRanks, models.CriterionZScore),
			csvRank(f.MetricRanks, models.CriterionTotalReturn),
			strconv.FormatFloat(f.TotalScore, 'f', 4, 64),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row for %s: %w", f.Ticker, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func csvFloat(v models.NullFloat) string {
	if !v.Valid {
		return ""
	}
	return strconv.FormatFloat(v.Float64, 'f', 4, 64)
}

// csvRank is empty for criteria that were not weighted.
func csvRank(ranks map[string]int, criterion string) string {
	r, ok := ranks[criterion]
	if !ok {
		return ""
	}
	return strconv.Itoa(r)
}
