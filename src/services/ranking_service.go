package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Skythrill256/yield-ranker-sub001/src/config"
	"github.com/Skythrill256/yield-ranker-sub001/src/logger"
	"github.com/Skythrill256/yield-ranker-sub001/src/model"
	"github.com/Skythrill256/yield-ranker-sub001/src/models"
	"github.com/Skythrill256/yield-ranker-sub001/src/processors"
	"github.com/Skythrill256/yield-ranker-sub001/src/security/validation"
)

type rankingServiceImpl struct {
	funds    FundService
	store    model.FundStore
	universe *config.Universe
}

// NewRankingService ranks the funds served by funds. universe supplies the
// default weights per category and may be nil.
func NewRankingService(funds FundService, store model.FundStore, universe *config.Universe) RankingService {
	return &rankingServiceImpl{funds: funds, store: store, universe: universe}
}

// RankInputs maps merged funds onto ranking inputs. The volatility
// criterion reads the DVI stored as the dividend CV.
func RankInputs(funds []models.Fund) []models.RankInput {
	out := make([]models.RankInput, 0, len(funds))
	for _, f := range funds {
		out = append(out, models.RankInput{
			Ticker:       f.Ticker,
			Name:         f.Name,
			Category:     f.Category,
			Yield:        f.ForwardYield,
			DVI:          f.Metrics.DividendCV,
			ZScore:       f.Metrics.ZScore,
			TotalReturns: f.Metrics.TotalReturns,
		})
	}
	return out
}

func (s *rankingServiceImpl) Rank(ctx context.Context, category string, weights models.RankingWeights) (*models.RankingResult, error) {
	if err := validation.ValidateWeights(&weights); err != nil {
		return nil, err
	}
	funds, err := s.funds.List(ctx, category)
	if err != nil {
		return nil, err
	}
	result := processors.Rank(RankInputs(funds), weights)
	if result.Warning != "" {
		logger.FromContext(ctx).Info("Ranking with non-standard weights", "sum", result.WeightSum)
	}
	return &result, nil
}

func (s *rankingServiceImpl) PersistDefaultRanks(ctx context.Context) error {
	// Ranks must come from the snapshots just computed, not a cached list.
	s.funds.ClearCache()
	all, err := s.funds.List(ctx, "")
	if err != nil {
		return err
	}
	byCategory := map[string][]models.Fund{}
	var order []string
	for _, f := range all {
		if _, ok := byCategory[f.Category]; !ok {
			order = append(order, f.Category)
		}
		byCategory[f.Category] = append(byCategory[f.Category], f)
	}

	saved := 0
	for _, cat := range order {
		result := processors.Rank(RankInputs(byCategory[cat]), s.universe.WeightsFor(cat))
		for _, rf := range result.Funds {
			if err := s.store.SaveWeightedRank(ctx, rf.Ticker, models.FloatOf(float64(rf.FinalRank))); err != nil {
				// Curated-only funds have no provider row to carry the rank yet.
				if errors.Is(err, model.ErrNotFound) {
					continue
				}
				return fmt.Errorf("save rank for %s: %w", rf.Ticker, err)
			}
			saved++
		}
	}
	s.funds.ClearCache()
	logger.FromContext(ctx).Info("Persisted default ranks", "funds", saved, "categories", len(order))
	return nil
}
