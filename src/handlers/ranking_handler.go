package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/Skythrill256/yield-ranker-sub001/src/config"
	"github.com/Skythrill256/yield-ranker-sub001/src/logger"
	"github.com/Skythrill256/yield-ranker-sub001/src/models"
	"github.com/Skythrill256/yield-ranker-sub001/src/security/validation"
	"github.com/Skythrill256/yield-ranker-sub001/src/services"
	"github.com/Skythrill256/yield-ranker-sub001/src/utils"
)

const maxWeightsBodyBytes = 4 << 10

type RankingHandler struct {
	rankingService services.RankingService
	universe       *config.Universe
}

func NewRankingHandler(rankingService services.RankingService, universe *config.Universe) *RankingHandler {
	return &RankingHandler{rankingService: rankingService, universe: universe}
}

var weightParams = []string{
	models.CriterionYield,
	models.CriterionVolatility,
	models.CriterionZScore,
	models.CriterionTotalReturn,
}

// weightsFromQuery reads weights from query parameters. With no weight
// parameter at all the category defaults apply; otherwise absent weights are 0.
func (h *RankingHandler) weightsFromQuery(q url.Values, category string) (models.RankingWeights, error) {
	given := false
	for _, p := range weightParams {
		if q.Has(p) {
			given = true
			break
		}
	}
	if !given {
		w := h.universe.WeightsFor(category)
		if tf := q.Get("timeframe"); tf != "" {
			w.Timeframe = tf
		}
		return w, nil
	}

	var w models.RankingWeights
	targets := map[string]*float64{
		models.CriterionYield:       &w.Yield,
		models.CriterionVolatility:  &w.Volatility,
		models.CriterionZScore:      &w.ZScore,
		models.CriterionTotalReturn: &w.TotalReturn,
	}
	for _, p := range weightParams {
		v, err := validation.ValidateFloatString(q.Get(p), p, 0, validation.MaxWeight)
		if err != nil {
			return w, err
		}
		*targets[p] = v
	}
	w.Timeframe = q.Get("timeframe")
	return w, nil
}

func (h *RankingHandler) rank(w http.ResponseWriter, r *http.Request, weights models.RankingWeights, category string) (*models.RankingResult, bool) {
	logger.FromContext(r.Context()).Info("Handling Rank", "category", category,
		"yield", weights.Yield, "volatility", weights.Volatility, "zScore", weights.ZScore,
		"totalReturn", weights.TotalReturn, "timeframe", weights.Timeframe)

	result, err := h.rankingService.Rank(r.Context(), category, weights)
	if err != nil {
		sendServiceError(w, r, err, "ranking funds")
		return nil, false
	}
	if result.Funds == nil {
		result.Funds = []models.RankedFund{}
	}
	return result, true
}

// HandleGetRankings serves GET /api/rankings?category=&yield=&volatility=&zScore=&totalReturn=&timeframe=.
func (h *RankingHandler) HandleGetRankings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	category, err := validation.NormalizeCategory(q.Get("category"))
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	weights, err := h.weightsFromQuery(q, category)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	result, ok := h.rank(w, r, weights, category)
	if !ok {
		return
	}

	etag, err := utils.GenerateETag(result)
	if err != nil {
		logger.FromContext(r.Context()).Warn("Could not generate ETag", "error", err)
	}
	if utils.MatchesETag(w, r, etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	utils.SendJSON(w, result)
}

// HandlePostRankings serves POST /api/rankings with the weights as a JSON body.
func (h *RankingHandler) HandlePostRankings(w http.ResponseWriter, r *http.Request) {
	category, err := validation.NormalizeCategory(r.URL.Query().Get("category"))
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var weights models.RankingWeights
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxWeightsBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&weights); err != nil {
		utils.SendJSONError(w, fmt.Sprintf("invalid weights body: %v", err), http.StatusBadRequest)
		return
	}

	result, ok := h.rank(w, r, weights, category)
	if !ok {
		return
	}
	utils.SendJSON(w, result)
}

// HandleExportRankings serves GET /api/rankings/export as a CSV download.
func (h *RankingHandler) HandleExportRankings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	category, err := validation.NormalizeCategory(q.Get("category"))
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	weights, err := h.weightsFromQuery(q, category)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	result, ok := h.rank(w, r, weights, category)
	if !ok {
		return
	}

	filename := fmt.Sprintf("rankings-%s.csv", time.Now().UTC().Format(validation.DateLayout))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := services.WriteRankingCSV(w, result); err != nil {
		logger.FromContext(r.Context()).Error("Failed to write rankings CSV", "error", err)
	}
}
