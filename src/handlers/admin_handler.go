package handlers

import (
	"net/http"
	"time"

	"github.com/Skythrill256/yield-ranker-sub001/src/logger"
	"github.com/Skythrill256/yield-ranker-sub001/src/services"
	"github.com/Skythrill256/yield-ranker-sub001/src/utils"
)

type AdminHandler struct {
	ingestion     services.IngestionService
	metrics       services.MetricsService
	ranking       services.RankingService
	funds         services.FundService
	lookbackYears int
}

func NewAdminHandler(ingestion services.IngestionService, metrics services.MetricsService, ranking services.RankingService, funds services.FundService, lookbackYears int) *AdminHandler {
	if lookbackYears < 1 {
		lookbackYears = 4
	}
	return &AdminHandler{ingestion: ingestion, metrics: metrics, ranking: ranking, funds: funds, lookbackYears: lookbackYears}
}

// HandleSyncTicker serves POST /api/admin/etfs/{ticker}/sync: it pulls
// provider history and recomputes the ticker's metrics.
func (h *AdminHandler) HandleSyncTicker(w http.ResponseWriter, r *http.Request) {
	ticker, ok := tickerParam(w, r)
	if !ok {
		return
	}
	logger.FromContext(r.Context()).Info("Handling admin sync", "ticker", ticker)

	from := time.Now().UTC().AddDate(-h.lookbackYears, 0, 0)
	result, err := h.ingestion.SyncTicker(r.Context(), services.SyncTarget{Ticker: ticker}, from)
	if err != nil {
		sendServiceError(w, r, err, "syncing ticker")
		return
	}
	snap, err := h.metrics.Compute(r.Context(), ticker)
	if err != nil {
		sendServiceError(w, r, err, "computing metrics")
		return
	}
	h.funds.ClearCache()

	utils.SendJSON(w, map[string]any{"sync": result, "metrics": snap})
}

// HandleRecompute serves POST /api/admin/metrics/recompute.
func (h *AdminHandler) HandleRecompute(w http.ResponseWriter, r *http.Request) {
	computed, err := h.metrics.RecomputeAll(r.Context())
	if err != nil {
		sendServiceError(w, r, err, "recomputing metrics")
		return
	}
	if err := h.ranking.PersistDefaultRanks(r.Context()); err != nil {
		sendServiceError(w, r, err, "persisting ranks")
		return
	}
	h.funds.ClearCache()
	utils.SendJSON(w, map[string]int{"computed": computed})
}

// HandleDeleteFund serves DELETE /api/admin/etfs/{ticker}.
func (h *AdminHandler) HandleDeleteFund(w http.ResponseWriter, r *http.Request) {
	ticker, ok := tickerParam(w, r)
	if !ok {
		return
	}
	if err := h.funds.Delete(r.Context(), ticker); err != nil {
		sendServiceError(w, r, err, "deleting fund")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleClearCache serves POST /api/admin/cache/clear.
func (h *AdminHandler) HandleClearCache(w http.ResponseWriter, r *http.Request) {
	h.funds.ClearCache()
	logger.FromContext(r.Context()).Info("Fund cache cleared")
	utils.SendJSON(w, map[string]string{"message": "cache cleared"})
}
