package handlers

import (
	"net/http"

	"github.com/Skythrill256/yield-ranker-sub001/src/logger"
	"github.com/Skythrill256/yield-ranker-sub001/src/models"
	"github.com/Skythrill256/yield-ranker-sub001/src/security/validation"
	"github.com/Skythrill256/yield-ranker-sub001/src/services"
	"github.com/Skythrill256/yield-ranker-sub001/src/utils"
)

type FundHandler struct {
	fundService    services.FundService
	metricsService services.MetricsService
}

func NewFundHandler(fundService services.FundService, metricsService services.MetricsService) *FundHandler {
	return &FundHandler{fundService: fundService, metricsService: metricsService}
}

// HandleListFunds serves GET /api/etfs?category=ETF|CEF with ETag revalidation.
func (h *FundHandler) HandleListFunds(w http.ResponseWriter, r *http.Request) {
	category, err := validation.NormalizeCategory(r.URL.Query().Get("category"))
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	logger.FromContext(r.Context()).Debug("Handling ListFunds", "category", category)

	funds, err := h.fundService.List(r.Context(), category)
	if err != nil {
		sendServiceError(w, r, err, "listing funds")
		return
	}
	if funds == nil {
		funds = []models.Fund{}
	}

	etag, err := utils.GenerateETag(funds)
	if err != nil {
		logger.FromContext(r.Context()).Warn("Could not generate ETag", "error", err)
	}
	if utils.MatchesETag(w, r, etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=60")
	utils.SendJSON(w, funds)
}

// HandleGetFund serves GET /api/etfs/{ticker} with a fresh metrics snapshot.
func (h *FundHandler) HandleGetFund(w http.ResponseWriter, r *http.Request) {
	ticker, ok := tickerParam(w, r)
	if !ok {
		return
	}
	fund, err := h.fundService.Get(r.Context(), ticker)
	if err != nil {
		sendServiceError(w, r, err, "retrieving fund")
		return
	}
	utils.SendJSON(w, fund)
}

func (h *FundHandler) HandleGetDividends(w http.ResponseWriter, r *http.Request) {
	ticker, ok := tickerParam(w, r)
	if !ok {
		return
	}
	divs, err := h.fundService.Dividends(r.Context(), ticker)
	if err != nil {
		sendServiceError(w, r, err, "retrieving dividends")
		return
	}
	if divs == nil {
		divs = []models.DividendRecord{}
	}
	utils.SendJSON(w, divs)
}

// HandleGetPrices serves GET /api/etfs/{ticker}/prices?from=YYYY-MM-DD.
func (h *FundHandler) HandleGetPrices(w http.ResponseWriter, r *http.Request) {
	ticker, ok := tickerParam(w, r)
	if !ok {
		return
	}
	from := r.URL.Query().Get("from")
	if from != "" {
		if _, err := validation.ValidateDateString(from, "from"); err != nil {
			utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	prices, err := h.fundService.Prices(r.Context(), ticker, from)
	if err != nil {
		sendServiceError(w, r, err, "retrieving prices")
		return
	}
	if prices == nil {
		prices = []models.PriceRecord{}
	}
	utils.SendJSON(w, prices)
}

func (h *FundHandler) HandleGetDVI(w http.ResponseWriter, r *http.Request) {
	ticker, ok := tickerParam(w, r)
	if !ok {
		return
	}
	res, err := h.metricsService.DVI(r.Context(), ticker)
	if err != nil {
		sendServiceError(w, r, err, "calculating DVI")
		return
	}
	if res.Payments == nil {
		res.Payments = []models.AnnualizedPayment{}
	}
	utils.SendJSON(w, res)
}

func (h *FundHandler) HandleGetReturns(w http.ResponseWriter, r *http.Request) {
	ticker, ok := tickerParam(w, r)
	if !ok {
		return
	}
	res, err := h.metricsService.Returns(r.Context(), ticker)
	if err != nil {
		sendServiceError(w, r, err, "calculating returns")
		return
	}
	utils.SendJSON(w, res)
}

func (h *FundHandler) HandleGetZScore(w http.ResponseWriter, r *http.Request) {
	ticker, ok := tickerParam(w, r)
	if !ok {
		return
	}
	res, err := h.metricsService.ZScore(r.Context(), ticker)
	if err != nil {
		sendServiceError(w, r, err, "calculating Z-score")
		return
	}
	utils.SendJSON(w, res)
}
