package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Skythrill256/yield-ranker-sub001/src/utils"
)

// Handlers groups the route handlers mounted by RegisterRoutes.
type Handlers struct {
	Fund    *FundHandler
	Ranking *RankingHandler
	Search  *SearchHandler
	Admin   *AdminHandler
}

// RegisterRoutes mounts the public API and the key-guarded admin API on r.
func RegisterRoutes(r chi.Router, h Handlers, adminAPIKey string) {
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		utils.SendJSON(w, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/etfs", func(r chi.Router) {
			r.Get("/", h.Fund.HandleListFunds)
			r.Route("/{ticker}", func(r chi.Router) {
				r.Get("/", h.Fund.HandleGetFund)
				r.Get("/dividends", h.Fund.HandleGetDividends)
				r.Get("/prices", h.Fund.HandleGetPrices)
				r.Get("/dvi", h.Fund.HandleGetDVI)
				r.Get("/returns", h.Fund.HandleGetReturns)
				r.Get("/zscore", h.Fund.HandleGetZScore)
			})
		})

		r.Get("/rankings", h.Ranking.HandleGetRankings)
		r.Post("/rankings", h.Ranking.HandlePostRankings)
		r.Get("/rankings/export", h.Ranking.HandleExportRankings)

		r.Get("/search", h.Search.HandleSearch)

		r.Route("/admin", func(r chi.Router) {
			r.Use(APIKeyMiddleware(adminAPIKey))
			r.Post("/etfs/{ticker}/sync", h.Admin.HandleSyncTicker)
			r.Delete("/etfs/{ticker}", h.Admin.HandleDeleteFund)
			r.Post("/metrics/recompute", h.Admin.HandleRecompute)
			r.Post("/cache/clear", h.Admin.HandleClearCache)
		})
	})
}
