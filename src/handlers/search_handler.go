package handlers

import (
	"context"
	"net/http"

	"github.com/Skythrill256/yield-ranker-sub001/src/logger"
	"github.com/Skythrill256/yield-ranker-sub001/src/security/validation"
	"github.com/Skythrill256/yield-ranker-sub001/src/services"
	"github.com/Skythrill256/yield-ranker-sub001/src/utils"
)

// Searcher is the part of the search service the handler uses.
type Searcher interface {
	Search(ctx context.Context, q string, limit int) ([]services.SearchHit, error)
}

type SearchHandler struct {
	searcher Searcher
}

func NewSearchHandler(searcher Searcher) *SearchHandler {
	return &SearchHandler{searcher: searcher}
}

// HandleSearch serves GET /api/search?q=&limit=.
func (h *SearchHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	q, err := validation.ValidateSearchQuery(r.URL.Query().Get("q"))
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	limit, err := validation.ValidateIntString(r.URL.Query().Get("limit"), "limit", services.DefaultSearchLimit, 1, services.MaxSearchLimit)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	hits, err := h.searcher.Search(r.Context(), q, limit)
	if err != nil {
		logger.FromContext(r.Context()).Error("Search failed", "error", err)
		utils.SendJSONError(w, "Error searching funds", http.StatusInternalServerError)
		return
	}
	if hits == nil {
		hits = []services.SearchHit{}
	}
	utils.SendJSON(w, hits)
}
