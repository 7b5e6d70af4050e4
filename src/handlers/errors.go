package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Skythrill256/yield-ranker-sub001/src/logger"
	"github.com/Skythrill256/yield-ranker-sub001/src/security/validation"
	"github.com/Skythrill256/yield-ranker-sub001/src/services"
	"github.com/Skythrill256/yield-ranker-sub001/src/utils"
)

// sendServiceError maps service errors onto HTTP statuses. Unexpected
// errors are logged and answered with a generic message.
func sendServiceError(w http.ResponseWriter, r *http.Request, err error, action string) {
	switch {
	case errors.Is(err, services.ErrUnknownTicker):
		utils.SendJSONError(w, "fund not found", http.StatusNotFound)
	case errors.Is(err, validation.ErrValidationFailed), errors.Is(err, services.ErrNotClosedEnd):
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, services.ErrProviderNotConfigured):
		utils.SendJSONError(w, "market data provider is not configured", http.StatusServiceUnavailable)
	case errors.Is(err, services.ErrProviderResponse):
		logger.FromContext(r.Context()).Warn("Provider error", "action", action, "error", err)
		utils.SendJSONError(w, "market data provider error", http.StatusBadGateway)
	default:
		logger.FromContext(r.Context()).Error("Request failed", "action", action, "error", err)
		msg := "Error " + action
		if id, ok := GetRequestIDFromContext(r.Context()); ok {
			msg += " (request " + id + ")"
		}
		utils.SendJSONError(w, msg, http.StatusInternalServerError)
	}
}

// tickerParam reads and normalizes the {ticker} path parameter.
func tickerParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	ticker, err := validation.NormalizeTicker(chi.URLParam(r, "ticker"))
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return "", false
	}
	return ticker, true
}
