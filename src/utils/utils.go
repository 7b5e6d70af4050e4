package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"

	"github.com/Skythrill256/yield-ranker-sub001/src/logger"
	"github.com/Skythrill256/yield-ranker-sub001/src/models"
)

// ErrorResponse is the JSON body of every error reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SendJSONError writes {"error": message} with the given status.
func SendJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(ErrorResponse{Error: message}); err != nil {
		logger.L.Error("Failed to encode JSON error response", "error", err)
	}
}

// SendJSON writes v as a 200 JSON response.
func SendJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.L.Error("Failed to encode JSON response", "error", err)
	}
}

// GenerateETag hashes the JSON encoding of data.
func GenerateETag(data any) (string, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("marshal for etag: %w", err)
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:16]), nil
}

// MatchesETag sets the ETag header and reports whether the request's
// If-None-Match already carries it.
func MatchesETag(w http.ResponseWriter, r *http.Request, etag string) bool {
	if etag == "" {
		return false
	}
	quoted := fmt.Sprintf("\"%s\"", etag)
	w.Header().Set("ETag", quoted)
	for _, candidate := range strings.Split(r.Header.Get("If-None-Match"), ",") {
		if strings.TrimSpace(candidate) == quoted {
			return true
		}
	}
	return false
}

// RoundFloat rounds val to the given number of decimal places.
func RoundFloat(val float64, precision uint) float64 {
	ratio := math.Pow(10, float64(precision))
	return math.Round(val*ratio) / ratio
}

// RoundNull rounds a valid NullFloat and leaves a null one untouched.
func RoundNull(v models.NullFloat, precision uint) models.NullFloat {
	if !v.Valid {
		return v
	}
	return models.FloatOf(RoundFloat(v.Float64, precision))
}
