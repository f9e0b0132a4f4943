package gateway

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
)

func setCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

// HandleSymbols lists the active feeds with their buffer depth and
// strategy sets.
func (h *Hub) HandleSymbols(w http.ResponseWriter, r *http.Request) {
	setCORS(w)
	w.Header().Set("Content-Type", "application/json")

	json.NewEncoder(w).Encode(map[string]any{
		"symbols": h.feeds.Status(),
	})
}

// HandleCandles returns the buffered candles for one symbol, oldest
// first. Unknown symbols get a 404.
func (h *Hub) HandleCandles(w http.ResponseWriter, r *http.Request) {
	setCORS(w)
	w.Header().Set("Content-Type", "application/json")

	symbol := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("symbol")))
	if symbol == "" {
		http.Error(w, `{"error":"missing symbol"}`, http.StatusBadRequest)
		return
	}

	limit := 200
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 1000 {
			limit = l
		}
	}

	candles, ok := h.feeds.SnapshotCandles(symbol, limit)
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "unknown symbol"})
		return
	}

	json.NewEncoder(w).Encode(map[string]any{
		"symbol":  symbol,
		"candles": candles,
	})
}
