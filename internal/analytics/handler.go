package analytics

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	apperrors "github.com/Adithya-Monish-Kumar-K/bm25-search/pkg/errors"
)

const maxTopN = 100

// Handler exposes aggregated search analytics over HTTP.
type Handler struct {
	aggregator *Aggregator
	logger     *slog.Logger
}

func NewHandler(aggregator *Aggregator) *Handler {
	return &Handler{
		aggregator: aggregator,
		logger:     slog.Default().With("component", "analytics-handler"),
	}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/analytics", h.Stats)
}

// Stats serves the aggregate snapshot. ?top=N resizes the ranked query and
// term lists, up to maxTopN.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	n := defaultTopN
	if raw := r.URL.Query().Get("top"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			h.writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": apperrors.ErrInvalidInput.Error() + ": top must be a non-negative integer",
			})
			return
		}
		n = min(v, maxTopN)
	}
	h.writeJSON(w, http.StatusOK, h.aggregator.StatsTop(n))
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to write analytics response", "error", err)
	}
}
