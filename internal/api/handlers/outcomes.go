package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/internal/contracts"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/pkg/logger"
)

const defaultSummaryHorizon = 5

// OutcomesHandler serves backtest accuracy aggregates.
type OutcomesHandler struct {
	outcomes contracts.OutcomeRepository
	logger   *logger.Logger
}

// NewOutcomesHandler creates the outcomes handler.
func NewOutcomesHandler(outcomes contracts.OutcomeRepository, log *logger.Logger) *OutcomesHandler {
	return &OutcomesHandler{outcomes: outcomes, logger: log}
}

// Summary returns per-event-type accuracy for one labeling horizon.
// GET /api/outcomes/summary?horizon=5
func (h *OutcomesHandler) Summary(w http.ResponseWriter, r *http.Request) {
	horizon := defaultSummaryHorizon
	if raw := r.URL.Query().Get("horizon"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || !validHorizon(parsed) {
			respondError(w, http.StatusBadRequest,
				fmt.Sprintf("Invalid horizon %q (valid: %v)", raw, contracts.OutcomeHorizons))
			return
		}
		horizon = parsed
	}

	summary, err := h.outcomes.SummaryByEventType(r.Context(), horizon)
	if err != nil {
		h.logger.WithError(err).Error("Failed to summarize outcomes")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve outcome summary")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"horizon_days": horizon,
		"summary":      summary,
	})
}

func validHorizon(n int) bool {
	for _, h := range contracts.OutcomeHorizons {
		if n == h {
			return true
		}
	}
	return false
}
