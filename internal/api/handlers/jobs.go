package handlers

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/internal/auth"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/internal/contracts"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/internal/jobs"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/internal/scanners"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/pkg/logger"
)

// JobsHandler serves the scan queue: admission, job inspection, and the
// scanner registry listing.
type JobsHandler struct {
	service  *jobs.Service
	jobs     contracts.JobRepository
	registry *scanners.Registry
	logger   *logger.Logger
}

// NewJobsHandler creates the jobs handler.
func NewJobsHandler(service *jobs.Service, jobRepo contracts.JobRepository, registry *scanners.Registry, log *logger.Logger) *JobsHandler {
	return &JobsHandler{
		service:  service,
		jobs:     jobRepo,
		registry: registry,
		logger:   log,
	}
}

// ScanRequest is the admission payload.
type ScanRequest struct {
	Scope string `json:"scope"` // "scanner" or "company"
	Key   string `json:"key"`
}

// Scan enqueues a scan job. The admission service owns the admin gate,
// cooldown, and audit trail; this handler only translates its errors.
// POST /api/scan
func (h *JobsHandler) Scan(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.CallerFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Missing API key")
		return
	}

	var req ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	job, err := h.service.Enqueue(r.Context(), caller, contracts.JobScope(req.Scope), req.Key)
	if err != nil {
		h.respondEnqueueError(w, err)
		return
	}

	respondJSON(w, http.StatusAccepted, job)
}

func (h *JobsHandler) respondEnqueueError(w http.ResponseWriter, err error) {
	var cooldown *jobs.CooldownError
	switch {
	case errors.Is(err, jobs.ErrForbidden):
		respondError(w, http.StatusForbidden, "Admin role required")
	case errors.Is(err, jobs.ErrInvalidRequest):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &cooldown):
		seconds := int(math.Ceil(cooldown.RetryAfter.Seconds()))
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
		respondError(w, http.StatusTooManyRequests, err.Error())
	default:
		h.logger.WithError(err).Error("Failed to enqueue scan job")
		respondError(w, http.StatusInternalServerError, "Failed to enqueue scan job")
	}
}

// Get returns a single job.
// GET /api/jobs/{id}
func (h *JobsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid job id")
		return
	}

	job, err := h.jobs.GetByID(r.Context(), id)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get job")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve job")
		return
	}
	if job == nil {
		respondError(w, http.StatusNotFound, "Job not found")
		return
	}

	respondJSON(w, http.StatusOK, job)
}

// List returns jobs matching the query filters.
// GET /api/jobs
func (h *JobsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := contracts.JobFilter{
		Scope:    contracts.JobScope(q.Get("scope")),
		ScopeKey: q.Get("key"),
		Status:   contracts.JobStatus(q.Get("status")),
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid limit (expected integer)")
			return
		}
		filter.Limit = limit
	}

	list, err := h.jobs.List(r.Context(), filter)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list jobs")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve jobs")
		return
	}

	respondJSON(w, http.StatusOK, list)
}

// ScannerInfo is one registry row in the listing response.
type ScannerInfo struct {
	Key        string                `json:"key"`
	Name       string                `json:"name"`
	EventTypes []contracts.EventType `json:"event_types"`
}

// ListScanners returns the scanner registry. Admin only.
// GET /api/scanners
func (h *JobsHandler) ListScanners(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.CallerFrom(r.Context())
	if !ok || !caller.IsAdmin {
		respondError(w, http.StatusForbidden, "Admin role required")
		return
	}

	all := h.registry.All()
	list := make([]ScannerInfo, 0, len(all))
	for _, s := range all {
		list = append(list, ScannerInfo{
			Key:        s.Key(),
			Name:       s.Name(),
			EventTypes: s.EventTypes(),
		})
	}

	respondJSON(w, http.StatusOK, list)
}
