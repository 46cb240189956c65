package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/opensource-finance/credix/internal/domain"
	"github.com/opensource-finance/credix/internal/intervention"
	"github.com/opensource-finance/credix/internal/plans"
	"github.com/opensource-finance/credix/internal/repository"
	"github.com/opensource-finance/credix/internal/risk"
)

// defaultMaxImportBytes caps CSV uploads.
const defaultMaxImportBytes = 32 << 20

// Handler holds dependencies for API handlers.
type Handler struct {
	svc     *intervention.Service
	repo    domain.CustomerRepository
	cache   domain.Cache
	bus     domain.EventBus
	version string

	maxImportBytes int64
}

// NewHandler creates a new API handler.
func NewHandler(svc *intervention.Service, repo domain.CustomerRepository, cache domain.Cache, bus domain.EventBus, version string) *Handler {
	return &Handler{
		svc:     svc,
		repo:    repo,
		cache:   cache,
		bus:     bus,
		version: version,

		maxImportBytes: defaultMaxImportBytes,
	}
}

// Health returns service health with dependency checks.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"

	if h.repo != nil {
		if err := h.repo.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	if h.cache != nil {
		if err := h.cache.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	if h.bus != nil {
		if err := h.bus.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  status,
		"version": h.version,
	})
}

// Ready returns whether the server is ready to accept traffic.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil || h.repo.Ping(r.Context()) != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"ready": "false",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"ready": "true",
	})
}

// RiskResponse is the response for GET /customers/{id}/risk.
type RiskResponse struct {
	Assessment *domain.RiskAssessment `json:"assessment"`
	Priority   domain.Priority        `json:"priority"`
}

// GetRisk classifies one customer.
func (h *Handler) GetRisk(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.Customer(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, RiskResponse{
		Assessment: h.svc.Classifier().Assess(c),
		Priority:   risk.Prioritize(c),
	})
}

// PlansResponse is the response for GET /customers/{id}/plans.
type PlansResponse struct {
	CustomerID string             `json:"customerId"`
	RiskBand   domain.RiskBand    `json:"riskBand"`
	Params     plans.Params       `json:"params"`
	Plans      []domain.PlanOffer `json:"plans"`
}

// GetPlans returns the plan catalog for a customer. The emi, tenure,
// income and expenses query parameters override the estimates.
func (h *Handler) GetPlans(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.Customer(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	params := plans.EstimateParams(c)
	q := r.URL.Query()
	for _, o := range []struct {
		name string
		dst  *int
	}{
		{"emi", &params.EMI},
		{"tenure", &params.Tenure},
		{"income", &params.Income},
		{"expenses", &params.Expenses},
	} {
		name, dst := o.name, o.dst
		v := q.Get(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": name + " must be an integer",
			})
			return
		}
		*dst = n
	}

	band := h.svc.Classifier().Classify(c)
	if v := q.Get("band"); v != "" {
		b, ok := domain.ParseRiskBand(v)
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": "band must be Low, Moderate or High",
			})
			return
		}
		band = b
	}

	writeJSON(w, http.StatusOK, PlansResponse{
		CustomerID: c.CustomerID,
		RiskBand:   band,
		Params:     params,
		Plans:      plans.GetPlans(band, params),
	})
}

// DispatchAlert sends the intervention alert to one customer.
// With ?async=true the request is queued for the alert worker.
func (h *Handler) DispatchAlert(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	customerID := chi.URLParam(r, "id")

	if r.URL.Query().Get("async") == "true" {
		if err := h.svc.RequestAlert(ctx, customerID, "api:"+GetTraceID(ctx)); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{
			"customerId": customerID,
			"status":     "queued",
		})
		return
	}

	result, err := h.svc.DispatchAlertByID(ctx, customerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ListAlerts returns the alerts sent to a customer.
func (h *Handler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.repo.ListAlerts(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if alerts == nil {
		alerts = []*domain.AlertResult{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"alerts": alerts,
		"count":  len(alerts),
	})
}

// ImportCustomers loads a CSV body. ?master=true merges contact details.
// The body is read in full before any row is saved, so an oversized
// upload is rejected without a partial import.
func (h *Handler) ImportCustomers(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxImportBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{
				"error": fmt.Sprintf("csv upload exceeds %d bytes", tooLarge.Limit),
			})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "failed to read request body",
		})
		return
	}

	stats, err := h.svc.Import(r.Context(), bytes.NewReader(body), r.URL.Query().Get("master") == "true")
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// GetIntervention renders the portal payload for a token and records OPENED.
func (h *Handler) GetIntervention(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.BuildView(r.Context(), r.URL.Query().Get("token"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// DeclineRequest is the optional body for a decline.
type DeclineRequest struct {
	Reason string `json:"reason"`
}

// AcceptPlan records an ACCEPTED outcome.
func (h *Handler) AcceptPlan(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customerId")
	planID := chi.URLParam(r, "planId")

	h.svc.Accept(r.Context(), customerID, planID)
	writeJSON(w, http.StatusOK, map[string]string{
		"customerId": customerID,
		"planId":     planID,
		"status":     domain.StatusAccepted,
	})
}

// DeclinePlan records a DECLINED outcome.
func (h *Handler) DeclinePlan(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customerId")
	planID := chi.URLParam(r, "planId")

	var req DeclineRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": "invalid JSON request body",
			})
			return
		}
	}

	h.svc.Decline(r.Context(), customerID, planID, req.Reason)
	writeJSON(w, http.StatusOK, map[string]string{
		"customerId": customerID,
		"planId":     planID,
		"status":     domain.StatusDeclined,
	})
}

// GetHistory returns a customer's interactions and derived state.
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customerId")

	entries, state, err := h.svc.History(r.Context(), customerID)
	if err != nil {
		writeError(w, err)
		return
	}
	if entries == nil {
		entries = []*domain.OutcomeLogEntry{}
	}
	if state == "" {
		state = "NEW"
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"customerId": customerID,
		"state":      state,
		"entries":    entries,
	})
}

// ScanAlerts alerts the highest-risk customers.
func (h *Handler) ScanAlerts(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": "limit must be a positive integer",
			})
			return
		}
		limit = n
	}

	result, err := h.svc.ScanAndAlert(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GetEngagement summarises the outcome log.
func (h *Handler) GetEngagement(w http.ResponseWriter, r *http.Request) {
	summary, err := h.svc.Engagement(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// GetWorklist returns customers ordered by priority score.
func (h *Handler) GetWorklist(w http.ResponseWriter, r *http.Request) {
	customers, err := h.repo.ListCustomers(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	worklist := risk.Worklist(customers)
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 && n < len(worklist) {
			worklist = worklist[:n]
		}
	}
	if worklist == nil {
		worklist = []domain.Priority{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"worklist": worklist,
		"count":    len(worklist),
	})
}

// GetPortfolio returns book-level KPIs.
func (h *Handler) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	customers, err := h.repo.ListCustomers(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, risk.Portfolio(customers))
}

// GetCutoff back-tests a PD cutoff against customers with a target label.
func (h *Handler) GetCutoff(w http.ResponseWriter, r *http.Request) {
	threshold, err := strconv.ParseFloat(r.URL.Query().Get("threshold"), 64)
	if err != nil || threshold < 0 || threshold > 1 {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "threshold must be a number between 0 and 1",
		})
		return
	}

	customers, err := h.repo.ListCustomers(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, risk.Cutoff(customers, threshold))
}

// writeError maps service errors onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, intervention.ErrMissingEmail):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, intervention.ErrCustomerNotFound), errors.Is(err, repository.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, repository.ErrInvalidInput):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		slog.Error("request failed", "error", err)
		writeJSON(w, status, map[string]string{
			"error": "internal server error",
		})
		return
	}

	writeJSON(w, status, map[string]string{
		"error": err.Error(),
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
