package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"magit/apperror"
	"magit/domain"
	"magit/service"
)

type FinancingHandler struct {
	service *service.FinancingService
}

func NewFinancingHandler(service *service.FinancingService) *FinancingHandler {
	return &FinancingHandler{service: service}
}

// Calculate answers 200 for any well-typed input; degenerate input yields the
// all-zero result.
func (h *FinancingHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	var input domain.FinancingInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeError(w, r, err)
		return
	}

	result := service.CalculateHalalFinancing(input.CashAvailable, input.PropertyPrice, service.WholeMonths(input.PeriodMonths))
	writeJSON(w, http.StatusOK, result)
}

func (h *FinancingHandler) Periods(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, service.PeriodOptions())
}

type plansRequest struct {
	CashAvailable     float64 `json:"cashAvailable"`
	PropertyPrice     float64 `json:"propertyPrice"`
	MaxMonthlyPayment float64 `json:"maxMonthlyPayment"`
}

func (h *FinancingHandler) Plans(w http.ResponseWriter, r *http.Request) {
	var input plansRequest
	if err := decodeJSON(w, r, &input); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, service.FinancingPlans(input.CashAvailable, input.PropertyPrice, input.MaxMonthlyPayment))
}

func (h *FinancingHandler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	user, _ := PrincipalFrom(r.Context())

	var input domain.CreateFinancingRequestInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeError(w, r, err)
		return
	}

	view, err := h.service.CreateRequest(r.Context(), user, input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (h *FinancingHandler) ListRequests(w http.ResponseWriter, r *http.Request) {
	user, _ := PrincipalFrom(r.Context())

	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, r, err)
		return
	}

	views, err := h.service.ListRequests(r.Context(), user, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *FinancingHandler) ReviewRequest(w http.ResponseWriter, r *http.Request) {
	user, _ := PrincipalFrom(r.Context())

	var input domain.ReviewFinancingRequestInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeError(w, r, err)
		return
	}

	view, err := h.service.ReviewRequest(r.Context(), user, chi.URLParam(r, "id"), input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// queryInt reads an optional non-negative integer query parameter; absent
// means 0.
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, apperror.ErrBadRequest.WithMessage(name + " must be a non-negative integer")
	}
	return v, nil
}
