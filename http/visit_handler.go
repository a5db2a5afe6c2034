package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"magit/domain"
	"magit/service"
)

type VisitHandler struct {
	service *service.VisitService
}

func NewVisitHandler(service *service.VisitService) *VisitHandler {
	return &VisitHandler{service: service}
}

func (h *VisitHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, _ := PrincipalFrom(r.Context())

	var input domain.CreateVisitInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeError(w, r, err)
		return
	}

	visit, err := h.service.Create(r.Context(), user, input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, visit)
}

func (h *VisitHandler) List(w http.ResponseWriter, r *http.Request) {
	user, _ := PrincipalFrom(r.Context())

	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, r, err)
		return
	}

	visits, err := h.service.List(r.Context(), user, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, visits)
}

func (h *VisitHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	user, _ := PrincipalFrom(r.Context())

	var input domain.UpdateVisitStatusInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeError(w, r, err)
		return
	}

	visit, err := h.service.UpdateStatus(r.Context(), user, chi.URLParam(r, "id"), input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, visit)
}
