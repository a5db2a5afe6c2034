package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"magit/apperror"
	"magit/domain"
	"magit/service"
)

// AdminHandler serves listing moderation and maintenance jobs.
type AdminHandler struct {
	moderation *service.ModerationService
	backfill   *service.DistrictBackfillService
}

func NewAdminHandler(moderation *service.ModerationService, backfill *service.DistrictBackfillService) *AdminHandler {
	return &AdminHandler{
		moderation: moderation,
		backfill:   backfill,
	}
}

func (h *AdminHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, r, err)
		return
	}

	props, err := h.moderation.ListPending(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, props)
}

func (h *AdminHandler) Moderate(w http.ResponseWriter, r *http.Request) {
	var input domain.ModerationInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeError(w, r, err)
		return
	}

	property, err := h.moderation.Moderate(r.Context(), chi.URLParam(r, "id"), input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, property)
}

func (h *AdminHandler) ReviewHalal(w http.ResponseWriter, r *http.Request) {
	var input domain.HalalReviewInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeError(w, r, err)
		return
	}

	property, err := h.moderation.ReviewHalal(r.Context(), chi.URLParam(r, "id"), input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, property)
}

// BackfillDistricts runs one synchronous backfill batch of ?limit= properties.
func (h *AdminHandler) BackfillDistricts(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, r, err)
		return
	}

	// A full batch can run longer than the server write timeout.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	report, err := h.backfill.Run(r.Context(), limit)
	if err != nil {
		if report != nil {
			// Cancelled mid-batch: the processed part is already saved.
			err = apperror.FromError(err).WithDetails(map[string]any{"report": report})
		}
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
