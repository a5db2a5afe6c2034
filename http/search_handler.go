package http

import (
	"errors"
	"net/http"

	"magit/apperror"
	"magit/domain"
	"magit/service"
)

type SearchHandler struct {
	service *service.SearchService
}

func NewSearchHandler(service *service.SearchService) *SearchHandler {
	return &SearchHandler{service: service}
}

func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req domain.SearchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	result, err := h.service.Search(r.Context(), req)
	if err != nil {
		var searchErr *service.SearchError
		if errors.As(err, &searchErr) {
			err = apperror.ErrUpstream.
				WithMessage("property search is temporarily unavailable").
				WithDetails(map[string]any{"stage": searchErr.Stage}).
				WithError(err)
		}
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
