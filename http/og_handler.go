package http

import (
	"errors"
	"html/template"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"

	"magit/apperror"
	"magit/domain"
	"magit/logger"
	"magit/service"
)

const ogDescriptionLength = 160

var ogTemplate = template.Must(template.New("og").Parse(`<!DOCTYPE html>
<html lang="ru">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<meta name="description" content="{{.Description}}">
<meta property="og:type" content="website">
<meta property="og:site_name" content="Magit">
<meta property="og:title" content="{{.Title}}">
<meta property="og:description" content="{{.Description}}">
<meta property="og:image" content="{{.Image}}">
<meta property="og:url" content="{{.URL}}">
<meta name="twitter:card" content="summary_large_image">
<meta http-equiv="refresh" content="0; url={{.URL}}">
<link rel="canonical" href="{{.URL}}">
</head>
<body>
<p><a href="{{.URL}}">{{.Title}}</a></p>
</body>
</html>
`))

type ogPage struct {
	Title       string
	Description string
	Image       string
	URL         string
}

// OGHandler renders link-preview pages for crawlers that do not run the SPA.
type OGHandler struct {
	properties service.PropertyReader
	siteURL    string
}

func NewOGHandler(properties service.PropertyReader, siteURL string) *OGHandler {
	return &OGHandler{
		properties: properties,
		siteURL:    strings.TrimRight(siteURL, "/"),
	}
}

func (h *OGHandler) Property(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	property, err := h.properties.GetByID(r.Context(), id)
	if err == nil && !property.Status.IsListed() {
		err = apperror.NewNotFound("property")
	}
	if err != nil {
		status := apperror.FromError(err).StatusCode
		if !errors.Is(err, apperror.ErrNotFound) {
			logger.Error().Err(err).Str("property_id", id).Msg("og page failed")
		}
		http.Error(w, http.StatusText(status), status)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=300")
	if err := ogTemplate.Execute(w, h.pageFor(property)); err != nil {
		logger.Error().Err(err).Str("property_id", id).Msg("og template failed")
	}
}

func (h *OGHandler) pageFor(p *domain.Property) ogPage {
	title := p.Title + " · " + service.FormatCurrency(p.Price)
	if p.District != "" {
		title += " · " + p.District
	}

	image := h.siteURL + "/og-default.png"
	if len(p.ImageURLs) > 0 && p.ImageURLs[0] != "" {
		image = p.ImageURLs[0]
	}

	return ogPage{
		Title:       title,
		Description: truncate(strings.Join(strings.Fields(p.Description), " "), ogDescriptionLength),
		Image:       image,
		URL:         h.siteURL + "/properties/" + p.ID,
	}
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:n-1])) + "…"
}
