package http

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"magit/config"
	"magit/domain"
	"magit/repository"
	"magit/service"
)

type testServer struct {
	handler http.Handler
	auth    *Authenticator
}

func newTestServer(t *testing.T, searchCapacity int) testServer {
	t.Helper()

	db, err := repository.Open(config.DatabaseConfig{
		SQLitePath:   ":memory:",
		AutoMigrate:  true,
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	properties := repository.NewPropertyRepository(db)
	seed := []domain.Property{
		{ID: "p1", OwnerID: "owner-1", Title: "Квартира у метро", Description: "Светлая   квартира\nрядом с парком",
			Price: 85000, Bedrooms: 2, PropertyType: domain.TypeApartment, District: "Yunusabad",
			Status: domain.StatusActive, IsHalalAvailable: true, HalalStatus: domain.HalalApproved,
			ImageURLs: []string{"https://cdn.magit.test/p1.jpg"}},
		{ID: "p2", OwnerID: "owner-2", Title: "Дом с садом", Price: 55000, Bedrooms: 4,
			PropertyType: domain.TypeHouse, District: "Sergeli", Status: domain.StatusApproved},
		{ID: "p3", OwnerID: "owner-2", Title: "На модерации", Price: 30000, Bedrooms: 1,
			PropertyType: domain.TypeStudio, Status: domain.StatusPending},
	}
	for i := range seed {
		if err := properties.Create(context.Background(), &seed[i]); err != nil {
			t.Fatalf("seed %s: %v", seed[i].ID, err)
		}
	}

	cache := repository.NewMemoryCache(100, time.Minute, repository.SystemClock{})
	ai := service.NewAIService(config.LLMConfig{})

	limiter := NewRateLimiter(searchCapacity, time.Minute, nil)
	t.Cleanup(limiter.Stop)

	auth := NewAuthenticator("test-secret")

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}

	handler := NewRouter(Handlers{
		Financing: NewFinancingHandler(service.NewFinancingService(repository.NewFinancingRequestRepository(db), properties)),
		Search: NewSearchHandler(service.NewSearchService(
			service.NewRuleFilterParser(), properties, cache, ai,
			config.CacheConfig{FilterTTL: time.Minute},
		)),
		Visits: NewVisitHandler(service.NewVisitService(repository.NewVisitRepository(db), properties, repository.SystemClock{})),
		Admin: NewAdminHandler(
			service.NewModerationService(properties),
			service.NewDistrictBackfillService(properties, nil, 0),
		),
		OG:            NewOGHandler(properties, "https://magit.test/"),
		Health:        NewHealthHandler(map[string]HealthCheck{"database": sqlDB.PingContext}),
		Auth:          auth,
		SearchLimiter: limiter,
	})

	return testServer{handler: handler, auth: auth}
}

func (s testServer) token(t *testing.T, userID string, role domain.Role) string {
	t.Helper()
	token, err := s.auth.IssueToken(userID, role, time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}

func (s testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		if err := json.NewEncoder(&buf).Encode(b); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return v
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[errorResponse](t, w).Error.Code
}

func TestCalculateHandler_OK(t *testing.T) {
	srv := newTestServer(t, 10)

	w := srv.do(t, http.MethodPost, "/financing/calculate", "",
		`{"cashAvailable": 50000, "propertyPrice": 100000, "periodMonths": 12}`)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	result := decode[domain.FinancingResult](t, w)
	if math.Abs(result.TotalCost-63440) > 1e-6 || result.FinancingAmount != 50000 {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestCalculateHandler_DegenerateInput(t *testing.T) {
	srv := newTestServer(t, 10)

	w := srv.do(t, http.MethodPost, "/financing/calculate", "",
		`{"cashAvailable": 200000, "propertyPrice": 100000, "periodMonths": 0}`)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if result := decode[domain.FinancingResult](t, w); !result.IsZero() {
		t.Errorf("expected zero result, got %+v", result)
	}
}

func TestCalculateHandler_PeriodAsAnyNumber(t *testing.T) {
	srv := newTestServer(t, 10)

	tests := []struct {
		period    string
		wantTotal float64
	}{
		{"12.0", 63440},
		{"1.2e1", 63440},
		{"12.5", 0},
		{"1e12", 0},
		{"-12", 0},
	}

	for _, tt := range tests {
		t.Run(tt.period, func(t *testing.T) {
			body := `{"cashAvailable": 50000, "propertyPrice": 100000, "periodMonths": ` + tt.period + `}`
			w := srv.do(t, http.MethodPost, "/financing/calculate", "", body)

			if w.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
			}
			result := decode[domain.FinancingResult](t, w)
			if math.Abs(result.TotalCost-tt.wantTotal) > 1e-6 {
				t.Errorf("expected total %v, got %+v", tt.wantTotal, result)
			}
		})
	}
}

func TestCalculateHandler_BadRequest(t *testing.T) {
	srv := newTestServer(t, 10)

	w := srv.do(t, http.MethodPost, "/financing/calculate", "", `{invalid-json}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if code := errorCode(t, w); code != "BAD_REQUEST" {
		t.Errorf("expected BAD_REQUEST, got %s", code)
	}
}

func TestCalculateHandler_MethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, 10)

	w := srv.do(t, http.MethodGet, "/financing/calculate", "", nil)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", w.Code)
	}
}

func TestPeriodsAndPlans(t *testing.T) {
	srv := newTestServer(t, 10)

	w := srv.do(t, http.MethodGet, "/financing/periods", "", nil)
	if periods := decode[[]domain.PeriodOption](t, w); len(periods) != 5 || periods[0].Value != 6 || periods[4].Value != 24 {
		t.Errorf("unexpected periods: %+v", periods)
	}

	w = srv.do(t, http.MethodPost, "/financing/plans", "",
		map[string]float64{"cashAvailable": 50000, "propertyPrice": 100000, "maxMonthlyPayment": 6000})
	plans := decode[domain.FinancingPlansResult](t, w)
	if !plans.Offerable || plans.RecommendedPeriod != 12 || len(plans.Plans) != 5 {
		t.Errorf("unexpected plans: %+v", plans)
	}
}

func TestCORSHeaders(t *testing.T) {
	srv := newTestServer(t, 10)

	req := httptest.NewRequest(http.MethodOptions, "/search", nil)
	req.Header.Set("Origin", "https://app.magit.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Content-Type, Authorization")
	w := httptest.NewRecorder()
	srv.handler.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("expected permissive origin on preflight, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/financing/periods", nil)
	req.Header.Set("Origin", "https://app.magit.test")
	w = httptest.NewRecorder()
	srv.handler.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("expected permissive origin, got %q", got)
	}
}

func TestSearchHandler(t *testing.T) {
	srv := newTestServer(t, 10)

	w := srv.do(t, http.MethodPost, "/search", "", domain.SearchRequest{Query: "квартира до 90000"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	strict := decode[domain.SearchResult](t, w)
	if strict.Mode != domain.ModeStrict || len(strict.Properties) != 1 || strict.Properties[0].ID != "p1" {
		t.Errorf("unexpected strict result: %+v", strict)
	}
	if strict.Suggestion == "" {
		t.Errorf("expected a fallback suggestion")
	}

	w = srv.do(t, http.MethodPost, "/search", "", domain.SearchRequest{Query: "дом до 50000"})
	relaxed := decode[domain.SearchResult](t, w)
	if relaxed.Mode != domain.ModeRelaxed {
		t.Fatalf("expected relaxed mode, got %s", relaxed.Mode)
	}
	if len(relaxed.Properties) != 1 || relaxed.Properties[0].ID != "p2" {
		t.Fatalf("unexpected relaxed result: %+v", relaxed.Properties)
	}
	if s := relaxed.Properties[0].Score; s == nil || *s != 10 {
		t.Errorf("expected score 10, got %v", s)
	}

	w = srv.do(t, http.MethodPost, "/search", "", domain.SearchRequest{Query: "  "})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for blank query, got %d", w.Code)
	}
}

func TestSearchHandler_RateLimited(t *testing.T) {
	srv := newTestServer(t, 1)

	if w := srv.do(t, http.MethodPost, "/search", "", domain.SearchRequest{Query: "дом"}); w.Code != http.StatusOK {
		t.Fatalf("expected first search to pass, got %d", w.Code)
	}

	w := srv.do(t, http.MethodPost, "/search", "", domain.SearchRequest{Query: "дом"})
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Errorf("expected Retry-After header")
	}
	if code := errorCode(t, w); code != "RATE_LIMITED" {
		t.Errorf("expected RATE_LIMITED, got %s", code)
	}
}

func TestFinancingRequests(t *testing.T) {
	srv := newTestServer(t, 10)
	buyer := srv.token(t, "buyer-1", domain.RoleUser)
	admin := srv.token(t, "admin-1", domain.RoleAdmin)

	input := domain.CreateFinancingRequestInput{PropertyID: "p1", CashAvailable: 50000, PeriodMonths: 12}

	if w := srv.do(t, http.MethodPost, "/financing/requests", "", input); w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", w.Code)
	}
	if w := srv.do(t, http.MethodPost, "/financing/requests", "not-a-jwt", input); w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for garbage token, got %d", w.Code)
	}

	w := srv.do(t, http.MethodPost, "/financing/requests", buyer, input)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	created := decode[domain.FinancingRequestView](t, w)
	if created.UserID != "buyer-1" || created.TotalCostFormatted == "" {
		t.Errorf("unexpected request: %+v", created)
	}

	w = srv.do(t, http.MethodPost, "/financing/requests", buyer,
		domain.CreateFinancingRequestInput{PropertyID: "p1", CashAvailable: 1000, PeriodMonths: 12})
	if w.Code != http.StatusBadRequest || errorCode(t, w) != "VALIDATION_ERROR" {
		t.Errorf("expected validation error below minimum down payment, got %d %s", w.Code, w.Body.String())
	}

	w = srv.do(t, http.MethodGet, "/financing/requests", buyer, nil)
	if list := decode[[]domain.FinancingRequestView](t, w); len(list) != 1 {
		t.Errorf("expected one request, got %d", len(list))
	}

	review := domain.ReviewFinancingRequestInput{Status: domain.FinancingApproved}
	path := "/admin/financing/requests/" + created.ID
	if w := srv.do(t, http.MethodPatch, path, buyer, review); w.Code != http.StatusForbidden {
		t.Errorf("expected 403 for non-admin, got %d", w.Code)
	}

	w = srv.do(t, http.MethodPatch, path, admin, review)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if reviewed := decode[domain.FinancingRequestView](t, w); reviewed.Status != domain.FinancingApproved {
		t.Errorf("expected approved, got %s", reviewed.Status)
	}
}

func TestVisits(t *testing.T) {
	srv := newTestServer(t, 10)
	buyer := srv.token(t, "buyer-1", domain.RoleUser)
	owner := srv.token(t, "owner-1", domain.RoleUser)

	w := srv.do(t, http.MethodPost, "/visits", buyer, domain.CreateVisitInput{
		PropertyID:  "p1",
		ScheduledAt: time.Now().Add(48 * time.Hour),
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	visit := decode[domain.VisitRequest](t, w)

	w = srv.do(t, http.MethodGet, "/visits", owner, nil)
	if list := decode[[]domain.VisitRequest](t, w); len(list) != 1 {
		t.Errorf("owner should see the visit, got %d", len(list))
	}

	w = srv.do(t, http.MethodPatch, "/visits/"+visit.ID, owner, domain.UpdateVisitStatusInput{Status: domain.VisitConfirmed})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if updated := decode[domain.VisitRequest](t, w); updated.Status != domain.VisitConfirmed {
		t.Errorf("expected confirmed, got %s", updated.Status)
	}
}

func TestAdminModeration(t *testing.T) {
	srv := newTestServer(t, 10)
	admin := srv.token(t, "admin-1", domain.RoleAdmin)

	w := srv.do(t, http.MethodGet, "/admin/properties/pending", admin, nil)
	if pending := decode[[]domain.Property](t, w); len(pending) != 1 || pending[0].ID != "p3" {
		t.Fatalf("unexpected pending list: %s", w.Body.String())
	}

	w = srv.do(t, http.MethodPost, "/admin/properties/p3/moderate", admin, domain.ModerationInput{Status: domain.StatusRejected, Reason: "duplicate"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if p := decode[domain.Property](t, w); p.Status != domain.StatusRejected || p.ModerationReason != "duplicate" {
		t.Errorf("unexpected property: %+v", p)
	}

	w = srv.do(t, http.MethodPost, "/admin/properties/p2/halal", admin, domain.HalalReviewInput{Status: domain.HalalApproved})
	if p := decode[domain.Property](t, w); !p.HasHalalFinancing() {
		t.Errorf("expected halal financing on p2")
	}

	w = srv.do(t, http.MethodPost, "/admin/properties/nope/moderate", admin, domain.ModerationInput{Status: domain.StatusApproved})
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestBackfillNotConfigured(t *testing.T) {
	srv := newTestServer(t, 10)
	admin := srv.token(t, "admin-1", domain.RoleAdmin)

	w := srv.do(t, http.MethodPost, "/admin/districts/backfill?limit=5", admin, nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if code := errorCode(t, w); code != "NOT_CONFIGURED" {
		t.Errorf("expected NOT_CONFIGURED, got %s", code)
	}

	w = srv.do(t, http.MethodPost, "/admin/districts/backfill?limit=abc", admin, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad limit, got %d", w.Code)
	}
}

func TestOGHandler(t *testing.T) {
	srv := newTestServer(t, 10)

	w := srv.do(t, http.MethodGet, "/og/properties/p1", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("expected html, got %q", ct)
	}
	body := w.Body.String()
	for _, want := range []string{
		`property="og:title"`,
		"$85,000",
		"Светлая квартира рядом с парком",
		"https://cdn.magit.test/p1.jpg",
		"https://magit.test/properties/p1",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("page is missing %q", want)
		}
	}

	for _, id := range []string{"missing", "p3"} {
		if w := srv.do(t, http.MethodGet, "/og/properties/"+id, "", nil); w.Code != http.StatusNotFound {
			t.Errorf("%s: expected 404, got %d", id, w.Code)
		}
	}
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, 10)

	w := srv.do(t, http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := decode[map[string]any](t, w)
	if body["status"] != "ok" {
		t.Errorf("unexpected health body: %v", body)
	}
}
