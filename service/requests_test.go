package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"magit/apperror"
	"magit/config"
	"magit/domain"
	"magit/repository"
)

type testStore struct {
	properties *repository.GormPropertyRepository
	financing  *repository.GormFinancingRequestRepository
	visits     *repository.GormVisitRepository
}

func newTestStore(t *testing.T) testStore {
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

	store := testStore{
		properties: repository.NewPropertyRepository(db),
		financing:  repository.NewFinancingRequestRepository(db),
		visits:     repository.NewVisitRepository(db),
	}

	props := []domain.Property{
		{ID: "halal", OwnerID: "owner-1", Title: "Halal apartment", Price: 100000, Bedrooms: 2,
			PropertyType: domain.TypeApartment, Status: domain.StatusApproved, IsHalalAvailable: true, HalalStatus: domain.HalalApproved},
		{ID: "plain", OwnerID: "owner-1", Title: "Plain house", Price: 150000, Bedrooms: 3,
			PropertyType: domain.TypeHouse, Status: domain.StatusActive},
		{ID: "queued", OwnerID: "owner-2", Title: "Queued studio", Price: 40000, Bedrooms: 1,
			PropertyType: domain.TypeStudio, Status: domain.StatusPending},
	}
	for i := range props {
		if err := store.properties.Create(context.Background(), &props[i]); err != nil {
			t.Fatalf("seed %s: %v", props[i].ID, err)
		}
	}
	return store
}

var (
	buyer  = domain.Principal{UserID: "buyer-1", Role: domain.RoleUser}
	owner  = domain.Principal{UserID: "owner-1", Role: domain.RoleUser}
	admin  = domain.Principal{UserID: "admin-1", Role: domain.RoleAdmin}
	nobody = domain.Principal{UserID: "buyer-2", Role: domain.RoleUser}
)

func TestFinancingService_CreateRequest(t *testing.T) {
	store := newTestStore(t)
	svc := NewFinancingService(store.financing, store.properties)

	view, err := svc.CreateRequest(context.Background(), buyer, domain.CreateFinancingRequestInput{
		PropertyID:    "halal",
		CashAvailable: 50000,
		PeriodMonths:  12,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if view.Status != domain.FinancingPending {
		t.Errorf("expected pending, got %s", view.Status)
	}
	if !almostEqual(view.TotalCost, 63440) || view.PropertyPrice != 100000 {
		t.Errorf("calculator result not stored: %+v", view.FinancingRequest)
	}
	if view.TotalCostFormatted != "$63,440" || view.MonthlyPaymentFormatted != "$5,287" {
		t.Errorf("unexpected formatting: %q %q", view.TotalCostFormatted, view.MonthlyPaymentFormatted)
	}
}

func TestFinancingService_CreateRequestRejected(t *testing.T) {
	store := newTestStore(t)
	svc := NewFinancingService(store.financing, store.properties)

	tests := []struct {
		name string
		in   domain.CreateFinancingRequestInput
		want *apperror.AppError
	}{
		{"below minimum down payment", domain.CreateFinancingRequestInput{PropertyID: "halal", CashAvailable: 49999, PeriodMonths: 12}, apperror.ErrValidation},
		{"cash covers price", domain.CreateFinancingRequestInput{PropertyID: "halal", CashAvailable: 100000, PeriodMonths: 12}, apperror.ErrValidation},
		{"unsupported period", domain.CreateFinancingRequestInput{PropertyID: "halal", CashAvailable: 60000, PeriodMonths: 7}, apperror.ErrValidation},
		{"no halal financing", domain.CreateFinancingRequestInput{PropertyID: "plain", CashAvailable: 90000, PeriodMonths: 12}, apperror.ErrBadRequest},
		{"not listed", domain.CreateFinancingRequestInput{PropertyID: "queued", CashAvailable: 30000, PeriodMonths: 12}, apperror.ErrNotFound},
		{"unknown property", domain.CreateFinancingRequestInput{PropertyID: "missing", CashAvailable: 30000, PeriodMonths: 12}, apperror.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateRequest(context.Background(), buyer, tt.in)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %s, got %v", tt.want.Code, err)
			}
		})
	}
}

func TestFinancingService_ListAndReview(t *testing.T) {
	store := newTestStore(t)
	svc := NewFinancingService(store.financing, store.properties)
	ctx := context.Background()

	created, err := svc.CreateRequest(ctx, buyer, domain.CreateFinancingRequestInput{PropertyID: "halal", CashAvailable: 70000, PeriodMonths: 6})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if mine, _ := svc.ListRequests(ctx, buyer, 0); len(mine) != 1 {
		t.Errorf("buyer should see one request, got %d", len(mine))
	}
	if others, _ := svc.ListRequests(ctx, nobody, 0); len(others) != 0 {
		t.Errorf("other users must not see the request, got %d", len(others))
	}
	if all, _ := svc.ListRequests(ctx, admin, 0); len(all) != 1 {
		t.Errorf("admin should see every request, got %d", len(all))
	}

	review := domain.ReviewFinancingRequestInput{Status: domain.FinancingApproved, Note: "documents verified"}
	if _, err := svc.ReviewRequest(ctx, buyer, created.ID, review); !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("expected forbidden for non-admin, got %v", err)
	}

	reviewed, err := svc.ReviewRequest(ctx, admin, created.ID, review)
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if reviewed.Status != domain.FinancingApproved || reviewed.ReviewedBy != "admin-1" || reviewed.ReviewNote != "documents verified" {
		t.Errorf("unexpected review result: %+v", reviewed.FinancingRequest)
	}

	if _, err := svc.ReviewRequest(ctx, admin, created.ID, review); !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("expected conflict on second review, got %v", err)
	}
	if _, err := svc.ReviewRequest(ctx, admin, created.ID, domain.ReviewFinancingRequestInput{Status: domain.FinancingPending}); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("expected validation error for pending status, got %v", err)
	}
}

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func TestVisitService(t *testing.T) {
	store := newTestStore(t)
	now := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	svc := NewVisitService(store.visits, store.properties, fixedClock{now: now})
	ctx := context.Background()

	if _, err := svc.Create(ctx, buyer, domain.CreateVisitInput{PropertyID: "halal", ScheduledAt: now.Add(10 * time.Minute)}); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("expected validation error for a visit too soon, got %v", err)
	}
	if _, err := svc.Create(ctx, buyer, domain.CreateVisitInput{PropertyID: "halal"}); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("expected validation error for missing time, got %v", err)
	}
	if _, err := svc.Create(ctx, owner, domain.CreateVisitInput{PropertyID: "halal", ScheduledAt: now.Add(24 * time.Hour)}); !errors.Is(err, apperror.ErrBadRequest) {
		t.Errorf("owners cannot visit their own listing, got %v", err)
	}
	if _, err := svc.Create(ctx, buyer, domain.CreateVisitInput{PropertyID: "queued", ScheduledAt: now.Add(24 * time.Hour)}); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("expected not found for unlisted property, got %v", err)
	}

	visit, err := svc.Create(ctx, buyer, domain.CreateVisitInput{PropertyID: "halal", ScheduledAt: now.Add(24 * time.Hour), Message: "after work"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if visit.OwnerID != "owner-1" || visit.Status != domain.VisitPending {
		t.Errorf("unexpected visit: %+v", visit)
	}

	for _, who := range []domain.Principal{buyer, owner} {
		if list, _ := svc.List(ctx, who, 0); len(list) != 1 {
			t.Errorf("%s should see the visit, got %d", who.UserID, len(list))
		}
	}

	answer := domain.UpdateVisitStatusInput{Status: domain.VisitConfirmed}
	if _, err := svc.UpdateStatus(ctx, buyer, visit.ID, answer); !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("requester cannot confirm, got %v", err)
	}
	updated, err := svc.UpdateStatus(ctx, owner, visit.ID, answer)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if updated.Status != domain.VisitConfirmed {
		t.Errorf("expected confirmed, got %s", updated.Status)
	}
	if _, err := svc.UpdateStatus(ctx, owner, visit.ID, domain.UpdateVisitStatusInput{Status: domain.VisitDeclined}); !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("expected conflict, got %v", err)
	}
}

func TestModerationService(t *testing.T) {
	store := newTestStore(t)
	svc := NewModerationService(store.properties)
	ctx := context.Background()

	pending, err := svc.ListPending(ctx, 10)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != "queued" {
		t.Fatalf("expected only 'queued', got %+v", pending)
	}

	approved, err := svc.Moderate(ctx, "queued", domain.ModerationInput{Status: domain.StatusApproved})
	if err != nil {
		t.Fatalf("moderate: %v", err)
	}
	if !approved.Status.IsListed() {
		t.Errorf("expected listed status, got %s", approved.Status)
	}

	if _, err := svc.Moderate(ctx, "queued", domain.ModerationInput{Status: domain.StatusSold}); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
	if _, err := svc.Moderate(ctx, "missing", domain.ModerationInput{Status: domain.StatusRejected}); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}

	halal, err := svc.ReviewHalal(ctx, "plain", domain.HalalReviewInput{Status: domain.HalalApproved})
	if err != nil {
		t.Fatalf("review halal: %v", err)
	}
	if !halal.HasHalalFinancing() {
		t.Errorf("expected halal financing to be available")
	}
}
