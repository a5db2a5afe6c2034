package service

import (
	"context"
	"fmt"

	"magit/apperror"
	"magit/domain"
	"magit/logger"
	"magit/repository"
)

// PropertyReader loads a single listing.
type PropertyReader interface {
	GetByID(ctx context.Context, id string) (*domain.Property, error)
}

type FinancingService struct {
	requests   repository.FinancingRequestRepository
	properties PropertyReader
}

func NewFinancingService(requests repository.FinancingRequestRepository, properties PropertyReader) *FinancingService {
	return &FinancingService{
		requests:   requests,
		properties: properties,
	}
}

// CreateRequest files a financing application for a listing that offers
// halal financing. The buyer must bring at least the minimum down payment.
func (s *FinancingService) CreateRequest(ctx context.Context, user domain.Principal, in domain.CreateFinancingRequestInput) (*domain.FinancingRequestView, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	property, err := s.properties.GetByID(ctx, in.PropertyID)
	if err != nil {
		return nil, err
	}
	if !property.Status.IsListed() {
		return nil, apperror.NewNotFound("property")
	}
	if !property.HasHalalFinancing() {
		return nil, apperror.ErrBadRequest.WithMessage("halal financing is not available for this property")
	}

	if in.CashAvailable >= property.Price {
		return nil, apperror.ErrValidation.WithMessage("available cash already covers the price")
	}
	if !IsOfferable(in.CashAvailable, property.Price) {
		minimum := MinDownPaymentRatio * property.Price
		return nil, apperror.ErrValidation.
			WithMessage(fmt.Sprintf("a down payment of at least %s is required", FormatCurrency(minimum))).
			WithDetails(map[string]any{"minimumDownPayment": minimum})
	}

	calc := CalculateHalalFinancing(in.CashAvailable, property.Price, in.PeriodMonths)

	req := &domain.FinancingRequest{
		UserID:                 user.UserID,
		PropertyID:             property.ID,
		CashAvailable:          in.CashAvailable,
		PropertyPrice:          property.Price,
		PeriodMonths:           in.PeriodMonths,
		FinancingAmount:        calc.FinancingAmount,
		TotalCost:              calc.TotalCost,
		RequiredMonthlyPayment: calc.RequiredMonthlyPayment,
		Status:                 domain.FinancingPending,
	}
	if err := s.requests.Create(ctx, req); err != nil {
		return nil, err
	}

	logger.Info().
		Str("request_id", req.ID).
		Str("property_id", req.PropertyID).
		Str("user_id", req.UserID).
		Int("period_months", req.PeriodMonths).
		Msg("financing request created")

	return viewOf(*req), nil
}

// ListRequests returns the caller's requests; administrators see all of them.
func (s *FinancingService) ListRequests(ctx context.Context, user domain.Principal, limit int) ([]domain.FinancingRequestView, error) {
	if limit <= 0 || limit > MaxFinancingRequestsPerPage {
		limit = MaxFinancingRequestsPerPage
	}

	userID := user.UserID
	if user.IsAdmin() {
		userID = ""
	}

	requests, err := s.requests.List(ctx, userID, limit)
	if err != nil {
		return nil, err
	}

	views := make([]domain.FinancingRequestView, len(requests))
	for i, r := range requests {
		views[i] = *viewOf(r)
	}
	return views, nil
}

// ReviewRequest approves or rejects a pending request.
func (s *FinancingService) ReviewRequest(ctx context.Context, reviewer domain.Principal, id string, in domain.ReviewFinancingRequestInput) (*domain.FinancingRequestView, error) {
	if !reviewer.IsAdmin() {
		return nil, apperror.ErrForbidden
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}

	current, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status != domain.FinancingPending {
		return nil, apperror.ErrConflict.WithMessage("financing request has already been reviewed")
	}

	if err := s.requests.UpdateStatus(ctx, id, in.Status, in.Note, reviewer.UserID); err != nil {
		return nil, err
	}

	logger.Info().
		Str("request_id", id).
		Str("status", string(in.Status)).
		Str("reviewer", reviewer.UserID).
		Msg("financing request reviewed")

	updated, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return viewOf(*updated), nil
}

func viewOf(r domain.FinancingRequest) *domain.FinancingRequestView {
	return &domain.FinancingRequestView{
		FinancingRequest:        r,
		TotalCostFormatted:      FormatCurrency(r.TotalCost),
		MonthlyPaymentFormatted: FormatCurrency(r.RequiredMonthlyPayment),
	}
}
