package service

import (
	"context"

	"magit/apperror"
	"magit/domain"
	"magit/logger"
	"magit/repository"
)

type VisitService struct {
	visits     repository.VisitRepository
	properties PropertyReader
	clock      repository.Clock
}

func NewVisitService(visits repository.VisitRepository, properties PropertyReader, clock repository.Clock) *VisitService {
	return &VisitService{
		visits:     visits,
		properties: properties,
		clock:      clock,
	}
}

// Create asks the owner of a listed property for a viewing.
func (s *VisitService) Create(ctx context.Context, user domain.Principal, in domain.CreateVisitInput) (*domain.VisitRequest, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if in.ScheduledAt.IsZero() {
		return nil, apperror.ErrValidation.WithMessage("scheduledAt is required")
	}
	if in.ScheduledAt.Before(s.clock.Now().Add(minVisitLeadTime)) {
		return nil, apperror.ErrValidation.WithMessage("visit must be scheduled at least 30 minutes ahead")
	}

	property, err := s.properties.GetByID(ctx, in.PropertyID)
	if err != nil {
		return nil, err
	}
	if !property.Status.IsListed() {
		return nil, apperror.NewNotFound("property")
	}
	if property.OwnerID == user.UserID {
		return nil, apperror.ErrBadRequest.WithMessage("cannot request a visit to your own property")
	}

	visit := &domain.VisitRequest{
		PropertyID:  property.ID,
		RequesterID: user.UserID,
		OwnerID:     property.OwnerID,
		ScheduledAt: in.ScheduledAt.UTC(),
		Message:     in.Message,
		Status:      domain.VisitPending,
	}
	if err := s.visits.Create(ctx, visit); err != nil {
		return nil, err
	}

	logger.Info().
		Str("visit_id", visit.ID).
		Str("property_id", visit.PropertyID).
		Time("scheduled_at", visit.ScheduledAt).
		Msg("visit requested")

	return visit, nil
}

func (s *VisitService) List(ctx context.Context, user domain.Principal, limit int) ([]domain.VisitRequest, error) {
	return s.visits.ListForUser(ctx, user.UserID, limit)
}

// UpdateStatus lets the property owner confirm or decline a pending visit.
func (s *VisitService) UpdateStatus(ctx context.Context, user domain.Principal, id string, in domain.UpdateVisitStatusInput) (*domain.VisitRequest, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	visit, err := s.visits.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if visit.OwnerID != user.UserID {
		return nil, apperror.ErrForbidden.WithMessage("only the property owner can answer a visit request")
	}
	if visit.Status != domain.VisitPending {
		return nil, apperror.ErrConflict.WithMessage("visit request has already been answered")
	}

	if err := s.visits.UpdateStatus(ctx, id, in.Status); err != nil {
		return nil, err
	}
	visit.Status = in.Status
	return visit, nil
}
