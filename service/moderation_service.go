package service

import (
	"context"

	"magit/domain"
	"magit/logger"
	"magit/repository"
)

type ModerationService struct {
	properties repository.PropertyRepository
}

func NewModerationService(properties repository.PropertyRepository) *ModerationService {
	return &ModerationService{properties: properties}
}

// ListPending returns listings waiting for review, oldest first.
func (s *ModerationService) ListPending(ctx context.Context, limit int) ([]domain.Property, error) {
	return s.properties.ListByStatus(ctx, domain.StatusPending, limit)
}

func (s *ModerationService) Moderate(ctx context.Context, id string, in domain.ModerationInput) (*domain.Property, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if err := s.properties.UpdateModeration(ctx, id, in.Status, in.Reason); err != nil {
		return nil, err
	}
	logger.Info().Str("property_id", id).Str("status", string(in.Status)).Msg("property moderated")
	return s.properties.GetByID(ctx, id)
}

// ReviewHalal sets whether the listing may be bought with halal financing.
func (s *ModerationService) ReviewHalal(ctx context.Context, id string, in domain.HalalReviewInput) (*domain.Property, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if err := s.properties.UpdateHalalStatus(ctx, id, in.Status); err != nil {
		return nil, err
	}
	logger.Info().Str("property_id", id).Str("halal_status", string(in.Status)).Msg("halal financing reviewed")
	return s.properties.GetByID(ctx, id)
}
