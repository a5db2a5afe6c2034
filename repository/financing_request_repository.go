package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"magit/apperror"
	"magit/domain"
)

type FinancingRequestRepository interface {
	Create(ctx context.Context, req *domain.FinancingRequest) error
	GetByID(ctx context.Context, id string) (*domain.FinancingRequest, error)
	// List returns requests of userID, or every request when userID is empty.
	List(ctx context.Context, userID string, limit int) ([]domain.FinancingRequest, error)
	UpdateStatus(ctx context.Context, id string, status domain.FinancingRequestStatus, note, reviewer string) error
}

type GormFinancingRequestRepository struct {
	DB *gorm.DB
}

func NewFinancingRequestRepository(db *gorm.DB) *GormFinancingRequestRepository {
	return &GormFinancingRequestRepository{DB: db}
}

func (r *GormFinancingRequestRepository) Create(ctx context.Context, req *domain.FinancingRequest) error {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.Status == "" {
		req.Status = domain.FinancingPending
	}
	if err := r.DB.WithContext(ctx).Create(req).Error; err != nil {
		return apperror.ErrDatabase.WithError(err)
	}
	return nil
}

func (r *GormFinancingRequestRepository) GetByID(ctx context.Context, id string) (*domain.FinancingRequest, error) {
	var req domain.FinancingRequest
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&req).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NewNotFound("financing request")
		}
		return nil, apperror.ErrDatabase.WithError(err)
	}
	return &req, nil
}

func (r *GormFinancingRequestRepository) List(ctx context.Context, userID string, limit int) ([]domain.FinancingRequest, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	q := r.DB.WithContext(ctx).Model(&domain.FinancingRequest{})
	if userID != "" {
		q = q.Where("user_id = ?", userID)
	}
	var items []domain.FinancingRequest
	if err := q.Order("created_at DESC").Limit(limit).Find(&items).Error; err != nil {
		return nil, apperror.ErrDatabase.WithError(err)
	}
	return items, nil
}

func (r *GormFinancingRequestRepository) UpdateStatus(ctx context.Context, id string, status domain.FinancingRequestStatus, note, reviewer string) error {
	res := r.DB.WithContext(ctx).
		Model(&domain.FinancingRequest{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":      status,
			"review_note": note,
			"reviewed_by": reviewer,
		})
	if res.Error != nil {
		return apperror.ErrDatabase.WithError(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperror.NewNotFound("financing request")
	}
	return nil
}
