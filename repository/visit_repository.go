package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"magit/apperror"
	"magit/domain"
)

type VisitRepository interface {
	Create(ctx context.Context, v *domain.VisitRequest) error
	GetByID(ctx context.Context, id string) (*domain.VisitRequest, error)
	// ListForUser returns visits the user asked for or must host.
	ListForUser(ctx context.Context, userID string, limit int) ([]domain.VisitRequest, error)
	UpdateStatus(ctx context.Context, id string, status domain.VisitStatus) error
}

type GormVisitRepository struct {
	DB *gorm.DB
}

func NewVisitRepository(db *gorm.DB) *GormVisitRepository {
	return &GormVisitRepository{DB: db}
}

func (r *GormVisitRepository) Create(ctx context.Context, v *domain.VisitRequest) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	if v.Status == "" {
		v.Status = domain.VisitPending
	}
	if err := r.DB.WithContext(ctx).Create(v).Error; err != nil {
		return apperror.ErrDatabase.WithError(err)
	}
	return nil
}

func (r *GormVisitRepository) GetByID(ctx context.Context, id string) (*domain.VisitRequest, error) {
	var v domain.VisitRequest
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&v).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NewNotFound("visit request")
		}
		return nil, apperror.ErrDatabase.WithError(err)
	}
	return &v, nil
}

func (r *GormVisitRepository) ListForUser(ctx context.Context, userID string, limit int) ([]domain.VisitRequest, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	var items []domain.VisitRequest
	err := r.DB.WithContext(ctx).
		Where("requester_id = ? OR owner_id = ?", userID, userID).
		Order("scheduled_at ASC").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, apperror.ErrDatabase.WithError(err)
	}
	return items, nil
}

func (r *GormVisitRepository) UpdateStatus(ctx context.Context, id string, status domain.VisitStatus) error {
	res := r.DB.WithContext(ctx).
		Model(&domain.VisitRequest{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return apperror.ErrDatabase.WithError(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperror.NewNotFound("visit request")
	}
	return nil
}
