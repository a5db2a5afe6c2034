package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"magit/apperror"
	"magit/domain"
)

const defaultPageSize = 20

type PropertyRepository interface {
	Search(ctx context.Context, filter domain.SearchFilter, limit int) ([]domain.Property, error)
	GetByID(ctx context.Context, id string) (*domain.Property, error)
	Create(ctx context.Context, p *domain.Property) error
	ListByStatus(ctx context.Context, status domain.PropertyStatus, limit int) ([]domain.Property, error)
	UpdateModeration(ctx context.Context, id string, status domain.PropertyStatus, reason string) error
	UpdateHalalStatus(ctx context.Context, id string, status domain.HalalStatus) error
	ListMissingDistrict(ctx context.Context, limit int) ([]domain.Property, error)
	UpdateDistrict(ctx context.Context, id string, district string) error
}

type GormPropertyRepository struct {
	DB *gorm.DB
}

func NewPropertyRepository(db *gorm.DB) *GormPropertyRepository {
	return &GormPropertyRepository{DB: db}
}

// Search applies every set filter field as an AND-ed predicate over listed
// properties, newest first.
func (r *GormPropertyRepository) Search(ctx context.Context, filter domain.SearchFilter, limit int) ([]domain.Property, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}

	q := r.DB.WithContext(ctx).
		Model(&domain.Property{}).
		Where("status IN ?", domain.ListedStatuses)

	if filter.PriceMin != nil {
		q = q.Where("price >= ?", *filter.PriceMin)
	}
	if filter.PriceMax != nil {
		q = q.Where("price <= ?", *filter.PriceMax)
	}
	if filter.BedroomsMin != nil {
		q = q.Where("bedrooms >= ?", *filter.BedroomsMin)
	}
	if filter.VerifiedOnly {
		q = q.Where("is_verified = ?", true)
	}
	if filter.Financing {
		q = q.Where("is_halal_available = ? AND halal_status = ?", true, domain.HalalApproved)
	}
	if len(filter.Districts) > 0 {
		q = q.Where("district IN ?", filter.Districts)
	}
	switch filter.PropertyType {
	case "":
	case domain.TypeApartment:
		// studios are searched as apartments
		q = q.Where("property_type IN ?", []domain.PropertyType{domain.TypeApartment, domain.TypeStudio})
	default:
		q = q.Where("property_type = ?", filter.PropertyType)
	}

	var props []domain.Property
	if err := q.Order("created_at DESC").Limit(limit).Find(&props).Error; err != nil {
		return nil, apperror.ErrDatabase.WithError(err)
	}
	return props, nil
}

func (r *GormPropertyRepository) GetByID(ctx context.Context, id string) (*domain.Property, error) {
	var p domain.Property
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NewNotFound("property")
		}
		return nil, apperror.ErrDatabase.WithError(err)
	}
	return &p, nil
}

func (r *GormPropertyRepository) Create(ctx context.Context, p *domain.Property) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Status == "" {
		p.Status = domain.StatusPending
	}
	if p.HalalStatus == "" {
		p.HalalStatus = domain.HalalNone
	}
	if err := r.DB.WithContext(ctx).Create(p).Error; err != nil {
		return apperror.ErrDatabase.WithError(err)
	}
	return nil
}

func (r *GormPropertyRepository) ListByStatus(ctx context.Context, status domain.PropertyStatus, limit int) ([]domain.Property, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	var props []domain.Property
	err := r.DB.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at ASC").
		Limit(limit).
		Find(&props).Error
	if err != nil {
		return nil, apperror.ErrDatabase.WithError(err)
	}
	return props, nil
}

func (r *GormPropertyRepository) UpdateModeration(ctx context.Context, id string, status domain.PropertyStatus, reason string) error {
	return r.update(ctx, id, map[string]any{
		"status":            status,
		"moderation_reason": reason,
	})
}

func (r *GormPropertyRepository) UpdateHalalStatus(ctx context.Context, id string, status domain.HalalStatus) error {
	return r.update(ctx, id, map[string]any{
		"halal_status":       status,
		"is_halal_available": status == domain.HalalApproved,
	})
}

// ListMissingDistrict returns properties with coordinates but no district.
func (r *GormPropertyRepository) ListMissingDistrict(ctx context.Context, limit int) ([]domain.Property, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	var props []domain.Property
	err := r.DB.WithContext(ctx).
		Where("(district IS NULL OR district = '') AND latitude IS NOT NULL AND longitude IS NOT NULL").
		Order("created_at ASC").
		Limit(limit).
		Find(&props).Error
	if err != nil {
		return nil, apperror.ErrDatabase.WithError(err)
	}
	return props, nil
}

func (r *GormPropertyRepository) UpdateDistrict(ctx context.Context, id string, district string) error {
	return r.update(ctx, id, map[string]any{"district": district})
}

func (r *GormPropertyRepository) update(ctx context.Context, id string, fields map[string]any) error {
	res := r.DB.WithContext(ctx).
		Model(&domain.Property{}).
		Where("id = ?", id).
		Updates(fields)
	if res.Error != nil {
		return apperror.ErrDatabase.WithError(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperror.NewNotFound("property")
	}
	return nil
}
