package service

import (
	"context"
	"time"

	"magit/apperror"
	"magit/domain"
	"magit/logger"
)

// DistrictStore is the part of the property repository the backfill needs.
type DistrictStore interface {
	ListMissingDistrict(ctx context.Context, limit int) ([]domain.Property, error)
	UpdateDistrict(ctx context.Context, id string, district string) error
}

// DistrictBackfillService fills in missing districts from listing
// coordinates.
type DistrictBackfillService struct {
	store    DistrictStore
	geocoder Geocoder
	delay    time.Duration
}

// NewDistrictBackfillService accepts a nil geocoder; Run then reports
// ErrNotConfigured.
func NewDistrictBackfillService(store DistrictStore, geocoder Geocoder, delay time.Duration) *DistrictBackfillService {
	return &DistrictBackfillService{
		store:    store,
		geocoder: geocoder,
		delay:    delay,
	}
}

// Run geocodes up to limit properties one at a time, pausing between calls
// to stay under the provider's rate limit. Per-property failures are counted,
// not returned.
func (s *DistrictBackfillService) Run(ctx context.Context, limit int) (*domain.BackfillReport, error) {
	if s.geocoder == nil {
		return nil, apperror.ErrNotConfigured.WithMessage("geocoder API key is not configured")
	}
	if limit <= 0 {
		limit = DefaultBackfillLimit
	}
	if limit > MaxBackfillLimit {
		limit = MaxBackfillLimit
	}

	props, err := s.store.ListMissingDistrict(ctx, limit)
	if err != nil {
		return nil, err
	}

	report := &domain.BackfillReport{}
	for i, p := range props {
		if i > 0 {
			if err := sleepContext(ctx, s.delay); err != nil {
				return report, err
			}
		}
		report.Processed++

		if !p.HasCoordinates() {
			report.Unmatched++
			continue
		}

		names, err := s.geocoder.ReverseGeocode(ctx, *p.Latitude, *p.Longitude)
		if err != nil {
			report.Failed++
			logger.Warn().Err(err).Str("property_id", p.ID).Msg("reverse geocoding failed")
			continue
		}

		district, ok := matchFirst(names)
		if !ok {
			report.Unmatched++
			logger.Debug().Str("property_id", p.ID).Strs("names", names).Msg("no district matched")
			continue
		}

		if err := s.store.UpdateDistrict(ctx, p.ID, district); err != nil {
			report.Failed++
			logger.Error().Err(err).Str("property_id", p.ID).Msg("failed to save district")
			continue
		}
		report.Updated++
	}

	logger.Info().
		Int("processed", report.Processed).
		Int("updated", report.Updated).
		Int("unmatched", report.Unmatched).
		Int("failed", report.Failed).
		Msg("district backfill finished")

	return report, nil
}

func matchFirst(names []string) (string, bool) {
	for _, n := range names {
		if d, ok := domain.MatchDistrict(n); ok {
			return d.Name, true
		}
	}
	return "", false
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
