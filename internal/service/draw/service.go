package draw

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lottobill/lottobill-backend/internal/domain"
)

type drawRepo interface {
	// Upsert stores the draw, replacing an earlier row for the same
	// (region, period).
	Upsert(ctx context.Context, d *domain.DrawResult) error
	// Latest returns the newest draw for the region, or domain.ErrNotFound.
	Latest(ctx context.Context, region string) (*domain.DrawResult, error)
}

type latestCache interface {
	GetLatest(ctx context.Context, region string) (*domain.DrawResult, error)
	SetLatest(ctx context.Context, d *domain.DrawResult) error
}

// Service ingests draw announcements and answers "current draw" lookups,
// optionally fronted by a cache.
type Service struct {
	log   *slog.Logger
	repo  drawRepo
	cache latestCache
	now   func() time.Time
}

// NewService creates a draw service. cache may be nil.
func NewService(log *slog.Logger, repo drawRepo, cache latestCache) *Service {
	return &Service{
		log:   log.With("service", "draw"),
		repo:  repo,
		cache: cache,
		now:   time.Now,
	}
}

// RecordMessage parses a channel post and stores every announcement in it.
func (s *Service) RecordMessage(ctx context.Context, text string) ([]domain.DrawResult, error) {
	results := ParseMessage(text)
	if len(results) == 0 {
		return nil, domain.NewValidationError("text", "no draw announcement recognized")
	}
	for i := range results {
		if err := s.Record(ctx, &results[i]); err != nil {
			return nil, err
		}
	}
	return results, nil
}

// Record validates and stores one draw, refreshing the latest-draw cache.
func (s *Service) Record(ctx context.Context, d *domain.DrawResult) error {
	region, ok := domain.NormalizeRegion(d.Region)
	if !ok {
		return domain.NewValidationError("region", "unknown region: "+d.Region)
	}
	d.Region = region
	if err := d.Validate(); err != nil {
		return err
	}
	d.FillDerived()
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.RecordedAt.IsZero() {
		d.RecordedAt = s.now().UTC()
	}
	if err := s.repo.Upsert(ctx, d); err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.SetLatest(ctx, d); err != nil {
			s.log.WarnContext(ctx, "latest-draw cache write failed",
				slog.String("region", d.Region), slog.String("error", err.Error()))
		}
	}
	s.log.InfoContext(ctx, "draw recorded",
		slog.String("region", d.Region),
		slog.String("period", d.Period),
		slog.String("special", d.Special()),
	)
	return nil
}

// Latest returns the most recently recorded draw for a region, consulting
// the cache first.
func (s *Service) Latest(ctx context.Context, region string) (*domain.DrawResult, error) {
	normalized, ok := domain.NormalizeRegion(region)
	if !ok {
		return nil, domain.NewValidationError("region", "unknown region: "+region)
	}
	if s.cache != nil {
		d, err := s.cache.GetLatest(ctx, normalized)
		if err == nil {
			return d, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			s.log.WarnContext(ctx, "latest-draw cache read failed",
				slog.String("region", normalized), slog.String("error", err.Error()))
		}
	}
	d, err := s.repo.Latest(ctx, normalized)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetLatest(ctx, d); err != nil {
			s.log.WarnContext(ctx, "latest-draw cache write failed",
				slog.String("region", normalized), slog.String("error", err.Error()))
		}
	}
	return d, nil
}

// LatestAll returns the current draw per known region, skipping regions with
// no data yet.
func (s *Service) LatestAll(ctx context.Context) (map[string]*domain.DrawResult, error) {
	out := make(map[string]*domain.DrawResult, len(domain.Regions))
	for _, region := range domain.Regions {
		d, err := s.Latest(ctx, region)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out[region] = d
	}
	return out, nil
}
