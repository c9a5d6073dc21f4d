package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/opencourse/proctor-backend/internal/model"
	"github.com/rs/zerolog"
)

// CourseConfigService manages per-course exam configuration and the
// provider reassignment it can trigger. Changing a course's provider
// forks and retires its active exams: each one is marked inactive and a
// duplicate bound to the new provider takes its place, all within one
// transaction.
type CourseConfigService struct {
	configs   ConfigStore
	providers ProviderStore
	log       zerolog.Logger
}

// NewCourseConfigService creates a new CourseConfigService.
func NewCourseConfigService(configs ConfigStore, providers ProviderStore, log zerolog.Logger) *CourseConfigService {
	return &CourseConfigService{
		configs:   configs,
		providers: providers,
		log:       log.With().Str("component", "course_config_service").Logger(),
	}
}

// GetByCourse returns the course's configuration, or nil when the
// course was never configured.
func (s *CourseConfigService) GetByCourse(ctx context.Context, courseID string) (*model.CourseExamConfiguration, error) {
	cfg, err := s.configs.GetByCourse(ctx, courseID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	return cfg, nil
}

// CreateOrUpdate creates the course's configuration or applies an
// update to it. A same-provider update touches only the non-provider
// fields and never re-forks exams; a provider change (including to or
// from "no provider") runs the atomic fork-and-retire.
func (s *CourseConfigService) CreateOrUpdate(ctx context.Context, courseID string, providerName *string, escalationEmail string) error {
	providerID, err := s.resolveProvider(ctx, providerName)
	if err != nil {
		return err
	}

	existing, err := s.configs.GetByCourse(ctx, courseID)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("load configuration: %w", err)
		}

		cfg := &model.CourseExamConfiguration{
			CourseID:        courseID,
			ProviderID:      providerID,
			EscalationEmail: escalationEmail,
		}
		if err := s.configs.Create(ctx, cfg); err != nil {
			return fmt.Errorf("create configuration: %w", err)
		}

		s.log.Info().
			Str("course_id", courseID).
			Msg("Course exam configuration created")
		return nil
	}

	if sameProvider(existing.ProviderID, providerID) {
		if err := s.configs.UpdateEscalationEmail(ctx, courseID, escalationEmail); err != nil {
			return fmt.Errorf("update configuration: %w", err)
		}
		return nil
	}

	if err := s.configs.ReassignProvider(ctx, courseID, providerID, escalationEmail); err != nil {
		return fmt.Errorf("reassign provider: %w", err)
	}

	s.log.Info().
		Str("course_id", courseID).
		Str("provider", providerLabel(providerName)).
		Msg("Course provider reassigned; active exams forked and retired")

	return nil
}

// resolveProvider maps a provider name to its id. A nil name means the
// course runs without a provider.
func (s *CourseConfigService) resolveProvider(ctx context.Context, providerName *string) (*uuid.UUID, error) {
	if providerName == nil {
		return nil, nil
	}

	provider, err := s.providers.GetByName(ctx, *providerName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidProvider, *providerName)
		}
		return nil, fmt.Errorf("load provider: %w", err)
	}
	return &provider.ID, nil
}

// sameProvider compares provider references by identity, treating two
// nils as equal.
func sameProvider(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func providerLabel(name *string) string {
	if name == nil {
		return "none"
	}
	return *name
}
