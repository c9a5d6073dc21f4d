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

// ProviderService handles proctoring provider administration.
type ProviderService struct {
	providers ProviderStore
	log       zerolog.Logger
}

// NewProviderService creates a new ProviderService.
func NewProviderService(providers ProviderStore, log zerolog.Logger) *ProviderService {
	return &ProviderService{
		providers: providers,
		log:       log.With().Str("component", "provider_service").Logger(),
	}
}

// List returns all registered proctoring providers.
func (s *ProviderService) List(ctx context.Context) ([]model.ProctoringProvider, error) {
	providers, err := s.providers.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list providers: %w", err)
	}
	if providers == nil {
		providers = []model.ProctoringProvider{}
	}
	return providers, nil
}

// Create registers a new proctoring provider. Names are unique.
func (s *ProviderService) Create(ctx context.Context, req *model.CreateProviderRequest) (*model.ProctoringProvider, error) {
	if _, err := s.providers.GetByName(ctx, req.Name); err == nil {
		return nil, fmt.Errorf("%w: %q", ErrProviderExists, req.Name)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("check provider: %w", err)
	}

	provider := &model.ProctoringProvider{
		ID:           uuid.New(),
		Name:         req.Name,
		DisplayName:  req.DisplayName,
		LTIConfigID:  req.LTIConfigID,
		SupportEmail: req.SupportEmail,
	}

	if err := s.providers.Create(ctx, provider); err != nil {
		return nil, fmt.Errorf("create provider: %w", err)
	}

	s.log.Info().
		Str("provider_id", provider.ID.String()).
		Str("name", provider.Name).
		Msg("Proctoring provider registered")

	return provider, nil
}
