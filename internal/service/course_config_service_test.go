package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/opencourse/proctor-backend/internal/model"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptrStr(s string) *string { return &s }

func TestCreateOrUpdateCourseConfig(t *testing.T) {
	ctx := context.Background()
	courseID := "course-v1:ProctorU+101+2026"

	provider := model.ProctoringProvider{
		ID:          uuid.New(),
		Name:        "examshield",
		DisplayName: "ExamShield",
	}
	other := model.ProctoringProvider{
		ID:          uuid.New(),
		Name:        "watchdog",
		DisplayName: "Watchdog Remote",
	}

	t.Run("creates configuration on first write", func(t *testing.T) {
		configs := newFakeConfigStore()
		svc := NewCourseConfigService(configs, newFakeProviderStore(provider), zerolog.Nop())

		err := svc.CreateOrUpdate(ctx, courseID, ptrStr("examshield"), "escalate@example.com")
		require.NoError(t, err)

		cfg, err := svc.GetByCourse(ctx, courseID)
		require.NoError(t, err)
		require.NotNil(t, cfg)
		require.NotNil(t, cfg.ProviderID)
		assert.Equal(t, provider.ID, *cfg.ProviderID)
		assert.Empty(t, configs.reassigns, "creation never forks exams")
	})

	t.Run("same provider update never re-forks", func(t *testing.T) {
		configs := newFakeConfigStore(model.CourseExamConfiguration{
			CourseID:   courseID,
			ProviderID: &provider.ID,
		})
		svc := NewCourseConfigService(configs, newFakeProviderStore(provider), zerolog.Nop())

		err := svc.CreateOrUpdate(ctx, courseID, ptrStr("examshield"), "new-escalation@example.com")
		require.NoError(t, err)

		cfg, err := svc.GetByCourse(ctx, courseID)
		require.NoError(t, err)
		assert.Equal(t, "new-escalation@example.com", cfg.EscalationEmail)
		assert.Empty(t, configs.reassigns)
	})

	t.Run("provider change runs the reassignment", func(t *testing.T) {
		configs := newFakeConfigStore(model.CourseExamConfiguration{
			CourseID:   courseID,
			ProviderID: &provider.ID,
		})
		svc := NewCourseConfigService(configs, newFakeProviderStore(provider, other), zerolog.Nop())

		err := svc.CreateOrUpdate(ctx, courseID, ptrStr("watchdog"), "")
		require.NoError(t, err)

		assert.Equal(t, []string{courseID}, configs.reassigns)
		cfg, err := svc.GetByCourse(ctx, courseID)
		require.NoError(t, err)
		assert.Equal(t, other.ID, *cfg.ProviderID)
	})

	t.Run("removing the provider also reassigns", func(t *testing.T) {
		configs := newFakeConfigStore(model.CourseExamConfiguration{
			CourseID:   courseID,
			ProviderID: &provider.ID,
		})
		svc := NewCourseConfigService(configs, newFakeProviderStore(provider), zerolog.Nop())

		err := svc.CreateOrUpdate(ctx, courseID, nil, "")
		require.NoError(t, err)

		assert.Equal(t, []string{courseID}, configs.reassigns)
		cfg, err := svc.GetByCourse(ctx, courseID)
		require.NoError(t, err)
		assert.Nil(t, cfg.ProviderID)
	})

	t.Run("unknown provider name is refused before any write", func(t *testing.T) {
		configs := newFakeConfigStore()
		svc := NewCourseConfigService(configs, newFakeProviderStore(provider), zerolog.Nop())

		err := svc.CreateOrUpdate(ctx, courseID, ptrStr("ghost"), "")
		assert.ErrorIs(t, err, ErrInvalidProvider)

		cfg, err := svc.GetByCourse(ctx, courseID)
		require.NoError(t, err)
		assert.Nil(t, cfg)
	})
}

func TestProviderService(t *testing.T) {
	ctx := context.Background()

	t.Run("create and list", func(t *testing.T) {
		svc := NewProviderService(newFakeProviderStore(), zerolog.Nop())

		created, err := svc.Create(ctx, &model.CreateProviderRequest{
			Name:        "examshield",
			DisplayName: "ExamShield",
		})
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, created.ID)

		providers, err := svc.List(ctx)
		require.NoError(t, err)
		require.Len(t, providers, 1)
		assert.Equal(t, "examshield", providers[0].Name)
	})

	t.Run("duplicate name is refused", func(t *testing.T) {
		svc := NewProviderService(newFakeProviderStore(), zerolog.Nop())

		_, err := svc.Create(ctx, &model.CreateProviderRequest{Name: "examshield", DisplayName: "ExamShield"})
		require.NoError(t, err)
		_, err = svc.Create(ctx, &model.CreateProviderRequest{Name: "examshield", DisplayName: "Other"})
		assert.ErrorIs(t, err, ErrProviderExists)
	})
}
