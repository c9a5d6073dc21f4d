package service

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/opencourse/proctor-backend/internal/model"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeExamAdminStore mirrors the repository's upsert semantics: the
// colliding active rows are retired before the new one lands.
type fakeExamAdminStore struct {
	mu    sync.Mutex
	exams map[uuid.UUID]model.Exam
}

func newFakeExamAdminStore() *fakeExamAdminStore {
	return &fakeExamAdminStore{exams: make(map[uuid.UUID]model.Exam)}
}

func (s *fakeExamAdminStore) GetByID(_ context.Context, id uuid.UUID) (*model.Exam, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	exam, ok := s.exams[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &exam, nil
}

func (s *fakeExamAdminStore) ListByCourse(_ context.Context, courseID string) ([]model.Exam, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Exam
	for _, e := range s.exams {
		if e.CourseID == courseID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *fakeExamAdminStore) Upsert(_ context.Context, exam *model.Exam) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, e := range s.exams {
		if e.IsActive && e.CourseID == exam.CourseID && e.ContentID == exam.ContentID && e.ExamType == exam.ExamType {
			e.IsActive = false
			s.exams[id] = e
		}
	}
	s.exams[exam.ID] = *exam
	return nil
}

func TestRegisterExam(t *testing.T) {
	ctx := context.Background()
	courseID := "course-v1:ProctorU+101+2026"

	req := func(examType model.ExamType) *model.RegisterExamRequest {
		return &model.RegisterExamRequest{
			ResourceID:    "res-final",
			CourseID:      courseID,
			ContentID:     "block-v1:final",
			ExamName:      "Final Exam",
			ExamType:      examType,
			TimeLimitMins: 30,
		}
	}

	t.Run("proctored exam binds the course's provider", func(t *testing.T) {
		providerID := uuid.New()
		configs := newFakeConfigStore(model.CourseExamConfiguration{
			CourseID:   courseID,
			ProviderID: &providerID,
		})
		svc := NewExamService(newFakeExamAdminStore(), configs, NewClock(), zerolog.Nop())

		exam, err := svc.RegisterExam(ctx, req(model.ExamTypeProctored))
		require.NoError(t, err)
		require.NotNil(t, exam.ProviderID)
		assert.Equal(t, providerID, *exam.ProviderID)
		assert.True(t, exam.IsActive)
	})

	t.Run("unconfigured course leaves provider unbound", func(t *testing.T) {
		svc := NewExamService(newFakeExamAdminStore(), newFakeConfigStore(), NewClock(), zerolog.Nop())

		exam, err := svc.RegisterExam(ctx, req(model.ExamTypeProctored))
		require.NoError(t, err)
		assert.Nil(t, exam.ProviderID)
	})

	t.Run("timed exam never consults the configuration", func(t *testing.T) {
		providerID := uuid.New()
		configs := newFakeConfigStore(model.CourseExamConfiguration{
			CourseID:   courseID,
			ProviderID: &providerID,
		})
		svc := NewExamService(newFakeExamAdminStore(), configs, NewClock(), zerolog.Nop())

		exam, err := svc.RegisterExam(ctx, req(model.ExamTypeTimed))
		require.NoError(t, err)
		assert.Nil(t, exam.ProviderID)
	})

	t.Run("re-registration retires the previous active definition", func(t *testing.T) {
		store := newFakeExamAdminStore()
		svc := NewExamService(store, newFakeConfigStore(), NewClock(), zerolog.Nop())

		first, err := svc.RegisterExam(ctx, req(model.ExamTypeTimed))
		require.NoError(t, err)
		second, err := svc.RegisterExam(ctx, req(model.ExamTypeTimed))
		require.NoError(t, err)
		require.NotEqual(t, first.ID, second.ID)

		old, err := store.GetByID(ctx, first.ID)
		require.NoError(t, err)
		assert.False(t, old.IsActive)

		current, err := store.GetByID(ctx, second.ID)
		require.NoError(t, err)
		assert.True(t, current.IsActive)
	})
}
