package service

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/opencourse/proctor-backend/internal/events"
	"github.com/opencourse/proctor-backend/internal/model"
)

// In-memory store fakes. InTx runs the closure against the same map
// the non-transactional reads use; single-goroutine tests don't need
// real isolation, only the same visibility the pgx implementations
// provide.

type fakeExamStore struct {
	mu    sync.Mutex
	exams map[uuid.UUID]model.Exam
}

func newFakeExamStore(exams ...model.Exam) *fakeExamStore {
	s := &fakeExamStore{exams: make(map[uuid.UUID]model.Exam)}
	for _, e := range exams {
		s.exams[e.ID] = e
	}
	return s
}

func (s *fakeExamStore) GetByID(_ context.Context, id uuid.UUID) (*model.Exam, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	exam, ok := s.exams[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &exam, nil
}

type fakeAttemptStore struct {
	mu       sync.Mutex
	attempts map[uuid.UUID]model.ExamAttempt

	// beforeTx, when set, runs just before InTx opens the transaction.
	// Tests use it to interleave a concurrent write.
	beforeTx func()
}

func newFakeAttemptStore(attempts ...model.ExamAttempt) *fakeAttemptStore {
	s := &fakeAttemptStore{attempts: make(map[uuid.UUID]model.ExamAttempt)}
	for _, a := range attempts {
		s.attempts[a.ID] = a
	}
	return s
}

func (s *fakeAttemptStore) GetByID(_ context.Context, id uuid.UUID) (*model.ExamAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	attempt, ok := s.attempts[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &attempt, nil
}

func (s *fakeAttemptStore) GetLatestByExamAndUser(_ context.Context, examID, userID uuid.UUID) (*model.ExamAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *model.ExamAttempt
	for _, a := range s.attempts {
		if a.ExamID != examID || a.UserID != userID {
			continue
		}
		a := a
		if latest == nil || a.CreatedAt.After(latest.CreatedAt) {
			latest = &a
		}
	}
	if latest == nil {
		return nil, pgx.ErrNoRows
	}
	return latest, nil
}

func (s *fakeAttemptStore) ListActiveByUser(_ context.Context, userID uuid.UUID) ([]model.ExamAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeByUserLocked(userID), nil
}

func (s *fakeAttemptStore) ListExpirable(context.Context) ([]model.ExamAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.ExamAttempt
	for _, a := range s.attempts {
		if a.Status.IsActive() && a.StartTime != nil && a.AllowedTimeLimitMins != nil {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *fakeAttemptStore) ListByExam(_ context.Context, examID uuid.UUID, limit, offset int) ([]model.ExamAttempt, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []model.ExamAttempt
	for _, a := range s.attempts {
		if a.ExamID == examID {
			all = append(all, a)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	total := len(all)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (s *fakeAttemptStore) InTx(_ context.Context, fn func(tx AttemptTx) error) error {
	if s.beforeTx != nil {
		s.beforeTx()
	}
	return fn(&fakeAttemptTx{store: s})
}

func (s *fakeAttemptStore) activeByUserLocked(userID uuid.UUID) []model.ExamAttempt {
	var out []model.ExamAttempt
	for _, a := range s.attempts {
		if a.UserID == userID && a.Status.IsActive() {
			out = append(out, a)
		}
	}
	return out
}

type fakeAttemptTx struct {
	store *fakeAttemptStore
}

func (t *fakeAttemptTx) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.ExamAttempt, error) {
	return t.store.GetByID(ctx, id)
}

func (t *fakeAttemptTx) ListActiveByUserForUpdate(ctx context.Context, userID uuid.UUID) ([]model.ExamAttempt, error) {
	return t.store.ListActiveByUser(ctx, userID)
}

func (t *fakeAttemptTx) CountByExamAndUser(_ context.Context, examID, userID uuid.UUID) (int, error) {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	count := 0
	for _, a := range t.store.attempts {
		if a.ExamID == examID && a.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (t *fakeAttemptTx) Create(_ context.Context, attempt *model.ExamAttempt) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	t.store.attempts[attempt.ID] = *attempt
	return nil
}

func (t *fakeAttemptTx) Update(_ context.Context, attempt *model.ExamAttempt) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	if _, ok := t.store.attempts[attempt.ID]; !ok {
		return pgx.ErrNoRows
	}
	t.store.attempts[attempt.ID] = *attempt
	return nil
}

func (t *fakeAttemptTx) Delete(_ context.Context, id uuid.UUID) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	if _, ok := t.store.attempts[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(t.store.attempts, id)
	return nil
}

type recordingNotifier struct {
	mu    sync.Mutex
	sends []model.AttemptStatus
}

func (n *recordingNotifier) SendStatusEmail(_ context.Context, attempt *model.ExamAttempt, _ *model.Exam) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sends = append(n.sends, attempt.Status)
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.AttemptEvent
}

func (p *recordingPublisher) Publish(_ context.Context, event events.AttemptEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Name
	}
	return out
}

type fakeProviderStore struct {
	mu        sync.Mutex
	providers map[uuid.UUID]model.ProctoringProvider
}

func newFakeProviderStore(providers ...model.ProctoringProvider) *fakeProviderStore {
	s := &fakeProviderStore{providers: make(map[uuid.UUID]model.ProctoringProvider)}
	for _, p := range providers {
		s.providers[p.ID] = p
	}
	return s
}

func (s *fakeProviderStore) GetByID(_ context.Context, id uuid.UUID) (*model.ProctoringProvider, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.providers[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &p, nil
}

func (s *fakeProviderStore) GetByName(_ context.Context, name string) (*model.ProctoringProvider, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.providers {
		if p.Name == name {
			p := p
			return &p, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (s *fakeProviderStore) List(context.Context) ([]model.ProctoringProvider, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.ProctoringProvider, 0, len(s.providers))
	for _, p := range s.providers {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *fakeProviderStore) Create(_ context.Context, p *model.ProctoringProvider) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.providers[p.ID] = *p
	return nil
}

type fakeConfigStore struct {
	mu        sync.Mutex
	configs   map[string]model.CourseExamConfiguration
	reassigns []string
}

func newFakeConfigStore(configs ...model.CourseExamConfiguration) *fakeConfigStore {
	s := &fakeConfigStore{configs: make(map[string]model.CourseExamConfiguration)}
	for _, c := range configs {
		s.configs[c.CourseID] = c
	}
	return s
}

func (s *fakeConfigStore) GetByCourse(_ context.Context, courseID string) (*model.CourseExamConfiguration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg, ok := s.configs[courseID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &cfg, nil
}

func (s *fakeConfigStore) Create(_ context.Context, cfg *model.CourseExamConfiguration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.configs[cfg.CourseID] = *cfg
	return nil
}

func (s *fakeConfigStore) UpdateEscalationEmail(_ context.Context, courseID, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg, ok := s.configs[courseID]
	if !ok {
		return pgx.ErrNoRows
	}
	cfg.EscalationEmail = email
	s.configs[courseID] = cfg
	return nil
}

func (s *fakeConfigStore) ReassignProvider(_ context.Context, courseID string, providerID *uuid.UUID, escalationEmail string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg, ok := s.configs[courseID]
	if !ok {
		return pgx.ErrNoRows
	}
	cfg.ProviderID = providerID
	cfg.EscalationEmail = escalationEmail
	s.configs[courseID] = cfg
	s.reassigns = append(s.reassigns, courseID)
	return nil
}
