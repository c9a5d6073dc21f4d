package service

import (
	"testing"
	"time"

	"github.com/opencourse/proctor-backend/internal/model"
	"github.com/stretchr/testify/assert"
)

func ptrTime(t time.Time) *time.Time { return &t }
func ptrInt(n int) *int              { return &n }

func TestRemainingSeconds(t *testing.T) {
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		attempt model.ExamAttempt
		now     time.Time
		want    int
	}{
		{
			name: "mid attempt",
			attempt: model.ExamAttempt{
				StartTime:            ptrTime(base),
				AllowedTimeLimitMins: ptrInt(30),
			},
			now:  base.Add(10 * time.Minute),
			want: 20 * 60,
		},
		{
			name: "exactly at the end",
			attempt: model.ExamAttempt{
				StartTime:            ptrTime(base),
				AllowedTimeLimitMins: ptrInt(30),
			},
			now:  base.Add(30 * time.Minute),
			want: 0,
		},
		{
			name: "long past the end floors at zero",
			attempt: model.ExamAttempt{
				StartTime:            ptrTime(base),
				AllowedTimeLimitMins: ptrInt(30),
			},
			now:  base.Add(4 * time.Hour),
			want: 0,
		},
		{
			name: "never started fails closed",
			attempt: model.ExamAttempt{
				AllowedTimeLimitMins: ptrInt(30),
			},
			now:  base,
			want: 0,
		},
		{
			name: "no resolved allowance fails closed",
			attempt: model.ExamAttempt{
				StartTime: ptrTime(base),
			},
			now:  base,
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RemainingSeconds(&tt.attempt, tt.now))
		})
	}
}

func TestAllowedMinutes(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		exam model.Exam
		want int
	}{
		{
			name: "no due date uses the full limit",
			exam: model.Exam{TimeLimitMins: 30},
			want: 30,
		},
		{
			name: "due date far away uses the full limit",
			exam: model.Exam{TimeLimitMins: 30, DueDate: ptrTime(now.Add(2 * time.Hour))},
			want: 30,
		},
		{
			name: "due date ten minutes away clamps to ten",
			exam: model.Exam{TimeLimitMins: 30, DueDate: ptrTime(now.Add(10 * time.Minute))},
			want: 10,
		},
		{
			name: "due date exactly at the limit boundary",
			exam: model.Exam{TimeLimitMins: 30, DueDate: ptrTime(now.Add(30 * time.Minute))},
			want: 30,
		},
		{
			name: "already past due floors at zero",
			exam: model.Exam{TimeLimitMins: 30, DueDate: ptrTime(now.Add(-5 * time.Minute))},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AllowedMinutes(&tt.exam, now))
		})
	}
}

func TestIsPastDue(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	assert.False(t, IsPastDue(&model.Exam{}, now), "no due date is never past due")
	assert.False(t, IsPastDue(&model.Exam{DueDate: ptrTime(now.Add(time.Minute))}, now))
	assert.True(t, IsPastDue(&model.Exam{DueDate: ptrTime(now)}, now), "reaching the due date exactly counts")
	assert.True(t, IsPastDue(&model.Exam{DueDate: ptrTime(now.Add(-time.Minute))}, now))
}
