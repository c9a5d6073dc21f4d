package service

import (
	"time"

	"github.com/opencourse/proctor-backend/internal/model"
)

// RemainingSeconds returns the whole seconds left until the attempt's
// end (start_time + allowed_time_limit_mins), floored at zero. Fails
// closed to 0 when the attempt was never started or has no resolved
// time allowance.
func RemainingSeconds(attempt *model.ExamAttempt, now time.Time) int {
	if attempt.StartTime == nil || attempt.AllowedTimeLimitMins == nil {
		return 0
	}

	end := attempt.StartTime.Add(time.Duration(*attempt.AllowedTimeLimitMins) * time.Minute)
	if !now.Before(end) {
		return 0
	}
	return int(end.Sub(now).Seconds())
}

// AllowedMinutes resolves the time allowance for starting the exam now.
// The base allowance is the exam's time limit; when a due date would be
// overrun, the allowance is clamped to the whole minutes left until the
// due date, floored at zero.
func AllowedMinutes(exam *model.Exam, now time.Time) int {
	limit := exam.TimeLimitMins
	if exam.DueDate == nil {
		return limit
	}

	if now.Add(time.Duration(limit) * time.Minute).After(*exam.DueDate) {
		mins := int(exam.DueDate.Sub(now).Minutes())
		if mins < 0 {
			mins = 0
		}
		return mins
	}
	return limit
}

// IsPastDue reports whether the exam's due date has passed. An exam
// without a due date is never past due; reaching the due date exactly
// counts as past due.
func IsPastDue(exam *model.Exam, now time.Time) bool {
	return exam.DueDate != nil && !now.Before(*exam.DueDate)
}
