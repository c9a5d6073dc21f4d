package worker

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/opencourse/proctor-backend/internal/model"
	"github.com/opencourse/proctor-backend/internal/service"
	"github.com/rs/zerolog"
)

// TimeoutWorker periodically sweeps active attempts whose time
// allowance has elapsed and moves them to timed_out. The transition
// goes through the same service path as user-driven updates, so the
// guards and event publication apply unchanged.
type TimeoutWorker struct {
	attempts       service.AttemptStore
	attemptService *service.AttemptService
	interval       time.Duration
	log            zerolog.Logger
}

func NewTimeoutWorker(attempts service.AttemptStore, attemptService *service.AttemptService, interval time.Duration, log zerolog.Logger) *TimeoutWorker {
	if interval <= 0 {
		interval = time.Minute
	}
	return &TimeoutWorker{
		attempts:       attempts,
		attemptService: attemptService,
		interval:       interval,
		log:            log.With().Str("component", "timeout_worker").Logger(),
	}
}

func (w *TimeoutWorker) Start(ctx context.Context) {
	w.log.Info().Dur("interval", w.interval).Msg("TimeoutWorker started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("TimeoutWorker stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *TimeoutWorker) sweep(ctx context.Context) {
	candidates, err := w.attempts.ListExpirable(ctx)
	if err != nil {
		w.log.Error().Err(err).Msg("Expirable scan failed")
		return
	}

	for i := range candidates {
		attempt := &candidates[i]
		if _, timedOut := w.attemptService.CheckIfExamTimedOut(attempt); !timedOut {
			continue
		}

		// uuid.Nil marks a system-driven transition in the event stream.
		_, err := w.attemptService.UpdateAttemptStatus(ctx, attempt.ID, model.AttemptStatusTimedOut, uuid.Nil)
		if err != nil {
			// The learner may have submitted between the scan and the
			// locked read. That race resolves in their favor.
			if errors.Is(err, service.ErrIllegalTransition) || errors.Is(err, service.ErrAttemptNotFound) {
				w.log.Debug().
					Str("attempt_id", attempt.ID.String()).
					Msg("Attempt left the expirable window before sweep")
				continue
			}
			w.log.Error().Err(err).
				Str("attempt_id", attempt.ID.String()).
				Msg("Timeout transition failed")
			continue
		}

		w.log.Info().
			Str("attempt_id", attempt.ID.String()).
			Str("user_id", attempt.UserID.String()).
			Msg("Attempt timed out")
	}
}
