package notification

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/google/uuid"
	"github.com/opencourse/proctor-backend/internal/model"
	"github.com/rs/zerolog"
)

// Notifier delivers attempt status emails. Implementations report
// failures but the attempt engine treats delivery as best-effort: a
// failed send is logged, never propagated past the transition.
type Notifier interface {
	SendStatusEmail(ctx context.Context, attempt *model.ExamAttempt, exam *model.Exam) error
}

// UserDirectory resolves a user id to an account, used to address the
// email.
type UserDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
}

// EmailNotifier sends plain-text status emails over SMTP. With an empty
// address it degrades to log-only delivery, which keeps dev and test
// environments mail-server-free.
type EmailNotifier struct {
	addr  string
	from  string
	users UserDirectory
	log   zerolog.Logger
}

// NewEmailNotifier creates an EmailNotifier.
func NewEmailNotifier(addr, from string, users UserDirectory, log zerolog.Logger) *EmailNotifier {
	return &EmailNotifier{
		addr:  addr,
		from:  from,
		users: users,
		log:   log.With().Str("component", "email_notifier").Logger(),
	}
}

// SendStatusEmail emails the learner about the attempt's new status.
func (n *EmailNotifier) SendStatusEmail(ctx context.Context, attempt *model.ExamAttempt, exam *model.Exam) error {
	user, err := n.users.GetByID(ctx, attempt.UserID)
	if err != nil {
		return fmt.Errorf("resolve recipient: %w", err)
	}

	subject := fmt.Sprintf("Proctored exam %q is now %s", exam.ExamName, attempt.Status)
	body := fmt.Sprintf(
		"Hello %s,\n\nYour attempt #%d for %q (course %s) has moved to status %q.\n",
		user.Name, attempt.AttemptNumber, exam.ExamName, exam.CourseID, attempt.Status,
	)

	if n.addr == "" {
		n.log.Info().
			Str("to", user.Email).
			Str("subject", subject).
			Msg("SMTP not configured; status email logged only")
		return nil
	}

	msg := strings.Join([]string{
		"From: " + n.from,
		"To: " + user.Email,
		"Subject: " + subject,
		"",
		body,
	}, "\r\n")

	if err := smtp.SendMail(n.addr, nil, n.from, []string{user.Email}, []byte(msg)); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}

	n.log.Info().
		Str("to", user.Email).
		Str("attempt_id", attempt.ID.String()).
		Str("status", string(attempt.Status)).
		Msg("Status email sent")

	return nil
}
