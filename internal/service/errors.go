package service

import "errors"

// Domain errors. Business failures are always one of these sentinels,
// usually wrapped with a message naming the entities involved; handlers
// match with errors.Is.
var (
	ErrExamNotFound         = errors.New("exam not found")
	ErrAttemptNotFound      = errors.New("attempt not found")
	ErrIllegalTransition    = errors.New("illegal status transition")
	ErrPastDueExam          = errors.New("exam is past due")
	ErrAttemptAlreadyExists = errors.New("attempt already exists for this exam and user")
	ErrInvalidProvider      = errors.New("proctoring provider is not registered")
	ErrProviderExists       = errors.New("proctoring provider already exists")
)
