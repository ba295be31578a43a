package services

import (
	"errors"
	"fmt"
)

// permanentError marks an ingestion failure that retrying will not fix:
// malformed sources, unsupported content, empty text. Everything else
// (network errors, rate limits) is transient and goes back to the queue
// for backoff.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

func permanentf(format string, args ...any) error {
	return &permanentError{err: fmt.Errorf(format, args...)}
}

// IsPermanent reports whether an ingestion error should not be
// retried. The queue handler uses it to skip asynq's retry schedule.
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}
