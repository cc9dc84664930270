// Package service holds the procurement workflow. Every operation takes the
// caller's auth.Session explicitly and enforces role and ownership itself,
// so the HTTP layer's role checks are a second line, not the only one.
package service

import (
	"errors"
	"fmt"
	"log/slog"

	"lpotracker/internal/apperr"
	"lpotracker/internal/auth"
	"lpotracker/internal/repository"
)

func requireSession(s auth.Session) error {
	if s.UserID == 0 {
		return apperr.Unauthenticated("authentication required")
	}
	return nil
}

func requireAdmin(s auth.Session) error {
	if err := requireSession(s); err != nil {
		return err
	}
	if !s.IsAdmin() {
		return apperr.Forbidden("admin role required")
	}
	return nil
}

// notFoundOr turns repository.ErrNotFound into an apperr NotFound with msg
// and wraps anything else with op.
func notFoundOr(err error, op, msg string, args ...any) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound(msg, args...)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func orDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
