package service

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/alxvallejo/promptd/internal/pkg/serr"
	"github.com/alxvallejo/promptd/internal/services/picks/internal/store"
	"github.com/google/uuid"
)

// storeErr turns a store sentinel into a ServiceError naming the record.
// Anything else is wrapped with op and surfaces as a 500.
func storeErr(err error, op, what, id string) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return serr.NewServiceError(err, http.StatusNotFound, "%s not found", what).With("id", id)
	case errors.Is(err, store.ErrForbidden):
		return serr.NewServiceError(err, http.StatusForbidden, "%s belongs to another user", what).With("id", id)
	case errors.Is(err, store.ErrExists):
		return serr.NewServiceError(err, http.StatusConflict, "%s already exists", what).With("id", id)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// checkID rejects ids that cannot name a row, so the database never sees
// a malformed uuid.
func checkID(what, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return serr.NewServiceError(store.ErrNotFound, http.StatusNotFound, "%s not found", what).With("id", id)
	}
	return nil
}

func badRequest(msg string, args ...any) *serr.ServiceError {
	return serr.NewServiceError(nil, http.StatusBadRequest, msg, args...)
}
