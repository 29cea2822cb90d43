package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Error kinds shared by the service layer and mapped to transport codes at
// the edge.
var (
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict")
	ErrNotFound   = errors.New("not found")
	ErrUpstream   = errors.New("upstream failure")
)

var (
	ErrAlreadyCompleted = fmt.Errorf("stop is already completed: %w", ErrConflict)
	ErrAlreadyStarted   = fmt.Errorf("route is already started: %w", ErrConflict)
	ErrRouteStarted     = fmt.Errorf("route has started and can no longer be re-sequenced: %w", ErrConflict)
)

// ConflictError reports order ids that already belong to a route.
type ConflictError struct {
	OrderIDs []int64
}

func (e *ConflictError) Error() string {
	if len(e.OrderIDs) == 0 {
		return "orders already in routes"
	}
	ids := make([]string, 0, len(e.OrderIDs))
	for _, id := range e.OrderIDs {
		ids = append(ids, strconv.FormatInt(id, 10))
	}
	return "orders already in routes: " + strings.Join(ids, ",")
}

func (e *ConflictError) Unwrap() error { return ErrConflict }
