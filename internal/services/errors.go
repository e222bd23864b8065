package services

import (
	"errors"
	"fmt"

	apperrors "pcpsucata/internal/errors"
)

var (
	// ErrInvalidQuery is wrapped by every query validation failure.
	ErrInvalidQuery = fmt.Errorf("invalid report query: %w", apperrors.ErrInvalidInput)

	// ErrNoSource is returned when a service was built without a sheet source.
	ErrNoSource = errors.New("no sheet source configured")
)
