package scrap

import (
	"errors"
	"fmt"
)

// ErrHeaderNotFound is returned when the configured header row is not present
// in the sheet, which usually means the wrong tab or offset was configured.
var ErrHeaderNotFound = errors.New("header row not found in sheet")

// MissingColumnError reports a required column absent from the sheet header.
type MissingColumnError struct {
	Column string
	Header []string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("required column %q not found in sheet header", e.Column)
}

// IsSchemaError reports whether err describes a sheet layout problem rather
// than a bad cell or an unreachable source.
func IsSchemaError(err error) bool {
	var mc *MissingColumnError
	return errors.As(err, &mc) || errors.Is(err, ErrHeaderNotFound)
}
