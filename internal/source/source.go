package source

import (
	"context"
	"errors"
	"fmt"

	"pcpsucata/internal/scrap"
)

// ErrUnavailable is matched by every error a source returns when the sheet
// could not be reached or read.
var ErrUnavailable = errors.New("source unavailable")

// ErrSheetNotFound is wrapped when the configured tab does not exist. It is
// returned inside an *Error, so it also matches ErrUnavailable.
var ErrSheetNotFound = errors.New("sheet not found")

// Source provides the raw cells of the cutting sheet.
type Source interface {
	// Name identifies the source kind in logs and metrics.
	Name() string
	// Fetch reads the whole sheet. The returned grid must not be modified.
	Fetch(ctx context.Context) (scrap.Grid, error)
}

// Error describes a failed source operation.
type Error struct {
	Source string
	Op     string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s source: %s: %v", e.Source, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is makes every *Error match ErrUnavailable.
func (e *Error) Is(target error) bool {
	return target == ErrUnavailable
}

func wrapErr(source, op string, err error) error {
	if err == nil {
		return nil
	}
	var srcErr *Error
	if errors.As(err, &srcErr) {
		return err
	}
	return &Error{Source: source, Op: op, Err: err}
}

func sheetNotFound(source, format string, args ...any) error {
	return &Error{
		Source: source,
		Op:     "resolve sheet",
		Err:    fmt.Errorf("%w: "+format, append([]any{ErrSheetNotFound}, args...)...),
	}
}
