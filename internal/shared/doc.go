// Package shared holds helpers used by more than one package.
//
// The testutil subpackage provides a capturing slog handler and fixtures that
// lay rows out like the production cutting sheet (title rows, header on row
// index 4). It is imported from tests only.
package shared
