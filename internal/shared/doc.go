// Package shared holds code used by several packages that belongs to none
// of them. Today that is only the testutil subpackage: export workbook
// fixtures and a log capturing slog handler for tests.
package shared
