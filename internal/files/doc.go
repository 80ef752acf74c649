// Package files lists and stores export workbooks.
//
// Discovery enumerates the .xlsx exports of a directory, skipping editor
// lock files, and Fingerprint digests the listing so callers can tell when
// the set of inputs changed. Manager is the only writer: SaveExport holds
// an advisory lock on the exports directory and refuses to replace an
// existing file.
package files
