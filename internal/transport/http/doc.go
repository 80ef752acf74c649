// Package http implements the JSON API of the viewership dashboard.
//
// Handlers stay thin: they parse path and query parameters, call the
// corpus or health service, and render either a JSON envelope
// ({"status": "success", "data": ...}) or an RFC 7807 problem document
// through errors.ErrorHandler.
//
// Routes mounted under /api/data:
//
//	GET  /files                  export files, newest period first
//	GET  /corpus                 files read and skipped by the last build
//	GET  /master/{media}         master table rows (media is film or tv)
//	GET  /top/{media}            top-N groups; n, metric, min_count, max_count
//	GET  /fiscal-halves          views per fiscal half; dimension
//	POST /uploads                multipart upload of one export (field "file")
package http
