package services

import "errors"

// ErrInvalidQuery is returned for top-N and fiscal-half parameters that
// cannot be served
var ErrInvalidQuery = errors.New("invalid query")
