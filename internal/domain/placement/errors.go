package placement

import "errors"

// ErrInvalidInput is returned for out-of-range request parameters.
var ErrInvalidInput = errors.New("invalid placement input")
