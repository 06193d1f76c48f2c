package booking

import "errors"

var (
	ErrNotFound = errors.New("not_found")
)
