package review

import (
	"errors"

	domain "studiomarket/internal/domain/review"
)

var (
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidReviewee    = errors.New("reviewee is not a party of this booking")
	ErrSessionNotFinished = errors.New("session not finished")
	ErrAlreadyReviewed    = domain.ErrAlreadyReviewed
)
