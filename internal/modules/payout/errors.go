package payout

import (
	"errors"

	domain "studiomarket/internal/domain/payout"
	"studiomarket/internal/domain/wallet"
)

var (
	ErrValidation             = errors.New("validation_error")
	ErrForbidden              = errors.New("forbidden")
	ErrNotFound               = domain.ErrNotFound
	ErrApplicationNotApproved = errors.New("payout application not approved")
	ErrInsufficientBalance    = wallet.ErrInsufficientBalance
	ErrInvalidState           = errors.New("payout is not in a state that allows this action")
)
