package domain

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrAlreadyExists       = errors.New("already exists")
	ErrInvalidQuantity     = errors.New("invalid quantity")
	ErrStorageUnavailable  = errors.New("storage unavailable")
	ErrProductNotFound     = errors.New("product not found")
	ErrNoBackupAvailable   = errors.New("no backup available")
	ErrInvalidProduct      = errors.New("invalid product")
	ErrInvalidMovementType = errors.New("invalid movement type")
	ErrInvalidRetention    = errors.New("invalid retention days")
	ErrInsufficientStock   = errors.New("insufficient stock")
)
