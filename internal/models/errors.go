package models

import "errors"

// Custom errors
var (
	ErrNotFound          = errors.New("record not found")
	ErrDuplicateKey      = errors.New("duplicate key violation")
	ErrInvalidID         = errors.New("invalid ID format")
	ErrAlreadySettled    = errors.New("competition already settled")
	ErrCapacityReached   = errors.New("competition participant cap reached")
	ErrStarTaken         = errors.New("star pick already held in competition")
	ErrCompetitionClosed = errors.New("competition is not active")
)
