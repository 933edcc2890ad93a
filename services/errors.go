package services

import "errors"

var (
	// ErrMalformedTrackedList is returned when the seed file does not hold a
	// JSON array; the seeding cycle is aborted without partial effect.
	ErrMalformedTrackedList = errors.New("tracked player list must be a JSON array")

	ErrInvalidCredentials = errors.New("invalid password")
)
