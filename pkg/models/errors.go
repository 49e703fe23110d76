package models

import "errors"

// Common errors for store and coordinator operations.
var (
	// Record errors
	ErrRecordNotFound = errors.New("record not found")
	ErrNoCandidates   = errors.New("no data")

	// Stats errors
	ErrStatsUpdating = errors.New("updating")

	// Policy errors
	ErrResetNotAllowed = errors.New("reset is only allowed on the sample database")
)
