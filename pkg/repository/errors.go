package repository

import "errors"

var (
	// ErrNilEntity is returned when a write receives a nil entity
	ErrNilEntity = errors.New("entity cannot be nil")
	// ErrEmptyCondition guards whole-table updates and deletes
	ErrEmptyCondition = errors.New("condition is required and cannot be empty")
	// ErrNoIDs is returned by batch operations given no ids
	ErrNoIDs = errors.New("at least one id is required")
	// ErrNilPage is returned when a paginated read gets no page descriptor
	ErrNilPage = errors.New("page is required")
)
