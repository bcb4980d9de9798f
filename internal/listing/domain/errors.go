package domain

import (
	"errors"
	"fmt"
)

var (
	ErrListingNotFound    = errors.New("listing not found")
	ErrForbidden          = errors.New("user not authorized to perform this action")
	ErrInvalidListingData = errors.New("invalid listing data")
	ErrInvalidFilter      = errors.New("invalid filter parameters")
	ErrNoImages           = errors.New("no images uploaded")
	ErrPayloadTooLarge    = errors.New("image exceeds maximum size")
	ErrVersionConflict    = errors.New("listing was modified concurrently")
)

// UploadError reports which file of a batch failed to be encoded or stored.
type UploadError struct {
	Index int
	Err   error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("image %d: %v", e.Index, e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}
