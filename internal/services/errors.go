// Package services defines the business logic for verifications, inventory
// administration, photos, mileage, and the alert sweep. This file centralizes
// common service-level error values so that they can be consistently returned
// by service methods and checked by callers.
//
// These errors are intended for internal use by the service layer; translation
// into user-facing messages or HTTP status codes is performed at the handler
// layer.
package services

import (
	"context"
	"errors"
)

var (
	// ErrBagNotFound indicates that no bag carries the requested name.
	ErrBagNotFound = errors.New("bag not found")

	// ErrCategoryNotFound indicates that the requested category does not
	// exist in the configuration.
	ErrCategoryNotFound = errors.New("category not found")

	// ErrHistoryNotFound indicates that the requested history index is out
	// of range.
	ErrHistoryNotFound = errors.New("history entry not found")

	// ErrPhotoNotFound indicates that no stored photo matches the id.
	ErrPhotoNotFound = errors.New("photo not found")

	// ErrEmptyName is returned when a bag or category name is blank after
	// trimming.
	ErrEmptyName = errors.New("name is empty")

	// ErrDuplicateName is returned when a create or rename collides with an
	// existing bag or category.
	ErrDuplicateName = errors.New("name already in use")

	// ErrInvalidState is returned when a bag state is neither Actif nor HS.
	ErrInvalidState = errors.New("state must be Actif or HS")

	// ErrInvalidSeverity is returned when a recipient update names an
	// unknown alert severity.
	ErrInvalidSeverity = errors.New("severity must be orange or red")

	// ErrInvalidMileage is returned when a mileage reading is negative.
	ErrInvalidMileage = errors.New("mileage must not be negative")
)

// Invalidator is the bootstrap-cache hook the mutating services call after
// every write. The snapshot cache implements it.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}
