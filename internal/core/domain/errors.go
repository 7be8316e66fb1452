package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("sku not found")
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrDuplicateCode     = errors.New("sku code already exists")
	ErrDuplicateName     = errors.New("sku name already taken")
	ErrEmptyCode         = errors.New("sku code must not be empty")
	ErrEmptyName         = errors.New("sku name must not be empty")
)

// DuplicateNameError carries the SKU that already owns the requested name,
// so callers can point the user at the existing item.
type DuplicateNameError struct {
	Existing SKU
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("name %q already taken by %s", e.Existing.Name, e.Existing.Code)
}

func (e *DuplicateNameError) Is(target error) bool {
	return target == ErrDuplicateName
}
