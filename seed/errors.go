package seed

import "errors"

var (
	// ErrTargetRequired is returned when Run is given no target.
	ErrTargetRequired = errors.New("seed target required")

	// ErrUnknownCategory is returned when a fixture post names a category
	// title that the fixture set does not define.
	ErrUnknownCategory = errors.New("fixture post references unknown category")

	// ErrDuplicateCategory is returned when a fixture set defines the same
	// category title twice.
	ErrDuplicateCategory = errors.New("duplicate fixture category")
)
