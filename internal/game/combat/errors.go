package combat

import (
	"errors"
	"fmt"
)

// ErrInvalidAction is returned when an action is not legal at validation or
// execution time. No state has been changed when it is returned.
var ErrInvalidAction = errors.New("invalid action")

// ErrMissingAbilityData is returned when an action references an ability or
// status the actor or encounter does not know. It matches ErrInvalidAction.
var ErrMissingAbilityData = fmt.Errorf("%w: missing ability data", ErrInvalidAction)

// ErrMissingItemData is returned when an action references an unknown item.
// It matches ErrInvalidAction.
var ErrMissingItemData = fmt.Errorf("%w: missing item data", ErrInvalidAction)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidAction, fmt.Sprintf(format, args...))
}
