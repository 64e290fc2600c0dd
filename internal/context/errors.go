package context

import (
	"errors"
	"fmt"
)

var ErrIncompleteContext = errors.New("incomplete bot context")

func errMissing(what string) error {
	return fmt.Errorf("%w: missing %s", ErrIncompleteContext, what)
}
