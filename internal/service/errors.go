package service

import (
	"fmt"

	"github.com/iliyamo/planning-poker/internal/repository"
)

// errConflict wraps repository.ErrConflict with a human-readable
// message.  Handlers match with errors.Is and forward the message.
func errConflict(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{repository.ErrConflict}, args...)...)
}

// errValidation wraps repository.ErrValidation the same way.
func errValidation(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{repository.ErrValidation}, args...)...)
}
