package sqlite

import (
	"fmt"
	"strings"

	"github.com/rpggio/scopeguard/internal/repository"
)

func isForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

func isCheckViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "CHECK constraint failed")
}

// mapConstraintErr converts constraint failures to repository errors.
func mapConstraintErr(err error, action string) error {
	switch {
	case isForeignKeyViolation(err):
		return fmt.Errorf("%s: %w", action, repository.ErrForeignKeyViolation)
	case isCheckViolation(err):
		return fmt.Errorf("%s: %w", action, repository.ErrInvalidInput)
	default:
		return fmt.Errorf("%s: %w", action, err)
	}
}
