package repository

import (
	"errors"

	"gorm.io/gorm"
)

// errDuplicate is returned by create/update when a unique index is violated.
var errDuplicate = errors.New("duplicate key")

// mapGormError converts GORM errors to the given not-found error or to
// errDuplicate, leaving anything else wrapped as is.
func mapGormError(err error, notFound func() error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if notFound != nil {
			return notFound()
		}
		return err
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return errors.Join(errDuplicate, err)
	}
	return err
}

// IsDuplicate reports whether err came from a unique index violation.
func IsDuplicate(err error) bool {
	return errors.Is(err, errDuplicate) || errors.Is(err, gorm.ErrDuplicatedKey)
}
