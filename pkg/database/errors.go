package database

import (
	"errors"

	"github.com/Baryonic/aida/pkg/apperr"

	"gorm.io/gorm"
)

// Classify maps a gorm error onto the apperr taxonomy. notFound is the
// message callers see when the referenced row does not exist.
func Classify(err error, notFound string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperr.NotFound(notFound)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return apperr.Wrap(err, apperr.CodeNotFound, notFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperr.Wrap(err, apperr.CodeConflict, "record already exists")
	default:
		return apperr.Wrap(err, apperr.CodeInternal, "database error")
	}
}
