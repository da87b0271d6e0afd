package services

import (
	"github.com/mrlokans/bookshare/internal/apperr"
	"github.com/mrlokans/bookshare/internal/database"
)

// lookupErr maps a GetByID failure to NotFound or Unavailable.
func lookupErr(err error, resource string, id uint) error {
	if database.IsNotFound(err) {
		return apperr.NotFound(resource, id)
	}
	return apperr.Unavailable("load "+resource, err)
}

// passThrough keeps errors already classified by a nested call.
func passThrough(err error, op string) error {
	if apperr.Message(err) != "" {
		return err
	}
	return apperr.Unavailable(op, err)
}
