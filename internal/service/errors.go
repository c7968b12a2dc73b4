package service

import (
	"errors"

	"github.com/listenupapp/pagebound-server/internal/domain"
	domainerrors "github.com/listenupapp/pagebound-server/internal/errors"
	"github.com/listenupapp/pagebound-server/internal/store"
)

// mapStoreError converts persistence sentinels into service errors.
// notFoundMsg is used when err is store.ErrNotFound.
func mapStoreError(err error, notFoundMsg string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return domainerrors.NotFound(notFoundMsg)
	default:
		return err
	}
}

// validationError converts domain field errors into a 400 with details.
func validationError(err error) error {
	var verrs domain.ValidationErrors
	if errors.As(err, &verrs) {
		return domainerrors.ValidationWithDetails(verrs.Error(), verrs.Fields())
	}
	return domainerrors.Validation(err.Error())
}
