package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/koe-app/koe/internal/plan"
	"github.com/koe-app/koe/internal/services"
	"github.com/koe-app/koe/internal/store"
	"github.com/koe-app/koe/internal/validation"
	"github.com/koe-app/koe/pkg/response"
)

const maxBodyBytes = 1 << 20

// readBody returns the raw JSON body, capped at maxBodyBytes. Validators
// decode it themselves.
func readBody(c *gin.Context) ([]byte, bool) {
	raw, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, response.ErrorBody{Error: "request body too large"})
			return nil, false
		}
		response.BadRequest(c, "could not read request body")
		return nil, false
	}
	return raw, true
}

// fail maps domain errors onto client responses. Anything unmapped is
// a 500 with a generic message.
func fail(c *gin.Context, err error) {
	response.Error(c, clientError(err))
}

func clientError(err error) error {
	var verr *validation.Errors
	if errors.As(err, &verr) {
		return response.NewValidation(verr.Fields)
	}

	switch {
	case errors.Is(err, validation.ErrEmptyUpdate):
		return response.NewBadRequest(validation.ErrEmptyUpdate.Error())
	case errors.Is(err, store.ErrNotFound):
		return response.NewNotFound("not found")
	case errors.Is(err, store.ErrForbidden):
		return response.NewForbidden("forbidden")
	case errors.Is(err, store.ErrConflict):
		return response.NewConflict("already exists")
	case errors.Is(err, plan.ErrLimitReached):
		return response.NewForbidden("plan limit reached, upgrade to Pro to add more")
	case errors.Is(err, services.ErrStorageDisabled):
		return response.NewServiceUnavailable("logo uploads are not available")
	case errors.Is(err, services.ErrBillingDisabled):
		return response.NewServiceUnavailable("billing is not available")
	case errors.Is(err, services.ErrNoBillingAccount):
		return response.NewBadRequest("no billing account yet, upgrade first")
	case errors.Is(err, services.ErrAlreadyPro):
		return response.NewConflict("already on the Pro plan")
	case errors.Is(err, services.ErrInvalidSignature):
		return response.NewBadRequest("invalid signature")
	}
	return err
}
