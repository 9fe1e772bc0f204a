package httpx

import (
	"errors"
	"net/http"

	"github.com/gescom-app/gescom/internal/shared"
)

// RespondError maps domain errors to HTTP responses using RFC7807.
//
// Locked and already-settled failures are user-facing warnings (409), not
// crashes. Sequence exhaustion is an operational failure and maps to 500.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, shared.ErrLocked):
		Problem(w, http.StatusConflict, "Order Locked", err.Error())
	case errors.Is(err, shared.ErrAlreadySettled):
		Problem(w, http.StatusConflict, "Already Settled", err.Error())
	case errors.Is(err, shared.ErrInvalidCredentials):
		Problem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
	case errors.Is(err, shared.ErrForbidden):
		Problem(w, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, shared.ErrSequenceExhausted):
		Problem(w, http.StatusInternalServerError, "Numbering Failure", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
