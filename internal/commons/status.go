package commons

import (
	"errors"
	"net/http"

	"github.com/pay-seva/sms-payment-processor/internal/domain"
)

// HTTPStatus maps each domain error kind to a stable status code so a
// client can tell "invalid pin" from "insufficient balance" from
// "temporarily undeliverable".
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrMalformedEnvelope),
		errors.Is(err, domain.ErrPayloadParse):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrAuthentication),
		errors.Is(err, domain.ErrInvalidPin):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrReplay),
		errors.Is(err, domain.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInsufficientBalance):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrCodec):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
