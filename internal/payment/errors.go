package payment

import (
	"fmt"
	"net/http"
	"time"

	"github.com/frahmantamala/iyzipay-checkout/internal"
)

func ErrMalformedPayload(cause error) *internal.AppError {
	return internal.NewValidationError("Missing required parameters", internal.ErrCodeMalformedPayload).WithCause(cause)
}

func ErrInvalidSignature() *internal.AppError {
	return internal.NewValidationError("Invalid signature", internal.ErrCodeInvalidSignature)
}

func ErrMissingToken(message string) *internal.AppError {
	return internal.NewValidationError(message, internal.ErrCodeMissingToken)
}

func ErrInvalidCorrelation() *internal.AppError {
	return internal.NewValidationError("Invalid basket ID format", internal.ErrCodeInvalidCorrelation)
}

func ErrPaymentRecordNotFound() *internal.AppError {
	return internal.NewValidationError("Payment information not found", internal.ErrCodePaymentRecordNotFound)
}

func ErrPaymentFailed(status string) *internal.AppError {
	return internal.NewValidationError(fmt.Sprintf("Payment failed. Status: %s", status), internal.ErrCodePaymentFailed)
}

func ErrCartEmpty(message string) *internal.AppError {
	return internal.NewValidationError(message, internal.ErrCodeCartEmpty)
}

func ErrOrderCreationFailed(cause error) *internal.AppError {
	return internal.NewValidationError("Failed to create order", internal.ErrCodeOrderCreationFailed).WithCause(cause)
}

// ErrRemoteGateway keeps the gateway's own message visible to the caller.
func ErrRemoteGateway(message string, cause error) *internal.AppError {
	appErr := internal.NewExternalError(message, internal.ErrCodeRemoteGateway, cause)
	appErr.StatusCode = http.StatusBadRequest
	return appErr
}

func ErrPaymentIDNotFound() *internal.AppError {
	return internal.NewValidationError("Payment ID not found in order", internal.ErrCodePaymentIDNotFound)
}

func ErrCancelWindowElapsed(window time.Duration) *internal.AppError {
	msg := fmt.Sprintf("Payment can only be cancelled within %d hours", int(window.Hours()))
	return internal.NewValidationError(msg, internal.ErrCodeCancelWindowElapsed)
}

func ErrUnsupportedMode(mode string) *internal.AppError {
	return internal.NewValidationError(fmt.Sprintf("Unsupported payment mode: %s", mode), internal.ErrCodeUnsupportedMode)
}
