package services

import "fmt"

// ErrorKind tags a ServiceError with its place in the failure taxonomy, so
// callers can react to the class of failure without parsing messages.
type ErrorKind string

const (
	KindValidation             ErrorKind = "validation"
	KindRateLimited            ErrorKind = "rate_limited"
	KindCardDeclined           ErrorKind = "card_declined"
	KindGatewayRequestInvalid  ErrorKind = "gateway_request_invalid"
	KindGatewayAuthFailure     ErrorKind = "gateway_auth_failure"
	KindGatewayConnectivity    ErrorKind = "gateway_connectivity"
	KindReconciliationRequired ErrorKind = "reconciliation_required"
	KindInternal               ErrorKind = "internal"
)

// ServiceError is a typed error with an HTTP status code. Message is safe to
// return to the client; Err carries internal detail for logs only.
type ServiceError struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	Err        error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error { return e.Err }

func validationError(msg string) *ServiceError {
	return &ServiceError{Kind: KindValidation, StatusCode: 400, Message: msg}
}
