package providers

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingCredential is matched by every CredentialError.
	ErrMissingCredential = errors.New("missing credential")
	// ErrGenerationService is matched by every ServiceError.
	ErrGenerationService = errors.New("generation service error")
	// ErrInvalidRequest is returned for requests rejected before any network call.
	ErrInvalidRequest = errors.New("invalid generation request")
)

// CredentialError reports a required API key that was not configured.
type CredentialError struct {
	Service  string
	Variable string
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf("%s: %s is not set", e.Service, e.Variable)
}

func (e *CredentialError) Is(target error) bool {
	return target == ErrMissingCredential
}

// ServiceError reports a transport failure, a non-2xx status or a response
// that could not be understood.
type ServiceError struct {
	Service    string
	Op         string
	StatusCode int
	Err        error
}

func (e *ServiceError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Service, e.Op)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return target == ErrGenerationService
}

// ErrorKind is the closed set of failure categories reported to the operator.
type ErrorKind int

const (
	KindUnexpected ErrorKind = iota
	KindMissingCredential
	KindGenerationService
)

func (k ErrorKind) String() string {
	switch k {
	case KindMissingCredential:
		return "missing-credential"
	case KindGenerationService:
		return "generation-service"
	default:
		return "unexpected"
	}
}

// Classify maps err onto an ErrorKind. A nil error is unexpected.
func Classify(err error) ErrorKind {
	switch {
	case err == nil:
		return KindUnexpected
	case errors.Is(err, ErrMissingCredential):
		return KindMissingCredential
	case errors.Is(err, ErrGenerationService):
		return KindGenerationService
	default:
		return KindUnexpected
	}
}

func newServiceError(service, op string, status int, err error) *ServiceError {
	return &ServiceError{Service: service, Op: op, StatusCode: status, Err: err}
}
