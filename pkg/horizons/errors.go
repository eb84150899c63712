package horizons

import (
	"errors"
	"fmt"
)

// ErrorClass represents a classification of transport failures.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx responses.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx responses.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassNetwork represents connection, timeout and body read failures.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassUnexpected represents any other non-200 status.
	ErrorClassUnexpected ErrorClass = "unexpected"
)

// TransportError is a terminal per-request failure: a non-200 status or a
// failure to talk to the service at all.
type TransportError struct {
	StatusCode int
	ErrorClass ErrorClass
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("horizons %s error (status %d): %s: %v",
			e.ErrorClass, e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("horizons %s error (status %d): %s",
		e.ErrorClass, e.StatusCode, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// StatusError builds a TransportError for a non-200 response.
func StatusError(statusCode int, status string) *TransportError {
	return &TransportError{
		StatusCode: statusCode,
		ErrorClass: ClassifyStatus(statusCode),
		Message:    status,
	}
}

// NetworkError wraps a failure that happened before or while reading a response.
func NetworkError(msg string, err error) *TransportError {
	return &TransportError{
		ErrorClass: ErrorClassNetwork,
		Message:    msg,
		Err:        err,
	}
}

// ClassifyStatus maps an HTTP status to an ErrorClass.
func ClassifyStatus(statusCode int) ErrorClass {
	switch {
	case statusCode >= 400 && statusCode < 500:
		return ErrorClassClient
	case statusCode >= 500:
		return ErrorClassServer
	default:
		return ErrorClassUnexpected
	}
}

// ClassOf returns the class of err, or ErrorClassNetwork for foreign errors.
func ClassOf(err error) ErrorClass {
	var te *TransportError
	if errors.As(err, &te) {
		return te.ErrorClass
	}
	return ErrorClassNetwork
}
