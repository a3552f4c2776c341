// Package sessionerrors classifies the failures that end a payment session attempt.
package sessionerrors

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindTokenMissing    Kind = "token_missing"
	KindNetworkError    Kind = "network_error"
	KindBackendRejected Kind = "backend_rejected"
	KindScriptLoadError Kind = "script_load_error"
	KindWidgetNotReady  Kind = "widget_not_ready"
)

// Error carries a message meant for the shopper next to the underlying cause.
type Error struct {
	Kind        Kind
	UserMessage string
	NotFound    bool
	err         error
}

func (e *Error) Error() string {
	if e.err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.UserMessage)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.err.Error())
}

func (e *Error) Unwrap() error {
	return e.err
}

func NewTokenMissingError() *Error {
	return &Error{
		Kind:        KindTokenMissing,
		UserMessage: "Payment token not found.",
		NotFound:    true,
	}
}

func NewNetworkError(err error) *Error {
	return &Error{
		Kind:        KindNetworkError,
		UserMessage: "Could not reach the payment service. Check your connection and try again.",
		err:         err,
	}
}

// NewBackendRejectedError uses the backend message for the shopper when there is one.
func NewBackendRejectedError(message string, notFound bool, err error) *Error {
	if message == "" {
		message = "The payment could not be loaded."
	}
	return &Error{
		Kind:        KindBackendRejected,
		UserMessage: message,
		NotFound:    notFound,
		err:         err,
	}
}

func NewScriptLoadError(err error) *Error {
	return &Error{
		Kind:        KindScriptLoadError,
		UserMessage: "The payment form could not be loaded. Check your connection and try again.",
		err:         err,
	}
}

func NewWidgetNotReadyError(err error) *Error {
	return &Error{
		Kind:        KindWidgetNotReady,
		UserMessage: "The payment form is not ready. Please reload the page.",
		err:         err,
	}
}

// KindOf returns the empty kind for errors outside the taxonomy.
func KindOf(err error) Kind {
	var sessionErr *Error
	if errors.As(err, &sessionErr) {
		return sessionErr.Kind
	}
	return ""
}

func UserMessageOf(err error) string {
	var sessionErr *Error
	if errors.As(err, &sessionErr) {
		return sessionErr.UserMessage
	}
	if err == nil {
		return ""
	}
	return "Something went wrong while preparing the payment."
}

func IsNotFound(err error) bool {
	var sessionErr *Error
	return errors.As(err, &sessionErr) && sessionErr.NotFound
}
