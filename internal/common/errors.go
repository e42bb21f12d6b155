// Package common defines sentinel errors and constants shared by the bot,
// the record store and the process plumbing. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors.
	ErrorInternal = errors.New("internal error")

	// Conversation errors.
	ErrNoSession       = errors.New("no open session")
	ErrUnexpectedInput = errors.New("unexpected session input")

	// Delivery errors (the typed send and the document fallback both failed).
	ErrDeliveryFailed = errors.New("delivery failed")
)
