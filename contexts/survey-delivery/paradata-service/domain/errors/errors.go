package errors

import "errors"

var (
	// ErrMalformedMetadata rejects an ingest payload missing a required field.
	// The payload is surfaced for correction, never silently dropped.
	ErrMalformedMetadata = errors.New("paradata metadata is malformed")

	ErrResponseNotFound = errors.New("paradata response not found")
	ErrResponseExists   = errors.New("paradata response already exists")
	ErrVerdictNotFound  = errors.New("quality verdict not found")
	ErrInvalidInput     = errors.New("paradata input is invalid")
)
