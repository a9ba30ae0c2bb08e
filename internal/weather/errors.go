package weather

import "errors"

var (
	// ErrNotFound is returned when geocoding yields zero matches.
	ErrNotFound = errors.New("location not found")

	// ErrUpstream covers network failures and non-2xx responses.
	ErrUpstream = errors.New("upstream error")

	// ErrMalformedResponse is returned when a provider payload cannot be
	// decoded or is missing expected keys.
	ErrMalformedResponse = errors.New("malformed provider response")

	// ErrInvalidQuery marks client errors in request parameters.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrSuperseded is returned by a search whose result arrived after a newer
	// search was issued. The result is discarded.
	ErrSuperseded = errors.New("search superseded by a newer query")

	// ErrProviderNotConfigured marks a section whose provider is missing, e.g.
	// because no API key was supplied.
	ErrProviderNotConfigured = errors.New("provider not configured")
)
