// Package errors is the typed sentinel taxonomy referenced throughout
// the pipeline's error-handling design (§7). Stages wrap these with
// fmt.Errorf("...: %w", ...) and compare with errors.Is downstream.
package errors

import "errors"

var (
	// ErrNotFound covers any missing row lookup: alert, context,
	// threat-intel record, or triage result.
	ErrNotFound = errors.New("sentryline: not found")

	// ErrValidation covers malformed inbound alerts, §4.1.
	ErrValidation = errors.New("sentryline: validation failed")

	// ErrDuplicate marks an alert whose fingerprint was already seen
	// inside the dedup window, §4.2.
	ErrDuplicate = errors.New("sentryline: duplicate alert")

	// ErrUpstreamUnavailable covers a threat-intel source, LLM
	// provider, or similarity service that is down or circuit-broken.
	ErrUpstreamUnavailable = errors.New("sentryline: upstream unavailable")

	// ErrUpstreamTimeout covers a bounded call (context collector,
	// similarity search) that exceeded its deadline, §4.3/§4.7.
	ErrUpstreamTimeout = errors.New("sentryline: upstream timeout")

	// ErrParseFailure covers an LLM response that could not be parsed
	// as the expected JSON shape even after the regex-extraction
	// fallback, §4.5.
	ErrParseFailure = errors.New("sentryline: response parse failure")

	// ErrRetryExhausted marks a message that failed all broker retry
	// attempts and was routed to its dead-letter queue, §6.
	ErrRetryExhausted = errors.New("sentryline: retry attempts exhausted")

	// ErrConfig marks a missing or invalid required configuration value.
	ErrConfig = errors.New("sentryline: invalid configuration")
)

// Is re-exports the stdlib errors.Is so callers only need to import
// this one package alongside it.
func Is(err, target error) bool { return errors.Is(err, target) }
