package core

import (
	"fmt"
	"strings"
)

// InvalidRequestError reports a malformed session request. It is never retried.
type InvalidRequestError struct {
	Request SessionRequest
	Reason  string
}

func (e *InvalidRequestError) Error() string {
	return fmt.Sprintf("invalid session request (season=%d session=%s): %s",
		e.Request.Season, e.Request.SessionType, e.Reason)
}

// FetchFailedError reports that the provider failed to deliver one session.
type FetchFailedError struct {
	Request SessionRequest
	Cause   error
}

func (e *FetchFailedError) Error() string {
	return fmt.Sprintf("fetch session (season=%d identifier=%s session=%s): %v",
		e.Request.Season, e.Request.Identifier, e.Request.SessionType, e.Cause)
}

func (e *FetchFailedError) Unwrap() error {
	return e.Cause
}

// ScheduleFetchFailedError reports that a season calendar could not be retrieved.
type ScheduleFetchFailedError struct {
	Year  int
	Cause error
}

func (e *ScheduleFetchFailedError) Error() string {
	return fmt.Sprintf("fetch event schedule for season %d: %v", e.Year, e.Cause)
}

func (e *ScheduleFetchFailedError) Unwrap() error {
	return e.Cause
}

// SchemaViolationError lists every required column absent from a table.
type SchemaViolationError struct {
	Table   string
	Missing []string
}

func (e *SchemaViolationError) Error() string {
	return fmt.Sprintf("%s is missing required columns: [%s]", e.Table, strings.Join(e.Missing, ", "))
}
