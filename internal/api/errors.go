package api

import "fmt"

// FetchError is a network failure, a non-2xx status, or a body that is not JSON.
type FetchError struct {
	URL    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.URL, e.Status, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ShapeError is a response missing a required top-level field.
type ShapeError struct {
	URL   string
	Field string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("invalid response from %s: missing %s", e.URL, e.Field)
}
