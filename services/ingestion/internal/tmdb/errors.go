package tmdb

import (
	"errors"
	"fmt"
)

// ErrFetchFailed marks every failed TMDB operation. Callers skip the entity.
var ErrFetchFailed = errors.New("tmdb: fetch failed")

// FetchError describes one failed operation.
type FetchError struct {
	Op     string
	Path   string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("tmdb %s %s: status %d: %v", e.Op, e.Path, e.Status, e.Err)
	}
	return fmt.Sprintf("tmdb %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FetchError) Unwrap() []error {
	return []error{ErrFetchFailed, e.Err}
}

// IsSkipped reports whether err means the fetched entity should be skipped.
func IsSkipped(err error) bool {
	return errors.Is(err, ErrFetchFailed)
}
