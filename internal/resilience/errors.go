package resilience

import (
	"errors"

	"github.com/rotisserie/eris"
)

// Error taxonomy shared by the navigation, extraction and catalog layers.
// Call sites wrap these with eris so the original cause stays in the
// message while errors.Is still matches the class.
var (
	// ErrSessionUnavailable means no live browser session was handed to the
	// pipeline. Fatal for the run.
	ErrSessionUnavailable = eris.New("browser session unavailable")

	// ErrNavigationTimeout means a bounded wait expired.
	ErrNavigationTimeout = eris.New("navigation timeout")

	// ErrElementNotFound means a locator matched nothing.
	ErrElementNotFound = eris.New("element not found")

	// ErrCatalogRead means a catalog backing file exists but could not be
	// parsed. Fatal for that catalog.
	ErrCatalogRead = eris.New("catalog read failed")

	// ErrCatalogWrite means a catalog could not be written back.
	ErrCatalogWrite = eris.New("catalog write failed")
)

// RetryOn returns a predicate reporting whether err matches any of targets.
func RetryOn(targets ...error) func(error) bool {
	return func(err error) bool {
		if err == nil {
			return false
		}
		for _, t := range targets {
			if errors.Is(err, t) {
				return true
			}
		}
		return false
	}
}

// IsFatal reports whether err must abort the whole run rather than degrade it.
func IsFatal(err error) bool {
	return errors.Is(err, ErrSessionUnavailable) || errors.Is(err, ErrCatalogRead)
}

// Timeout wraps cause as a navigation timeout for the given operation.
func Timeout(cause error, op string) error {
	return eris.Wrapf(ErrNavigationTimeout, "%s: %v", op, cause)
}

// NotFound wraps a missing-element failure for the given locator.
func NotFound(locator string) error {
	return eris.Wrapf(ErrElementNotFound, "locator %q", locator)
}
