package resilience

import (
	"errors"
	"fmt"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
)

func TestRetryOn_MatchesWrappedSentinel(t *testing.T) {
	pred := RetryOn(ErrNavigationTimeout, ErrElementNotFound)

	assert.True(t, pred(Timeout(errors.New("deadline"), "click link")))
	assert.True(t, pred(NotFound("h3.title")))
	assert.True(t, pred(fmt.Errorf("outer: %w", eris.Wrap(ErrElementNotFound, "inner"))))
	assert.False(t, pred(errors.New("stale element")))
	assert.False(t, pred(nil))
}

func TestIsFatal(t *testing.T) {
	assert.True(t, IsFatal(eris.Wrap(ErrSessionUnavailable, "run")))
	assert.True(t, IsFatal(eris.Wrap(ErrCatalogRead, "cinemas")))
	assert.False(t, IsFatal(eris.Wrap(ErrCatalogWrite, "cinemas")))
	assert.False(t, IsFatal(NotFound("div.card")))
}

func TestTimeout_KeepsCauseInMessage(t *testing.T) {
	err := Timeout(errors.New("context deadline exceeded"), "wait body")
	assert.Contains(t, err.Error(), "wait body")
	assert.Contains(t, err.Error(), "context deadline exceeded")
	assert.True(t, errors.Is(err, ErrNavigationTimeout))
}
