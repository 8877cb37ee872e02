package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/showtimes-cli/internal/model"
)

func TestRunner_Run(t *testing.T) {
	f := newFixture(t)
	a := f.adapter(t, "sn_dakar")
	r := NewRunner(f.pipeline(nil), standardSession(a))

	res, err := r.Run(context.Background(), Request{SiteKey: "sn_dakar"})
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusOK, res.Status)
	assert.Equal(t, 3, res.Persistable)
	assert.False(t, r.Busy())
}

func TestRunner_RefusesWhileInFlight(t *testing.T) {
	f := newFixture(t)
	a := f.adapter(t, "sn_dakar")
	s := standardSession(a)

	entered := make(chan struct{})
	release := make(chan struct{})
	s.OnNavigate = func(string) {
		close(entered)
		<-release
	}
	r := NewRunner(f.pipeline(nil), s)

	reply, err := r.Start(context.Background(), Request{SiteKey: "sn_dakar"})
	require.NoError(t, err)
	<-entered
	assert.True(t, r.Busy())

	_, err = r.Start(context.Background(), Request{SiteKey: "sn_dakar"})
	assert.ErrorIs(t, err, ErrBusy)

	close(release)
	select {
	case res := <-reply:
		require.NotNil(t, res)
		assert.Equal(t, model.RunStatusOK, res.Status)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not finish")
	}
	_, open := <-reply
	assert.False(t, open, "reply channel is closed after the result")
	assert.False(t, r.Busy())

	s.OnNavigate = nil
	res, err := r.Run(context.Background(), Request{SiteKey: "sn_dakar"})
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusOK, res.Status)
}

func TestRunner_FailedRunIsReported(t *testing.T) {
	f := newFixture(t)
	r := NewRunner(f.pipeline(nil), nil)

	res, err := r.Run(context.Background(), Request{SiteKey: "sn_dakar"})
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusFailed, res.Status)
	assert.Error(t, res.Err)
	assert.False(t, r.Busy())
}
