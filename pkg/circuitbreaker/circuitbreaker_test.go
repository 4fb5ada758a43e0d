package circuitbreaker

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
)

func TestNew_TripsAfterConsecutiveFailures(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	cb := New(Settings{Name: "test", TripAfter: 2, OpenTimeout: time.Minute}, &logger)

	boom := errors.New("boom")
	fail := func() (interface{}, error) { return nil, boom }

	_, err := cb.Execute(fail)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, gobreaker.StateClosed, cb.State())

	_, err = cb.Execute(fail)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, gobreaker.StateOpen, cb.State())

	_, err = cb.Execute(func() (interface{}, error) { return "ok", nil })
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Contains(t, buf.String(), "circuit breaker state changed")
}

func TestNew_Defaults(t *testing.T) {
	s := withDefaults(Settings{Name: "x"})
	assert.Equal(t, uint32(5), s.TripAfter)
	assert.Equal(t, 30*time.Second, s.OpenTimeout)

	cb := New(Settings{Name: "quiet"}, nil)
	assert.Equal(t, "quiet", cb.Name())
}
