package oswait

import (
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRestartOnEINTRRetries(t *testing.T) {
	attempts := 0
	v, err := RestartOnEINTR(func() (int, error) {
		attempts++
		if attempts < 3 {
			return 0, syscall.EINTR
		}
		return 42, nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, 3, attempts)
}

func TestRestartOnEINTRPropagatesOtherErrors(t *testing.T) {
	_, err := RestartOnEINTR(func() (int, error) {
		return 0, syscall.EINVAL
	})
	assert.Equal(t, syscall.EINVAL, err)
}

func TestRestartOnEINTRUntilStopsAtDeadline(t *testing.T) {
	deadline := time.Now().Add(20 * time.Millisecond)
	attempts := 0
	_, err := RestartOnEINTRUntil(deadline, func(remaining time.Duration) (int, error) {
		attempts++
		time.Sleep(5 * time.Millisecond)
		return 0, syscall.EINTR
	})
	assert.Equal(t, syscall.EINTR, err)
	assert.True(t, attempts >= 1)
}

func TestDeadlineAndRemaining(t *testing.T) {
	d := Deadline(50)
	assert.True(t, Remaining(d) <= 50*time.Millisecond)
	assert.True(t, Remaining(d) > 0)

	past := time.Now().Add(-time.Second)
	assert.Equal(t, time.Duration(0), Remaining(past))
}
