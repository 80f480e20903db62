package hostsem

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPostThenWait(t *testing.T) {
	s := New(0)
	s.Post()

	done := make(chan struct{})
	go func() {
		s.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after Post")
	}
}

func TestTryWaitOnEmptyFails(t *testing.T) {
	s := New(0)
	assert.False(t, s.TryWait())
}

func TestTimedWaitTimesOut(t *testing.T) {
	s := New(0)
	start := time.Now()
	ok := s.TimedWait(time.Now().Add(30 * time.Millisecond))
	assert.False(t, ok)
	assert.True(t, time.Since(start) >= 25*time.Millisecond)
}

func TestTimedWaitSucceedsWhenPosted(t *testing.T) {
	s := New(0)
	go func() {
		time.Sleep(5 * time.Millisecond)
		s.Post()
	}()
	ok := s.TimedWait(time.Now().Add(time.Second))
	assert.True(t, ok)
}

func TestPostNWakesMultipleWaiters(t *testing.T) {
	s := New(0)
	const n = 3
	done := make(chan struct{}, n)
	for i := 0; i < n; i++ {
		go func() {
			s.Wait()
			done <- struct{}{}
		}()
	}
	time.Sleep(10 * time.Millisecond) // let goroutines block
	s.PostN(n)

	for i := 0; i < n; i++ {
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("not all waiters woke up")
		}
	}
}
