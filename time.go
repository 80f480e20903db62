package osal

import (
	"time"

	"golang.org/x/sys/unix"
)

// TimeValue reports seconds + microseconds since the host epoch, the
// return shape of GetLocalTime/SetLocalTime (spec.md §6).
type TimeValue struct {
	Seconds      int64
	Microseconds int64
}

// GetLocalTime reports the current wall-clock time via unix.Gettimeofday,
// go-ublk's own dependency, the way internal/queue/runner.go reaches for
// golang.org/x/sys/unix for calls the stdlib doesn't expose directly.
func GetLocalTime() (TimeValue, Status) {
	var tv unix.Timeval
	if err := unix.Gettimeofday(&tv); err != nil {
		current().log.Error("GetLocalTime failed", "error", err)
		return TimeValue{}, StatusError
	}
	return TimeValue{Seconds: int64(tv.Sec), Microseconds: int64(tv.Usec)}, StatusSuccess
}

// SetLocalTime sets the host wall clock.
func SetLocalTime(t TimeValue) Status {
	tv := unix.Timeval{Sec: t.Seconds, Usec: t.Microseconds}
	if err := unix.Settimeofday(&tv); err != nil {
		current().log.Error("SetLocalTime failed", "error", err)
		return StatusError
	}
	return StatusSuccess
}

// Tick2Micros returns microseconds per host tick. spec.md §9 flags the
// source's version of this as a bug (integer division collapsing to 0);
// this reimplementation returns the corrected value.
func Tick2Micros() int64 {
	ticksPerSecond := current().cfg.TicksPerSecond
	if ticksPerSecond <= 0 {
		ticksPerSecond = 100
	}
	return 1_000_000 / int64(ticksPerSecond)
}

// Milli2Ticks converts a millisecond duration into host ticks, rounding
// up per spec.md §6 (⌈ms·1000 / tick_us⌉).
func Milli2Ticks(ms uint32) uint32 {
	tickUs := Tick2Micros()
	if tickUs <= 0 {
		return 0
	}
	totalUs := int64(ms) * 1000
	return uint32((totalUs + tickUs - 1) / tickUs)
}

// absoluteDeadline computes a monotonic deadline from a relative
// millisecond value, per spec.md §4.3/§4.4's "convert relative ms to an
// absolute deadline" rule. Computed once per call and never recomputed on
// a signal-restart (spec.md §9).
func absoluteDeadline(ms uint32) time.Time {
	return time.Now().Add(time.Duration(ms) * time.Millisecond)
}
