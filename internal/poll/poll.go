// Package poll waits on long-running remote work with a fixed interval and
// an overall wait budget.
package poll

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrTimeout is returned when the wait budget runs out before the check
// reports done. The remote work is not told to stop.
var ErrTimeout = errors.New("wait budget exceeded")

// ErrInvalidInterval is returned by Until when Interval is not positive.
var ErrInvalidInterval = errors.New("poll interval must be positive")

// SleepFunc blocks for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// CheckFunc is called once per attempt. elapsed is measured from the start
// of Until. Returning an error ends the wait immediately.
type CheckFunc func(ctx context.Context, attempt int, elapsed time.Duration) (done bool, err error)

// Poller calls a check, then sleeps Interval, until the check reports done
// or MaxWait would be exceeded by the next sleep. MaxWait <= 0 waits forever.
type Poller struct {
	Interval time.Duration
	MaxWait  time.Duration
	Clock    Clock     // nil = RealClock
	Sleep    SleepFunc // nil = ctx-aware timer
}

// Until runs check until it reports done. The first check happens
// immediately; a check that returns false on every attempt within the budget
// yields ErrTimeout.
func (p Poller) Until(ctx context.Context, check CheckFunc) error {
	if p.Interval <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidInterval, p.Interval)
	}
	clock := p.Clock
	if clock == nil {
		clock = RealClock()
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = Sleep
	}

	start := clock.Now()
	for attempt := 1; ; attempt++ {
		done, err := check(ctx, attempt, clock.Now().Sub(start))
		if err != nil {
			return err
		}
		if done {
			return nil
		}

		elapsed := clock.Now().Sub(start)
		if p.MaxWait > 0 && elapsed+p.Interval > p.MaxWait {
			return fmt.Errorf("%w: not done after %s (%d attempts)", ErrTimeout, elapsed.Round(time.Second), attempt)
		}
		if err := sleep(ctx, p.Interval); err != nil {
			return err
		}
	}
}

// Sleep waits for d, returning ctx.Err() if ctx ends first.
func Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
