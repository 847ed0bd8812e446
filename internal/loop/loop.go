// Package loop runs the closed-loop simulation: once per sample period it
// reads MV from the controller, feeds it through the delay line into the
// plant model, and writes the resulting PV back. Any read or write failure
// invalidates the session; the loop reconnects (blocking, retry forever)
// and skips the rest of that tick, leaving the plant state untouched.
package loop

import (
	"context"
	"log"
	"time"

	"github.com/argonur/S7PLC-PID-simulation/internal/plant"
	"github.com/argonur/S7PLC-PID-simulation/internal/transport"
)

// RetryPolicy decides how long to wait before connect attempt attempt+1.
// Attempts are unbounded; the policy only shapes the spacing.
type RetryPolicy interface {
	Wait(attempt int) time.Duration
}

// Fixed is a RetryPolicy with a constant interval.
type Fixed time.Duration

// Wait returns the fixed interval regardless of attempt count.
func (f Fixed) Wait(int) time.Duration { return time.Duration(f) }

// Runner owns the plant state, the delay line and the current session, and
// drives the tick cycle. It is single-threaded: all state is mutated only
// from Run's goroutine.
type Runner struct {
	dialer transport.Dialer
	mvTag  string
	pvTag  string

	model *plant.Model
	delay *plant.DelayLine
	state plant.State
	ts    float64

	session transport.Session
	retry   RetryPolicy
	ticks   uint64

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// Option configures the Runner.
type Option func(*Runner)

// WithRetryPolicy replaces the default fixed 3-second reconnect spacing.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(r *Runner) { r.retry = p }
}

// WithClock replaces the wall clock and the sleeper. Tests use this to drive
// pacing and reconnect backoff without real time passing.
func WithClock(now func() time.Time, sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(r *Runner) {
		r.now = now
		r.sleep = sleep
	}
}

// New creates a Runner. ts is the sample period in seconds; initialPV seeds
// the plant state.
func New(dialer transport.Dialer, mvTag, pvTag string, model *plant.Model, delay *plant.DelayLine, ts, initialPV float64, opts ...Option) *Runner {
	r := &Runner{
		dialer: dialer,
		mvTag:  mvTag,
		pvTag:  pvTag,
		model:  model,
		delay:  delay,
		state:  plant.State{PV: initialPV},
		ts:     ts,
		retry:  Fixed(3 * time.Second),
		now:    time.Now,
		sleep:  sleepCtx,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// State returns a copy of the current plant state.
func (r *Runner) State() plant.State { return r.state }

// Ticks returns how many ticks completed the full read-step-write cycle.
// Skipped ticks do not count.
func (r *Runner) Ticks() uint64 { return r.ticks }

// Run executes the loop until ctx is cancelled, then tears the session down.
// The only exit path is cancellation; connectivity problems are retried
// forever.
func (r *Runner) Run(ctx context.Context) error {
	defer r.teardown()

	if err := r.connect(ctx); err != nil {
		return nil
	}
	for {
		if ctx.Err() != nil {
			log.Printf("interrupt received, shutting down")
			return nil
		}
		if err := r.tick(ctx); err != nil {
			// tick fails only on cancellation (observed inside
			// connect or the pacing sleep).
			log.Printf("interrupt received, shutting down")
			return nil
		}
	}
}

// tick performs one cycle: read MV, shift the delay line, step the model,
// write PV, pace to the sample period. On a failed read or write it
// reconnects and returns with pv and t unchanged.
func (r *Runner) tick(ctx context.Context) error {
	start := r.now()

	mv, err := r.session.Read(ctx, r.mvTag)
	if err != nil {
		return r.reconnect(ctx, "read MV", err)
	}

	mvDelayed := r.delay.Shift(mv)
	pv := r.model.Step(r.state.PV, mvDelayed, r.ts)

	if err := r.session.Write(ctx, r.pvTag, pv); err != nil {
		return r.reconnect(ctx, "write PV", err)
	}

	r.state.PV = pv
	r.ticks++
	log.Printf("t=%.2fs  MV=%.2f  MV_delayed=%.2f  PV=%.3f", r.state.T, mv, mvDelayed, pv)

	period := time.Duration(r.ts * float64(time.Second))
	elapsed := r.now().Sub(start)
	if elapsed < period {
		if err := r.sleep(ctx, period-elapsed); err != nil {
			return err
		}
	} else {
		log.Printf("warning: tick took %v > sample period %v", elapsed, period)
	}

	r.state.T += r.ts
	return nil
}

// reconnect discards the current session and blocks until a new one is up.
// The interrupted tick is not retried; the next tick starts fresh.
func (r *Runner) reconnect(ctx context.Context, op string, cause error) error {
	log.Printf("%s failed: %v, reconnecting", op, cause)
	if r.session != nil {
		if err := r.session.Close(ctx); err != nil {
			log.Printf("session close: %v", err)
		}
		r.session = nil
	}
	return r.connect(ctx)
}

// connect dials until it succeeds. It returns early only when ctx is
// cancelled.
func (r *Runner) connect(ctx context.Context) error {
	for attempt := 1; ; attempt++ {
		s, err := r.dialer.Dial(ctx)
		if err == nil {
			log.Printf("connected (attempt %d)", attempt)
			r.session = s
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		wait := r.retry.Wait(attempt)
		log.Printf("connect attempt %d failed: %v, retrying in %v", attempt, err, wait)
		if err := r.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// teardown closes the session if one is up. Failures are logged and
// swallowed: the process is exiting and the handle is gone either way.
func (r *Runner) teardown() {
	if r.session == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.session.Close(ctx); err != nil {
		log.Printf("disconnect: %v", err)
	} else {
		log.Printf("disconnected")
	}
	r.session = nil
}

// sleepCtx sleeps for d or until ctx is cancelled, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
