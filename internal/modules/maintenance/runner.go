// Package maintenance drives the booking sweeps: lazily from read paths,
// periodically from a scheduler, or on demand.
package maintenance

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"studiomarket/internal/pkg/logger"
)

// Sweeper is implemented by the booking service.
type Sweeper interface {
	SweepExpiredBookings(ctx context.Context) (int, error)
	SweepAutoComplete(ctx context.Context) (int, error)
	SweepUnlockMaturedFunds(ctx context.Context) (int, error)
}

type Result struct {
	Expired   int `json:"expired"`
	Completed int `json:"completed"`
	Unlocked  int `json:"unlocked"`
}

type Runner struct {
	sweeper  Sweeper
	log      *logrus.Logger
	throttle time.Duration
	group    singleflight.Group

	mu      sync.Mutex
	lastRun time.Time
	now     func() time.Time
}

func NewRunner(sweeper Sweeper, log *logrus.Logger, throttle time.Duration) *Runner {
	return &Runner{
		sweeper:  sweeper,
		log:      logger.OrDiscard(log),
		throttle: throttle,
		now:      time.Now,
	}
}

// RunAll runs expiry, completion and unlock in that order. Concurrent callers
// share one pass. A failing sweep does not stop the ones after it.
func (r *Runner) RunAll(ctx context.Context) (Result, error) {
	v, err, _ := r.group.Do("sweep", func() (any, error) {
		return r.runAll(ctx)
	})
	res, _ := v.(Result)
	return res, err
}

func (r *Runner) runAll(ctx context.Context) (Result, error) {
	start := r.now()
	r.mu.Lock()
	r.lastRun = start
	r.mu.Unlock()

	var (
		res  Result
		errs []error
	)
	steps := []struct {
		name string
		fn   func(context.Context) (int, error)
		dst  *int
	}{
		{"expire", r.sweeper.SweepExpiredBookings, &res.Expired},
		{"complete", r.sweeper.SweepAutoComplete, &res.Completed},
		{"unlock", r.sweeper.SweepUnlockMaturedFunds, &res.Unlocked},
	}
	for _, step := range steps {
		n, err := step.fn(ctx)
		*step.dst = n
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", step.name, err))
		}
	}

	entry := r.log.WithFields(logrus.Fields{
		"expired":   res.Expired,
		"completed": res.Completed,
		"unlocked":  res.Unlocked,
		"took":      time.Since(start).String(),
	})
	if len(errs) > 0 {
		err := errors.Join(errs...)
		entry.WithError(err).Warn("maintenance pass finished with errors")
		return res, err
	}
	entry.Debug("maintenance pass finished")
	return res, nil
}

// due reports whether the throttle window since the last pass has elapsed.
func (r *Runner) due() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastRun.IsZero() || r.now().Sub(r.lastRun) >= r.throttle
}
