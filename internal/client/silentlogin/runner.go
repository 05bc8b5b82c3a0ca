package silentlogin

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"bazaar/internal/domain/environment"
	"bazaar/internal/errors"

	"golang.org/x/sync/errgroup"
)

const (
	visitKeyPrefix        = "bazaar.silent-login."
	defaultDriverDeadline = 15 * time.Second
)

// Status is how a driver's mount ended.
type Status string

const (
	StatusDisabled   Status = "disabled"
	StatusAttempted  Status = "already_attempted"
	StatusSkipped    Status = "session_exists"
	StatusNoop       Status = "no_credential"
	StatusRedirected Status = "redirected"
	StatusSignedIn   Status = "signed_in"
	StatusFailed     Status = "failed"
)

// Outcome records one driver's result. Err is set only for StatusFailed.
type Outcome struct {
	Driver string
	Status Status
	Err    error
}

// Runner mounts every driver on each page load.
type Runner struct {
	drivers  []Driver
	visit    KeyValueStore
	deadline time.Duration
	logger   *slog.Logger
}

type RunnerOption func(*Runner)

// WithDeadline bounds each driver run, so a hung provider still degrades to guest.
func WithDeadline(d time.Duration) RunnerOption {
	return func(r *Runner) { r.deadline = d }
}

func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) { r.logger = logger }
}

// NewRunner builds a runner. visit is per-visit storage (session storage in a browser)
// used to attempt each driver at most once per visit.
func NewRunner(visit KeyValueStore, drivers []Driver, opts ...RunnerOption) *Runner {
	r := &Runner{
		drivers:  drivers,
		visit:    visit,
		deadline: defaultDriverDeadline,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Mount starts every enabled driver concurrently and waits for all of them.
// Driver failures never propagate; the visitor simply stays a guest.
func (r *Runner) Mount(ctx context.Context, signals environment.Signals) []Outcome {
	outcomes := make([]Outcome, len(r.drivers))

	var mu sync.Mutex
	group, groupCtx := errgroup.WithContext(ctx)

	for i, driver := range r.drivers {
		name := driver.Name()
		outcomes[i] = Outcome{Driver: name, Status: StatusDisabled}

		if !driver.Enabled(signals) {
			continue
		}

		key := visitKeyPrefix + name
		mu.Lock()
		_, attempted := r.visit.Get(key)
		if !attempted {
			r.visit.Set(key, time.Now().UTC().Format(time.RFC3339))
		}
		mu.Unlock()

		if attempted {
			outcomes[i].Status = StatusAttempted

			if revisitor, ok := driver.(Revisitor); ok {
				group.Go(func() error {
					runCtx, cancel := context.WithTimeout(groupCtx, r.deadline)
					defer cancel()

					if err := revisitor.Revisit(runCtx); err != nil {
						r.logger.Warn("Silent login revisit failed",
							slog.String("driver", name),
							slog.Any("error", err),
						)
					}

					return nil
				})
			}

			continue
		}

		group.Go(func() error {
			runCtx, cancel := context.WithTimeout(groupCtx, r.deadline)
			defer cancel()

			outcomes[i] = r.run(runCtx, driver)

			// The page comes back from a provider redirect within the same visit. The
			// driver keeps its own guard against redirecting twice.
			if outcomes[i].Status == StatusRedirected {
				mu.Lock()
				r.visit.Delete(key)
				mu.Unlock()
			}

			return nil
		})
	}

	_ = group.Wait()

	return outcomes
}

func (r *Runner) run(ctx context.Context, driver Driver) (outcome Outcome) {
	outcome = Outcome{Driver: driver.Name()}

	defer func() {
		if p := recover(); p != nil {
			outcome.Status = StatusFailed
			outcome.Err = errors.Errorf("driver panicked: %v", p)
			r.logger.Error("Silent login driver panicked", slog.String("driver", outcome.Driver), slog.Any("panic", p))
		}
	}()

	err := driver.Run(ctx)
	switch {
	case err == nil:
		outcome.Status = StatusSignedIn
	case errors.Is(err, ErrSessionExists):
		outcome.Status = StatusSkipped
	case errors.Is(err, ErrNoCredential):
		outcome.Status = StatusNoop
	case errors.Is(err, ErrRedirected):
		outcome.Status = StatusRedirected
	default:
		outcome.Status = StatusFailed
		outcome.Err = err
		r.logger.Warn("Silent login failed, continuing as guest",
			slog.String("driver", outcome.Driver),
			slog.Any("error", err),
		)
	}

	return outcome
}
