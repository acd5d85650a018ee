package spray

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sync/atomic"
	"time"

	golog "github.com/fclairamb/go-log"
	"golang.org/x/sync/errgroup"

	"github.com/mmcdole/azspray/pkg/candidates"
	"github.com/mmcdole/azspray/pkg/classify"
	"github.com/mmcdole/azspray/pkg/metrics"
)

// DefaultWorkers is the pool size when none is configured
const DefaultWorkers = 1

// Attempter performs one authentication attempt. A returned error means the
// provider's answer could not be obtained; provider rejections are Responses.
type Attempter interface {
	Attempt(ctx context.Context, user, password string) (classify.Response, error)
}

// AttempterFunc adapts a function to Attempter
type AttempterFunc func(ctx context.Context, user, password string) (classify.Response, error)

func (f AttempterFunc) Attempt(ctx context.Context, user, password string) (classify.Response, error) {
	return f(ctx, user, password)
}

// Config holds worker pool settings
type Config struct {
	// Workers is the number of concurrent attempts
	Workers int
	// ContinueOnError logs transport failures and keeps going instead of
	// aborting the spray on the first one
	ContinueOnError bool
}

// Stats is a snapshot of spray progress
type Stats struct {
	Attempted int64
	Skipped   int64
	Failed    int64
	Unknown   int64
	InFlight  int64
	Summary
}

// Option configures a Sprayer
type Option func(*Sprayer)

// WithClassifier replaces the zero Classifier
func WithClassifier(c classify.Classifier) Option {
	return func(s *Sprayer) {
		s.classifier = c
	}
}

// WithLogger sets the diagnostic logger
func WithLogger(logger golog.Logger) Option {
	return func(s *Sprayer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics sets the metrics recorder
func WithMetrics(recorder metrics.Recorder) Option {
	return func(s *Sprayer) {
		if recorder != nil {
			s.metrics = recorder
		}
	}
}

// Sprayer fans candidates out to a fixed pool of workers
type Sprayer struct {
	cfg        Config
	attempter  Attempter
	state      *State
	classifier classify.Classifier
	logger     golog.Logger
	metrics    metrics.Recorder

	attempted atomic.Int64
	skipped   atomic.Int64
	failed    atomic.Int64
	unknown   atomic.Int64
	inFlight  atomic.Int64
}

// New creates a Sprayer
func New(cfg Config, attempter Attempter, state *State, opts ...Option) (*Sprayer, error) {
	if attempter == nil {
		return nil, fmt.Errorf("attempter is required")
	}
	if state == nil {
		return nil, fmt.Errorf("state is required")
	}
	if cfg.Workers < 0 {
		return nil, fmt.Errorf("workers must not be negative, got %d", cfg.Workers)
	}
	if cfg.Workers == 0 {
		cfg.Workers = DefaultWorkers
	}

	s := &Sprayer{
		cfg:       cfg,
		attempter: attempter,
		state:     state,
		logger:    nopLogger{},
		metrics:   metrics.NewNoop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Stats returns current counters. It is safe to call while Run is active.
func (s *Sprayer) Stats() Stats {
	return Stats{
		Attempted: s.attempted.Load(),
		Skipped:   s.skipped.Load(),
		Failed:    s.failed.Load(),
		Unknown:   s.unknown.Load(),
		InFlight:  s.inFlight.Load(),
		Summary:   s.state.Summary(),
	}
}

// Run attempts every candidate of seq. It returns the first *AttemptError
// unless ContinueOnError is set, any error writing a report line, or an
// error wrapping ErrInterrupted and the context error if ctx is cancelled.
// Attempts already on the network when the spray stops are allowed to finish.
func (s *Sprayer) Run(ctx context.Context, seq iter.Seq[candidates.Candidate]) error {
	g, gctx := errgroup.WithContext(ctx)
	jobs := make(chan candidates.Candidate)
	var cutShort atomic.Bool

	g.Go(func() error {
		defer close(jobs)
		for c := range seq {
			select {
			case jobs <- c:
			case <-gctx.Done():
				cutShort.Store(true)
				return nil
			}
		}
		return nil
	})

	for i := 0; i < s.cfg.Workers; i++ {
		g.Go(func() error {
			for c := range jobs {
				if gctx.Err() != nil {
					// stop submitting work, drain what the producer already handed over
					cutShort.Store(true)
					s.skip()
					continue
				}
				if err := s.handle(gctx, c); err != nil {
					return err
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil && cutShort.Load() {
		return fmt.Errorf("%w: %w", ErrInterrupted, err)
	}
	return nil
}

func (s *Sprayer) skip() {
	s.skipped.Add(1)
	s.metrics.RecordSkip()
}

// handle drives one candidate to a terminal state: skipped or recorded
func (s *Sprayer) handle(ctx context.Context, c candidates.Candidate) error {
	if s.state.HasKnownOutcome(c.Username) {
		s.logger.Debug("Skipping resolved user", "user", c.Username)
		s.skip()
		return nil
	}

	s.inFlight.Add(1)
	s.metrics.IncInFlight()
	start := time.Now()
	// in-flight attempts are not cut short by an interrupt
	resp, err := s.attempter.Attempt(context.WithoutCancel(ctx), c.Username, c.Password)
	elapsed := time.Since(start)
	s.inFlight.Add(-1)
	s.metrics.DecInFlight()

	if err != nil {
		s.failed.Add(1)
		s.metrics.RecordTransportError()
		attemptErr := &AttemptError{User: c.Username, Password: c.Password, Err: err}
		s.logger.Warn("Error trying credential", "user", c.Username, "password", c.Password, "error", err)
		if s.cfg.ContinueOnError {
			return nil
		}
		return attemptErr
	}

	s.attempted.Add(1)
	outcome := s.classifier.Classify(resp)
	s.metrics.RecordAttempt(outcome.Kind.String(), elapsed)

	if err := s.record(c, outcome); err != nil {
		return fmt.Errorf("reporting %s: %w", c.Username, err)
	}
	return nil
}

func (s *Sprayer) record(c candidates.Candidate, outcome classify.Outcome) error {
	var (
		recorded bool
		err      error
	)

	switch outcome.Kind {
	case classify.KindValidCredential:
		recorded, err = s.state.RecordValidCredential(c.Username, c.Password, outcome.Restriction)
	case classify.KindValidUser:
		recorded, err = s.state.RecordValidUser(c.Username)
	case classify.KindInvalidUser:
		recorded = s.state.RecordInvalidUser(c.Username, outcome.Description)
	case classify.KindLockedUser:
		recorded = s.state.RecordLockedUser(c.Username)
	case classify.KindDisabledUser:
		recorded, err = s.state.RecordDisabledUser(c.Username)
	default:
		s.unknown.Add(1)
		s.logger.Warn("Unknown error code",
			"code", outcome.Code,
			"user", c.Username,
			"password", c.Password,
			"description", outcome.Description,
		)
		return nil
	}

	if recorded {
		s.metrics.RecordFinding(outcome.Kind.String())
	}
	return err
}

// IsAttemptError reports whether err carries a failed candidate
func IsAttemptError(err error) bool {
	var attemptErr *AttemptError
	return errors.As(err, &attemptErr)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{})       {}
func (nopLogger) Info(string, ...interface{})        {}
func (nopLogger) Warn(string, ...interface{})        {}
func (nopLogger) Error(string, ...interface{})       {}
func (nopLogger) Panic(string, ...interface{})       {}
func (l nopLogger) With(...interface{}) golog.Logger { return l }
