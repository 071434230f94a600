// Package scheduler drives the poll pipeline: token check, usage fetch,
// transform, publish. One cycle at a time, on a configurable interval.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/janekbaraniewski/claudewatch/internal/auth"
	"github.com/janekbaraniewski/claudewatch/internal/claude"
	"github.com/janekbaraniewski/claudewatch/internal/core"
)

const (
	DefaultInterval = 300 * time.Second
	MinInterval     = 60 * time.Second
	MaxInterval     = 3600 * time.Second
)

// TokenManager hands back valid credentials, refreshing when needed.
type TokenManager interface {
	EnsureValid(ctx context.Context, creds core.Credentials) (core.Credentials, bool, error)
}

// UsageFetcher retrieves one raw usage snapshot.
type UsageFetcher interface {
	FetchUsage(ctx context.Context, accessToken string) (claude.RawSnapshot, error)
}

// CredentialStore persists the token record between polls.
type CredentialStore interface {
	Load() (core.Credentials, error)
	Save(core.Credentials) error
}

// Listener receives every poll outcome, success or failure.
type Listener func(core.Outcome)

type Scheduler struct {
	tokens  TokenManager
	fetcher UsageFetcher
	store   CredentialStore

	// pollMu enforces single-flight: a tick that fires while a cycle is in
	// flight is skipped, never queued.
	pollMu sync.Mutex

	stateMu  sync.RWMutex
	interval time.Duration
	outcome  core.Outcome
	lastGood core.MetricMap
	subs     []Listener

	intervalCh chan time.Duration
	cancel     context.CancelFunc
	done       chan struct{}
}

func New(tokens TokenManager, fetcher UsageFetcher, store CredentialStore, interval time.Duration) (*Scheduler, error) {
	if err := validateInterval(interval); err != nil {
		return nil, err
	}
	return &Scheduler{
		tokens:     tokens,
		fetcher:    fetcher,
		store:      store,
		interval:   interval,
		intervalCh: make(chan time.Duration, 1),
		done:       make(chan struct{}),
	}, nil
}

func validateInterval(d time.Duration) error {
	if d < MinInterval || d > MaxInterval {
		return fmt.Errorf("poll interval %s out of range [%s, %s]", d, MinInterval, MaxInterval)
	}
	return nil
}

// Start runs the first poll synchronously and fails setup if it fails; on
// success the timer loop takes over until ctx is cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)

	outcome, ran := s.Poll(runCtx)
	if !ran {
		cancel()
		return errors.New("initial poll could not start")
	}
	if outcome.Failed() {
		cancel()
		return fmt.Errorf("initial poll failed: %s", outcome.Message)
	}

	s.cancel = cancel
	go s.loop(runCtx)
	return nil
}

// Stop cancels the loop and waits for it to exit. In-flight network calls
// are abandoned via context cancellation; credentials are only ever written
// after a fully parsed response, so no partial record can be left behind.
func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.Interval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case d := <-s.intervalCh:
			ticker.Reset(d)
		case <-ticker.C:
			if _, ran := s.Poll(ctx); !ran {
				log.Printf("poll tick skipped: previous cycle still in flight")
			}
		}
	}
}

// Poll runs one cycle unless another is already in flight, in which case it
// reports ran=false and publishes nothing.
func (s *Scheduler) Poll(ctx context.Context) (core.Outcome, bool) {
	if !s.pollMu.TryLock() {
		return core.Outcome{}, false
	}
	defer s.pollMu.Unlock()

	outcome := s.runCycle(ctx)
	s.publish(outcome)
	return outcome, true
}

func (s *Scheduler) runCycle(ctx context.Context) core.Outcome {
	now := time.Now().UTC()

	creds, err := s.store.Load()
	if err != nil {
		return failure(now, err)
	}

	creds, refreshed, err := s.tokens.EnsureValid(ctx, creds)
	if err != nil {
		return failure(now, err)
	}
	if refreshed {
		if err := s.store.Save(creds); err != nil {
			return failure(now, fmt.Errorf("persisting refreshed credentials: %w", err))
		}
		log.Printf("access token refreshed, valid until %s", time.Unix(int64(creds.ExpiresAt), 0).UTC().Format(time.RFC3339))
	}

	raw, err := s.fetcher.FetchUsage(ctx, creds.AccessToken)
	if err != nil {
		return failure(now, err)
	}

	return core.Outcome{
		Timestamp: now,
		Status:    core.StatusOK,
		Metrics:   claude.Transform(raw, now),
	}
}

func failure(now time.Time, err error) core.Outcome {
	status := core.StatusError
	if errors.Is(err, claude.ErrUnauthorized) || errors.Is(err, auth.ErrNoRefreshToken) {
		status = core.StatusAuth
	}
	return core.Outcome{
		Timestamp: now,
		Status:    status,
		Message:   err.Error(),
	}
}

func (s *Scheduler) publish(outcome core.Outcome) {
	s.stateMu.Lock()
	s.outcome = outcome
	if !outcome.Failed() {
		s.lastGood = outcome.Metrics
	}
	subs := make([]Listener, len(s.subs))
	copy(subs, s.subs)
	s.stateMu.Unlock()

	if outcome.Failed() {
		log.Printf("poll failed (%s): %s", outcome.Status, outcome.Message)
	}

	for _, fn := range subs {
		fn(outcome)
	}
}

// Subscribe registers a listener for future poll outcomes.
func (s *Scheduler) Subscribe(fn Listener) {
	s.stateMu.Lock()
	s.subs = append(s.subs, fn)
	s.stateMu.Unlock()
}

// Current returns the most recent poll outcome.
func (s *Scheduler) Current() core.Outcome {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.outcome
}

// LastGood returns the last successfully published metric map, which is
// retained across failed cycles.
func (s *Scheduler) LastGood() core.MetricMap {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.lastGood.Clone()
}

func (s *Scheduler) Interval() time.Duration {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.interval
}

// SetInterval applies a new poll interval to the running loop. Out-of-range
// values are rejected, never clamped.
func (s *Scheduler) SetInterval(d time.Duration) error {
	if err := validateInterval(d); err != nil {
		return err
	}

	s.stateMu.Lock()
	s.interval = d
	s.stateMu.Unlock()

	// Drop a pending reset so the newest value wins.
	select {
	case <-s.intervalCh:
	default:
	}
	s.intervalCh <- d
	return nil
}
