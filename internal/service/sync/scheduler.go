package sync

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/hivelog/internal/domain/models"
)

// ErrSuspended indicates a forced sync was requested while no user is
// signed in or a password recovery is pending.
var ErrSuspended = errors.New("sync suspended")

// State is the scheduler's position in its push lifecycle.
type State int

const (
	// StateIdle means nothing is scheduled or in flight.
	StateIdle State = iota
	// StatePending means a debounce timer is armed.
	StatePending
	// StateInFlight means a push is currently running.
	StateInFlight
)

// DefaultDebounce is the quiet period collapsing bursts of edits into a
// single push.
const DefaultDebounce = 3 * time.Second

const pushTimeout = 30 * time.Second

// Gateway is the remote side of the sync: a whole-document upsert.
type Gateway interface {
	SaveSnapshot(ctx context.Context, userID string, snapshot models.Snapshot) error
}

// SnapshotSource provides the latest local state at the moment the timer
// fires, so a push always reflects the last edit at-or-before that instant.
type SnapshotSource interface {
	Snapshot() models.Snapshot
}

// Scheduler debounces local change notifications into last-write-wins pushes
// of the full snapshot. Failures are logged and swallowed; the next
// debounced push is the implicit retry.
type Scheduler struct {
	gateway  Gateway
	source   SnapshotSource
	logger   *zap.Logger
	debounce time.Duration

	mu       sync.Mutex
	timer    *time.Timer
	inflight bool
	stopped  bool
	userID   string
	recovery bool
	lastSync time.Time
}

// NewScheduler creates a sync scheduler. A non-positive debounce falls back
// to the default quiet period.
func NewScheduler(gateway Gateway, source SnapshotSource, debounce time.Duration, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Scheduler{
		gateway:  gateway,
		source:   source,
		logger:   logger,
		debounce: debounce,
	}
}

// Notify records a local state change. Any number of notifications arriving
// within the quiet period collapse into a single trailing push.
func (s *Scheduler) Notify() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped || s.suspendedLocked() {
		return
	}

	if s.timer != nil {
		s.timer.Reset(s.debounce)
		return
	}
	s.timer = time.AfterFunc(s.debounce, s.fire)
}

// SetUser sets the authenticated user id; an empty id suspends scheduling
// and cancels any pending push.
func (s *Scheduler) SetUser(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.userID = userID
	if userID == "" {
		s.cancelTimerLocked()
	}
}

// SetRecoveryPending suspends scheduling for the duration of a password
// recovery flow.
func (s *Scheduler) SetRecoveryPending(pending bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.recovery = pending
	if pending {
		s.cancelTimerLocked()
	}
}

// SyncNow pushes immediately, bypassing the debounce. Used by the nightly
// safety net and the sign-in flush.
func (s *Scheduler) SyncNow(ctx context.Context) error {
	s.mu.Lock()
	if s.stopped || s.suspendedLocked() {
		s.mu.Unlock()
		return ErrSuspended
	}
	userID := s.userID
	s.inflight = true
	s.mu.Unlock()

	err := s.push(ctx, userID)

	s.mu.Lock()
	s.inflight = false
	if err == nil {
		s.lastSync = time.Now()
	}
	s.mu.Unlock()
	return err
}

// Stop cancels any pending timer and prevents further scheduling. Safe to
// call during teardown regardless of scheduler state.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
	s.cancelTimerLocked()
}

// State reports the current lifecycle position.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.inflight:
		return StateInFlight
	case s.timer != nil:
		return StatePending
	default:
		return StateIdle
	}
}

// Syncing reports whether a push is in flight.
func (s *Scheduler) Syncing() bool {
	return s.State() == StateInFlight
}

// LastSync returns the timestamp of the last successful push, zero if none.
func (s *Scheduler) LastSync() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSync
}

// fire runs when the debounce timer elapses.
func (s *Scheduler) fire() {
	s.mu.Lock()
	s.timer = nil
	if s.stopped || s.suspendedLocked() {
		s.mu.Unlock()
		return
	}
	userID := s.userID
	s.inflight = true
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), pushTimeout)
	defer cancel()

	err := s.push(ctx, userID)

	s.mu.Lock()
	s.inflight = false
	if err == nil {
		s.lastSync = time.Now()
	}
	s.mu.Unlock()

	if err != nil {
		// Swallowed: the next debounced push is the implicit retry.
		s.logger.Warn("cloud sync failed", zap.Error(err))
	}
}

func (s *Scheduler) push(ctx context.Context, userID string) error {
	snapshot := s.source.Snapshot()

	if err := s.gateway.SaveSnapshot(ctx, userID, snapshot); err != nil {
		return err
	}

	s.logger.Debug("snapshot pushed to cloud",
		zap.String("user_id", userID),
		zap.Int("apiaries", len(snapshot.Apiaries)))
	return nil
}

func (s *Scheduler) suspendedLocked() bool {
	return s.userID == "" || s.recovery
}

func (s *Scheduler) cancelTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
