package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/hivelog/internal/domain/models"
	"github.com/mamadbah2/hivelog/pkg/clients/identity"
)

// State is the observer's view of the session lifecycle.
type State string

const (
	StateSignedOut       State = "signed_out"
	StateSignedIn        State = "signed_in"
	StateRecoveryPending State = "password_recovery_pending"
)

// ErrNoCredentials indicates a deep link carrying neither a code nor tokens.
var ErrNoCredentials = errors.New("deep link carries no credentials")

// defaultWatchdog bounds the update-password call so a hung remote can
// never leave the caller waiting indefinitely.
const defaultWatchdog = 15 * time.Second

const loadTimeout = 30 * time.Second

// Gateway loads the cloud snapshot on sign-in.
type Gateway interface {
	LoadSnapshot(ctx context.Context, userID string) (*models.Snapshot, error)
}

// Journal is the local state the observer replaces on sign-in and clears on
// sign-out.
type Journal interface {
	ReplaceAll(snap models.Snapshot)
	Clear()
}

// SyncControl suspends and resumes the cloud-sync scheduler.
type SyncControl interface {
	SetUser(userID string)
	SetRecoveryPending(pending bool)
}

// Observer mediates identity-provider events and deep-link session
// establishment. It owns the process-lifetime set of consumed authorization
// codes and the local recovery-pending marker; both live here rather than in
// package-level state so their lifetime matches the observer's.
type Observer struct {
	client  identity.Client
	gateway Gateway
	journal Journal
	syncCtl SyncControl
	logger  *zap.Logger

	watchdog    time.Duration
	unsubscribe func()

	mu              sync.Mutex
	state           State
	recoveryPending bool
	processedCodes  map[string]struct{}
}

// NewObserver wires a session observer.
func NewObserver(client identity.Client, gateway Gateway, journal Journal, syncCtl SyncControl, logger *zap.Logger) *Observer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Observer{
		client:         client,
		gateway:        gateway,
		journal:        journal,
		syncCtl:        syncCtl,
		logger:         logger,
		watchdog:       defaultWatchdog,
		state:          StateSignedOut,
		processedCodes: make(map[string]struct{}),
	}
}

// Start subscribes to provider events and restores any persisted session,
// triggering a full remote load when one exists.
func (o *Observer) Start(ctx context.Context) {
	o.unsubscribe = o.client.Subscribe(o.handleEvent)

	if session := o.client.CurrentSession(); session != nil {
		o.logger.Info("restored persisted session", zap.String("user_id", session.User.ID))
		o.completeSignIn(ctx, session)
	}
}

// Close unsubscribes from the provider event stream so callbacks can no
// longer reach a torn-down observer.
func (o *Observer) Close() {
	if o.unsubscribe != nil {
		o.unsubscribe()
		o.unsubscribe = nil
	}
}

// State returns the current session state.
func (o *Observer) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// MarkRecoveryPending sets the local marker consulted when the next deep
// link arrives without an explicit recovery flag.
func (o *Observer) MarkRecoveryPending() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.recoveryPending = true
}

// HandleDeepLink consumes a deep-link URL carrying an authorization code, a
// token pair, or a recovery marker. A recovery indication anywhere in the
// link forces the recovery state regardless of the exchange outcome, and an
// authorization code is never exchanged twice.
func (o *Observer) HandleDeepLink(ctx context.Context, raw string) error {
	params, err := parseDeepLink(raw)
	if err != nil {
		return err
	}

	recovery := isRecoveryLink(raw, params) || o.recoveryMarked()

	if code := params.Get("code"); code != "" {
		if !o.consumeCode(code) {
			o.logger.Debug("ignoring already processed authorization code")
			return nil
		}

		session, err := o.client.ExchangeCode(ctx, code)
		if err != nil {
			o.logger.Error("authorization code exchange failed", zap.Error(err))
			if recovery {
				o.enterRecovery()
			}
			return err
		}
		if recovery {
			o.enterRecovery()
			return nil
		}
		o.completeSignIn(ctx, session)
		return nil
	}

	if access, refresh := params.Get("access_token"), params.Get("refresh_token"); access != "" && refresh != "" {
		session, err := o.client.SetSession(ctx, access, refresh)
		if err != nil {
			o.logger.Error("token session establishment failed", zap.Error(err))
			if recovery {
				o.enterRecovery()
			}
			return err
		}
		if recovery {
			o.enterRecovery()
			return nil
		}
		o.completeSignIn(ctx, session)
		return nil
	}

	if recovery {
		o.enterRecovery()
		return nil
	}
	return ErrNoCredentials
}

// UpdatePassword forwards the new password under a watchdog timeout; a call
// that never resolves is forced to a failed state instead of spinning.
func (o *Observer) UpdatePassword(ctx context.Context, newPassword string) error {
	wctx, cancel := context.WithTimeout(ctx, o.watchdog)
	defer cancel()

	if err := o.client.UpdatePassword(wctx, newPassword); err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(wctx.Err(), context.DeadlineExceeded) {
			return errors.New("password update timed out")
		}
		return err
	}

	o.mu.Lock()
	o.recoveryPending = false
	if o.client.CurrentSession() != nil {
		o.state = StateSignedIn
	} else {
		o.state = StateSignedOut
	}
	o.mu.Unlock()

	o.syncCtl.SetRecoveryPending(false)
	return nil
}

// SignOut invalidates the session. Local state is cleared through the
// SIGNED_OUT event even when the remote invalidate fails.
func (o *Observer) SignOut(ctx context.Context) {
	if err := o.client.SignOut(ctx); err != nil {
		o.logger.Warn("remote sign-out failed, local state cleared anyway", zap.Error(err))
	}
}

// handleEvent reacts to provider lifecycle notifications.
func (o *Observer) handleEvent(ev identity.Event) {
	switch ev.Type {
	case identity.EventSignedIn:
		if o.recoveryMarked() {
			// A recovery flow is in progress; the sign-in that rides along
			// with the recovery link must not flip the state.
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		o.completeSignIn(ctx, ev.Session)

	case identity.EventPasswordRecovery:
		o.enterRecovery()

	case identity.EventSignedOut:
		o.mu.Lock()
		o.state = StateSignedOut
		o.recoveryPending = false
		o.processedCodes = make(map[string]struct{})
		o.mu.Unlock()

		o.journal.Clear()
		o.syncCtl.SetUser("")
		o.syncCtl.SetRecoveryPending(false)
		o.logger.Info("signed out, local journal cleared")
	}
}

// completeSignIn transitions to signed_in and replaces the local journal
// with the cloud snapshot. Local-only edits never synced are overwritten;
// there is no three-way merge.
func (o *Observer) completeSignIn(ctx context.Context, session *identity.Session) {
	if session == nil {
		return
	}

	o.mu.Lock()
	o.state = StateSignedIn
	o.recoveryPending = false
	o.mu.Unlock()

	o.syncCtl.SetRecoveryPending(false)
	o.syncCtl.SetUser(session.User.ID)

	snap, err := o.gateway.LoadSnapshot(ctx, session.User.ID)
	if err != nil {
		o.logger.Error("cloud snapshot load failed", zap.Error(err))
		return
	}
	if snap == nil {
		o.logger.Info("no cloud snapshot yet, keeping local state", zap.String("user_id", session.User.ID))
		return
	}

	o.journal.ReplaceAll(*snap)
	o.logger.Info("cloud snapshot loaded",
		zap.String("user_id", session.User.ID),
		zap.Int("apiaries", len(snap.Apiaries)))
}

func (o *Observer) enterRecovery() {
	o.mu.Lock()
	o.state = StateRecoveryPending
	o.recoveryPending = true
	o.mu.Unlock()

	o.syncCtl.SetRecoveryPending(true)
	o.logger.Info("password recovery pending, sync suspended")
}

// consumeCode marks a code as processed, returning false when it was
// already consumed earlier in the process lifetime.
func (o *Observer) consumeCode(code string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, seen := o.processedCodes[code]; seen {
		return false
	}
	o.processedCodes[code] = struct{}{}
	return true
}

func (o *Observer) recoveryMarked() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.recoveryPending
}
