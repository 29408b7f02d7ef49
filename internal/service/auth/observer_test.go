package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/hivelog/internal/domain/models"
	"github.com/mamadbah2/hivelog/pkg/clients/identity"
)

type fakeIdentity struct {
	mu            sync.Mutex
	session       *identity.Session
	exchangeCalls int
	exchangeErr   error
	updateBlocks  bool
	listeners     []func(identity.Event)
}

func (f *fakeIdentity) SignIn(ctx context.Context, email, password string) (*identity.Session, error) {
	return f.session, nil
}

func (f *fakeIdentity) SignUp(ctx context.Context, email, password string) (*identity.Session, error) {
	return f.session, nil
}

func (f *fakeIdentity) SignOut(ctx context.Context) error {
	f.Emit(identity.Event{Type: identity.EventSignedOut})
	return nil
}

func (f *fakeIdentity) RequestPasswordReset(ctx context.Context, email string) error { return nil }

func (f *fakeIdentity) UpdatePassword(ctx context.Context, newPassword string) error {
	if f.updateBlocks {
		<-ctx.Done()
		return ctx.Err()
	}
	return nil
}

func (f *fakeIdentity) ExchangeCode(ctx context.Context, code string) (*identity.Session, error) {
	f.mu.Lock()
	f.exchangeCalls++
	err := f.exchangeErr
	session := f.session
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (f *fakeIdentity) SetSession(ctx context.Context, accessToken, refreshToken string) (*identity.Session, error) {
	return f.session, nil
}

func (f *fakeIdentity) CurrentSession() *identity.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.session
}

func (f *fakeIdentity) Subscribe(fn func(identity.Event)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listeners = append(f.listeners, fn)
	return func() {}
}

func (f *fakeIdentity) Emit(ev identity.Event) {
	f.mu.Lock()
	listeners := append([]func(identity.Event){}, f.listeners...)
	f.mu.Unlock()
	for _, fn := range listeners {
		fn(ev)
	}
}

func (f *fakeIdentity) exchangeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.exchangeCalls
}

type fakeGateway struct {
	mu    sync.Mutex
	snap  *models.Snapshot
	err   error
	loads int
}

func (g *fakeGateway) LoadSnapshot(ctx context.Context, userID string) (*models.Snapshot, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.loads++
	return g.snap, g.err
}

type fakeJournal struct {
	mu       sync.Mutex
	replaced *models.Snapshot
	cleared  int
}

func (j *fakeJournal) ReplaceAll(snap models.Snapshot) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.replaced = &snap
}

func (j *fakeJournal) Clear() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.cleared++
}

type fakeSyncCtl struct {
	mu       sync.Mutex
	userID   string
	recovery bool
}

func (s *fakeSyncCtl) SetUser(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = userID
}

func (s *fakeSyncCtl) SetRecoveryPending(pending bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recovery = pending
}

func newTestObserver(session *identity.Session) (*Observer, *fakeIdentity, *fakeGateway, *fakeJournal, *fakeSyncCtl) {
	client := &fakeIdentity{session: session}
	gateway := &fakeGateway{}
	journal := &fakeJournal{}
	syncCtl := &fakeSyncCtl{}
	observer := NewObserver(client, gateway, journal, syncCtl, nil)
	return observer, client, gateway, journal, syncCtl
}

func testSession() *identity.Session {
	return &identity.Session{
		AccessToken:  "access",
		RefreshToken: "refresh",
		User:         identity.User{ID: "user-1", Email: "bee@example.com"},
	}
}

func TestDuplicateCodeExchangedOnce(t *testing.T) {
	observer, client, _, _, _ := newTestObserver(testSession())

	link := "hivelog://auth-callback?code=abc123"
	require.NoError(t, observer.HandleDeepLink(context.Background(), link))
	require.NoError(t, observer.HandleDeepLink(context.Background(), link))

	assert.Equal(t, 1, client.exchangeCount(), "replaying the same code must trigger exactly one exchange")
	assert.Equal(t, StateSignedIn, observer.State())
}

func TestExchangeFailureLeavesSignedOut(t *testing.T) {
	observer, client, _, _, _ := newTestObserver(nil)
	client.exchangeErr = errors.New("invalid grant")

	err := observer.HandleDeepLink(context.Background(), "hivelog://auth-callback?code=bad")
	require.Error(t, err)
	assert.Equal(t, StateSignedOut, observer.State())
}

func TestRecoveryDetectedFromTypeParam(t *testing.T) {
	observer, _, _, _, syncCtl := newTestObserver(testSession())

	require.NoError(t, observer.HandleDeepLink(context.Background(),
		"hivelog://auth-callback?code=abc&type=recovery"))

	assert.Equal(t, StateRecoveryPending, observer.State())
	assert.True(t, syncCtl.recovery, "sync must be suspended during recovery")
}

func TestRecoveryDetectedFromRawText(t *testing.T) {
	observer, _, _, _, _ := newTestObserver(testSession())

	// The marker rides in the fragment, not as a query parameter.
	require.NoError(t, observer.HandleDeepLink(context.Background(),
		"hivelog://auth-callback#access_token=a&refresh_token=r&recovery=1"))

	assert.Equal(t, StateRecoveryPending, observer.State())
}

func TestRecoveryDetectedFromLocalMarker(t *testing.T) {
	observer, _, _, _, _ := newTestObserver(testSession())

	observer.MarkRecoveryPending()
	require.NoError(t, observer.HandleDeepLink(context.Background(),
		"hivelog://auth-callback?code=abc"))

	assert.Equal(t, StateRecoveryPending, observer.State())
}

func TestRecoveryForcedEvenWhenExchangeFails(t *testing.T) {
	observer, client, _, _, _ := newTestObserver(nil)
	client.exchangeErr = errors.New("expired code")

	err := observer.HandleDeepLink(context.Background(),
		"hivelog://auth-callback?code=abc&type=recovery")
	require.Error(t, err)
	assert.Equal(t, StateRecoveryPending, observer.State())
}

func TestTokenPairEstablishesSession(t *testing.T) {
	observer, _, gateway, journal, syncCtl := newTestObserver(testSession())
	gateway.snap = &models.Snapshot{Apiaries: []models.Apiary{{ID: "cloud"}}}

	require.NoError(t, observer.HandleDeepLink(context.Background(),
		"hivelog://auth-callback#access_token=a&refresh_token=r"))

	assert.Equal(t, StateSignedIn, observer.State())
	assert.Equal(t, "user-1", syncCtl.userID)
	require.NotNil(t, journal.replaced, "sign-in must replace local state with the cloud snapshot")
	assert.Equal(t, "cloud", journal.replaced.Apiaries[0].ID)
}

func TestDeepLinkWithoutCredentials(t *testing.T) {
	observer, _, _, _, _ := newTestObserver(nil)
	err := observer.HandleDeepLink(context.Background(), "hivelog://auth-callback?foo=bar")
	assert.ErrorIs(t, err, ErrNoCredentials)
}

func TestSignOutEventClearsEverything(t *testing.T) {
	observer, client, _, journal, syncCtl := newTestObserver(testSession())
	observer.Start(context.Background())

	require.NoError(t, observer.HandleDeepLink(context.Background(),
		"hivelog://auth-callback?code=abc"))
	require.Equal(t, 1, client.exchangeCount())

	// Server-forced sign-out arrives as a provider event.
	client.Emit(identity.Event{Type: identity.EventSignedOut})

	assert.Equal(t, StateSignedOut, observer.State())
	assert.Equal(t, 1, journal.cleared)
	assert.Empty(t, syncCtl.userID)

	// The processed-code set is cleared, so the same code may be
	// exchanged again after a fresh sign-out.
	require.NoError(t, observer.HandleDeepLink(context.Background(),
		"hivelog://auth-callback?code=abc"))
	assert.Equal(t, 2, client.exchangeCount())
}

func TestStartRestoresPersistedSession(t *testing.T) {
	observer, _, gateway, journal, syncCtl := newTestObserver(testSession())
	gateway.snap = &models.Snapshot{Apiaries: []models.Apiary{{ID: "restored"}}}

	observer.Start(context.Background())

	assert.Equal(t, StateSignedIn, observer.State())
	assert.Equal(t, "user-1", syncCtl.userID)
	require.NotNil(t, journal.replaced)
	assert.Equal(t, "restored", journal.replaced.Apiaries[0].ID)
}

func TestSignInKeepsLocalStateWhenNoCloudRow(t *testing.T) {
	observer, _, gateway, journal, _ := newTestObserver(testSession())
	gateway.snap = nil

	require.NoError(t, observer.HandleDeepLink(context.Background(),
		"hivelog://auth-callback?code=abc"))

	assert.Equal(t, StateSignedIn, observer.State())
	assert.Nil(t, journal.replaced, "no cloud row means the local state stays")
}

func TestUpdatePasswordWatchdog(t *testing.T) {
	observer, client, _, _, _ := newTestObserver(testSession())
	client.updateBlocks = true
	observer.watchdog = 50 * time.Millisecond

	start := time.Now()
	err := observer.UpdatePassword(context.Background(), "new-password")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
	assert.Less(t, time.Since(start), 2*time.Second, "the watchdog must force a timely failure")
}

func TestUpdatePasswordClearsRecovery(t *testing.T) {
	observer, _, _, _, syncCtl := newTestObserver(testSession())
	require.NoError(t, observer.HandleDeepLink(context.Background(),
		"hivelog://auth-callback?code=abc&type=recovery"))
	require.Equal(t, StateRecoveryPending, observer.State())

	require.NoError(t, observer.UpdatePassword(context.Background(), "new-password"))

	assert.Equal(t, StateSignedIn, observer.State())
	assert.False(t, syncCtl.recovery)
}
