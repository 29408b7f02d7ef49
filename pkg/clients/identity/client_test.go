package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/hivelog/internal/config"
)

type memSessionStore struct {
	data map[string][]byte
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{data: make(map[string][]byte)}
}

func (m *memSessionStore) Get(key string, out any) (bool, error) {
	raw, ok := m.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, out)
}

func (m *memSessionStore) Put(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.data[key] = raw
	return nil
}

func (m *memSessionStore) Delete(key string) error {
	delete(m.data, key)
	return nil
}

func newMockedClient(t *testing.T) (*APIClient, *memSessionStore) {
	t.Helper()
	store := newMemSessionStore()
	client := NewClient(config.IdentityConfig{
		BaseURL:     "https://identity.example.com/auth/v1",
		APIKey:      "anon-key",
		RedirectURL: "hivelog://auth-callback",
	}, store)
	httpmock.ActivateNonDefault(client.httpClient.GetClient())
	t.Cleanup(httpmock.DeactivateAndReset)
	return client, store
}

func sessionBody(userID string) map[string]any {
	return map[string]any{
		"access_token":  "access-" + userID,
		"refresh_token": "refresh-" + userID,
		"token_type":    "bearer",
		"expires_in":    3600,
		"user":          map[string]any{"id": userID, "email": userID + "@example.com"},
	}
}

func TestSignInEmitsEventAndPersists(t *testing.T) {
	client, store := newMockedClient(t)

	httpmock.RegisterResponder("POST", "https://identity.example.com/auth/v1/token",
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "password", req.URL.Query().Get("grant_type"))
			assert.Equal(t, "anon-key", req.Header.Get("apikey"))
			return httpmock.NewJsonResponse(200, sessionBody("user-1"))
		})

	var events []Event
	client.Subscribe(func(ev Event) { events = append(events, ev) })

	session, err := client.SignIn(context.Background(), "bee@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "user-1", session.User.ID)

	require.Len(t, events, 1)
	assert.Equal(t, EventSignedIn, events[0].Type)

	_, persisted := store.data[sessionKey]
	assert.True(t, persisted, "session must survive a restart")
}

func TestSignInBadCredentials(t *testing.T) {
	client, _ := newMockedClient(t)

	httpmock.RegisterResponder("POST", "https://identity.example.com/auth/v1/token",
		httpmock.NewJsonResponderOrPanic(400, map[string]any{
			"error": "invalid_grant", "error_description": "Invalid login credentials",
		}))

	_, err := client.SignIn(context.Background(), "bee@example.com", "wrong")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid login credentials")
	assert.Nil(t, client.CurrentSession())
}

func TestSignOutClearsLocalSessionEvenWhenRemoteFails(t *testing.T) {
	client, store := newMockedClient(t)

	httpmock.RegisterResponder("POST", "https://identity.example.com/auth/v1/token",
		httpmock.NewJsonResponderOrPanic(200, sessionBody("user-1")))
	httpmock.RegisterResponder("POST", "https://identity.example.com/auth/v1/logout",
		httpmock.NewStringResponder(503, `{"msg":"service unavailable"}`))

	_, err := client.SignIn(context.Background(), "bee@example.com", "secret")
	require.NoError(t, err)

	var events []Event
	client.Subscribe(func(ev Event) { events = append(events, ev) })

	err = client.SignOut(context.Background())
	require.Error(t, err, "the remote failure is still reported")

	assert.Nil(t, client.CurrentSession())
	_, persisted := store.data[sessionKey]
	assert.False(t, persisted)
	require.Len(t, events, 1)
	assert.Equal(t, EventSignedOut, events[0].Type)
}

func TestExchangeCodeStoresWithoutEmitting(t *testing.T) {
	client, _ := newMockedClient(t)

	httpmock.RegisterResponder("POST", "https://identity.example.com/auth/v1/token",
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "pkce", req.URL.Query().Get("grant_type"))
			return httpmock.NewJsonResponse(200, sessionBody("user-2"))
		})

	var events []Event
	client.Subscribe(func(ev Event) { events = append(events, ev) })

	session, err := client.ExchangeCode(context.Background(), "auth-code")
	require.NoError(t, err)
	assert.Equal(t, "user-2", session.User.ID)
	assert.Empty(t, events, "the session observer drives state on the exchange path")
	require.NotNil(t, client.CurrentSession())
}

func TestCurrentSessionRestoredFromStore(t *testing.T) {
	store := newMemSessionStore()
	require.NoError(t, store.Put(sessionKey, Session{
		AccessToken:  "a",
		RefreshToken: "r",
		User:         User{ID: "user-3", Email: "old@example.com"},
	}))

	client := NewClient(config.IdentityConfig{BaseURL: "https://identity.example.com/auth/v1"}, store)

	session := client.CurrentSession()
	require.NotNil(t, session)
	assert.Equal(t, "user-3", session.User.ID)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	client, _ := newMockedClient(t)

	var calls int
	unsubscribe := client.Subscribe(func(Event) { calls++ })

	client.Emit(Event{Type: EventPasswordRecovery})
	unsubscribe()
	client.Emit(Event{Type: EventPasswordRecovery})

	assert.Equal(t, 1, calls)
}
