package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDeepLinkQueryParams(t *testing.T) {
	params, err := parseDeepLink("hivelog://auth-callback?code=abc&type=recovery")
	require.NoError(t, err)
	assert.Equal(t, "abc", params.Get("code"))
	assert.Equal(t, "recovery", params.Get("type"))
}

func TestParseDeepLinkFragmentParams(t *testing.T) {
	params, err := parseDeepLink("hivelog://auth-callback#access_token=a&refresh_token=r&expires_in=3600")
	require.NoError(t, err)
	assert.Equal(t, "a", params.Get("access_token"))
	assert.Equal(t, "r", params.Get("refresh_token"))
}

func TestParseDeepLinkQueryWinsOverFragment(t *testing.T) {
	params, err := parseDeepLink("hivelog://auth-callback?code=query#code=fragment")
	require.NoError(t, err)
	assert.Equal(t, "query", params.Get("code"))
}

func TestParseDeepLinkEmpty(t *testing.T) {
	_, err := parseDeepLink("   ")
	assert.Error(t, err)
}

func TestIsRecoveryLink(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want bool
	}{
		{"type param", "hivelog://cb?code=x&type=recovery", true},
		{"raw marker in fragment", "hivelog://cb#recovery_token=x", true},
		{"plain sign-in", "hivelog://cb?code=x", false},
		{"magic link", "hivelog://cb?type=magiclink&code=x", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			params, err := parseDeepLink(tc.raw)
			require.NoError(t, err)
			assert.Equal(t, tc.want, isRecoveryLink(tc.raw, params))
		})
	}
}
