package auth

import (
	"fmt"
	"net/url"
	"strings"
)

// parseDeepLink extracts parameters from a deep-link URL. Providers deliver
// credentials both as query parameters and as a URL fragment, so both are
// merged, with query parameters taking precedence.
func parseDeepLink(raw string) (url.Values, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("empty deep link")
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse deep link: %w", err)
	}

	params := url.Values{}
	if u.Fragment != "" {
		if fragParams, err := url.ParseQuery(u.Fragment); err == nil {
			for key, values := range fragParams {
				params[key] = values
			}
		}
	}
	for key, values := range u.Query() {
		params[key] = values
	}
	return params, nil
}

// isRecoveryLink detects a password-recovery link: an explicit type flag or
// the recovery marker appearing anywhere in the raw link text.
func isRecoveryLink(raw string, params url.Values) bool {
	if params.Get("type") == "recovery" {
		return true
	}
	return strings.Contains(raw, "recovery")
}
