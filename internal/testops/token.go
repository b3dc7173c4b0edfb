package testops

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const (
	tokenPath = "/uaa/oauth/token"

	// defaultTokenLifetime applies when the token endpoint omits expires_in.
	defaultTokenLifetime = 300 * time.Second

	// tokenExpirySkew refreshes the token this long before it actually expires.
	tokenExpirySkew = 30 * time.Second
)

// apiTokenSource exchanges a long-lived user API token for a short-lived
// bearer JWT. It performs no caching; wrap it with oauth2.ReuseTokenSourceWithExpiry.
type apiTokenSource struct {
	endpoint  string
	userToken string
	client    *http.Client
	now       func() time.Time
}

func newTokenSource(baseURL, userToken string, client *http.Client) oauth2.TokenSource {
	src := &apiTokenSource{
		endpoint:  baseURL + tokenPath,
		userToken: userToken,
		client:    client,
		now:       time.Now,
	}
	return oauth2.ReuseTokenSourceWithExpiry(nil, src, tokenExpirySkew)
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

func (s *apiTokenSource) Token() (*oauth2.Token, error) {
	form := url.Values{
		"grant_type": {"apitoken"},
		"scope":      {"openid"},
		"token":      {s.userToken},
	}

	req, err := http.NewRequest(http.MethodPost, s.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%w: building token request: %v", ErrRemoteUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, classifyError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("%w: token endpoint returned status %d", ErrRemoteUnavailable, resp.StatusCode)
	}

	var body tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decoding token response: %v", ErrRemoteUnavailable, err)
	}
	if body.AccessToken == "" {
		return nil, fmt.Errorf("%w: token response has no access_token", ErrRemoteUnavailable)
	}

	lifetime := defaultTokenLifetime
	if body.ExpiresIn > 0 {
		lifetime = time.Duration(body.ExpiresIn) * time.Second
	}

	return &oauth2.Token{
		AccessToken: body.AccessToken,
		TokenType:   "Bearer",
		Expiry:      s.now().Add(lifetime),
	}, nil
}
