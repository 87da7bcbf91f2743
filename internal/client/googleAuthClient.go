package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"order-intake/internal/config"
	"order-intake/internal/metrics"
	"strings"
	"time"
)

// GoogleAuthClient trades a freshly signed assertion for a bearer token.
// Every call performs one exchange; tokens are never cached.
type GoogleAuthClient interface {
	AccessToken(ctx context.Context) (string, error)
}

type googleAuthClientImpl struct {
	httpClient *http.Client
	tokenURL   string
	issuer     string
	scope      string
	privateKey string
	now        func() time.Time
}

type googleTokenResponse struct {
	AccessToken      string `json:"access_token"`
	TokenType        string `json:"token_type"`
	ExpiresIn        int    `json:"expires_in"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func NewGoogleAuthClient(googleCfg *config.Google, timeout time.Duration) GoogleAuthClient {
	return &googleAuthClientImpl{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		tokenURL:   googleCfg.TokenURL,
		issuer:     googleCfg.ServiceAccountEmail,
		scope:      googleCfg.Scope,
		privateKey: googleCfg.PrivateKey,
		now:        time.Now,
	}
}

func (c *googleAuthClientImpl) AccessToken(ctx context.Context) (string, error) {
	token, err := c.exchange(ctx)
	if err != nil {
		metrics.TokenExchangesTotal.WithLabelValues("error").Inc()
		return "", err
	}
	metrics.TokenExchangesTotal.WithLabelValues("ok").Inc()
	return token, nil
}

func (c *googleAuthClientImpl) exchange(ctx context.Context) (string, error) {
	assertion, err := BuildAssertion(c.issuer, c.scope, c.tokenURL, c.privateKey, c.now())
	if err != nil {
		return "", err
	}

	form := url.Values{}
	form.Set("grant_type", JWTBearerGrantType)
	form.Set("assertion", assertion)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("%w: http new request: %w", ErrAuthExchange, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: http client do: %w", ErrAuthExchange, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read token response: %w", ErrAuthExchange, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: google token error %d: %s", ErrAuthExchange, resp.StatusCode, string(body))
	}

	var res googleTokenResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return "", fmt.Errorf("%w: decode token response: %w", ErrAuthExchange, err)
	}

	if res.AccessToken == "" {
		if res.Error != "" {
			return "", fmt.Errorf("%w: %s: %s", ErrAuthExchange, res.Error, res.ErrorDescription)
		}
		return "", fmt.Errorf("%w: token endpoint returned no access_token", ErrAuthExchange)
	}

	return res.AccessToken, nil
}
