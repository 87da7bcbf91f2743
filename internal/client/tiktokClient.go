package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"order-intake/internal/config"
	"order-intake/internal/model"
	"time"
)

type TikTokClient interface {
	TrackEvent(ctx context.Context, event *model.TikTokEvent) error
}

type tiktokClientImpl struct {
	httpClient  *http.Client
	eventURL    string
	accessToken string
}

func NewTikTokClient(tiktokCfg *config.TikTok, timeout time.Duration) TikTokClient {
	return &tiktokClientImpl{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		eventURL:    tiktokCfg.EventURL,
		accessToken: tiktokCfg.AccessToken,
	}
}

func (c *tiktokClientImpl) TrackEvent(ctx context.Context, event *model.TikTokEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("%w: marshal event: %w", ErrNotification, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.eventURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: http new request: %w", ErrNotification, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Access-Token", c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: http client do: %w", ErrNotification, err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: tiktok error %d: %s", ErrNotification, resp.StatusCode, string(respBody))
	}

	var result model.TikTokResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return fmt.Errorf("%w: decode tiktok response: %w", ErrNotification, err)
	}
	if result.Code != 0 {
		return fmt.Errorf("%w: tiktok code %d: %s", ErrNotification, result.Code, result.Message)
	}

	return nil
}
