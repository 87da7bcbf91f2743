package client

import (
	"bytes"
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

// AppendRange is the column span every append targets.
const AppendRange = "A:Z"

type SheetsClient interface {
	// Append writes row after the last row of the sheet using an existing token.
	Append(ctx context.Context, accessToken string, row []any) (*AppendResult, error)
	// AppendRow exchanges a new token and appends row.
	AppendRow(ctx context.Context, row []any) (*AppendResult, error)
}

type sheetsClientImpl struct {
	httpClient    *http.Client
	auth          GoogleAuthClient
	baseURL       string
	spreadsheetID string
	sheetName     string
}

// AppendResult carries the Sheets response body untouched in Raw.
type AppendResult struct {
	UpdatedRange string
	Raw          json.RawMessage
}

type valueRange struct {
	Values [][]any `json:"values"`
}

type appendResponse struct {
	SpreadsheetID string `json:"spreadsheetId"`
	Updates       struct {
		UpdatedRange string `json:"updatedRange"`
		UpdatedRows  int    `json:"updatedRows"`
	} `json:"updates"`
}

func NewSheetsClient(googleCfg *config.Google, auth GoogleAuthClient, timeout time.Duration) SheetsClient {
	return &sheetsClientImpl{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		auth:          auth,
		baseURL:       strings.TrimRight(googleCfg.SheetsBaseURL, "/"),
		spreadsheetID: googleCfg.SpreadsheetID,
		sheetName:     googleCfg.SheetName,
	}
}

func (c *sheetsClientImpl) AppendRow(ctx context.Context, row []any) (*AppendResult, error) {
	accessToken, err := c.auth.AccessToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("get google access token: %w", err)
	}
	return c.Append(ctx, accessToken, row)
}

func (c *sheetsClientImpl) Append(ctx context.Context, accessToken string, row []any) (*AppendResult, error) {
	res, err := c.append(ctx, accessToken, row)
	if err != nil {
		metrics.SheetAppendsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.SheetAppendsTotal.WithLabelValues("ok").Inc()
	return res, nil
}

func (c *sheetsClientImpl) appendURL() string {
	query := url.Values{}
	query.Set("valueInputOption", "USER_ENTERED")
	query.Set("insertDataOption", "INSERT_ROWS")

	return fmt.Sprintf(
		"%s/spreadsheets/%s/values/%s:append?%s",
		c.baseURL,
		url.PathEscape(c.spreadsheetID),
		url.PathEscape(c.sheetName+"!"+AppendRange),
		query.Encode(),
	)
}

func (c *sheetsClientImpl) append(ctx context.Context, accessToken string, row []any) (*AppendResult, error) {
	if accessToken == "" {
		return nil, fmt.Errorf("%w: empty access token", ErrAuthExchange)
	}

	body, err := json.Marshal(valueRange{Values: [][]any{row}})
	if err != nil {
		return nil, fmt.Errorf("%w: marshal row: %w", ErrAppend, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.appendURL(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: http new request: %w", ErrAppend, err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: http client do: %w", ErrAppend, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", ErrAppend, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: google sheets error %d: %s", ErrAppend, resp.StatusCode, string(respBody))
	}

	result := &AppendResult{Raw: json.RawMessage(respBody)}

	// only used for logging; a body we can't read is still a successful append
	var decoded appendResponse
	if json.Unmarshal(respBody, &decoded) == nil {
		result.UpdatedRange = decoded.Updates.UpdatedRange
	}

	return result, nil
}
