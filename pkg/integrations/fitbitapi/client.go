// Package fitbitapi is a client for the Fitbit Web API data endpoints the
// pull-model webhook uses. Fitbit subscription notifications contain no
// measurements, only a pointer (ownerId, collectionType, date) to data
// that must be fetched separately.
package fitbitapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	httputil "github.com/caregrid/telemetry-relay/pkg/infrastructure/http"
)

const baseURL = "https://api.fitbit.com"

// Client is an API client for the Fitbit Web API.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a Fitbit client authenticated with a static OAuth2
// access token.
func NewClient(accessToken string) *Client {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})
	httpClient := oauth2.NewClient(context.Background(), src)
	httpClient.Timeout = 30 * time.Second
	return &Client{
		baseURL: baseURL,
		client:  httpClient,
	}
}

// NewClientWithBaseURL is used by tests to point the client at a local server.
func NewClientWithBaseURL(accessToken, base string) *Client {
	c := NewClient(accessToken)
	c.baseURL = base
	return c
}

// ActivitySummary is the activities section of a daily activity response.
type ActivitySummary struct {
	Steps               float64 `json:"steps"`
	CaloriesOut         float64 `json:"caloriesOut"`
	RestingHeartRate    float64 `json:"restingHeartRate"`
	FairlyActiveMinutes float64 `json:"fairlyActiveMinutes"`
	VeryActiveMinutes   float64 `json:"veryActiveMinutes"`
	Floors              float64 `json:"floors"`
}

// DailyActivityResponse is the response of the daily activity summary endpoint.
type DailyActivityResponse struct {
	Summary ActivitySummary `json:"summary"`
}

// SleepLogResponse is the response of the sleep-by-date endpoint.
type SleepLogResponse struct {
	Summary struct {
		TotalMinutesAsleep float64 `json:"totalMinutesAsleep"`
		TotalTimeInBed     float64 `json:"totalTimeInBed"`
	} `json:"summary"`
}

// GetDailyActivitySummary fetches the activity summary for a user and date
// (date format 2006-01-02).
func (c *Client) GetDailyActivitySummary(ctx context.Context, ownerID, date string) (*DailyActivityResponse, error) {
	var out DailyActivityResponse
	path := fmt.Sprintf("/1/user/%s/activities/date/%s.json", ownerID, date)
	if err := c.doRequest(ctx, path, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetSleepLog fetches the sleep summary for a user and date.
func (c *Client) GetSleepLog(ctx context.Context, ownerID, date string) (*SleepLogResponse, error) {
	var out SleepLogResponse
	path := fmt.Sprintf("/1.2/user/%s/sleep/date/%s.json", ownerID, date)
	if err := c.doRequest(ctx, path, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// doRequest performs an authenticated GET and decodes the JSON response.
func (c *Client) doRequest(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if err := httputil.ParseErrorResponse(resp); err != nil {
		return fmt.Errorf("fitbit API: %w", err)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
