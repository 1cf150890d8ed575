// Package stream is the HTTP client for the remote streaming platform. The
// platform's upload and encoding pipeline is opaque to this service; the only
// operations consumed are the per-asset status query and the re-processing
// trigger.
package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// AssetState represents the platform's reported state for an asset.
type AssetState string

const (
	StateReady      AssetState = "ready"
	StateProcessing AssetState = "processing"
	StateError      AssetState = "error"
)

// AssetStatus is the platform's current view of one asset.
type AssetStatus struct {
	RemoteAssetID   string     `json:"asset_id"`
	State           AssetState `json:"state"`
	DurationSeconds *float64   `json:"duration_seconds,omitempty"`
	Width           *int       `json:"width,omitempty"`
	Height          *int       `json:"height,omitempty"`
	PlaybackURL     *string    `json:"playback_url,omitempty"`
	ThumbnailURL    *string    `json:"thumbnail_url,omitempty"`
	PreviewURL      *string    `json:"preview_url,omitempty"`
	SizeBytes       *int64     `json:"size_bytes,omitempty"`
	ErrorCode       *string    `json:"error_code,omitempty"`
	ErrorMessage    *string    `json:"error_message,omitempty"`
}

// ErrAssetNotFound is returned when the platform has no record of the asset.
var ErrAssetNotFound = errors.New("remote asset not found")

// Client talks to the streaming platform API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a new platform client.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// GetStatus queries the platform for the current status of an asset.
func (c *Client) GetStatus(ctx context.Context, remoteAssetID string) (*AssetStatus, error) {
	url := fmt.Sprintf("%s/assets/%s", c.baseURL, remoteAssetID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query asset status: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, ErrAssetNotFound
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("query asset status: HTTP %d", resp.StatusCode)
	}

	var status AssetStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("decode asset status: %w", err)
	}
	if status.RemoteAssetID == "" {
		status.RemoteAssetID = remoteAssetID
	}

	return &status, nil
}

// RetryProcessing asks the platform to re-run processing for an asset.
func (c *Client) RetryProcessing(ctx context.Context, remoteAssetID string) error {
	url := fmt.Sprintf("%s/assets/%s/retry", c.baseURL, remoteAssetID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request retry: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode == http.StatusNotFound {
		return ErrAssetNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("request retry: HTTP %d", resp.StatusCode)
	}

	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}
