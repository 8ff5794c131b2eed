package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"boat-safety-go/pkg/models"
)

// GroundStationClient pushes alert batches to the ground control station.
type GroundStationClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewGroundStationClient creates a client for the station at baseURL.
func NewGroundStationClient(baseURL string, timeout time.Duration, logger *logrus.Logger) *GroundStationClient {
	return &GroundStationClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Publish POSTs batch as JSON to /alerts.
func (c *GroundStationClient) Publish(ctx context.Context, batch models.AlertBatch) error {
	payload, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("failed to encode alert batch: %w", err)
	}

	url := c.baseURL + "/alerts"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debugf("Publishing batch %s with %d alerts to %s", batch.ScanID, len(batch.Alerts), url)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send alert batch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("ground station returned status %d: %s", resp.StatusCode, string(body))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// CheckHealth queries the station's /health endpoint.
func (c *GroundStationClient) CheckHealth(ctx context.Context) (*models.HealthResponse, error) {
	c.logger.Debug("Checking ground station health")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ground station returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var health models.HealthResponse
	if err := json.Unmarshal(respBody, &health); err != nil {
		return nil, fmt.Errorf("failed to decode health response: %w", err)
	}
	return &health, nil
}
