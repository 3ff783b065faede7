// Package sensor reads the independent temperature sensor cloud. One device,
// one monitored room; a failed or missing reading is never fatal to a
// snapshot.
package sensor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"heating_bridge/internal/config"
)

// ErrNotConfigured is returned when no sensor account is configured; callers
// treat it like any other missing reading.
var ErrNotConfigured = errors.New("sensor cloud not configured")

type Client struct {
	url      string
	deviceID string
	authKey  string
	room     string
	http     *http.Client
}

func NewClient(cfg config.SensorConfig) *Client {
	return &Client{
		url:      cfg.URL,
		deviceID: cfg.DeviceID,
		authKey:  cfg.AuthKey,
		room:     cfg.Room,
		http:     &http.Client{Timeout: cfg.Timeout},
	}
}

// Room is the monitored room this sensor observes.
func (c *Client) Room() string { return c.room }

type readRequest struct {
	DeviceID string `json:"device_id"`
	AuthKey  string `json:"auth_key"`
}

type readResponse struct {
	Temperature *float64 `json:"temperature"`
}

// Read fetches the current sensor temperature.
func (c *Client) Read(ctx context.Context) (float64, error) {
	if c.url == "" || c.deviceID == "" {
		return 0, ErrNotConfigured
	}

	body, err := json.Marshal(readRequest{DeviceID: c.deviceID, AuthKey: c.authKey})
	if err != nil {
		return 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("sensor read: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, res.Body)
		_ = res.Body.Close()
	}()

	if res.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("sensor read: status %d", res.StatusCode)
	}

	var out readResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("sensor read: decode: %w", err)
	}
	if out.Temperature == nil {
		return 0, errors.New("sensor read: no temperature field in response")
	}
	return *out.Temperature, nil
}
