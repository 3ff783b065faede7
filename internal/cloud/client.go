package cloud

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"heating_bridge/internal/config"
	"heating_bridge/internal/logger"
	"heating_bridge/internal/models"
)

// ErrFetch means the device listing could not be read. Fatal to the
// operation, unlike per-device command failures.
var ErrFetch = errors.New("device listing unavailable")

// Client talks to the heating cloud through one pinned session. Every call
// targets the session's endpoint; on a 401/403 the session is discarded,
// re-acquired once, and the original call retried exactly once.
type Client struct {
	auth    *Authenticator
	session *Session
	timeout time.Duration
	rooms   []config.RoomConfig
	log     *logger.Logger
}

// Dialer produces one fresh Client per operation. Sessions are not shared
// across concurrent operations, so a background telemetry tick can never
// invalidate a session out from under a user-triggered mode change.
type Dialer struct {
	auth    *Authenticator
	timeout time.Duration
	rooms   []config.RoomConfig
	log     *logger.Logger
}

func NewDialer(cfg config.CloudConfig, rooms []config.RoomConfig, log *logger.Logger) *Dialer {
	return &Dialer{
		auth:    NewAuthenticator(cfg.Endpoints, cfg.User, cfg.Password, cfg.Timeout, log),
		timeout: cfg.Timeout,
		rooms:   rooms,
		log:     log,
	}
}

// Dial acquires a session and returns a client bound to it.
func (d *Dialer) Dial(ctx context.Context) (*Client, error) {
	s, err := d.auth.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return &Client{
		auth:    d.auth,
		session: s,
		timeout: d.timeout,
		rooms:   d.rooms,
		log:     d.log,
	}, nil
}

// Session exposes the pinned session, mainly for tests.
func (c *Client) Session() *Session { return c.session }

// ListDevices reads the device collection from the pinned endpoint and
// classifies each entry by capability.
func (c *Client) ListDevices(ctx context.Context) ([]models.Device, error) {
	setup, err := c.fetchSetup(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}

	devices := make([]models.Device, 0, len(setup.Devices))
	for _, sd := range setup.Devices {
		d := models.Device{
			DeviceURL:  sd.DeviceURL,
			Label:      sd.Label,
			Widget:     sd.Widget,
			Capability: classify(commandNames(sd)),
			Commands:   commandNames(sd),
		}
		if rc, ok := roomFor(c.rooms, sd.Label); ok {
			d.Room = rc.Name
			d.ComfortTempC = rc.ComfortTempC
		}
		devices = append(devices, d)
	}
	return devices, nil
}

// DeviceStates re-reads the raw state lists, keyed by device URL.
func (c *Client) DeviceStates(ctx context.Context) (map[string]DeviceState, error) {
	setup, err := c.fetchSetup(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	out := make(map[string]DeviceState, len(setup.Devices))
	for _, sd := range setup.Devices {
		out[sd.DeviceURL] = newDeviceState(sd.States)
	}
	return out, nil
}

// Execute submits one ordered command batch for one device as a single
// atomic request. The caller is responsible for command ordering inside the
// batch; the cloud applies the list in order.
func (c *Client) Execute(ctx context.Context, label, deviceURL string, commands []Command) (string, error) {
	body := execRequest{
		Label: label,
		Actions: []deviceAction{
			{DeviceURL: deviceURL, Commands: commands},
		},
	}
	var resp execResponse
	if err := c.doJSON(ctx, http.MethodPost, "/exec/apply", body, &resp); err != nil {
		return "", err
	}
	return resp.ExecID, nil
}

func (c *Client) fetchSetup(ctx context.Context) (*setupResponse, error) {
	var setup setupResponse
	if err := c.doJSON(ctx, http.MethodGet, "/setup", nil, &setup); err != nil {
		return nil, err
	}
	return &setup, nil
}

// doJSON performs one call against the pinned endpoint. A 401/403 response
// invalidates the session, re-acquires once and replays the call; any
// second authorization failure is surfaced as-is.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	status, err := c.once(ctx, method, path, body, out)
	if err != nil {
		return err
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		if c.log != nil {
			c.log.Infow("cloud_session_expired", "endpoint", c.session.Endpoint, "status", status)
		}
		fresh, err := c.auth.Acquire(ctx)
		if err != nil {
			return err
		}
		c.session = fresh
		status, err = c.once(ctx, method, path, body, out)
		if err != nil {
			return err
		}
	}
	if status != http.StatusOK {
		return fmt.Errorf("%s %s: status %d", method, path, status)
	}
	return nil
}

func (c *Client) once(ctx context.Context, method, path string, body, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	u := strings.TrimRight(c.session.Endpoint, "/") + path
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	cli := &http.Client{Timeout: c.timeout, Jar: c.session.jar}
	res, err := cli.Do(req)
	if err != nil {
		return 0, err
	}
	defer drainAndClose(res)

	if res.StatusCode != http.StatusOK {
		return res.StatusCode, nil
	}
	if out != nil {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			return 0, fmt.Errorf("decode response: %w", err)
		}
	}
	return res.StatusCode, nil
}

func commandNames(sd setupDevice) []string {
	names := make([]string, 0, len(sd.Definition.Commands))
	for _, sc := range sd.Definition.Commands {
		names = append(names, sc.CommandName)
	}
	return names
}

func roomFor(rooms []config.RoomConfig, label string) (config.RoomConfig, bool) {
	for _, r := range rooms {
		match := r.LabelMatch
		if match == "" {
			match = r.Name
		}
		if strings.Contains(strings.ToLower(label), strings.ToLower(match)) {
			return r, true
		}
	}
	return config.RoomConfig{}, false
}

func drainAndClose(res *http.Response) {
	_, _ = io.Copy(io.Discard, res.Body)
	_ = res.Body.Close()
}
