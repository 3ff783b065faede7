package sensor

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"heating_bridge/internal/config"
)

func newSensorServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		var req struct {
			DeviceID string `json:"device_id"`
			AuthKey  string `json:"auth_key"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.DeviceID != "dev-1" || req.AuthKey != "key-1" {
			t.Errorf("unexpected credentials: %+v", req)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
}

func testClient(url string) *Client {
	return NewClient(config.SensorConfig{
		URL:      url,
		DeviceID: "dev-1",
		AuthKey:  "key-1",
		Room:     "living_room",
		Timeout:  2 * time.Second,
	})
}

func TestRead_Success(t *testing.T) {
	srv := newSensorServer(t, http.StatusOK, `{"temperature":20.9}`)
	defer srv.Close()

	c := testClient(srv.URL)
	got, err := c.Read(context.Background())
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got != 20.9 {
		t.Fatalf("temperature = %v, want 20.9", got)
	}
	if c.Room() != "living_room" {
		t.Fatalf("room = %q", c.Room())
	}
}

func TestRead_NotConfigured(t *testing.T) {
	c := NewClient(config.SensorConfig{})
	if _, err := c.Read(context.Background()); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestRead_NonOKStatus(t *testing.T) {
	srv := newSensorServer(t, http.StatusForbidden, `{"error":"bad key"}`)
	defer srv.Close()

	if _, err := testClient(srv.URL).Read(context.Background()); err == nil {
		t.Fatalf("expected error on 403")
	}
}

func TestRead_MissingTemperatureField(t *testing.T) {
	srv := newSensorServer(t, http.StatusOK, `{}`)
	defer srv.Close()

	if _, err := testClient(srv.URL).Read(context.Background()); err == nil {
		t.Fatalf("expected error when temperature is absent")
	}
}
