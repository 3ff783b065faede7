package cloud

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"heating_bridge/internal/config"
	"heating_bridge/internal/models"
)

const testSetupBody = `{
	"devices": [
		{
			"deviceURL": "io://1111-2222-3333/100#1",
			"label": "Radiateur Salon",
			"widget": "AtlanticElectricalHeaterWithAdjustableTemperatureSetpoint",
			"definition": {"commands": [
				{"commandName": "setOperatingMode"},
				{"commandName": "setTargetTemperature"}
			]},
			"states": [
				{"name": "core:TargetTemperatureState", "value": 19.5},
				{"name": "core:TemperatureState", "value": 20.1}
			]
		},
		{
			"deviceURL": "io://1111-2222-3333/200#1",
			"label": "Seche-serviettes",
			"widget": "TowelDryer",
			"definition": {"commands": [
				{"commandName": "setOperatingMode"},
				{"commandName": "setTowelDryerOperatingMode"},
				{"commandName": "setTargetTemperature"}
			]},
			"states": [{"name": "core:TargetTemperatureState", "value": "19.5"}]
		},
		{
			"deviceURL": "io://1111-2222-3333/100#2",
			"label": "Sonde Salon",
			"widget": "TemperatureSensor",
			"definition": {"commands": []},
			"states": [{"name": "core:TemperatureState", "value": 19.8}]
		}
	]
}`

var testRooms = []config.RoomConfig{
	{Name: "living_room", LabelMatch: "salon", ComfortTempC: 19.5},
	{Name: "bathroom", LabelMatch: "seche", ComfortTempC: 19.5},
}

// newCloudServer serves login, setup and exec endpoints. rejectFirst makes
// the first N API calls answer 401 to exercise the refresh-once path.
func newCloudServer(t *testing.T, rejectFirst int) (*httptest.Server, *cloudHits) {
	t.Helper()
	hits := &cloudHits{rejectRemaining: int32(rejectFirst)}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/login":
			if r.Method == http.MethodPost {
				atomic.AddInt32(&hits.logins, 1)
			}
			w.WriteHeader(http.StatusOK)
		case r.URL.Path == "/setup":
			if atomic.AddInt32(&hits.rejectRemaining, -1) >= 0 {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			atomic.AddInt32(&hits.setups, 1)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(testSetupBody))
		case r.URL.Path == "/exec/apply":
			atomic.AddInt32(&hits.execs, 1)
			var req execRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("decode exec body: %v", err)
			}
			hits.lastExec = req
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"execId":"exec-1"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	return srv, hits
}

type cloudHits struct {
	logins          int32
	setups          int32
	execs           int32
	rejectRemaining int32
	lastExec        execRequest
}

func dialTestClient(t *testing.T, endpoints []string) *Client {
	t.Helper()
	d := NewDialer(config.CloudConfig{
		User:      "u",
		Password:  "p",
		Endpoints: endpoints,
		Timeout:   5 * time.Second,
	}, testRooms, nil)
	cli, err := d.Dial(context.Background())
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	return cli
}

func TestListDevices_ClassifiesAndMapsRooms(t *testing.T) {
	srv, _ := newCloudServer(t, 0)
	defer srv.Close()

	cli := dialTestClient(t, []string{srv.URL})

	devices, err := cli.ListDevices(context.Background())
	if err != nil {
		t.Fatalf("ListDevices failed: %v", err)
	}
	if len(devices) != 3 {
		t.Fatalf("expected 3 devices, got %d", len(devices))
	}

	byLabel := map[string]models.Device{}
	for _, d := range devices {
		byLabel[d.Label] = d
	}

	heater := byLabel["Radiateur Salon"]
	if heater.Capability != models.CapabilityHeater {
		t.Fatalf("heater classified as %s", heater.Capability)
	}
	if heater.Room != "living_room" || heater.ComfortTempC != 19.5 {
		t.Fatalf("heater room mapping wrong: %+v", heater)
	}

	// Exposes both mode commands; the towel-dryer pattern is more specific
	// and must win.
	dryer := byLabel["Seche-serviettes"]
	if dryer.Capability != models.CapabilityTowelDryer {
		t.Fatalf("towel dryer classified as %s", dryer.Capability)
	}

	probe := byLabel["Sonde Salon"]
	if probe.Capability != models.CapabilityOther {
		t.Fatalf("sensor classified as %s", probe.Capability)
	}
	if probe.Room != "living_room" {
		t.Fatalf("sensor room mapping wrong: %+v", probe)
	}
	if probe.BaseURL() != heater.BaseURL() {
		t.Fatalf("co-located sensor should share base URL: %q vs %q", probe.BaseURL(), heater.BaseURL())
	}
}

func TestExecute_SubmitsOneAtomicBatch(t *testing.T) {
	srv, hits := newCloudServer(t, 0)
	defer srv.Close()

	cli := dialTestClient(t, []string{srv.URL})

	batch := []Command{
		{Name: "setTargetTemperature", Parameters: []any{16.0}},
		{Name: "setOperatingMode", Parameters: []any{"away"}},
	}
	execID, err := cli.Execute(context.Background(), "Radiateur Salon", "io://1111-2222-3333/100#1", batch)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if execID != "exec-1" {
		t.Fatalf("unexpected execId %q", execID)
	}
	if hits.execs != 1 {
		t.Fatalf("expected a single exec call, got %d", hits.execs)
	}
	if len(hits.lastExec.Actions) != 1 {
		t.Fatalf("expected one action, got %d", len(hits.lastExec.Actions))
	}
	got := hits.lastExec.Actions[0]
	if got.DeviceURL != "io://1111-2222-3333/100#1" {
		t.Fatalf("wrong device URL %q", got.DeviceURL)
	}
	if len(got.Commands) != 2 || got.Commands[0].Name != "setTargetTemperature" || got.Commands[1].Name != "setOperatingMode" {
		t.Fatalf("command order not preserved: %+v", got.Commands)
	}
}

func TestClient_SessionPinnedAcrossCalls(t *testing.T) {
	// First-ranked endpoint always refuses logins; the session must pin to
	// the second endpoint and stay there for every later call.
	var rejectHits loginHits
	reject := newLoginServer(t, http.StatusNotFound, &rejectHits)
	defer reject.Close()

	srv, hits := newCloudServer(t, 0)
	defer srv.Close()

	cli := dialTestClient(t, []string{reject.URL, srv.URL})

	if cli.Session().Endpoint != srv.URL {
		t.Fatalf("expected pin to %q, got %q", srv.URL, cli.Session().Endpoint)
	}
	if _, err := cli.ListDevices(context.Background()); err != nil {
		t.Fatalf("ListDevices failed: %v", err)
	}
	if _, err := cli.DeviceStates(context.Background()); err != nil {
		t.Fatalf("DeviceStates failed: %v", err)
	}
	// Both reads hit the pinned endpoint; the rejecting endpoint saw only
	// the initial login probe.
	if hits.setups != 2 {
		t.Fatalf("expected 2 setup reads on pinned endpoint, got %d", hits.setups)
	}
	if rejectHits.posts != 1 {
		t.Fatalf("first-ranked endpoint should only see the initial acquire, got %d posts", rejectHits.posts)
	}
}

func TestClient_RefreshesOnceOn401(t *testing.T) {
	srv, hits := newCloudServer(t, 1) // first API call answers 401
	defer srv.Close()

	cli := dialTestClient(t, []string{srv.URL})

	if _, err := cli.ListDevices(context.Background()); err != nil {
		t.Fatalf("ListDevices failed after refresh: %v", err)
	}
	// one login for Dial, one for the refresh
	if hits.logins != 2 {
		t.Fatalf("expected exactly 2 logins, got %d", hits.logins)
	}
	if hits.setups != 1 {
		t.Fatalf("expected the retried call to succeed once, got %d", hits.setups)
	}
}

func TestClient_SecondAuthFailureIsNotRetried(t *testing.T) {
	srv, hits := newCloudServer(t, 10) // every API call answers 401
	defer srv.Close()

	cli := dialTestClient(t, []string{srv.URL})

	if _, err := cli.ListDevices(context.Background()); err == nil {
		t.Fatalf("expected error when the retry is rejected too")
	}
	// Dial + one refresh; no unbounded re-auth loop.
	if hits.logins != 2 {
		t.Fatalf("expected exactly 2 logins, got %d", hits.logins)
	}
}
