package models

// Capability classifies a device by the command vocabulary it accepts.
type Capability string

const (
	CapabilityHeater     Capability = "HEATER"
	CapabilityTowelDryer Capability = "TOWEL_DRYER"
	CapabilityOther      Capability = "OTHER"
)

// Controllable reports whether the engine sends commands to this capability.
func (c Capability) Controllable() bool {
	return c == CapabilityHeater || c == CapabilityTowelDryer
}

// Device is one cloud-registered entity. Populated fresh from the directory
// fetch for every operation; the cloud is the source of truth, so there is no
// persistent cache.
type Device struct {
	DeviceURL    string     `json:"device_url"` // stable identifier, e.g. "io://1234-5678-9012/12345678#1"
	Label        string     `json:"label"`
	Widget       string     `json:"widget"` // vendor device-model tag, keys the mode vocabulary
	Capability   Capability `json:"capability"`
	Room         string     `json:"room,omitempty"`
	ComfortTempC float64    `json:"comfort_temp_c,omitempty"` // HOME-mode target from configuration
	Commands     []string   `json:"-"`                        // declared command names, used for classification
}

// BaseURL returns the device URL with any trailing "#<n>" subsystem suffix
// stripped. A temperature sensor co-located with a controllable device shares
// this prefix.
func (d Device) BaseURL() string {
	for i := 0; i < len(d.DeviceURL); i++ {
		if d.DeviceURL[i] == '#' {
			return d.DeviceURL[:i]
		}
	}
	return d.DeviceURL
}
