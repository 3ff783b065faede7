package cloud

import (
	"encoding/json"
	"math"
	"strconv"
)

// Vendor state names vary across device firmwares and clusters. Each logical
// quantity is resolved through one ordered priority list instead of ad hoc
// chained lookups at call sites.
//
// The effective setpoint reflects post-processing by the device firmware
// (active derogation and the like) and therefore outranks the nominal target
// when both are present.
var (
	setpointStates = []string{
		"io:EffectiveTemperatureSetpointState",
		"core:TargetTemperatureState",
		"core:ComfortRoomTemperatureState",
	}
	ambientStates = []string{
		"core:TemperatureState",
		"io:MiddleWaterTemperatureState",
	}
)

// DeviceState is the normalized state list of one device.
type DeviceState struct {
	values map[string]any
}

// NewDeviceState builds a state from already-normalized name/value pairs.
func NewDeviceState(values map[string]any) DeviceState {
	return DeviceState{values: values}
}

func newDeviceState(raw []rawDeviceState) DeviceState {
	m := make(map[string]any, len(raw))
	for _, st := range raw {
		m[st.Name] = st.Value
	}
	return DeviceState{values: m}
}

// Setpoint resolves the authoritative setpoint, effective before nominal.
func (ds DeviceState) Setpoint() (float64, bool) {
	return ds.resolve(setpointStates, false)
}

// Ambient resolves the measured room temperature. Zero or absent readings
// are discarded: a heater without a probe reports 0, which must never
// surface as a real 0°C measurement.
func (ds DeviceState) Ambient() (float64, bool) {
	return ds.resolve(ambientStates, true)
}

func (ds DeviceState) resolve(priority []string, rejectZero bool) (float64, bool) {
	for _, name := range priority {
		raw, ok := ds.values[name]
		if !ok {
			continue
		}
		v, ok := toFloat(raw)
		if !ok || math.IsNaN(v) {
			continue
		}
		if rejectZero && v == 0 {
			continue
		}
		return v, true
	}
	return 0, false
}

// toFloat normalizes the value shapes the clusters are known to emit:
// JSON numbers, integer values, and numeric strings.
func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(t, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
