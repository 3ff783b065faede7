package cloud

import "heating_bridge/internal/models"

// Command names that identify a capability. The towel-dryer command is the
// more specific signal and must be checked first: some towel dryers also
// expose the generic operating-mode command, and checking the generic
// pattern first misclassifies them as plain heaters.
const (
	CmdSetOperatingMode           = "setOperatingMode"
	CmdSetTowelDryerOperatingMode = "setTowelDryerOperatingMode"
	CmdSetTargetTemperature       = "setTargetTemperature"
	CmdSetDerogatedTemperature    = "setDerogatedTargetTemperature"
	CmdSetHolidaysTemperature     = "setHolidaysTargetTemperature"
)

// classify tags a device by the control vocabulary it declares. Devices with
// no mode command at all stay Other: excluded from control, still visible as
// a room-temperature source.
func classify(commands []string) models.Capability {
	if hasCommand(commands, CmdSetTowelDryerOperatingMode) {
		return models.CapabilityTowelDryer
	}
	if hasCommand(commands, CmdSetOperatingMode) {
		return models.CapabilityHeater
	}
	return models.CapabilityOther
}

func hasCommand(commands []string, want string) bool {
	for _, c := range commands {
		if c == want {
			return true
		}
	}
	return false
}
