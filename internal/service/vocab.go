package service

import (
	"heating_bridge/internal/cloud"
	"heating_bridge/internal/config"
	"heating_bridge/internal/models"
)

// CommandSet is the mode vocabulary of one device model: which commands to
// send and which token means HOME or AWAY. The vendor never published a
// canonical table; different firmwares accept different tokens for the same
// logical mode, so this is versioned data keyed on capability and widget,
// never a constant baked into a call site.
type CommandSet struct {
	Version            string
	TemperatureCommand string
	ModeCommand        string
	HomeToken          string
	AwayToken          string
}

// Token returns the mode token for a HOME/AWAY request.
func (cs CommandSet) Token(mode string) string {
	if mode == models.ModeAway {
		return cs.AwayToken
	}
	return cs.HomeToken
}

// Vocabulary resolves the command set for a device, widget rows first, then
// the capability-wide defaults.
type Vocabulary struct {
	byWidget     map[string]CommandSet
	byCapability map[models.Capability]CommandSet
}

// NewVocabulary builds the table from the built-in defaults plus
// configuration overrides.
func NewVocabulary(overrides []config.VocabOverride) *Vocabulary {
	v := &Vocabulary{
		byCapability: map[models.Capability]CommandSet{
			models.CapabilityHeater: {
				Version:            "2024.1",
				TemperatureCommand: cloud.CmdSetTargetTemperature,
				ModeCommand:        cloud.CmdSetOperatingMode,
				HomeToken:          "internal",
				AwayToken:          "away",
			},
			models.CapabilityTowelDryer: {
				Version:            "2024.1",
				TemperatureCommand: cloud.CmdSetTargetTemperature,
				ModeCommand:        cloud.CmdSetTowelDryerOperatingMode,
				HomeToken:          "internal",
				AwayToken:          "external",
			},
		},
		byWidget: map[string]CommandSet{
			// Older electrical heaters reject "internal" and want "basic"
			// for the schedule-driven home mode.
			"AtlanticElectricalHeater": {
				Version:            "2024.1",
				TemperatureCommand: cloud.CmdSetTargetTemperature,
				ModeCommand:        cloud.CmdSetOperatingMode,
				HomeToken:          "basic",
				AwayToken:          "away",
			},
		},
	}

	for _, o := range overrides {
		base, ok := v.byWidget[o.Widget]
		if !ok {
			base = v.byCapability[models.CapabilityHeater]
		}
		base.Version = "override"
		if o.HomeToken != "" {
			base.HomeToken = o.HomeToken
		}
		if o.AwayToken != "" {
			base.AwayToken = o.AwayToken
		}
		v.byWidget[o.Widget] = base
	}
	return v
}

// Lookup resolves the command set for one device. The widget row outranks
// the capability default; Other devices have no vocabulary at all.
func (v *Vocabulary) Lookup(d models.Device) (CommandSet, bool) {
	if !d.Capability.Controllable() {
		return CommandSet{}, false
	}
	if cs, ok := v.byWidget[d.Widget]; ok {
		// Widget rows are written for heaters; a towel dryer keeps its own
		// mode command even when a widget override matches its name.
		if d.Capability == models.CapabilityTowelDryer {
			cs.ModeCommand = cloud.CmdSetTowelDryerOperatingMode
		}
		return cs, true
	}
	cs, ok := v.byCapability[d.Capability]
	return cs, ok
}
