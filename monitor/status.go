package monitor

import (
	"fmt"
	"strings"
)

// Device states reported on the console.
const (
	StateBoot       = "Boot"
	StateStopped    = "Stopped"
	StateMoving     = "Moving"
	StateSleeping   = "Sleeping"
	StateReserved   = "Reserved"
	StatePwrProtect = "PwrProtect"
	StateIdling     = "Idling"
	StateTowing     = "Towing"
	StateSpeeding   = "Speeding"
)

var ValidStates = []string{
	StateBoot, StateStopped, StateMoving, StateSleeping, StateReserved,
	StatePwrProtect, StateIdling, StateTowing, StateSpeeding,
}

// Device event statuses.
const (
	EventIgnitionOn         = "Ignition On"
	EventIgnitionOff        = "Ignition Off"
	EventVirtualIgnitionOn  = "Virtual Ignition On"
	EventVirtualIgnitionOff = "Virtual Ignition Off"
	EventReboot             = "Device Reboot"
	EventRebootComplete     = "Reboot Complete"
	EventEndOfTow           = "End of Tow"
)

// Events maps the raw console event names to their display values.
var Events = map[string]string{
	"EVENT_IGNITION_ON":    EventIgnitionOn,
	"IGNITION_OFF":         EventIgnitionOff,
	"EVENT_VIRTUAL_IGN_ON": EventVirtualIgnitionOn,
	"VIRTUAL_IGN_OFF":      EventVirtualIgnitionOff,
	"DEVICE_REBOOT":        EventReboot,
	"END_OF_TOW":           EventEndOfTow,
}

// InfoHooks lists the identity fields printed by the version command. Each
// appears on the console as '<hook>=<value>'.
var InfoHooks = []string{
	"main", "sett", "vcm", "vcm_cfg", "bt", "power",
	"imei", "imsi", "iccid", "msidn",
}

// SettingCount is the number of numbered settings printed by the settings
// command.
const SettingCount = 122

// Console line search hooks.
const (
	hookVoltage = "Vin"
	hookState   = "sats:"
	hookEvent   = ">< >< ><"
)

// Byte offsets into state and event lines where the value begins.
const (
	stateOffset = 20
	eventOffset = 9
)

// Status is the device status assembled from parsed console lines.
type Status struct {
	State    string
	Vin      string
	Batt     string
	Event    string
	Sleeping bool
}

// updateStatus applies a console line to the status. Line formats can be
// corrupted by interference during transmission, so lines that fail to parse
// are ignored.
func updateStatus(s *Status, line string) {
	if line == SleepMarker {
		s.State = StateSleeping
		s.Sleeping = true
		return
	}
	if s.Sleeping && !strings.Contains(line, ".") {
		s.State = StateStopped
		s.Sleeping = false
	}

	switch {
	case strings.Contains(line, hookState):
		state, ok := ParseState(line)
		if !ok {
			return
		}
		switch {
		case state == StateMoving &&
			(s.Event == EventIgnitionOn || s.Event == EventVirtualIgnitionOn):
			s.State = s.Event
		case state == StateSleeping && !s.Sleeping:
			s.State = StateStopped
		default:
			s.State = state
		}

		// State lines sometimes carry the voltages too.
		if vin, batt, ok := ParseVoltage(line); ok {
			s.Vin, s.Batt = vin, batt
		}

	case strings.Contains(line, hookEvent):
		if event, ok := ParseEvent(line); ok {
			s.Event = event
		}

	case strings.Contains(line, hookVoltage):
		if vin, batt, ok := ParseVoltage(line); ok {
			s.Vin, s.Batt = vin, batt
		}
	}
}

// ParseVoltage extracts the main and battery voltages from a console line
// carrying both.
func ParseVoltage(line string) (vin, batt string, ok bool) {
	vin = valueAfter(line, hookVoltage)
	batt = valueAfter(line, "Batt")
	if vin == "" || batt == "" {
		return "", "", false
	}
	return vin + " mV", batt + " mV", true
}

// ParseState extracts the device state from a console state line.
func ParseState(line string) (string, bool) {
	if len(line) <= stateOffset {
		return "", false
	}
	fields := strings.Fields(line[stateOffset:])
	if len(fields) == 0 {
		return "", false
	}
	for _, s := range ValidStates {
		if fields[0] == s {
			return s, true
		}
	}
	return "", false
}

// ParseEvent extracts the event status from a console event line.
func ParseEvent(line string) (string, bool) {
	if len(line) <= eventOffset {
		return "", false
	}
	fields := strings.Fields(line[eventOffset:])
	if len(fields) == 0 {
		return "", false
	}
	event, ok := Events[fields[0]]
	return event, ok
}

// ParseInfo extracts the identity fields listed in InfoHooks from version
// command output.
func ParseInfo(lines []string) map[string]string {
	info := make(map[string]string, len(InfoHooks))
	for _, hook := range InfoHooks {
		for _, line := range lines {
			if v := valueAfter(line, hook+"="); v != "" {
				info[hook] = v
				break
			}
		}
	}
	return info
}

// ParseSettings extracts the numbered settings from settings command output.
// Keys follow the console's 'settings[NN]' form.
func ParseSettings(lines []string) map[string]string {
	settings := make(map[string]string, SettingCount)
	for i := 1; i <= SettingCount; i++ {
		key := fmt.Sprintf("settings[%02d]", i)
		for _, line := range lines {
			line = strings.ReplaceAll(line, "\t", "")
			if !strings.Contains(line, key) {
				continue
			}
			if _, v, found := strings.Cut(line, "="); found {
				settings[key] = strings.TrimLeft(v, " ")
				break
			}
		}
	}
	return settings
}

// valueAfter returns the first space-delimited token following the hook in
// the line, or an empty string when the hook is absent.
func valueAfter(line, hook string) string {
	_, after, found := strings.Cut(line, hook)
	if !found {
		return ""
	}
	fields := strings.Fields(after)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
