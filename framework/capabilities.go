package framework

import (
	"strings"

	"github.com/sak85/API-Automation-POC/framework/helpers"
)

const (
	// CapabilityAPI means the run can execute scenarios that only talk HTTP.
	CapabilityAPI = "api"
	// CapabilityUI means the run has a browser available for UI scenarios.
	CapabilityUI = "ui"
)

// Run modes.
const (
	ModeAPI      = "api"
	ModeUI       = "ui"
	ModeCombined = "combined"
	// ModeAuto runs every scenario, but skips UI scenarios when no browser can be started.
	ModeAuto = "auto"
)

// Capabilities is the list of kinds of scenario the current run is able to execute.
type Capabilities []string

// CapabilitiesForMode maps a run mode ("api", "ui", "combined" or "auto") to capabilities.
// Unknown modes get everything, which is the same as "auto".
func CapabilitiesForMode(mode string) Capabilities {
	switch strings.ToLower(mode) {
	case ModeAPI:
		return Capabilities{CapabilityAPI}
	case ModeUI:
		return Capabilities{CapabilityUI}
	default:
		return Capabilities{CapabilityAPI, CapabilityUI}
	}
}

// IsStrictMode is true for the modes in which a UI scenario fails, rather than being skipped,
// when there is no browser.
func IsStrictMode(mode string) bool {
	switch strings.ToLower(mode) {
	case ModeUI, ModeCombined:
		return true
	default:
		return false
	}
}

// Has returns true if the specified string appears in the list.
func (cs Capabilities) Has(name string) bool {
	return helpers.SliceContains(name, cs)
}
