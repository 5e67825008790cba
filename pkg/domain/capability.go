package domain

// Capability names ("interfaces") a host can enable on a session.
const (
	CapabilitySubmit      = "submit"
	CapabilityUpdate      = "update"
	CapabilitySkip        = "skip"
	CapabilityControls    = "controls"
	CapabilityPanel       = "panel"
	CapabilitySideColumn  = "side-column"
	CapabilityCompletions = "completions:menu"
	CapabilityPredictions = "predictions:menu"
)
