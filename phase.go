package autopark

// Phase is a state of the parking maneuver
type Phase int

const (
	// PhaseReady waits for the start command with the front feed paused on
	// its first frame
	PhaseReady Phase = iota
	// PhaseSearch plays the front feed and detects selectable slots
	PhaseSearch
	// PhaseFrozenPreview holds the camera frame while the planned path is
	// previewed
	PhaseFrozenPreview
	// PhaseConfirmed animates the go-forward path over the rest of the front
	// feed
	PhaseConfirmed
	// PhaseBackMode holds the first rear camera frame for slot re-selection
	PhaseBackMode
	// PhaseRearTracking plays the rear feeds while tracking the selected slot
	PhaseRearTracking
)

// String returns the phase name
func (p Phase) String() string {
	switch p {
	case PhaseReady:
		return "READY"
	case PhaseSearch:
		return "SEARCH"
	case PhaseFrozenPreview:
		return "FROZEN_PREVIEW"
	case PhaseConfirmed:
		return "CONFIRMED"
	case PhaseBackMode:
		return "BACK_MODE"
	case PhaseRearTracking:
		return "REAR_TRACKING"
	default:
		return "UNKNOWN"
	}
}

// Rear reports whether the phase plays the rear camera
func (p Phase) Rear() bool {
	return p == PhaseBackMode || p == PhaseRearTracking
}

// Frozen reports whether the camera frame is held in the phase
func (p Phase) Frozen() bool {
	return p == PhaseReady || p == PhaseFrozenPreview || p == PhaseBackMode
}

// modeText returns the HUD line shown for the phase
func (p Phase) modeText() string {
	switch p {
	case PhaseReady:
		return "READY - Press START"
	case PhaseSearch:
		return "SEARCH (click slot via /click, Reset via /reset)"
	case PhaseFrozenPreview:
		return "PARKING (Reset via /reset)"
	case PhaseConfirmed:
		return "GO FORWARD"
	case PhaseBackMode:
		return "REAR SELECT (click slot)"
	case PhaseRearTracking:
		return "REVERSE (rear camera)"
	default:
		return ""
	}
}
