package machine

// StateKind is the coarse machine lifecycle state.
type StateKind int

const (
	NotAttached StateKind = iota
	Connecting
	Ready
	Building
	Paused
	Error
)

var stateNames = [...]string{
	NotAttached: "Not Attached",
	Connecting:  "Connecting",
	Ready:       "Ready",
	Building:    "Building",
	Paused:      "Paused",
	Error:       "Error",
}

func (k StateKind) String() string {
	if int(k) < len(stateNames) {
		return stateNames[k]
	}
	return "Unknown"
}

type State struct {
	Kind    StateKind
	Message string
}

// IsBuilding is true while a job is streaming, paused or not.
func (s State) IsBuilding() bool {
	return s.Kind == Building || s.Kind == Paused
}

func (s State) IsConnected() bool {
	switch s.Kind {
	case Ready, Building, Paused:
		return true
	}
	return false
}

func (s State) String() string {
	if s.Message != "" {
		return s.Kind.String() + ": " + s.Message
	}
	return s.Kind.String()
}
