package session

// State is the controller's position in the push-to-talk loop.
type State int32

const (
	Idle State = iota
	Listening
	Transcribing
	Thinking
	Speaking
)

var stateNames = [...]string{
	Idle:         "idle",
	Listening:    "listening",
	Transcribing: "transcribing",
	Thinking:     "thinking",
	Speaking:     "speaking",
}

// String returns the lower-case wire name.
func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// ParseState is the inverse of String.
func ParseState(name string) (State, bool) {
	for i, n := range stateNames {
		if n == name {
			return State(i), true
		}
	}
	return Idle, false
}
