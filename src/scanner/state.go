package scanner

// Orchestrator state, at most one cycle runs at a time
type State int32

const (
	StateIdle State = iota
	StateScanning
)

func (self State) String() string {
	switch self {
	case StateIdle:
		return "idle"
	case StateScanning:
		return "scanning"
	default:
		return "unknown"
	}
}
