package entity

// SupervisorState — состояние жизненного цикла узла.
type SupervisorState int32

const (
	StateIdle SupervisorState = iota
	StateConnecting
	StateRunning
	StateShuttingDown
	StateStopped
)

func (s SupervisorState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateRunning:
		return "running"
	case StateShuttingDown:
		return "shutting_down"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}
