package suite

// State is the lifecycle stage of a Suite. It only moves forward.
type State int32

const (
	NotStarted State = iota
	Running
	Completed
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not started"
	case Running:
		return "running"
	case Completed:
		return "completed"
	default:
		return "unknown"
	}
}
