package server

// State is the lifecycle state of a Server.
//
//	NotStarted --Start--> Running --Stop--> Stopping --(queue drained)--> Stopped
type State int32

const (
	NotStarted State = iota
	Running
	Stopping
	Stopped
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not started"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}
