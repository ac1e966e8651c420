package connectivity

import "fmt"

type Phase int

const (
	Disconnected Phase = iota
	Trying
	Connected
	AllExhausted
)

func (p Phase) String() string {
	switch p {
	case Disconnected:
		return "DISCONNECTED"
	case Trying:
		return "TRYING"
	case Connected:
		return "CONNECTED"
	case AllExhausted:
		return "ALL_EXHAUSTED"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// State of the connection loop. Index is the credential being tried (or the
// one that connected), Failures counts failed attempts in the current round.
type State struct {
	Phase    Phase
	Index    int
	Failures int
}

func (s State) String() string {
	if s.Phase == Trying {
		return fmt.Sprintf("%s(%d)", s.Phase, s.Index)
	}
	return s.Phase.String()
}

type Event int

const (
	EventBeginRound Event = iota
	EventAttemptSucceeded
	EventAttemptFailed
	EventCooledDown
)

// Transition returns the state that follows s once ev happened, for a list of
// total credentials. Events that do not apply to s leave it unchanged.
func Transition(s State, ev Event, total int) State {
	switch s.Phase {
	case Disconnected:
		if ev != EventBeginRound {
			return s
		}
		if total == 0 {
			return State{Phase: AllExhausted}
		}
		return State{Phase: Trying, Index: 0}

	case Trying:
		switch ev {
		case EventAttemptSucceeded:
			return State{Phase: Connected, Index: s.Index}
		case EventAttemptFailed:
			failures := s.Failures + 1
			if s.Index+1 < total {
				return State{Phase: Trying, Index: s.Index + 1, Failures: failures}
			}
			if failures == total {
				return State{Phase: AllExhausted}
			}
			return State{Phase: Disconnected}
		}

	case AllExhausted:
		if ev == EventCooledDown {
			return State{Phase: Disconnected}
		}
	}

	return s
}
