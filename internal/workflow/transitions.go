package workflow

import "fmt"

var allowedTransitions = map[Stage]map[Stage]struct{}{
	StageAwaitingApproval: {
		StageAwaitingMeetingDate: {},
		StageRejected:            {},
		StageFailed:              {},
	},
	StageAwaitingMeetingDate: {
		StageSigning: {},
		StageFailed:  {},
	},
	StageSigning: {
		StageScheduling: {},
		StageFailed:     {},
	},
	StageScheduling: {
		StageComplete: {},
		StageFailed:   {},
	},
}

// ValidateTransition returns ErrTransition when to is not reachable from from.
func ValidateTransition(from, to Stage) error {
	if _, ok := allowedTransitions[from][to]; !ok {
		return fmt.Errorf("%w: %s -> %s", ErrTransition, from, to)
	}
	return nil
}

// advance moves s to the given stage and derives the waiting and terminal fields.
func advance(s *State, to Stage) error {
	if err := ValidateTransition(s.Stage, to); err != nil {
		return err
	}
	s.Stage = to
	derive(s)
	return nil
}

func derive(s *State) {
	s.PendingInputKind = s.Stage.pendingInput()
	s.WaitingForInput = s.PendingInputKind != InputNone
	s.TerminalStatus = s.Stage.terminalStatus()
}

// fail moves s to StageFailed from any non-terminal stage.
func fail(s *State, reason string) {
	s.Stage = StageFailed
	s.Error = reason
	derive(s)
}
