package agent

import "fmt"

// Status classifies how an agent invocation ended.
type Status int

const (
	// StatusSucceeded: zero exit. Value carries the correlation value
	// if the stage's artifact was produced; a missing artifact is a
	// degraded success, not a failure.
	StatusSucceeded Status = iota

	// StatusExitFailure: the agent ran and exited nonzero.
	StatusExitFailure

	// StatusLaunchFailure: the process could not be started at all.
	StatusLaunchFailure

	// StatusSetupFailure: the pre-implement setup command failed; the
	// agent was never started.
	StatusSetupFailure

	// StatusTimedOut: the configured deadline expired and the process
	// was killed.
	StatusTimedOut
)

func (s Status) String() string {
	switch s {
	case StatusSucceeded:
		return "succeeded"
	case StatusExitFailure:
		return "exit_failure"
	case StatusLaunchFailure:
		return "launch_failure"
	case StatusSetupFailure:
		return "setup_failure"
	case StatusTimedOut:
		return "timed_out"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Outcome is the structured result of one agent invocation. It is not
// persisted; a successful outcome may have already caused a correlation
// marker to be attached to the session.
type Outcome struct {
	Status   Status
	Value    string // correlation value, when an artifact was produced
	ExitCode int    // set for StatusExitFailure
	Err      error  // set for launch and setup failures
}
