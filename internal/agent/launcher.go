package agent

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/lazyai/lazyai/internal/oplog"
	"github.com/lazyai/lazyai/internal/session"
)

// AgentLogName is the workspace file receiving the agent's combined
// stdout and stderr.
const AgentLogName = "agent.log"

// Launcher starts the external agent process against a session
// workspace. One Launcher is shared by all invocations.
type Launcher struct {
	// Bin is the agent executable.
	Bin string

	// Store attaches correlation markers after successful runs.
	Store *session.Store

	// SetupCommand, if nonempty, runs via the shell in the workspace
	// before the implement stage only.
	SetupCommand string

	// ExtraGrants are appended to the default capability grant for
	// extendable stages.
	ExtraGrants []string

	// Timeout bounds one invocation; zero means no deadline.
	Timeout time.Duration
}

// Invoke runs the agent for one stage and converts its termination
// into an Outcome. The process runs with the workspace as its working
// directory, stdin closed, and output appended to agent.log; the
// caller only ever sees the Outcome.
func (l *Launcher) Invoke(ctx context.Context, sess session.Session, stage Stage, prompt string) Outcome {
	log := oplog.Log

	if stage == StageImplement && l.SetupCommand != "" {
		if err := l.runSetup(ctx, sess); err != nil {
			log.Error("setup command failed", "session", sess.ID, "error", err)
			return Outcome{Status: StatusSetupFailure, Err: err}
		}
	}

	if l.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.Timeout)
		defer cancel()
	}

	grant := stage.DefaultGrant()
	if stage.Extendable() {
		grant = append(append([]string(nil), grant...), l.ExtraGrants...)
	}

	args := []string{"-p", prompt, "--allowedTools", strings.Join(grant, ",")}
	if stage.Continuation() {
		args = append(args, "--continue")
	}

	cmd := exec.CommandContext(ctx, l.Bin, args...)
	cmd.Dir = sess.Workspace

	logFile, err := os.OpenFile(filepath.Join(sess.Workspace, AgentLogName),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return Outcome{Status: StatusLaunchFailure, Err: err}
	}
	defer logFile.Close()
	cmd.Stdout = logFile
	cmd.Stderr = logFile

	log.Info("agent starting", "session", sess.ID, "stage", stage,
		"continuation", stage.Continuation())
	start := time.Now()

	if err := cmd.Start(); err != nil {
		log.Error("agent failed to start", "session", sess.ID, "error", err)
		return Outcome{Status: StatusLaunchFailure, Err: err}
	}

	waitErr := cmd.Wait()
	elapsed := time.Since(start)

	if ctx.Err() == context.DeadlineExceeded {
		log.Error("agent timed out", "session", sess.ID, "stage", stage,
			"after", elapsed)
		return Outcome{Status: StatusTimedOut, Err: ctx.Err()}
	}

	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			code := exitErr.ExitCode()
			log.Warn("agent exited nonzero", "session", sess.ID,
				"stage", stage, "code", code, "after", elapsed)
			return Outcome{Status: StatusExitFailure, ExitCode: code}
		}
		return Outcome{Status: StatusLaunchFailure, Err: waitErr}
	}

	log.Info("agent finished", "session", sess.ID, "stage", stage, "after", elapsed)
	return l.collectArtifact(sess, stage)
}

// collectArtifact reads the stage's result artifact, if the stage
// expects one, and attaches the correlation marker. Anything short of
// a clean decimal value counts as "no artifact produced".
func (l *Launcher) collectArtifact(sess session.Session, stage Stage) Outcome {
	name, kind, ok := stage.Artifact()
	if !ok {
		return Outcome{Status: StatusSucceeded}
	}

	data, err := os.ReadFile(filepath.Join(sess.Workspace, name))
	if err != nil {
		return Outcome{Status: StatusSucceeded}
	}

	value := strings.TrimSpace(string(data))
	if !isDecimal(value) {
		oplog.Log.Warn("ignoring malformed artifact", "session", sess.ID,
			"artifact", name, "value", value)
		return Outcome{Status: StatusSucceeded}
	}

	if err := l.Store.AttachCorrelation(sess, kind, value); err != nil {
		oplog.Log.Error("could not attach correlation", "session", sess.ID,
			"kind", kind, "error", err)
		return Outcome{Status: StatusSucceeded}
	}

	return Outcome{Status: StatusSucceeded, Value: value}
}

func (l *Launcher) runSetup(ctx context.Context, sess session.Session) error {
	cmd := exec.CommandContext(ctx, "sh", "-c", l.SetupCommand)
	cmd.Dir = sess.Workspace

	logFile, err := os.OpenFile(filepath.Join(sess.Workspace, AgentLogName),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err == nil {
		defer logFile.Close()
		cmd.Stdout = logFile
		cmd.Stderr = logFile
	}

	return cmd.Run()
}

func isDecimal(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
