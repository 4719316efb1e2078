package agent

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/lazyai/lazyai/internal/session"
)

type noopCloner struct{}

func (noopCloner) Clone(ctx context.Context, repo, dir string) error {
	return os.MkdirAll(dir, 0755)
}

func newWorkspace(t *testing.T) (*session.Store, session.Session) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("launcher tests use shell script stubs")
	}
	store := session.New(t.TempDir(), noopCloner{})
	sess, err := store.Create(context.Background(), "octo/spoon")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	return store, sess
}

// stubAgent writes an executable shell script standing in for the
// agent binary and returns its path.
func stubAgent(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "agent")
	script := "#!/bin/sh\n" + body + "\n"
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestInvokeSucceededWithArtifact(t *testing.T) {
	store, sess := newWorkspace(t)
	l := &Launcher{
		Bin:   stubAgent(t, `echo 7 > issue_number`),
		Store: store,
	}

	outcome := l.Invoke(context.Background(), sess, StageInvestigate, "find the bug")
	if outcome.Status != StatusSucceeded {
		t.Fatalf("status = %v (err=%v)", outcome.Status, outcome.Err)
	}
	if outcome.Value != "7" {
		t.Errorf("value = %q, want 7", outcome.Value)
	}

	// The correlation must be durably attached.
	if v, ok := store.ReadCorrelation(sess, session.KindIssue); !ok || v != "7" {
		t.Errorf("issue marker = %q, %v; want 7, true", v, ok)
	}
}

func TestInvokeSucceededWithoutArtifact(t *testing.T) {
	store, sess := newWorkspace(t)
	l := &Launcher{Bin: stubAgent(t, `exit 0`), Store: store}

	outcome := l.Invoke(context.Background(), sess, StageInvestigate, "p")
	if outcome.Status != StatusSucceeded {
		t.Fatalf("status = %v", outcome.Status)
	}
	if outcome.Value != "" {
		t.Errorf("value = %q, want empty (degraded success)", outcome.Value)
	}
	if _, ok := store.ReadCorrelation(sess, session.KindIssue); ok {
		t.Error("marker attached without artifact")
	}
}

func TestInvokeMalformedArtifact(t *testing.T) {
	store, sess := newWorkspace(t)
	l := &Launcher{Bin: stubAgent(t, `echo "not a number" > issue_number`), Store: store}

	outcome := l.Invoke(context.Background(), sess, StageInvestigate, "p")
	if outcome.Status != StatusSucceeded || outcome.Value != "" {
		t.Errorf("outcome = %+v, want degraded success", outcome)
	}
	if _, ok := store.ReadCorrelation(sess, session.KindIssue); ok {
		t.Error("marker attached from malformed artifact")
	}
}

func TestInvokeNonzeroExitNeverAttaches(t *testing.T) {
	store, sess := newWorkspace(t)
	// Exits nonzero but leaves an artifact behind anyway.
	l := &Launcher{Bin: stubAgent(t, "echo 99 > pr_number\nexit 3"), Store: store}

	outcome := l.Invoke(context.Background(), sess, StageImplement, "p")
	if outcome.Status != StatusExitFailure {
		t.Fatalf("status = %v", outcome.Status)
	}
	if outcome.ExitCode != 3 {
		t.Errorf("exit code = %d, want 3", outcome.ExitCode)
	}
	if _, ok := store.ReadCorrelation(sess, session.KindPR); ok {
		t.Error("correlation attached despite nonzero exit")
	}
}

func TestInvokeLaunchFailure(t *testing.T) {
	store, sess := newWorkspace(t)
	l := &Launcher{
		Bin:   filepath.Join(t.TempDir(), "no-such-agent"),
		Store: store,
	}

	outcome := l.Invoke(context.Background(), sess, StageInvestigate, "p")
	if outcome.Status != StatusLaunchFailure {
		t.Fatalf("status = %v", outcome.Status)
	}
	if outcome.Err == nil {
		t.Error("launch failure without cause")
	}
}

func TestInvokeArgs(t *testing.T) {
	store, sess := newWorkspace(t)
	l := &Launcher{
		Bin:         stubAgent(t, `printf '%s\n' "$@" > args.txt`),
		Store:       store,
		ExtraGrants: []string{"Bash(npm:*)"},
	}

	tests := []struct {
		stage        Stage
		wantContinue bool
		wantExtra    bool
	}{
		{StageInvestigate, false, false},
		{StageRefinePlan, true, false},
		{StageImplement, false, true},
		{StageRevise, true, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.stage), func(t *testing.T) {
			outcome := l.Invoke(context.Background(), sess, tt.stage, "task at hand")
			if outcome.Status != StatusSucceeded {
				t.Fatalf("status = %v", outcome.Status)
			}

			data, err := os.ReadFile(filepath.Join(sess.Workspace, "args.txt"))
			if err != nil {
				t.Fatal(err)
			}
			args := string(data)

			if !strings.Contains(args, "task at hand") {
				t.Error("prompt not passed through")
			}
			if got := strings.Contains(args, "--continue"); got != tt.wantContinue {
				t.Errorf("continuation flag present = %v, want %v", got, tt.wantContinue)
			}
			if got := strings.Contains(args, "Bash(npm:*)"); got != tt.wantExtra {
				t.Errorf("extra grant present = %v, want %v", got, tt.wantExtra)
			}
		})
	}
}

func TestSetupCommandRunsBeforeImplementOnly(t *testing.T) {
	store, sess := newWorkspace(t)
	l := &Launcher{
		Bin:          stubAgent(t, `exit 0`),
		Store:        store,
		SetupCommand: "touch setup_ran",
	}

	if outcome := l.Invoke(context.Background(), sess, StageInvestigate, "p"); outcome.Status != StatusSucceeded {
		t.Fatalf("investigate status = %v", outcome.Status)
	}
	if _, err := os.Stat(filepath.Join(sess.Workspace, "setup_ran")); err == nil {
		t.Fatal("setup command ran for investigate")
	}

	if outcome := l.Invoke(context.Background(), sess, StageImplement, "p"); outcome.Status != StatusSucceeded {
		t.Fatalf("implement status = %v", outcome.Status)
	}
	if _, err := os.Stat(filepath.Join(sess.Workspace, "setup_ran")); err != nil {
		t.Error("setup command did not run before implement")
	}
}

func TestSetupFailureAbortsInvocation(t *testing.T) {
	store, sess := newWorkspace(t)
	l := &Launcher{
		Bin:          stubAgent(t, `touch agent_ran`),
		Store:        store,
		SetupCommand: "exit 1",
	}

	outcome := l.Invoke(context.Background(), sess, StageImplement, "p")
	if outcome.Status != StatusSetupFailure {
		t.Fatalf("status = %v", outcome.Status)
	}
	if outcome.Err == nil {
		t.Error("setup failure without cause")
	}
	if _, err := os.Stat(filepath.Join(sess.Workspace, "agent_ran")); err == nil {
		t.Error("agent started despite setup failure")
	}
}

func TestInvokeTimeout(t *testing.T) {
	store, sess := newWorkspace(t)
	l := &Launcher{
		Bin:     stubAgent(t, `sleep 10`),
		Store:   store,
		Timeout: 100 * time.Millisecond,
	}

	start := time.Now()
	outcome := l.Invoke(context.Background(), sess, StageInvestigate, "p")
	if outcome.Status != StatusTimedOut {
		t.Fatalf("status = %v", outcome.Status)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("timeout took %v, deadline not enforced", elapsed)
	}
}

func TestAgentOutputGoesToWorkspaceLog(t *testing.T) {
	store, sess := newWorkspace(t)
	l := &Launcher{Bin: stubAgent(t, `echo thinking; echo grumbling >&2`), Store: store}

	if outcome := l.Invoke(context.Background(), sess, StageInvestigate, "p"); outcome.Status != StatusSucceeded {
		t.Fatalf("status = %v", outcome.Status)
	}

	data, err := os.ReadFile(filepath.Join(sess.Workspace, AgentLogName))
	if err != nil {
		t.Fatalf("agent log missing: %v", err)
	}
	log := string(data)
	if !strings.Contains(log, "thinking") || !strings.Contains(log, "grumbling") {
		t.Errorf("agent log missing output: %q", log)
	}
}
