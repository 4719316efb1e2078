package bot

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/lazyai/lazyai/internal/agent"
	"github.com/lazyai/lazyai/internal/oplog"
	"github.com/lazyai/lazyai/internal/session"
)

// AgentLauncher is the part of the launcher the router needs.
type AgentLauncher interface {
	Invoke(ctx context.Context, sess session.Session, stage agent.Stage, prompt string) agent.Outcome
}

// operation describes one command verb.
type operation struct {
	stage  agent.Stage
	prereq session.CorrelationKind // zero value: no prerequisite, creates a session
	usage  string
}

var operations = map[string]operation{
	"issue":      {stage: agent.StageInvestigate, usage: "usage: issue <description>"},
	"comment":    {stage: agent.StageRefinePlan, prereq: session.KindIssue, usage: "usage: comment <session or issue number>"},
	"pr":         {stage: agent.StageImplement, prereq: session.KindIssue, usage: "usage: pr <session or issue number>"},
	"pr_comment": {stage: agent.StageRevise, prereq: session.KindPR, usage: "usage: pr_comment <session or PR number>"},
}

// Router parses inbound command lines, validates prerequisites, and
// hands validated commands to the launcher. Acknowledgements go out in
// arrival order from the dispatch loop; completion notices go out in
// process-completion order from per-invocation goroutines.
type Router struct {
	store      *session.Store
	launcher   AgentLauncher
	notifier   Notifier
	repository string

	// running holds ids of sessions with an invocation in flight.
	// A second invocation against a running session is rejected with a
	// busy reply rather than queued.
	mu      sync.Mutex
	running map[string]struct{}
	wg      sync.WaitGroup
}

// NewRouter builds a Router dispatching against the given repository.
func NewRouter(store *session.Store, launcher AgentLauncher, notifier Notifier, repository string) *Router {
	return &Router{
		store:      store,
		launcher:   launcher,
		notifier:   notifier,
		repository: repository,
		running:    make(map[string]struct{}),
	}
}

// Run consumes commands until the channel closes or ctx is cancelled.
// Parsing and validation happen synchronously in arrival order; agent
// invocations run independently and do not block the loop.
func (r *Router) Run(ctx context.Context, commands <-chan Command) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case cmd, ok := <-commands:
			if !ok {
				return nil
			}
			r.Handle(ctx, cmd)
		}
	}
}

// Wait blocks until all in-flight invocations have completed.
func (r *Router) Wait() {
	r.wg.Wait()
}

// Handle processes one command line. Every path ends in exactly one
// immediate reply; validated commands get a second reply when the
// agent run completes.
func (r *Router) Handle(ctx context.Context, cmd Command) {
	fields := strings.Fields(cmd.Text)
	if len(fields) == 0 {
		oplog.Log.Debug("empty command ignored", "command", cmd.ID)
		return
	}

	name := strings.ToLower(fields[0])
	op, ok := operations[name]
	if !ok {
		commandsTotal.WithLabelValues("unknown").Inc()
		r.reply(ctx, cmd, fmt.Sprintf("unknown command: %q", fields[0]))
		return
	}
	commandsTotal.WithLabelValues(name).Inc()

	payload := strings.Join(fields[1:], " ")
	if payload == "" {
		rejectionsTotal.WithLabelValues("validation").Inc()
		r.reply(ctx, cmd, op.usage)
		return
	}

	oplog.Log.Info("command accepted", "command", cmd.ID, "operation", name,
		"requester", cmd.Requester)

	if op.prereq == "" {
		r.startIssue(ctx, cmd, op, payload)
		return
	}
	r.startResume(ctx, cmd, name, op, payload)
}

// startIssue creates a fresh session and launches the investigate
// stage with the free-text request embedded verbatim.
func (r *Router) startIssue(ctx context.Context, cmd Command, op operation, request string) {
	sess, err := r.store.Create(ctx, r.repository)
	if err != nil {
		rejectionsTotal.WithLabelValues("create").Inc()
		oplog.Log.Error("session creation failed", "command", cmd.ID, "error", err)
		r.reply(ctx, cmd, fmt.Sprintf("could not start session: %v", err))
		return
	}

	if !r.acquire(sess.ID) {
		// A fresh session cannot be running; treat as a logic fault.
		r.reply(ctx, cmd, fmt.Sprintf("session %s is busy", sess.ID))
		return
	}

	r.reply(ctx, cmd, fmt.Sprintf("investigating: %s", request))
	r.launch(ctx, cmd, sess, op.stage, investigatePrompt(request))
}

// startResume resolves the identifier, enforces the operation's
// prerequisite correlation, and launches the continuation stage.
func (r *Router) startResume(ctx context.Context, cmd Command, name string, op operation, identifier string) {
	sess, err := r.store.Resolve(identifier, op.prereq)
	if err != nil {
		rejectionsTotal.WithLabelValues("not_found").Inc()
		r.reply(ctx, cmd, fmt.Sprintf("no session found for %q", identifier))
		return
	}

	// The resolver does not verify literal session ids, and even a
	// resolved session may have lost its marker. Enforcement is
	// uniform: no readable prerequisite marker, same not-found reply.
	value, ok := r.store.ReadCorrelation(sess, op.prereq)
	if !ok {
		rejectionsTotal.WithLabelValues("not_found").Inc()
		r.reply(ctx, cmd, fmt.Sprintf("no session found for %q", identifier))
		return
	}

	if !r.acquire(sess.ID) {
		rejectionsTotal.WithLabelValues("busy").Inc()
		r.reply(ctx, cmd, fmt.Sprintf("session %s is busy, try again when the current run finishes", sess.ID))
		return
	}

	var ack, prompt string
	switch name {
	case "comment":
		ack = fmt.Sprintf("updating plan for issue #%s (%s)", value, sess.ID)
		prompt = refinePlanPrompt(value)
	case "pr":
		ack = fmt.Sprintf("implementing issue #%s (%s)", value, sess.ID)
		prompt = implementPrompt(value)
	case "pr_comment":
		ack = fmt.Sprintf("revising PR #%s (%s)", value, sess.ID)
		prompt = revisePrompt(value)
	}

	r.reply(ctx, cmd, ack)
	r.launch(ctx, cmd, sess, op.stage, prompt)
}

// launch runs the agent in its own goroutine and sends the final reply
// when it completes. The invocation deliberately outlives the dispatch
// loop's context: once launched, a run is fire-and-forget.
func (r *Router) launch(ctx context.Context, cmd Command, sess session.Session, stage agent.Stage, prompt string) {
	runCtx := context.WithoutCancel(ctx)
	activeRuns.Inc()
	r.wg.Add(1)

	go func() {
		defer r.wg.Done()
		defer activeRuns.Dec()
		defer r.release(sess.ID)

		start := time.Now()
		outcome := r.launcher.Invoke(runCtx, sess, stage, prompt)
		runDurationSeconds.WithLabelValues(string(stage)).Observe(time.Since(start).Seconds())
		runsTotal.WithLabelValues(string(stage), outcome.Status.String()).Inc()

		r.reply(runCtx, cmd, finalMessage(stage, sess, outcome))
	}()
}

func finalMessage(stage agent.Stage, sess session.Session, outcome agent.Outcome) string {
	switch outcome.Status {
	case agent.StatusExitFailure:
		return fmt.Sprintf("agent exited with code %d (%s)", outcome.ExitCode, sess.ID)
	case agent.StatusLaunchFailure:
		return fmt.Sprintf("could not start agent: %v (%s)", outcome.Err, sess.ID)
	case agent.StatusSetupFailure:
		return fmt.Sprintf("setup failed: %v (%s)", outcome.Err, sess.ID)
	case agent.StatusTimedOut:
		return fmt.Sprintf("agent timed out (%s)", sess.ID)
	}

	switch stage {
	case agent.StageInvestigate:
		if outcome.Value != "" {
			return fmt.Sprintf("issue #%s created (%s)", outcome.Value, sess.ID)
		}
		return fmt.Sprintf("investigation complete (%s)", sess.ID)
	case agent.StageRefinePlan:
		return fmt.Sprintf("plan updated (%s)", sess.ID)
	case agent.StageImplement:
		if outcome.Value != "" {
			return fmt.Sprintf("PR #%s opened (%s)", outcome.Value, sess.ID)
		}
		return fmt.Sprintf("implementation complete (%s)", sess.ID)
	case agent.StageRevise:
		return fmt.Sprintf("revision complete (%s)", sess.ID)
	}
	return fmt.Sprintf("done (%s)", sess.ID)
}

func (r *Router) acquire(sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, busy := r.running[sessionID]; busy {
		return false
	}
	r.running[sessionID] = struct{}{}
	return true
}

func (r *Router) release(sessionID string) {
	r.mu.Lock()
	delete(r.running, sessionID)
	r.mu.Unlock()
}

func (r *Router) reply(ctx context.Context, cmd Command, text string) {
	if err := r.notifier.Reply(ctx, cmd, text); err != nil {
		oplog.Log.Error("reply delivery failed", "command", cmd.ID, "error", err)
	}
}
