// Package agent launches the external coding agent against a session
// workspace and interprets its termination.
//
// The agent's reasoning is an opaque capability: it gets a task prompt,
// a capability grant, and a working directory, and eventually exits,
// optionally leaving a result artifact behind.
package agent

import "github.com/lazyai/lazyai/internal/session"

// Stage selects the prompt role, capability grant, and continuation
// mode for one agent invocation.
type Stage string

const (
	// StageInvestigate explores a request and drafts a plan, producing
	// an issue-class artifact.
	StageInvestigate Stage = "investigate"

	// StageRefinePlan folds human feedback on the issue back into the
	// plan, continuing the prior reasoning context.
	StageRefinePlan Stage = "refine_plan"

	// StageImplement carries out the plan, producing a PR-class
	// artifact.
	StageImplement Stage = "implement"

	// StageRevise addresses review feedback on the PR, continuing the
	// prior reasoning context.
	StageRevise Stage = "revise"
)

// Continuation reports whether the stage resumes the agent's prior
// reasoning context for the session instead of starting fresh.
func (s Stage) Continuation() bool {
	return s == StageRefinePlan || s == StageRevise
}

// Extendable reports whether configured extra grants apply to this
// stage. Only the implementation-side stages accept extensions.
func (s Stage) Extendable() bool {
	return s == StageImplement || s == StageRevise
}

// DefaultGrant returns the stage's default capability grant as a list
// of permitted tools in the agent CLI's allowlist vocabulary.
func (s Stage) DefaultGrant() []string {
	switch s {
	case StageInvestigate, StageRefinePlan:
		return []string{
			"Read", "Grep", "Glob", "Write",
			"Bash(git:*)", "Bash(gh issue:*)",
		}
	case StageImplement, StageRevise:
		return []string{
			"Read", "Grep", "Glob", "Write", "Edit",
			"Bash(git:*)", "Bash(gh issue:*)", "Bash(gh pr:*)",
		}
	}
	return nil
}

// Artifact returns the result artifact file the stage is expected to
// leave in the workspace and the correlation kind it maps to. Stages
// that only update existing artifacts return ok=false.
func (s Stage) Artifact() (name string, kind session.CorrelationKind, ok bool) {
	switch s {
	case StageInvestigate:
		return "issue_number", session.KindIssue, true
	case StageImplement:
		return "pr_number", session.KindPR, true
	}
	return "", "", false
}
