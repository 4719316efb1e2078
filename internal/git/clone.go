// Package git materializes repositories into session workspaces by
// shelling out to the git and gh CLIs.
package git

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Cloner materializes a repository reference into a directory.
type Cloner interface {
	Clone(ctx context.Context, repo, dir string) error
}

// CLI clones with the locally installed git/gh binaries, inheriting
// whatever credentials they are configured with.
type CLI struct{}

// NewCLI returns a CLI cloner.
func NewCLI() CLI { return CLI{} }

// Clone clones repo into dir. An owner/name shorthand goes through
// gh so that private repositories work with gh auth; anything that
// looks like a full remote goes straight to git.
func (CLI) Clone(ctx context.Context, repo, dir string) error {
	var cmd *exec.Cmd
	if isRemoteURL(repo) {
		cmd = exec.CommandContext(ctx, "git", "clone", "--", repo, dir)
	} else {
		cmd = exec.CommandContext(ctx, "gh", "repo", "clone", repo, dir)
	}

	if out, err := cmd.CombinedOutput(); err != nil {
		msg := strings.TrimSpace(string(out))
		if msg == "" {
			msg = err.Error()
		}
		return fmt.Errorf("clone %s: %s", repo, msg)
	}
	return nil
}

func isRemoteURL(repo string) bool {
	return strings.Contains(repo, "://") || strings.HasPrefix(repo, "git@")
}
