// Package bot routes inbound text commands to agent invocations and
// reports back through a Notifier. The chat transport itself (event
// subscription, message delivery) is an external collaborator.
package bot

import (
	"context"

	"github.com/google/uuid"
)

// Command is one inbound command line from a requester.
type Command struct {
	// ID correlates log lines and replies for this command.
	ID string

	// Text is the raw command line, e.g. "issue fix the login bug".
	Text string

	// Requester identifies who asked, in whatever form the transport
	// uses (a chat user id, a terminal user, ...).
	Requester string
}

// NewCommand builds a Command with a fresh correlation id.
func NewCommand(text, requester string) Command {
	return Command{ID: uuid.NewString(), Text: text, Requester: requester}
}

// Notifier delivers replies to the conversation a command came from.
// Implementations must be safe for concurrent use: acknowledgements are
// sent from the dispatch loop, completion notices from run goroutines.
type Notifier interface {
	Reply(ctx context.Context, cmd Command, text string) error
}
