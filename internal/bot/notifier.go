package bot

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// WriterNotifier delivers replies to an io.Writer, one per line. It is
// what the CLI uses; a chat transport plugs in its own Notifier.
type WriterNotifier struct {
	mu  sync.Mutex
	out io.Writer
}

// NewWriterNotifier returns a Notifier writing to out.
func NewWriterNotifier(out io.Writer) *WriterNotifier {
	return &WriterNotifier{out: out}
}

// Reply writes the reply line, prefixed with the requester when known.
func (n *WriterNotifier) Reply(_ context.Context, cmd Command, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if cmd.Requester != "" {
		_, err := fmt.Fprintf(n.out, "@%s %s\n", cmd.Requester, text)
		return err
	}
	_, err := fmt.Fprintln(n.out, text)
	return err
}
