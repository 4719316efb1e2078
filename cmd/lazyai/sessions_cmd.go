package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lazyai/lazyai/internal/git"
	"github.com/lazyai/lazyai/internal/session"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List known sessions, most recent first",
	RunE:  runSessions,
}

func runSessions(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store := session.New(cfg.BaseDir, git.NewCLI())
	sessions, err := store.List()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SESSION\tCREATED\tISSUE\tPR")
	for _, sess := range sessions {
		issue := "-"
		if v, ok := store.ReadCorrelation(sess, session.KindIssue); ok {
			issue = "#" + v
		}
		pr := "-"
		if v, ok := store.ReadCorrelation(sess, session.KindPR); ok {
			pr = "#" + v
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			sess.ID, sess.CreatedAt.Format("2006-01-02 15:04"), issue, pr)
	}
	return w.Flush()
}
