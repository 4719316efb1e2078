// lazyai dispatches short natural-language commands to an autonomous
// coding agent and tracks the resulting units of work across
// invocations.
//
// Usage:
//
//	lazyai listen                      # read commands from stdin, one per line
//	lazyai dispatch "issue fix the login bug"
//	lazyai sessions                    # list known sessions
//
// Configuration is resolved from ~/.lazyai/config.toml and environment
// variables:
//
//	LAZYAI_REPOSITORY     Target repository (clone URL or owner/name)
//	LAZYAI_BASE_DIR       Session workspace base directory
//	LAZYAI_AGENT_BIN      Agent executable (default: claude)
//	LAZYAI_SETUP_COMMAND  Shell command run in the workspace before implement
//	LAZYAI_EXTRA_TOOLS    Comma-separated extra capability grants for implement/revise
//	LAZYAI_AGENT_TIMEOUT  Per-run deadline, e.g. "30m" (default: none)
//	LAZYAI_STATUS_ADDR    Diagnostics HTTP listen address
//	LAZYAI_LOG_FILE       Log file (default: stderr)
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/lazyai/lazyai/internal/agent"
	"github.com/lazyai/lazyai/internal/bot"
	"github.com/lazyai/lazyai/internal/config"
	"github.com/lazyai/lazyai/internal/git"
	"github.com/lazyai/lazyai/internal/oplog"
	"github.com/lazyai/lazyai/internal/server"
	"github.com/lazyai/lazyai/internal/session"
	"github.com/lazyai/lazyai/internal/version"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "lazyai",
	Short: "Dispatch coding work to an autonomous agent and track the sessions",
	Long: `lazyai turns short text commands into long-running agent work sessions.

Commands:
  issue <free text>        start a session: investigate and draft a plan
  comment <identifier>     fold issue feedback back into the plan
  pr <identifier>          implement the plan and open a PR
  pr_comment <identifier>  revise the PR from review feedback

<identifier> is a session id or the relevant issue/PR number.`,
	SilenceUsage: true,
}

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Read commands from stdin and dispatch them",
	RunE:  runListen,
}

var dispatchCmd = &cobra.Command{
	Use:   "dispatch <command line>",
	Short: "Dispatch a single command and wait for completion",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runDispatch,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.String("lazyai"))
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.lazyai/config.toml)")
	rootCmd.AddCommand(listenCmd, dispatchCmd, sessionsCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (config.Config, error) {
	if configPath != "" {
		return config.LoadFile(configPath)
	}
	return config.Load()
}

// setup wires the store, launcher, and router from configuration.
func setup(cfg config.Config) (*session.Store, *bot.Router) {
	store := session.New(cfg.BaseDir, git.NewCLI())
	launcher := &agent.Launcher{
		Bin:          cfg.AgentBin,
		Store:        store,
		SetupCommand: cfg.SetupCommand,
		ExtraGrants:  cfg.ExtraTools,
		Timeout:      cfg.TimeoutDuration(),
	}
	notifier := bot.NewWriterNotifier(os.Stdout)
	return store, bot.NewRouter(store, launcher, notifier, cfg.Repository)
}

func runListen(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := oplog.Init(cfg.LogFile); err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer oplog.Log.Close()

	store, router := setup(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	commands := make(chan bot.Command)
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return store.Watch(ctx)
	})
	g.Go(func() error {
		return server.New(store, cfg.StatusAddr).Run(ctx)
	})
	g.Go(func() error {
		defer close(commands)
		scanner := bufio.NewScanner(os.Stdin)
		requester := os.Getenv("USER")
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			select {
			case commands <- bot.NewCommand(line, requester):
			case <-ctx.Done():
				return nil
			}
		}
		return scanner.Err()
	})
	g.Go(func() error {
		err := router.Run(ctx, commands)
		if err == context.Canceled {
			err = nil
		}
		// Let in-flight agent runs report before exiting.
		router.Wait()
		return err
	})

	oplog.Log.Info("lazyai is running", "repository", cfg.Repository)
	return g.Wait()
}

func runDispatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := oplog.Init(cfg.LogFile); err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer oplog.Log.Close()

	_, router := setup(cfg)

	router.Handle(context.Background(), bot.NewCommand(strings.Join(args, " "), os.Getenv("USER")))
	router.Wait()
	return nil
}
