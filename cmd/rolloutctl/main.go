// Command rolloutctl inspects and publishes feature configuration documents.
//
// Usage:
//
//	rolloutctl validate features.yaml
//	rolloutctl eval features.yaml checkout-copy user-1 user-2
//	rolloutctl diff old.yaml new.yaml
//	rolloutctl simulate features.yaml checkout-copy --subjects 100000
//	rolloutctl publish features.yaml --nats-url nats://localhost:4222
//	rolloutctl watch --nats-url nats://localhost:4222
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/arloliu/rollout"
	"github.com/arloliu/rollout/internal/logging"
)

// Exit codes.
const (
	exitOK      = 0
	exitInvalid = 1
	exitError   = 2
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	verbose    bool
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cmd := newRootCmd()
	cmd.SetArgs(args)

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "error:", err)

		var invalid *invalidDocumentError
		if errors.As(err, &invalid) {
			return exitInvalid
		}

		return exitError
	}

	return exitOK
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:           "rolloutctl",
		Short:         "Inspect and publish feature rollout documents",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "library configuration file (YAML)")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "log debug output to stderr")

	root.AddCommand(
		newValidateCmd(flags),
		newEvalCmd(flags),
		newDiffCmd(flags),
		newSimulateCmd(flags),
		newPublishCmd(flags),
		newWatchCmd(flags),
	)

	return root
}

// loadConfig returns the library configuration from --config, or defaults.
func (f *globalFlags) loadConfig() (rollout.Config, error) {
	if f.configPath == "" {
		return rollout.DefaultConfig(), nil
	}

	return rollout.LoadConfig(f.configPath)
}

func (f *globalFlags) logger(cmd *cobra.Command) rollout.Logger {
	if !f.verbose {
		return logging.NewNop()
	}

	return logging.NewSlogText(cmd.ErrOrStderr(), slog.LevelDebug)
}

// newManager builds a manager from --config with the given document loaded.
func (f *globalFlags) newManager(cmd *cobra.Command, path string) (*rollout.Manager, error) {
	cfg, err := f.loadConfig()
	if err != nil {
		return nil, err
	}

	mgr, err := rollout.NewManager(&cfg, rollout.WithLogger(f.logger(cmd)))
	if err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if _, err := mgr.Load(raw); err != nil {
		return nil, &invalidDocumentError{path: path, err: err}
	}

	return mgr, nil
}

// invalidDocumentError marks a rejected document so the process exits with exitInvalid.
type invalidDocumentError struct {
	path string
	err  error
}

func (e *invalidDocumentError) Error() string {
	return fmt.Sprintf("%s: %v", e.path, e.err)
}

func (e *invalidDocumentError) Unwrap() error {
	return e.err
}
