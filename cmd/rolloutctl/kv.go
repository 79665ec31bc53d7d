package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/spf13/cobra"

	"github.com/arloliu/rollout"
	"github.com/arloliu/rollout/source"
)

// natsFlags locate the configuration key-value bucket.
type natsFlags struct {
	url    string
	bucket string
	key    string
}

func (n *natsFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&n.url, "nats-url", nats.DefaultURL, "NATS server URL")
	cmd.Flags().StringVar(&n.bucket, "bucket", "", "KV bucket (default from --config)")
	cmd.Flags().StringVar(&n.key, "key", "", "KV key (default from --config)")
}

// open connects to NATS and returns a provider bound to the configured key.
func (n *natsFlags) open(ctx context.Context, cfg rollout.Config, logger rollout.Logger) (*source.KV, *nats.Conn, error) {
	bucket, key := cfg.KV.Bucket, cfg.KV.Key
	if n.bucket != "" {
		bucket = n.bucket
	}
	if n.key != "" {
		key = n.key
	}

	nc, err := nats.Connect(n.url, nats.Name("rolloutctl"))
	if err != nil {
		return nil, nil, fmt.Errorf("connect %s: %w", n.url, err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("jetstream: %w", err)
	}

	src, err := source.OpenKV(ctx, js, bucket, key, cfg.KV.History, source.WithKVLogger(logger))
	if err != nil {
		nc.Close()
		return nil, nil, err
	}

	return src, nc, nil
}

func newPublishCmd(flags *globalFlags) *cobra.Command {
	var (
		conn    natsFlags
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "publish FILE",
		Short: "Validate a document and store it in the configuration bucket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}

			mgr, err := rollout.NewManager(&cfg, rollout.WithLogger(flags.logger(cmd)))
			if err != nil {
				return err
			}

			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			// Never publish a document every subscriber would reject.
			doc, err := mgr.Parse(raw)
			if err != nil {
				return &invalidDocumentError{path: args[0], err: err}
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			src, nc, err := conn.open(ctx, cfg, flags.logger(cmd))
			if err != nil {
				return err
			}
			defer nc.Close()

			rev, err := src.Publish(ctx, raw)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "published %s (%d features) as %s revision %d\n",
				args[0], len(doc.Features), src.Key(), rev)
			for _, w := range doc.Warnings {
				fmt.Fprintf(cmd.OutOrStdout(), "  WARN %s\n", w.Error())
			}

			return nil
		},
	}

	conn.register(cmd)
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "publish timeout")

	return cmd
}

func newWatchCmd(flags *globalFlags) *cobra.Command {
	var conn natsFlags

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow the configuration bucket and print every applied version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger := flags.logger(cmd)
			src, nc, err := conn.open(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer nc.Close()

			out := cmd.OutOrStdout()
			mgr, err := rollout.NewManager(&cfg,
				rollout.WithLogger(logger),
				rollout.WithConfigProvider(src),
				rollout.WithObserver(rollout.ObserverFunc(func(result rollout.UpdateResult) {
					fmt.Fprintf(out, "version %d\n", result.Version)
					for _, change := range result.Changes {
						fmt.Fprintf(out, "  %s\t%s\n", change.Feature, change.Kind)
					}
				})),
				rollout.WithHooks(&rollout.Hooks{
					OnRejected: func(_ context.Context, err error) error {
						fmt.Fprintf(out, "rejected: %v\n", err)
						return nil
					},
				}),
			)
			if err != nil {
				return err
			}

			return mgr.Watch(ctx)
		},
	}

	conn.register(cmd)

	return cmd
}
