// Package kvutil provides utilities for working with NATS JetStream KeyValue stores.
package kvutil

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/arloliu/rollout/internal/backoff"
)

// DefaultRetries is the number of attempts used by EnsureConfigBucket.
const DefaultRetries = 3

var retryPolicy = backoff.Policy{
	Base:       10 * time.Millisecond,
	Multiplier: 2,
	Cap:        500 * time.Millisecond,
}

// EnsureConfigBucket creates or opens the bucket that stores configuration documents.
//
// Documents are small and rarely written, so the bucket uses file storage
// and keeps a short revision history for rollbacks. Values never expire.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - js: JetStream context
//   - bucket: Bucket name
//   - history: Revisions kept per key (0 means 1)
//
// Returns:
//   - jetstream.KeyValue: The KV bucket instance
//   - error: Any error that occurred after all retries
func EnsureConfigBucket(
	ctx context.Context,
	js jetstream.JetStream,
	bucket string,
	history uint8,
) (jetstream.KeyValue, error) {
	if history == 0 {
		history = 1
	}

	return EnsureKVBucketWithRetry(ctx, js, jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "rollout configuration documents",
		History:     history,
		Storage:     jetstream.FileStorage,
	}, DefaultRetries)
}

// EnsureKVBucketWithRetry creates or opens a KV bucket with retry logic.
//
// Several processes may start at once and race to create the same bucket.
// Losing the race surfaces as jetstream.ErrBucketExists, in which case the
// existing bucket is opened. Other failures are retried with jittered
// backoff.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - js: JetStream context
//   - config: KV bucket configuration
//   - maxRetries: Maximum number of attempts (<= 0 means DefaultRetries)
//
// Returns:
//   - jetstream.KeyValue: The KV bucket instance
//   - error: Any error that occurred after all retries
//
// Example:
//
//	kv, err := kvutil.EnsureKVBucketWithRetry(ctx, js, jetstream.KeyValueConfig{
//	    Bucket:  "rollout-config",
//	    History: 5,
//	}, 3)
func EnsureKVBucketWithRetry(
	ctx context.Context,
	js jetstream.JetStream,
	config jetstream.KeyValueConfig,
	maxRetries int,
) (jetstream.KeyValue, error) {
	if maxRetries <= 0 {
		maxRetries = DefaultRetries
	}

	var lastErr error
	delay := backoff.New(retryPolicy)

	for attempt := range maxRetries {
		kv, err := js.CreateKeyValue(ctx, config)
		if err == nil {
			return kv, nil
		}

		if errors.Is(err, jetstream.ErrBucketExists) {
			kv, err := js.KeyValue(ctx, config.Bucket)
			if err == nil {
				return kv, nil
			}
			lastErr = fmt.Errorf("bucket exists but failed to open: %w", err)
		} else {
			lastErr = err
		}

		if ctx.Err() != nil {
			return nil, fmt.Errorf("context cancelled during KV bucket creation: %w", ctx.Err())
		}

		if attempt < maxRetries-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay.Next()):
			}
		}
	}

	return nil, fmt.Errorf("failed to create/open KV bucket %s after %d attempts: %w",
		config.Bucket, maxRetries, lastErr)
}
