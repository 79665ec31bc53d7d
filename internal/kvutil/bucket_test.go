package kvutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/require"

	rollouttest "github.com/arloliu/rollout/testing"
)

func TestEnsureKVBucketWithRetry(t *testing.T) {
	_, nc := rollouttest.StartEmbeddedNATS(t)

	ctx := t.Context()
	js, err := jetstream.New(nc)
	require.NoError(t, err)

	t.Run("creates missing bucket", func(t *testing.T) {
		kv, err := EnsureKVBucketWithRetry(ctx, js, jetstream.KeyValueConfig{Bucket: "retry-1", History: 1}, 3)
		require.NoError(t, err)
		require.Equal(t, "retry-1", kv.Bucket())
	})

	t.Run("opens existing bucket", func(t *testing.T) {
		cfg := jetstream.KeyValueConfig{Bucket: "retry-2", History: 1}

		first, err := js.CreateKeyValue(ctx, cfg)
		require.NoError(t, err)
		_, err = first.Put(ctx, "features", []byte("features: []"))
		require.NoError(t, err)

		// A different config on an existing bucket must still open it.
		kv, err := EnsureKVBucketWithRetry(ctx, js, jetstream.KeyValueConfig{Bucket: "retry-2", History: 4}, 3)
		require.NoError(t, err)

		entry, err := kv.Get(ctx, "features")
		require.NoError(t, err)
		require.Equal(t, []byte("features: []"), entry.Value())
	})

	t.Run("concurrent creates", func(t *testing.T) {
		const workers = 10
		cfg := jetstream.KeyValueConfig{Bucket: "retry-3", History: 1}

		var wg sync.WaitGroup
		errs := make(chan error, workers)
		for range workers {
			wg.Go(func() {
				if _, err := EnsureKVBucketWithRetry(ctx, js, cfg, 5); err != nil {
					errs <- err
				}
			})
		}
		wg.Wait()
		close(errs)

		for err := range errs {
			require.NoError(t, err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		_, err := EnsureKVBucketWithRetry(cctx, js, jetstream.KeyValueConfig{Bucket: "retry-4"}, 3)
		require.Error(t, err)
	})
}

func TestEnsureConfigBucket(t *testing.T) {
	_, nc := rollouttest.StartEmbeddedNATS(t)

	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancel()

	js, err := jetstream.New(nc)
	require.NoError(t, err)

	kv, err := EnsureConfigBucket(ctx, js, "rollout-config", 0)
	require.NoError(t, err)

	status, err := kv.Status(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), status.History())
	require.Equal(t, time.Duration(0), status.TTL())

	again, err := EnsureConfigBucket(ctx, js, "rollout-config", 5)
	require.NoError(t, err)
	require.Equal(t, "rollout-config", again.Bucket())
}
