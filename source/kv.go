package source

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/arloliu/rollout/internal/backoff"
	"github.com/arloliu/rollout/internal/kvutil"
	"github.com/arloliu/rollout/internal/logging"
	"github.com/arloliu/rollout/internal/natsutil"
	"github.com/arloliu/rollout/types"
)

// KV implements a configuration provider backed by a NATS JetStream
// key-value bucket. The document is the value of a single key; every Put to
// that key is a new configuration.
type KV struct {
	kv      jetstream.KeyValue
	key     string
	logger  types.Logger
	rewatch backoff.Policy
}

// DefaultKVRewatchBackoff and DefaultKVRewatchMaxBackoff bound the delay
// between attempts to re-establish an interrupted watch.
const (
	DefaultKVRewatchBackoff    = 100 * time.Millisecond
	DefaultKVRewatchMaxBackoff = 10 * time.Second
)

var _ types.WatchableProvider = (*KV)(nil)

// KVOption configures a KV provider.
type KVOption func(*KV)

// WithKVLogger sets the logger for watch diagnostics.
func WithKVLogger(logger types.Logger) KVOption {
	return func(k *KV) {
		k.logger = logger
	}
}

// WithKVRewatchBackoff sets the first and the maximum delay between attempts
// to re-establish an interrupted watch.
func WithKVRewatchBackoff(initial, maximum time.Duration) KVOption {
	return func(k *KV) {
		k.rewatch.Base = initial
		k.rewatch.Cap = maximum
	}
}

// NewKV creates a provider reading key from an existing bucket.
//
// Parameters:
//   - kv: JetStream key-value bucket
//   - key: Key holding the configuration document
//   - opts: Optional logger and rewatch backoff
//
// Returns:
//   - *KV: Initialized KV provider
func NewKV(kv jetstream.KeyValue, key string, opts ...KVOption) *KV {
	k := &KV{
		kv:  kv,
		key: key,
		rewatch: backoff.Policy{
			Base:       DefaultKVRewatchBackoff,
			Multiplier: 2,
			Cap:        DefaultKVRewatchMaxBackoff,
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(k)
		}
	}

	if k.logger == nil {
		k.logger = logging.NewNop()
	}

	return k
}

// OpenKV creates or opens the configuration bucket and returns a provider for key.
//
// Parameters:
//   - ctx: Context for bucket creation
//   - js: JetStream context
//   - bucket: Bucket name
//   - key: Key holding the configuration document
//   - history: Revisions kept per key when the bucket is created
//   - opts: Optional logger
//
// Returns:
//   - *KV: Provider bound to the bucket
//   - error: Bucket creation error
//
// Example:
//
//	js, _ := jetstream.New(nc)
//	src, err := source.OpenKV(ctx, js, cfg.KV.Bucket, cfg.KV.Key, cfg.KV.History)
//	if err != nil {
//	    return err
//	}
//	mgr, err := rollout.NewManager(&cfg, rollout.WithConfigProvider(src))
func OpenKV(
	ctx context.Context,
	js jetstream.JetStream,
	bucket string,
	key string,
	history uint8,
	opts ...KVOption,
) (*KV, error) {
	kv, err := kvutil.EnsureConfigBucket(ctx, js, bucket, history)
	if err != nil {
		return nil, err
	}

	return NewKV(kv, key, opts...), nil
}

// Key returns the key holding the document.
func (k *KV) Key() string {
	return k.key
}

// FetchLatest returns the latest value of the key.
//
// Returns:
//   - []byte: Document bytes
//   - error: Lookup error (errors.Is jetstream.ErrKeyNotFound when unset,
//     types.ErrProviderUnavailable on connectivity loss), or
//     types.ErrEmptyPayload for an empty value
func (k *KV) FetchLatest(ctx context.Context) ([]byte, error) {
	entry, err := k.kv.Get(ctx, k.key)
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", k.kv.Bucket(), k.key, natsutil.Classify(err))
	}
	if len(entry.Value()) == 0 {
		return nil, types.ErrEmptyPayload
	}

	return entry.Value(), nil
}

// Publish stores raw as the new document.
//
// Returns:
//   - uint64: Revision of the stored value
//   - error: Put error
func (k *KV) Publish(ctx context.Context, raw []byte) (uint64, error) {
	rev, err := k.kv.Put(ctx, k.key, raw)
	if err != nil {
		return 0, fmt.Errorf("put %s/%s: %w", k.kv.Bucket(), k.key, natsutil.Classify(err))
	}

	return rev, nil
}

// Watch streams every new value of the key until ctx is done.
//
// Only updates made after the watch starts are delivered. Deletes and
// purges are ignored: removing the key does not unload the configuration.
//
// If the JetStream watcher ends while ctx is still live, for example after
// the server restarts, the watch is re-established with jittered backoff and
// any value written in between is delivered.
func (k *KV) Watch(ctx context.Context) (<-chan []byte, error) {
	w, err := k.kv.Watch(ctx, k.key, jetstream.UpdatesOnly())
	if err != nil {
		return nil, fmt.Errorf("watch %s/%s: %w", k.kv.Bucket(), k.key, natsutil.Classify(err))
	}

	var seen uint64
	if entry, err := k.kv.Get(ctx, k.key); err == nil {
		seen = entry.Revision()
	}

	out := make(chan []byte, 1)
	go k.run(ctx, w, out, seen)

	return out, nil
}

func (k *KV) run(ctx context.Context, w jetstream.KeyWatcher, out chan<- []byte, seen uint64) {
	defer close(out)

	delay := backoff.New(k.rewatch)
	for {
		var ok bool
		seen, ok = k.forward(ctx, w, out, seen)
		k.stop(w)
		if !ok || ctx.Err() != nil {
			return
		}

		k.logger.Warn("configuration watch interrupted, re-establishing", "key", k.key)

		w = k.rewatchWithBackoff(ctx, delay)
		if w == nil {
			return
		}
		delay.Reset()

		// Catch up on a value written while no watcher was active.
		entry, err := k.kv.Get(ctx, k.key)
		if err != nil || entry.Revision() <= seen || len(entry.Value()) == 0 {
			continue
		}
		seen = entry.Revision()
		if !send(ctx, out, entry.Value()) {
			k.stop(w)
			return
		}
	}
}

// forward relays put entries newer than seen until the watcher ends.
// It reports false when ctx is done.
func (k *KV) forward(ctx context.Context, w jetstream.KeyWatcher, out chan<- []byte, seen uint64) (uint64, bool) {
	for {
		select {
		case <-ctx.Done():
			return seen, false
		case entry, ok := <-w.Updates():
			if !ok {
				return seen, true
			}
			if entry == nil || entry.Operation() != jetstream.KeyValuePut || entry.Revision() <= seen {
				continue
			}
			seen = entry.Revision()

			k.logger.Debug("configuration key updated", "key", k.key, "revision", seen)
			if !send(ctx, out, entry.Value()) {
				return seen, false
			}
		}
	}
}

func (k *KV) rewatchWithBackoff(ctx context.Context, delay *backoff.Backoff) jetstream.KeyWatcher {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay.Next()):
		}

		w, err := k.kv.Watch(ctx, k.key, jetstream.UpdatesOnly())
		if err == nil {
			k.logger.Info("configuration watch re-established", "key", k.key)
			return w
		}

		err = natsutil.Classify(err)
		if errors.Is(err, types.ErrProviderUnavailable) {
			k.logger.Debug("configuration watch unavailable, retrying", "key", k.key, "error", err)
		} else {
			k.logger.Warn("re-establishing configuration watch failed", "key", k.key, "error", err)
		}
	}
}

func (k *KV) stop(w jetstream.KeyWatcher) {
	if err := w.Stop(); err != nil {
		k.logger.Debug("stopping kv watcher failed", "key", k.key, "error", err)
	}
}

func send(ctx context.Context, out chan<- []byte, raw []byte) bool {
	select {
	case out <- raw:
		return true
	case <-ctx.Done():
		return false
	}
}
