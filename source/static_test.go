package source

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/arloliu/rollout/types"
)

func TestStatic_FetchLatest(t *testing.T) {
	t.Run("returns the document", func(t *testing.T) {
		src := NewStatic([]byte("features: []"))

		raw, err := src.FetchLatest(context.Background())
		require.NoError(t, err)
		require.Equal(t, "features: []", string(raw))
	})

	t.Run("empty document", func(t *testing.T) {
		_, err := NewStatic(nil).FetchLatest(context.Background())
		require.ErrorIs(t, err, types.ErrEmptyPayload)
	})

	t.Run("does not share buffers", func(t *testing.T) {
		input := []byte("features: []")
		src := NewStatic(input)
		input[0] = 'X'

		raw, err := src.FetchLatest(context.Background())
		require.NoError(t, err)
		raw[1] = 'Y'

		again, _ := src.FetchLatest(context.Background())
		require.Equal(t, "features: []", string(again))
	})
}

func TestStatic_Watch(t *testing.T) {
	defer goleak.VerifyNone(t)

	src := NewStatic([]byte("features: []"))

	ctx, cancel := context.WithCancel(context.Background())
	updates, err := src.Watch(ctx)
	require.NoError(t, err)

	src.Update([]byte("v2"))
	require.Equal(t, "v2", string(receive(t, updates)))

	// Unconsumed payloads are replaced by newer ones.
	src.Update([]byte("v3"))
	src.Update([]byte("v4"))
	require.Equal(t, "v4", string(receive(t, updates)))

	raw, err := src.FetchLatest(ctx)
	require.NoError(t, err)
	require.Equal(t, "v4", string(raw))

	cancel()
	requireClosed(t, updates)

	// Updates after the watch ended must not block.
	src.Update([]byte("v5"))
}

func receive(t *testing.T, ch <-chan []byte) []byte {
	t.Helper()

	select {
	case raw, ok := <-ch:
		require.True(t, ok, "channel closed unexpectedly")
		return raw
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for payload")
		return nil
	}
}

func requireClosed(t *testing.T, ch <-chan []byte) {
	t.Helper()

	deadline := time.After(5 * time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("channel not closed")
		}
	}
}
