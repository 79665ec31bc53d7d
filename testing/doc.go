// Package testing provides test utilities for the rollout library.
//
// This package offers helpers for setting up test environments, particularly
// embedded NATS servers for exercising the JetStream configuration source.
// It follows Go's convention of providing testing utilities in a dedicated
// package (similar to net/http/httptest).
//
// Key utilities:
//   - StartEmbeddedNATS: Single NATS server with JetStream
//   - CreateJetStreamKV: Convenience wrapper for KV bucket creation
//   - PutDocument: Publish a configuration document to a bucket
//   - WriteDocument: Atomically replace a configuration file on disk
//   - NewTestLogger: Logger that writes through testing.T
//
// Example usage:
//
//	import (
//	    "testing"
//	    rollouttest "github.com/arloliu/rollout/testing"
//	)
//
//	func TestMyComponent(t *testing.T) {
//	    _, nc := rollouttest.StartEmbeddedNATS(t)
//	    kv := rollouttest.CreateJetStreamKV(t, nc, "features")
//	    rollouttest.PutDocument(t, kv, "current", raw)
//	}
package testing
