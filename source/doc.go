// Package source provides built-in configuration providers.
//
// Providers fetch raw configuration documents for the Manager; they never
// parse them. The package includes:
//
//   - Static: In-memory document, optionally updated by the host
//   - File: Document on disk, watched with fsnotify
//   - KV: Document stored under a key of a NATS JetStream key-value bucket
//
// All three implement types.WatchableProvider. Custom providers can be
// implemented by satisfying types.ConfigProvider.
package source
