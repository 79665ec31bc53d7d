// Package identity provides subject identifier providers.
//
// A subject provider answers "who is the current subject" for the
// *ForCurrent helpers of the Manager. The identifier must be stable across
// restarts, otherwise the subject lands in a different bucket every time
// the process starts.
//
// Two implementations are provided:
//   - Static: a fixed identifier supplied by the host
//   - File: a UUID generated once and persisted to disk
package identity
