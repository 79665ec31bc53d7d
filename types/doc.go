// Package types provides core type definitions and interfaces for the rollout library.
//
// This package contains shared types that are used across multiple packages in the
// rollout library. By keeping these types in a separate package, we avoid import cycles
// between the main rollout package and its internal implementations.
//
// Key types:
//   - Feature: A named togglable capability with optional test variations
//   - Document: An immutable, parsed configuration document
//   - Decision: The evaluated outcome of a feature for one subject
//   - UpdateResult: Per-feature report of a configuration swap
//   - Logger: Structured logging interface
//   - MetricsCollector: Metrics recording interface
package types
