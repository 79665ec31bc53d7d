package types

import "context"

// ConfigProvider supplies raw configuration documents.
//
// Implementations own transport and caching; the core only parses and
// applies what they return.
type ConfigProvider interface {
	// FetchLatest returns the most recent configuration document bytes.
	//
	// Parameters:
	//   - ctx: Context for cancellation and deadline
	//
	// Returns:
	//   - []byte: Raw document (YAML or JSON)
	//   - error: Transport or lookup failure
	FetchLatest(ctx context.Context) ([]byte, error)
}

// WatchableProvider is a ConfigProvider that can push new documents.
type WatchableProvider interface {
	ConfigProvider

	// Watch streams new document payloads until ctx is done.
	//
	// The returned channel is closed when the watch ends. The current
	// document is not replayed; callers fetch it with FetchLatest first.
	Watch(ctx context.Context) (<-chan []byte, error)
}

// SubjectProvider supplies the stable identifier of the current subject.
//
// The identifier must survive process restarts, otherwise the subject is
// re-bucketed on every start.
type SubjectProvider interface {
	CurrentSubjectID() (string, error)
}
