package types

import "context"

// Hooks defines callbacks for failures of the update pipeline.
//
// Successful updates are reported to Observers. Hooks cover what observers
// never see: documents that were rejected and providers that failed.
//
// Hooks run synchronously on the goroutine that called Refresh, ApplyUpdate
// or Watch. Hook errors are logged and never change the outcome of the
// operation that triggered them.
//
// Example:
//
//	hooks := &rollout.Hooks{
//	    OnRejected: func(ctx context.Context, err error) error {
//	        alerts.Notify("feature config rejected: " + err.Error())
//	        return nil
//	    },
//	}
type Hooks struct {
	// OnRejected is called when a configuration payload fails validation.
	// The previous configuration stays active.
	OnRejected func(ctx context.Context, err error) error

	// OnError is called when the configuration provider fails to deliver a payload.
	OnError func(ctx context.Context, err error) error
}
