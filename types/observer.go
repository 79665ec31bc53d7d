package types

// Observer receives configuration update notifications.
//
// OnUpdate is invoked synchronously on the updating goroutine after a
// successful swap, so implementations should return quickly. A panicking
// observer is recovered and logged; the swap has already happened.
type Observer interface {
	OnUpdate(result UpdateResult)
}

// ObserverFunc adapts an ordinary function to the Observer interface.
type ObserverFunc func(result UpdateResult)

// OnUpdate calls f(result).
func (f ObserverFunc) OnUpdate(result UpdateResult) {
	f(result)
}
