package progress

import "fmt"

// Redis key pattern helpers
//
// All keys and the Pub/Sub channel are namespaced by aggregator name so that
// several progress bars can share one Redis server.
//
// Key pattern: expkit:{name}:progress:{field}
// Channel pattern: expkit:{name}:progress_events

// CompletedKey returns the key holding the running total.
func CompletedKey(name string) string {
	return fmt.Sprintf("expkit:%s:progress:completed", name)
}

// DeltaKey returns the key holding the increment not yet drained.
func DeltaKey(name string) string {
	return fmt.Sprintf("expkit:%s:progress:delta", name)
}

// PendingKey returns the key marking that a report arrived since the last drain.
func PendingKey(name string) string {
	return fmt.Sprintf("expkit:%s:progress:pending", name)
}

// EventsChannel returns the Pub/Sub channel Report publishes to.
func EventsChannel(name string) string {
	return fmt.Sprintf("expkit:%s:progress_events", name)
}
