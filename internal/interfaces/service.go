package interfaces

// Service is an outer surface of the daemon. Start must not block; Stop
// gracefully drains in-flight calls.
type Service interface {
	Start() error
	Stop()
}
