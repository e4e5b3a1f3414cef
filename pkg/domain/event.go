package domain

// Event is a fact that already happened and is fanned out to every handler
// registered under its name.
type Event[T any] interface {
	EventName() string
	Payload() T
}
