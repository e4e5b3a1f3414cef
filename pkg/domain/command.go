package domain

// Command is a request to change state, addressed by name on a command bus.
type Command[T any] interface {
	CommandName() string
	Payload() T
}
