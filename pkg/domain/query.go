package domain

// Query is a read request; it never mutates state.
type Query[T any] interface {
	QueryName() string
	Payload() T
}
