package domain

// IDGenerator mints opaque identifiers for new aggregates.
type IDGenerator[T comparable] func() T
