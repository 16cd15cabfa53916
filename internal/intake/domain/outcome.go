package domain

// Outcome is the result of one external collaborator call: either a value
// or the reason the collaborator could not provide one.
type Outcome[T any] struct {
	value     T
	reason    string
	available bool
}

// Available wraps a successful collaborator result.
func Available[T any](v T) Outcome[T] {
	return Outcome[T]{value: v, available: true}
}

// Unavailable records why a collaborator produced no result.
func Unavailable[T any](reason string) Outcome[T] {
	return Outcome[T]{reason: reason}
}

// Get returns the value and whether it is present.
func (o Outcome[T]) Get() (T, bool) {
	return o.value, o.available
}

// OK reports whether the collaborator returned a value.
func (o Outcome[T]) OK() bool { return o.available }

// Reason is empty for available outcomes.
func (o Outcome[T]) Reason() string { return o.reason }
