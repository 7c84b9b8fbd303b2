package models

import "fmt"

// Outcome is the Success(T) | Failure(reason) sum returned by bus calls that
// may fail semantically. Failures are data, not errors.
type Outcome[T any] struct {
	value  T
	reason string
	ok     bool
}

// Success wraps a value.
func Success[T any](v T) Outcome[T] { return Outcome[T]{value: v, ok: true} }

// Failure carries the reason a call failed.
func Failure[T any](reason string) Outcome[T] { return Outcome[T]{reason: reason} }

// IsSuccess reports whether the outcome carries a value.
func (o Outcome[T]) IsSuccess() bool { return o.ok }

// Value returns the carried value; the zero value on failure.
func (o Outcome[T]) Value() T { return o.value }

// Reason returns the failure reason; empty on success.
func (o Outcome[T]) Reason() string { return o.reason }

func (o Outcome[T]) String() string {
	if o.ok {
		return fmt.Sprintf("Success(%v)", o.value)
	}
	return fmt.Sprintf("Failure(%s)", o.reason)
}

// Erase converts a typed outcome to the untyped form carried across a host.
func (o Outcome[T]) Erase() Outcome[any] {
	if !o.ok {
		return Failure[any](o.reason)
	}
	return Success[any](o.value)
}

// AnyOutcome is the untyped outcome returned through a host.
type AnyOutcome = Outcome[any]

// Cast narrows an untyped outcome. A success holding the wrong type becomes a failure.
func Cast[T any](o Outcome[any]) Outcome[T] {
	if !o.ok {
		return Failure[T](o.reason)
	}
	v, ok := o.value.(T)
	if !ok {
		var zero T
		return Failure[T](fmt.Sprintf("outcome value is %T, want %T", o.value, zero))
	}
	return Success(v)
}
