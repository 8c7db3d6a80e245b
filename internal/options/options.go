// Package options provides functional options for configurable types.
package options

// Option configures a value of type T.
type Option[T any] func(*T)

// Apply applies opts to v in order.
func Apply[T any](v *T, opts ...Option[T]) {
	for _, opt := range opts {
		if opt != nil {
			opt(v)
		}
	}
}
