// README: Common value objects shared across modules.
package types

// ID is an opaque entity identifier (UUID string in practice).
type ID string

type Money struct {
	Amount   int64
	Currency string
}
