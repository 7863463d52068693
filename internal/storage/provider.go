// Package storage defines the key-value store the catalog is mirrored to.
package storage

// Provider is a flat key-value store. Values are opaque byte slices.
type Provider interface {
	// Get returns the value stored under key, or an error wrapping
	// apperr.ErrNotFound when the key is absent.
	Get(key string) ([]byte, error)
	// Set stores value under key, replacing any previous value.
	Set(key string, value []byte) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(key string) error
	// Keys returns all stored keys in lexical order.
	Keys() ([]string, error)
}

// Driver names accepted by Open.
const (
	DriverFS     = "fs"
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)
