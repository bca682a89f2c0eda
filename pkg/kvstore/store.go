// Package kvstore provides the flat string key-value store backing all
// durable portal state. There is no secondary index; bulk queries are
// prefix scans over Keys, which is acceptable at the expected cardinality
// of a few dozen employees.
package kvstore

import "errors"

// ErrNotFound is returned by Get for absent keys.
var ErrNotFound = errors.New("key not found")

// Store is the durable key-value contract. Operations are synchronous and
// either succeed or return an error; there is no transaction spanning keys.
type Store interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Remove(key string) error
	Keys() ([]string, error)
}
