// Package storage provides the key-value state repository for the
// helpcenter client.
//
// The browser build of the help center kept its state in localStorage and
// sessionStorage; this package models the same surface as a small
// repository interface so the session and transcript expiry policies are
// testable independent of the storage medium.
//
// Well-known keys:
//
//	token            bearer credential
//	user             serialized identity
//	lastActivity     epoch milliseconds of the last observed interaction
//	chat_<category>  transcript snapshot {messages, timestamp}
//	lastChatCategory category id for reload recovery
package storage

import "errors"

// ErrKeyNotFound is returned by Get for keys with no stored value.
var ErrKeyNotFound = errors.New("storage: key not found")

// Store is a flat key-value repository.
//
// Implementations are safe for use from multiple goroutines within one
// process. Concurrent processes sharing one state file are not coordinated;
// this mirrors the original client's uncoordinated-tabs limitation.
type Store interface {
	// Get returns the value for key, or ErrKeyNotFound.
	Get(key string) ([]byte, error)

	// Set stores value under key, replacing any previous value.
	Set(key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error

	// Keys returns all keys with the given prefix, in unspecified order.
	Keys(prefix string) ([]string, error)

	// Close releases the underlying resources.
	Close() error
}

// Well-known key names shared by the session and conversation stores.
const (
	KeyToken            = "token"
	KeyUser             = "user"
	KeyLastActivity     = "lastActivity"
	KeyLastChatCategory = "lastChatCategory"

	// ChatKeyPrefix prefixes per-category transcript snapshots.
	ChatKeyPrefix = "chat_"
)

// ChatKey returns the transcript snapshot key for a category.
func ChatKey(categoryID string) string {
	return ChatKeyPrefix + categoryID
}
