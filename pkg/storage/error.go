package storage

import "fmt"

// NotFoundError is returned when no memory record exists for a key.
type NotFoundError struct {
	UserID         string
	ConversationID string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("memory not found: user=%s conversation=%s", e.UserID, e.ConversationID)
}

// AlreadyExistsError is returned when creating a record whose
// (userID, conversationID) key is already taken.
type AlreadyExistsError struct {
	UserID         string
	ConversationID string
}

func (e AlreadyExistsError) Error() string {
	return fmt.Sprintf("memory already exists: user=%s conversation=%s", e.UserID, e.ConversationID)
}

// StorageError wraps a backend failure with the operation that hit it.
type StorageError struct {
	Op  string
	Err error
}

func (e StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e StorageError) Unwrap() error {
	return e.Err
}
