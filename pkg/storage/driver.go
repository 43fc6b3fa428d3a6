// Package storage defines the persistence gateway for conversation memory.
//
// The Driver is the boundary the memory store writes through: a keyed,
// transactional store of memory records and their message rows. Backends
// must provide at least read-committed isolation inside RunInTx, and
// GetMemoryForUpdate must hold the memory row against concurrent writers
// for the life of the transaction. Per-backend packages (sqlite, postgres,
// inmemory) implement Driver.
package storage

import "context"

// Driver persists and retrieves memory records and their messages.
type Driver interface {
	// GetMemory retrieves a record by its (userID, conversationID) key.
	// Returns NotFoundError when absent.
	GetMemory(ctx context.Context, userID, conversationID string) (*MemoryRecord, error)

	// CreateMemory inserts a new record and fills rec.ID. Returns
	// AlreadyExistsError when the (userID, conversationID) key is taken.
	CreateMemory(ctx context.Context, rec *MemoryRecord) error

	// ListMessages returns the live messages for a memory ascending by
	// message index. Read-only; for transactional reads use RunInTx.
	ListMessages(ctx context.Context, memoryID int64) ([]MessageRecord, error)

	// RunInTx executes fn inside one transaction. If fn returns an error
	// the transaction is rolled back and the error is returned unchanged.
	RunInTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases backend resources.
	Close() error
}

// Tx exposes the row operations available inside a transaction.
type Tx interface {
	// GetMemoryForUpdate reads a record and locks its row for the rest of
	// the transaction. Returns NotFoundError when absent.
	GetMemoryForUpdate(userID, conversationID string) (*MemoryRecord, error)

	// UpdateMemory writes a record's mutable fields back.
	UpdateMemory(rec *MemoryRecord) error

	// DeleteMemory removes a record row.
	DeleteMemory(memoryID int64) error

	// ListMessages returns live messages ascending by message index.
	ListMessages(memoryID int64) ([]MessageRecord, error)

	// MaxMessageIndex returns the highest live message index for a memory.
	// ok is false when the memory has no messages.
	MaxMessageIndex(memoryID int64) (max int, ok bool, err error)

	// InsertMessage inserts a message row and fills msg.ID.
	InsertMessage(msg *MessageRecord) error

	// UpdateMessageIndex moves a message to a new index.
	UpdateMessageIndex(messageID int64, index int) error

	// DeleteMessages bulk-deletes the given message rows of a memory.
	DeleteMessages(memoryID int64, messageIDs []int64) error

	// DeleteAllMessages removes every message row of a memory.
	DeleteAllMessages(memoryID int64) error
}
