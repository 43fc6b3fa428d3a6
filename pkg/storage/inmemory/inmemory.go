// Package inmemory provides a map-backed storage driver for tests and
// local development. Transactions serialize on a single mutex, which gives
// them full isolation; rollback restores a snapshot taken at Begin.
package inmemory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Aman3189/soriva-backend-sub004/pkg/storage"
)

// Driver implements storage.Driver using in-process maps.
type Driver struct {
	mu sync.Mutex

	// records maps (userID, conversationID) -> memory record.
	records map[recordKey]*storage.MemoryRecord

	// messages maps memoryID -> messageID -> message row.
	messages map[int64]map[int64]*storage.MessageRecord

	nextMemoryID  int64
	nextMessageID int64
}

type recordKey struct {
	userID         string
	conversationID string
}

// NewDriver creates an empty in-memory driver.
func NewDriver() *Driver {
	return &Driver{
		records:  make(map[recordKey]*storage.MemoryRecord),
		messages: make(map[int64]map[int64]*storage.MessageRecord),
	}
}

// GetMemory retrieves a record copy by key.
func (d *Driver) GetMemory(_ context.Context, userID, conversationID string) (*storage.MemoryRecord, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	rec, ok := d.records[recordKey{userID, conversationID}]
	if !ok {
		return nil, storage.NotFoundError{UserID: userID, ConversationID: conversationID}
	}
	return rec.Clone(), nil
}

// CreateMemory inserts a new record.
func (d *Driver) CreateMemory(_ context.Context, rec *storage.MemoryRecord) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	key := recordKey{rec.UserID, rec.ConversationID}
	if _, ok := d.records[key]; ok {
		return storage.AlreadyExistsError{UserID: rec.UserID, ConversationID: rec.ConversationID}
	}

	d.nextMemoryID++
	rec.ID = d.nextMemoryID
	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now

	d.records[key] = rec.Clone()
	d.messages[rec.ID] = make(map[int64]*storage.MessageRecord)
	return nil
}

// ListMessages returns message copies ascending by index.
func (d *Driver) ListMessages(_ context.Context, memoryID int64) ([]storage.MessageRecord, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.listMessagesLocked(memoryID), nil
}

// RunInTx executes fn while holding the driver lock. On error the state
// captured at entry is restored.
func (d *Driver) RunInTx(_ context.Context, fn func(tx storage.Tx) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	snapshot := d.snapshotLocked()
	if err := fn(&tx{d: d}); err != nil {
		d.restoreLocked(snapshot)
		return err
	}
	return nil
}

// Close is a no-op for the in-memory driver.
func (d *Driver) Close() error {
	return nil
}

// Count returns the number of memory records, for test assertions.
func (d *Driver) Count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.records)
}

func (d *Driver) listMessagesLocked(memoryID int64) []storage.MessageRecord {
	rows := d.messages[memoryID]
	out := make([]storage.MessageRecord, 0, len(rows))
	for _, m := range rows {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MessageIndex < out[j].MessageIndex })
	return out
}

type driverState struct {
	records       map[recordKey]*storage.MemoryRecord
	messages      map[int64]map[int64]*storage.MessageRecord
	nextMemoryID  int64
	nextMessageID int64
}

func (d *Driver) snapshotLocked() driverState {
	records := make(map[recordKey]*storage.MemoryRecord, len(d.records))
	for k, v := range d.records {
		records[k] = v.Clone()
	}
	messages := make(map[int64]map[int64]*storage.MessageRecord, len(d.messages))
	for id, rows := range d.messages {
		cp := make(map[int64]*storage.MessageRecord, len(rows))
		for mid, m := range rows {
			mc := *m
			cp[mid] = &mc
		}
		messages[id] = cp
	}
	return driverState{
		records:       records,
		messages:      messages,
		nextMemoryID:  d.nextMemoryID,
		nextMessageID: d.nextMessageID,
	}
}

func (d *Driver) restoreLocked(s driverState) {
	d.records = s.records
	d.messages = s.messages
	d.nextMemoryID = s.nextMemoryID
	d.nextMessageID = s.nextMessageID
}

// tx implements storage.Tx against the live maps; the driver lock held by
// RunInTx is the row lock.
type tx struct {
	d *Driver
}

func (t *tx) GetMemoryForUpdate(userID, conversationID string) (*storage.MemoryRecord, error) {
	rec, ok := t.d.records[recordKey{userID, conversationID}]
	if !ok {
		return nil, storage.NotFoundError{UserID: userID, ConversationID: conversationID}
	}
	return rec.Clone(), nil
}

func (t *tx) UpdateMemory(rec *storage.MemoryRecord) error {
	key := recordKey{rec.UserID, rec.ConversationID}
	if _, ok := t.d.records[key]; !ok {
		return storage.NotFoundError{UserID: rec.UserID, ConversationID: rec.ConversationID}
	}
	rec.UpdatedAt = time.Now().UTC()
	t.d.records[key] = rec.Clone()
	return nil
}

func (t *tx) DeleteMemory(memoryID int64) error {
	for key, rec := range t.d.records {
		if rec.ID == memoryID {
			delete(t.d.records, key)
			delete(t.d.messages, memoryID)
			return nil
		}
	}
	return nil
}

func (t *tx) ListMessages(memoryID int64) ([]storage.MessageRecord, error) {
	return t.d.listMessagesLocked(memoryID), nil
}

func (t *tx) MaxMessageIndex(memoryID int64) (int, bool, error) {
	max, found := 0, false
	for _, m := range t.d.messages[memoryID] {
		if !found || m.MessageIndex > max {
			max = m.MessageIndex
			found = true
		}
	}
	return max, found, nil
}

func (t *tx) InsertMessage(msg *storage.MessageRecord) error {
	rows, ok := t.d.messages[msg.MemoryID]
	if !ok {
		rows = make(map[int64]*storage.MessageRecord)
		t.d.messages[msg.MemoryID] = rows
	}
	for _, m := range rows {
		if m.MessageIndex == msg.MessageIndex {
			return storage.StorageError{
				Op:  "insert message",
				Err: fmt.Errorf("duplicate message index %d for memory %d", msg.MessageIndex, msg.MemoryID),
			}
		}
	}

	t.d.nextMessageID++
	msg.ID = t.d.nextMessageID
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	cp := *msg
	rows[msg.ID] = &cp
	return nil
}

func (t *tx) UpdateMessageIndex(messageID int64, index int) error {
	for _, rows := range t.d.messages {
		if m, ok := rows[messageID]; ok {
			m.MessageIndex = index
			return nil
		}
	}
	return storage.StorageError{Op: "update message index", Err: fmt.Errorf("message %d not found", messageID)}
}

func (t *tx) DeleteMessages(memoryID int64, messageIDs []int64) error {
	rows := t.d.messages[memoryID]
	for _, id := range messageIDs {
		delete(rows, id)
	}
	return nil
}

func (t *tx) DeleteAllMessages(memoryID int64) error {
	t.d.messages[memoryID] = make(map[int64]*storage.MessageRecord)
	return nil
}
