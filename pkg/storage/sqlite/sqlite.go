// Package sqlite provides a SQLite-backed storage driver using modernc.org/sqlite.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Aman3189/soriva-backend-sub004/pkg/storage"
)

// Driver implements storage.Driver on SQLite. The connection pool is
// capped at one connection, so SQLite's single-writer model serializes
// transactions and GetMemoryForUpdate needs no explicit row lock.
type Driver struct {
	db *sql.DB
}

// NewDriver opens (or creates) the database at dbPath and migrates the
// schema. The dbPath can be ":memory:" for an in-memory database.
func NewDriver(dbPath string) (*Driver, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	d := &Driver{db: db}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return d, nil
}

// migrate creates the necessary tables if they don't exist. The unique
// (memory_id, message_index) index catches gapless-sequence violations at
// the storage layer.
func (d *Driver) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS memories (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		conversation_id TEXT NOT NULL,
		system_memory TEXT NOT NULL DEFAULT '{}',
		rolling_summary TEXT NOT NULL DEFAULT '',
		summary_tokens INTEGER NOT NULL DEFAULT 0,
		total_messages INTEGER NOT NULL DEFAULT 0,
		last_summarized_at TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		UNIQUE (user_id, conversation_id)
	);

	CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		memory_id INTEGER NOT NULL REFERENCES memories(id) ON DELETE CASCADE,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		token_count INTEGER NOT NULL,
		message_index INTEGER NOT NULL,
		created_at TEXT NOT NULL,
		UNIQUE (memory_id, message_index)
	);

	CREATE INDEX IF NOT EXISTS idx_messages_memory ON messages(memory_id, message_index);
	`

	_, err := d.db.Exec(schema)
	return err
}

const memoryColumns = `id, user_id, conversation_id, system_memory, rolling_summary, summary_tokens, total_messages, last_summarized_at, created_at, updated_at`

const messageColumns = `id, memory_id, role, content, token_count, message_index, created_at`

// GetMemory retrieves a record by its (userID, conversationID) key.
func (d *Driver) GetMemory(ctx context.Context, userID, conversationID string) (*storage.MemoryRecord, error) {
	row := d.db.QueryRowContext(ctx,
		`SELECT `+memoryColumns+` FROM memories WHERE user_id = ? AND conversation_id = ?`,
		userID, conversationID,
	)
	return scanMemory(row, userID, conversationID)
}

// CreateMemory inserts a new record and fills rec.ID.
func (d *Driver) CreateMemory(ctx context.Context, rec *storage.MemoryRecord) error {
	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now

	res, err := d.db.ExecContext(ctx,
		`INSERT INTO memories (user_id, conversation_id, system_memory, rolling_summary, summary_tokens, total_messages, last_summarized_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.UserID, rec.ConversationID, blobOrEmpty(rec.SystemMemory), rec.RollingSummary,
		rec.SummaryTokens, rec.TotalMessages, formatNullableTime(rec.LastSummarizedAt),
		formatTime(rec.CreatedAt), formatTime(rec.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.AlreadyExistsError{UserID: rec.UserID, ConversationID: rec.ConversationID}
		}
		return storage.StorageError{Op: "create memory", Err: err}
	}

	id, err := res.LastInsertId()
	if err != nil {
		return storage.StorageError{Op: "create memory", Err: err}
	}
	rec.ID = id
	return nil
}

// ListMessages returns live messages ascending by message index.
func (d *Driver) ListMessages(ctx context.Context, memoryID int64) ([]storage.MessageRecord, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT `+messageColumns+` FROM messages WHERE memory_id = ? ORDER BY message_index ASC`,
		memoryID,
	)
	if err != nil {
		return nil, storage.StorageError{Op: "list messages", Err: err}
	}
	defer rows.Close()

	return scanMessages(rows)
}

// RunInTx executes fn inside one transaction.
func (d *Driver) RunInTx(ctx context.Context, fn func(tx storage.Tx) error) error {
	sqlTx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return storage.StorageError{Op: "begin transaction", Err: err}
	}

	if err := fn(&tx{tx: sqlTx}); err != nil {
		_ = sqlTx.Rollback()
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return storage.StorageError{Op: "commit transaction", Err: err}
	}
	return nil
}

// Close closes the database connection.
func (d *Driver) Close() error {
	return d.db.Close()
}

// tx implements storage.Tx over a *sql.Tx.
type tx struct {
	tx *sql.Tx
}

func (t *tx) GetMemoryForUpdate(userID, conversationID string) (*storage.MemoryRecord, error) {
	// SQLite locks the whole database per write transaction; a plain
	// SELECT inside the transaction is equivalent to FOR UPDATE.
	row := t.tx.QueryRow(
		`SELECT `+memoryColumns+` FROM memories WHERE user_id = ? AND conversation_id = ?`,
		userID, conversationID,
	)
	return scanMemory(row, userID, conversationID)
}

func (t *tx) UpdateMemory(rec *storage.MemoryRecord) error {
	rec.UpdatedAt = time.Now().UTC()
	_, err := t.tx.Exec(
		`UPDATE memories SET system_memory = ?, rolling_summary = ?, summary_tokens = ?, total_messages = ?, last_summarized_at = ?, updated_at = ? WHERE id = ?`,
		blobOrEmpty(rec.SystemMemory), rec.RollingSummary, rec.SummaryTokens, rec.TotalMessages,
		formatNullableTime(rec.LastSummarizedAt), formatTime(rec.UpdatedAt), rec.ID,
	)
	if err != nil {
		return storage.StorageError{Op: "update memory", Err: err}
	}
	return nil
}

func (t *tx) DeleteMemory(memoryID int64) error {
	if _, err := t.tx.Exec(`DELETE FROM memories WHERE id = ?`, memoryID); err != nil {
		return storage.StorageError{Op: "delete memory", Err: err}
	}
	return nil
}

func (t *tx) ListMessages(memoryID int64) ([]storage.MessageRecord, error) {
	rows, err := t.tx.Query(
		`SELECT `+messageColumns+` FROM messages WHERE memory_id = ? ORDER BY message_index ASC`,
		memoryID,
	)
	if err != nil {
		return nil, storage.StorageError{Op: "list messages", Err: err}
	}
	defer rows.Close()

	return scanMessages(rows)
}

func (t *tx) MaxMessageIndex(memoryID int64) (int, bool, error) {
	var max sql.NullInt64
	err := t.tx.QueryRow(
		`SELECT MAX(message_index) FROM messages WHERE memory_id = ?`, memoryID,
	).Scan(&max)
	if err != nil {
		return 0, false, storage.StorageError{Op: "max message index", Err: err}
	}
	if !max.Valid {
		return 0, false, nil
	}
	return int(max.Int64), true, nil
}

func (t *tx) InsertMessage(msg *storage.MessageRecord) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	res, err := t.tx.Exec(
		`INSERT INTO messages (memory_id, role, content, token_count, message_index, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		msg.MemoryID, msg.Role, msg.Content, msg.TokenCount, msg.MessageIndex, formatTime(msg.CreatedAt),
	)
	if err != nil {
		return storage.StorageError{Op: "insert message", Err: err}
	}

	id, err := res.LastInsertId()
	if err != nil {
		return storage.StorageError{Op: "insert message", Err: err}
	}
	msg.ID = id
	return nil
}

func (t *tx) UpdateMessageIndex(messageID int64, index int) error {
	_, err := t.tx.Exec(`UPDATE messages SET message_index = ? WHERE id = ?`, index, messageID)
	if err != nil {
		return storage.StorageError{Op: "update message index", Err: err}
	}
	return nil
}

func (t *tx) DeleteMessages(memoryID int64, messageIDs []int64) error {
	if len(messageIDs) == 0 {
		return nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(messageIDs)), ",")
	args := make([]any, 0, len(messageIDs)+1)
	args = append(args, memoryID)
	for _, id := range messageIDs {
		args = append(args, id)
	}

	_, err := t.tx.Exec(
		`DELETE FROM messages WHERE memory_id = ? AND id IN (`+placeholders+`)`, args...,
	)
	if err != nil {
		return storage.StorageError{Op: "delete messages", Err: err}
	}
	return nil
}

func (t *tx) DeleteAllMessages(memoryID int64) error {
	if _, err := t.tx.Exec(`DELETE FROM messages WHERE memory_id = ?`, memoryID); err != nil {
		return storage.StorageError{Op: "delete all messages", Err: err}
	}
	return nil
}

// --- scanning helpers ---

func scanMemory(row *sql.Row, userID, conversationID string) (*storage.MemoryRecord, error) {
	var rec storage.MemoryRecord
	var system string
	var lastSummarized sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(&rec.ID, &rec.UserID, &rec.ConversationID, &system, &rec.RollingSummary,
		&rec.SummaryTokens, &rec.TotalMessages, &lastSummarized, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, storage.NotFoundError{UserID: userID, ConversationID: conversationID}
	}
	if err != nil {
		return nil, storage.StorageError{Op: "scan memory", Err: err}
	}

	rec.SystemMemory = []byte(system)
	if lastSummarized.Valid {
		t, err := parseTime(lastSummarized.String)
		if err != nil {
			return nil, storage.StorageError{Op: "parse last_summarized_at", Err: err}
		}
		rec.LastSummarizedAt = &t
	}
	if rec.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, storage.StorageError{Op: "parse created_at", Err: err}
	}
	if rec.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, storage.StorageError{Op: "parse updated_at", Err: err}
	}
	return &rec, nil
}

func scanMessages(rows *sql.Rows) ([]storage.MessageRecord, error) {
	var out []storage.MessageRecord
	for rows.Next() {
		var m storage.MessageRecord
		var createdAt string
		if err := rows.Scan(&m.ID, &m.MemoryID, &m.Role, &m.Content, &m.TokenCount, &m.MessageIndex, &createdAt); err != nil {
			return nil, storage.StorageError{Op: "scan message", Err: err}
		}
		t, err := parseTime(createdAt)
		if err != nil {
			return nil, storage.StorageError{Op: "parse message created_at", Err: err}
		}
		m.CreatedAt = t
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, storage.StorageError{Op: "iterate messages", Err: err}
	}
	return out, nil
}

func blobOrEmpty(b []byte) string {
	if len(b) == 0 {
		return "{}"
	}
	return string(b)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func formatNullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

var _ storage.Driver = (*Driver)(nil)
