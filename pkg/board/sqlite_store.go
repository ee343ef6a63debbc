package board

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/go-go-golems/canvas-chat/pkg/conversation"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

const sqliteBoardsSchemaV1 = `
CREATE TABLE IF NOT EXISTS boards (
    id TEXT PRIMARY KEY,
    payload_json TEXT NOT NULL,
    updated_at_ms INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS board_meta (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

const metaCurrentBoard = "current_board"

// SQLiteStore persists one JSON payload per board row.
type SQLiteStore struct {
	mu     sync.RWMutex
	dsn    string
	store  *MemoryStore
	db     *sql.DB
	closed bool
}

var _ Store = (*SQLiteStore)(nil)

func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	if dsn == "" {
		return nil, errors.New("sqlite board store: empty dsn")
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	s := &SQLiteStore{
		dsn:   dsn,
		store: NewMemoryStore(),
		db:    db,
	}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := s.loadFromDB(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func SQLiteDSNForFile(path string) (string, error) {
	if path == "" {
		return "", errors.New("sqlite board store: empty path")
	}
	return fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on", path), nil
}

func (s *SQLiteStore) ListBoards(ctx context.Context) ([]*Board, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.ensureOpen(); err != nil {
		return nil, err
	}
	return s.store.ListBoards(ctx)
}

func (s *SQLiteStore) Snapshot(ctx context.Context, boardID string) (*Board, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.ensureOpen(); err != nil {
		return nil, err
	}
	return s.store.Snapshot(ctx, boardID)
}

func (s *SQLiteStore) CurrentBoard(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.ensureOpen(); err != nil {
		return "", err
	}
	return s.store.CurrentBoard(ctx)
}

func (s *SQLiteStore) UpsertBoard(ctx context.Context, b *Board) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureOpen(); err != nil {
		return err
	}
	if err := s.store.UpsertBoard(ctx, b); err != nil {
		return err
	}
	return s.persistBoardLocked(ctx, b.ID)
}

func (s *SQLiteStore) DeleteBoard(ctx context.Context, boardID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureOpen(); err != nil {
		return err
	}
	if err := s.store.DeleteBoard(ctx, boardID); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM boards WHERE id = ?`, boardID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM board_meta WHERE key = ? AND value = ?`, metaCurrentBoard, boardID)
	return err
}

func (s *SQLiteStore) SetCurrentBoard(ctx context.Context, boardID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureOpen(); err != nil {
		return err
	}
	if err := s.store.SetCurrentBoard(ctx, boardID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO board_meta (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		metaCurrentBoard,
		boardID,
	)
	return err
}

func (s *SQLiteStore) AddNode(ctx context.Context, boardID string, node *conversation.Node, edges ...*conversation.Edge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureOpen(); err != nil {
		return err
	}
	if err := s.store.AddNode(ctx, boardID, node, edges...); err != nil {
		return err
	}
	return s.persistBoardLocked(ctx, boardID)
}

func (s *SQLiteStore) AppendMessages(ctx context.Context, boardID string, nodeID conversation.NodeID, expectedVersion uint64, msgs ...*conversation.Message) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureOpen(); err != nil {
		return 0, err
	}
	version, err := s.store.AppendMessages(ctx, boardID, nodeID, expectedVersion, msgs...)
	if err != nil {
		return version, err
	}
	return version, s.persistBoardLocked(ctx, boardID)
}

func (s *SQLiteStore) SetNodeModel(ctx context.Context, boardID string, nodeID conversation.NodeID, model string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureOpen(); err != nil {
		return err
	}
	if err := s.store.SetNodeModel(ctx, boardID, nodeID, model); err != nil {
		return err
	}
	return s.persistBoardLocked(ctx, boardID)
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	_ = s.store.Close()
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) migrate() error {
	if s.db == nil {
		return errors.New("sqlite board store: db is nil")
	}
	if _, err := s.db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		return err
	}
	_, err := s.db.Exec(sqliteBoardsSchemaV1)
	return err
}

func (s *SQLiteStore) loadFromDB() error {
	rows, err := s.db.Query(`SELECT id, payload_json FROM boards ORDER BY rowid ASC`)
	if err != nil {
		return err
	}
	defer func() {
		_ = rows.Close()
	}()

	doc := &Document{}
	for rows.Next() {
		var id, payload string
		if err := rows.Scan(&id, &payload); err != nil {
			return err
		}
		b := &Board{}
		if err := json.Unmarshal([]byte(payload), b); err != nil {
			return errors.Wrapf(err, "decode board %q", id)
		}
		if b.ID == "" {
			b.ID = id
		}
		if b.ID != id {
			return errors.Errorf("sqlite board store: id mismatch payload=%q row=%q", b.ID, id)
		}
		if err := b.Validate(); err != nil {
			return err
		}
		doc.Boards = append(doc.Boards, b)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	err = s.db.QueryRow(`SELECT value FROM board_meta WHERE key = ?`, metaCurrentBoard).Scan(&doc.CurrentBoard)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	s.store.load(doc)
	return nil
}

func (s *SQLiteStore) persistBoardLocked(ctx context.Context, boardID string) error {
	b, err := s.store.Snapshot(ctx, boardID)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(b)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO boards (id, payload_json, updated_at_ms)
VALUES (?, ?, ?)
ON CONFLICT(id) DO UPDATE SET payload_json = excluded.payload_json, updated_at_ms = excluded.updated_at_ms`,
		b.ID,
		string(payload),
		time.Now().UnixMilli(),
	)
	return err
}

func (s *SQLiteStore) ensureOpen() error {
	if s.closed {
		return ErrStoreClosed
	}
	if s.db == nil {
		return errors.New("sqlite board store db is nil")
	}
	return nil
}
