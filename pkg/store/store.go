// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store persists parsed conversation logs in SQLite.
//
// Two tables carry everything: log_files tracks one row per ingested file
// with its change-detection fingerprint, and conversations holds the
// canonical messages keyed by file. Re-ingesting a file replaces its
// messages as a unit, so the store never shows a half-updated file.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/kraklabs/loglens/pkg/parser"
)

const schema = `
CREATE TABLE IF NOT EXISTS log_files (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	file_path     TEXT NOT NULL UNIQUE,
	file_hash     TEXT NOT NULL,
	file_size     INTEGER NOT NULL,
	last_modified INTEGER NOT NULL,
	tool_type     TEXT NOT NULL,
	parsed_at     TEXT NOT NULL,
	message_count INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS conversations (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	file_id       INTEGER NOT NULL REFERENCES log_files(id) ON DELETE CASCADE,
	message_index INTEGER NOT NULL,
	role          TEXT NOT NULL,
	timestamp     TEXT NOT NULL,
	content       TEXT NOT NULL,
	filename      TEXT NOT NULL,
	tool_type     TEXT NOT NULL,
	UNIQUE(file_id, message_index)
);

CREATE INDEX IF NOT EXISTS idx_conversations_filename ON conversations(filename);
CREATE INDEX IF NOT EXISTS idx_conversations_timestamp ON conversations(timestamp);
CREATE INDEX IF NOT EXISTS idx_log_files_path ON log_files(file_path);
`

// insertBatchSize bounds messages per INSERT transaction.
const insertBatchSize = 100

// Store wraps the SQLite database holding ingested conversations.
type Store struct {
	db   *sql.DB
	path string
}

// FileState is the persisted fingerprint of an ingested file.
type FileState struct {
	ID           int64
	Path         string
	Hash         string
	Size         int64
	LastModified int64
	Tool         parser.Tool
	MessageCount int
}

// Open opens or creates the database at path and applies the schema. Parent
// directories are created as needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// SQLite tolerates one writer. A single pooled connection avoids
	// SQLITE_BUSY churn under the watcher and the web layer.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// RegisterFile upserts the log_files row for state's path and returns the
// row id. An existing row keeps its id so conversations stay attached.
func (s *Store) RegisterFile(ctx context.Context, state FileState) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO log_files (file_path, file_hash, file_size, last_modified, tool_type, parsed_at, message_count)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(file_path) DO UPDATE SET
			file_hash = excluded.file_hash,
			file_size = excluded.file_size,
			last_modified = excluded.last_modified,
			tool_type = excluded.tool_type,
			parsed_at = excluded.parsed_at,
			message_count = excluded.message_count
		RETURNING id`,
		state.Path, state.Hash, state.Size, state.LastModified,
		string(state.Tool), time.Now().UTC().Format(time.RFC3339), state.MessageCount,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("register file %s: %w", state.Path, err)
	}
	return id, nil
}

// FileStateByPath loads the persisted fingerprint for path. A file never
// seen before comes back (nil, nil).
func (s *Store) FileStateByPath(ctx context.Context, path string) (*FileState, error) {
	var st FileState
	var tool string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, file_path, file_hash, file_size, last_modified, tool_type, message_count
		FROM log_files WHERE file_path = ?`, path,
	).Scan(&st.ID, &st.Path, &st.Hash, &st.Size, &st.LastModified, &tool, &st.MessageCount)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load file state: %w", err)
	}
	st.Tool = parser.Tool(tool)
	return &st, nil
}

// ClearMessages deletes every conversation row belonging to fileID.
func (s *Store) ClearMessages(ctx context.Context, fileID int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM conversations WHERE file_id = ?`, fileID); err != nil {
		return fmt.Errorf("clear messages for file %d: %w", fileID, err)
	}
	return nil
}

// InsertMessages stores msgs for fileID in batched transactions. Message
// indexes follow slice order so file order is reconstructible.
func (s *Store) InsertMessages(ctx context.Context, fileID int64, msgs []parser.Message) error {
	for start := 0; start < len(msgs); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(msgs) {
			end = len(msgs)
		}
		if err := s.insertBatch(ctx, fileID, start, msgs[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) insertBatch(ctx context.Context, fileID int64, base int, msgs []parser.Message) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert batch: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO conversations (file_id, message_index, role, timestamp, content, filename, tool_type)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, m := range msgs {
		if _, err := stmt.ExecContext(ctx, fileID, base+i, m.Role, m.Timestamp, m.Content, m.Filename, string(m.Tool)); err != nil {
			return fmt.Errorf("insert message %d: %w", base+i, err)
		}
	}
	return tx.Commit()
}

// ReplaceFileMessages registers the file, clears its old messages, and
// inserts the new set. This is the ingestion unit for one file.
func (s *Store) ReplaceFileMessages(ctx context.Context, state FileState, msgs []parser.Message) (int64, error) {
	state.MessageCount = len(msgs)
	fileID, err := s.RegisterFile(ctx, state)
	if err != nil {
		return 0, err
	}
	if err := s.ClearMessages(ctx, fileID); err != nil {
		return 0, err
	}
	if err := s.InsertMessages(ctx, fileID, msgs); err != nil {
		return 0, err
	}
	return fileID, nil
}

// EscapeLike escapes s for a LIKE pattern using backslash as the escape
// character. Backslash itself goes first so later escapes survive.
func EscapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

// MessagesByFile returns one page of a file's messages in chronological
// order. Pages are 1-indexed; total is the full message count.
func (s *Store) MessagesByFile(ctx context.Context, filename string, page, perPage int) ([]parser.Message, int, error) {
	if page < 1 {
		page = 1
	}
	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM conversations WHERE filename = ?`, filename,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count messages: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT role, timestamp, content, filename, tool_type
		FROM conversations
		WHERE filename = ?
		ORDER BY datetime(timestamp) ASC, message_index ASC
		LIMIT ? OFFSET ?`,
		filename, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	msgs, err := scanMessages(rows)
	return msgs, total, err
}

// Search returns messages whose content contains query, newest first.
// LIKE metacharacters in the query match literally. A non-empty filename
// restricts the search to that file.
func (s *Store) Search(ctx context.Context, query, filename string, limit int) ([]parser.Message, error) {
	pattern := "%" + EscapeLike(query) + "%"
	q := `
		SELECT role, timestamp, content, filename, tool_type
		FROM conversations
		WHERE content LIKE ? ESCAPE '\'`
	args := []any{pattern}
	if filename != "" {
		q += `
		AND filename = ?`
		args = append(args, filename)
	}
	q += `
		ORDER BY datetime(timestamp) DESC
		LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("search messages: %w", err)
	}
	defer rows.Close()
	return scanMessages(rows)
}

// SearchByDateRange returns messages whose date falls inside [start, end],
// both inclusive, newest first. Dates are "YYYY-MM-DD" strings.
func (s *Store) SearchByDateRange(ctx context.Context, start, end string, limit int) ([]parser.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT role, timestamp, content, filename, tool_type
		FROM conversations
		WHERE date(timestamp) >= date(?) AND date(timestamp) <= date(?)
		ORDER BY datetime(timestamp) DESC
		LIMIT ?`, start, end, limit)
	if err != nil {
		return nil, fmt.Errorf("search by date range: %w", err)
	}
	defer rows.Close()
	return scanMessages(rows)
}

// DateRange returns the earliest and latest message dates as "YYYY-MM-DD".
// An empty store returns ok=false.
func (s *Store) DateRange(ctx context.Context) (earliest, latest string, ok bool, err error) {
	var lo, hi sql.NullString
	err = s.db.QueryRowContext(ctx,
		`SELECT MIN(date(timestamp)), MAX(date(timestamp)) FROM conversations`,
	).Scan(&lo, &hi)
	if err != nil {
		return "", "", false, fmt.Errorf("query date range: %w", err)
	}
	if !lo.Valid || !hi.Valid {
		return "", "", false, nil
	}
	return lo.String, hi.String, true, nil
}

// FileSummary describes one ingested file for listings.
type FileSummary struct {
	Filename     string      `json:"filename"`
	Path         string      `json:"path"`
	Tool         parser.Tool `json:"tool_type"`
	MessageCount int         `json:"message_count"`
	ParsedAt     string      `json:"parsed_at"`
}

// FileList returns every ingested file, most recently parsed first.
func (s *Store) FileList(ctx context.Context) ([]FileSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT file_path, tool_type, message_count, parsed_at
		FROM log_files
		ORDER BY parsed_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()

	var files []FileSummary
	for rows.Next() {
		var f FileSummary
		var tool string
		if err := rows.Scan(&f.Path, &tool, &f.MessageCount, &f.ParsedAt); err != nil {
			return nil, fmt.Errorf("scan file row: %w", err)
		}
		f.Tool = parser.Tool(tool)
		f.Filename = baseName(f.Path)
		files = append(files, f)
	}
	return files, rows.Err()
}

// Stats summarizes the store's contents.
type Stats struct {
	FileCount    int           `json:"file_count"`
	MessageCount int           `json:"message_count"`
	DBSizeMB     float64       `json:"db_size_mb"`
	RecentFiles  []FileSummary `json:"recent_files"`
}

// Stats returns counts, the database size on disk, and the ten most
// recently parsed files.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM log_files`).Scan(&st.FileCount); err != nil {
		return st, fmt.Errorf("count files: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM conversations`).Scan(&st.MessageCount); err != nil {
		return st, fmt.Errorf("count messages: %w", err)
	}
	if info, err := os.Stat(s.path); err == nil {
		st.DBSizeMB = float64(info.Size()) / (1024 * 1024)
	}

	files, err := s.FileList(ctx)
	if err != nil {
		return st, err
	}
	if len(files) > 10 {
		files = files[:10]
	}
	st.RecentFiles = files
	return st, nil
}

// ClearAll drops every ingested file and message.
func (s *Store) ClearAll(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM conversations`); err != nil {
		return fmt.Errorf("clear conversations: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM log_files`); err != nil {
		return fmt.Errorf("clear log files: %w", err)
	}
	return nil
}

func scanMessages(rows *sql.Rows) ([]parser.Message, error) {
	var msgs []parser.Message
	for rows.Next() {
		var m parser.Message
		var tool string
		if err := rows.Scan(&m.Role, &m.Timestamp, &m.Content, &m.Filename, &tool); err != nil {
			return nil, fmt.Errorf("scan message row: %w", err)
		}
		m.Tool = parser.Tool(tool)
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

func baseName(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}
