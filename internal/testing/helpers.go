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

package testing

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kraklabs/loglens/pkg/parser"
	"github.com/kraklabs/loglens/pkg/store"
)

// SetupTestStore creates a SQLite store in a temporary directory.
// The store is automatically closed when the test finishes.
//
// Example:
//
//	func TestMyFeature(t *testing.T) {
//	    s := testing.SetupTestStore(t)
//
//	    // Store is ready with the schema applied
//	    testing.SeedMessages(t, s, "/logs/a.jsonl", 5)
//
//	    // Run your tests...
//	}
func SetupTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.Open(filepath.Join(t.TempDir(), "loglens-test.db"))
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}

	t.Cleanup(func() {
		s.Close()
	})

	return s
}

// ClaudeLine builds one Claude-schema JSONL line with the given role,
// content, and RFC 3339 timestamp.
//
// Example:
//
//	line := testing.ClaudeLine("user", "hello", "2025-03-01T10:00:00Z")
func ClaudeLine(role, content, timestamp string) string {
	return fmt.Sprintf(`{"message":{"role":%q,"content":%q},"timestamp":%q}`, role, content, timestamp)
}

// WriteLogFile writes lines to name under dir as a JSONL file and returns
// the full path.
//
// Example:
//
//	path := testing.WriteLogFile(t, t.TempDir(), "session.jsonl",
//	    testing.ClaudeLine("user", "hello", "2025-03-01T10:00:00Z"),
//	)
func WriteLogFile(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	data := strings.Join(lines, "\n")
	if len(lines) > 0 {
		data += "\n"
	}
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("failed to write log fixture: %v", err)
	}
	return path
}

// SeedMessages registers path in the store and inserts n generated messages
// alternating user and assistant roles. Returns the file id.
//
// Example:
//
//	s := testing.SetupTestStore(t)
//	testing.SeedMessages(t, s, "/logs/a.jsonl", 5)
func SeedMessages(t *testing.T, s *store.Store, path string, n int) int64 {
	t.Helper()

	msgs := make([]parser.Message, n)
	filename := filepath.Base(path)
	for i := range msgs {
		role := parser.RoleUser
		if i%2 == 1 {
			role = parser.RoleAssistant
		}
		msgs[i] = parser.Message{
			Role:      role,
			Timestamp: fmt.Sprintf("2025-03-01 10:%02d:00", i%60),
			Content:   fmt.Sprintf("seeded message %d", i),
			Filename:  filename,
			Tool:      parser.ToolClaude,
		}
	}

	fileID, err := s.ReplaceFileMessages(context.Background(), store.FileState{
		Path:         path,
		Hash:         fmt.Sprintf("hash-%s", filename),
		Size:         int64(n * 64),
		LastModified: 1,
		Tool:         parser.ToolClaude,
	}, msgs)
	if err != nil {
		t.Fatalf("failed to seed messages: %v", err)
	}
	return fileID
}
