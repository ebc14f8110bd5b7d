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
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSetupTestStore verifies the test store is created correctly.
func TestSetupTestStore(t *testing.T) {
	s := SetupTestStore(t)
	require.NotNil(t, s)

	// Schema should exist and start empty.
	stats, err := s.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.FileCount)
	assert.Zero(t, stats.MessageCount)
}

// TestClaudeLine verifies fixture lines are valid JSON in the expected shape.
func TestClaudeLine(t *testing.T) {
	line := ClaudeLine("user", "hello \"quoted\"", "2025-03-01T10:00:00Z")

	var record map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &record))

	msg := record["message"].(map[string]any)
	assert.Equal(t, "user", msg["role"])
	assert.Equal(t, `hello "quoted"`, msg["content"])
	assert.Equal(t, "2025-03-01T10:00:00Z", record["timestamp"])
}

// TestWriteLogFile verifies fixture files end with a trailing newline.
func TestWriteLogFile(t *testing.T) {
	path := WriteLogFile(t, t.TempDir(), "session.jsonl",
		ClaudeLine("user", "one", "2025-03-01T10:00:00Z"),
		ClaudeLine("assistant", "two", "2025-03-01T10:00:05Z"),
	)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, len(data) > 0 && data[len(data)-1] == '\n')
}

// TestSeedMessages verifies seeded data lands in the store.
func TestSeedMessages(t *testing.T) {
	s := SetupTestStore(t)
	SeedMessages(t, s, "/logs/seeded.jsonl", 5)

	msgs, total, err := s.MessagesByFile(context.Background(), "seeded.jsonl", 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, msgs, 5)
	assert.Equal(t, "user", msgs[0].Role)
	assert.Equal(t, "assistant", msgs[1].Role)
}
