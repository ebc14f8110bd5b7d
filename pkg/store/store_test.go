// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/loglens/pkg/parser"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleMessages(n int, filename string) []parser.Message {
	msgs := make([]parser.Message, n)
	for i := range msgs {
		role := "user"
		if i%2 == 1 {
			role = "assistant"
		}
		msgs[i] = parser.Message{
			Role:      role,
			Timestamp: fmt.Sprintf("2025-03-01 10:%02d:00", i%60),
			Content:   fmt.Sprintf("message body %d", i),
			Filename:  filename,
			Tool:      parser.ToolClaude,
		}
	}
	return msgs
}

func TestRegisterFile_UpsertKeepsID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	state := FileState{Path: "/logs/a.jsonl", Hash: "h1", Size: 100, LastModified: 1000, Tool: parser.ToolClaude}
	id1, err := s.RegisterFile(ctx, state)
	require.NoError(t, err)

	state.Hash = "h2"
	id2, err := s.RegisterFile(ctx, state)
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	st, err := s.FileStateByPath(ctx, "/logs/a.jsonl")
	require.NoError(t, err)
	require.NotNil(t, st)
	assert.Equal(t, "h2", st.Hash)
}

func TestFileStateByPath_UnseenIsNil(t *testing.T) {
	s := newTestStore(t)
	st, err := s.FileStateByPath(context.Background(), "/never/seen.jsonl")
	require.NoError(t, err)
	assert.Nil(t, st)
}

func TestReplaceFileMessages_IsIdempotentUnit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	state := FileState{Path: "/logs/a.jsonl", Hash: "h1", Size: 100, LastModified: 1000, Tool: parser.ToolClaude}
	msgs := sampleMessages(5, "a.jsonl")

	_, err := s.ReplaceFileMessages(ctx, state, msgs)
	require.NoError(t, err)
	_, err = s.ReplaceFileMessages(ctx, state, msgs)
	require.NoError(t, err)

	got, total, err := s.MessagesByFile(ctx, "a.jsonl", 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Len(t, got, 5)
}

func TestInsertMessages_BatchesLargeSets(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	state := FileState{Path: "/logs/big.jsonl", Hash: "h", Size: 1, LastModified: 1, Tool: parser.ToolClaude}
	_, err := s.ReplaceFileMessages(ctx, state, sampleMessages(250, "big.jsonl"))
	require.NoError(t, err)

	_, total, err := s.MessagesByFile(ctx, "big.jsonl", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 250, total)
}

func TestMessagesByFile_Pagination(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	state := FileState{Path: "/logs/p.jsonl", Hash: "h", Size: 1, LastModified: 1, Tool: parser.ToolClaude}
	_, err := s.ReplaceFileMessages(ctx, state, sampleMessages(25, "p.jsonl"))
	require.NoError(t, err)

	page1, total, err := s.MessagesByFile(ctx, "p.jsonl", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 25, total)
	assert.Len(t, page1, 10)

	page3, _, err := s.MessagesByFile(ctx, "p.jsonl", 3, 10)
	require.NoError(t, err)
	assert.Len(t, page3, 5)

	assert.Equal(t, "message body 0", page1[0].Content)
}

func TestSearch_EscapesLikeMetacharacters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	state := FileState{Path: "/logs/s.jsonl", Hash: "h", Size: 1, LastModified: 1, Tool: parser.ToolClaude}
	msgs := []parser.Message{
		{Role: "user", Timestamp: "2025-03-01 10:00:00", Content: "progress at 100% now", Filename: "s.jsonl", Tool: parser.ToolClaude},
		{Role: "user", Timestamp: "2025-03-01 10:01:00", Content: "counted 1000x entries", Filename: "s.jsonl", Tool: parser.ToolClaude},
		{Role: "user", Timestamp: "2025-03-01 10:02:00", Content: "snake_case naming", Filename: "s.jsonl", Tool: parser.ToolClaude},
		{Role: "user", Timestamp: "2025-03-01 10:03:00", Content: "snakeXcase naming", Filename: "s.jsonl", Tool: parser.ToolClaude},
	}
	_, err := s.ReplaceFileMessages(ctx, state, msgs)
	require.NoError(t, err)

	got, err := s.Search(ctx, "100%", "", 50)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Contains(t, got[0].Content, "100% now")

	got, err = s.Search(ctx, "snake_case", "", 50)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Contains(t, got[0].Content, "snake_case")
}

func TestSearch_NewestFirstAndLimited(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	state := FileState{Path: "/logs/n.jsonl", Hash: "h", Size: 1, LastModified: 1, Tool: parser.ToolClaude}
	_, err := s.ReplaceFileMessages(ctx, state, sampleMessages(20, "n.jsonl"))
	require.NoError(t, err)

	got, err := s.Search(ctx, "message body", "", 5)
	require.NoError(t, err)
	require.Len(t, got, 5)
	assert.Equal(t, "message body 19", got[0].Content)
}

func TestSearch_FileFilter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	stateA := FileState{Path: "/logs/a.jsonl", Hash: "ha", Size: 1, LastModified: 1, Tool: parser.ToolClaude}
	_, err := s.ReplaceFileMessages(ctx, stateA, []parser.Message{
		{Role: "user", Timestamp: "2025-03-01 10:00:00", Content: "needle in a", Filename: "a.jsonl", Tool: parser.ToolClaude},
	})
	require.NoError(t, err)

	stateB := FileState{Path: "/logs/b.jsonl", Hash: "hb", Size: 1, LastModified: 1, Tool: parser.ToolClaude}
	_, err = s.ReplaceFileMessages(ctx, stateB, []parser.Message{
		{Role: "user", Timestamp: "2025-03-01 10:01:00", Content: "needle in b", Filename: "b.jsonl", Tool: parser.ToolClaude},
	})
	require.NoError(t, err)

	got, err := s.Search(ctx, "needle", "", 50)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = s.Search(ctx, "needle", "b.jsonl", 50)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "needle in b", got[0].Content)
}

func TestSearchByDateRange_Inclusive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	state := FileState{Path: "/logs/d.jsonl", Hash: "h", Size: 1, LastModified: 1, Tool: parser.ToolClaude}
	msgs := []parser.Message{
		{Role: "user", Timestamp: "2025-03-01 09:00:00", Content: "day one", Filename: "d.jsonl", Tool: parser.ToolClaude},
		{Role: "user", Timestamp: "2025-03-02 09:00:00", Content: "day two", Filename: "d.jsonl", Tool: parser.ToolClaude},
		{Role: "user", Timestamp: "2025-03-03 23:59:59", Content: "day three late", Filename: "d.jsonl", Tool: parser.ToolClaude},
		{Role: "user", Timestamp: "2025-03-04 00:00:01", Content: "day four", Filename: "d.jsonl", Tool: parser.ToolClaude},
	}
	_, err := s.ReplaceFileMessages(ctx, state, msgs)
	require.NoError(t, err)

	got, err := s.SearchByDateRange(ctx, "2025-03-02", "2025-03-03", 50)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "day three late", got[0].Content)
	assert.Equal(t, "day two", got[1].Content)
}

func TestDateRange(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, _, ok, err := s.DateRange(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "empty store has no range")

	state := FileState{Path: "/logs/r.jsonl", Hash: "h", Size: 1, LastModified: 1, Tool: parser.ToolClaude}
	msgs := []parser.Message{
		{Role: "user", Timestamp: "2025-02-10 09:00:00", Content: "a", Filename: "r.jsonl", Tool: parser.ToolClaude},
		{Role: "user", Timestamp: "2025-03-05 09:00:00", Content: "b", Filename: "r.jsonl", Tool: parser.ToolClaude},
	}
	_, err = s.ReplaceFileMessages(ctx, state, msgs)
	require.NoError(t, err)

	lo, hi, ok, err := s.DateRange(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "2025-02-10", lo)
	assert.Equal(t, "2025-03-05", hi)
}

func TestStatsAndClearAll(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	state := FileState{Path: "/logs/x.jsonl", Hash: "h", Size: 1, LastModified: 1, Tool: parser.ToolClaude}
	_, err := s.ReplaceFileMessages(ctx, state, sampleMessages(3, "x.jsonl"))
	require.NoError(t, err)

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, st.FileCount)
	assert.Equal(t, 3, st.MessageCount)
	require.Len(t, st.RecentFiles, 1)
	assert.Equal(t, "x.jsonl", st.RecentFiles[0].Filename)

	require.NoError(t, s.ClearAll(ctx))
	st, err = s.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, st.FileCount)
	assert.Zero(t, st.MessageCount)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `\\\%\_`, EscapeLike(`\%_`))
	assert.Equal(t, `plain`, EscapeLike(`plain`))
}
