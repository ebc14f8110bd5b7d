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

// Package tail follows growing conversation logs. Reader keeps a byte
// cursor per file and yields only messages appended since the last read;
// Notifier turns filesystem events into debounced change callbacks.
package tail

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/kraklabs/loglens/pkg/parser"
)

// latestWindow is how far back ReadLatest looks from the end of the file.
const latestWindow = 1 << 20

// Reader incrementally reads one log file. Safe for concurrent use.
type Reader struct {
	mu       sync.Mutex
	path     string
	parser   parser.Parser
	offset   int64
	lastSize int64
}

// NewReader follows the file at path with p. The cursor starts at zero, so
// the first ReadNew returns the whole current content.
func NewReader(path string, p parser.Parser) *Reader {
	return &Reader{path: path, parser: p}
}

// Offset returns the current byte cursor.
func (r *Reader) Offset() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.offset
}

// ReadNew returns messages appended since the previous call. A missing or
// empty file yields (nil, nil). A file smaller than last time is treated as
// truncated and re-read from the start. The cursor only advances past
// complete lines, so a partially written trailing line is picked up whole
// on the next call.
func (r *Reader) ReadNew() ([]parser.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := os.Open(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open tailed file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat tailed file: %w", err)
	}
	size := info.Size()
	if size < r.lastSize {
		// Truncated or rewritten, start over.
		r.offset = 0
	}
	r.lastSize = size

	if size <= r.offset {
		return nil, nil
	}

	if _, err := f.Seek(r.offset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek tailed file: %w", err)
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read tailed file: %w", err)
	}

	// Only consume up to the last newline. Anything after it is a line
	// still being written.
	complete := bytes.LastIndexByte(data, '\n')
	if complete < 0 {
		return nil, nil
	}
	r.offset += int64(complete + 1)

	msgs := r.parseLines(data[:complete+1])
	recordRead()
	recordMessagesRead(len(msgs))
	return msgs, nil
}

// ReadLatest returns up to n of the newest complete messages without
// moving the cursor. It inspects only the final window of the file, so
// very large logs stay cheap to peek at.
func (r *Reader) ReadLatest(n int) ([]parser.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := os.Open(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open tailed file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat tailed file: %w", err)
	}

	start := info.Size() - latestWindow
	windowed := start > 0
	if !windowed {
		start = 0
	}
	if _, err := f.Seek(start, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek tailed file: %w", err)
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read tailed file: %w", err)
	}

	if windowed {
		// The window almost certainly starts mid-line, drop the fragment.
		if i := bytes.IndexByte(data, '\n'); i >= 0 {
			data = data[i+1:]
		} else {
			return nil, nil
		}
	}

	// A line still being appended is excluded until it completes.
	if i := bytes.LastIndexByte(data, '\n'); i >= 0 {
		data = data[:i+1]
	} else {
		return nil, nil
	}

	msgs := r.parseLines(data)
	if len(msgs) > n {
		msgs = msgs[len(msgs)-n:]
	}
	return msgs, nil
}

func (r *Reader) parseLines(data []byte) []parser.Message {
	filename := filepath.Base(r.path)
	var msgs []parser.Message
	for _, raw := range bytes.Split(data, []byte{'\n'}) {
		line := strings.TrimSpace(string(raw))
		if line == "" {
			continue
		}
		if msg, ok := r.parser.ParseLine(line); ok {
			msg.Filename = filename
			msgs = append(msgs, msg)
		}
	}
	return msgs
}
