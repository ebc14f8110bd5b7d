// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package ingest

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// DiscoverOptions narrows which log files a walk yields.
type DiscoverOptions struct {
	// After and Before bound the file mtime, both inclusive when set.
	After  time.Time
	Before time.Time

	// MaxFiles caps the result after sorting, 0 means unlimited.
	MaxFiles int
}

// Discover walks root recursively and returns every *.jsonl file matching
// opts, newest mtime first. Unreadable subtrees are skipped, a missing root
// is an error.
func Discover(root string, opts DiscoverOptions) ([]string, error) {
	if _, err := os.Stat(root); err != nil {
		return nil, fmt.Errorf("log directory: %w", err)
	}

	type entry struct {
		path  string
		mtime time.Time
	}
	var found []entry

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ".jsonl") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		mtime := info.ModTime()
		if !opts.After.IsZero() && mtime.Before(opts.After) {
			return nil
		}
		if !opts.Before.IsZero() && mtime.After(opts.Before) {
			return nil
		}
		found = append(found, entry{path: path, mtime: mtime})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk log directory: %w", err)
	}

	sort.Slice(found, func(i, j int) bool { return found[i].mtime.After(found[j].mtime) })
	if opts.MaxFiles > 0 && len(found) > opts.MaxFiles {
		found = found[:opts.MaxFiles]
	}

	paths := make([]string, len(found))
	for i, e := range found {
		paths[i] = e.path
	}
	return paths, nil
}
