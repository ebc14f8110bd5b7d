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

// Package ingest discovers conversation log files, decides which ones
// changed since the last run, and drives them through parsing into the
// store. It also exports transcripts as markdown.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/kraklabs/loglens/pkg/store"
)

// Fingerprint identifies one observed state of a log file. The hash covers
// the full content, so appends, rewrites, and truncations all change it.
type Fingerprint struct {
	Path         string
	Hash         string
	Size         int64
	LastModified int64
}

// ChangeDetector compares on-disk files against the store's persisted
// fingerprints.
type ChangeDetector struct {
	store *store.Store
}

func NewChangeDetector(s *store.Store) *ChangeDetector {
	return &ChangeDetector{store: s}
}

// ComputeFingerprint hashes the file at path and captures its size and
// mtime. Size and mtime come from the same Stat call so the fingerprint is
// internally consistent even if the file is being appended to.
func ComputeFingerprint(path string) (Fingerprint, error) {
	f, err := os.Open(path)
	if err != nil {
		return Fingerprint{}, fmt.Errorf("open for fingerprint: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return Fingerprint{}, fmt.Errorf("stat for fingerprint: %w", err)
	}

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return Fingerprint{}, fmt.Errorf("hash file: %w", err)
	}

	return Fingerprint{
		Path:         path,
		Hash:         hex.EncodeToString(h.Sum(nil)),
		Size:         info.Size(),
		LastModified: info.ModTime().Unix(),
	}, nil
}

// Check fingerprints the file at path and reports whether it differs from
// the stored state. Files never seen before always count as changed. Either
// a hash or an mtime difference marks the file changed, so a touch without
// edits reprocesses and a rewrite with a backdated mtime still registers.
func (d *ChangeDetector) Check(ctx context.Context, path string) (bool, Fingerprint, error) {
	fp, err := ComputeFingerprint(path)
	if err != nil {
		return false, Fingerprint{}, err
	}

	prev, err := d.store.FileStateByPath(ctx, path)
	if err != nil {
		return false, fp, err
	}
	if prev == nil {
		return true, fp, nil
	}

	changed := prev.Hash != fp.Hash || prev.LastModified != fp.LastModified
	return changed, fp, nil
}
