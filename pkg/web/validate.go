// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package web

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	// maxLimit caps any result set a client can request.
	maxLimit = 5000

	// maxQueryLen caps search query length.
	maxQueryLen = 1000

	defaultLimit   = 100
	defaultPerPage = 50

	// Live-read defaults mirror the viewer client expectations.
	defaultRealtimeLimit = 50
	defaultLatestLimit   = 30
)

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// clampLimit normalizes a requested limit into [1, maxLimit].
func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}

// validateQuery checks a search query for emptiness and length.
func validateQuery(q string) error {
	q = strings.TrimSpace(q)
	if q == "" {
		return fmt.Errorf("query must not be empty")
	}
	if len(q) > maxQueryLen {
		return fmt.Errorf("query exceeds %d characters", maxQueryLen)
	}
	return nil
}

// validateDate checks YYYY-MM-DD shape.
func validateDate(d string) error {
	if !datePattern.MatchString(d) {
		return fmt.Errorf("date %q must be YYYY-MM-DD", d)
	}
	return nil
}

// validateFilename rejects anything that could escape the log namespace.
// Filenames are bare base names, never paths.
func validateFilename(name string) error {
	if name == "" {
		return fmt.Errorf("filename must not be empty")
	}
	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return fmt.Errorf("filename %q must not contain path elements", name)
	}
	return nil
}
