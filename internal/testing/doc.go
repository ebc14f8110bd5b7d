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

// Package testing provides test helpers for loglens integration tests.
//
// This package wraps store setup and log file fixtures with loglens-specific
// seeding utilities so package tests stay short.
//
// # Quick Start
//
// Use SetupTestStore to create a throwaway SQLite store:
//
//	func TestMyFeature(t *testing.T) {
//	    s := testing.SetupTestStore(t)
//
//	    // Store is ready with the schema applied
//	    testing.SeedMessages(t, s, "/logs/a.jsonl", 5)
//
//	    // Run your tests...
//	}
//
// # Fixtures
//
// The package provides helpers for building log fixtures:
//   - WriteLogFile: Write a JSONL log file from raw lines
//   - ClaudeLine: Build one Claude-schema log line
//   - SeedMessages: Register a file and insert generated messages
package testing
