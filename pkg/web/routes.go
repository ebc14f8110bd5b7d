// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package web

import (
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kraklabs/loglens/pkg/ingest"
)

// respond wraps every successful payload in the {"success": true} envelope
// the viewer expects.
func respond(c *gin.Context, payload gin.H) {
	payload["success"] = true
	c.JSON(http.StatusOK, payload)
}

func respondError(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"success": false, "error": msg})
}

func intQuery(c *gin.Context, key string, def int) int {
	raw := c.Query(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

// GET /api/files
func (s *Server) handleFiles(c *gin.Context) {
	files, err := s.store.FileList(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	respond(c, gin.H{"files": files, "count": len(files)})
}

// GET /api/messages/:filename?page=&per_page=
func (s *Server) handleMessages(c *gin.Context) {
	filename := c.Param("filename")
	if err := validateFilename(filename); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	page := intQuery(c, "page", 1)
	if page < 1 {
		page = 1
	}
	perPage := clampLimit(intQuery(c, "per_page", defaultPerPage))

	msgs, total, err := s.store.MessagesByFile(c.Request.Context(), filename, page, perPage)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	if total == 0 {
		respondError(c, http.StatusNotFound, "no messages for file "+filename)
		return
	}

	totalPages := (total + perPage - 1) / perPage
	respond(c, gin.H{
		"messages": msgs,
		"pagination": gin.H{
			"page":        page,
			"per_page":    perPage,
			"total":       total,
			"total_pages": totalPages,
		},
	})
}

// GET /api/search?q=&file=&limit=
func (s *Server) handleSearch(c *gin.Context) {
	query := c.Query("q")
	if err := validateQuery(query); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	file := c.Query("file")
	if file != "" {
		if err := validateFilename(file); err != nil {
			respondError(c, http.StatusBadRequest, err.Error())
			return
		}
	}
	limit := clampLimit(intQuery(c, "limit", defaultLimit))

	msgs, err := s.store.Search(c.Request.Context(), query, file, limit)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	respond(c, gin.H{"results": msgs, "count": len(msgs), "query": query})
}

// GET /api/search/date-range?start=&end=&limit=
func (s *Server) handleSearchDateRange(c *gin.Context) {
	start, end := c.Query("start"), c.Query("end")
	if err := validateDate(start); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := validateDate(end); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	if start > end {
		respondError(c, http.StatusBadRequest, "start date is after end date")
		return
	}
	limit := clampLimit(intQuery(c, "limit", defaultLimit))

	msgs, err := s.store.SearchByDateRange(c.Request.Context(), start, end, limit)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	respond(c, gin.H{"results": msgs, "count": len(msgs), "start": start, "end": end})
}

// GET /api/date-range
func (s *Server) handleDateRange(c *gin.Context) {
	earliest, latest, ok, err := s.store.DateRange(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	if !ok {
		respond(c, gin.H{"earliest": nil, "latest": nil})
		return
	}
	respond(c, gin.H{"earliest": earliest, "latest": latest})
}

// GET /api/stats
func (s *Server) handleStats(c *gin.Context) {
	stats, err := s.store.Stats(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	respond(c, gin.H{"stats": stats, "ws_clients": s.hub.ClientCount()})
}

// POST /api/cache/clear
func (s *Server) handleCacheClear(c *gin.Context) {
	if err := s.store.ClearAll(c.Request.Context()); err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	s.logger.Info("web.cache.cleared")
	respond(c, gin.H{"cleared": true})
}

// realtimeFile describes one on-disk log candidate for the live endpoints.
type realtimeFile struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	Size     int64  `json:"size"`
	Modified string `json:"modified"`
}

// discoverRealtime lists the on-disk *.jsonl files under the configured log
// directory, newest first.
func (s *Server) discoverRealtime() ([]realtimeFile, error) {
	paths, err := ingest.Discover(s.logDir, ingest.DiscoverOptions{})
	if err != nil {
		return nil, err
	}
	files := make([]realtimeFile, 0, len(paths))
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			continue
		}
		files = append(files, realtimeFile{
			Name:     filepath.Base(p),
			Path:     p,
			Size:     info.Size(),
			Modified: info.ModTime().Format(time.RFC3339),
		})
	}
	return files, nil
}

// GET /api/realtime/files
func (s *Server) handleRealtimeFiles(c *gin.Context) {
	if s.logDir == "" {
		respondError(c, http.StatusServiceUnavailable, "realtime discovery is not configured")
		return
	}
	files, err := s.discoverRealtime()
	if err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	respond(c, gin.H{"files": files, "total": len(files), "mode": "realtime"})
}

// GET /api/realtime/messages/:filename?limit=
func (s *Server) handleRealtimeMessages(c *gin.Context) {
	filename := c.Param("filename")
	if err := validateFilename(filename); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	if s.logDir == "" {
		respondError(c, http.StatusServiceUnavailable, "realtime discovery is not configured")
		return
	}
	limit := clampLimit(intQuery(c, "limit", defaultRealtimeLimit))

	files, err := s.discoverRealtime()
	if err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	for _, f := range files {
		if f.Name != filename {
			continue
		}
		msgs, err := s.readerFor(f.Path).ReadLatest(limit)
		if err != nil {
			respondError(c, http.StatusInternalServerError, err.Error())
			return
		}
		respond(c, gin.H{"messages": msgs, "file_info": f, "total": len(msgs), "mode": "realtime"})
		return
	}
	respondError(c, http.StatusNotFound, "file not found: "+filename)
}

// GET /api/realtime/latest?limit=
//
// Picks the most recently modified log file and returns its latest messages
// without touching the database.
func (s *Server) handleRealtimeLatest(c *gin.Context) {
	if s.logDir == "" {
		respondError(c, http.StatusServiceUnavailable, "realtime discovery is not configured")
		return
	}
	limit := clampLimit(intQuery(c, "limit", defaultLatestLimit))

	files, err := s.discoverRealtime()
	if err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	if len(files) == 0 {
		respondError(c, http.StatusNotFound, "no log files found")
		return
	}

	latest := files[0]
	msgs, err := s.readerFor(latest.Path).ReadLatest(limit)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	respond(c, gin.H{"messages": msgs, "file_info": latest, "total": len(msgs), "mode": "realtime"})
}
