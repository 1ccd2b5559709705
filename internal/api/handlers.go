package api

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dutchbrat/hedgefund-agent/internal/publish"
)

// handleHealth reports service and database liveness
func (s *Server) handleHealth(c *gin.Context) {
	status := "ok"
	dbStatus := "ok"
	code := http.StatusOK

	if s.db != nil {
		if err := s.db.Health(c.Request.Context()); err != nil {
			status = "degraded"
			dbStatus = err.Error()
			code = http.StatusServiceUnavailable
		}
	}

	c.JSON(code, gin.H{
		"status":    status,
		"database":  dbStatus,
		"timestamp": time.Now().UTC(),
	})
}

// handleNewsData serves the cached snapshot. Headlines rotate by one
// position per request so downstream widgets cycle through the list.
func (s *Server) handleNewsData(c *gin.Context) {
	if s.cache == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "cache not configured"})
		return
	}

	snapshot, err := s.cache.Read()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read snapshot"})
		return
	}

	headlines := snapshot.Headlines
	if n := len(headlines); n > 1 {
		offset := int(atomic.AddUint64(&s.rotation, 1)) % n
		rotated := make([]publish.CachedHeadline, 0, n)
		rotated = append(rotated, headlines[offset:]...)
		rotated = append(rotated, headlines[:offset]...)
		headlines = rotated
	}

	c.JSON(http.StatusOK, gin.H{
		"updated_at": snapshot.UpdatedAt,
		"headlines":  headlines,
		"briefing":   snapshot.Briefing,
	})
}
