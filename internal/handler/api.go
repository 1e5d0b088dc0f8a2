package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/jeypi-mxnslvs/lost-and-found/internal/catalog"
	"github.com/jeypi-mxnslvs/lost-and-found/internal/llm"
	"github.com/jeypi-mxnslvs/lost-and-found/internal/models"
	"github.com/jeypi-mxnslvs/lost-and-found/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// RunStore exposes the match audit log
type RunStore interface {
	ListRuns(foundItemID string, limit int) ([]*models.MatchRun, error)
	GetStats() (map[string]interface{}, error)
}

// Handler handles HTTP requests
type Handler struct {
	catalog  *catalog.Catalog
	matcher  *service.Matcher
	sessions *service.SessionManager
	notifier *service.Notifier
	runs     RunStore
	logger   *zap.Logger
}

// NewHandler creates a new API handler. runs may be nil when the audit log
// is disabled.
func NewHandler(
	cat *catalog.Catalog,
	matcher *service.Matcher,
	sessions *service.SessionManager,
	notifier *service.Notifier,
	runs RunStore,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		catalog:  cat,
		matcher:  matcher,
		sessions: sessions,
		notifier: notifier,
		runs:     runs,
		logger:   logger,
	}
}

// RegisterRoutes registers all API routes
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		// Report intake
		api.POST("/lost-items", h.CreateLostItem)
		api.GET("/lost-items", h.ListLostItems)
		api.GET("/lost-items/:id", h.GetLostItem)
		api.POST("/found-items", h.CreateFoundItem)
		api.GET("/found-items", h.ListFoundItems)
		api.GET("/found-items/:id", h.GetFoundItem)

		// One-shot matching
		api.POST("/matches/:foundId", h.MatchFoundItem)

		// Matching sessions
		api.POST("/sessions", h.CreateSession)
		api.GET("/sessions/:id", h.GetSession)
		api.POST("/sessions/:id/select", h.SelectFoundItem)
		api.POST("/sessions/:id/dismiss/:lostId", h.DismissMatch)
		api.POST("/sessions/:id/notify/:lostId", h.NotifyOwner)

		// Audit log
		api.GET("/runs", h.ListRuns)
		api.GET("/runs/stats", h.GetStats)
	}

	r.GET("/health", h.HealthCheck)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// CreateLostItem files a lost-item report
func (h *Handler) CreateLostItem(c *gin.Context) {
	var req models.CreateLostItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, h.catalog.AddLost(req))
}

// ListLostItems returns all lost-item reports
func (h *Handler) ListLostItems(c *gin.Context) {
	items := h.catalog.LostItems()
	c.JSON(http.StatusOK, gin.H{
		"items": items,
		"total": len(items),
	})
}

// GetLostItem returns one lost-item report
func (h *Handler) GetLostItem(c *gin.Context) {
	item, err := h.catalog.Lost(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// CreateFoundItem files a found-item report
func (h *Handler) CreateFoundItem(c *gin.Context) {
	var req models.CreateFoundItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, h.catalog.AddFound(req))
}

// ListFoundItems returns all found-item reports
func (h *Handler) ListFoundItems(c *gin.Context) {
	items := h.catalog.FoundItems()
	c.JSON(http.StatusOK, gin.H{
		"items": items,
		"total": len(items),
	})
}

// GetFoundItem returns one found-item report
func (h *Handler) GetFoundItem(c *gin.Context) {
	item, err := h.catalog.Found(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// MatchFoundItem ranks every lost item against one found item, outside of
// any session
func (h *Handler) MatchFoundItem(c *gin.Context) {
	found, err := h.catalog.Found(c.Param("foundId"))
	if err != nil {
		h.fail(c, err)
		return
	}

	matches, err := h.matcher.Match(c.Request.Context(), found, h.catalog.LostItems())
	if err != nil {
		h.logger.Error("Failed to match found item",
			zap.String("found_item_id", found.ID),
			zap.Error(err))
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"found_item_id": found.ID,
		"matches":       matches,
		"total":         len(matches),
	})
}

// CreateSession starts a matching session
func (h *Handler) CreateSession(c *gin.Context) {
	session := h.sessions.Create()
	c.JSON(http.StatusCreated, session.Snapshot())
}

// GetSession returns the session snapshot; clients poll it while loading
func (h *Handler) GetSession(c *gin.Context) {
	session, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, session.Snapshot())
}

// SelectFoundItem makes a found item the session's current selection.
// Without wait the match runs in the background and 202 is returned.
func (h *Handler) SelectFoundItem(c *gin.Context) {
	session, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}

	var req models.SelectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	found, err := h.catalog.Found(req.FoundItemID)
	if err != nil {
		h.fail(c, err)
		return
	}

	lost := h.catalog.LostItems()

	if !req.Wait {
		session.SelectAsync(found, lost)
		c.JSON(http.StatusAccepted, session.Snapshot())
		return
	}

	if err := session.Select(c.Request.Context(), found, lost); err != nil {
		h.logger.Warn("Selection failed",
			zap.String("session_id", session.ID()),
			zap.String("found_item_id", found.ID),
			zap.Error(err))

		state := session.Snapshot()
		message := state.Error
		if message == "" {
			message = err.Error()
		}
		c.JSON(statusFor(err), gin.H{
			"error":   message,
			"session": state,
		})
		return
	}

	c.JSON(http.StatusOK, session.Snapshot())
}

// DismissMatch hides a lost item from the session's visible matches
func (h *Handler) DismissMatch(c *gin.Context) {
	session, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}

	lost, err := h.catalog.Lost(c.Param("lostId"))
	if err != nil {
		h.fail(c, err)
		return
	}

	session.Dismiss(lost.ID)
	c.JSON(http.StatusOK, session.Snapshot())
}

// NotifyOwner acknowledges a "notify owner" action. Nothing is sent.
func (h *Handler) NotifyOwner(c *gin.Context) {
	session, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}

	lost, err := h.catalog.Lost(c.Param("lostId"))
	if err != nil {
		h.fail(c, err)
		return
	}

	notification, err := h.notifier.Notify(session.ID(), session.FoundItemID(), lost)
	if err != nil {
		h.logger.Error("Failed to record notification", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record notification"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      notification.Message,
		"notification": notification,
	})
}

// ListRuns returns recent match runs
func (h *Handler) ListRuns(c *gin.Context) {
	if h.runs == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "audit log is disabled"})
		return
	}

	limit := 100
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = n
	}

	runs, err := h.runs.ListRuns(c.Query("found_item_id"), limit)
	if err != nil {
		h.logger.Error("Failed to list runs", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get runs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"runs":  runs,
		"total": len(runs),
	})
}

// GetStats returns match run statistics
func (h *Handler) GetStats(c *gin.Context) {
	if h.runs == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "audit log is disabled"})
		return
	}

	stats, err := h.runs.GetStats()
	if err != nil {
		h.logger.Error("Failed to get stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get stats"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// HealthCheck returns service health
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":            "healthy",
		"service":           "lost-and-found-matcher",
		"version":           "1.0.0",
		"oracle_configured": h.matcher.Configured(),
		"oracle":            h.matcher.ModelInfo(),
		"active_sessions":   h.sessions.Len(),
	})
}

func (h *Handler) fail(c *gin.Context, err error) {
	status := statusFor(err)
	message := err.Error()
	if status == http.StatusBadGateway {
		message = "No matches found due to an error."
	}
	c.JSON(status, gin.H{"error": message})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, catalog.ErrNotFound), errors.Is(err, service.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, llm.ErrOracleUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, llm.ErrOracleCallFailure):
		return http.StatusBadGateway
	case errors.Is(err, service.ErrSuperseded):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
