package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/procheck/sessiond/internal/domain/tabs"
	"github.com/procheck/sessiond/internal/infrastructure/monitoring"
	"github.com/procheck/sessiond/internal/shared/types"
)

// Handlers exposes the workspace over HTTP.
type Handlers struct {
	manager *tabs.Manager
	metrics *monitoring.Metrics
}

// NewHandlers creates the HTTP handler set.
func NewHandlers(manager *tabs.Manager, metrics *monitoring.Metrics) *Handlers {
	return &Handlers{
		manager: manager,
		metrics: metrics,
	}
}

// Root returns service info.
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "procheck-sessiond",
		"status":  "running",
	})
}

// Health returns liveness plus workspace counters.
func (h *Handlers) Health(c *gin.Context) {
	stats := h.manager.Stats()
	body := gin.H{
		"status":    "healthy",
		"tabs":      stats.TotalTabs,
		"chat_tabs": stats.ChatTabs,
		"in_flight": h.manager.InFlight(),
	}
	if h.metrics != nil {
		body["uptime_seconds"] = int(h.metrics.Uptime().Seconds())
	}
	c.JSON(http.StatusOK, body)
}

// ListTabs returns the ordered tab list and the active pointer.
func (h *Handlers) ListTabs(c *gin.Context) {
	stats := h.manager.Stats()
	c.JSON(http.StatusOK, gin.H{
		"tabs":          h.manager.Tabs(),
		"active_tab_id": stats.ActiveTabID,
	})
}

type createTabRequest struct {
	Title string `json:"title"`
	Type  string `json:"type"`
}

// CreateTab allocates and activates a new tab.
func (h *Handlers) CreateTab(c *gin.Context) {
	var req createTabRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tabType := types.TabType(req.Type)
	switch tabType {
	case types.TabChat, types.TabProtocolIndex, types.TabGeneratedProtocols:
	case "":
		tabType = types.TabChat
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown tab type"})
		return
	}

	tabID := h.manager.CreateTab(req.Title, tabType)
	tab, _ := h.manager.GetTab(tabID)
	c.JSON(http.StatusCreated, gin.H{"tab": tab})
}

// GetTab returns one tab snapshot.
func (h *Handlers) GetTab(c *gin.Context) {
	tab, ok := h.manager.GetTab(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "tab not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tab": tab})
}

// ActiveTab returns the currently active tab.
func (h *Handlers) ActiveTab(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tab": h.manager.ActiveTab()})
}

// UpdateTab shallow-merges fields into a tab.
func (h *Handlers) UpdateTab(c *gin.Context) {
	var update types.TabUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !h.manager.UpdateTab(c.Param("id"), update) {
		c.JSON(http.StatusNotFound, gin.H{"error": "tab not found"})
		return
	}
	tab, _ := h.manager.GetTab(c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"tab": tab})
}

// ActivateTab moves focus, cancelling all in-flight requests.
func (h *Handlers) ActivateTab(c *gin.Context) {
	tabID := c.Param("id")
	if _, ok := h.manager.GetTab(tabID); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "tab not found"})
		return
	}
	h.manager.SwitchTab(tabID)
	c.JSON(http.StatusOK, gin.H{"active_tab_id": tabID})
}

// CloseTab removes a tab, saving its content first if it has any.
func (h *Handlers) CloseTab(c *gin.Context) {
	h.manager.CloseTab(c.Param("id"))
	stats := h.manager.Stats()
	c.JSON(http.StatusOK, gin.H{
		"tabs":          h.manager.Tabs(),
		"active_tab_id": stats.ActiveTabID,
	})
}

// CloseAllTabs replaces the tab set with one fresh default.
func (h *Handlers) CloseAllTabs(c *gin.Context) {
	h.manager.CloseAllTabs()
	c.JSON(http.StatusOK, gin.H{"tabs": h.manager.Tabs()})
}

type sendMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

// SendMessage appends a pending user message and dispatches the send.
func (h *Handlers) SendMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	messageID, ok := h.manager.SendMessage(c.Param("id"), req.Content)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "tab not found or not a chat tab"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message_id": messageID})
}

// RetryMessage re-submits a failed message. Unknown or non-failed ids
// report not found.
func (h *Handlers) RetryMessage(c *gin.Context) {
	if !h.manager.RetryMessage(c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "message not awaiting retry"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message_id": c.Param("id")})
}

// ListConversations returns the user's saved history.
func (h *Handlers) ListConversations(c *gin.Context) {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = n
	}

	summaries, err := h.manager.ListConversations(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"conversations": summaries,
		"total":         len(summaries),
	})
}

type openConversationRequest struct {
	Title string `json:"title"`
}

// OpenConversation opens a saved conversation in a new tab.
func (h *Handlers) OpenConversation(c *gin.Context) {
	var req openConversationRequest
	_ = c.ShouldBindJSON(&req)

	tabID := h.manager.OpenConversation(c.Param("id"), req.Title)
	tab, _ := h.manager.GetTab(tabID)
	c.JSON(http.StatusCreated, gin.H{"tab": tab})
}

// DeleteConversation removes a conversation from storage and cache.
func (h *Handlers) DeleteConversation(c *gin.Context) {
	if err := h.manager.DeleteConversation(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": c.Param("id")})
}

type renameConversationRequest struct {
	Title string `json:"title" binding:"required"`
}

// RenameConversation updates a saved conversation's title.
func (h *Handlers) RenameConversation(c *gin.Context) {
	var req renameConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.manager.RenameConversation(c.Request.Context(), c.Param("id"), req.Title); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "title": req.Title})
}
