package ginserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	gin "github.com/gin-gonic/gin"

	"rently/internal/app/dto"
	chatsvc "rently/internal/app/services/chat"
	domainchat "rently/internal/domain/chat"
	domainlistings "rently/internal/domain/listings"
	domainuser "rently/internal/domain/user"
)

// ChatHTTP exposes messaging endpoints.
type ChatHTTP interface {
	SendMessage(c *gin.Context)
	ListConversations(c *gin.Context)
	GetConversation(c *gin.Context)
	MarkRead(c *gin.Context)
	UnreadCount(c *gin.Context)
	DeleteMessage(c *gin.Context)
}

type ChatHandler struct {
	Service *chatsvc.Service
	Logger  *slog.Logger
}

type sendMessageRequest struct {
	ReceiverID string `json:"receiver_id"`
	ListingID  string `json:"listing_id"`
	Body       string `json:"body"`
}

// SendMessage appends a message from the caller to the addressed user.
func (h ChatHandler) SendMessage(c *gin.Context) {
	principal, ok := requireAuth(c)
	if !ok {
		return
	}
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	message, err := h.Service.Send(c.Request.Context(), chatsvc.SendParams{
		Sender:    domainuser.ID(principal.ID),
		Receiver:  domainuser.ID(strings.TrimSpace(req.ReceiverID)),
		ListingID: domainlistings.ListingID(strings.TrimSpace(req.ListingID)),
		Body:      req.Body,
	})
	if err != nil {
		h.respondChatError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.MapChatMessage(message))
}

// ListConversations returns one summary per peer, most recent activity first.
func (h ChatHandler) ListConversations(c *gin.Context) {
	principal, ok := requireAuth(c)
	if !ok {
		return
	}
	summaries, err := h.Service.ListConversations(c.Request.Context(), domainuser.ID(principal.ID))
	if err != nil {
		h.logError("list conversations failed", err, "user_id", principal.ID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot list conversations"})
		return
	}
	c.JSON(http.StatusOK, dto.MapConversations(summaries))
}

// GetConversation returns the full transcript with one peer, oldest first.
func (h ChatHandler) GetConversation(c *gin.Context) {
	principal, ok := requireAuth(c)
	if !ok {
		return
	}
	peer := strings.TrimSpace(c.Param("user_id"))
	if peer == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user id is required"})
		return
	}
	listing := domainlistings.ListingID(strings.TrimSpace(c.Query("listing_id")))
	messages, err := h.Service.Conversation(c.Request.Context(), domainuser.ID(principal.ID), domainuser.ID(peer), listing)
	if err != nil {
		h.logError("load conversation failed", err, "user_id", principal.ID, "peer_id", peer)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot load conversation"})
		return
	}
	c.JSON(http.StatusOK, dto.MapChatMessages(messages))
}

// MarkRead flips every unread message from the peer and reports how many.
func (h ChatHandler) MarkRead(c *gin.Context) {
	principal, ok := requireAuth(c)
	if !ok {
		return
	}
	peer := strings.TrimSpace(c.Param("user_id"))
	if peer == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user id is required"})
		return
	}
	count, err := h.Service.MarkRead(c.Request.Context(), domainuser.ID(principal.ID), domainuser.ID(peer))
	if err != nil {
		h.logError("mark read failed", err, "user_id", principal.ID, "peer_id", peer)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot mark conversation read"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": count})
}

// UnreadCount returns the caller's total unread messages across all peers.
func (h ChatHandler) UnreadCount(c *gin.Context) {
	principal, ok := requireAuth(c)
	if !ok {
		return
	}
	count, err := h.Service.UnreadTotal(c.Request.Context(), domainuser.ID(principal.ID))
	if err != nil {
		h.logError("unread count failed", err, "user_id", principal.ID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot count unread messages"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread_count": count})
}

// DeleteMessage removes a message the caller sent. A missing message and a
// foreign message are deliberately indistinguishable in the response.
func (h ChatHandler) DeleteMessage(c *gin.Context) {
	principal, ok := requireAuth(c)
	if !ok {
		return
	}
	id, err := strconv.ParseInt(strings.TrimSpace(c.Param("id")), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message id is required"})
		return
	}
	deleted, err := h.Service.DeleteMessage(c.Request.Context(), domainchat.MessageID(id), domainuser.ID(principal.ID))
	if err != nil {
		h.logError("delete message failed", err, "message_id", id, "user_id", principal.ID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot delete message"})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "message not found or not permitted"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h ChatHandler) respondChatError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domainchat.ErrReceiverRequired),
		errors.Is(err, domainchat.ErrBodyRequired),
		errors.Is(err, domainchat.ErrSelfMessage):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logError("chat operation failed", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func (h ChatHandler) logError(msg string, err error, attrs ...any) {
	if h.Logger != nil {
		h.Logger.Error(msg, append([]any{"error", err}, attrs...)...)
	}
}

var _ ChatHTTP = (*ChatHandler)(nil)
