package handler

import (
	"chaikada/backend/internal/chat"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// CreateBench creates a persistent named room owned by the caller.
func (h *Handler) CreateBench(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body"})
		return
	}

	room, err := h.Rooms.CreateBench(currentUser(c), req.Name)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "room": room})
}

// ListRooms returns the caller's active rooms.
func (h *Handler) ListRooms(c *gin.Context) {
	rooms, err := h.Rooms.UserRooms(currentUser(c))
	if err != nil {
		respondErr(c, err)
		return
	}

	now := time.Now()
	summaries := make([]*chat.Summary, 0, len(rooms))
	for i := range rooms {
		summary, err := chat.Summarize(h.Storage, &rooms[i], now)
		if err != nil {
			respondErr(c, err)
			return
		}
		summaries = append(summaries, summary)
	}
	c.JSON(http.StatusOK, gin.H{"rooms": summaries})
}

// ListMessages returns the room's visible messages in reading order plus the
// room summary.
func (h *Handler) ListMessages(c *gin.Context) {
	result, err := h.Messages.ListVisible(c.Param("roomID"), currentUser(c), chat.DefaultListLimit)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"messages":  result.Messages,
		"room_info": result.Room,
	})
}

// PostMessage appends a message to the room.
func (h *Handler) PostMessage(c *gin.Context) {
	var req struct {
		Content      string `json:"content"`
		Kind         string `json:"kind"`
		SharedItemID *uint  `json:"shared_item_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body"})
		return
	}

	msg, err := h.Messages.Post(c.Param("roomID"), currentUser(c), req.Kind, req.Content, req.SharedItemID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": msg})
}

// LeaveRoom removes the caller from the room.
func (h *Handler) LeaveRoom(c *gin.Context) {
	if err := h.Rooms.Leave(c.Param("roomID"), currentUser(c)); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "You left the chat room."})
}

// CreateInvite issues (or returns) the bench's active invite code.
func (h *Handler) CreateInvite(c *gin.Context) {
	invite, err := h.Rooms.CreateInvite(c.Param("roomID"), currentUser(c))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "invite": invite})
}

// JoinByInvite redeems an invite code for the caller.
func (h *Handler) JoinByInvite(c *gin.Context) {
	room, err := h.Rooms.JoinByInvite(c.Param("code"), currentUser(c))
	if err != nil {
		respondErr(c, err)
		return
	}

	summary, err := chat.Summarize(h.Storage, room, time.Now())
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "room": summary})
}
