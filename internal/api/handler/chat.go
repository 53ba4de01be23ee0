package handler

import (
	"chaikada/backend/internal/match"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// FindStranger handles the match poll: action "find" runs one matching
// attempt, "cancel" withdraws the search. Whatever happens inside the
// matcher, the client gets an explicit status to act on.
func (h *Handler) FindStranger(c *gin.Context) {
	var req struct {
		Action string `json:"action"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Invalid request body"})
		return
	}
	if req.Action == "" {
		req.Action = "find"
	}

	userID := currentUser(c)
	var result *match.Result
	var err error

	switch req.Action {
	case "find":
		result, err = h.Matcher.FindMatch(userID)
	case "cancel":
		result, err = h.Matcher.CancelSearch(userID)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Unknown action"})
		return
	}

	if err != nil {
		log.Printf("ERROR: Match request failed for user %d: %v", userID, err)
		c.JSON(http.StatusOK, gin.H{
			"status":     "error",
			"message":    "Connection error occurred",
			"suggestion": "Please check your internet connection",
		})
		return
	}
	c.JSON(http.StatusOK, result)
}

// MatchStatus answers the "did my search finish yet" poll.
func (h *Handler) MatchStatus(c *gin.Context) {
	result, err := h.Matcher.CheckStatus(currentUser(c))
	if err != nil {
		log.Printf("ERROR: Match status check failed for user %d: %v", currentUser(c), err)
		c.JSON(http.StatusOK, gin.H{"status": "error", "message": "Connection error occurred"})
		return
	}
	c.JSON(http.StatusOK, result)
}

// PresenceStatus reports the online count and whether the caller is queued.
func (h *Handler) PresenceStatus(c *gin.Context) {
	status, err := h.Tracker.CurrentStatus(currentUser(c))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// SetAvailability flips the caller's opt-in flag for stranger matching.
func (h *Handler) SetAvailability(c *gin.Context) {
	var req struct {
		Available *bool `json:"available" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "available is required"})
		return
	}
	if err := h.Tracker.SetAvailable(currentUser(c), *req.Available); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "available": *req.Available})
}
