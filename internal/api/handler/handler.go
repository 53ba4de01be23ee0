// Package handler wires the poll-based JSON API onto the chat core. The
// transport is deliberately thin: identity comes from the session middleware,
// and every outcome is an explicit status payload the client polls for.
package handler

import (
	"chaikada/backend/internal/chat"
	"chaikada/backend/internal/match"
	"chaikada/backend/internal/presence"
	"chaikada/backend/internal/storage"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Handler bundles the services behind the HTTP surface.
type Handler struct {
	Storage  storage.Storage
	Tracker  *presence.Tracker
	Matcher  *match.MatcherService
	Rooms    *chat.RoomService
	Messages *chat.MessageService

	jwtSecret []byte
}

// NewHandler creates the API handler.
func NewHandler(s storage.Storage, tracker *presence.Tracker, matcher *match.MatcherService,
	rooms *chat.RoomService, messages *chat.MessageService, jwtSecret string) *Handler {
	return &Handler{
		Storage:   s,
		Tracker:   tracker,
		Matcher:   matcher,
		Rooms:     rooms,
		Messages:  messages,
		jwtSecret: []byte(jwtSecret),
	}
}

// RegisterRoutes mounts the API.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.POST("/api/session", h.CreateSession)

	api := r.Group("/api", h.AuthRequired())
	{
		api.POST("/chat/find", h.FindStranger)
		api.GET("/chat/status", h.MatchStatus)
		api.GET("/presence/status", h.PresenceStatus)
		api.POST("/presence/availability", h.SetAvailability)

		api.POST("/benches", h.CreateBench)
		api.GET("/rooms", h.ListRooms)
		api.GET("/rooms/:roomID/messages", h.ListMessages)
		api.POST("/rooms/:roomID/messages", h.PostMessage)
		api.POST("/rooms/:roomID/leave", h.LeaveRoom)
		api.POST("/rooms/:roomID/invites", h.CreateInvite)
		api.POST("/invites/:code/join", h.JoinByInvite)
	}
}

// respondErr maps a service rejection onto an HTTP status and a
// machine-readable reason. Unclassified errors stay opaque 500s.
func respondErr(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "Internal error"
	switch {
	case errors.Is(err, chat.ErrValidation):
		status = http.StatusBadRequest
		message = err.Error()
	case errors.Is(err, chat.ErrUnauthorized):
		status = http.StatusForbidden
		message = err.Error()
	case errors.Is(err, chat.ErrStateConflict):
		status = http.StatusConflict
		message = err.Error()
	case errors.Is(err, chat.ErrNotFound):
		status = http.StatusNotFound
		message = err.Error()
	}
	c.JSON(status, gin.H{
		"success": false,
		"error":   message,
		"reason":  chat.Reason(err),
	})
}
