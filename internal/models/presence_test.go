package models_test

import (
	"chaikada/backend/internal/models"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestIsCurrentlyOnline verifies that online status is re-derived from the
// activity timestamp, never trusted from the stored flag alone.
func TestIsCurrentlyOnline(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name         string
		isOnline     bool
		lastActivity time.Time
		expect       bool
	}{
		{"Active just now", true, now, true},
		{"Active inside the window", true, now.Add(-4 * time.Minute), true},
		{"Activity aged out", true, now.Add(-6 * time.Minute), false},
		{"Flag off despite recent activity", false, now, false},
		{"Flag on with ancient activity", true, now.Add(-24 * time.Hour), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := models.UserPresence{
				UserID:         1,
				IsOnline:       tt.isOnline,
				LastActivityAt: tt.lastActivity,
			}
			assert.Equal(t, tt.expect, p.IsCurrentlyOnline(now))
		})
	}
}
