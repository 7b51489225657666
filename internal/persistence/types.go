package persistence

import (
	"time"

	"github.com/clipforge/creator-studio/internal/youtube"
)

// SavedIdea is one trending video the user bookmarked.
type SavedIdea struct {
	Video   youtube.Video `json:"video"`
	SavedAt time.Time     `json:"saved_at"`
}
