package transfer

import (
	"time"

	"github.com/velora-labs/video-api/internal/models"
)

// VideoCreation carries the multipart form fields of a create request.
// Tags and Participants arrive as JSON-encoded arrays, ScheduledAt in the
// same layout the scheduling form uses.
type VideoCreation struct {
	Title        string
	Description  string
	Status       string
	IsSale       bool
	Price        float64
	IsSchedule   bool
	ScheduledAt  string
	Tags         string
	Participants string
}

// VideoPatch is a partial update. Nil means "leave the field alone";
// a non-nil pointer replaces the stored value, so an empty slice clears
// the tag or participant set rather than keeping it.
type VideoPatch struct {
	Title        *string
	Description  *string
	Status       *string
	IsSale       *bool
	Price        *float64
	IsSchedule   *bool
	ScheduledAt  *time.Time
	Tags         *[]string
	Participants *[]int64
}

// VideoView is a video annotated for one viewer. URL is empty when the
// viewer is not entitled to the playable rendition; public metadata,
// the primary rendition's duration and conversion status included, is
// always present.
type VideoView struct {
	*models.Video
	IsSubscribed bool     `json:"is_subscribed"`
	IsBought     bool     `json:"is_bought"`
	URL          string   `json:"url"`
	TeaserURL    string   `json:"teaser_url"`
	ThumbnailURL string   `json:"thumbnail_url"`
	Duration     *float64 `json:"duration"`
	FileStatus   string   `json:"file_status"`
}

// Viewer is the caller identity. A nil *Viewer means anonymous.
type Viewer struct {
	ID    int64
	Roles []string
}

func (v *Viewer) IsAdmin() bool {
	if v == nil {
		return false
	}
	for _, role := range v.Roles {
		if role == models.RoleAdmin {
			return true
		}
	}
	return false
}
