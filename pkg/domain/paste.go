package domain

import (
	"time"
)

// Paste is immutable after creation; only the sweeper removes it.
// The bson field names match the collection layout this service has
// always written ("paste" for the content, "iden" for the creator id).
type Paste struct {
	Slug      string    `bson:"slug" json:"slug"`
	Content   string    `bson:"paste" json:"paste"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	CreatorID string    `bson:"iden" json:"creatorId"`
}
