package models

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

// Content bounds for an outfit.
const (
	MaxTitleLength       = 120
	MaxDescriptionLength = 1000
	MaxItems             = 30
	MaxPictures          = 10
	MaxTags              = 10
	MaxListResults       = 100
)

// Item is a purchasable piece of an outfit.
type Item struct {
	Name     string `json:"name"`
	Link     string `json:"link"`
	ImageURL string `json:"image_url,omitempty"`
}

// VoteMap maps voter id to +1 or -1.
type VoteMap map[uint]int

// Outfit is the aggregate root for votes and comments. Poster username and
// avatar are denormalized copies of the poster's profile.
type Outfit struct {
	ID             uint                         `gorm:"primaryKey" json:"id"`
	Title          string                       `gorm:"size:120;not null" json:"title"`
	Description    string                       `gorm:"size:1000" json:"description"`
	Items          datatypes.JSONSlice[Item]    `json:"items"`
	Pictures       datatypes.JSONSlice[string]  `json:"pictures"`
	Tags           datatypes.JSONSlice[string]  `json:"tags"`
	PosterID       uint                         `gorm:"index;not null" json:"poster_id"`
	PosterUsername string                       `gorm:"index;size:30" json:"poster_username"`
	PosterAvatar   string                       `json:"poster_avatar"`
	Votes          datatypes.JSONType[VoteMap]  `json:"votes"`
	Rating         int                          `gorm:"not null;default:0" json:"rating"`
	Comments       datatypes.JSONSlice[Comment] `json:"comments"`
	CreatedAt      time.Time                    `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time                    `json:"updated_at"`
}

// OutfitTag indexes outfit tags in lower case for exact, case-insensitive
// tag search.
type OutfitTag struct {
	OutfitID uint   `gorm:"primaryKey;autoIncrement:false"`
	Tag      string `gorm:"primaryKey;size:64"`
}

// OutfitCommenter records that a user has authored at least one comment on
// an outfit. Profile edits use it to find the outfits to rewrite.
type OutfitCommenter struct {
	OutfitID uint `gorm:"primaryKey;autoIncrement:false"`
	UserID   uint `gorm:"primaryKey;autoIncrement:false;index"`
}

// OutfitFilter selects outfits for search. Empty fields do not filter.
type OutfitFilter struct {
	Query  string
	Tag    string
	Poster string
	Limit  int
}

// CurrentVotes returns the outfit's votes, never nil.
func (o *Outfit) CurrentVotes() VoteMap {
	m := o.Votes.Data()
	if m == nil {
		return VoteMap{}
	}
	return m
}

// VoteOf returns voterID's current vote, 0 when absent.
func (o *Outfit) VoteOf(voterID uint) int {
	return o.CurrentVotes()[voterID]
}

// NormalizeTags trims tags, drops empties and removes case-insensitive
// duplicates while keeping first-seen spelling and order.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		key := strings.ToLower(t)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, t)
	}
	return out
}

// TagIndex returns the rows that index this outfit's tags.
func (o *Outfit) TagIndex() []OutfitTag {
	rows := make([]OutfitTag, 0, len(o.Tags))
	seen := make(map[string]struct{}, len(o.Tags))
	for _, t := range o.Tags {
		key := strings.ToLower(t)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		rows = append(rows, OutfitTag{OutfitID: o.ID, Tag: key})
	}
	return rows
}

// RenamePoster rewrites the denormalized poster identity.
func (o *Outfit) RenamePoster(username, avatar string) {
	o.PosterUsername = username
	o.PosterAvatar = avatar
}
