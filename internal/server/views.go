package server

import (
	"time"

	"sharefit/internal/models"
	"sharefit/internal/service"
)

type outfitView struct {
	ID             uint          `json:"id"`
	Title          string        `json:"title"`
	Description    string        `json:"description"`
	Items          []models.Item `json:"items"`
	Pictures       []string      `json:"pictures"`
	Tags           []string      `json:"tags"`
	PosterID       uint          `json:"poster_id"`
	PosterUsername string        `json:"poster_username"`
	PosterAvatar   string        `json:"poster_avatar"`
	Rating         int           `json:"rating"`
	VoteCount      int           `json:"vote_count"`
	MyVote         *int          `json:"my_vote,omitempty"`
	CommentCount   int           `json:"comment_count"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

type outfitDetailView struct {
	outfitView
	Threads []threadView `json:"threads"`
}

// commentView hides the author id of deleted comments.
type commentView struct {
	ID        string    `json:"id"`
	UserID    *uint     `json:"user_id,omitempty"`
	Username  string    `json:"username"`
	Avatar    string    `json:"avatar"`
	Text      string    `json:"text"`
	ParentID  *string   `json:"parent_id,omitempty"`
	Deleted   bool      `json:"deleted"`
	CreatedAt time.Time `json:"created_at"`
}

type threadView struct {
	commentView
	Replies []commentView `json:"replies"`
}

type userView struct {
	ID                uint      `json:"id"`
	Username          string    `json:"username"`
	ProfilePictureURL string    `json:"profile_picture_url"`
	SavedOutfitIDs    []uint    `json:"saved_outfit_ids"`
	TOTPEnabled       bool      `json:"totp_enabled"`
	CreatedAt         time.Time `json:"created_at"`
}

type sessionView struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      userView  `json:"user"`
}

// newOutfitView renders o. myVote is attached only for authenticated callers.
func newOutfitView(o *models.Outfit, myVote *int) outfitView {
	live := 0
	for _, c := range o.Comments {
		if !c.Deleted {
			live++
		}
	}
	return outfitView{
		ID:             o.ID,
		Title:          o.Title,
		Description:    o.Description,
		Items:          nonNil(o.Items),
		Pictures:       nonNil(o.Pictures),
		Tags:           nonNil(o.Tags),
		PosterID:       o.PosterID,
		PosterUsername: o.PosterUsername,
		PosterAvatar:   o.PosterAvatar,
		Rating:         o.Rating,
		VoteCount:      len(o.CurrentVotes()),
		MyVote:         myVote,
		CommentCount:   live,
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}
}

func newOutfitDetailView(o *models.Outfit, myVote *int) outfitDetailView {
	return outfitDetailView{
		outfitView: newOutfitView(o, myVote),
		Threads:    newThreadViews(models.AssembleThreads(o.Comments)),
	}
}

// newOutfitViews renders a list. votes is nil for anonymous callers.
func newOutfitViews(outfits []models.Outfit, votes map[uint]int) []outfitView {
	views := make([]outfitView, 0, len(outfits))
	for i := range outfits {
		var mine *int
		if votes != nil {
			v := votes[outfits[i].ID]
			mine = &v
		}
		views = append(views, newOutfitView(&outfits[i], mine))
	}
	return views
}

func newCommentView(c models.Comment) commentView {
	view := commentView{
		ID:        c.ID,
		Username:  c.Username,
		Avatar:    c.Avatar,
		Text:      c.Text,
		ParentID:  c.ParentID,
		Deleted:   c.Deleted,
		CreatedAt: c.CreatedAt,
	}
	if !c.Deleted {
		id := c.UserID
		view.UserID = &id
	}
	return view
}

func newThreadViews(threads []models.Thread) []threadView {
	views := make([]threadView, 0, len(threads))
	for _, t := range threads {
		replies := make([]commentView, 0, len(t.Replies))
		for _, r := range t.Replies {
			replies = append(replies, newCommentView(r))
		}
		views = append(views, threadView{commentView: newCommentView(t.Comment), Replies: replies})
	}
	return views
}

func newUserView(u *models.User) userView {
	return userView{
		ID:                u.ID,
		Username:          u.Username,
		ProfilePictureURL: u.ProfilePictureURL,
		SavedOutfitIDs:    u.SavedIDs(),
		TOTPEnabled:       u.TOTPEnabled,
		CreatedAt:         u.CreatedAt,
	}
}

func newSessionView(sess *service.Session) sessionView {
	view := sessionView{Token: sess.Token, User: newUserView(sess.User)}
	if sess.Claims != nil && sess.Claims.ExpiresAt != nil {
		view.ExpiresAt = sess.Claims.ExpiresAt.Time
	}
	return view
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
