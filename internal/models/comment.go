package models

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// DeletedPlaceholder replaces the text and username of a deleted comment.
const DeletedPlaceholder = "[deleted]"

// MaxCommentLength bounds the trimmed comment text in characters.
const MaxCommentLength = 2000

// Comment is embedded in an Outfit. Its id is unique within that outfit.
// Username and Avatar are copies of the author's profile at posting time,
// refreshed by profile edits until the comment is deleted.
type Comment struct {
	ID        string    `json:"id"`
	UserID    uint      `json:"user_id"`
	Username  string    `json:"username"`
	Avatar    string    `json:"avatar"`
	Text      string    `json:"text"`
	ParentID  *string   `json:"parent_id,omitempty"`
	Deleted   bool      `json:"deleted"`
	CreatedAt time.Time `json:"created_at"`
}

// IsRoot reports whether the comment has no parent.
func (c *Comment) IsRoot() bool {
	return c.ParentID == nil || *c.ParentID == ""
}

// Tombstone soft-deletes the comment. Author id and timestamp are kept.
func (c *Comment) Tombstone() {
	c.Deleted = true
	c.Text = DeletedPlaceholder
	c.Username = DeletedPlaceholder
	c.Avatar = ""
}

// FindComment returns the index of the comment with the given id, or -1.
func (o *Outfit) FindComment(id string) int {
	for i := range o.Comments {
		if o.Comments[i].ID == id {
			return i
		}
	}
	return -1
}

// rootOf follows parent pointers from id to a root comment id. ok is false
// when the chain is broken or cyclic.
func rootOf(comments []Comment, id string) (string, bool) {
	byID := make(map[string]*Comment, len(comments))
	for i := range comments {
		byID[comments[i].ID] = &comments[i]
	}
	return walkToRoot(byID, id)
}

func walkToRoot(byID map[string]*Comment, id string) (string, bool) {
	visited := make(map[string]struct{})
	for {
		c, ok := byID[id]
		if !ok {
			return "", false
		}
		if c.IsRoot() {
			return c.ID, true
		}
		if _, loop := visited[id]; loop {
			return "", false
		}
		visited[id] = struct{}{}
		id = *c.ParentID
	}
}

// NewComment describes a comment to append to an outfit.
type NewComment struct {
	Author   *User
	Text     string
	ParentID *string
	At       time.Time
}

// AddComment validates and appends a comment, capturing the author's
// current username and avatar. A reply to a reply is attached to the root
// of that thread so stored depth never exceeds one.
func (o *Outfit) AddComment(in NewComment) (*Comment, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, NewValidationError("Comment text is required")
	}
	if utf8.RuneCountInString(text) > MaxCommentLength {
		return nil, NewValidationError("Comment too long (max 2000 characters)")
	}

	var parent *string
	if in.ParentID != nil && strings.TrimSpace(*in.ParentID) != "" {
		root, ok := rootOf(o.Comments, strings.TrimSpace(*in.ParentID))
		if !ok {
			return nil, NewValidationError("Parent comment not found")
		}
		parent = &root
	}

	at := in.At
	if at.IsZero() {
		at = time.Now().UTC()
	}

	comment := Comment{
		ID:        uuid.NewString(),
		UserID:    in.Author.ID,
		Username:  in.Author.Username,
		Avatar:    in.Author.ProfilePictureURL,
		Text:      text,
		ParentID:  parent,
		CreatedAt: at,
	}
	o.Comments = append(o.Comments, comment)

	created := comment
	return &created, nil
}

// DeleteComment tombstones the comment if requesterID authored it.
// Deleting an already deleted comment succeeds without changes.
func (o *Outfit) DeleteComment(commentID string, requesterID uint) (*Comment, error) {
	idx := o.FindComment(commentID)
	if idx < 0 {
		return nil, NewNotFoundError("Comment", commentID)
	}
	c := &o.Comments[idx]
	if c.UserID != requesterID {
		return nil, NewForbiddenError("You can only delete your own comments")
	}
	if !c.Deleted {
		c.Tombstone()
	}
	deleted := *c
	return &deleted, nil
}

// RenameCommentAuthor rewrites the display fields of userID's live comments
// and returns how many changed. Deleted comments keep their placeholders.
func (o *Outfit) RenameCommentAuthor(userID uint, username, avatar string) int {
	changed := 0
	for i := range o.Comments {
		c := &o.Comments[i]
		if c.UserID != userID || c.Deleted {
			continue
		}
		if c.Username == username && c.Avatar == avatar {
			continue
		}
		c.Username = username
		c.Avatar = avatar
		changed++
	}
	return changed
}

// CommenterIDs returns the distinct author ids of the given comments.
func CommenterIDs(comments []Comment) []uint {
	seen := make(map[uint]struct{}, len(comments))
	ids := make([]uint, 0, len(comments))
	for _, c := range comments {
		if _, ok := seen[c.UserID]; ok {
			continue
		}
		seen[c.UserID] = struct{}{}
		ids = append(ids, c.UserID)
	}
	return ids
}
