// Package models defines the persisted domain types and the pure rules that
// keep them consistent: vote aggregation, comment threading and saved sets.
package models

import (
	"fmt"
	"slices"
	"time"
	"unicode/utf8"

	"gorm.io/datatypes"
)

// Username length bounds.
const (
	MinUsernameLength = 3
	MaxUsernameLength = 30
)

// User is an account holder. The TOTP secret is only populated once
// two-factor login has been enabled; a secret awaiting confirmation lives in
// TOTPPendingSecret.
type User struct {
	ID                uint                      `gorm:"primaryKey" json:"id"`
	Username          string                    `gorm:"uniqueIndex;size:30;not null" json:"username"`
	PasswordHash      string                    `gorm:"not null" json:"-"`
	ProfilePictureURL string                    `json:"profile_picture_url"`
	TOTPSecret        string                    `json:"-"`
	TOTPPendingSecret string                    `json:"-"`
	TOTPEnabled       bool                      `gorm:"not null;default:false" json:"totp_enabled"`
	SavedOutfitIDs    datatypes.JSONSlice[uint] `json:"saved_outfit_ids"`
	CreatedAt         time.Time                 `json:"created_at"`
	UpdatedAt         time.Time                 `json:"updated_at"`
}

// ValidateUsername checks the username length bounds.
func ValidateUsername(username string) error {
	n := utf8.RuneCountInString(username)
	if n < MinUsernameLength || n > MaxUsernameLength {
		return NewValidationError(fmt.Sprintf("Username must be between %d and %d characters", MinUsernameLength, MaxUsernameLength))
	}
	return nil
}

// HasSaved reports whether outfitID is in the user's saved set.
func (u *User) HasSaved(outfitID uint) bool {
	return slices.Contains(u.SavedOutfitIDs, outfitID)
}

// SaveOutfit adds outfitID to the saved set. It returns false when the id
// was already present.
func (u *User) SaveOutfit(outfitID uint) bool {
	if u.HasSaved(outfitID) {
		return false
	}
	u.SavedOutfitIDs = append(u.SavedOutfitIDs, outfitID)
	return true
}

// UnsaveOutfit removes outfitID from the saved set. It returns false when
// the id was not present.
func (u *User) UnsaveOutfit(outfitID uint) bool {
	idx := slices.Index(u.SavedOutfitIDs, outfitID)
	if idx < 0 {
		return false
	}
	u.SavedOutfitIDs = slices.Delete(u.SavedOutfitIDs, idx, idx+1)
	return true
}

// SavedIDs returns a copy of the saved set that is never nil.
func (u *User) SavedIDs() []uint {
	out := make([]uint, len(u.SavedOutfitIDs))
	copy(out, u.SavedOutfitIDs)
	return out
}
