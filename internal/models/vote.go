package models

import "gorm.io/datatypes"

// Vote values.
const (
	VoteDown  = -1
	VoteClear = 0
	VoteUp    = 1
)

// MaxVoteLookup caps the number of outfit ids in one votes lookup.
const MaxVoteLookup = 100

// ValidVote reports whether value is -1, 0 or +1.
func ValidVote(value int) bool {
	return value == VoteDown || value == VoteClear || value == VoteUp
}

// SumVotes returns the aggregate rating of a vote map.
func SumVotes(votes VoteMap) int {
	total := 0
	for _, v := range votes {
		total += v
	}
	return total
}

// ApplyVote records voterID's vote on the outfit and recomputes the rating
// from the full map. A value of 0 removes the voter's entry.
func ApplyVote(o *Outfit, voterID uint, value int) (int, error) {
	if !ValidVote(value) {
		return 0, NewValidationError("Vote value must be -1, 0 or 1")
	}

	votes := o.CurrentVotes()
	next := make(VoteMap, len(votes)+1)
	for k, v := range votes {
		next[k] = v
	}
	if value == VoteClear {
		delete(next, voterID)
	} else {
		next[voterID] = value
	}

	o.Votes = datatypes.NewJSONType(next)
	o.Rating = SumVotes(next)
	return o.Rating, nil
}
