// Package service holds the application use cases on top of the repositories.
package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"sharefit/internal/models"
	"sharefit/internal/observability"
	"sharefit/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// MaxTagLength bounds a single tag in characters.
const MaxTagLength = 64

type OutfitService struct {
	outfitRepo repository.OutfitRepository
	userRepo   repository.UserRepository
}

type CreateOutfitInput struct {
	PosterID    uint
	Title       string
	Description string
	Items       []models.Item
	Pictures    []string
	Tags        []string
}

type RateInput struct {
	UserID   uint
	OutfitID uint
	Value    int
}

func NewOutfitService(outfitRepo repository.OutfitRepository, userRepo repository.UserRepository) *OutfitService {
	return &OutfitService{
		outfitRepo: outfitRepo,
		userRepo:   userRepo,
	}
}

func validateOutfit(in *CreateOutfitInput) error {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)

	if in.Title == "" {
		return models.NewValidationError("Title is required")
	}
	if utf8.RuneCountInString(in.Title) > models.MaxTitleLength {
		return models.NewValidationError(fmt.Sprintf("Title too long (max %d characters)", models.MaxTitleLength))
	}
	if utf8.RuneCountInString(in.Description) > models.MaxDescriptionLength {
		return models.NewValidationError(fmt.Sprintf("Description too long (max %d characters)", models.MaxDescriptionLength))
	}
	if len(in.Items) > models.MaxItems {
		return models.NewValidationError(fmt.Sprintf("Too many items (max %d)", models.MaxItems))
	}
	for i := range in.Items {
		in.Items[i].Name = strings.TrimSpace(in.Items[i].Name)
		if in.Items[i].Name == "" {
			return models.NewValidationError("Item name is required")
		}
	}
	if len(in.Pictures) > models.MaxPictures {
		return models.NewValidationError(fmt.Sprintf("Too many pictures (max %d)", models.MaxPictures))
	}

	in.Tags = models.NormalizeTags(in.Tags)
	if len(in.Tags) > models.MaxTags {
		return models.NewValidationError(fmt.Sprintf("Too many tags (max %d)", models.MaxTags))
	}
	for _, tag := range in.Tags {
		if utf8.RuneCountInString(tag) > MaxTagLength {
			return models.NewValidationError(fmt.Sprintf("Tag too long (max %d characters)", MaxTagLength))
		}
	}
	return nil
}

// CreateOutfit stores a new outfit with the poster's current username and
// avatar copied onto it.
func (s *OutfitService) CreateOutfit(ctx context.Context, in CreateOutfitInput) (*models.Outfit, error) {
	if err := validateOutfit(&in); err != nil {
		return nil, err
	}

	poster, err := s.userRepo.GetByID(ctx, in.PosterID)
	if err != nil {
		return nil, err
	}

	outfit := &models.Outfit{
		Title:          in.Title,
		Description:    in.Description,
		Items:          in.Items,
		Pictures:       in.Pictures,
		Tags:           in.Tags,
		PosterID:       poster.ID,
		PosterUsername: poster.Username,
		PosterAvatar:   poster.ProfilePictureURL,
	}
	if err := s.outfitRepo.Create(ctx, outfit); err != nil {
		return nil, err
	}
	return outfit, nil
}

func (s *OutfitService) GetOutfit(ctx context.Context, id uint) (*models.Outfit, error) {
	return s.outfitRepo.GetByID(ctx, id)
}

func (s *OutfitService) Search(ctx context.Context, filter models.OutfitFilter) ([]models.Outfit, error) {
	filter.Limit = models.MaxListResults
	return s.outfitRepo.Search(ctx, filter)
}

func (s *OutfitService) ListMine(ctx context.Context, userID uint) ([]models.Outfit, error) {
	return s.outfitRepo.ListByPoster(ctx, userID, models.MaxListResults)
}

// ListSaved returns the user's saved outfits that still exist, newest first.
func (s *OutfitService) ListSaved(ctx context.Context, userID uint) ([]models.Outfit, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.outfitRepo.ListByIDs(ctx, user.SavedIDs())
}

// Rate records the user's vote and returns the new aggregate rating.
func (s *OutfitService) Rate(ctx context.Context, in RateInput) (int, error) {
	if !models.ValidVote(in.Value) {
		return 0, models.NewValidationError("Vote value must be -1, 0 or 1")
	}

	ctx, span := observability.StartSpan(ctx, "outfit", "rate",
		attribute.Int64("outfit.id", int64(in.OutfitID)),
		attribute.Int("vote.value", in.Value),
	)
	var rating int
	_, err := s.outfitRepo.Mutate(ctx, in.OutfitID, func(o *models.Outfit) error {
		var applyErr error
		rating, applyErr = models.ApplyVote(o, in.UserID, in.Value)
		return applyErr
	})
	observability.EndSpan(span, err)
	if err != nil {
		return 0, err
	}

	observability.VotesRecorded.WithLabelValues(strconv.Itoa(in.Value)).Inc()
	return rating, nil
}

// VotesFor returns the user's vote on each requested outfit. Duplicate ids
// are collapsed; every distinct id is present in the result.
func (s *OutfitService) VotesFor(ctx context.Context, userID uint, ids []uint) (map[uint]int, error) {
	distinct := make([]uint, 0, len(ids))
	seen := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		distinct = append(distinct, id)
	}
	if len(distinct) > models.MaxVoteLookup {
		return nil, models.NewValidationError(fmt.Sprintf("Too many outfit ids (max %d)", models.MaxVoteLookup))
	}
	return s.outfitRepo.VotesFor(ctx, distinct, userID)
}

// Save adds the outfit to the user's saved set. Saving twice is a no-op.
func (s *OutfitService) Save(ctx context.Context, userID, outfitID uint) ([]uint, error) {
	if _, err := s.outfitRepo.GetByID(ctx, outfitID); err != nil {
		return nil, err
	}
	user, err := s.userRepo.Mutate(ctx, userID, func(u *models.User) error {
		u.SaveOutfit(outfitID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user.SavedIDs(), nil
}

// Unsave removes the outfit from the user's saved set. It never fails
// because the outfit is absent.
func (s *OutfitService) Unsave(ctx context.Context, userID, outfitID uint) ([]uint, error) {
	user, err := s.userRepo.Mutate(ctx, userID, func(u *models.User) error {
		u.UnsaveOutfit(outfitID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user.SavedIDs(), nil
}
