package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"sharefit/internal/models"
	"sharefit/internal/observability"
	"sharefit/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

type UserService struct {
	userRepo   repository.UserRepository
	outfitRepo repository.OutfitRepository
}

// UpdateProfileInput carries the fields to change. A nil field is left
// alone; an empty ProfilePictureURL clears the avatar.
type UpdateProfileInput struct {
	UserID            uint
	Username          *string
	ProfilePictureURL *string
}

func NewUserService(userRepo repository.UserRepository, outfitRepo repository.OutfitRepository) *UserService {
	return &UserService{
		userRepo:   userRepo,
		outfitRepo: outfitRepo,
	}
}

func (s *UserService) GetProfile(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// UpdateProfile saves the new username and/or avatar, then rewrites the
// denormalized copies on the user's outfits and live comments. The cascade
// is not transactional: a failure part way is returned and repeating the
// same edit completes it.
func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	if in.Username == nil && in.ProfilePictureURL == nil {
		return nil, models.NewValidationError("Nothing to update")
	}

	var username string
	if in.Username != nil {
		username = strings.TrimSpace(*in.Username)
		if err := models.ValidateUsername(username); err != nil {
			return nil, err
		}
		holder, err := s.userRepo.GetByUsername(ctx, username)
		if err != nil {
			return nil, err
		}
		if holder != nil && holder.ID != in.UserID {
			return nil, models.NewConflictError("Username already taken")
		}
	}

	user, err := s.userRepo.Mutate(ctx, in.UserID, func(u *models.User) error {
		if in.Username != nil {
			u.Username = username
		}
		if in.ProfilePictureURL != nil {
			u.ProfilePictureURL = strings.TrimSpace(*in.ProfilePictureURL)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.propagateIdentity(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) propagateIdentity(ctx context.Context, user *models.User) (err error) {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, "user", "propagate_identity",
		attribute.Int64("user.id", int64(user.ID)),
	)
	defer func() {
		observability.EndSpan(span, err)
		observability.ObserveSince(observability.ProfileCascadeDuration, start)
		if err != nil {
			observability.ProfileCascadeFailures.Inc()
			observability.GlobalLogger.ErrorContext(ctx, "profile propagation failed",
				slog.Uint64("user_id", uint64(user.ID)),
				slog.String("error", err.Error()),
			)
		}
	}()

	posted, err := s.outfitRepo.RenamePoster(ctx, user.ID, user.Username, user.ProfilePictureURL)
	if err != nil {
		return err
	}
	observability.ProfileCascadeWrites.WithLabelValues("poster").Add(float64(posted))

	outfitIDs, err := s.outfitRepo.CommentedOutfitIDs(ctx, user.ID)
	if err != nil {
		return err
	}

	renamed := 0
	for _, id := range outfitIDs {
		_, err = s.outfitRepo.Mutate(ctx, id, func(o *models.Outfit) error {
			renamed += o.RenameCommentAuthor(user.ID, user.Username, user.ProfilePictureURL)
			return nil
		})
		if err != nil {
			return err
		}
		observability.ProfileCascadeWrites.WithLabelValues("comments").Inc()
	}

	observability.GlobalLogger.InfoContext(ctx, "profile propagated",
		slog.Uint64("user_id", uint64(user.ID)),
		slog.Int64("outfits_posted", posted),
		slog.Int("outfits_commented", len(outfitIDs)),
		slog.Int("comments_renamed", renamed),
	)
	return nil
}
