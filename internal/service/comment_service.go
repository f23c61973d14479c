package service

import (
	"context"
	"time"

	"sharefit/internal/models"
	"sharefit/internal/observability"
	"sharefit/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

type CommentService struct {
	outfitRepo repository.OutfitRepository
	userRepo   repository.UserRepository
	now        func() time.Time
}

type CreateCommentInput struct {
	UserID   uint
	OutfitID uint
	Text     string
	ParentID *string
}

type DeleteCommentInput struct {
	UserID    uint
	OutfitID  uint
	CommentID string
}

func NewCommentService(outfitRepo repository.OutfitRepository, userRepo repository.UserRepository) *CommentService {
	return &CommentService{
		outfitRepo: outfitRepo,
		userRepo:   userRepo,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// CreateComment appends a comment, or a reply when ParentID is set. The
// author's username and avatar are read from the user record, not the
// session.
func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	author, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	ctx, span := observability.StartSpan(ctx, "comment", "create",
		attribute.Int64("outfit.id", int64(in.OutfitID)),
		attribute.Bool("comment.reply", in.ParentID != nil),
	)
	var created *models.Comment
	_, err = s.outfitRepo.Mutate(ctx, in.OutfitID, func(o *models.Outfit) error {
		var addErr error
		created, addErr = o.AddComment(models.NewComment{
			Author:   author,
			Text:     in.Text,
			ParentID: in.ParentID,
			At:       s.now(),
		})
		return addErr
	})
	observability.EndSpan(span, err)
	if err != nil {
		return nil, err
	}

	event := "created"
	if !created.IsRoot() {
		event = "replied"
	}
	observability.CommentEvents.WithLabelValues(event).Inc()
	return created, nil
}

// DeleteComment tombstones the requester's own comment. Repeating the call
// succeeds.
func (s *CommentService) DeleteComment(ctx context.Context, in DeleteCommentInput) (*models.Comment, error) {
	ctx, span := observability.StartSpan(ctx, "comment", "delete",
		attribute.Int64("outfit.id", int64(in.OutfitID)),
		attribute.String("comment.id", in.CommentID),
	)
	var deleted *models.Comment
	_, err := s.outfitRepo.Mutate(ctx, in.OutfitID, func(o *models.Outfit) error {
		var delErr error
		deleted, delErr = o.DeleteComment(in.CommentID, in.UserID)
		return delErr
	})
	observability.EndSpan(span, err)
	if err != nil {
		return nil, err
	}

	observability.CommentEvents.WithLabelValues("deleted").Inc()
	return deleted, nil
}

// ListThreads returns the outfit's comments grouped into root threads.
func (s *CommentService) ListThreads(ctx context.Context, outfitID uint) ([]models.Thread, error) {
	outfit, err := s.outfitRepo.GetByID(ctx, outfitID)
	if err != nil {
		return nil, err
	}
	return models.AssembleThreads(outfit.Comments), nil
}
