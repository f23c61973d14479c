package service

import (
	"context"
	"errors"
	"testing"

	"sharefit/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// outfitRepoStub is a stub for repository.OutfitRepository.
type outfitRepoStub struct {
	createFn             func(context.Context, *models.Outfit) error
	getByIDFn            func(context.Context, uint) (*models.Outfit, error)
	searchFn             func(context.Context, models.OutfitFilter) ([]models.Outfit, error)
	listByPosterFn       func(context.Context, uint, int) ([]models.Outfit, error)
	listByIDsFn          func(context.Context, []uint) ([]models.Outfit, error)
	votesForFn           func(context.Context, []uint, uint) (map[uint]int, error)
	mutateFn             func(context.Context, uint, func(*models.Outfit) error) (*models.Outfit, error)
	renamePosterFn       func(context.Context, uint, string, string) (int64, error)
	commentedOutfitIDsFn func(context.Context, uint) ([]uint, error)
}

func (s *outfitRepoStub) Create(ctx context.Context, o *models.Outfit) error {
	return s.createFn(ctx, o)
}
func (s *outfitRepoStub) GetByID(ctx context.Context, id uint) (*models.Outfit, error) {
	return s.getByIDFn(ctx, id)
}
func (s *outfitRepoStub) Search(ctx context.Context, f models.OutfitFilter) ([]models.Outfit, error) {
	return s.searchFn(ctx, f)
}
func (s *outfitRepoStub) ListByPoster(ctx context.Context, posterID uint, limit int) ([]models.Outfit, error) {
	return s.listByPosterFn(ctx, posterID, limit)
}
func (s *outfitRepoStub) ListByIDs(ctx context.Context, ids []uint) ([]models.Outfit, error) {
	return s.listByIDsFn(ctx, ids)
}
func (s *outfitRepoStub) VotesFor(ctx context.Context, ids []uint, voterID uint) (map[uint]int, error) {
	return s.votesForFn(ctx, ids, voterID)
}
func (s *outfitRepoStub) Mutate(ctx context.Context, id uint, fn func(*models.Outfit) error) (*models.Outfit, error) {
	return s.mutateFn(ctx, id, fn)
}
func (s *outfitRepoStub) RenamePoster(ctx context.Context, posterID uint, username, avatar string) (int64, error) {
	return s.renamePosterFn(ctx, posterID, username, avatar)
}
func (s *outfitRepoStub) CommentedOutfitIDs(ctx context.Context, userID uint) ([]uint, error) {
	return s.commentedOutfitIDsFn(ctx, userID)
}

func noopOutfitRepo() *outfitRepoStub {
	return &outfitRepoStub{
		createFn:       func(_ context.Context, _ *models.Outfit) error { return nil },
		getByIDFn:      func(_ context.Context, id uint) (*models.Outfit, error) { return &models.Outfit{ID: id}, nil },
		searchFn:       func(_ context.Context, _ models.OutfitFilter) ([]models.Outfit, error) { return nil, nil },
		listByPosterFn: func(_ context.Context, _ uint, _ int) ([]models.Outfit, error) { return nil, nil },
		listByIDsFn:    func(_ context.Context, _ []uint) ([]models.Outfit, error) { return nil, nil },
		votesForFn:     func(_ context.Context, _ []uint, _ uint) (map[uint]int, error) { return map[uint]int{}, nil },
		mutateFn: func(_ context.Context, id uint, fn func(*models.Outfit) error) (*models.Outfit, error) {
			o := &models.Outfit{ID: id}
			if err := fn(o); err != nil {
				return nil, err
			}
			return o, nil
		},
		renamePosterFn:       func(_ context.Context, _ uint, _, _ string) (int64, error) { return 0, nil },
		commentedOutfitIDsFn: func(_ context.Context, _ uint) ([]uint, error) { return nil, nil },
	}
}

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	getByIDFn       func(context.Context, uint) (*models.User, error)
	getByUsernameFn func(context.Context, string) (*models.User, error)
	createFn        func(context.Context, *models.User) error
	mutateFn        func(context.Context, uint, func(*models.User) error) (*models.User, error)
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) Mutate(ctx context.Context, id uint, fn func(*models.User) error) (*models.User, error) {
	return s.mutateFn(ctx, id, fn)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn:       func(_ context.Context, id uint) (*models.User, error) { return &models.User{ID: id}, nil },
		getByUsernameFn: func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		createFn:        func(_ context.Context, _ *models.User) error { return nil },
		mutateFn: func(_ context.Context, id uint, fn func(*models.User) error) (*models.User, error) {
			u := &models.User{ID: id}
			if err := fn(u); err != nil {
				return nil, err
			}
			return u, nil
		},
	}
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}

func assertValidationError(t *testing.T, err error) {
	t.Helper()
	assertCode(t, err, models.CodeValidation)
}

func strPtr(s string) *string { return &s }
