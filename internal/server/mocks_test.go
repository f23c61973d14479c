package server

import (
	"context"
	"testing"
	"time"

	"sharefit/internal/auth"
	"sharefit/internal/config"
	"sharefit/internal/models"

	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"
)

// MockUserRepository is a mock of the UserRepository interface
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Mutate(ctx context.Context, id uint, fn func(*models.User) error) (*models.User, error) {
	args := m.Called(ctx, id, fn)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// MockOutfitRepository is a mock of the OutfitRepository interface
type MockOutfitRepository struct {
	mock.Mock
}

func (m *MockOutfitRepository) Create(ctx context.Context, outfit *models.Outfit) error {
	args := m.Called(ctx, outfit)
	return args.Error(0)
}

func (m *MockOutfitRepository) GetByID(ctx context.Context, id uint) (*models.Outfit, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Outfit), args.Error(1)
}

func (m *MockOutfitRepository) Search(ctx context.Context, filter models.OutfitFilter) ([]models.Outfit, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]models.Outfit), args.Error(1)
}

func (m *MockOutfitRepository) ListByPoster(ctx context.Context, posterID uint, limit int) ([]models.Outfit, error) {
	args := m.Called(ctx, posterID, limit)
	return args.Get(0).([]models.Outfit), args.Error(1)
}

func (m *MockOutfitRepository) ListByIDs(ctx context.Context, ids []uint) ([]models.Outfit, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]models.Outfit), args.Error(1)
}

func (m *MockOutfitRepository) VotesFor(ctx context.Context, ids []uint, voterID uint) (map[uint]int, error) {
	args := m.Called(ctx, ids, voterID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uint]int), args.Error(1)
}

func (m *MockOutfitRepository) Mutate(ctx context.Context, id uint, fn func(*models.Outfit) error) (*models.Outfit, error) {
	args := m.Called(ctx, id, fn)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Outfit), args.Error(1)
}

func (m *MockOutfitRepository) RenamePoster(ctx context.Context, posterID uint, username, avatar string) (int64, error) {
	args := m.Called(ctx, posterID, username, avatar)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOutfitRepository) CommentedOutfitIDs(ctx context.Context, userID uint) ([]uint, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]uint), args.Error(1)
}

func testConfig() *config.Config {
	return &config.Config{
		Env:             "test",
		Port:            "0",
		JWTSecret:       "test_secret",
		TokenTTLMinutes: 120,
		BcryptCost:      bcrypt.MinCost,
		TOTPIssuer:      "ShareFit",
		AllowedOrigins:  "http://localhost:5173",
	}
}

// newMockServer wires the services over testify mocks.
func newMockServer(t *testing.T) (*Server, *MockUserRepository, *MockOutfitRepository) {
	t.Helper()
	userRepo := new(MockUserRepository)
	outfitRepo := new(MockOutfitRepository)
	s := &Server{
		config:     testConfig(),
		tokens:     auth.NewTokenManager("test_secret", time.Hour),
		userRepo:   userRepo,
		outfitRepo: outfitRepo,
	}
	s.wireServices()
	return s, userRepo, outfitRepo
}
