package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"sharefit/internal/auth"
	"sharefit/internal/models"
	"sharefit/internal/observability"
	"sharefit/internal/repository"
)

// MaxPasswordLength bounds registration passwords. bcrypt ignores bytes past 72.
const MaxPasswordLength = 72

type AuthService struct {
	userRepo   repository.UserRepository
	tokens     *auth.TokenManager
	bcryptCost int
	totpIssuer string
	now        func() time.Time
}

type RegisterInput struct {
	Username          string
	Password          string
	ProfilePictureURL string
}

type LoginInput struct {
	Username string
	Password string
	Code     string
}

// Session is an issued token together with the user it was issued for.
type Session struct {
	Token  string
	Claims *auth.SessionClaims
	User   *models.User
}

func NewAuthService(userRepo repository.UserRepository, tokens *auth.TokenManager, bcryptCost int, totpIssuer string) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		tokens:     tokens,
		bcryptCost: bcryptCost,
		totpIssuer: totpIssuer,
		now:        time.Now,
	}
}

func recordAuth(event string, err error) {
	outcome := "success"
	if err != nil {
		outcome = strings.ToLower(models.ErrorCode(err))
	}
	observability.AuthEvents.WithLabelValues(event, outcome).Inc()
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (sess *Session, err error) {
	defer func() { recordAuth("register", err) }()

	username := strings.TrimSpace(in.Username)
	if err := models.ValidateUsername(username); err != nil {
		return nil, err
	}
	if n := utf8.RuneCountInString(in.Password); n < auth.MinPasswordLength || len(in.Password) > MaxPasswordLength {
		return nil, models.NewValidationError("Password must be between 8 and 72 characters")
	}

	existing, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError("Username already taken")
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Username:          username,
		PasswordHash:      hash,
		ProfilePictureURL: strings.TrimSpace(in.ProfilePictureURL),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return s.IssueSession(user)
}

// Login verifies the password and, once two-factor login is enabled, the
// TOTP code. Unknown usernames and wrong passwords are indistinguishable.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (sess *Session, err error) {
	defer func() { recordAuth("login", err) }()

	user, err := s.userRepo.GetByUsername(ctx, strings.TrimSpace(in.Username))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}

	ok, err := auth.CheckPassword(user.PasswordHash, in.Password)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if !ok {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}

	if user.TOTPEnabled {
		code := strings.TrimSpace(in.Code)
		if code == "" {
			return nil, models.NewValidationError("TOTP code required")
		}
		if !auth.ValidateTOTP(code, user.TOTPSecret, s.now()) {
			return nil, models.NewUnauthorizedError("Invalid TOTP code")
		}
	}

	return s.IssueSession(user)
}

// IssueSession signs a token carrying the user's current username.
func (s *AuthService) IssueSession(user *models.User) (*Session, error) {
	token, claims, err := s.tokens.Issue(user.ID, user.Username)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &Session{Token: token, Claims: claims, User: user}, nil
}

// BeginTOTPSetup generates a secret and keeps it pending until a code from
// it is confirmed. Calling it again replaces the pending secret.
func (s *AuthService) BeginTOTPSetup(ctx context.Context, userID uint) (setup *auth.TOTPSetup, err error) {
	defer func() { recordAuth("totp_setup", err) }()

	_, err = s.userRepo.Mutate(ctx, userID, func(u *models.User) error {
		if u.TOTPEnabled {
			return models.NewConflictError("Two-factor authentication is already enabled")
		}
		generated, genErr := auth.GenerateTOTP(s.totpIssuer, u.Username)
		if genErr != nil {
			return models.NewInternalError(genErr)
		}
		u.TOTPPendingSecret = generated.Secret
		setup = generated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return setup, nil
}

// ConfirmTOTPSetup enables two-factor login when code matches the pending
// secret.
func (s *AuthService) ConfirmTOTPSetup(ctx context.Context, userID uint, code string) (user *models.User, err error) {
	defer func() { recordAuth("totp_verify", err) }()

	return s.userRepo.Mutate(ctx, userID, func(u *models.User) error {
		if u.TOTPEnabled {
			return models.NewConflictError("Two-factor authentication is already enabled")
		}
		if u.TOTPPendingSecret == "" {
			return models.NewValidationError("No two-factor setup in progress")
		}
		if !auth.ValidateTOTP(strings.TrimSpace(code), u.TOTPPendingSecret, s.now()) {
			return models.NewValidationError("Invalid TOTP code")
		}
		u.TOTPSecret = u.TOTPPendingSecret
		u.TOTPPendingSecret = ""
		u.TOTPEnabled = true
		return nil
	})
}
