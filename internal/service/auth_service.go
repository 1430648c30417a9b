package service

import (
	"context"
	"errors"
	"time"

	"peakform/coaching-platform/internal/apperr"
	"peakform/coaching-platform/internal/domain"
	"peakform/coaching-platform/internal/repository"

	"github.com/golang-jwt/jwt/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

// AuthService handles registration, login and profile management.
type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (token string, user *domain.User, err error)
	GetProfile(ctx context.Context, userID primitive.ObjectID) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID primitive.ObjectID, input ProfileInput) (*domain.User, error)
	BecomeCoach(ctx context.Context, userID primitive.ObjectID, profile domain.CoachProfile) (*domain.User, error)
	ListCoaches(ctx context.Context, page Page) ([]domain.User, int64, error)
	GetJWTSecret() string
}

// RegisterInput carries the fields accepted at sign-up.
type RegisterInput struct {
	Email    string
	Password string
	FullName string
}

// ProfileInput carries the mutable profile fields.
type ProfileInput struct {
	FullName    string
	PhoneNumber string
	Biography   string
}

// authService implements the AuthService interface.
type authService struct {
	userRepo      repository.UserRepository
	jwtSecret     string
	jwtExpiration time.Duration
}

// NewAuthService creates a new instance of authService.
func NewAuthService(userRepo repository.UserRepository, jwtSecret string, jwtExpiration time.Duration) AuthService {
	if jwtSecret == "" {
		panic("JWT secret cannot be empty")
	}
	if jwtExpiration <= 0 {
		jwtExpiration = 24 * time.Hour
	}
	return &authService{
		userRepo:      userRepo,
		jwtSecret:     jwtSecret,
		jwtExpiration: jwtExpiration,
	}
}

// Register handles new user registration.
func (s *authService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	if input.Email == "" || input.Password == "" || input.FullName == "" {
		return nil, apperr.BadRequest("full name, email and password are required")
	}
	if len(input.Password) < 8 {
		return nil, apperr.BadRequest("password must be at least 8 characters")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Email:        input.Email,
		PasswordHash: string(hashedPassword),
		FullName:     input.FullName,
		IsActive:     true,
	}

	// The unique email index settles the race between concurrent sign-ups.
	userID, err := s.userRepo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.BadRequest("user with this email already exists")
		}
		return nil, err
	}
	user.ID = userID
	user.PasswordHash = ""
	return user, nil
}

// Login handles user authentication and JWT generation.
func (s *authService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	if email == "" || password == "" {
		return "", nil, apperr.BadRequest("email and password are required")
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil, apperr.BadRequest("invalid email or password")
		}
		return "", nil, err
	}
	if !user.IsActive {
		return "", nil, apperr.Forbidden("account is deactivated")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, apperr.BadRequest("invalid email or password")
	}

	token, err := s.generateJWT(user)
	if err != nil {
		return "", nil, err
	}

	user.PasswordHash = ""
	return token, user, nil
}

// GetProfile retrieves a user's own profile.
func (s *authService) GetProfile(ctx context.Context, userID primitive.ObjectID) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

// UpdateProfile updates the mutable profile fields of a user.
func (s *authService) UpdateProfile(ctx context.Context, userID primitive.ObjectID, input ProfileInput) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, err
	}

	if input.FullName != "" {
		user.FullName = input.FullName
	}
	user.PhoneNumber = input.PhoneNumber
	user.Biography = input.Biography

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

// BecomeCoach grants the coach capability and attaches the coach profile.
func (s *authService) BecomeCoach(ctx context.Context, userID primitive.ObjectID, profile domain.CoachProfile) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, err
	}
	if user.IsCoach {
		return nil, apperr.BadRequest("user is already a coach")
	}

	// Verification is granted by staff later, never self-claimed.
	profile.IsVerified = false
	user.IsCoach = true
	user.CoachProfile = &profile

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

// ListCoaches retrieves the public coach directory.
func (s *authService) ListCoaches(ctx context.Context, page Page) ([]domain.User, int64, error) {
	users, total, err := s.userRepo.ListCoaches(ctx, page.Offset(), page.Limit())
	if err != nil {
		return nil, 0, err
	}
	for i := range users {
		users[i].PasswordHash = ""
	}
	return users, total, nil
}

// jwtClaims defines the structure of the JWT payload. Capabilities travel in
// the token so middleware can gate routes without a user lookup.
type jwtClaims struct {
	UserID       string   `json:"uid"`
	Capabilities []string `json:"caps"`
	jwt.RegisteredClaims
}

// generateJWT creates a new JWT token for the given user.
func (s *authService) generateJWT(user *domain.User) (string, error) {
	caps := make([]string, 0, 3)
	for _, c := range user.Capabilities() {
		caps = append(caps, string(c))
	}

	expirationTime := time.Now().Add(s.jwtExpiration)
	claims := &jwtClaims{
		UserID:       user.ID.Hex(),
		Capabilities: caps,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.Hex(),
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "coaching-platform",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

// GetJWTSecret returns the JWT secret for middleware authentication.
func (s *authService) GetJWTSecret() string {
	return s.jwtSecret
}
