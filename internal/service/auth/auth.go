package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/nkiryanov/fintrack/internal/apperrors"
	"github.com/nkiryanov/fintrack/internal/models"
	"github.com/nkiryanov/fintrack/internal/repository"
	"github.com/nkiryanov/fintrack/internal/service/auth/tokenmanager"
)

const (
	defaultAccessHeaderName = "Authorization"
	defaultAccessAuthScheme = "Bearer"
)

// Interface to create or compare user password hashes
type PasswordHasher interface {
	// Generate Hash from password
	Hash(password string) (string, error)

	// Compare known hashedPassword and user provided password
	// Must be protected against timing attacks
	Compare(hashedPassword string, password string) error
}

type Config struct {
	// Hasher to use during registration or login
	// BcryptHasher is used if not set
	Hasher PasswordHasher
}

type AuthService struct {
	token  *tokenmanager.TokenManager
	hasher PasswordHasher

	userRepo repository.UserRepo

	accessHeaderName string
	accessAuthScheme string

	// Hash compared against when the user is unknown
	// so login takes the same time for missing and existing users
	fakeHash string
}

func NewService(cfg Config, token *tokenmanager.TokenManager, userRepo repository.UserRepo) (*AuthService, error) {
	hasher := cfg.Hasher
	if hasher == nil {
		hasher = DefaultHasher
	}

	fakeHash, err := hasher.Hash("fintrack-timing-guard")
	if err != nil {
		return nil, fmt.Errorf("error while preparing hasher. Err: %w", err)
	}

	return &AuthService{
		token:            token,
		hasher:           hasher,
		userRepo:         userRepo,
		accessHeaderName: defaultAccessHeaderName,
		accessAuthScheme: defaultAccessAuthScheme,
		fakeHash:         fakeHash,
	}, nil
}

// Register user and issue the first token pair
func (s *AuthService) Register(ctx context.Context, email string, password string, name string) (models.User, models.TokenPair, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return models.User{}, models.TokenPair{}, fmt.Errorf("can't use this as password, error=%w", err)
	}

	user, err := s.userRepo.CreateUser(ctx, email, name, hash)
	if err != nil {
		return models.User{}, models.TokenPair{}, err
	}

	pair, err := s.token.Pair(user)
	if err != nil {
		return models.User{}, models.TokenPair{}, fmt.Errorf("token could not be generated, sorry. %w", err)
	}

	return user, pair, nil
}

// Login with email and password
// Returns apperrors.ErrInvalidCredentials for unknown email and wrong
// password alike: the caller must not learn which one it was
func (s *AuthService) Login(ctx context.Context, email string, password string) (models.User, models.TokenPair, error) {
	user, err := s.userRepo.GetUserByEmail(ctx, email)

	hash := user.HashedPassword
	if err != nil {
		hash = s.fakeHash
	}

	if compareErr := s.hasher.Compare(hash, password); compareErr != nil || err != nil {
		return models.User{}, models.TokenPair{}, apperrors.ErrInvalidCredentials
	}

	pair, err := s.token.Pair(user)
	if err != nil {
		return models.User{}, models.TokenPair{}, fmt.Errorf("token could not be generated, sorry. %w", err)
	}

	return user, pair, nil
}

// Refresh verifies the refresh token and issues a completely new pair
// The refresh token rotates on every call
func (s *AuthService) Refresh(ctx context.Context, refresh string) (models.TokenPair, error) {
	claims, err := s.token.ParseRefresh(refresh)
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return models.TokenPair{}, fmt.Errorf("refresh error: %w", apperrors.ErrRefreshTokenExpired)
	default:
		return models.TokenPair{}, fmt.Errorf("refresh error: %w", apperrors.ErrRefreshTokenInvalid)
	}

	user, err := s.userRepo.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("refresh error: %w", apperrors.ErrRefreshTokenInvalid)
	}

	pair, err := s.token.Pair(user)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("token could not be generated, sorry. %w", err)
	}

	return pair, nil
}

// Auth returns the user authenticated by the request bearer token
func (s *AuthService) Auth(ctx context.Context, r *http.Request) (models.User, error) {
	header := r.Header.Get(s.accessHeaderName)

	scheme, access, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, s.accessAuthScheme) {
		return models.User{}, errors.New("no bearer token provided")
	}

	claims, err := s.token.ParseAccess(strings.TrimSpace(access))
	if err != nil {
		return models.User{}, fmt.Errorf("invalid or expired token. Err: %w", err)
	}

	user, err := s.userRepo.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return models.User{}, fmt.Errorf("token user not found. Err: %w", err)
	}

	return user, nil
}
