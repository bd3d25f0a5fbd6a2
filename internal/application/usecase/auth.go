package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/waste3d/coursehub/internal/domain"
	"github.com/waste3d/coursehub/internal/infrastructure/repository"
	"github.com/waste3d/coursehub/internal/infrastructure/security"
	"github.com/waste3d/coursehub/internal/pkg/logger"

	"github.com/google/uuid"
)

// RefreshStore remembers issued refresh tokens so they can be rotated and revoked.
type RefreshStore interface {
	SaveRefresh(ctx context.Context, userID string, refreshToken string) error
	ConsumeRefresh(ctx context.Context, refreshToken string) (string, error)
	DeleteRefresh(ctx context.Context, refreshToken string) error
}

type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type AuthUseCase struct {
	userRepo     *repository.UserRepository
	tokenCache   RefreshStore
	hasher       *security.PasswordHasher
	tokenManager *security.TokenManager
	log          *logger.Logger
}

func NewAuthUseCase(
	ur *repository.UserRepository,
	tc RefreshStore,
	h *security.PasswordHasher,
	tm *security.TokenManager,
	log *logger.Logger,
) *AuthUseCase {
	return &AuthUseCase{
		userRepo:     ur,
		tokenCache:   tc,
		hasher:       h,
		tokenManager: tm,
		log:          log.With("service", "AuthUseCase"),
	}
}

func (uc *AuthUseCase) Register(ctx context.Context, username, email, password string) (*domain.User, Tokens, error) {
	hash, err := uc.hasher.Hash(password)
	if err != nil {
		return nil, Tokens{}, err
	}

	user := &domain.User{
		ID:       uuid.New(),
		Username: strings.TrimSpace(username),
		Email:    strings.ToLower(strings.TrimSpace(email)),
		Password: hash,
	}
	if err := uc.userRepo.Create(ctx, user); err != nil {
		return nil, Tokens{}, err
	}
	uc.log.Info("user registered", "user_id", user.ID, "username", user.Username)

	tokens, err := uc.generateAndSaveTokens(ctx, user.ID)
	if err != nil {
		return nil, Tokens{}, err
	}
	return user, tokens, nil
}

func (uc *AuthUseCase) Login(ctx context.Context, username, password string) (Tokens, error) {
	user, err := uc.userRepo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return Tokens{}, domain.ErrInvalidCredentials
		}
		return Tokens{}, err
	}
	if err := uc.hasher.Compare(user.Password, password); err != nil {
		return Tokens{}, domain.ErrInvalidCredentials
	}
	return uc.generateAndSaveTokens(ctx, user.ID)
}

// Refresh rotates the token pair. The old refresh token stops working.
func (uc *AuthUseCase) Refresh(ctx context.Context, oldRefreshToken string) (Tokens, error) {
	userID, err := uc.tokenManager.ValidateRefreshToken(oldRefreshToken)
	if err != nil {
		return Tokens{}, err
	}

	cachedID, err := uc.tokenCache.ConsumeRefresh(ctx, oldRefreshToken)
	if err != nil {
		return Tokens{}, err
	}
	if cachedID != userID.String() {
		return Tokens{}, domain.ErrInvalidToken
	}

	return uc.generateAndSaveTokens(ctx, userID)
}

func (uc *AuthUseCase) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return uc.tokenCache.DeleteRefresh(ctx, refreshToken)
}

func (uc *AuthUseCase) ValidateAccess(token string) (uuid.UUID, error) {
	return uc.tokenManager.ValidateAccessToken(token)
}

func (uc *AuthUseCase) Me(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	return uc.userRepo.GetByID(ctx, userID)
}

func (uc *AuthUseCase) generateAndSaveTokens(ctx context.Context, userID uuid.UUID) (Tokens, error) {
	access, refresh, err := uc.tokenManager.Generate(userID)
	if err != nil {
		return Tokens{}, err
	}
	if err := uc.tokenCache.SaveRefresh(ctx, userID.String(), refresh); err != nil {
		return Tokens{}, err
	}
	return Tokens{AccessToken: access, RefreshToken: refresh}, nil
}
