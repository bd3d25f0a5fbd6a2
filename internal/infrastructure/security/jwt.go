package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/waste3d/coursehub/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

type TokenManager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewTokenManager(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenManager {
	return &TokenManager{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

func (m *TokenManager) AccessTTL() time.Duration  { return m.accessTTL }
func (m *TokenManager) RefreshTTL() time.Duration { return m.refreshTTL }

// Generate returns an access and a refresh token for the user.
func (m *TokenManager) Generate(userID uuid.UUID) (string, string, error) {
	now := time.Now()

	at := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  userID.String(),
		"iat":  now.Unix(),
		"exp":  now.Add(m.accessTTL).Unix(),
		"type": tokenTypeAccess,
	})
	accessToken, err := at.SignedString(m.accessSecret)
	if err != nil {
		return "", "", err
	}

	// jti keeps two refresh tokens issued in the same second distinct
	rt := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  userID.String(),
		"iat":  now.Unix(),
		"exp":  now.Add(m.refreshTTL).Unix(),
		"jti":  uuid.NewString(),
		"type": tokenTypeRefresh,
	})
	refreshToken, err := rt.SignedString(m.refreshSecret)
	if err != nil {
		return "", "", err
	}

	return accessToken, refreshToken, nil
}

func (m *TokenManager) ValidateAccessToken(tokenStr string) (uuid.UUID, error) {
	return m.validate(tokenStr, m.accessSecret, tokenTypeAccess)
}

func (m *TokenManager) ValidateRefreshToken(tokenStr string) (uuid.UUID, error) {
	return m.validate(tokenStr, m.refreshSecret, tokenTypeRefresh)
}

func (m *TokenManager) validate(tokenStr string, secret []byte, wantType string) (uuid.UUID, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return uuid.Nil, domain.ErrInvalidToken
	}
	if typ, _ := claims["type"].(string); typ != wantType {
		return uuid.Nil, domain.ErrInvalidToken
	}
	sub, _ := claims["sub"].(string)
	id, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, domain.ErrInvalidToken
	}
	return id, nil
}
