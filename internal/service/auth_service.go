package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/techit45/Thai-Vehicle-License-Plate-OCR/internal/domain"
)

var ErrInvalidCredentials = errors.New("ชื่อผู้ใช้หรือรหัสผ่านไม่ถูกต้อง")
var ErrTokenInvalid = errors.New("token ไม่ถูกต้องหรือหมดอายุ")
var ErrAuthDisabled = errors.New("admin login is not configured")

// AuthService authenticates the single admin account configured through
// ADMIN_USERNAME and ADMIN_PASSWORD_HASH.
type AuthService struct {
	username     string
	passwordHash []byte
	jwtSecret    string
	jwtTTL       time.Duration
	now          func() time.Time
}

func NewAuthService(username, passwordHash, jwtSecret string, jwtTTL time.Duration) *AuthService {
	return &AuthService{
		username:     username,
		passwordHash: []byte(passwordHash),
		jwtSecret:    jwtSecret,
		jwtTTL:       jwtTTL,
		now:          time.Now,
	}
}

// HashPassword returns the bcrypt hash to put in ADMIN_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Enabled reports whether both a password hash and a signing secret are
// configured. Without them no token is issued or accepted.
func (s *AuthService) Enabled() bool {
	return len(s.passwordHash) > 0 && s.jwtSecret != ""
}

func (s *AuthService) Login(ctx context.Context, dto domain.LoginUserDTO) (*domain.AuthResponseDTO, error) {
	if !s.Enabled() {
		return nil, ErrAuthDisabled
	}
	if dto.Username != s.username {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(dto.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := s.now()
	expires := now.Add(s.jwtTTL)
	claims := jwt.MapClaims{
		"sub":      s.username,
		"exp":      expires.Unix(),
		"iat":      now.Unix(),
		"role":     domain.RoleAdmin,
		"username": s.username,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.jwtSecret))
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	return &domain.AuthResponseDTO{
		Token:     token,
		Username:  s.username,
		Role:      domain.RoleAdmin,
		ExpiresAt: expires.Unix(),
	}, nil
}

// ValidateToken is used by the auth middleware.
func (s *AuthService) ValidateToken(tokenString string) (jwt.MapClaims, error) {
	if !s.Enabled() {
		return nil, ErrAuthDisabled
	}
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, fmt.Errorf("%w: malformed token", ErrTokenInvalid)
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, fmt.Errorf("%w: token expired", ErrTokenInvalid)
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !token.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
