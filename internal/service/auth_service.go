package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/makkenzo/entitlement-service/internal/config"
	"github.com/makkenzo/entitlement-service/internal/ierr"
	"github.com/makkenzo/entitlement-service/internal/util"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const adminIssuer = "entitlement-service"

type AdminClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// AuthService authenticates the single admin account and issues session
// tokens for the admin API.
type AuthService struct {
	username     string
	passwordHash []byte
	jwtSecret    []byte
	sessionTTL   time.Duration
	logger       *zap.Logger
}

func NewAuthService(cfg *config.AdminConfig, logger *zap.Logger) (*AuthService, error) {
	log := logger.Named("AuthService")

	if cfg.Password == "" && !cfg.Debug {
		return nil, fmt.Errorf("admin password is required")
	}

	var hash []byte
	if cfg.Password != "" {
		var err error
		hash, err = bcrypt.GenerateFromPassword([]byte(cfg.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash admin password: %w", err)
		}
	}

	secret := cfg.JWTSecret
	if secret == "" {
		generated, err := util.RandomString(util.Alphanumeric, 48)
		if err != nil {
			return nil, err
		}
		secret = generated
		log.Warn("No admin JWT secret configured, sessions will not survive a restart")
	}

	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}

	return &AuthService{
		username:     cfg.Username,
		passwordHash: hash,
		jwtSecret:    []byte(secret),
		sessionTTL:   ttl,
		logger:       log,
	}, nil
}

func (s *AuthService) Login(_ context.Context, username, password string) (string, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.username)) == 1
	if s.passwordHash == nil || bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)) != nil || !userOK {
		s.logger.Info("Admin login rejected", zap.String("username", username))
		return "", ierr.ErrInvalidCredentials
	}

	now := time.Now()
	claims := &AdminClaims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			Issuer:    adminIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.sessionTTL)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}

	s.logger.Info("Admin logged in", zap.String("username", username))
	return token, nil
}

func (s *AuthService) SessionTTL() time.Duration {
	return s.sessionTTL
}

func (s *AuthService) ValidateToken(_ context.Context, rawToken string) (*AdminClaims, error) {
	token, err := jwt.ParseWithClaims(rawToken, &AdminClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithIssuer(adminIssuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			s.logger.Debug("Admin session expired")
		}
		return nil, fmt.Errorf("%w: %v", ierr.ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*AdminClaims)
	if !ok || !token.Valid {
		return nil, ierr.ErrInvalidToken
	}
	return claims, nil
}
