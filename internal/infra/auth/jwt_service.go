// Package auth provides concrete implementations for authentication-related domain services.
package auth

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"bazaar/config"
	"bazaar/internal/domain/entity"
	"bazaar/internal/domain/service"
	"bazaar/internal/errors"
)

const (
	bearerTokenTTL = 7 * 24 * time.Hour

	tokenKindBearer  = "bearer"
	tokenKindSession = "session"

	// Used only outside production when a secret is not configured.
	devBearerSecret  = "bazaar-development-bearer-secret"
	devSessionSecret = "bazaar-development-session-secret"
)

// ErrMissingSecret is returned at startup when production runs without signing secrets.
var ErrMissingSecret = errors.New("token signing secrets must be configured in production")

type bearerClaims struct {
	Email    string `json:"email"`
	Provider string `json:"provider"`
	Kind     string `json:"typ"`
	jwt.RegisteredClaims
}

type sessionClaims struct {
	SessionID string `json:"sid"`
	Kind      string `json:"typ"`
	jwt.RegisteredClaims
}

// jwtService is a concrete implementation of the TokenService interface using HS256 JWTs.
type jwtService struct {
	bearerSecret  []byte
	sessionSecret []byte
	bearerTTL     time.Duration
	now           func() time.Time
}

// NewJWTService builds the token service. In production a missing secret fails startup;
// elsewhere a fixed development secret is substituted with a warning.
func NewJWTService(cfg *config.Config, logger *slog.Logger) (service.TokenService, error) {
	bearerSecret, sessionSecret := cfg.SecretKey.Bearer, cfg.SecretKey.Session

	if bearerSecret == "" || sessionSecret == "" {
		if cfg.IsProduction() {
			return nil, ErrMissingSecret
		}

		logger.Warn("Token secrets not configured, using development secrets",
			slog.String("env", cfg.Env.Env),
		)

		if bearerSecret == "" {
			bearerSecret = devBearerSecret
		}
		if sessionSecret == "" {
			sessionSecret = devSessionSecret
		}
	}

	return newJWTService(bearerSecret, sessionSecret, time.Now), nil
}

func newJWTService(bearerSecret, sessionSecret string, now func() time.Time) *jwtService {
	return &jwtService{
		bearerSecret:  []byte(bearerSecret),
		sessionSecret: []byte(sessionSecret),
		bearerTTL:     bearerTokenTTL,
		now:           now,
	}
}

func (s *jwtService) BearerTTL() time.Duration {
	return s.bearerTTL
}

// IssueBearer creates a bearer token carrying the local user id, email and provider.
func (s *jwtService) IssueBearer(userID int64, email string, provider entity.ProviderType) (string, error) {
	issuedAt := s.now()
	claims := bearerClaims{
		Email:    email,
		Provider: provider.String(),
		Kind:     tokenKindBearer,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.bearerTTL)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.bearerSecret)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign bearer token")
	}

	return signed, nil
}

// VerifyBearer checks signature, kind and expiry of a bearer token.
func (s *jwtService) VerifyBearer(tokenString string) (*entity.BearerClaims, error) {
	claims := &bearerClaims{}
	if err := s.parse(tokenString, claims, s.bearerSecret); err != nil {
		return nil, err
	}

	if claims.Kind != tokenKindBearer {
		return nil, service.ErrTokenInvalid
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return nil, service.ErrTokenInvalid
	}

	result := &entity.BearerClaims{
		UserID:   userID,
		Email:    claims.Email,
		Provider: entity.ProviderType(claims.Provider),
	}
	if claims.IssuedAt != nil {
		result.IssuedAt = claims.IssuedAt.UTC()
	}
	if claims.ExpiresAt != nil {
		result.ExpiresAt = claims.ExpiresAt.UTC()
	}

	return result, nil
}

// IssueSession signs a platform session id for the session cookie.
func (s *jwtService) IssueSession(sessionID uuid.UUID, userID int64, expiresAt time.Time) (string, error) {
	claims := sessionClaims{
		SessionID: sessionID.String(),
		Kind:      tokenKindSession,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(s.now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.sessionSecret)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign session token")
	}

	return signed, nil
}

// VerifySession decodes a session cookie without touching storage.
func (s *jwtService) VerifySession(tokenString string) (*entity.SessionClaims, error) {
	claims := &sessionClaims{}
	if err := s.parse(tokenString, claims, s.sessionSecret); err != nil {
		return nil, err
	}

	if claims.Kind != tokenKindSession {
		return nil, service.ErrTokenInvalid
	}

	sessionID, err := uuid.Parse(claims.SessionID)
	if err != nil {
		return nil, service.ErrTokenInvalid
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return nil, service.ErrTokenInvalid
	}

	result := &entity.SessionClaims{
		SessionID: sessionID,
		UserID:    userID,
	}
	if claims.ExpiresAt != nil {
		result.ExpiresAt = claims.ExpiresAt.UTC()
	}

	return result, nil
}

func (s *jwtService) parse(tokenString string, claims jwt.Claims, secret []byte) error {
	if tokenString == "" {
		return service.ErrTokenInvalid
	}

	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		// Ensure the signing method is what we expect.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}

		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err == nil {
		return nil
	}

	if errors.Is(err, jwt.ErrTokenExpired) {
		return service.ErrTokenExpired
	}

	return errors.Wrap(service.ErrTokenInvalid, err.Error())
}
