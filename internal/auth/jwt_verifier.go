package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	"codefolio/internal/config"
	"codefolio/internal/domain"
	"codefolio/internal/domain/models"
)

// JWTVerifier implements TokenVerifier with golang-jwt. Keys come either
// from a shared HMAC secret or from a JWKS endpoint.
type JWTVerifier struct {
	keyfunc jwt.Keyfunc
	methods []string
	cancel  context.CancelFunc
	logger  *slog.Logger
}

// NewHMACVerifier verifies HS256 tokens signed with secret.
func NewHMACVerifier(secret string, logger *slog.Logger) (*JWTVerifier, error) {
	if secret == "" {
		return nil, errors.New("JWT secret cannot be empty")
	}
	key := []byte(secret)

	return &JWTVerifier{
		keyfunc: func(*jwt.Token) (interface{}, error) { return key, nil },
		methods: []string{jwt.SigningMethodHS256.Alg()},
		logger:  logger,
	}, nil
}

// NewJWKSVerifier verifies RS256/ES256 tokens against keys fetched from jwksURL.
// keyfunc v3 caches the key set and refreshes it in the background until Close.
func NewJWKSVerifier(jwksURL string, logger *slog.Logger) (*JWTVerifier, error) {
	if jwksURL == "" {
		return nil, errors.New("JWKS URL cannot be empty")
	}

	ctx, cancel := context.WithCancel(context.Background())
	jwks, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create JWKS client: %w", err)
	}

	logger.Info("JWT verifier initialized", "jwks_url", jwksURL)

	return &JWTVerifier{
		keyfunc: jwks.Keyfunc,
		methods: []string{"RS256", "ES256"},
		cancel:  cancel,
		logger:  logger,
	}, nil
}

// NewVerifierFromConfig picks JWKS when JWKS_URL is set, HMAC otherwise.
func NewVerifierFromConfig(cfg *config.Config, logger *slog.Logger) (*JWTVerifier, error) {
	if cfg.JWKSURL != "" {
		return NewJWKSVerifier(cfg.JWKSURL, logger)
	}
	return NewHMACVerifier(cfg.JWTSecret, logger)
}

// VerifyToken validates a token and extracts its claims.
func (v *JWTVerifier) VerifyToken(tokenString string) (*models.Claims, error) {
	claims := &models.Claims{}

	// WithValidMethods prevents algorithm confusion
	token, err := jwt.ParseWithClaims(tokenString, claims, v.keyfunc,
		jwt.WithValidMethods(v.methods),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		v.logger.Debug("token parse failed", "error", err)
		return nil, domain.ErrUnauthorized
	}
	if !token.Valid {
		v.logger.Debug("token is invalid after parsing")
		return nil, domain.ErrUnauthorized
	}

	// userId may be missing in tokens from external issuers; fall back to sub
	if claims.UserID == 0 && claims.Subject != "" {
		if id, err := strconv.ParseInt(claims.Subject, 10, 64); err == nil {
			claims.UserID = id
		}
	}
	if claims.UserID == 0 {
		v.logger.Debug("token missing user id")
		return nil, domain.ErrUnauthorized
	}

	return claims, nil
}

// Close stops the JWKS refresh, if any.
func (v *JWTVerifier) Close() error {
	if v.cancel != nil {
		v.cancel()
		v.logger.Info("JWT verifier closed")
	}
	return nil
}

// IssueToken signs an HS256 token for principal, valid for ttl.
func IssueToken(secret string, principal models.Principal, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("JWT secret cannot be empty")
	}

	now := time.Now()
	claims := &models.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(principal.UserID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID:   principal.UserID,
		Username: principal.Username,
		IsAdmin:  principal.IsAdmin,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

var _ TokenVerifier = (*JWTVerifier)(nil)
