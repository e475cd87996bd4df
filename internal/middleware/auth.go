// Package middleware provides authentication and authorization middleware for the application.
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"chirp/internal/cache"
	"chirp/internal/config"
	"chirp/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ViewerLocalKey is the Fiber locals key holding the request's models.ViewerContext.
const ViewerLocalKey = "viewer"

var cfg *config.Config

// InitMiddleware initializes authentication middleware with the given config.
func InitMiddleware(c *config.Config) {
	cfg = c
}

// Claims is the access token payload. Subject carries the user id.
type Claims struct {
	Verify models.VerifyStatus `json:"verify"`
	jwt.RegisteredClaims
}

var (
	errMissingSubject = errors.New("token has no subject")
	errRevoked        = errors.New("token has been revoked")
)

// IssueToken signs an access token for userID.
func IssueToken(c *config.Config, userID uint, verify models.VerifyStatus, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Verify: verify,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			Issuer:    c.JWTIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}
	if c.JWTAudience != "" {
		claims.Audience = jwt.ClaimStrings{c.JWTAudience}
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(c.JWTSecret))
}

func parseToken(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if cfg.JWTIssuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.JWTIssuer))
	}
	if cfg.JWTAudience != "" {
		opts = append(opts, jwt.WithAudience(cfg.JWTAudience))
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(cfg.JWTSecret), nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, errMissingSubject
	}
	return claims, nil
}

// revoked reports whether the token id is on the Redis blacklist. Redis errors fail open.
func revoked(ctx context.Context, rdb *redis.Client, jti string) bool {
	if rdb == nil || jti == "" {
		return false
	}
	n, err := rdb.Exists(ctx, cache.BlacklistKey(jti)).Result()
	if err != nil {
		Logger.WarnContext(ctx, "token blacklist check failed", slog.String("error", err.Error()))
		return false
	}
	return n > 0
}

// ResolveViewer attaches a ViewerContext to every request. Requests without an
// Authorization header are anonymous; a header that does not carry a valid token is rejected.
func ResolveViewer(rdb *redis.Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			c.Locals(ViewerLocalKey, models.Guest())
			return c.Next()
		}

		tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || tokenString == "" {
			return unauthorized(c, "Invalid authorization header format")
		}

		claims, err := parseToken(tokenString)
		if err != nil {
			return unauthorized(c, "Invalid or expired token")
		}

		userID, err := strconv.ParseUint(claims.Subject, 10, 32)
		if err != nil || userID == 0 {
			return unauthorized(c, "Invalid user ID in token")
		}

		if revoked(c.UserContext(), rdb, claims.ID) {
			return unauthorized(c, errRevoked.Error())
		}

		c.Locals(ViewerLocalKey, models.ViewerContext{UserID: uint(userID), Verify: claims.Verify})
		return c.Next()
	}
}

// ViewerFrom returns the request's viewer, or the anonymous viewer when none was resolved.
func ViewerFrom(c *fiber.Ctx) models.ViewerContext {
	if v, ok := c.Locals(ViewerLocalKey).(models.ViewerContext); ok {
		return v
	}
	return models.Guest()
}

// ViewerRequired rejects anonymous requests.
func ViewerRequired(c *fiber.Ctx) error {
	if ViewerFrom(c).Anonymous() {
		return unauthorized(c, "Authorization header required")
	}
	return c.Next()
}

// VerifiedRequired rejects anonymous requests and accounts that are not verified.
func VerifiedRequired(c *fiber.Ctx) error {
	viewer := ViewerFrom(c)
	if viewer.Anonymous() {
		return unauthorized(c, "Authorization header required")
	}
	if !viewer.Verified() {
		return models.RespondWithError(c, fiber.StatusForbidden, models.NewVerificationRequiredError())
	}
	return c.Next()
}

func unauthorized(c *fiber.Ctx, message string) error {
	return models.RespondWithError(c, fiber.StatusUnauthorized, models.NewAuthenticationRequiredError(message))
}
