package serverutils

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const userIDLocal = "user_id"

var (
	ErrInvalidToken = errors.New("invalid token")
)

// PrincipalOptions configures how a request's principal is resolved.
type PrincipalOptions struct {
	JwtSecret string
	// DemoUserID is used when a request carries no token. uuid.Nil disables
	// the fallback and anonymous requests get a 401.
	DemoUserID uuid.UUID
}

// IssueToken signs an HS256 access token for userID.
func IssueToken(secret string, userID uuid.UUID, role string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID.String(),
		"role":    role,
		"exp":     time.Now().Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseToken verifies tokenStr and returns its user_id claim.
func ParseToken(secret, tokenStr string) (uuid.UUID, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, ErrInvalidToken
	}
	raw, ok := claims["user_id"].(string)
	if !ok {
		return uuid.Nil, ErrInvalidToken
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}
	return userID, nil
}

// BearerToken extracts the token from an "Authorization: Bearer ..." header.
func BearerToken(ctx *fiber.Ctx) string {
	authHeader := ctx.Get(fiber.HeaderAuthorization)
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}

// ResolvePrincipal picks the caller's user id from tokenStr, falling back
// to the demo principal when no token was sent. A bad token is always
// rejected.
func ResolvePrincipal(opts PrincipalOptions, tokenStr string) (uuid.UUID, *AppError) {
	if tokenStr != "" {
		userID, err := ParseToken(opts.JwtSecret, tokenStr)
		if err != nil {
			return uuid.Nil, NewAppError(fiber.StatusUnauthorized, "Invalid token", err)
		}
		return userID, nil
	}
	if opts.DemoUserID == uuid.Nil {
		return uuid.Nil, NewUnauthorized("Missing token")
	}
	return opts.DemoUserID, nil
}

// PrincipalMiddleware stores the caller's user id in Locals.
func PrincipalMiddleware(opts PrincipalOptions) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		userID, appErr := ResolvePrincipal(opts, BearerToken(ctx))
		if appErr != nil {
			return ctx.Status(appErr.Code).JSON(ErrorResponse(appErr.Message))
		}
		ctx.Locals(userIDLocal, userID)
		return ctx.Next()
	}
}

// CurrentUserID returns the principal set by PrincipalMiddleware.
func CurrentUserID(ctx *fiber.Ctx) (uuid.UUID, bool) {
	userID, ok := ctx.Locals(userIDLocal).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		return uuid.Nil, false
	}
	return userID, true
}
