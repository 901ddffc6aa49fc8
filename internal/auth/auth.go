package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/golang-jwt/jwt/v5"
)

const localsUserKey = "auth_user_id"

// ErrNoUser is returned when no authenticated user is attached to the
// request.
var ErrNoUser = errors.New("no authenticated user in request context")

type Config struct {
	// Secret is the HS256 signing key used to verify bearer tokens.
	Secret string
	// DevMode allows resolving the user from the X-User-ID header when no
	// secret is configured. Never enable in production.
	DevMode bool
}

// New returns a middleware that resolves the authenticated user for every
// request and stores it in the request locals. Requests without a
// resolvable user are rejected with 401 before reaching any handler.
func New(cfg Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := resolveUser(c, cfg)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"error": fiber.Map{
					"kind":    "UNAUTHORIZED",
					"message": err.Error(),
				},
			})
		}

		c.Locals(localsUserKey, userID)
		return c.Next()
	}
}

// UserID returns the authenticated user stored by the middleware. Fails
// closed: an absent or empty id is an error, never an anonymous user.
func UserID(c *fiber.Ctx) (string, error) {
	userID, _ := c.Locals(localsUserKey).(string)
	if userID == "" {
		return "", ErrNoUser
	}
	return userID, nil
}

func resolveUser(c *fiber.Ctx, cfg Config) (string, error) {
	if cfg.Secret == "" && cfg.DevMode {
		// Header values are backed by the reused request buffer; copy
		// before the id outlives this request.
		userID := utils.CopyString(strings.TrimSpace(c.Get("X-User-ID")))
		if userID == "" {
			return "", errors.New("missing X-User-ID header")
		}
		return userID, nil
	}

	token, err := bearerToken(c.Get(fiber.HeaderAuthorization))
	if err != nil {
		return "", err
	}

	return parseToken(token, cfg.Secret)
}

func bearerToken(header string) (string, error) {
	parts := strings.Fields(strings.TrimSpace(header))
	if len(parts) == 0 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("missing bearer token")
	}
	if len(parts) != 2 || parts[1] == "" {
		return "", errors.New("invalid bearer token format")
	}
	return parts[1], nil
}

// parseToken verifies the token signature and time claims, then resolves
// the user id from "sub" with "user_id" as a fallback.
func parseToken(tokenString, secret string) (string, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return "", fmt.Errorf("invalid token: %w", err)
	}

	userID, err := claims.GetSubject()
	if err != nil || userID == "" {
		userID, _ = claims["user_id"].(string)
	}

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", errors.New("token subject is required")
	}

	return userID, nil
}
