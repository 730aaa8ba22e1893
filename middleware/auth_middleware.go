package middleware

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v3"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"github.com/anjiri1684/wellness_booking/models"
)

var ErrInvalidClaims = errors.New("token claims are invalid")

// Identity is the authenticated caller extracted from an access token.
type Identity struct {
	UserID uuid.UUID
	Role   models.Role
	Email  string
}

func Protected(secret string) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:    []byte(secret),
		SigningMethod: "HS256",
		ErrorHandler:  jwtError,
	})
}

func jwtError(c *fiber.Ctx, err error) error {
	if err.Error() == "Missing or malformed JWT" {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"status": "error", "message": "Missing or malformed JWT", "data": nil})
	}
	return c.Status(fiber.StatusUnauthorized).
		JSON(fiber.Map{"status": "error", "message": "Invalid or expired JWT", "data": nil})
}

func AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := CurrentUser(c)
		if err != nil || id.Role != models.RoleAdmin {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Forbidden: Admin access required",
			})
		}
		return c.Next()
	}
}

// CurrentUser reads the identity stored by Protected.
func CurrentUser(c *fiber.Ctx) (Identity, error) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return Identity{}, ErrInvalidClaims
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, ErrInvalidClaims
	}
	return identityFrom(claims)
}

// ParseToken validates a raw HS256 token outside the HTTP middleware chain.
func ParseToken(secret, raw string) (Identity, error) {
	token, err := jwt.Parse(raw, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return Identity{}, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return Identity{}, ErrInvalidClaims
	}
	return identityFrom(claims)
}

func identityFrom(claims jwt.MapClaims) (Identity, error) {
	rawID, _ := claims["user_id"].(string)
	userID, err := uuid.Parse(rawID)
	if err != nil {
		return Identity{}, ErrInvalidClaims
	}
	role, _ := claims["role"].(string)
	email, _ := claims["email"].(string)
	return Identity{UserID: userID, Role: models.Role(role), Email: email}, nil
}
