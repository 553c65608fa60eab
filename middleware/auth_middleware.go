package middleware

import (
	"fmt"
	"log"
	"strings"

	"github.com/anjiri1684/learnhub/models"
	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v3"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const currentUserKey = "currentUser"

// Protected verifies the bearer token and mirrors the caller into the users
// table. Blocked users are turned away after the upsert.
func Protected(secret string, db *gorm.DB) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:   []byte(secret),
		ErrorHandler: jwtError,
		SuccessHandler: func(c *fiber.Ctx) error {
			token := c.Locals("user").(*jwt.Token)
			claims := token.Claims.(jwt.MapClaims)
			return loadUser(c, db, claims)
		},
	})
}

func jwtError(c *fiber.Ctx, err error) error {
	if strings.EqualFold(err.Error(), "Missing or malformed JWT") {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"status": "error", "message": "Missing or malformed JWT", "data": nil})
	}
	return c.Status(fiber.StatusUnauthorized).
		JSON(fiber.Map{"status": "error", "message": "Invalid or expired JWT", "data": nil})
}

func loadUser(c *fiber.Ctx, db *gorm.DB, claims jwt.MapClaims) error {
	user, err := userFromClaims(claims)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	}

	stored, err := SyncUser(db.WithContext(c.UserContext()), user)
	if err != nil {
		log.Printf("🔥 Failed to sync user %s: %v", user.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load user"})
	}
	if stored.IsBlocked {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Your account has been blocked"})
	}

	c.Locals(currentUserKey, *stored)
	return c.Next()
}

func userFromClaims(claims jwt.MapClaims) (models.User, error) {
	rawID, _ := claims["user_id"].(string)
	userID, err := uuid.Parse(rawID)
	if err != nil {
		return models.User{}, errors.New("Invalid user_id claim")
	}
	role, _ := claims["role"].(string)
	if !models.IsValidRole(role) {
		role = models.RoleStudent
	}
	fullName, _ := claims["full_name"].(string)
	email, _ := claims["email"].(string)
	return models.User{ID: userID, FullName: fullName, Email: email, Role: role}, nil
}

// SyncUser upserts the identity fields carried by the token and returns the
// stored row. is_blocked is never overwritten.
func SyncUser(db *gorm.DB, user models.User) (*models.User, error) {
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"full_name", "email", "role", "updated_at"}),
	}).Create(&user).Error
	if err != nil {
		return nil, errors.Wrap(err, "upsert user")
	}
	var stored models.User
	if err := db.First(&stored, "id = ?", user.ID).Error; err != nil {
		return nil, errors.Wrap(err, "reload user")
	}
	return &stored, nil
}

// ParseToken validates an HS256 token outside the header flow, e.g. for the
// websocket upgrade.
func ParseToken(tokenString, secret string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

// CurrentUser returns the caller stored by Protected.
func CurrentUser(c *fiber.Ctx) (models.User, bool) {
	user, ok := c.Locals(currentUserKey).(models.User)
	return user, ok
}

func AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := CurrentUser(c)
		if !ok || user.Role != models.RoleAdmin {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Forbidden: Admin access required",
			})
		}
		return c.Next()
	}
}

func RolesRequired(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := CurrentUser(c)
		if ok {
			for _, role := range roles {
				if user.Role == role {
					return c.Next()
				}
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": fmt.Sprintf("Forbidden: one of %v roles required", roles),
		})
	}
}
