package auth

import (
	"strings"

	"erp-backend/internal/config"
	"erp-backend/internal/database"
	"erp-backend/internal/logger"
	"erp-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func LoginHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		body.Email = strings.TrimSpace(strings.ToLower(body.Email))

		var user models.User
		if err := database.DB.Where("email = ?", body.Email).First(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Wrong email or password")
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.Password)); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Wrong email or password")
		}

		token, err := GenerateToken(cfg.JWTSecret, &user)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create token")
		}

		return c.JSON(fiber.Map{
			"success": true,
			"data": fiber.Map{
				"token": token,
				"user": fiber.Map{
					"id":    user.ID,
					"name":  user.Name,
					"email": user.Email,
					"role":  user.Role,
				},
			},
		})
	}
}

func MeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var user models.User
		if userID, ok := c.Locals(CtxUserIDKey).(uint); ok {
			if err := database.DB.First(&user, userID).Error; err == nil {
				return c.JSON(fiber.Map{
					"success": true,
					"data": fiber.Map{
						"user_id": user.ID,
						"name":    user.Name,
						"email":   user.Email,
						"role":    user.Role,
					},
				})
			}
		}
		return fiber.NewError(fiber.StatusUnauthorized, "User not found")
	}
}

// SeedAdmin creates the configured admin account on first boot. A missing
// ADMIN_PASSWORD skips seeding so existing deployments are untouched.
func SeedAdmin(cfg *config.Config) {
	log := logger.WithModule("auth")

	if cfg.AdminPassword == "" {
		return
	}

	var count int64
	database.DB.Model(&models.User{}).
		Where("role = ?", models.RoleAdmin).
		Count(&count)
	if count > 0 {
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		log.WithError(err).Error("could not hash admin password")
		return
	}

	user := models.User{
		Name:         "Administrator",
		Email:        strings.ToLower(cfg.AdminEmail),
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
	}
	if err := database.DB.Create(&user).Error; err != nil {
		log.WithError(err).Error("could not seed admin user")
		return
	}
	log.WithField("email", user.Email).Info("admin user seeded")
}
