package middleware

import (
	"agriconnect/database"
	"agriconnect/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// CurrentUser loads the authenticated user row for the userId set by
// JWTMiddleware. Capability checks must see the persisted role and admin flag,
// not whatever the token was minted with.
func CurrentUser(c *fiber.Ctx) (*models.User, error) {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}

	var user models.User
	err := database.Database.Db.Where("id = ? AND is_deleted = false", userID).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// RequireAdmin rejects the request unless the authenticated user is an admin.
func RequireAdmin(c *fiber.Ctx) error {
	user, err := CurrentUser(c)
	if err != nil {
		return JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized: user not found!", nil)
	}

	if !user.IsAdmin {
		return JsonResponse(c, fiber.StatusForbidden, false, "Admin access required!", nil)
	}

	c.Locals("currentUser", user)
	return c.Next()
}
