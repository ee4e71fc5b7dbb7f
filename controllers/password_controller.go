// controllers/password_controller.go
package controllers

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/dkamau/unimart_backend/config"
	"github.com/dkamau/unimart_backend/models"
	"github.com/dkamau/unimart_backend/utils"
)

const resetTokenTTL = 30 * time.Minute

// PasswordController handles the forgot/reset password flow. Reset tokens
// live in Redis with a short TTL and are single use.
type PasswordController struct {
	DB *mongo.Client
}

// NewPasswordController creates a new password controller
func NewPasswordController(db *mongo.Client) *PasswordController {
	return &PasswordController{DB: db}
}

func resetTokenKey(token string) string {
	return "password:reset:" + token
}

// ForgotPassword issues a reset token and emails a reset link. The response
// is identical whether or not the email exists.
func (pc *PasswordController) ForgotPassword(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var req models.ForgotPasswordRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "A valid email is required",
		})
	}

	// Same response whether or not the account exists.
	neutral := func() error {
		return c.JSON(http.StatusOK, models.Response{
			Status:  http.StatusOK,
			Message: "If an account exists for this email, a reset link has been sent",
		})
	}

	email, err := utils.SanitizeEmail(req.Email)
	if err != nil {
		return neutral()
	}

	var user models.User
	err = config.GetCollection(pc.DB, "users").FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		return neutral()
	}

	rdb := config.GetRedisClient()
	if rdb == nil {
		log.Printf("ForgotPassword: redis unavailable, cannot issue reset token")
		return neutral()
	}

	token := uuid.New().String()
	if err := rdb.Set(ctx, resetTokenKey(token), user.ID.Hex(), resetTokenTTL).Err(); err != nil {
		log.Printf("ForgotPassword: failed to store reset token: %v", err)
		return neutral()
	}

	frontendURL := os.Getenv("FRONTEND_URL")
	if frontendURL == "" {
		frontendURL = "https://unimart.co.ke"
	}
	resetLink := fmt.Sprintf("%s/reset-password?token=%s", frontendURL, token)

	body := fmt.Sprintf(`
		<h2>Password Reset</h2>
		<p>Hello %s,</p>
		<p>We received a request to reset your UniMart password. Click the link below to choose a new one. The link expires in 30 minutes.</p>
		<p><a href="%s">Reset your password</a></p>
		<p>If you did not request this, you can safely ignore this email.</p>
	`, user.FullName, resetLink)

	if err := utils.SendEmail(user.Email, "Reset your UniMart password", body); err != nil {
		log.Printf("ForgotPassword: failed to send reset email to %s: %v", user.Email, err)
	}

	return neutral()
}

// ResetPassword consumes a reset token and sets the new password.
func (pc *PasswordController) ResetPassword(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var req models.ResetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Token and a new password of at least 8 characters are required",
		})
	}

	rdb := config.GetRedisClient()
	if rdb == nil {
		return c.JSON(http.StatusServiceUnavailable, models.Response{
			Status:  http.StatusServiceUnavailable,
			Message: "Password reset is temporarily unavailable",
		})
	}

	userIDHex, err := rdb.Get(ctx, resetTokenKey(req.Token)).Result()
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid or expired reset token",
		})
	}

	hashedPassword, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		log.Printf("ResetPassword: failed to hash password: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to reset password",
		})
	}

	userID, err := primitive.ObjectIDFromHex(userIDHex)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid reset token",
		})
	}

	result, err := config.GetCollection(pc.DB, "users").UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{"password": hashedPassword, "updatedAt": time.Now()}},
	)
	if err != nil || result.MatchedCount == 0 {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to reset password",
		})
	}

	// Single use: burn the token once the password is set.
	if err := rdb.Del(ctx, resetTokenKey(req.Token)).Err(); err != nil {
		log.Printf("ResetPassword: failed to delete used token: %v", err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Password reset successfully. Please log in with your new password.",
	})
}
