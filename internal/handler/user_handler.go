package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"hoarding-service/internal/middleware"
	"hoarding-service/internal/model"
	"hoarding-service/internal/policy"
	"hoarding-service/internal/response"
	"hoarding-service/internal/upload"
	"hoarding-service/pkg/database"
	"hoarding-service/pkg/logger"
	"hoarding-service/prometheus"
)

// GetProfile returns the acting user together with its role profile.
func GetProfile(c echo.Context) error {
	log := logger.FromContext(c)
	user := middleware.CurrentUser(c)
	prometheus.RecordResourceOperation("users", "get")

	data := echo.Map{"user": user}

	defer prometheus.TrackDBOperation("query")(time.Now())
	switch user.Role {
	case model.RolePhotographer:
		var profile model.PhotographerProfile
		if err := database.GetDB().Where("user_id = ?", user.ID).First(&profile).Error; err == nil {
			data["profile"] = profile
		}
	case model.RoleClient:
		var profile model.ClientProfile
		if err := database.GetDB().Where("user_id = ?", user.ID).First(&profile).Error; err == nil {
			data["profile"] = profile
		}
	case model.RoleOwner:
	}

	log.Info("Profile retrieved", zap.Uint("user_id", user.ID))
	return response.Success(c, http.StatusOK, "Profile retrieved", data)
}

// UpdateProfile updates the acting user's own mutable fields. Role and
// email are not changeable here.
func UpdateProfile(c echo.Context) error {
	log := logger.FromContext(c)
	user := middleware.CurrentUser(c)
	prometheus.RecordResourceOperation("users", "update")

	var req struct {
		Name          string  `json:"name"`
		Phone         *string `json:"phone"`
		Location      *string `json:"location"`
		Bio           *string `json:"bio"`
		ContactPerson *string `json:"contact_person"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return response.Error(c, http.StatusBadRequest, "Profile update failed", "invalid request body")
	}

	if req.Name != "" {
		user.Name = req.Name
	}
	if req.Phone != nil {
		user.Phone = *req.Phone
	}
	if req.Location != nil {
		user.Location = *req.Location
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := database.GetDB().Save(user).Error; err != nil {
		log.Error("Failed to update profile", zap.Uint("user_id", user.ID), zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "Profile update failed", "could not save profile")
	}

	// Role profile extensions
	if req.Bio != nil && user.Role == model.RolePhotographer {
		database.GetDB().Model(&model.PhotographerProfile{}).
			Where("user_id = ?", user.ID).
			Update("bio", *req.Bio)
	}
	if req.ContactPerson != nil && user.Role == model.RoleClient {
		database.GetDB().Model(&model.ClientProfile{}).
			Where("user_id = ?", user.ID).
			Update("contact_person", *req.ContactPerson)
	}

	log.Info("Profile updated", zap.Uint("user_id", user.ID))
	return response.Success(c, http.StatusOK, "Profile updated", user)
}

// ChangePassword verifies the current password before replacing it.
func ChangePassword(c echo.Context) error {
	log := logger.FromContext(c)
	user := middleware.CurrentUser(c)

	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return response.Error(c, http.StatusBadRequest, "Password change failed", "invalid request body")
	}

	if req.CurrentPassword == "" || req.NewPassword == "" {
		return response.Error(c, http.StatusBadRequest, "Password change failed", "current and new password are required")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.CurrentPassword)); err != nil {
		log.Error("Invalid current password", zap.Uint("user_id", user.ID))
		prometheus.RecordAuthError("invalid_password")
		return response.Error(c, http.StatusUnauthorized, "Password change failed", "current password is incorrect")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "Password change failed", "could not process password")
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := database.GetDB().Model(user).Update("password", string(hashed)).Error; err != nil {
		log.Error("Failed to update password", zap.Uint("user_id", user.ID), zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "Password change failed", "could not save password")
	}

	log.Info("Password changed", zap.Uint("user_id", user.ID))
	return response.Success(c, http.StatusOK, "Password changed", nil)
}

// UploadAvatar stores a new avatar image for the acting user.
func UploadAvatar(c echo.Context) error {
	log := logger.FromContext(c)
	user := middleware.CurrentUser(c)
	prometheus.RecordUpload("avatars")

	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		log.Error("Missing avatar file", zap.Error(err))
		return response.Error(c, http.StatusBadRequest, "Avatar upload failed", "avatar file is required")
	}

	result, err := upload.SaveImage(fileHeader, uploadPath, "avatars", maxFileSize)
	if err != nil {
		return uploadError(c, log, "Avatar upload failed", err)
	}

	// Replace the previous avatar file, if any
	if user.Avatar != "" {
		if err := upload.Remove(uploadPath, user.Avatar); err != nil {
			log.Warn("Failed to remove old avatar", zap.String("path", user.Avatar), zap.Error(err))
		}
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := database.GetDB().Model(user).Update("avatar", result.Path).Error; err != nil {
		log.Error("Failed to save avatar path", zap.Uint("user_id", user.ID), zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "Avatar upload failed", "could not save avatar")
	}

	user.Avatar = result.Path
	log.Info("Avatar uploaded", zap.Uint("user_id", user.ID), zap.String("path", result.Path))
	return response.Success(c, http.StatusOK, "Avatar uploaded", echo.Map{"avatar": result.Path})
}

// ListUsers lists accounts, optionally filtered by role. Owner only.
func ListUsers(c echo.Context) error {
	log := logger.FromContext(c)
	user := middleware.CurrentUser(c)
	prometheus.RecordResourceOperation("users", "list")

	if _, ok := policy.Can(user.Role, policy.ResourceUser, policy.ActionRead); !ok {
		log.Warn("Role not permitted to list users", zap.String("role", string(user.Role)))
		return response.Error(c, http.StatusForbidden, "Access denied", "not permitted to list users")
	}

	query := database.GetDB().Model(&model.User{})
	if role := model.Role(c.QueryParam("role")); role != "" {
		if !role.IsValid() {
			return response.Error(c, http.StatusBadRequest, "Invalid filter", "unknown role")
		}
		query = query.Where("role = ?", role)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var users []model.User
	if err := query.Order("created_at desc").Find(&users).Error; err != nil {
		log.Error("Failed to list users", zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "Listing failed", "could not retrieve users")
	}

	return response.Success(c, http.StatusOK, "Users retrieved", users)
}

// uploadError maps upload validation failures onto the envelope.
func uploadError(c echo.Context, log *zap.Logger, message string, err error) error {
	switch err {
	case upload.ErrFileTooLarge:
		log.Warn("Upload rejected: too large")
		return response.Error(c, http.StatusBadRequest, message, "file exceeds the 5MB limit")
	case upload.ErrNotAnImage:
		log.Warn("Upload rejected: not an image")
		return response.Error(c, http.StatusBadRequest, message, "file must be a JPEG, PNG or GIF image")
	default:
		log.Error("Upload failed", zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, message, "could not store the uploaded file")
	}
}
