package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"hoarding-service/internal/middleware"
	"hoarding-service/internal/model"
	"hoarding-service/internal/policy"
	"hoarding-service/internal/response"
	"hoarding-service/internal/upload"
	"hoarding-service/pkg/database"
	"hoarding-service/pkg/logger"
	"hoarding-service/prometheus"
)

// UploadPhoto stores a proof-of-display photo for a hoarding. Image
// metadata is read from the decoded file, not from the request.
func UploadPhoto(c echo.Context) error {
	log := logger.FromContext(c)
	user := middleware.CurrentUser(c)
	prometheus.RecordUpload("photos")

	if _, ok := policy.Can(user.Role, policy.ResourcePhoto, policy.ActionCreate); !ok {
		log.Warn("Role not permitted to upload photos", zap.String("role", string(user.Role)))
		return response.Error(c, http.StatusForbidden, "Access denied", "not permitted to upload photos")
	}

	hoardingID, err := formUint(c, "hoarding_id")
	if err != nil || hoardingID == 0 {
		return response.Error(c, http.StatusBadRequest, "Photo upload failed", "hoarding_id is required")
	}

	// Referenced entities must exist before any write
	defer prometheus.TrackDBOperation("query")(time.Now())
	var hoarding model.Hoarding
	if err := database.GetDB().First(&hoarding, hoardingID).Error; err != nil {
		return response.Error(c, http.StatusNotFound, "Photo upload failed", "hoarding not found")
	}

	var assignmentID *uint
	if raw, err := formUint(c, "assignment_id"); err == nil && raw > 0 {
		var assignment model.Assignment
		if err := database.GetDB().First(&assignment, raw).Error; err != nil {
			return response.Error(c, http.StatusNotFound, "Photo upload failed", "assignment not found")
		}
		if user.Role == model.RolePhotographer && assignment.PhotographerID != user.ID {
			return response.Error(c, http.StatusForbidden, "Access denied", "assignment belongs to another photographer")
		}
		assignmentID = &raw
	}

	fileHeader, err := c.FormFile("photo")
	if err != nil {
		return response.Error(c, http.StatusBadRequest, "Photo upload failed", "photo file is required")
	}

	result, err := upload.SaveImage(fileHeader, uploadPath, "photos", maxFileSize)
	if err != nil {
		return uploadError(c, log, "Photo upload failed", err)
	}

	capturedAt := time.Now()
	if raw := c.FormValue("captured_at"); raw != "" {
		if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
			capturedAt = parsed
		}
	}

	photo := model.Photo{
		Path:         result.Path,
		Caption:      c.FormValue("caption"),
		CapturedAt:   capturedAt,
		SizeBytes:    result.Size,
		Width:        result.Width,
		Height:       result.Height,
		Format:       result.Format,
		Status:       model.PhotoPending,
		HoardingID:   hoardingID,
		UploaderID:   user.ID,
		AssignmentID: assignmentID,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := database.GetDB().Create(&photo).Error; err != nil {
		log.Error("Failed to create photo record", zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "Photo upload failed", "could not save photo")
	}

	if user.Role == model.RolePhotographer {
		database.GetDB().Model(&model.PhotographerProfile{}).
			Where("user_id = ?", user.ID).
			Update("photos_uploaded", gorm.Expr("photos_uploaded + 1"))
	}

	log.Info("Photo uploaded",
		zap.Uint("id", photo.ID),
		zap.Uint("hoarding_id", hoardingID),
		zap.Uint("uploader_id", user.ID))
	return response.Success(c, http.StatusCreated, "Photo uploaded", photo)
}

// ListPhotos lists photos scoped to the acting user's role: owners see
// photos of their hoardings, photographers their own uploads, clients
// the photos of hoardings on their contracts.
func ListPhotos(c echo.Context) error {
	log := logger.FromContext(c)
	user := middleware.CurrentUser(c)
	prometheus.RecordResourceOperation("photos", "list")

	rule, ok := policy.Can(user.Role, policy.ResourcePhoto, policy.ActionRead)
	if !ok {
		return response.Error(c, http.StatusForbidden, "Access denied", "not permitted to list photos")
	}

	query := database.GetDB().Model(&model.Photo{})
	query = scopePhotos(query, user, rule)

	if status := model.PhotoStatus(c.QueryParam("status")); status != "" {
		if !status.IsValid() {
			return response.Error(c, http.StatusBadRequest, "Invalid filter", "unknown status")
		}
		query = query.Where("status = ?", status)
	}
	if hoardingID := c.QueryParam("hoarding_id"); hoardingID != "" {
		query = query.Where("hoarding_id = ?", hoardingID)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var photos []model.Photo
	if err := query.Order("created_at desc").Find(&photos).Error; err != nil {
		log.Error("Failed to list photos", zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "Listing failed", "could not retrieve photos")
	}

	return response.Success(c, http.StatusOK, "Photos retrieved", photos)
}

// GetPhoto retrieves a single photo by id, subject to role scoping.
func GetPhoto(c echo.Context) error {
	log := logger.FromContext(c)
	user := middleware.CurrentUser(c)
	prometheus.RecordResourceOperation("photos", "get")

	id, err := parseID(c)
	if err != nil {
		return response.Error(c, http.StatusBadRequest, "Invalid photo ID", "photo id must be numeric")
	}

	rule, ok := policy.Can(user.Role, policy.ResourcePhoto, policy.ActionRead)
	if !ok {
		return response.Error(c, http.StatusForbidden, "Access denied", "not permitted to view photos")
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var photo model.Photo
	if err := database.GetDB().First(&photo, id).Error; err != nil {
		return response.Error(c, http.StatusNotFound, "Photo not found", "no photo with this id")
	}

	if !photoVisible(&photo, user, rule) {
		log.Warn("Photo not visible to user", zap.Uint("photo_id", photo.ID), zap.Uint("user_id", user.ID))
		return response.Error(c, http.StatusForbidden, "Access denied", "photo is not visible to this account")
	}

	return response.Success(c, http.StatusOK, "Photo retrieved", photo)
}

// UpdatePhotoStatus approves or rejects a photo. Owner only, and only
// for photos of the owner's hoardings.
func UpdatePhotoStatus(c echo.Context) error {
	log := logger.FromContext(c)
	user := middleware.CurrentUser(c)
	prometheus.RecordResourceOperation("photos", "status")

	id, err := parseID(c)
	if err != nil {
		return response.Error(c, http.StatusBadRequest, "Invalid photo ID", "photo id must be numeric")
	}

	rule, ok := policy.Can(user.Role, policy.ResourcePhoto, policy.ActionUpdate)
	if !ok {
		log.Warn("Role not permitted to review photos", zap.String("role", string(user.Role)))
		return response.Error(c, http.StatusForbidden, "Access denied", "only owners review photos")
	}

	var req struct {
		Status model.PhotoStatus `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return response.Error(c, http.StatusBadRequest, "Status update failed", "invalid request body")
	}
	if !req.Status.IsValid() {
		return response.Error(c, http.StatusBadRequest, "Status update failed", "unknown status")
	}

	var photo model.Photo
	if err := database.GetDB().First(&photo, id).Error; err != nil {
		return response.Error(c, http.StatusNotFound, "Photo not found", "no photo with this id")
	}

	if !photoVisible(&photo, user, rule) {
		return response.Error(c, http.StatusForbidden, "Access denied", "photo belongs to another owner's hoarding")
	}

	photo.Status = req.Status

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := database.GetDB().Save(&photo).Error; err != nil {
		log.Error("Failed to update photo status", zap.Uint("id", photo.ID), zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "Status update failed", "could not save photo")
	}

	log.Info("Photo status updated",
		zap.Uint("id", photo.ID),
		zap.String("status", string(photo.Status)))
	return response.Success(c, http.StatusOK, "Photo status updated", photo)
}

// DeletePhoto removes a photo record and its stored file. Owners may
// delete photos of their hoardings; photographers their own uploads.
func DeletePhoto(c echo.Context) error {
	log := logger.FromContext(c)
	user := middleware.CurrentUser(c)
	prometheus.RecordResourceOperation("photos", "delete")

	id, err := parseID(c)
	if err != nil {
		return response.Error(c, http.StatusBadRequest, "Invalid photo ID", "photo id must be numeric")
	}

	rule, ok := policy.Can(user.Role, policy.ResourcePhoto, policy.ActionDelete)
	if !ok {
		return response.Error(c, http.StatusForbidden, "Access denied", "not permitted to delete photos")
	}

	var photo model.Photo
	if err := database.GetDB().First(&photo, id).Error; err != nil {
		return response.Error(c, http.StatusNotFound, "Photo not found", "no photo with this id")
	}

	if !photoVisible(&photo, user, rule) {
		return response.Error(c, http.StatusForbidden, "Access denied", "photo is not visible to this account")
	}

	if err := upload.Remove(uploadPath, photo.Path); err != nil {
		log.Warn("Failed to remove photo file", zap.String("path", photo.Path), zap.Error(err))
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := database.GetDB().Delete(&photo).Error; err != nil {
		log.Error("Failed to delete photo", zap.Uint("id", photo.ID), zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "Photo deletion failed", "could not delete photo")
	}

	log.Info("Photo deleted", zap.Uint("id", photo.ID))
	return response.Success(c, http.StatusOK, "Photo deleted", nil)
}

// scopePhotos narrows a photo query to what the acting user may see.
func scopePhotos(query *gorm.DB, user *model.User, rule policy.Rule) *gorm.DB {
	if rule.OwnerField != "" {
		return query.Where(rule.OwnerField+" = ?", user.ID)
	}
	switch user.Role {
	case model.RoleOwner:
		return query.Where("hoarding_id IN (?)",
			database.GetDB().Model(&model.Hoarding{}).Select("id").Where("owner_id = ?", user.ID))
	case model.RoleClient:
		return query.Where("hoarding_id IN (?)",
			database.GetDB().Model(&model.Contract{}).Select("hoarding_id").Where("client_id = ?", user.ID))
	case model.RolePhotographer:
		return query.Where("uploader_id = ?", user.ID)
	}
	return query
}

// photoVisible reports whether a single photo falls inside the acting
// user's scope.
func photoVisible(photo *model.Photo, user *model.User, rule policy.Rule) bool {
	if rule.OwnerField == "uploader_id" {
		return photo.UploaderID == user.ID
	}
	switch user.Role {
	case model.RoleOwner:
		var count int64
		database.GetDB().Model(&model.Hoarding{}).
			Where("id = ? AND owner_id = ?", photo.HoardingID, user.ID).
			Count(&count)
		return count > 0
	case model.RoleClient:
		var count int64
		database.GetDB().Model(&model.Contract{}).
			Where("hoarding_id = ? AND client_id = ?", photo.HoardingID, user.ID).
			Count(&count)
		return count > 0
	case model.RolePhotographer:
		return photo.UploaderID == user.ID
	}
	return false
}

// formUint parses a multipart form value as an unsigned integer.
func formUint(c echo.Context, name string) (uint, error) {
	raw := c.FormValue(name)
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	return uint(id), err
}
