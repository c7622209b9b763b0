package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"hoarding-service/internal/middleware"
	"hoarding-service/internal/model"
	"hoarding-service/internal/policy"
	"hoarding-service/internal/response"
	"hoarding-service/internal/sequence"
	"hoarding-service/internal/upload"
	"hoarding-service/pkg/database"
	"hoarding-service/pkg/logger"
	"hoarding-service/prometheus"
)

// HoardingRequest defines the structure for hoarding creation/update requests
type HoardingRequest struct {
	Name      string               `json:"name"`
	Address   string               `json:"address"`
	City      string               `json:"city"`
	State     string               `json:"state"`
	Country   string               `json:"country"`
	ZipCode   string               `json:"zip_code"`
	Latitude  *float64             `json:"latitude"`
	Longitude *float64             `json:"longitude"`
	Width     float64              `json:"width"`
	Height    float64              `json:"height"`
	SizeUnit  string               `json:"size_unit"`
	DailyRate float64              `json:"daily_rate"`
	Status    model.HoardingStatus `json:"status"`
}

// CreateHoarding creates a new hoarding owned by the acting user.
func CreateHoarding(c echo.Context) error {
	log := logger.FromContext(c)
	user := middleware.CurrentUser(c)
	prometheus.RecordResourceOperation("hoardings", "create")

	if _, ok := policy.Can(user.Role, policy.ResourceHoarding, policy.ActionCreate); !ok {
		log.Warn("Role not permitted to create hoardings", zap.String("role", string(user.Role)))
		return response.Error(c, http.StatusForbidden, "Access denied", "not permitted to create hoardings")
	}

	var req HoardingRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return response.Error(c, http.StatusBadRequest, "Hoarding creation failed", "invalid request body")
	}

	if req.Name == "" || req.Address == "" || req.City == "" {
		return response.Error(c, http.StatusBadRequest, "Hoarding creation failed", "name, address and city are required")
	}
	if req.DailyRate <= 0 {
		return response.Error(c, http.StatusBadRequest, "Hoarding creation failed", "daily_rate must be positive")
	}

	status := req.Status
	if status == "" {
		status = model.HoardingActive
	}
	if !status.IsValid() {
		return response.Error(c, http.StatusBadRequest, "Hoarding creation failed", "unknown status")
	}

	number, err := sequence.Next(database.GetDB(), sequence.KindHoarding, time.Now().Year())
	if err != nil {
		log.Error("Failed to generate hoarding number", zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "Hoarding creation failed", "could not generate hoarding number")
	}

	hoarding := model.Hoarding{
		Number:    number,
		Name:      req.Name,
		Address:   req.Address,
		City:      req.City,
		State:     req.State,
		Country:   req.Country,
		ZipCode:   req.ZipCode,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Width:     req.Width,
		Height:    req.Height,
		SizeUnit:  req.SizeUnit,
		DailyRate: req.DailyRate,
		Status:    status,
		OwnerID:   user.ID,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := database.GetDB().Create(&hoarding).Error; err != nil {
		log.Error("Failed to create hoarding", zap.String("name", req.Name), zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "Hoarding creation failed", "could not create hoarding")
	}

	go refreshActiveHoardings()

	log.Info("Hoarding created",
		zap.Uint("id", hoarding.ID),
		zap.String("number", hoarding.Number),
		zap.Uint("owner_id", user.ID))
	return response.Success(c, http.StatusCreated, "Hoarding created", hoarding)
}

// ListHoardings lists the acting owner's hoardings with optional
// status/city filters.
func ListHoardings(c echo.Context) error {
	log := logger.FromContext(c)
	user := middleware.CurrentUser(c)
	prometheus.RecordResourceOperation("hoardings", "list")

	rule, ok := policy.Can(user.Role, policy.ResourceHoarding, policy.ActionRead)
	if !ok {
		return response.Error(c, http.StatusForbidden, "Access denied", "not permitted to list hoardings")
	}

	query := database.GetDB().Model(&model.Hoarding{}).Preload("Images")
	if rule.OwnerField != "" {
		query = query.Where(rule.OwnerField+" = ?", user.ID)
	}

	if status := model.HoardingStatus(c.QueryParam("status")); status != "" {
		if !status.IsValid() {
			return response.Error(c, http.StatusBadRequest, "Invalid filter", "unknown status")
		}
		query = query.Where("status = ?", status)
	}
	if city := c.QueryParam("city"); city != "" {
		query = query.Where("LOWER(city) = LOWER(?)", city)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var hoardings []model.Hoarding
	if err := query.Order("created_at desc").Find(&hoardings).Error; err != nil {
		log.Error("Failed to list hoardings", zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "Listing failed", "could not retrieve hoardings")
	}

	return response.Success(c, http.StatusOK, "Hoardings retrieved", hoardings)
}

// GetHoarding retrieves a single hoarding by id.
func GetHoarding(c echo.Context) error {
	log := logger.FromContext(c)
	user := middleware.CurrentUser(c)
	prometheus.RecordResourceOperation("hoardings", "get")

	hoarding, errResp := loadHoarding(c, user, policy.ActionRead)
	if hoarding == nil {
		return errResp
	}

	log.Info("Hoarding retrieved", zap.Uint("id", hoarding.ID))
	return response.Success(c, http.StatusOK, "Hoarding retrieved", hoarding)
}

// UpdateHoarding updates mutable fields of a hoarding. The number is
// never reassigned.
func UpdateHoarding(c echo.Context) error {
	log := logger.FromContext(c)
	user := middleware.CurrentUser(c)
	prometheus.RecordResourceOperation("hoardings", "update")

	hoarding, errResp := loadHoarding(c, user, policy.ActionUpdate)
	if hoarding == nil {
		return errResp
	}

	var req HoardingRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return response.Error(c, http.StatusBadRequest, "Hoarding update failed", "invalid request body")
	}

	if req.Status != "" {
		if !req.Status.IsValid() {
			return response.Error(c, http.StatusBadRequest, "Hoarding update failed", "unknown status")
		}
		hoarding.Status = req.Status
	}
	if req.Name != "" {
		hoarding.Name = req.Name
	}
	if req.Address != "" {
		hoarding.Address = req.Address
	}
	if req.City != "" {
		hoarding.City = req.City
	}
	if req.State != "" {
		hoarding.State = req.State
	}
	if req.Country != "" {
		hoarding.Country = req.Country
	}
	if req.ZipCode != "" {
		hoarding.ZipCode = req.ZipCode
	}
	if req.Latitude != nil {
		hoarding.Latitude = req.Latitude
	}
	if req.Longitude != nil {
		hoarding.Longitude = req.Longitude
	}
	if req.Width > 0 {
		hoarding.Width = req.Width
	}
	if req.Height > 0 {
		hoarding.Height = req.Height
	}
	if req.SizeUnit != "" {
		hoarding.SizeUnit = req.SizeUnit
	}
	if req.DailyRate > 0 {
		hoarding.DailyRate = req.DailyRate
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := database.GetDB().Save(hoarding).Error; err != nil {
		log.Error("Failed to update hoarding", zap.Uint("id", hoarding.ID), zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "Hoarding update failed", "could not save hoarding")
	}

	go refreshActiveHoardings()

	log.Info("Hoarding updated", zap.Uint("id", hoarding.ID))
	return response.Success(c, http.StatusOK, "Hoarding updated", hoarding)
}

// DeleteHoarding removes a hoarding and its stored image files.
// Dependent assignments, contracts and photos are left untouched.
func DeleteHoarding(c echo.Context) error {
	log := logger.FromContext(c)
	user := middleware.CurrentUser(c)
	prometheus.RecordResourceOperation("hoardings", "delete")

	hoarding, errResp := loadHoarding(c, user, policy.ActionDelete)
	if hoarding == nil {
		return errResp
	}

	for _, img := range hoarding.Images {
		if err := upload.Remove(uploadPath, img.Path); err != nil {
			log.Warn("Failed to remove hoarding image file",
				zap.String("path", img.Path), zap.Error(err))
		}
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := database.GetDB().Where("hoarding_id = ?", hoarding.ID).Delete(&model.HoardingImage{}).Error; err != nil {
		log.Error("Failed to delete hoarding images", zap.Uint("id", hoarding.ID), zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "Hoarding deletion failed", "could not delete hoarding images")
	}
	if err := database.GetDB().Delete(hoarding).Error; err != nil {
		log.Error("Failed to delete hoarding", zap.Uint("id", hoarding.ID), zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "Hoarding deletion failed", "could not delete hoarding")
	}

	go refreshActiveHoardings()

	log.Info("Hoarding deleted", zap.Uint("id", hoarding.ID), zap.String("number", hoarding.Number))
	return response.Success(c, http.StatusOK, "Hoarding deleted", nil)
}

// UploadHoardingImages appends one or more images to a hoarding.
func UploadHoardingImages(c echo.Context) error {
	log := logger.FromContext(c)
	user := middleware.CurrentUser(c)
	prometheus.RecordUpload("hoardings")

	hoarding, errResp := loadHoarding(c, user, policy.ActionUpdate)
	if hoarding == nil {
		return errResp
	}

	form, err := c.MultipartForm()
	if err != nil {
		log.Error("Invalid multipart form", zap.Error(err))
		return response.Error(c, http.StatusBadRequest, "Image upload failed", "multipart form is required")
	}
	files := form.File["images"]
	if len(files) == 0 {
		return response.Error(c, http.StatusBadRequest, "Image upload failed", "at least one image is required")
	}

	position := len(hoarding.Images)
	var added []model.HoardingImage
	for _, fileHeader := range files {
		result, err := upload.SaveImage(fileHeader, uploadPath, "hoardings", maxFileSize)
		if err != nil {
			return uploadError(c, log, "Image upload failed", err)
		}
		added = append(added, model.HoardingImage{
			HoardingID: hoarding.ID,
			Position:   position,
			Path:       result.Path,
		})
		position++
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := database.GetDB().Create(&added).Error; err != nil {
		log.Error("Failed to save hoarding images", zap.Uint("id", hoarding.ID), zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "Image upload failed", "could not save images")
	}

	log.Info("Hoarding images uploaded",
		zap.Uint("id", hoarding.ID),
		zap.Int("count", len(added)))
	return response.Success(c, http.StatusOK, "Images uploaded", added)
}

// RemoveHoardingImage deletes a single image path from a hoarding along
// with its stored file.
func RemoveHoardingImage(c echo.Context) error {
	log := logger.FromContext(c)
	user := middleware.CurrentUser(c)
	prometheus.RecordResourceOperation("hoardings", "update")

	hoarding, errResp := loadHoarding(c, user, policy.ActionUpdate)
	if hoarding == nil {
		return errResp
	}

	var req struct {
		Path string `json:"path"`
	}
	if err := c.Bind(&req); err != nil || req.Path == "" {
		return response.Error(c, http.StatusBadRequest, "Image removal failed", "image path is required")
	}

	var image model.HoardingImage
	if err := database.GetDB().Where("hoarding_id = ? AND path = ?", hoarding.ID, req.Path).First(&image).Error; err != nil {
		return response.Error(c, http.StatusNotFound, "Image removal failed", "image not found on this hoarding")
	}

	if err := upload.Remove(uploadPath, image.Path); err != nil {
		log.Warn("Failed to remove image file", zap.String("path", image.Path), zap.Error(err))
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := database.GetDB().Delete(&image).Error; err != nil {
		log.Error("Failed to delete hoarding image", zap.Uint("id", image.ID), zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "Image removal failed", "could not delete image")
	}

	log.Info("Hoarding image removed",
		zap.Uint("hoarding_id", hoarding.ID),
		zap.String("path", image.Path))
	return response.Success(c, http.StatusOK, "Image removed", nil)
}

// HoardingAnalytics summarizes the acting owner's hoardings by status.
func HoardingAnalytics(c echo.Context) error {
	log := logger.FromContext(c)
	user := middleware.CurrentUser(c)
	prometheus.RecordResourceOperation("hoardings", "analytics")

	rule, ok := policy.Can(user.Role, policy.ResourceHoarding, policy.ActionRead)
	if !ok {
		return response.Error(c, http.StatusForbidden, "Access denied", "not permitted to view hoarding analytics")
	}

	type statusCount struct {
		Status model.HoardingStatus `json:"status"`
		Count  int64                `json:"count"`
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var counts []statusCount
	query := database.GetDB().Model(&model.Hoarding{})
	if rule.OwnerField != "" {
		query = query.Where(rule.OwnerField+" = ?", user.ID)
	}
	if err := query.Select("status, COUNT(*) as count").Group("status").Scan(&counts).Error; err != nil {
		log.Error("Failed to compute hoarding analytics", zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "Analytics failed", "could not compute analytics")
	}

	var total int64
	byStatus := echo.Map{}
	for _, sc := range counts {
		byStatus[string(sc.Status)] = sc.Count
		total += sc.Count
	}

	return response.Success(c, http.StatusOK, "Analytics computed", echo.Map{
		"total":     total,
		"by_status": byStatus,
	})
}

// loadHoarding resolves :id, checks the policy table and ownership, and
// returns either the hoarding or a ready error response.
func loadHoarding(c echo.Context, user *model.User, action policy.Action) (*model.Hoarding, error) {
	log := logger.FromContext(c)

	id, err := parseID(c)
	if err != nil {
		return nil, response.Error(c, http.StatusBadRequest, "Invalid hoarding ID", "hoarding id must be numeric")
	}

	rule, ok := policy.Can(user.Role, policy.ResourceHoarding, action)
	if !ok {
		log.Warn("Role not permitted", zap.String("role", string(user.Role)), zap.String("action", string(action)))
		return nil, response.Error(c, http.StatusForbidden, "Access denied", "not permitted for this role")
	}

	var hoarding model.Hoarding
	if err := database.GetDB().Preload("Images").First(&hoarding, id).Error; err != nil {
		return nil, response.Error(c, http.StatusNotFound, "Hoarding not found", "no hoarding with this id")
	}

	if rule.OwnerField == "owner_id" && hoarding.OwnerID != user.ID {
		log.Warn("Ownership mismatch",
			zap.Uint("hoarding_id", hoarding.ID),
			zap.Uint("user_id", user.ID))
		return nil, response.Error(c, http.StatusForbidden, "Access denied", "hoarding belongs to another owner")
	}

	return &hoarding, nil
}

// refreshActiveHoardings updates the active hoardings gauge.
func refreshActiveHoardings() {
	var count int64
	database.GetDB().Model(&model.Hoarding{}).
		Where("status = ?", model.HoardingActive).
		Count(&count)
	prometheus.UpdateActiveHoardings(int(count))
}
