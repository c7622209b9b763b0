package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"hoarding-service/internal/middleware"
	"hoarding-service/internal/model"
	"hoarding-service/internal/policy"
	"hoarding-service/internal/response"
	"hoarding-service/pkg/database"
	"hoarding-service/pkg/logger"
	"hoarding-service/prometheus"
)

// photographerTransitions is the allow-list of status moves a
// photographer may make on their own assignment. Owners may set any
// valid status.
var photographerTransitions = map[model.AssignmentStatus]model.AssignmentStatus{
	model.AssignmentAssigned:   model.AssignmentInProgress,
	model.AssignmentInProgress: model.AssignmentCompleted,
}

// CreateAssignment creates a photography assignment. The referenced
// hoarding and photographer must exist before anything is written.
func CreateAssignment(c echo.Context) error {
	log := logger.FromContext(c)
	user := middleware.CurrentUser(c)
	prometheus.RecordResourceOperation("assignments", "create")

	if _, ok := policy.Can(user.Role, policy.ResourceAssignment, policy.ActionCreate); !ok {
		log.Warn("Role not permitted to create assignments", zap.String("role", string(user.Role)))
		return response.Error(c, http.StatusForbidden, "Access denied", "not permitted to create assignments")
	}

	var req struct {
		HoardingID     uint      `json:"hoarding_id"`
		PhotographerID uint      `json:"photographer_id"`
		DueDate        time.Time `json:"due_date"`
		Notes          string    `json:"notes"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return response.Error(c, http.StatusBadRequest, "Assignment creation failed", "invalid request body")
	}

	if req.HoardingID == 0 || req.PhotographerID == 0 || req.DueDate.IsZero() {
		return response.Error(c, http.StatusBadRequest, "Assignment creation failed", "hoarding_id, photographer_id and due_date are required")
	}

	// Referenced entities must exist before any write
	defer prometheus.TrackDBOperation("query")(time.Now())
	var hoarding model.Hoarding
	if err := database.GetDB().First(&hoarding, req.HoardingID).Error; err != nil {
		return response.Error(c, http.StatusNotFound, "Assignment creation failed", "hoarding not found")
	}
	if hoarding.OwnerID != user.ID {
		log.Warn("Hoarding belongs to another owner",
			zap.Uint("hoarding_id", hoarding.ID), zap.Uint("user_id", user.ID))
		return response.Error(c, http.StatusForbidden, "Access denied", "hoarding belongs to another owner")
	}

	var photographer model.User
	if err := database.GetDB().First(&photographer, req.PhotographerID).Error; err != nil {
		return response.Error(c, http.StatusNotFound, "Assignment creation failed", "photographer not found")
	}
	if photographer.Role != model.RolePhotographer {
		return response.Error(c, http.StatusBadRequest, "Assignment creation failed", "user is not a photographer")
	}

	assignment := model.Assignment{
		HoardingID:     req.HoardingID,
		PhotographerID: req.PhotographerID,
		AssignedByID:   user.ID,
		DueDate:        req.DueDate,
		Notes:          req.Notes,
		Status:         model.AssignmentAssigned,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := database.GetDB().Create(&assignment).Error; err != nil {
		log.Error("Failed to create assignment", zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "Assignment creation failed", "could not create assignment")
	}

	database.GetDB().Model(&model.PhotographerProfile{}).
		Where("user_id = ?", req.PhotographerID).
		Update("assigned_hoardings", gorm.Expr("assigned_hoardings + 1"))

	log.Info("Assignment created",
		zap.Uint("id", assignment.ID),
		zap.Uint("hoarding_id", req.HoardingID),
		zap.Uint("photographer_id", req.PhotographerID))
	return response.Success(c, http.StatusCreated, "Assignment created", assignment)
}

// ListAssignments lists assignments scoped to the acting user's role.
// A photographer only ever sees their own assignments, regardless of
// any filter parameters supplied.
func ListAssignments(c echo.Context) error {
	log := logger.FromContext(c)
	user := middleware.CurrentUser(c)
	prometheus.RecordResourceOperation("assignments", "list")

	rule, ok := policy.Can(user.Role, policy.ResourceAssignment, policy.ActionRead)
	if !ok {
		return response.Error(c, http.StatusForbidden, "Access denied", "not permitted to list assignments")
	}

	query := database.GetDB().Model(&model.Assignment{}).Where(rule.OwnerField+" = ?", user.ID)

	if status := model.AssignmentStatus(c.QueryParam("status")); status != "" {
		if !status.IsValid() {
			return response.Error(c, http.StatusBadRequest, "Invalid filter", "unknown status")
		}
		query = query.Where("status = ?", status)
	}
	// Owners may additionally narrow by photographer; for photographers
	// the scoping above already pins the result set.
	if user.Role == model.RoleOwner {
		if photographerID := c.QueryParam("photographer_id"); photographerID != "" {
			query = query.Where("photographer_id = ?", photographerID)
		}
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var assignments []model.Assignment
	if err := query.Order("created_at desc").Find(&assignments).Error; err != nil {
		log.Error("Failed to list assignments", zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "Listing failed", "could not retrieve assignments")
	}

	return response.Success(c, http.StatusOK, "Assignments retrieved", assignments)
}

// GetAssignment retrieves a single assignment by id.
func GetAssignment(c echo.Context) error {
	log := logger.FromContext(c)
	user := middleware.CurrentUser(c)
	prometheus.RecordResourceOperation("assignments", "get")

	assignment, errResp := loadAssignment(c, user, policy.ActionRead)
	if assignment == nil {
		return errResp
	}

	log.Info("Assignment retrieved", zap.Uint("id", assignment.ID))
	return response.Success(c, http.StatusOK, "Assignment retrieved", assignment)
}

// UpdateAssignment updates assignment fields. Owners may change due
// date, notes and status; photographers may only amend notes here —
// their status moves go through UpdateAssignmentStatus.
func UpdateAssignment(c echo.Context) error {
	log := logger.FromContext(c)
	user := middleware.CurrentUser(c)
	prometheus.RecordResourceOperation("assignments", "update")

	assignment, errResp := loadAssignment(c, user, policy.ActionUpdate)
	if assignment == nil {
		return errResp
	}

	var req struct {
		DueDate *time.Time              `json:"due_date"`
		Notes   *string                 `json:"notes"`
		Status  *model.AssignmentStatus `json:"status"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return response.Error(c, http.StatusBadRequest, "Assignment update failed", "invalid request body")
	}

	if req.Notes != nil {
		assignment.Notes = *req.Notes
	}

	switch user.Role {
	case model.RoleOwner:
		if req.DueDate != nil {
			assignment.DueDate = *req.DueDate
		}
		if req.Status != nil {
			if !req.Status.IsValid() {
				return response.Error(c, http.StatusBadRequest, "Assignment update failed", "unknown status")
			}
			assignment.Status = *req.Status
		}
	case model.RolePhotographer:
		if req.DueDate != nil || req.Status != nil {
			return response.Error(c, http.StatusForbidden, "Access denied", "photographers may only update notes here")
		}
	case model.RoleClient:
		// Unreachable: the policy table grants clients nothing on assignments
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := database.GetDB().Save(assignment).Error; err != nil {
		log.Error("Failed to update assignment", zap.Uint("id", assignment.ID), zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "Assignment update failed", "could not save assignment")
	}

	log.Info("Assignment updated", zap.Uint("id", assignment.ID))
	return response.Success(c, http.StatusOK, "Assignment updated", assignment)
}

// UpdateAssignmentStatus transitions an assignment's status. Owners may
// set any valid status; photographers only follow the allow-list
// assigned -> in_progress -> completed.
func UpdateAssignmentStatus(c echo.Context) error {
	log := logger.FromContext(c)
	user := middleware.CurrentUser(c)
	prometheus.RecordResourceOperation("assignments", "status")

	assignment, errResp := loadAssignment(c, user, policy.ActionUpdate)
	if assignment == nil {
		return errResp
	}

	var req struct {
		Status model.AssignmentStatus `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return response.Error(c, http.StatusBadRequest, "Status update failed", "invalid request body")
	}

	if !req.Status.IsValid() {
		return response.Error(c, http.StatusBadRequest, "Status update failed", "unknown status")
	}

	switch user.Role {
	case model.RoleOwner:
		// Owners may set any status, including re-opening completed work
	case model.RolePhotographer:
		if photographerTransitions[assignment.Status] != req.Status {
			log.Warn("Disallowed status transition",
				zap.Uint("id", assignment.ID),
				zap.String("from", string(assignment.Status)),
				zap.String("to", string(req.Status)))
			return response.Error(c, http.StatusForbidden, "Access denied", "status transition not allowed for photographers")
		}
	case model.RoleClient:
		// Unreachable: the policy table grants clients nothing on assignments
	}

	assignment.Status = req.Status

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := database.GetDB().Save(assignment).Error; err != nil {
		log.Error("Failed to update assignment status", zap.Uint("id", assignment.ID), zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "Status update failed", "could not save assignment")
	}

	log.Info("Assignment status updated",
		zap.Uint("id", assignment.ID),
		zap.String("status", string(assignment.Status)))
	return response.Success(c, http.StatusOK, "Assignment status updated", assignment)
}

// DeleteAssignment removes an assignment permanently.
func DeleteAssignment(c echo.Context) error {
	log := logger.FromContext(c)
	user := middleware.CurrentUser(c)
	prometheus.RecordResourceOperation("assignments", "delete")

	assignment, errResp := loadAssignment(c, user, policy.ActionDelete)
	if assignment == nil {
		return errResp
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := database.GetDB().Delete(assignment).Error; err != nil {
		log.Error("Failed to delete assignment", zap.Uint("id", assignment.ID), zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "Assignment deletion failed", "could not delete assignment")
	}

	database.GetDB().Model(&model.PhotographerProfile{}).
		Where("user_id = ? AND assigned_hoardings > 0", assignment.PhotographerID).
		Update("assigned_hoardings", gorm.Expr("assigned_hoardings - 1"))

	log.Info("Assignment deleted", zap.Uint("id", assignment.ID))
	return response.Success(c, http.StatusOK, "Assignment deleted", nil)
}

// loadAssignment resolves :id, consults the policy table and applies the
// row-level ownership rule. The returned assignment is nil when a
// response has already been written.
func loadAssignment(c echo.Context, user *model.User, action policy.Action) (*model.Assignment, error) {
	log := logger.FromContext(c)

	id, err := parseID(c)
	if err != nil {
		return nil, response.Error(c, http.StatusBadRequest, "Invalid assignment ID", "assignment id must be numeric")
	}

	rule, ok := policy.Can(user.Role, policy.ResourceAssignment, action)
	if !ok {
		log.Warn("Role not permitted", zap.String("role", string(user.Role)), zap.String("action", string(action)))
		return nil, response.Error(c, http.StatusForbidden, "Access denied", "not permitted for this role")
	}

	var assignment model.Assignment
	if err := database.GetDB().First(&assignment, id).Error; err != nil {
		return nil, response.Error(c, http.StatusNotFound, "Assignment not found", "no assignment with this id")
	}

	switch rule.OwnerField {
	case "assigned_by_id":
		if assignment.AssignedByID != user.ID {
			return nil, response.Error(c, http.StatusForbidden, "Access denied", "assignment belongs to another owner")
		}
	case "photographer_id":
		if assignment.PhotographerID != user.ID {
			return nil, response.Error(c, http.StatusForbidden, "Access denied", "assignment belongs to another photographer")
		}
	}

	return &assignment, nil
}
