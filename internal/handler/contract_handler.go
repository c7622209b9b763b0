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
	"hoarding-service/internal/sequence"
	"hoarding-service/pkg/database"
	"hoarding-service/pkg/logger"
	"hoarding-service/prometheus"
)

// CreateContract creates a rental contract between the acting owner,
// a hoarding and a client. Both references must exist before any write.
func CreateContract(c echo.Context) error {
	log := logger.FromContext(c)
	user := middleware.CurrentUser(c)
	prometheus.RecordResourceOperation("contracts", "create")

	if _, ok := policy.Can(user.Role, policy.ResourceContract, policy.ActionCreate); !ok {
		log.Warn("Role not permitted to create contracts", zap.String("role", string(user.Role)))
		return response.Error(c, http.StatusForbidden, "Access denied", "not permitted to create contracts")
	}

	var req struct {
		HoardingID  uint      `json:"hoarding_id"`
		ClientID    uint      `json:"client_id"`
		StartDate   time.Time `json:"start_date"`
		EndDate     time.Time `json:"end_date"`
		TotalAmount float64   `json:"total_amount"`
		Terms       string    `json:"terms"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return response.Error(c, http.StatusBadRequest, "Contract creation failed", "invalid request body")
	}

	if req.HoardingID == 0 || req.ClientID == 0 || req.StartDate.IsZero() || req.EndDate.IsZero() {
		return response.Error(c, http.StatusBadRequest, "Contract creation failed", "hoarding_id, client_id, start_date and end_date are required")
	}
	if req.TotalAmount <= 0 {
		return response.Error(c, http.StatusBadRequest, "Contract creation failed", "total_amount must be positive")
	}
	if req.EndDate.Before(req.StartDate) {
		return response.Error(c, http.StatusBadRequest, "Contract creation failed", "end_date must not precede start_date")
	}

	// Referenced entities must exist before any write
	defer prometheus.TrackDBOperation("query")(time.Now())
	var hoarding model.Hoarding
	if err := database.GetDB().First(&hoarding, req.HoardingID).Error; err != nil {
		return response.Error(c, http.StatusNotFound, "Contract creation failed", "hoarding not found")
	}
	if hoarding.OwnerID != user.ID {
		return response.Error(c, http.StatusForbidden, "Access denied", "hoarding belongs to another owner")
	}

	var client model.User
	if err := database.GetDB().First(&client, req.ClientID).Error; err != nil {
		return response.Error(c, http.StatusNotFound, "Contract creation failed", "client not found")
	}
	if client.Role != model.RoleClient {
		return response.Error(c, http.StatusBadRequest, "Contract creation failed", "user is not a client")
	}

	number, err := sequence.Next(database.GetDB(), sequence.KindContract, time.Now().Year())
	if err != nil {
		log.Error("Failed to generate contract number", zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "Contract creation failed", "could not generate contract number")
	}

	contract := model.Contract{
		Number:      number,
		HoardingID:  req.HoardingID,
		ClientID:    req.ClientID,
		OwnerID:     user.ID,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		TotalAmount: req.TotalAmount,
		Status:      model.ContractPending,
		Terms:       req.Terms,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := database.GetDB().Create(&contract).Error; err != nil {
		log.Error("Failed to create contract", zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "Contract creation failed", "could not create contract")
	}

	database.GetDB().Model(&model.ClientProfile{}).
		Where("user_id = ?", req.ClientID).
		Update("contracts_count", gorm.Expr("contracts_count + 1"))

	log.Info("Contract created",
		zap.Uint("id", contract.ID),
		zap.String("number", contract.Number),
		zap.Uint("client_id", req.ClientID))
	return response.Success(c, http.StatusCreated, "Contract created", contract)
}

// ListContracts lists contracts scoped to the acting user's role.
func ListContracts(c echo.Context) error {
	log := logger.FromContext(c)
	user := middleware.CurrentUser(c)
	prometheus.RecordResourceOperation("contracts", "list")

	rule, ok := policy.Can(user.Role, policy.ResourceContract, policy.ActionRead)
	if !ok {
		return response.Error(c, http.StatusForbidden, "Access denied", "not permitted to list contracts")
	}

	query := database.GetDB().Model(&model.Contract{}).Where(rule.OwnerField+" = ?", user.ID)

	if status := model.ContractStatus(c.QueryParam("status")); status != "" {
		if !status.IsValid() {
			return response.Error(c, http.StatusBadRequest, "Invalid filter", "unknown status")
		}
		query = query.Where("status = ?", status)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var contracts []model.Contract
	if err := query.Order("created_at desc").Find(&contracts).Error; err != nil {
		log.Error("Failed to list contracts", zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "Listing failed", "could not retrieve contracts")
	}

	return response.Success(c, http.StatusOK, "Contracts retrieved", contracts)
}

// GetContract retrieves a single contract by id.
func GetContract(c echo.Context) error {
	log := logger.FromContext(c)
	user := middleware.CurrentUser(c)
	prometheus.RecordResourceOperation("contracts", "get")

	contract, errResp := loadContract(c, user, policy.ActionRead)
	if contract == nil {
		return errResp
	}

	log.Info("Contract retrieved", zap.Uint("id", contract.ID))
	return response.Success(c, http.StatusOK, "Contract retrieved", contract)
}

// UpdateContract updates contract fields. Owner only; the number is
// never reassigned.
func UpdateContract(c echo.Context) error {
	log := logger.FromContext(c)
	user := middleware.CurrentUser(c)
	prometheus.RecordResourceOperation("contracts", "update")

	contract, errResp := loadContract(c, user, policy.ActionUpdate)
	if contract == nil {
		return errResp
	}

	var req struct {
		StartDate   *time.Time            `json:"start_date"`
		EndDate     *time.Time            `json:"end_date"`
		TotalAmount *float64              `json:"total_amount"`
		Status      *model.ContractStatus `json:"status"`
		Terms       *string               `json:"terms"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return response.Error(c, http.StatusBadRequest, "Contract update failed", "invalid request body")
	}

	if req.Status != nil {
		if !req.Status.IsValid() {
			return response.Error(c, http.StatusBadRequest, "Contract update failed", "unknown status")
		}
		contract.Status = *req.Status
	}
	if req.StartDate != nil {
		contract.StartDate = *req.StartDate
	}
	if req.EndDate != nil {
		contract.EndDate = *req.EndDate
	}
	if req.TotalAmount != nil {
		if *req.TotalAmount <= 0 {
			return response.Error(c, http.StatusBadRequest, "Contract update failed", "total_amount must be positive")
		}
		contract.TotalAmount = *req.TotalAmount
	}
	if req.Terms != nil {
		contract.Terms = *req.Terms
	}
	if contract.EndDate.Before(contract.StartDate) {
		return response.Error(c, http.StatusBadRequest, "Contract update failed", "end_date must not precede start_date")
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := database.GetDB().Save(contract).Error; err != nil {
		log.Error("Failed to update contract", zap.Uint("id", contract.ID), zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "Contract update failed", "could not save contract")
	}

	log.Info("Contract updated", zap.Uint("id", contract.ID))
	return response.Success(c, http.StatusOK, "Contract updated", contract)
}

// DeleteContract removes a contract permanently. Dependent invoices are
// left untouched.
func DeleteContract(c echo.Context) error {
	log := logger.FromContext(c)
	user := middleware.CurrentUser(c)
	prometheus.RecordResourceOperation("contracts", "delete")

	contract, errResp := loadContract(c, user, policy.ActionDelete)
	if contract == nil {
		return errResp
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := database.GetDB().Delete(contract).Error; err != nil {
		log.Error("Failed to delete contract", zap.Uint("id", contract.ID), zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "Contract deletion failed", "could not delete contract")
	}

	database.GetDB().Model(&model.ClientProfile{}).
		Where("user_id = ? AND contracts_count > 0", contract.ClientID).
		Update("contracts_count", gorm.Expr("contracts_count - 1"))

	log.Info("Contract deleted", zap.Uint("id", contract.ID), zap.String("number", contract.Number))
	return response.Success(c, http.StatusOK, "Contract deleted", nil)
}

// loadContract resolves :id, consults the policy table and applies the
// row-level ownership rule. The returned contract is nil when a
// response has already been written.
func loadContract(c echo.Context, user *model.User, action policy.Action) (*model.Contract, error) {
	log := logger.FromContext(c)

	id, err := parseID(c)
	if err != nil {
		return nil, response.Error(c, http.StatusBadRequest, "Invalid contract ID", "contract id must be numeric")
	}

	rule, ok := policy.Can(user.Role, policy.ResourceContract, action)
	if !ok {
		log.Warn("Role not permitted", zap.String("role", string(user.Role)), zap.String("action", string(action)))
		return nil, response.Error(c, http.StatusForbidden, "Access denied", "not permitted for this role")
	}

	var contract model.Contract
	if err := database.GetDB().First(&contract, id).Error; err != nil {
		return nil, response.Error(c, http.StatusNotFound, "Contract not found", "no contract with this id")
	}

	switch rule.OwnerField {
	case "owner_id":
		if contract.OwnerID != user.ID {
			return nil, response.Error(c, http.StatusForbidden, "Access denied", "contract belongs to another owner")
		}
	case "client_id":
		if contract.ClientID != user.ID {
			return nil, response.Error(c, http.StatusForbidden, "Access denied", "contract belongs to another client")
		}
	}

	return &contract, nil
}
