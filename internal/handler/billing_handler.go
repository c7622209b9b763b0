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
	"hoarding-service/pkg/database"
	"hoarding-service/pkg/logger"
	"hoarding-service/prometheus"
)

// CreateBilling issues an invoice against a contract. The client and
// owner are taken from the contract, never from the request.
func CreateBilling(c echo.Context) error {
	log := logger.FromContext(c)
	user := middleware.CurrentUser(c)
	prometheus.RecordResourceOperation("billings", "create")

	if _, ok := policy.Can(user.Role, policy.ResourceBilling, policy.ActionCreate); !ok {
		log.Warn("Role not permitted to create invoices", zap.String("role", string(user.Role)))
		return response.Error(c, http.StatusForbidden, "Access denied", "not permitted to create invoices")
	}

	var req struct {
		ContractID uint      `json:"contract_id"`
		Amount     float64   `json:"amount"`
		DueDate    time.Time `json:"due_date"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return response.Error(c, http.StatusBadRequest, "Invoice creation failed", "invalid request body")
	}

	if req.ContractID == 0 || req.DueDate.IsZero() {
		return response.Error(c, http.StatusBadRequest, "Invoice creation failed", "contract_id and due_date are required")
	}
	if req.Amount <= 0 {
		return response.Error(c, http.StatusBadRequest, "Invoice creation failed", "amount must be positive")
	}

	// The referenced contract must exist before any write
	defer prometheus.TrackDBOperation("query")(time.Now())
	var contract model.Contract
	if err := database.GetDB().First(&contract, req.ContractID).Error; err != nil {
		return response.Error(c, http.StatusNotFound, "Invoice creation failed", "contract not found")
	}
	if contract.OwnerID != user.ID {
		return response.Error(c, http.StatusForbidden, "Access denied", "contract belongs to another owner")
	}

	number, err := sequence.Next(database.GetDB(), sequence.KindInvoice, time.Now().Year())
	if err != nil {
		log.Error("Failed to generate invoice number", zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "Invoice creation failed", "could not generate invoice number")
	}

	billing := model.Billing{
		InvoiceNumber: number,
		ContractID:    contract.ID,
		ClientID:      contract.ClientID,
		OwnerID:       contract.OwnerID,
		Amount:        req.Amount,
		PaymentStatus: model.PaymentPending,
		DueDate:       req.DueDate,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := database.GetDB().Create(&billing).Error; err != nil {
		log.Error("Failed to create invoice", zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "Invoice creation failed", "could not create invoice")
	}

	log.Info("Invoice created",
		zap.Uint("id", billing.ID),
		zap.String("invoice_number", billing.InvoiceNumber),
		zap.Uint("contract_id", contract.ID))
	return response.Success(c, http.StatusCreated, "Invoice created", billing)
}

// ListBillings lists invoices scoped to the acting user's role.
func ListBillings(c echo.Context) error {
	log := logger.FromContext(c)
	user := middleware.CurrentUser(c)
	prometheus.RecordResourceOperation("billings", "list")

	rule, ok := policy.Can(user.Role, policy.ResourceBilling, policy.ActionRead)
	if !ok {
		return response.Error(c, http.StatusForbidden, "Access denied", "not permitted to list invoices")
	}

	query := database.GetDB().Model(&model.Billing{}).Where(rule.OwnerField+" = ?", user.ID)

	if status := model.PaymentStatus(c.QueryParam("payment_status")); status != "" {
		if !status.IsValid() {
			return response.Error(c, http.StatusBadRequest, "Invalid filter", "unknown payment status")
		}
		query = query.Where("payment_status = ?", status)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var billings []model.Billing
	if err := query.Order("created_at desc").Find(&billings).Error; err != nil {
		log.Error("Failed to list invoices", zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "Listing failed", "could not retrieve invoices")
	}

	return response.Success(c, http.StatusOK, "Invoices retrieved", billings)
}

// GetBilling retrieves a single invoice by id.
func GetBilling(c echo.Context) error {
	log := logger.FromContext(c)
	user := middleware.CurrentUser(c)
	prometheus.RecordResourceOperation("billings", "get")

	billing, errResp := loadBilling(c, user, policy.ActionRead)
	if billing == nil {
		return errResp
	}

	log.Info("Invoice retrieved", zap.Uint("id", billing.ID))
	return response.Success(c, http.StatusOK, "Invoice retrieved", billing)
}

// UpdateBilling updates an invoice. Owners may change any field; a
// client may only mark their own invoice as paid. A transition to paid
// without an explicit payment date stamps the current time.
func UpdateBilling(c echo.Context) error {
	log := logger.FromContext(c)
	user := middleware.CurrentUser(c)
	prometheus.RecordResourceOperation("billings", "update")

	billing, errResp := loadBilling(c, user, policy.ActionUpdate)
	if billing == nil {
		return errResp
	}

	var req struct {
		Amount        *float64             `json:"amount"`
		PaymentStatus *model.PaymentStatus `json:"payment_status"`
		DueDate       *time.Time           `json:"due_date"`
		PaymentDate   *time.Time           `json:"payment_date"`
		PaymentMethod *string              `json:"payment_method"`
		TransactionID *string              `json:"transaction_id"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return response.Error(c, http.StatusBadRequest, "Invoice update failed", "invalid request body")
	}

	if req.PaymentStatus != nil && !req.PaymentStatus.IsValid() {
		return response.Error(c, http.StatusBadRequest, "Invoice update failed", "unknown payment status")
	}

	switch user.Role {
	case model.RoleClient:
		// The only mutation a client may make is paying their invoice
		if req.Amount != nil || req.DueDate != nil {
			return response.Error(c, http.StatusForbidden, "Access denied", "clients may only mark an invoice as paid")
		}
		if req.PaymentStatus == nil || *req.PaymentStatus != model.PaymentPaid {
			log.Warn("Client attempted disallowed payment status",
				zap.Uint("id", billing.ID),
				zap.Uint("client_id", user.ID))
			return response.Error(c, http.StatusForbidden, "Access denied", "clients may only mark an invoice as paid")
		}
	case model.RoleOwner:
		if req.Amount != nil {
			if *req.Amount <= 0 {
				return response.Error(c, http.StatusBadRequest, "Invoice update failed", "amount must be positive")
			}
			billing.Amount = *req.Amount
		}
		if req.DueDate != nil {
			billing.DueDate = *req.DueDate
		}
	case model.RolePhotographer:
		// Unreachable: the policy table grants photographers nothing on billings
	}

	if req.PaymentStatus != nil {
		wasPaid := billing.PaymentStatus == model.PaymentPaid
		billing.PaymentStatus = *req.PaymentStatus
		if billing.PaymentStatus == model.PaymentPaid && !wasPaid && req.PaymentDate == nil && billing.PaymentDate == nil {
			now := time.Now()
			billing.PaymentDate = &now
		}
	}
	if req.PaymentDate != nil {
		billing.PaymentDate = req.PaymentDate
	}
	if req.PaymentMethod != nil {
		billing.PaymentMethod = *req.PaymentMethod
	}
	if req.TransactionID != nil {
		billing.TransactionID = *req.TransactionID
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := database.GetDB().Save(billing).Error; err != nil {
		log.Error("Failed to update invoice", zap.Uint("id", billing.ID), zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "Invoice update failed", "could not save invoice")
	}

	log.Info("Invoice updated",
		zap.Uint("id", billing.ID),
		zap.String("payment_status", string(billing.PaymentStatus)))
	return response.Success(c, http.StatusOK, "Invoice updated", billing)
}

// DeleteBilling removes an invoice permanently.
func DeleteBilling(c echo.Context) error {
	log := logger.FromContext(c)
	user := middleware.CurrentUser(c)
	prometheus.RecordResourceOperation("billings", "delete")

	billing, errResp := loadBilling(c, user, policy.ActionDelete)
	if billing == nil {
		return errResp
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := database.GetDB().Delete(billing).Error; err != nil {
		log.Error("Failed to delete invoice", zap.Uint("id", billing.ID), zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "Invoice deletion failed", "could not delete invoice")
	}

	log.Info("Invoice deleted", zap.Uint("id", billing.ID), zap.String("invoice_number", billing.InvoiceNumber))
	return response.Success(c, http.StatusOK, "Invoice deleted", nil)
}

// loadBilling resolves :id, consults the policy table and applies the
// row-level ownership rule. The returned invoice is nil when a response
// has already been written.
func loadBilling(c echo.Context, user *model.User, action policy.Action) (*model.Billing, error) {
	log := logger.FromContext(c)

	id, err := parseID(c)
	if err != nil {
		return nil, response.Error(c, http.StatusBadRequest, "Invalid invoice ID", "invoice id must be numeric")
	}

	rule, ok := policy.Can(user.Role, policy.ResourceBilling, action)
	if !ok {
		log.Warn("Role not permitted", zap.String("role", string(user.Role)), zap.String("action", string(action)))
		return nil, response.Error(c, http.StatusForbidden, "Access denied", "not permitted for this role")
	}

	var billing model.Billing
	if err := database.GetDB().First(&billing, id).Error; err != nil {
		return nil, response.Error(c, http.StatusNotFound, "Invoice not found", "no invoice with this id")
	}

	switch rule.OwnerField {
	case "owner_id":
		if billing.OwnerID != user.ID {
			return nil, response.Error(c, http.StatusForbidden, "Access denied", "invoice belongs to another owner")
		}
	case "client_id":
		if billing.ClientID != user.ID {
			return nil, response.Error(c, http.StatusForbidden, "Access denied", "invoice belongs to another client")
		}
	}

	return &billing, nil
}
