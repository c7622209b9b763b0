package handler

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hoarding-service/internal/model"
	"hoarding-service/pkg/database"
)

func createBilling(t *testing.T, contract *model.Contract, status model.PaymentStatus) *model.Billing {
	t.Helper()

	billing := model.Billing{
		InvoiceNumber: fmt.Sprintf("INV-2026-%04d", time.Now().UnixNano()%10000),
		ContractID:    contract.ID,
		ClientID:      contract.ClientID,
		OwnerID:       contract.OwnerID,
		Amount:        15000,
		PaymentStatus: status,
		DueDate:       time.Now().AddDate(0, 0, 14),
	}
	require.NoError(t, database.GetDB().Create(&billing).Error)
	return &billing
}

func TestCreateBillingInheritsContractParties(t *testing.T) {
	e := setupTest(t)
	owner, token := createUser(t, "Owner", model.RoleOwner)
	client, _ := createUser(t, "Client", model.RoleClient)
	hoarding := createHoarding(t, owner.ID, "H-2026-0001", model.HoardingActive)
	contract := createContract(t, owner.ID, hoarding.ID, client.ID, model.ContractActive)

	rec := doJSON(e, http.MethodPost, "/api/billings", token, map[string]interface{}{
		"contract_id": contract.ID,
		"amount":      15000,
		"due_date":    time.Now().AddDate(0, 0, 14).Format(time.RFC3339),
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var billing model.Billing
	decodeData(t, rec, &billing)
	assert.Equal(t, fmt.Sprintf("INV-%d-0001", time.Now().Year()), billing.InvoiceNumber)
	assert.Equal(t, model.PaymentPending, billing.PaymentStatus)
	assert.Equal(t, client.ID, billing.ClientID)
	assert.Equal(t, owner.ID, billing.OwnerID)
	assert.Nil(t, billing.PaymentDate)
}

func TestCreateBillingChecksContract(t *testing.T) {
	e := setupTest(t)
	_, token := createUser(t, "Owner", model.RoleOwner)
	other, _ := createUser(t, "Other Owner", model.RoleOwner)
	client, clientToken := createUser(t, "Client", model.RoleClient)
	hoarding := createHoarding(t, other.ID, "H-2026-0001", model.HoardingActive)
	theirContract := createContract(t, other.ID, hoarding.ID, client.ID, model.ContractActive)

	due := time.Now().AddDate(0, 0, 14).Format(time.RFC3339)

	rec := doJSON(e, http.MethodPost, "/api/billings", token, map[string]interface{}{
		"contract_id": 9999, "amount": 100, "due_date": due,
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(e, http.MethodPost, "/api/billings", token, map[string]interface{}{
		"contract_id": theirContract.ID, "amount": 100, "due_date": due,
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(e, http.MethodPost, "/api/billings", clientToken, map[string]interface{}{
		"contract_id": theirContract.ID, "amount": 100, "due_date": due,
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	var count int64
	database.GetDB().Model(&model.Billing{}).Count(&count)
	assert.Zero(t, count)
}

func TestClientPaysInvoice(t *testing.T) {
	e := setupTest(t)
	owner, _ := createUser(t, "Owner", model.RoleOwner)
	client, clientToken := createUser(t, "Client", model.RoleClient)
	hoarding := createHoarding(t, owner.ID, "H-2026-0001", model.HoardingActive)
	contract := createContract(t, owner.ID, hoarding.ID, client.ID, model.ContractActive)
	billing := createBilling(t, contract, model.PaymentPending)

	path := fmt.Sprintf("/api/billings/%d", billing.ID)

	rec := doJSON(e, http.MethodPatch, path, clientToken, map[string]interface{}{
		"payment_status": "paid",
		"payment_method": "bank_transfer",
		"transaction_id": "TXN-0042",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var paid model.Billing
	decodeData(t, rec, &paid)
	assert.Equal(t, model.PaymentPaid, paid.PaymentStatus)
	require.NotNil(t, paid.PaymentDate, "paying without an explicit date stamps the current time")
	assert.WithinDuration(t, time.Now(), *paid.PaymentDate, time.Minute)
	assert.Equal(t, "bank_transfer", paid.PaymentMethod)
	assert.Equal(t, "TXN-0042", paid.TransactionID)
}

func TestClientPaymentRestrictions(t *testing.T) {
	e := setupTest(t)
	owner, _ := createUser(t, "Owner", model.RoleOwner)
	client, clientToken := createUser(t, "Client", model.RoleClient)
	otherClient, otherToken := createUser(t, "Other Client", model.RoleClient)
	_ = otherClient
	hoarding := createHoarding(t, owner.ID, "H-2026-0001", model.HoardingActive)
	contract := createContract(t, owner.ID, hoarding.ID, client.ID, model.ContractActive)
	billing := createBilling(t, contract, model.PaymentPending)

	path := fmt.Sprintf("/api/billings/%d", billing.ID)

	// Anything other than paying is rejected
	rec := doJSON(e, http.MethodPatch, path, clientToken, map[string]interface{}{"payment_status": "overdue"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(e, http.MethodPatch, path, clientToken, map[string]interface{}{"payment_status": "cancelled"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(e, http.MethodPatch, path, clientToken, map[string]interface{}{"amount": 1})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(e, http.MethodPatch, path, clientToken, map[string]interface{}{
		"due_date": time.Now().AddDate(0, 1, 0).Format(time.RFC3339),
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Another client cannot touch the invoice at all
	rec = doJSON(e, http.MethodPatch, path, otherToken, map[string]interface{}{"payment_status": "paid"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(e, http.MethodDelete, path, clientToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestOwnerUpdatesInvoice(t *testing.T) {
	e := setupTest(t)
	owner, token := createUser(t, "Owner", model.RoleOwner)
	client, _ := createUser(t, "Client", model.RoleClient)
	hoarding := createHoarding(t, owner.ID, "H-2026-0001", model.HoardingActive)
	contract := createContract(t, owner.ID, hoarding.ID, client.ID, model.ContractActive)
	billing := createBilling(t, contract, model.PaymentPending)

	path := fmt.Sprintf("/api/billings/%d", billing.ID)

	rec := doJSON(e, http.MethodPatch, path, token, map[string]interface{}{
		"amount": 17500.0, "payment_status": "overdue",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var updated model.Billing
	decodeData(t, rec, &updated)
	assert.Equal(t, 17500.0, updated.Amount)
	assert.Equal(t, model.PaymentOverdue, updated.PaymentStatus)
	assert.Nil(t, updated.PaymentDate, "only the paid transition stamps a date")
	assert.Equal(t, billing.InvoiceNumber, updated.InvoiceNumber)

	explicit := time.Now().AddDate(0, 0, -3)
	rec = doJSON(e, http.MethodPatch, path, token, map[string]interface{}{
		"payment_status": "paid", "payment_date": explicit.Format(time.RFC3339),
	})
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &updated)
	require.NotNil(t, updated.PaymentDate)
	assert.WithinDuration(t, explicit, *updated.PaymentDate, time.Second)
}

func TestBillingVisibility(t *testing.T) {
	e := setupTest(t)
	owner, ownerToken := createUser(t, "Owner", model.RoleOwner)
	client, clientToken := createUser(t, "Client", model.RoleClient)
	_, shooterToken := createUser(t, "Shooter", model.RolePhotographer)
	hoarding := createHoarding(t, owner.ID, "H-2026-0001", model.HoardingActive)
	contract := createContract(t, owner.ID, hoarding.ID, client.ID, model.ContractActive)
	createBilling(t, contract, model.PaymentPending)
	createBilling(t, contract, model.PaymentPaid)

	rec := doJSON(e, http.MethodGet, "/api/billings", ownerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var billings []model.Billing
	decodeData(t, rec, &billings)
	assert.Len(t, billings, 2)

	rec = doJSON(e, http.MethodGet, "/api/billings?payment_status=pending", clientToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &billings)
	require.Len(t, billings, 1)
	assert.Equal(t, model.PaymentPending, billings[0].PaymentStatus)

	rec = doJSON(e, http.MethodGet, "/api/billings", shooterToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
