package handler

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hoarding-service/internal/model"
)

// Full owner journey: register, login, create a hoarding through the API.
func TestOwnerOnboardingFlow(t *testing.T) {
	e := setupTest(t)

	rec := doJSON(e, http.MethodPost, "/auth/register", "", map[string]interface{}{
		"name": "Arun Mehta", "email": "arun@example.com",
		"password": "a-long-password", "role": "owner",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(e, http.MethodPost, "/auth/login", "", map[string]interface{}{
		"email": "arun@example.com", "password": "a-long-password",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var login struct {
		Token string `json:"token"`
	}
	decodeData(t, rec, &login)

	rec = doJSON(e, http.MethodPost, "/api/hoardings", login.Token, map[string]interface{}{
		"name": "Station Road Panel", "address": "Station Rd", "city": "Mumbai",
		"width": 30, "height": 15, "size_unit": "ft", "daily_rate": 1500,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var hoarding model.Hoarding
	decodeData(t, rec, &hoarding)
	assert.Equal(t, fmt.Sprintf("H-%d-0001", time.Now().Year()), hoarding.Number)
	assert.Equal(t, model.HoardingActive, hoarding.Status)

	rec = doJSON(e, http.MethodGet, "/api/hoardings", login.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed []model.Hoarding
	decodeData(t, rec, &listed)
	require.Len(t, listed, 1)
}

// Contract-to-payment journey: owner raises a contract and an invoice,
// the client pays it, and a second client cannot touch it.
func TestContractBillingFlow(t *testing.T) {
	e := setupTest(t)
	owner, ownerToken := createUser(t, "Owner", model.RoleOwner)
	client, clientToken := createUser(t, "Client", model.RoleClient)
	hoarding := createHoarding(t, owner.ID, "H-2026-0001", model.HoardingActive)

	rec := doJSON(e, http.MethodPost, "/api/contracts", ownerToken, map[string]interface{}{
		"hoarding_id": hoarding.ID, "client_id": client.ID,
		"start_date":   time.Now().Format(time.RFC3339),
		"end_date":     time.Now().AddDate(0, 3, 0).Format(time.RFC3339),
		"total_amount": 45000,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var contract model.Contract
	decodeData(t, rec, &contract)

	rec = doJSON(e, http.MethodPost, "/api/billings", ownerToken, map[string]interface{}{
		"contract_id": contract.ID, "amount": 15000,
		"due_date": time.Now().AddDate(0, 1, 0).Format(time.RFC3339),
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var invoice model.Billing
	decodeData(t, rec, &invoice)
	assert.Equal(t, fmt.Sprintf("INV-%d-0001", time.Now().Year()), invoice.InvoiceNumber)

	path := fmt.Sprintf("/api/billings/%d", invoice.ID)

	// The client sees the invoice, cannot mark it overdue, can pay it
	rec = doJSON(e, http.MethodGet, path, clientToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(e, http.MethodPatch, path, clientToken, map[string]interface{}{"payment_status": "overdue"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(e, http.MethodPatch, path, clientToken, map[string]interface{}{"payment_status": "paid"})
	require.Equal(t, http.StatusOK, rec.Code)
	var paid model.Billing
	decodeData(t, rec, &paid)
	require.NotNil(t, paid.PaymentDate)
}

// Photography journey: two photographers only ever see and advance their
// own work, and proof photos land on the right assignment.
func TestPhotographyFlow(t *testing.T) {
	e := setupTest(t)
	owner, ownerToken := createUser(t, "Owner", model.RoleOwner)
	shooterA, tokenA := createUser(t, "Shooter A", model.RolePhotographer)
	shooterB, tokenB := createUser(t, "Shooter B", model.RolePhotographer)
	hoarding := createHoarding(t, owner.ID, "H-2026-0001", model.HoardingActive)

	due := time.Now().AddDate(0, 0, 7).Format(time.RFC3339)
	rec := doJSON(e, http.MethodPost, "/api/assignments", ownerToken, map[string]interface{}{
		"hoarding_id": hoarding.ID, "photographer_id": shooterA.ID, "due_date": due,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var assignment model.Assignment
	decodeData(t, rec, &assignment)

	rec = doJSON(e, http.MethodPost, "/api/assignments", ownerToken, map[string]interface{}{
		"hoarding_id": hoarding.ID, "photographer_id": shooterB.ID, "due_date": due,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	// Each photographer sees exactly one assignment
	for _, token := range []string{tokenA, tokenB} {
		rec = doJSON(e, http.MethodGet, "/api/assignments", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var mine []model.Assignment
		decodeData(t, rec, &mine)
		require.Len(t, mine, 1)
	}

	// B cannot advance A's assignment
	statusPath := fmt.Sprintf("/api/assignments/%d/status", assignment.ID)
	rec = doJSON(e, http.MethodPatch, statusPath, tokenB, map[string]interface{}{"status": "in_progress"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(e, http.MethodPatch, statusPath, tokenA, map[string]interface{}{"status": "in_progress"})
	require.Equal(t, http.StatusOK, rec.Code)

	body, contentType := pngUpload(t, "photo", "proof.png", map[string]string{
		"hoarding_id":   fmt.Sprintf("%d", hoarding.ID),
		"assignment_id": fmt.Sprintf("%d", assignment.ID),
	})
	rec = doMultipart(e, http.MethodPost, "/api/photos", tokenA, body, contentType)
	require.Equal(t, http.StatusCreated, rec.Code)
	var photo model.Photo
	decodeData(t, rec, &photo)
	require.NotNil(t, photo.AssignmentID)
	assert.Equal(t, assignment.ID, *photo.AssignmentID)

	rec = doJSON(e, http.MethodPatch, statusPath, tokenA, map[string]interface{}{"status": "completed"})
	require.Equal(t, http.StatusOK, rec.Code)

	// The owner reviews and approves the proof
	reviewPath := fmt.Sprintf("/api/photos/%d/status", photo.ID)
	rec = doJSON(e, http.MethodPatch, reviewPath, ownerToken, map[string]interface{}{"status": "approved"})
	require.Equal(t, http.StatusOK, rec.Code)
}
