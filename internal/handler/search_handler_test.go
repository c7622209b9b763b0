package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hoarding-service/internal/model"
	"hoarding-service/pkg/database"
)

func TestSearchAcrossTypes(t *testing.T) {
	e := setupTest(t)
	owner, token := createUser(t, "Owner", model.RoleOwner)
	client, _ := createUser(t, "Skyline Media", model.RoleClient)

	hoarding := createHoarding(t, owner.ID, "H-2026-0001", model.HoardingActive)
	hoarding.Name = "Skyline Tower Panel"
	require.NoError(t, database.GetDB().Save(hoarding).Error)

	contract := createContract(t, owner.ID, hoarding.ID, client.ID, model.ContractActive)
	contract.Terms = "Skyline campaign terms"
	require.NoError(t, database.GetDB().Save(contract).Error)

	rec := doJSON(e, http.MethodGet, "/api/search?q=skyline", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var results map[string]json.RawMessage
	decodeData(t, rec, &results)
	assert.Contains(t, results, "users")
	assert.Contains(t, results, "hoardings")
	assert.Contains(t, results, "contracts")
	assert.NotContains(t, results, "photos", "types without matches are omitted")
	assert.NotContains(t, results, "billings")
}

func TestSearchCaseInsensitive(t *testing.T) {
	e := setupTest(t)
	owner, token := createUser(t, "Owner", model.RoleOwner)
	hoarding := createHoarding(t, owner.ID, "H-2026-0001", model.HoardingActive)
	hoarding.Name = "RIVERSIDE Display"
	require.NoError(t, database.GetDB().Save(hoarding).Error)

	rec := doJSON(e, http.MethodGet, "/api/search?q=riverside&type=hoardings", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var results map[string][]model.Hoarding
	decodeData(t, rec, &results)
	require.Len(t, results["hoardings"], 1)
}

func TestSearchTypeFilterAndCap(t *testing.T) {
	e := setupTest(t)
	owner, token := createUser(t, "Owner", model.RoleOwner)

	for i := 0; i < 25; i++ {
		createHoarding(t, owner.ID, fmt.Sprintf("H-2026-%04d", i+1), model.HoardingActive)
	}

	rec := doJSON(e, http.MethodGet, "/api/search?q=hoarding&type=hoardings", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var results map[string][]model.Hoarding
	decodeData(t, rec, &results)
	assert.Len(t, results["hoardings"], 20, "per-type results are capped")
	assert.NotContains(t, results, "users")
}

func TestSearchRoleAndStatusFilters(t *testing.T) {
	e := setupTest(t)
	owner, token := createUser(t, "Ad Owner", model.RoleOwner)
	createUser(t, "Ad Client", model.RoleClient)
	createHoarding(t, owner.ID, "H-2026-0001", model.HoardingActive)
	createHoarding(t, owner.ID, "H-2026-0002", model.HoardingMaintenance)

	rec := doJSON(e, http.MethodGet, "/api/search?q=ad&type=users&role=client", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var userResults map[string][]model.User
	decodeData(t, rec, &userResults)
	require.Len(t, userResults["users"], 1)
	assert.Equal(t, model.RoleClient, userResults["users"][0].Role)

	rec = doJSON(e, http.MethodGet, "/api/search?type=hoardings&status=maintenance", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var hoardingResults map[string][]model.Hoarding
	decodeData(t, rec, &hoardingResults)
	require.Len(t, hoardingResults["hoardings"], 1)
	assert.Equal(t, model.HoardingMaintenance, hoardingResults["hoardings"][0].Status)
}

func TestSearchDateRange(t *testing.T) {
	e := setupTest(t)
	owner, token := createUser(t, "Owner", model.RoleOwner)
	createHoarding(t, owner.ID, "H-2026-0001", model.HoardingActive)

	future := time.Now().AddDate(0, 0, 1).Format(time.RFC3339)
	rec := doJSON(e, http.MethodGet, "/api/search?type=hoardings&from="+future, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var results map[string]json.RawMessage
	decodeData(t, rec, &results)
	assert.NotContains(t, results, "hoardings")
}

func TestSearchRequiresAuth(t *testing.T) {
	e := setupTest(t)
	rec := doJSON(e, http.MethodGet, "/api/search?q=x", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPublicSearchActiveOnly(t *testing.T) {
	e := setupTest(t)
	owner, _ := createUser(t, "Owner", model.RoleOwner)

	for i := 0; i < 12; i++ {
		createHoarding(t, owner.ID, fmt.Sprintf("H-2026-%04d", i+1), model.HoardingActive)
	}
	createHoarding(t, owner.ID, "H-2026-0099", model.HoardingInactive)

	rec := doJSON(e, http.MethodGet, "/public-search?q=hoarding", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var results map[string][]model.Hoarding
	decodeData(t, rec, &results)
	require.Len(t, results["hoardings"], 10, "public results are capped")
	for _, h := range results["hoardings"] {
		assert.Equal(t, model.HoardingActive, h.Status)
	}

	rec = doJSON(e, http.MethodGet, "/public-search?q=nothing-matches-this", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var empty map[string]json.RawMessage
	decodeData(t, rec, &empty)
	assert.NotContains(t, empty, "hoardings")
}
