package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"hoarding-service/internal/model"
	"hoarding-service/internal/response"
	"hoarding-service/pkg/database"
	"hoarding-service/pkg/logger"
	"hoarding-service/prometheus"
)

const (
	searchLimit       = 20
	publicSearchLimit = 10
)

// Search fans a free-text query out across all entity types and returns
// a map keyed by type name. Types without matches are omitted. Results
// are capped per type and returned in storage order; there is no
// relevance ranking.
func Search(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordSearch("authenticated")

	q := c.QueryParam("q")
	typeFilter := c.QueryParam("type")
	status := c.QueryParam("status")
	city := c.QueryParam("city")
	role := c.QueryParam("role")

	var from, to time.Time
	if raw := c.QueryParam("from"); raw != "" {
		if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
			from = parsed
		}
	}
	if raw := c.QueryParam("to"); raw != "" {
		if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
			to = parsed
		}
	}

	wants := func(entity string) bool {
		return typeFilter == "" || typeFilter == entity
	}
	scope := func(entity interface{}, columns ...string) *gorm.DB {
		query := database.GetDB().Model(entity)
		if q != "" {
			query = likeAny(query, q, columns...)
		}
		if !from.IsZero() {
			query = query.Where("created_at >= ?", from)
		}
		if !to.IsZero() {
			query = query.Where("created_at <= ?", to)
		}
		return query
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	results := echo.Map{}

	if wants("users") {
		query := scope(&model.User{}, "name", "email")
		if role != "" {
			query = query.Where("role = ?", role)
		}
		var users []model.User
		if err := query.Limit(searchLimit).Find(&users).Error; err == nil && len(users) > 0 {
			results["users"] = users
		}
	}

	if wants("hoardings") {
		query := scope(&model.Hoarding{}, "name", "address", "city", "number")
		if status != "" {
			query = query.Where("status = ?", status)
		}
		if city != "" {
			query = query.Where("LOWER(city) = LOWER(?)", city)
		}
		var hoardings []model.Hoarding
		if err := query.Limit(searchLimit).Find(&hoardings).Error; err == nil && len(hoardings) > 0 {
			results["hoardings"] = hoardings
		}
	}

	if wants("assignments") {
		query := scope(&model.Assignment{}, "notes")
		if status != "" {
			query = query.Where("status = ?", status)
		}
		var assignments []model.Assignment
		if err := query.Limit(searchLimit).Find(&assignments).Error; err == nil && len(assignments) > 0 {
			results["assignments"] = assignments
		}
	}

	if wants("contracts") {
		query := scope(&model.Contract{}, "number", "terms")
		if status != "" {
			query = query.Where("status = ?", status)
		}
		var contracts []model.Contract
		if err := query.Limit(searchLimit).Find(&contracts).Error; err == nil && len(contracts) > 0 {
			results["contracts"] = contracts
		}
	}

	if wants("billings") {
		query := scope(&model.Billing{}, "invoice_number")
		if status != "" {
			query = query.Where("payment_status = ?", status)
		}
		var billings []model.Billing
		if err := query.Limit(searchLimit).Find(&billings).Error; err == nil && len(billings) > 0 {
			results["billings"] = billings
		}
	}

	if wants("photos") {
		query := scope(&model.Photo{}, "caption")
		if status != "" {
			query = query.Where("status = ?", status)
		}
		var photos []model.Photo
		if err := query.Limit(searchLimit).Find(&photos).Error; err == nil && len(photos) > 0 {
			results["photos"] = photos
		}
	}

	log.Info("Search executed",
		zap.String("q", q),
		zap.String("type", typeFilter),
		zap.Int("result_types", len(results)))
	return response.Success(c, http.StatusOK, "Search completed", results)
}

// PublicSearch is the unauthenticated variant: active hoardings only,
// with a tighter cap.
func PublicSearch(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordSearch("public")

	q := c.QueryParam("q")
	city := c.QueryParam("city")

	query := database.GetDB().Model(&model.Hoarding{}).
		Where("status = ?", model.HoardingActive)
	if q != "" {
		query = likeAny(query, q, "name", "address", "city")
	}
	if city != "" {
		query = query.Where("LOWER(city) = LOWER(?)", city)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var hoardings []model.Hoarding
	if err := query.Limit(publicSearchLimit).Find(&hoardings).Error; err != nil {
		log.Error("Public search failed", zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "Search failed", "could not execute search")
	}

	results := echo.Map{}
	if len(hoardings) > 0 {
		results["hoardings"] = hoardings
	}
	return response.Success(c, http.StatusOK, "Search completed", results)
}

// likeAny matches q case-insensitively as a substring of any column.
func likeAny(query *gorm.DB, q string, columns ...string) *gorm.DB {
	pattern := "%" + strings.ToLower(q) + "%"
	var clauses []string
	var args []interface{}
	for _, col := range columns {
		clauses = append(clauses, "LOWER("+col+") LIKE ?")
		args = append(args, pattern)
	}
	return query.Where(strings.Join(clauses, " OR "), args...)
}
