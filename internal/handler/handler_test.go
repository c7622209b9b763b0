package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"hoarding-service/internal/middleware"
	"hoarding-service/internal/model"
	"hoarding-service/pkg/config"
	"hoarding-service/pkg/database"
	"hoarding-service/pkg/jwtutil"
)

const testPassword = "secret-pass-1"

// setupTest builds an in-memory database and an echo instance with the
// full route table, mirroring the server wiring.
func setupTest(t *testing.T) *echo.Echo {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	database.DB = db

	cfg := &config.Config{
		JWT: config.JWTConfig{SigningKey: "test-signing-key", ExpirationHours: 1},
		Upload: config.UploadConfig{
			Path:        t.TempDir(),
			MaxFileSize: 5 * 1024 * 1024,
		},
	}
	jwtutil.Initialize(&cfg.JWT)
	Initialize(cfg)

	e := echo.New()

	e.GET("/health", HealthCheck)
	e.GET("/public-search", PublicSearch)

	auth := e.Group("/auth")
	auth.POST("/login", Login)
	auth.POST("/register", Register)

	api := e.Group("/api")
	api.Use(middleware.AuthMiddleware)

	users := api.Group("/users")
	users.GET("/profile", GetProfile)
	users.PATCH("/profile", UpdateProfile)
	users.POST("/change-password", ChangePassword)
	users.POST("/avatar", UploadAvatar)
	users.GET("", ListUsers)

	hoardings := api.Group("/hoardings")
	hoardings.POST("", CreateHoarding)
	hoardings.GET("", ListHoardings)
	hoardings.GET("/analytics", HoardingAnalytics)
	hoardings.GET("/:id", GetHoarding)
	hoardings.PATCH("/:id", UpdateHoarding)
	hoardings.DELETE("/:id", DeleteHoarding)
	hoardings.POST("/:id/images", UploadHoardingImages)
	hoardings.DELETE("/:id/images", RemoveHoardingImage)

	assignments := api.Group("/assignments")
	assignments.POST("", CreateAssignment)
	assignments.GET("", ListAssignments)
	assignments.GET("/:id", GetAssignment)
	assignments.PATCH("/:id", UpdateAssignment)
	assignments.PATCH("/:id/status", UpdateAssignmentStatus)
	assignments.DELETE("/:id", DeleteAssignment)

	contracts := api.Group("/contracts")
	contracts.POST("", CreateContract)
	contracts.GET("", ListContracts)
	contracts.GET("/:id", GetContract)
	contracts.PATCH("/:id", UpdateContract)
	contracts.DELETE("/:id", DeleteContract)

	billings := api.Group("/billings")
	billings.POST("", CreateBilling)
	billings.GET("", ListBillings)
	billings.GET("/:id", GetBilling)
	billings.PATCH("/:id", UpdateBilling)
	billings.DELETE("/:id", DeleteBilling)

	photos := api.Group("/photos")
	photos.POST("", UploadPhoto)
	photos.GET("", ListPhotos)
	photos.GET("/:id", GetPhoto)
	photos.PATCH("/:id/status", UpdatePhotoStatus)
	photos.DELETE("/:id", DeletePhoto)

	api.GET("/search", Search)

	return e
}

// createUser inserts a user with the shared test password and its role
// profile, then returns the record and a valid token.
func createUser(t *testing.T, name string, role model.Role) (*model.User, string) {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)

	user := model.User{
		Name:     name,
		Email:    fmt.Sprintf("%s-%d@example.com", role, time.Now().UnixNano()),
		Password: string(hash),
		Role:     role,
	}
	require.NoError(t, database.GetDB().Create(&user).Error)

	switch role {
	case model.RolePhotographer:
		require.NoError(t, database.GetDB().Create(&model.PhotographerProfile{
			UserID: user.ID,
			Status: model.ProfileActive,
		}).Error)
	case model.RoleClient:
		require.NoError(t, database.GetDB().Create(&model.ClientProfile{
			UserID: user.ID,
			Status: model.ProfileActive,
		}).Error)
	}

	token, err := jwtutil.GenerateToken(&user)
	require.NoError(t, err)
	return &user, token
}

// doJSON issues a request with an optional JSON body and bearer token.
func doJSON(e *echo.Echo, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		encoded, _ := json.Marshal(body)
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

// decodeData unmarshals the envelope's data field into out.
func decodeData(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()

	var envelope struct {
		Success    bool            `json:"success"`
		StatusCode int             `json:"statusCode"`
		Message    string          `json:"message"`
		Data       json.RawMessage `json:"data"`
		Error      string          `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Equal(t, rec.Code, envelope.StatusCode, "statusCode must mirror the HTTP status")
	if out != nil {
		require.NoError(t, json.Unmarshal(envelope.Data, out))
	}
}

// pngUpload builds a multipart body with a real PNG under the given
// field name, plus any extra form fields.
func pngUpload(t *testing.T, field, filename string, extra map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 10, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 10; x++ {
			img.Set(x, y, color.RGBA{R: 10, G: 20, B: 30, A: 255})
		}
	}
	var encoded bytes.Buffer
	require.NoError(t, png.Encode(&encoded, img))

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for key, value := range extra {
		require.NoError(t, writer.WriteField(key, value))
	}
	part, err := writer.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(encoded.Bytes())
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	return body, writer.FormDataContentType()
}

// textUpload builds a multipart body with a plain text payload, for
// exercising the image sniffing rejection.
func textUpload(t *testing.T, field, filename, content string) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

// doMultipart issues a multipart request with a bearer token.
func doMultipart(e *echo.Echo, method, path, token string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, contentType)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

// createHoarding inserts a hoarding owned by ownerID directly.
func createHoarding(t *testing.T, ownerID uint, number string, status model.HoardingStatus) *model.Hoarding {
	t.Helper()

	hoarding := model.Hoarding{
		Number:    number,
		Name:      "Hoarding " + number,
		Address:   "1 Test Rd",
		City:      "Testville",
		DailyRate: 100,
		Status:    status,
		OwnerID:   ownerID,
	}
	require.NoError(t, database.GetDB().Create(&hoarding).Error)
	return &hoarding
}

func TestHealthCheck(t *testing.T) {
	e := setupTest(t)
	rec := doJSON(e, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthRequired(t *testing.T) {
	e := setupTest(t)

	rec := doJSON(e, http.MethodGet, "/api/hoardings", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(e, http.MethodGet, "/api/hoardings", "not-a-token", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthDeletedUser(t *testing.T) {
	e := setupTest(t)
	user, token := createUser(t, "Ghost", model.RoleOwner)

	require.NoError(t, database.GetDB().Delete(&model.User{}, user.ID).Error)

	rec := doJSON(e, http.MethodGet, "/api/users/profile", token, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
