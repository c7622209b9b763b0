package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"hoarding-service/internal/model"
	"hoarding-service/internal/response"
	"hoarding-service/pkg/database"
	"hoarding-service/pkg/jwtutil"
	"hoarding-service/pkg/logger"
	"hoarding-service/prometheus"
)

// Register creates a user account plus its role profile and issues the
// first token. The whole operation runs in one transaction so a failure
// never leaves a user without a profile or token behind.
func Register(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RegisterCounter.Inc()

	var req struct {
		Name     string     `json:"name"`
		Email    string     `json:"email"`
		Password string     `json:"password"`
		Role     model.Role `json:"role"`
		Phone    string     `json:"phone"`
		Location string     `json:"location"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse registration request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return response.Error(c, http.StatusBadRequest, "Registration failed", "invalid request body")
	}

	if req.Name == "" || req.Email == "" || req.Password == "" {
		log.Error("Invalid registration data", zap.String("email", req.Email))
		prometheus.RecordAuthError("incomplete_registration")
		return response.Error(c, http.StatusBadRequest, "Registration failed", "name, email and password are required")
	}

	if !req.Role.IsValid() {
		log.Error("Invalid role", zap.String("role", string(req.Role)))
		prometheus.RecordAuthError("invalid_role")
		return response.Error(c, http.StatusBadRequest, "Registration failed", "role must be one of owner, client, photographer")
	}

	// Check if user already exists
	defer prometheus.TrackDBOperation("query")(time.Now())
	var existing model.User
	if err := database.GetDB().Where("email = ?", req.Email).First(&existing).Error; err == nil {
		log.Error("User already exists", zap.String("email", req.Email))
		prometheus.RecordAuthError("email_already_exists")
		return response.Error(c, http.StatusConflict, "Registration failed", "email already registered")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		prometheus.RecordAuthError("password_hash_failed")
		return response.Error(c, http.StatusInternalServerError, "Registration failed", "could not process registration")
	}

	user := model.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: string(hashedPassword),
		Role:     req.Role,
		Phone:    req.Phone,
		Location: req.Location,
	}

	var token string
	defer prometheus.TrackDBOperation("insert")(time.Now())
	err = database.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}

		switch user.Role {
		case model.RolePhotographer:
			profile := model.PhotographerProfile{UserID: user.ID, Status: model.ProfileActive}
			if err := tx.Create(&profile).Error; err != nil {
				return err
			}
		case model.RoleClient:
			profile := model.ClientProfile{UserID: user.ID, Status: model.ProfileActive}
			if err := tx.Create(&profile).Error; err != nil {
				return err
			}
		case model.RoleOwner:
			// Owners carry no extra profile
		}

		var err error
		token, err = jwtutil.GenerateToken(&user)
		return err
	})
	if err != nil {
		log.Error("Failed to register user", zap.String("email", req.Email), zap.Error(err))
		prometheus.RecordAuthError("user_creation_failed")
		return response.Error(c, http.StatusInternalServerError, "Registration failed", "could not create user")
	}

	log.Info("User registered",
		zap.String("email", user.Email),
		zap.String("role", string(user.Role)))
	return response.Success(c, http.StatusCreated, "User registered successfully", echo.Map{
		"token": token,
		"user":  user,
	})
}

// Login verifies credentials and issues a token carrying the user's role.
func Login(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.LoginCounter.Inc()

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse login request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return response.Error(c, http.StatusBadRequest, "Login failed", "invalid request body")
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var user model.User
	if err := database.GetDB().Where("email = ?", req.Email).First(&user).Error; err != nil {
		log.Error("User not found", zap.String("email", req.Email))
		prometheus.RecordAuthError("user_not_found")
		return response.Error(c, http.StatusUnauthorized, "Login failed", "invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		log.Error("Invalid password", zap.String("email", req.Email))
		prometheus.RecordAuthError("invalid_password")
		return response.Error(c, http.StatusUnauthorized, "Login failed", "invalid credentials")
	}

	token, err := jwtutil.GenerateToken(&user)
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		prometheus.RecordAuthError("token_generation_failed")
		return response.Error(c, http.StatusInternalServerError, "Login failed", "token error")
	}

	log.Info("User logged in",
		zap.String("email", user.Email),
		zap.String("role", string(user.Role)))
	return response.Success(c, http.StatusOK, "Login successful", echo.Map{
		"token": token,
		"user":  user,
	})
}
