// controllers/auth_controller.go
package controllers

import (
	"context"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"github.com/investlink/commission_backend/config"
	"github.com/investlink/commission_backend/middleware"
	"github.com/investlink/commission_backend/models"
	"github.com/investlink/commission_backend/repositories"
	"github.com/investlink/commission_backend/utils"
)

// AuthController contains authentication logic
type AuthController struct {
	DB            *mongo.Database
	adminRepo     *repositories.AdminRepository
	logger        *log.Logger
	loginAttempts map[string]struct {
		count       int
		lastAttempt time.Time
	}
	loginAttemptsMu sync.RWMutex
}

// NewAuthController creates a new auth controller
func NewAuthController(db *mongo.Database) *AuthController {
	ac := &AuthController{
		DB:        db,
		adminRepo: repositories.NewAdminRepository(db),
		logger:    log.New(os.Stdout, "[AUTH] ", log.LstdFlags),
		loginAttempts: make(map[string]struct {
			count       int
			lastAttempt time.Time
		}),
	}

	go ac.startLoginAttemptCleanupRoutine()

	return ac
}

// Login authenticates an admin or agent account and returns a JWT pair.
// The env-configured admin (ADMIN_EMAIL/ADMIN_PASSWORD) is checked first so
// the service is usable before any account exists in the database.
func (ac *AuthController) Login(c echo.Context) error {
	var loginReq models.LoginRequest
	if err := c.Bind(&loginReq); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	if err := c.Validate(&loginReq); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Email and password are required",
		})
	}

	email, err := utils.SanitizeEmail(loginReq.Email)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid email format",
		})
	}
	loginReq.Email = email
	loginReq.Password = utils.SanitizeInput(loginReq.Password)

	ac.loginAttemptsMu.RLock()
	attempts, exists := ac.loginAttempts[loginReq.Email]
	ac.loginAttemptsMu.RUnlock()

	if exists && attempts.count >= 5 && time.Since(attempts.lastAttempt) < 30*time.Minute {
		return c.JSON(http.StatusTooManyRequests, models.Response{
			Status:  http.StatusTooManyRequests,
			Message: "Too many failed login attempts. Please try again later.",
		})
	}

	// Env-configured admin login
	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminEmail != "" && adminPassword != "" && loginReq.Email == adminEmail {
		if loginReq.Password != adminPassword {
			ac.recordFailedAttempt(loginReq.Email)
			return c.JSON(http.StatusUnauthorized, models.Response{
				Status:  http.StatusUnauthorized,
				Message: "Invalid admin credentials",
			})
		}

		token, refreshToken, err := middleware.GenerateJWT(middleware.SuperAdminID, loginReq.Email, "admin")
		if err != nil {
			return c.JSON(http.StatusInternalServerError, models.Response{
				Status:  http.StatusInternalServerError,
				Message: "Failed to generate token",
			})
		}

		ac.clearFailedAttempts(loginReq.Email)
		ac.setAuthCookie(c, token)

		return c.JSON(http.StatusOK, models.Response{
			Status:  http.StatusOK,
			Message: "Admin login successful",
			Data: map[string]interface{}{
				"token":        token,
				"refreshToken": refreshToken,
				"user": map[string]interface{}{
					"email":    loginReq.Email,
					"userType": "admin",
				},
			},
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	admin, err := ac.adminRepo.FindByEmail(ctx, loginReq.Email)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			ac.recordFailedAttempt(loginReq.Email)
			return c.JSON(http.StatusUnauthorized, models.Response{
				Status:  http.StatusUnauthorized,
				Message: "Invalid credentials",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to find account",
		})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte(loginReq.Password)); err != nil {
		ac.recordFailedAttempt(loginReq.Email)
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid credentials",
		})
	}

	ac.clearFailedAttempts(loginReq.Email)

	token, refreshToken, err := middleware.GenerateJWT(admin.ID.Hex(), admin.Email, admin.UserType)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate token",
		})
	}

	if err := ac.adminRepo.SetActive(ctx, admin.ID, true); err != nil {
		// Log the error but don't fail the login
		ac.logger.Printf("Failed to update active status: %v", err)
	}

	admin.Password = ""

	// Handle "Remember Me" functionality
	var rememberMeToken string
	if loginReq.RememberMe {
		redisClient := config.GetRedisClient()
		if redisClient != nil {
			rememberMeToken, err = utils.GenerateRememberMeToken()
			if err == nil {
				credentials := utils.RememberedCredentials{
					Email:     admin.Email,
					UserType:  admin.UserType,
					UserID:    admin.ID.Hex(),
					ExpiresAt: time.Now().AddDate(0, 1, 0),
				}

				err = utils.StoreRememberedCredentials(redisClient, rememberMeToken, credentials, 30*24*time.Hour)
				if err != nil {
					ac.logger.Printf("Failed to store remember me credentials: %v", err)
					// Don't fail login if remember me fails
					rememberMeToken = ""
				}
			}
		}
	}

	responseData := map[string]interface{}{
		"token":        token,
		"refreshToken": refreshToken,
		"user":         admin,
	}
	if rememberMeToken != "" {
		responseData["rememberMeToken"] = rememberMeToken
	}

	ac.setAuthCookie(c, token)

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Login successful",
		Data:    responseData,
	})
}

// Logout invalidates the caller's token
func (ac *AuthController) Logout(c echo.Context) error {
	userID := middleware.GetUserIDFromToken(c)
	if userID == "" {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid token",
		})
	}

	userToken := c.Get("user")
	if userToken == nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "No token found",
		})
	}

	token, ok := userToken.(*jwt.Token)
	if !ok {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid token type",
		})
	}

	tokenString := token.Raw
	claims, ok := token.Claims.(*middleware.JwtCustomClaims)
	if !ok {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid token claims",
		})
	}

	now := time.Now()

	var tokenExpiry time.Time
	if claims.ExpiresAt > 0 {
		tokenExpiry = time.Unix(claims.ExpiresAt, 0)
	} else {
		// Tokens without expiry stay blacklisted for a day
		tokenExpiry = now.Add(24 * time.Hour)
	}

	middleware.BlacklistToken(tokenString, tokenExpiry)

	// The env-configured admin has no database record to update
	if userID != middleware.SuperAdminID {
		if objID, err := primitive.ObjectIDFromHex(userID); err == nil {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := ac.adminRepo.SetActive(ctx, objID, false); err != nil {
				ac.logger.Printf("Failed to update logout status: %v", err)
			}
		}
	}

	ac.logger.Printf("Logout - UserID: %s, UserType: %s, IP: %s", userID, claims.UserType, c.RealIP())

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Logged out successfully",
		Data: map[string]interface{}{
			"logoutTime": now,
		},
	})
}

// RefreshToken issues a fresh JWT pair for a still-valid token
func (ac *AuthController) RefreshToken(c echo.Context) error {
	authHeader := c.Request().Header.Get("Authorization")

	response, err := utils.ValidateTokenFromHeader(authHeader, ac.DB)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Error validating token: " + err.Error(),
		})
	}

	if !response.Valid {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: response.Message,
		})
	}

	userID := middleware.SuperAdminID
	if !response.User.ID.IsZero() {
		userID = response.User.ID.Hex()
	}

	token, refreshToken, err := middleware.GenerateJWT(userID, response.User.Email, response.User.UserType)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate new tokens",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Token refreshed successfully",
		Data: map[string]interface{}{
			"token":        token,
			"refreshToken": refreshToken,
			"user":         response.User,
		},
	})
}

// ValidateToken lets the frontend check whether its session is still valid
func (ac *AuthController) ValidateToken(c echo.Context) error {
	authHeader := c.Request().Header.Get("Authorization")

	response, err := utils.ValidateTokenFromHeader(authHeader, ac.DB)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Error validating token: " + err.Error(),
		})
	}

	status := http.StatusOK
	if !response.Valid {
		status = http.StatusUnauthorized
	}

	return c.JSON(status, models.Response{
		Status:  status,
		Message: response.Message,
		Data:    response,
	})
}

// CreateAdmin registers a new admin or agent account. Admin-gated.
func (ac *AuthController) CreateAdmin(c echo.Context) error {
	var req models.CreateAdminRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid account data: " + err.Error(),
		})
	}

	email, err := utils.SanitizeEmail(req.Email)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid email format",
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := ac.adminRepo.EmailExists(ctx, email)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to check existing accounts",
		})
	}
	if exists {
		return c.JSON(http.StatusConflict, models.Response{
			Status:  http.StatusConflict,
			Message: "An account with this email already exists",
		})
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to hash password",
		})
	}

	admin := &models.Admin{
		Email:    email,
		Password: string(hashedPassword),
		FullName: utils.SanitizeInput(req.FullName),
		UserType: req.UserType,
		IsActive: false,
	}

	if err := ac.adminRepo.Create(ctx, admin); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to create account",
		})
	}

	admin.Password = ""

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Account created successfully",
		Data:    admin,
	})
}

// GetRememberedCredentials retrieves stored credentials using a remember me token
func (ac *AuthController) GetRememberedCredentials(c echo.Context) error {
	var req struct {
		RememberMeToken string `json:"rememberMeToken"`
	}
	if err := c.Bind(&req); err != nil || req.RememberMeToken == "" {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Remember me token is required",
		})
	}

	redisClient := config.GetRedisClient()
	if redisClient == nil {
		return c.JSON(http.StatusServiceUnavailable, models.Response{
			Status:  http.StatusServiceUnavailable,
			Message: "Remember me is not available",
		})
	}

	credentials, err := utils.RetrieveRememberedCredentials(redisClient, req.RememberMeToken)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid or expired remember me token",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Remembered credentials retrieved",
		Data: map[string]interface{}{
			"email":    credentials.Email,
			"userType": credentials.UserType,
		},
	})
}

// ClearRememberedCredentials removes stored credentials for a remember me token
func (ac *AuthController) ClearRememberedCredentials(c echo.Context) error {
	var req struct {
		RememberMeToken string `json:"rememberMeToken"`
	}
	if err := c.Bind(&req); err != nil || req.RememberMeToken == "" {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Remember me token is required",
		})
	}

	redisClient := config.GetRedisClient()
	if redisClient == nil {
		return c.JSON(http.StatusServiceUnavailable, models.Response{
			Status:  http.StatusServiceUnavailable,
			Message: "Remember me is not available",
		})
	}

	if err := utils.RemoveRememberedCredentials(redisClient, req.RememberMeToken); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to remove remembered credentials",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Remembered credentials cleared",
	})
}

func (ac *AuthController) setAuthCookie(c echo.Context, token string) {
	cookie := new(http.Cookie)
	cookie.Name = "auth_token"
	cookie.Value = token
	cookie.Expires = time.Now().Add(24 * time.Hour)
	cookie.HttpOnly = true
	cookie.Secure = os.Getenv("ENV") == "production"
	cookie.SameSite = http.SameSiteStrictMode
	c.SetCookie(cookie)
}

func (ac *AuthController) recordFailedAttempt(identifier string) {
	ac.loginAttemptsMu.Lock()
	defer ac.loginAttemptsMu.Unlock()

	attempts, exists := ac.loginAttempts[identifier]
	if !exists {
		ac.loginAttempts[identifier] = struct {
			count       int
			lastAttempt time.Time
		}{count: 1, lastAttempt: time.Now()}
		return
	}
	ac.loginAttempts[identifier] = struct {
		count       int
		lastAttempt time.Time
	}{count: attempts.count + 1, lastAttempt: time.Now()}
}

func (ac *AuthController) clearFailedAttempts(identifier string) {
	ac.loginAttemptsMu.Lock()
	delete(ac.loginAttempts, identifier)
	ac.loginAttemptsMu.Unlock()
}

func (ac *AuthController) startLoginAttemptCleanupRoutine() {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		ac.loginAttemptsMu.Lock()
		now := time.Now()
		for identifier, attempts := range ac.loginAttempts {
			if now.Sub(attempts.lastAttempt) > 30*time.Minute {
				delete(ac.loginAttempts, identifier)
			}
		}
		ac.loginAttemptsMu.Unlock()
	}
}
