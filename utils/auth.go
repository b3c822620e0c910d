// utils/auth.go
package utils

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/investlink/commission_backend/middleware"
	"github.com/investlink/commission_backend/models"
)

// ValidateTokenResponse represents the response for token validation
type ValidateTokenResponse struct {
	Valid     bool          `json:"valid"`
	User      *models.Admin `json:"user,omitempty"`
	Message   string        `json:"message,omitempty"`
	ExpiresAt *time.Time    `json:"expiresAt,omitempty"`
}

// ValidateToken validates a JWT token and returns account information if
// valid. The frontend uses this to check session validity.
func ValidateToken(tokenString string, db *mongo.Database) (*ValidateTokenResponse, error) {
	if tokenString == "" {
		return &ValidateTokenResponse{
			Valid:   false,
			Message: "No token provided",
		}, nil
	}

	if middleware.IsTokenBlacklisted(tokenString) {
		return &ValidateTokenResponse{
			Valid:   false,
			Message: "Token has been invalidated",
		}, nil
	}

	// Parse and validate the token
	token, err := jwt.ParseWithClaims(tokenString, &middleware.JwtCustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		// Validate the signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(middleware.GetJWTSecret()), nil
	})

	if err != nil {
		return &ValidateTokenResponse{
			Valid:   false,
			Message: "Invalid token: " + err.Error(),
		}, nil
	}

	if !token.Valid {
		return &ValidateTokenResponse{
			Valid:   false,
			Message: "Token is not valid",
		}, nil
	}

	// Extract claims
	claims, ok := token.Claims.(*middleware.JwtCustomClaims)
	if !ok {
		return &ValidateTokenResponse{
			Valid:   false,
			Message: "Invalid token claims",
		}, nil
	}

	// Check if token is expired (ExpiresAt is Unix timestamp)
	if claims.ExpiresAt > 0 && time.Now().Unix() > claims.ExpiresAt {
		return &ValidateTokenResponse{
			Valid:   false,
			Message: "Token has expired",
		}, nil
	}

	// The env-configured super admin has no database record
	if claims.UserID == middleware.SuperAdminID {
		var expiresAt *time.Time
		if claims.ExpiresAt > 0 {
			expTime := time.Unix(claims.ExpiresAt, 0)
			expiresAt = &expTime
		}
		return &ValidateTokenResponse{
			Valid: true,
			User: &models.Admin{
				Email:    claims.Email,
				UserType: "admin",
				IsActive: true,
			},
			Message:   "Token is valid",
			ExpiresAt: expiresAt,
		}, nil
	}

	// Convert string ID to ObjectID
	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return &ValidateTokenResponse{
			Valid:   false,
			Message: "Invalid user ID format",
		}, nil
	}

	// Create context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Find account in database
	adminsCollection := db.Collection("admins")
	var admin models.Admin
	err = adminsCollection.FindOne(ctx, bson.M{"_id": userID}).Decode(&admin)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return &ValidateTokenResponse{
				Valid:   false,
				Message: "Account not found",
			}, nil
		}
		return &ValidateTokenResponse{
			Valid:   false,
			Message: "Error retrieving account: " + err.Error(),
		}, nil
	}

	// Check if account is active
	if !admin.IsActive {
		return &ValidateTokenResponse{
			Valid:   false,
			Message: "Account is inactive",
		}, nil
	}

	// Don't return password in response
	admin.Password = ""

	// Calculate token expiration time from Unix timestamp
	var expiresAt *time.Time
	if claims.ExpiresAt > 0 {
		expTime := time.Unix(claims.ExpiresAt, 0)
		expiresAt = &expTime
	}

	return &ValidateTokenResponse{
		Valid:     true,
		User:      &admin,
		Message:   "Token is valid",
		ExpiresAt: expiresAt,
	}, nil
}

// ValidateTokenFromHeader extracts token from Authorization header and validates it
func ValidateTokenFromHeader(authHeader string, db *mongo.Database) (*ValidateTokenResponse, error) {
	if authHeader == "" {
		return &ValidateTokenResponse{
			Valid:   false,
			Message: "No authorization header provided",
		}, nil
	}

	// Extract token from "Bearer <token>" format
	if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
		return &ValidateTokenResponse{
			Valid:   false,
			Message: "Invalid authorization header format",
		}, nil
	}

	tokenString := authHeader[7:] // Remove "Bearer " prefix
	return ValidateToken(tokenString, db)
}
