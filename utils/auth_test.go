package utils

import (
	"testing"
	"time"

	"github.com/investlink/commission_backend/middleware"
)

func TestValidateToken_EnvAdmin(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	token, _, err := middleware.GenerateJWT(middleware.SuperAdminID, "ops@investlink.io", "admin")
	if err != nil {
		t.Fatalf("GenerateJWT failed: %v", err)
	}

	// The env-configured admin has no database record, so validation must
	// succeed without touching the database.
	response, err := ValidateToken(token, nil)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}

	if !response.Valid {
		t.Fatalf("Expected valid token, got %q", response.Message)
	}
	if response.User == nil {
		t.Fatal("Expected a synthetic admin account")
	}
	if response.User.Email != "ops@investlink.io" || response.User.UserType != "admin" {
		t.Errorf("Expected env admin identity, got %+v", response.User)
	}
	if !response.User.ID.IsZero() {
		t.Errorf("Expected zero ObjectID for the env admin, got %v", response.User.ID)
	}
	if !response.User.IsActive {
		t.Error("Expected env admin to always be active")
	}
}

func TestValidateToken_EmptyToken(t *testing.T) {
	response, err := ValidateToken("", nil)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if response.Valid {
		t.Error("Expected empty token to be invalid")
	}
	if response.Message != "No token provided" {
		t.Errorf("Unexpected message %q", response.Message)
	}
}

func TestValidateToken_Garbage(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	response, err := ValidateToken("not-a-jwt", nil)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if response.Valid {
		t.Error("Expected malformed token to be invalid")
	}
}

func TestValidateToken_WrongSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	token, _, err := middleware.GenerateJWT(middleware.SuperAdminID, "forged@investlink.io", "admin")
	if err != nil {
		t.Fatalf("GenerateJWT failed: %v", err)
	}

	t.Setenv("JWT_SECRET", "rotated-secret")
	response, err := ValidateToken(token, nil)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if response.Valid {
		t.Error("Expected token signed with the old secret to be rejected")
	}
}

func TestValidateToken_Blacklisted(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	token, _, err := middleware.GenerateJWT(middleware.SuperAdminID, "logged-out@investlink.io", "admin")
	if err != nil {
		t.Fatalf("GenerateJWT failed: %v", err)
	}

	middleware.BlacklistToken(token, time.Now().Add(time.Hour))

	response, err := ValidateToken(token, nil)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if response.Valid {
		t.Error("Expected blacklisted token to be invalid")
	}
	if response.Message != "Token has been invalidated" {
		t.Errorf("Unexpected message %q", response.Message)
	}
}

func TestValidateTokenFromHeader(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	token, _, err := middleware.GenerateJWT(middleware.SuperAdminID, "header@investlink.io", "admin")
	if err != nil {
		t.Fatalf("GenerateJWT failed: %v", err)
	}

	testCases := []struct {
		name   string
		header string
		valid  bool
	}{
		{name: "bearer token", header: "Bearer " + token, valid: true},
		{name: "missing header", header: "", valid: false},
		{name: "wrong scheme", header: "Token " + token, valid: false},
		{name: "bare token without scheme", header: token, valid: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			response, err := ValidateTokenFromHeader(tc.header, nil)
			if err != nil {
				t.Fatalf("ValidateTokenFromHeader failed: %v", err)
			}
			if response.Valid != tc.valid {
				t.Errorf("Expected valid=%v, got %v (%q)", tc.valid, response.Valid, response.Message)
			}
		})
	}
}
