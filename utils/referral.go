package utils

import (
	"crypto/rand"
	"encoding/base32"
	"strings"
)

// ShareCodeType represents the kind of entity a share code is generated for
type ShareCodeType string

const (
	CampaignCodeType  ShareCodeType = "CMP"
	StructureCodeType ShareCodeType = "STR"
)

// GenerateShareCode generates a unique share code for the specified entity type.
// Format: {TYPE}-{RANDOM} where RANDOM is 6 alphanumeric characters
// Example: CMP-ABC123, STR-XYZ789
func GenerateShareCode(entityType ShareCodeType) (string, error) {
	// Generate 4 random bytes (will give us 6 characters in base32)
	randomBytes := make([]byte, 4)
	_, err := rand.Read(randomBytes)
	if err != nil {
		return "", err
	}

	// Convert to base32 and take first 6 characters
	randomStr := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(randomBytes)
	randomStr = randomStr[:6]

	// Convert to uppercase and remove any non-alphanumeric characters
	randomStr = strings.ToUpper(randomStr)
	randomStr = strings.Map(func(r rune) rune {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return -1
	}, randomStr)

	// Ensure we have exactly 6 characters
	if len(randomStr) < 6 {
		randomStr = randomStr + strings.Repeat("0", 6-len(randomStr))
	}

	return string(entityType) + "-" + randomStr, nil
}

// GenerateCampaignShareCode generates a share code agents hand out while a
// campaign runs; referred signups entered with the code count toward the
// campaign's referral bonus.
func GenerateCampaignShareCode() (string, error) {
	return GenerateShareCode(CampaignCodeType)
}
