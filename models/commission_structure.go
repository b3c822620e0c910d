package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CommissionStructure represents a named commission configuration used to
// compute payable commissions. Structures are created by admins, updated in
// place and never hard-deleted; deactivation happens via isActive=false.
type CommissionStructure struct {
	ID                    primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	StructureID           string             `json:"structureId" bson:"structureId"`
	Name                  string             `json:"name" bson:"name"`
	Description           string             `json:"description,omitempty" bson:"description,omitempty"`
	BaseRate              float64            `json:"baseRate" bson:"baseRate"`                           // percentage, 0-100
	PerformanceMultiplier float64            `json:"performanceMultiplier" bson:"performanceMultiplier"` // 0-2
	CampaignRules         *CampaignRules     `json:"campaignRules,omitempty" bson:"campaignRules,omitempty"`
	VolumeThresholds      []VolumeThreshold  `json:"volumeThresholds,omitempty" bson:"volumeThresholds,omitempty"`
	MaxCommission         float64            `json:"maxCommission" bson:"maxCommission"` // absolute cap, <=0 means no cap
	MinCommission         float64            `json:"minCommission" bson:"minCommission"` // absolute floor, <=0 means no floor
	IsActive              bool               `json:"isActive" bson:"isActive"`
	CreatedBy             primitive.ObjectID `json:"createdBy,omitempty" bson:"createdBy,omitempty"`
	CreatedAt             time.Time          `json:"createdAt,omitempty" bson:"createdAt,omitempty"`
	UpdatedAt             time.Time          `json:"updatedAt,omitempty" bson:"updatedAt,omitempty"`
}

// CampaignRules represents a time-boxed bonus program attached to a structure.
// The campaign is active on the whole closed interval [startDate, endDate] -
// both boundary instants count as active.
type CampaignRules struct {
	CampaignID    string    `json:"campaignId" bson:"campaignId"`
	StartDate     time.Time `json:"startDate" bson:"startDate"`
	EndDate       time.Time `json:"endDate" bson:"endDate"`
	BaseRate      float64   `json:"baseRate" bson:"baseRate"`           // percentage points added while active
	BonusRate     float64   `json:"bonusRate" bson:"bonusRate"`         // additional points once minReferrals is reached
	MinReferrals  float64   `json:"minReferrals" bson:"minReferrals"`   // referral/volume count gating bonusRate
	MaxCommission float64   `json:"maxCommission" bson:"maxCommission"` // campaign-specific cap, <=0 means no cap
	ShareCode     string    `json:"shareCode,omitempty" bson:"shareCode,omitempty"`
}

// VolumeThreshold represents one breakpoint in a volume-based rate schedule.
// A cumulative threshold applies its rate to the entire volume once crossed;
// an incremental threshold applies it only to the portion above minVolume.
type VolumeThreshold struct {
	MinVolume    float64 `json:"minVolume" bson:"minVolume"` // inclusive lower bound
	Rate         float64 `json:"rate" bson:"rate"`           // percentage, 0-100
	IsCumulative bool    `json:"isCumulative" bson:"isCumulative"`
}

// CommissionStructureRequest represents the request body for creating/updating commission structures
type CommissionStructureRequest struct {
	StructureID           string            `json:"structureId" validate:"required"`
	Name                  string            `json:"name" validate:"required"`
	Description           string            `json:"description"`
	BaseRate              float64           `json:"baseRate" validate:"min=0,max=100"`
	PerformanceMultiplier float64           `json:"performanceMultiplier" validate:"min=0,max=2"`
	CampaignRules         *CampaignRules    `json:"campaignRules,omitempty"`
	VolumeThresholds      []VolumeThreshold `json:"volumeThresholds,omitempty"`
	MaxCommission         float64           `json:"maxCommission"`
	MinCommission         float64           `json:"minCommission"`
	IsActive              bool              `json:"isActive"`
}

// Validate performs the range checks that cannot be expressed as validator
// tags: threshold ordering, campaign date ordering and bound consistency.
// It returns a ValidationError naming the offending field.
func (r *CommissionStructureRequest) Validate() error {
	if r.BaseRate < 0 || r.BaseRate > 100 {
		return NewValidationError("baseRate", "base rate must be between 0 and 100")
	}
	if r.PerformanceMultiplier < 0 || r.PerformanceMultiplier > 2 {
		return NewValidationError("performanceMultiplier", "performance multiplier must be between 0 and 2")
	}
	if r.MinCommission > 0 && r.MaxCommission > 0 && r.MinCommission > r.MaxCommission {
		return NewValidationError("minCommission", "minimum commission cannot exceed maximum commission")
	}
	seen := make(map[float64]bool)
	for _, t := range r.VolumeThresholds {
		if t.MinVolume < 0 {
			return NewValidationError("volumeThresholds", "threshold minVolume cannot be negative")
		}
		if t.Rate < 0 || t.Rate > 100 {
			return NewValidationError("volumeThresholds", "threshold rate must be between 0 and 100")
		}
		if seen[t.MinVolume] {
			return NewValidationError("volumeThresholds", "duplicate threshold minVolume values are not allowed")
		}
		seen[t.MinVolume] = true
	}
	if c := r.CampaignRules; c != nil {
		if c.CampaignID == "" {
			return NewValidationError("campaignRules.campaignId", "campaign ID is required")
		}
		if c.EndDate.Before(c.StartDate) {
			return NewValidationError("campaignRules.endDate", "campaign end date cannot be before start date")
		}
		if c.BaseRate < 0 || c.BaseRate > 100 {
			return NewValidationError("campaignRules.baseRate", "campaign base rate must be between 0 and 100")
		}
		if c.BonusRate < 0 || c.BonusRate > 100 {
			return NewValidationError("campaignRules.bonusRate", "campaign bonus rate must be between 0 and 100")
		}
		if c.MinReferrals < 0 {
			return NewValidationError("campaignRules.minReferrals", "minimum referrals cannot be negative")
		}
	}
	return nil
}

// ToStructure builds a CommissionStructure document from the request
func (r *CommissionStructureRequest) ToStructure() CommissionStructure {
	return CommissionStructure{
		StructureID:           r.StructureID,
		Name:                  r.Name,
		Description:           r.Description,
		BaseRate:              r.BaseRate,
		PerformanceMultiplier: r.PerformanceMultiplier,
		CampaignRules:         r.CampaignRules,
		VolumeThresholds:      r.VolumeThresholds,
		MaxCommission:         r.MaxCommission,
		MinCommission:         r.MinCommission,
		IsActive:              r.IsActive,
	}
}

// HasActiveCampaign reports whether the structure's campaign is active at the
// given instant.
func (s *CommissionStructure) HasActiveCampaign(now time.Time) bool {
	return s.CampaignRules.IsActiveAt(now)
}

// IsActiveAt reports whether the campaign window covers the given instant.
// Both boundary instants are inclusive.
func (c *CampaignRules) IsActiveAt(now time.Time) bool {
	if c == nil {
		return false
	}
	return !now.Before(c.StartDate) && !now.After(c.EndDate)
}
