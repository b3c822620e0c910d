package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PerformanceMetricsInput represents caller-supplied performance metrics for
// a single calculation. The input is transient and never persisted.
type PerformanceMetricsInput struct {
	ConversionRate float64 `json:"conversionRate" bson:"conversionRate"` // 0-100
	ResponseTime   float64 `json:"responseTime" bson:"responseTime"`     // hours, lower is better
	QualityScore   float64 `json:"qualityScore" bson:"qualityScore"`     // 0-100
	ActivityLevel  float64 `json:"activityLevel" bson:"activityLevel"`   // 0-100
}

// Validate checks the metric ranges and returns a ValidationError naming the
// offending field.
func (m *PerformanceMetricsInput) Validate() error {
	if m.ConversionRate < 0 || m.ConversionRate > 100 {
		return NewValidationError("conversionRate", "conversion rate must be between 0 and 100")
	}
	if m.ResponseTime < 0 {
		return NewValidationError("responseTime", "response time cannot be negative")
	}
	if m.QualityScore < 0 || m.QualityScore > 100 {
		return NewValidationError("qualityScore", "quality score must be between 0 and 100")
	}
	if m.ActivityLevel < 0 || m.ActivityLevel > 100 {
		return NewValidationError("activityLevel", "activity level must be between 0 and 100")
	}
	return nil
}

// CommissionCalculation represents the fully derived result of one commission
// calculation. It is never authoritative state; callers may log it and this
// service stores a copy in commission_records for auditability.
type CommissionCalculation struct {
	CalculationID    string                 `json:"calculationId" bson:"calculationId"`
	StructureID      string                 `json:"structureId" bson:"structureId"`
	BaseAmount       float64                `json:"baseAmount" bson:"baseAmount"`
	PerformanceBonus float64                `json:"performanceBonus" bson:"performanceBonus"`
	CampaignBonus    float64                `json:"campaignBonus" bson:"campaignBonus"`
	VolumeAdjustment float64                `json:"volumeAdjustment" bson:"volumeAdjustment"`
	EffectiveRate    float64                `json:"effectiveRate" bson:"effectiveRate"`
	FinalAmount      float64                `json:"finalAmount" bson:"finalAmount"`
	Breakdown        map[string]interface{} `json:"calculationBreakdown" bson:"calculationBreakdown"`
	AppliedRules     []string               `json:"appliedRules" bson:"appliedRules"`
	CalculatedAt     time.Time              `json:"calculatedAt" bson:"calculatedAt"`
}

// Breakdown component keys. clamp_applied is only present when clamping
// changed the raw amount.
const (
	BreakdownBase             = "base"
	BreakdownPerformanceBonus = "performance_bonus"
	BreakdownCampaignBonus    = "campaign_bonus"
	BreakdownVolumeAdjustment = "volume_adjustment"
	BreakdownClampApplied     = "clamp_applied"
)

// CommissionRecord represents a logged calculation credited to an agent.
// Records are append-only; withdrawals are tracked in their own ledger and
// the available balance is derived from the two. The paid flag is settlement
// metadata: approved withdrawals mark the oldest unpaid records as covered.
type CommissionRecord struct {
	ID          primitive.ObjectID    `json:"id,omitempty" bson:"_id,omitempty"`
	AgentID     primitive.ObjectID    `json:"agentId,omitempty" bson:"agentId,omitempty"`
	StructureID string                `json:"structureId" bson:"structureId"`
	Calculation CommissionCalculation `json:"calculation" bson:"calculation"`
	CreatedAt   time.Time             `json:"createdAt" bson:"createdAt"`
	Paid        bool                  `json:"paid" bson:"paid"`
	PaidAt      *time.Time            `json:"paidAt,omitempty" bson:"paidAt,omitempty"`
}

// CommissionSummary aggregates an agent's earnings and withdrawals.
// Available balance = total earned - total withdrawn - total pending.
type CommissionSummary struct {
	TotalEarned      float64 `json:"totalEarned"`
	TotalPaid        float64 `json:"totalPaid"`
	TotalUnpaid      float64 `json:"totalUnpaid"`
	TotalWithdrawn   float64 `json:"totalWithdrawn"`
	TotalPending     float64 `json:"totalPending"`
	AvailableBalance float64 `json:"availableBalance"`
	CalculationCount int     `json:"calculationCount"`
}
