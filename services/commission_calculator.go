// services/commission_calculator.go
package services

import (
	"context"
	"math"
	"time"

	"github.com/investlink/commission_backend/models"
)

// StructureStore is the lookup the calculator needs. The Mongo-backed
// repositories.StructureRepository satisfies it.
type StructureStore interface {
	GetByStructureID(ctx context.Context, structureID string) (*models.CommissionStructure, error)
}

// CalculationInput carries the caller-supplied parameters for one calculation.
type CalculationInput struct {
	StructureID string
	BaseAmount  float64
	Metrics     *models.PerformanceMetricsInput
	Volume      *float64
	// Now pins the evaluation time for campaign windows. Zero means time.Now().
	Now time.Time
}

// CommissionCalculator composes the volume, campaign and performance
// evaluations against a stored commission structure. Aside from the structure
// lookup each call is a pure computation over its inputs, so a single
// calculator is safe for concurrent use.
type CommissionCalculator struct {
	structures StructureStore
}

// NewCommissionCalculator creates a calculator backed by the given store
func NewCommissionCalculator(structures StructureStore) *CommissionCalculator {
	return &CommissionCalculator{structures: structures}
}

// Calculate computes the payable commission for one request. Malformed input
// is rejected before any computation and no partial result is ever returned.
// The structure is read once and treated as an immutable snapshot for the
// whole calculation, so concurrent structure edits cannot tear a result.
func (cc *CommissionCalculator) Calculate(ctx context.Context, input CalculationInput) (*models.CommissionCalculation, error) {
	if err := validateCalculationInput(input); err != nil {
		return nil, err
	}

	structure, err := cc.structures.GetByStructureID(ctx, input.StructureID)
	if err != nil {
		return nil, err
	}
	if !structure.IsActive {
		return nil, models.ErrInactiveStructure
	}
	if err := verifyStructureConfig(structure); err != nil {
		return nil, err
	}

	now := input.Now
	if now.IsZero() {
		now = time.Now()
	}
	return evaluate(structure, input, now), nil
}

// evaluate runs the rule pipeline against a verified structure snapshot.
func evaluate(structure *models.CommissionStructure, input CalculationInput, now time.Time) *models.CommissionCalculation {
	volumeRes := ResolveVolumeThreshold(input.Volume, structure.VolumeThresholds)
	campaignEval := EvaluateCampaign(structure.CampaignRules, now, input.Volume)
	performanceEval := EvaluatePerformance(input.Metrics, structure.PerformanceMultiplier, structure.BaseRate)

	// A cumulative threshold replaces the base rate; an incremental one keeps
	// it and contributes a flat adjustment instead.
	baseRate := structure.BaseRate
	if volumeRes.CumulativeRate != nil {
		baseRate = *volumeRes.CumulativeRate
	}

	effectiveRate := baseRate + campaignEval.RateBonus + performanceEval.RateBonus
	baseContribution := input.BaseAmount * baseRate / 100.0
	campaignBonus := input.BaseAmount * campaignEval.RateBonus / 100.0
	performanceBonus := input.BaseAmount * performanceEval.RateBonus / 100.0
	rawAmount := input.BaseAmount*effectiveRate/100.0 + volumeRes.Adjustment

	// The binding cap is the tightest of the structure cap and, while a
	// campaign runs, the campaign cap.
	bindingCap := math.Inf(1)
	if structure.MaxCommission > 0 {
		bindingCap = structure.MaxCommission
	}
	if campaignEval.Active && campaignEval.MaxCommission > 0 && campaignEval.MaxCommission < bindingCap {
		bindingCap = campaignEval.MaxCommission
	}

	finalAmount := rawAmount
	if finalAmount > bindingCap {
		finalAmount = bindingCap
	}
	if structure.MinCommission > 0 && finalAmount < structure.MinCommission {
		finalAmount = structure.MinCommission
	}

	breakdown := map[string]interface{}{
		models.BreakdownBase: baseContribution,
	}
	if performanceBonus != 0 {
		breakdown[models.BreakdownPerformanceBonus] = performanceBonus
	}
	if campaignBonus != 0 {
		breakdown[models.BreakdownCampaignBonus] = campaignBonus
	}
	if volumeRes.Adjustment != 0 {
		breakdown[models.BreakdownVolumeAdjustment] = volumeRes.Adjustment
	}
	if finalAmount != rawAmount {
		breakdown[models.BreakdownClampApplied] = true
	}

	appliedRules := make([]string, 0, 4)
	if volumeRes.RuleID != "" {
		appliedRules = append(appliedRules, volumeRes.RuleID)
	}
	appliedRules = append(appliedRules, campaignEval.RuleIDs...)
	appliedRules = append(appliedRules, performanceEval.RuleIDs...)

	return &models.CommissionCalculation{
		StructureID:      structure.StructureID,
		BaseAmount:       input.BaseAmount,
		PerformanceBonus: performanceBonus,
		CampaignBonus:    campaignBonus,
		VolumeAdjustment: volumeRes.Adjustment,
		EffectiveRate:    effectiveRate,
		FinalAmount:      finalAmount,
		Breakdown:        breakdown,
		AppliedRules:     appliedRules,
		CalculatedAt:     now,
	}
}

func validateCalculationInput(input CalculationInput) error {
	if input.StructureID == "" {
		return models.NewValidationError("structureId", "structure id is required")
	}
	if input.BaseAmount < 0 {
		return models.NewValidationError("baseAmount", "base amount cannot be negative")
	}
	if input.Volume != nil && *input.Volume < 0 {
		return models.NewValidationError("volume", "volume cannot be negative")
	}
	if input.Metrics != nil {
		if err := input.Metrics.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// verifyStructureConfig guards against corrupted stored configuration.
// Request validation rejects these shapes at write time, but documents edited
// out of band must not silently produce a wrong amount.
func verifyStructureConfig(s *models.CommissionStructure) error {
	if s.BaseRate < 0 || s.BaseRate > 100 {
		return models.NewConfigurationError(s.StructureID, "base rate outside 0-100")
	}
	if s.PerformanceMultiplier < 0 || s.PerformanceMultiplier > 2 {
		return models.NewConfigurationError(s.StructureID, "performance multiplier outside 0-2")
	}
	if s.MinCommission > 0 && s.MaxCommission > 0 && s.MinCommission > s.MaxCommission {
		return models.NewConfigurationError(s.StructureID, "min commission exceeds max commission")
	}
	if c := s.CampaignRules; c != nil && c.EndDate.Before(c.StartDate) {
		return models.NewConfigurationError(s.StructureID, "campaign end date before start date")
	}

	seen := make(map[float64]bool, len(s.VolumeThresholds))
	for _, t := range s.VolumeThresholds {
		if t.MinVolume < 0 {
			return models.NewConfigurationError(s.StructureID, "negative threshold minVolume")
		}
		if t.Rate < 0 || t.Rate > 100 {
			return models.NewConfigurationError(s.StructureID, "threshold rate outside 0-100")
		}
		if seen[t.MinVolume] {
			return models.NewConfigurationError(s.StructureID, "duplicate threshold minVolume "+formatThresholdVolume(t.MinVolume))
		}
		seen[t.MinVolume] = true
	}
	return nil
}
