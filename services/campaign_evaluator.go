package services

import (
	"time"

	"github.com/investlink/commission_backend/models"
)

// CampaignEvaluation is the outcome of evaluating a structure's campaign rules
// at a point in time.
type CampaignEvaluation struct {
	Active bool
	// RateBonus is the percentage-point bonus added to the effective rate
	// while the campaign runs, including the referral bonus when earned.
	RateBonus float64
	// MaxCommission is the campaign cap. Zero when the campaign is inactive
	// or carries no cap of its own.
	MaxCommission float64
	RuleIDs       []string
}

// EvaluateCampaign applies a structure's campaign rules for the given time and
// referral volume. Outside the campaign window, or without campaign rules, the
// evaluation is empty and nothing fires.
func EvaluateCampaign(campaign *models.CampaignRules, now time.Time, volume *float64) CampaignEvaluation {
	if !campaign.IsActiveAt(now) {
		return CampaignEvaluation{}
	}

	eval := CampaignEvaluation{
		Active:        true,
		RateBonus:     campaign.BaseRate,
		MaxCommission: campaign.MaxCommission,
		RuleIDs:       []string{"campaign:" + campaign.CampaignID + ":active"},
	}

	// The referral bonus needs an actual count; the transaction volume doubles
	// as that count when the caller supplies one.
	if volume != nil && *volume >= campaign.MinReferrals {
		eval.RateBonus += campaign.BonusRate
		eval.RuleIDs = append(eval.RuleIDs, "campaign:"+campaign.CampaignID+":bonus")
	}
	return eval
}
