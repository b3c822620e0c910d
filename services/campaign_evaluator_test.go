package services

import (
	"testing"
	"time"

	"github.com/investlink/commission_backend/models"
)

func testCampaign() *models.CampaignRules {
	return &models.CampaignRules{
		CampaignID:    "spring-push",
		StartDate:     time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:       time.Date(2026, 3, 31, 23, 59, 59, 0, time.UTC),
		BaseRate:      2,
		BonusRate:     3,
		MinReferrals:  10,
		MaxCommission: 5000,
	}
}

func TestEvaluateCampaign_NilCampaign(t *testing.T) {
	eval := EvaluateCampaign(nil, time.Now(), floatPtr(100))

	if eval.Active {
		t.Error("Expected inactive evaluation for nil campaign")
	}
	if eval.RateBonus != 0 {
		t.Errorf("Expected rate bonus 0, got %v", eval.RateBonus)
	}
	if len(eval.RuleIDs) != 0 {
		t.Errorf("Expected no rules, got %v", eval.RuleIDs)
	}
}

func TestEvaluateCampaign_WindowBoundaries(t *testing.T) {
	campaign := testCampaign()

	testCases := []struct {
		name   string
		now    time.Time
		active bool
	}{
		{name: "before start", now: campaign.StartDate.Add(-time.Second), active: false},
		{name: "exactly at start", now: campaign.StartDate, active: true},
		{name: "mid window", now: campaign.StartDate.AddDate(0, 0, 14), active: true},
		{name: "exactly at end", now: campaign.EndDate, active: true},
		{name: "after end", now: campaign.EndDate.Add(time.Second), active: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			eval := EvaluateCampaign(campaign, tc.now, nil)
			if eval.Active != tc.active {
				t.Errorf("Expected active=%v at %v, got %v", tc.active, tc.now, eval.Active)
			}
			if !tc.active && eval.RateBonus != 0 {
				t.Errorf("Expected no bonus outside the window, got %v", eval.RateBonus)
			}
		})
	}
}

func TestEvaluateCampaign_ActiveWithoutReferralBonus(t *testing.T) {
	campaign := testCampaign()
	now := campaign.StartDate.AddDate(0, 0, 7)

	eval := EvaluateCampaign(campaign, now, floatPtr(9))

	if !eval.Active {
		t.Fatal("Expected campaign to be active")
	}
	if eval.RateBonus != 2 {
		t.Errorf("Expected rate bonus 2 (campaign base only), got %v", eval.RateBonus)
	}
	if eval.MaxCommission != 5000 {
		t.Errorf("Expected campaign cap 5000, got %v", eval.MaxCommission)
	}
	if len(eval.RuleIDs) != 1 || eval.RuleIDs[0] != "campaign:spring-push:active" {
		t.Errorf("Expected just the active rule, got %v", eval.RuleIDs)
	}
}

func TestEvaluateCampaign_ReferralBonus(t *testing.T) {
	campaign := testCampaign()
	now := campaign.StartDate.AddDate(0, 0, 7)

	testCases := []struct {
		name      string
		volume    *float64
		wantBonus float64
		wantRules int
	}{
		{name: "volume meets threshold", volume: floatPtr(10), wantBonus: 5, wantRules: 2},
		{name: "volume above threshold", volume: floatPtr(250), wantBonus: 5, wantRules: 2},
		{name: "volume below threshold", volume: floatPtr(9.5), wantBonus: 2, wantRules: 1},
		{name: "no volume supplied", volume: nil, wantBonus: 2, wantRules: 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			eval := EvaluateCampaign(campaign, now, tc.volume)
			if eval.RateBonus != tc.wantBonus {
				t.Errorf("Expected rate bonus %v, got %v", tc.wantBonus, eval.RateBonus)
			}
			if len(eval.RuleIDs) != tc.wantRules {
				t.Errorf("Expected %d rules, got %v", tc.wantRules, eval.RuleIDs)
			}
		})
	}
}

func TestEvaluateCampaign_BonusRuleIdentifier(t *testing.T) {
	campaign := testCampaign()
	now := campaign.StartDate.AddDate(0, 0, 7)

	eval := EvaluateCampaign(campaign, now, floatPtr(50))

	if len(eval.RuleIDs) != 2 {
		t.Fatalf("Expected two rules, got %v", eval.RuleIDs)
	}
	if eval.RuleIDs[0] != "campaign:spring-push:active" {
		t.Errorf("Expected active rule first, got %q", eval.RuleIDs[0])
	}
	if eval.RuleIDs[1] != "campaign:spring-push:bonus" {
		t.Errorf("Expected bonus rule second, got %q", eval.RuleIDs[1])
	}
}
