package models

import (
	"testing"
	"time"
)

func validStructureRequest() CommissionStructureRequest {
	return CommissionStructureRequest{
		StructureID:           "standard",
		Name:                  "Standard",
		BaseRate:              10,
		PerformanceMultiplier: 1,
		MaxCommission:         1000,
		IsActive:              true,
	}
}

func TestCommissionStructureRequest_Validate(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*CommissionStructureRequest)
		field  string // empty means the request must pass
	}{
		{
			name:   "valid request",
			mutate: func(r *CommissionStructureRequest) {},
		},
		{
			name:   "base rate above 100",
			mutate: func(r *CommissionStructureRequest) { r.BaseRate = 101 },
			field:  "baseRate",
		},
		{
			name:   "negative base rate",
			mutate: func(r *CommissionStructureRequest) { r.BaseRate = -1 },
			field:  "baseRate",
		},
		{
			name:   "multiplier above 2",
			mutate: func(r *CommissionStructureRequest) { r.PerformanceMultiplier = 2.5 },
			field:  "performanceMultiplier",
		},
		{
			name: "min commission above max",
			mutate: func(r *CommissionStructureRequest) {
				r.MinCommission = 500
				r.MaxCommission = 100
			},
			field: "minCommission",
		},
		{
			name: "min without max is allowed",
			mutate: func(r *CommissionStructureRequest) {
				r.MinCommission = 500
				r.MaxCommission = 0
			},
		},
		{
			name: "negative threshold volume",
			mutate: func(r *CommissionStructureRequest) {
				r.VolumeThresholds = []VolumeThreshold{{MinVolume: -1, Rate: 5}}
			},
			field: "volumeThresholds",
		},
		{
			name: "threshold rate above 100",
			mutate: func(r *CommissionStructureRequest) {
				r.VolumeThresholds = []VolumeThreshold{{MinVolume: 0, Rate: 101}}
			},
			field: "volumeThresholds",
		},
		{
			name: "duplicate threshold volumes",
			mutate: func(r *CommissionStructureRequest) {
				r.VolumeThresholds = []VolumeThreshold{
					{MinVolume: 1000, Rate: 5},
					{MinVolume: 1000, Rate: 8},
				}
			},
			field: "volumeThresholds",
		},
		{
			name: "unsorted distinct thresholds are allowed",
			mutate: func(r *CommissionStructureRequest) {
				r.VolumeThresholds = []VolumeThreshold{
					{MinVolume: 5000, Rate: 8},
					{MinVolume: 0, Rate: 5},
				}
			},
		},
		{
			name: "campaign without id",
			mutate: func(r *CommissionStructureRequest) {
				r.CampaignRules = &CampaignRules{
					StartDate: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
					EndDate:   time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
				}
			},
			field: "campaignRules.campaignId",
		},
		{
			name: "campaign end before start",
			mutate: func(r *CommissionStructureRequest) {
				r.CampaignRules = &CampaignRules{
					CampaignID: "spring-push",
					StartDate:  time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
					EndDate:    time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
				}
			},
			field: "campaignRules.endDate",
		},
		{
			name: "single instant campaign is allowed",
			mutate: func(r *CommissionStructureRequest) {
				day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
				r.CampaignRules = &CampaignRules{CampaignID: "flash", StartDate: day, EndDate: day}
			},
		},
		{
			name: "campaign bonus rate above 100",
			mutate: func(r *CommissionStructureRequest) {
				r.CampaignRules = &CampaignRules{
					CampaignID: "spring-push",
					StartDate:  time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
					EndDate:    time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
					BonusRate:  150,
				}
			},
			field: "campaignRules.bonusRate",
		},
		{
			name: "negative campaign min referrals",
			mutate: func(r *CommissionStructureRequest) {
				r.CampaignRules = &CampaignRules{
					CampaignID:   "spring-push",
					StartDate:    time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
					EndDate:      time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
					MinReferrals: -1,
				}
			},
			field: "campaignRules.minReferrals",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := validStructureRequest()
			tc.mutate(&req)

			err := req.Validate()
			if tc.field == "" {
				if err != nil {
					t.Fatalf("Expected request to pass, got %v", err)
				}
				return
			}

			validationErr, ok := err.(*ValidationError)
			if !ok {
				t.Fatalf("Expected ValidationError, got %v", err)
			}
			if validationErr.Field != tc.field {
				t.Errorf("Expected offending field %q, got %q", tc.field, validationErr.Field)
			}
		})
	}
}

func TestCommissionStructureRequest_ToStructure(t *testing.T) {
	req := validStructureRequest()
	req.Description = "flat ten percent"
	req.VolumeThresholds = []VolumeThreshold{{MinVolume: 1000, Rate: 5}}

	structure := req.ToStructure()

	if structure.StructureID != "standard" || structure.Name != "Standard" {
		t.Errorf("Expected identity fields to carry over, got %+v", structure)
	}
	if structure.BaseRate != 10 || structure.MaxCommission != 1000 {
		t.Errorf("Expected rate fields to carry over, got %+v", structure)
	}
	if len(structure.VolumeThresholds) != 1 {
		t.Errorf("Expected thresholds to carry over, got %+v", structure.VolumeThresholds)
	}
	if !structure.IsActive {
		t.Error("Expected active flag to carry over")
	}
	if !structure.CreatedAt.IsZero() || !structure.ID.IsZero() {
		t.Error("Expected storage-managed fields to stay zero")
	}
}

func TestCampaignRules_IsActiveAt(t *testing.T) {
	campaign := &CampaignRules{
		CampaignID: "spring-push",
		StartDate:  time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2026, 3, 31, 23, 59, 59, 0, time.UTC),
	}

	testCases := []struct {
		name string
		now  time.Time
		want bool
	}{
		{name: "before start", now: campaign.StartDate.Add(-time.Nanosecond), want: false},
		{name: "at start", now: campaign.StartDate, want: true},
		{name: "inside window", now: campaign.StartDate.AddDate(0, 0, 10), want: true},
		{name: "at end", now: campaign.EndDate, want: true},
		{name: "after end", now: campaign.EndDate.Add(time.Nanosecond), want: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := campaign.IsActiveAt(tc.now); got != tc.want {
				t.Errorf("Expected active=%v at %v, got %v", tc.want, tc.now, got)
			}
		})
	}
}

func TestCampaignRules_NilReceiverIsInactive(t *testing.T) {
	var campaign *CampaignRules
	if campaign.IsActiveAt(time.Now()) {
		t.Error("Expected nil campaign to be inactive")
	}

	structure := &CommissionStructure{StructureID: "standard"}
	if structure.HasActiveCampaign(time.Now()) {
		t.Error("Expected structure without campaign to report no active campaign")
	}
}
