package services

import (
	"math"
	"testing"

	"github.com/investlink/commission_backend/models"
)

// floatEquals compares two floats with tolerance
func floatEquals(a, b, tolerance float64) bool {
	return math.Abs(a-b) <= tolerance
}

func floatPtr(v float64) *float64 {
	return &v
}

func TestResolveVolumeThreshold_NoEffect(t *testing.T) {
	thresholds := []models.VolumeThreshold{
		{MinVolume: 1000, Rate: 5, IsCumulative: false},
	}

	testCases := []struct {
		name       string
		volume     *float64
		thresholds []models.VolumeThreshold
	}{
		{name: "nil volume", volume: nil, thresholds: thresholds},
		{name: "empty thresholds", volume: floatPtr(5000), thresholds: nil},
		{name: "volume below all thresholds", volume: floatPtr(500), thresholds: thresholds},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res := ResolveVolumeThreshold(tc.volume, tc.thresholds)
			if res.CumulativeRate != nil {
				t.Errorf("Expected no cumulative rate, got %v", *res.CumulativeRate)
			}
			if res.Adjustment != 0 {
				t.Errorf("Expected adjustment 0, got %v", res.Adjustment)
			}
			if res.RuleID != "" {
				t.Errorf("Expected no rule, got %q", res.RuleID)
			}
		})
	}
}

func TestResolveVolumeThreshold_CumulativePicksHighestReached(t *testing.T) {
	thresholds := []models.VolumeThreshold{
		{MinVolume: 0, Rate: 10, IsCumulative: true},
		{MinVolume: 10000, Rate: 15, IsCumulative: true},
	}

	res := ResolveVolumeThreshold(floatPtr(15000), thresholds)

	if res.CumulativeRate == nil {
		t.Fatal("Expected a cumulative rate")
	}
	if *res.CumulativeRate != 15 {
		t.Errorf("Expected cumulative rate 15, got %v", *res.CumulativeRate)
	}
	if res.Adjustment != 0 {
		t.Errorf("Expected adjustment 0 for cumulative threshold, got %v", res.Adjustment)
	}
	if res.RuleID != "volume:cumulative:10000" {
		t.Errorf("Expected rule volume:cumulative:10000, got %q", res.RuleID)
	}
}

func TestResolveVolumeThreshold_CumulativeBelowSecondTier(t *testing.T) {
	thresholds := []models.VolumeThreshold{
		{MinVolume: 0, Rate: 10, IsCumulative: true},
		{MinVolume: 10000, Rate: 15, IsCumulative: true},
	}

	res := ResolveVolumeThreshold(floatPtr(9999), thresholds)

	if res.CumulativeRate == nil {
		t.Fatal("Expected a cumulative rate")
	}
	if *res.CumulativeRate != 10 {
		t.Errorf("Expected cumulative rate 10, got %v", *res.CumulativeRate)
	}
	if res.RuleID != "volume:cumulative:0" {
		t.Errorf("Expected rule volume:cumulative:0, got %q", res.RuleID)
	}
}

func TestResolveVolumeThreshold_IncrementalAdjustment(t *testing.T) {
	thresholds := []models.VolumeThreshold{
		{MinVolume: 10000, Rate: 5, IsCumulative: false},
	}

	res := ResolveVolumeThreshold(floatPtr(15000), thresholds)

	if res.CumulativeRate != nil {
		t.Errorf("Expected no cumulative rate, got %v", *res.CumulativeRate)
	}
	// (15000 - 10000) * 5 / 100 = 250
	if !floatEquals(res.Adjustment, 250, 1e-9) {
		t.Errorf("Expected adjustment 250, got %v", res.Adjustment)
	}
	if res.RuleID != "volume:incremental:10000" {
		t.Errorf("Expected rule volume:incremental:10000, got %q", res.RuleID)
	}
}

func TestResolveVolumeThreshold_ExactBoundaryIsInclusive(t *testing.T) {
	thresholds := []models.VolumeThreshold{
		{MinVolume: 10000, Rate: 5, IsCumulative: false},
	}

	res := ResolveVolumeThreshold(floatPtr(10000), thresholds)

	if res.RuleID != "volume:incremental:10000" {
		t.Errorf("Expected threshold to fire at its own minVolume, got rule %q", res.RuleID)
	}
	if res.Adjustment != 0 {
		t.Errorf("Expected zero increment at the boundary, got %v", res.Adjustment)
	}
}

func TestResolveVolumeThreshold_UnsortedInput(t *testing.T) {
	thresholds := []models.VolumeThreshold{
		{MinVolume: 10000, Rate: 15, IsCumulative: true},
		{MinVolume: 0, Rate: 10, IsCumulative: true},
		{MinVolume: 5000, Rate: 12, IsCumulative: true},
	}

	res := ResolveVolumeThreshold(floatPtr(7500), thresholds)

	if res.CumulativeRate == nil || *res.CumulativeRate != 12 {
		t.Fatalf("Expected the 5000 tier to win for volume 7500, got %+v", res)
	}

	// The caller's slice must keep its original order.
	if thresholds[0].MinVolume != 10000 || thresholds[1].MinVolume != 0 {
		t.Error("Expected input slice to stay unsorted")
	}
}

func TestResolveVolumeThreshold_EqualMinVolumeLaterDeclarationWins(t *testing.T) {
	// Duplicate minVolume violates the structure invariant; the resolver still
	// behaves deterministically and prefers the later-declared threshold.
	thresholds := []models.VolumeThreshold{
		{MinVolume: 1000, Rate: 5, IsCumulative: true},
		{MinVolume: 1000, Rate: 8, IsCumulative: true},
	}

	res := ResolveVolumeThreshold(floatPtr(2000), thresholds)

	if res.CumulativeRate == nil || *res.CumulativeRate != 8 {
		t.Fatalf("Expected later-declared duplicate to win, got %+v", res)
	}
}
