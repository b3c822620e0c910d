package services

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/investlink/commission_backend/models"
)

// stubStructureStore serves structures from memory, returning a copy per
// lookup the way the Mongo repository does.
type stubStructureStore struct {
	structures map[string]*models.CommissionStructure
}

func (s *stubStructureStore) GetByStructureID(ctx context.Context, structureID string) (*models.CommissionStructure, error) {
	structure, ok := s.structures[structureID]
	if !ok {
		return nil, models.ErrStructureNotFound
	}
	snapshot := *structure
	return &snapshot, nil
}

func newTestCalculator(structures ...*models.CommissionStructure) *CommissionCalculator {
	store := &stubStructureStore{structures: make(map[string]*models.CommissionStructure)}
	for _, s := range structures {
		store.structures[s.StructureID] = s
	}
	return NewCommissionCalculator(store)
}

func basicStructure() *models.CommissionStructure {
	return &models.CommissionStructure{
		StructureID:           "standard",
		Name:                  "Standard",
		BaseRate:              10,
		PerformanceMultiplier: 1,
		MinCommission:         0,
		MaxCommission:         1000,
		IsActive:              true,
	}
}

func TestCalculate_BaseRateOnly(t *testing.T) {
	calc := newTestCalculator(basicStructure())

	result, err := calc.Calculate(context.Background(), CalculationInput{
		StructureID: "standard",
		BaseAmount:  5000,
		Now:         time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}

	if !floatEquals(result.FinalAmount, 500, 1e-9) {
		t.Errorf("Expected final amount 500 (10%% of 5000), got %v", result.FinalAmount)
	}
	if result.EffectiveRate != 10 {
		t.Errorf("Expected effective rate 10, got %v", result.EffectiveRate)
	}

	// Only the base contribution belongs in the breakdown.
	if len(result.Breakdown) != 1 {
		t.Errorf("Expected breakdown with just base, got %v", result.Breakdown)
	}
	base, ok := result.Breakdown[models.BreakdownBase].(float64)
	if !ok || !floatEquals(base, 500, 1e-9) {
		t.Errorf("Expected breakdown base 500, got %v", result.Breakdown[models.BreakdownBase])
	}
	if len(result.AppliedRules) != 0 {
		t.Errorf("Expected no applied rules, got %v", result.AppliedRules)
	}
	if result.PerformanceBonus != 0 || result.CampaignBonus != 0 || result.VolumeAdjustment != 0 {
		t.Errorf("Expected zero bonuses, got %+v", result)
	}
}

func TestCalculate_MaxCommissionClamp(t *testing.T) {
	structure := basicStructure()
	structure.MaxCommission = 300
	calc := newTestCalculator(structure)

	result, err := calc.Calculate(context.Background(), CalculationInput{
		StructureID: "standard",
		BaseAmount:  5000,
	})
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}

	if result.FinalAmount != 300 {
		t.Errorf("Expected final amount clamped to 300, got %v", result.FinalAmount)
	}
	clamped, ok := result.Breakdown[models.BreakdownClampApplied].(bool)
	if !ok || !clamped {
		t.Errorf("Expected clamp_applied=true in breakdown, got %v", result.Breakdown)
	}
}

func TestCalculate_MinCommissionFloor(t *testing.T) {
	structure := basicStructure()
	structure.MinCommission = 100
	calc := newTestCalculator(structure)

	result, err := calc.Calculate(context.Background(), CalculationInput{
		StructureID: "standard",
		BaseAmount:  50, // raw 5, well below the floor
	})
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}

	if result.FinalAmount != 100 {
		t.Errorf("Expected floor to lift final amount to 100, got %v", result.FinalAmount)
	}
	if clamped, ok := result.Breakdown[models.BreakdownClampApplied].(bool); !ok || !clamped {
		t.Errorf("Expected clamp_applied=true, got %v", result.Breakdown)
	}
}

func TestCalculate_CumulativeThresholdReplacesBaseRate(t *testing.T) {
	structure := basicStructure()
	structure.MaxCommission = 0 // no cap
	structure.VolumeThresholds = []models.VolumeThreshold{
		{MinVolume: 0, Rate: 10, IsCumulative: true},
		{MinVolume: 10000, Rate: 15, IsCumulative: true},
	}
	calc := newTestCalculator(structure)

	result, err := calc.Calculate(context.Background(), CalculationInput{
		StructureID: "standard",
		BaseAmount:  20000,
		Volume:      floatPtr(15000),
	})
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}

	if result.EffectiveRate != 15 {
		t.Errorf("Expected cumulative rate 15 to replace the base rate, got %v", result.EffectiveRate)
	}
	if !floatEquals(result.FinalAmount, 3000, 1e-9) {
		t.Errorf("Expected final amount 3000 (15%% of 20000), got %v", result.FinalAmount)
	}
	if result.VolumeAdjustment != 0 {
		t.Errorf("Expected no flat adjustment for cumulative threshold, got %v", result.VolumeAdjustment)
	}
	if len(result.AppliedRules) != 1 || result.AppliedRules[0] != "volume:cumulative:10000" {
		t.Errorf("Expected volume:cumulative:10000 rule, got %v", result.AppliedRules)
	}
}

func TestCalculate_IncrementalThresholdAddsAdjustment(t *testing.T) {
	structure := basicStructure()
	structure.MaxCommission = 0
	structure.VolumeThresholds = []models.VolumeThreshold{
		{MinVolume: 10000, Rate: 5, IsCumulative: false},
	}
	calc := newTestCalculator(structure)

	result, err := calc.Calculate(context.Background(), CalculationInput{
		StructureID: "standard",
		BaseAmount:  20000,
		Volume:      floatPtr(15000),
	})
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}

	// Base keeps its own 10% (2000) and the increment adds 5000*5/100 = 250.
	if !floatEquals(result.FinalAmount, 2250, 1e-9) {
		t.Errorf("Expected final amount 2250, got %v", result.FinalAmount)
	}
	if !floatEquals(result.VolumeAdjustment, 250, 1e-9) {
		t.Errorf("Expected volume adjustment 250, got %v", result.VolumeAdjustment)
	}
	if result.EffectiveRate != 10 {
		t.Errorf("Expected effective rate to stay at 10, got %v", result.EffectiveRate)
	}
	adj, ok := result.Breakdown[models.BreakdownVolumeAdjustment].(float64)
	if !ok || !floatEquals(adj, 250, 1e-9) {
		t.Errorf("Expected volume_adjustment 250 in breakdown, got %v", result.Breakdown)
	}
	if len(result.AppliedRules) != 1 || result.AppliedRules[0] != "volume:incremental:10000" {
		t.Errorf("Expected volume:incremental:10000 rule, got %v", result.AppliedRules)
	}
}

func TestCalculate_CampaignAndPerformanceStack(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	structure := basicStructure()
	structure.MaxCommission = 0
	structure.CampaignRules = &models.CampaignRules{
		CampaignID:   "spring-push",
		StartDate:    time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:      time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
		BaseRate:     2,
		BonusRate:    3,
		MinReferrals: 10,
	}
	calc := newTestCalculator(structure)

	metrics := &models.PerformanceMetricsInput{
		ConversionRate: 100,
		ResponseTime:   0,
		QualityScore:   100,
		ActivityLevel:  100,
	}

	result, err := calc.Calculate(context.Background(), CalculationInput{
		StructureID: "standard",
		BaseAmount:  1000,
		Metrics:     metrics,
		Volume:      floatPtr(20),
		Now:         now,
	})
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}

	// base 10 + campaign 2+3 + performance 1.0*1*10 = 25 points.
	if !floatEquals(result.EffectiveRate, 25, 1e-9) {
		t.Errorf("Expected effective rate 25, got %v", result.EffectiveRate)
	}
	if !floatEquals(result.FinalAmount, 250, 1e-9) {
		t.Errorf("Expected final amount 250, got %v", result.FinalAmount)
	}
	if !floatEquals(result.CampaignBonus, 50, 1e-9) {
		t.Errorf("Expected campaign bonus 50, got %v", result.CampaignBonus)
	}
	if !floatEquals(result.PerformanceBonus, 100, 1e-9) {
		t.Errorf("Expected performance bonus 100, got %v", result.PerformanceBonus)
	}

	wantRules := []string{"campaign:spring-push:active", "campaign:spring-push:bonus", "performance:applied"}
	if !reflect.DeepEqual(result.AppliedRules, wantRules) {
		t.Errorf("Expected rules %v, got %v", wantRules, result.AppliedRules)
	}
}

func TestCalculate_CampaignCapBindsWhenTighter(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	structure := basicStructure()
	structure.MaxCommission = 1000
	structure.CampaignRules = &models.CampaignRules{
		CampaignID:    "spring-push",
		StartDate:     time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:       time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
		BaseRate:      2,
		MaxCommission: 400,
	}
	calc := newTestCalculator(structure)

	result, err := calc.Calculate(context.Background(), CalculationInput{
		StructureID: "standard",
		BaseAmount:  5000, // raw 12% = 600, above the campaign cap
		Now:         now,
	})
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}

	if result.FinalAmount != 400 {
		t.Errorf("Expected campaign cap 400 to bind, got %v", result.FinalAmount)
	}

	// Outside the window the campaign cap must not apply.
	after, err := calc.Calculate(context.Background(), CalculationInput{
		StructureID: "standard",
		BaseAmount:  5000,
		Now:         time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}
	if after.FinalAmount != 500 {
		t.Errorf("Expected plain 10%% of 5000 after the campaign, got %v", after.FinalAmount)
	}
	if after.CampaignBonus != 0 {
		t.Errorf("Expected no campaign bonus outside the window, got %v", after.CampaignBonus)
	}
}

func TestCalculate_OmittedMetricsMeanNoPerformanceBonus(t *testing.T) {
	calc := newTestCalculator(basicStructure())

	result, err := calc.Calculate(context.Background(), CalculationInput{
		StructureID: "standard",
		BaseAmount:  5000,
	})
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}

	if result.PerformanceBonus != 0 {
		t.Errorf("Expected performance bonus exactly 0, got %v", result.PerformanceBonus)
	}
	for _, rule := range result.AppliedRules {
		if rule == "performance:applied" {
			t.Errorf("Expected no performance rule, got %v", result.AppliedRules)
		}
	}
}

func TestCalculate_Deterministic(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	structure := basicStructure()
	structure.CampaignRules = &models.CampaignRules{
		CampaignID: "spring-push",
		StartDate:  time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
		BaseRate:   2,
	}
	structure.VolumeThresholds = []models.VolumeThreshold{
		{MinVolume: 1000, Rate: 5, IsCumulative: false},
	}
	calc := newTestCalculator(structure)

	input := CalculationInput{
		StructureID: "standard",
		BaseAmount:  5000,
		Metrics:     &models.PerformanceMetricsInput{ConversionRate: 60, ResponseTime: 4, QualityScore: 80, ActivityLevel: 70},
		Volume:      floatPtr(2500),
		Now:         now,
	}

	first, err := calc.Calculate(context.Background(), input)
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}
	second, err := calc.Calculate(context.Background(), input)
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Expected identical results for identical inputs:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestCalculate_VolumeMonotonicity(t *testing.T) {
	structure := basicStructure()
	structure.MaxCommission = 0
	structure.VolumeThresholds = []models.VolumeThreshold{
		{MinVolume: 0, Rate: 10, IsCumulative: true},
		{MinVolume: 5000, Rate: 12, IsCumulative: true},
		{MinVolume: 10000, Rate: 15, IsCumulative: true},
	}
	calc := newTestCalculator(structure)

	previous := -1.0
	for _, volume := range []float64{0, 1000, 4999, 5000, 7500, 9999, 10000, 50000} {
		result, err := calc.Calculate(context.Background(), CalculationInput{
			StructureID: "standard",
			BaseAmount:  10000,
			Volume:      floatPtr(volume),
		})
		if err != nil {
			t.Fatalf("Calculate failed at volume %v: %v", volume, err)
		}
		if result.FinalAmount < previous {
			t.Errorf("Final amount decreased from %v to %v at volume %v", previous, result.FinalAmount, volume)
		}
		previous = result.FinalAmount
	}
}

func TestCalculate_StructureNotFound(t *testing.T) {
	calc := newTestCalculator(basicStructure())

	_, err := calc.Calculate(context.Background(), CalculationInput{
		StructureID: "missing",
		BaseAmount:  100,
	})

	if !errors.Is(err, models.ErrStructureNotFound) {
		t.Errorf("Expected ErrStructureNotFound, got %v", err)
	}
}

func TestCalculate_InactiveStructure(t *testing.T) {
	structure := basicStructure()
	structure.IsActive = false
	calc := newTestCalculator(structure)

	_, err := calc.Calculate(context.Background(), CalculationInput{
		StructureID: "standard",
		BaseAmount:  100,
	})

	if !errors.Is(err, models.ErrInactiveStructure) {
		t.Errorf("Expected ErrInactiveStructure, got %v", err)
	}
	if errors.Is(err, models.ErrStructureNotFound) {
		t.Error("Inactive must stay distinct from not-found")
	}
}

func TestCalculate_InputValidation(t *testing.T) {
	calc := newTestCalculator(basicStructure())

	testCases := []struct {
		name  string
		input CalculationInput
		field string
	}{
		{
			name:  "missing structure id",
			input: CalculationInput{BaseAmount: 100},
			field: "structureId",
		},
		{
			name:  "negative base amount",
			input: CalculationInput{StructureID: "standard", BaseAmount: -1},
			field: "baseAmount",
		},
		{
			name:  "negative volume",
			input: CalculationInput{StructureID: "standard", BaseAmount: 100, Volume: floatPtr(-5)},
			field: "volume",
		},
		{
			name: "conversion rate out of range",
			input: CalculationInput{
				StructureID: "standard",
				BaseAmount:  100,
				Metrics:     &models.PerformanceMetricsInput{ConversionRate: 101},
			},
			field: "conversionRate",
		},
		{
			name: "negative response time",
			input: CalculationInput{
				StructureID: "standard",
				BaseAmount:  100,
				Metrics:     &models.PerformanceMetricsInput{ResponseTime: -1},
			},
			field: "responseTime",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := calc.Calculate(context.Background(), tc.input)

			var validationErr *models.ValidationError
			if !errors.As(err, &validationErr) {
				t.Fatalf("Expected ValidationError, got %v", err)
			}
			if validationErr.Field != tc.field {
				t.Errorf("Expected offending field %q, got %q", tc.field, validationErr.Field)
			}
		})
	}
}

func TestCalculate_CorruptedConfiguration(t *testing.T) {
	structure := basicStructure()
	structure.VolumeThresholds = []models.VolumeThreshold{
		{MinVolume: 1000, Rate: 5, IsCumulative: false},
		{MinVolume: 1000, Rate: 8, IsCumulative: false},
	}
	calc := newTestCalculator(structure)

	_, err := calc.Calculate(context.Background(), CalculationInput{
		StructureID: "standard",
		BaseAmount:  100,
	})

	var configErr *models.ConfigurationError
	if !errors.As(err, &configErr) {
		t.Fatalf("Expected ConfigurationError for duplicate minVolume, got %v", err)
	}
	if configErr.StructureID != "standard" {
		t.Errorf("Expected structure id in error, got %q", configErr.StructureID)
	}
}

func TestCalculate_ZeroBaseAmount(t *testing.T) {
	calc := newTestCalculator(basicStructure())

	result, err := calc.Calculate(context.Background(), CalculationInput{
		StructureID: "standard",
		BaseAmount:  0,
	})
	if err != nil {
		t.Fatalf("Expected zero base amount to be valid, got %v", err)
	}
	if result.FinalAmount != 0 {
		t.Errorf("Expected final amount 0, got %v", result.FinalAmount)
	}
}
