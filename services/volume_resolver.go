// services/volume_resolver.go
package services

import (
	"sort"
	"strconv"

	"github.com/investlink/commission_backend/models"
)

// VolumeResolution is the outcome of matching a transaction volume against a
// structure's volume thresholds.
type VolumeResolution struct {
	// CumulativeRate replaces the structure's base rate when the matched
	// threshold is cumulative. Nil when no cumulative threshold matched.
	CumulativeRate *float64
	// Adjustment is the flat amount contributed by an incremental threshold:
	// (volume - minVolume) * rate / 100. Zero otherwise.
	Adjustment float64
	// RuleID identifies the threshold that fired. Empty when none did.
	RuleID string
}

// ResolveVolumeThreshold selects the highest threshold whose minVolume does not
// exceed the given volume and computes its effect. A nil volume or an empty
// threshold list yields an empty resolution.
func ResolveVolumeThreshold(volume *float64, thresholds []models.VolumeThreshold) VolumeResolution {
	if volume == nil || len(thresholds) == 0 {
		return VolumeResolution{}
	}

	// Sort a copy by ascending minVolume so the caller's slice stays untouched.
	// The stable sort keeps declaration order between equal minVolumes, so the
	// later-declared threshold wins the match deterministically.
	sorted := make([]models.VolumeThreshold, len(thresholds))
	copy(sorted, thresholds)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].MinVolume < sorted[j].MinVolume
	})

	matched := -1
	for i := range sorted {
		if sorted[i].MinVolume <= *volume {
			matched = i
		}
	}
	if matched < 0 {
		// Volume sits below every threshold
		return VolumeResolution{}
	}

	threshold := sorted[matched]
	if threshold.IsCumulative {
		rate := threshold.Rate
		return VolumeResolution{
			CumulativeRate: &rate,
			RuleID:         "volume:cumulative:" + formatThresholdVolume(threshold.MinVolume),
		}
	}
	return VolumeResolution{
		Adjustment: (*volume - threshold.MinVolume) * threshold.Rate / 100.0,
		RuleID:     "volume:incremental:" + formatThresholdVolume(threshold.MinVolume),
	}
}

func formatThresholdVolume(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
