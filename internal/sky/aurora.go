package sky

import "math"

// kpThresholds maps minimum absolute geographic latitude to the Kp index
// needed for aurora overhead. Geographic latitude stands in for magnetic
// latitude, so this is a rough guide.
var kpThresholds = []struct {
	MinLatDeg float64
	Kp        int
}{
	{66, 0},
	{64, 1},
	{62, 2},
	{60, 3},
	{58, 4},
	{54, 5},
	{50, 6},
	{46, 7},
	{40, 8},
}

// MaxKp is the top of the Kp scale.
const MaxKp = 9

// AuroraAssessment compares current geomagnetic activity to the local threshold.
type AuroraAssessment struct {
	RequiredKp    int     `json:"required_kp"`
	CurrentKp     float64 `json:"current_kp"`
	LikelyVisible bool    `json:"likely_visible"`
}

// RequiredKp returns the Kp index needed for a visible aurora at latDeg.
// It is non-increasing in |latDeg|.
func RequiredKp(latDeg float64) int {
	lat := math.Abs(latDeg)
	for _, th := range kpThresholds {
		if lat >= th.MinLatDeg {
			return th.Kp
		}
	}
	return MaxKp
}

// Assess reports whether current activity meets the required Kp.
func Assess(required int, current float64) AuroraAssessment {
	return AuroraAssessment{
		RequiredKp:    required,
		CurrentKp:     current,
		LikelyVisible: current >= float64(required),
	}
}

// AssessAt is Assess(RequiredKp(latDeg), current).
func AssessAt(latDeg, current float64) AuroraAssessment {
	return Assess(RequiredKp(latDeg), current)
}

// KpLevel returns the NOAA descriptor for a Kp value.
func KpLevel(kp float64) string {
	switch {
	case kp >= 9:
		return "G5 extreme storm"
	case kp >= 8:
		return "G4 severe storm"
	case kp >= 7:
		return "G3 strong storm"
	case kp >= 6:
		return "G2 moderate storm"
	case kp >= 5:
		return "G1 minor storm"
	case kp >= 4:
		return "Active"
	case kp >= 3:
		return "Unsettled"
	default:
		return "Quiet"
	}
}
