package ml

import (
	"fmt"
	"math"
)

type Tier string

const (
	TierLow    Tier = "Low"
	TierMedium Tier = "Medium"
	TierStrong Tier = "Strong"
)

const (
	strongThreshold = 0.8
	mediumThreshold = 0.6
)

// Message is the sentence shown to the user for the tier.
func (t Tier) Message() string {
	switch t {
	case TierStrong:
		return "Strong chances of Heart Failure"
	case TierMedium:
		return "Medium chances of Heart Failure"
	default:
		return "Low Chances of Heart Failure"
	}
}

// Clamp maps a raw regression score into [0,1]. The model is a linear
// regression on a binary label, so raw scores routinely leave that range.
func Clamp(score float64) float64 {
	if score >= 1 {
		return 1
	}
	if score <= 0 || math.IsNaN(score) {
		return 0
	}
	return score
}

func TierFor(fraction float64) Tier {
	switch {
	case fraction >= strongThreshold:
		return TierStrong
	case fraction >= mediumThreshold:
		return TierMedium
	default:
		return TierLow
	}
}

type Assessment struct {
	Score      float64 `json:"score"`
	Fraction   float64 `json:"fraction"`
	Percentage string  `json:"percentage"`
	Tier       Tier    `json:"tier"`
	Message    string  `json:"message"`
}

func Assess(score float64) Assessment {
	fraction := Clamp(score)
	tier := TierFor(fraction)
	return Assessment{
		Score:      score,
		Fraction:   fraction,
		Percentage: FormatPercentage(fraction),
		Tier:       tier,
		Message:    tier.Message(),
	}
}

func FormatPercentage(fraction float64) string {
	return fmt.Sprintf("%.2f%%", fraction*100)
}
