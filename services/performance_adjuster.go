package services

import (
	"github.com/investlink/commission_backend/models"
)

// PerformanceEvaluation is the outcome of scoring an agent's performance
// metrics against a structure's performance multiplier.
type PerformanceEvaluation struct {
	// Score is the normalized composite score in [0,1].
	Score float64
	// RateBonus is the percentage-point bonus derived from the score:
	// score * multiplier * baseRate.
	RateBonus float64
	RuleIDs   []string
}

// PerformanceWeights sets the relative weight of each scoring term. Weights
// are normalized by their sum, so only their ratio matters.
type PerformanceWeights struct {
	ConversionRate float64
	Responsiveness float64
	QualityScore   float64
	ActivityLevel  float64
}

// UniformPerformanceWeights weighs all four terms equally.
func UniformPerformanceWeights() PerformanceWeights {
	return PerformanceWeights{
		ConversionRate: 1,
		Responsiveness: 1,
		QualityScore:   1,
		ActivityLevel:  1,
	}
}

// EvaluatePerformance computes the performance-driven rate bonus for the given
// metrics with the default uniform weighting. The score averages four
// normalized terms: conversion rate, responsiveness (fading to zero at 24h
// response time), quality score, and activity level. The bonus scales the
// structure's own base rate, so a multiplier of 2 can at most double the base
// contribution.
func EvaluatePerformance(metrics *models.PerformanceMetricsInput, multiplier, baseRate float64) PerformanceEvaluation {
	return EvaluatePerformanceWeighted(metrics, multiplier, baseRate, UniformPerformanceWeights())
}

// EvaluatePerformanceWeighted scores the metrics with caller-chosen term
// weights. Non-positive weight sums fall back to uniform weighting.
func EvaluatePerformanceWeighted(metrics *models.PerformanceMetricsInput, multiplier, baseRate float64, weights PerformanceWeights) PerformanceEvaluation {
	if metrics == nil {
		return PerformanceEvaluation{}
	}

	total := weights.ConversionRate + weights.Responsiveness + weights.QualityScore + weights.ActivityLevel
	if total <= 0 {
		weights = UniformPerformanceWeights()
		total = 4
	}

	responsiveness := 1.0 - metrics.ResponseTime/24.0
	if responsiveness < 0 {
		responsiveness = 0
	}

	score := (weights.ConversionRate*(metrics.ConversionRate/100.0) +
		weights.Responsiveness*responsiveness +
		weights.QualityScore*(metrics.QualityScore/100.0) +
		weights.ActivityLevel*(metrics.ActivityLevel/100.0)) / total

	eval := PerformanceEvaluation{
		Score:     score,
		RateBonus: score * multiplier * baseRate,
	}
	if score > 0 {
		eval.RuleIDs = []string{"performance:applied"}
	}
	return eval
}
