package services

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/possibull/possiblejourney-sub000/models"
)

// Hard-coded improvement thresholds for composite (strength-training) delta
// rules: a session counts as progress when reps grow by at least one OR
// weight grows by at least 2.5. Not user-configurable.
const (
	compositeMinRepsGain   = 1.0
	compositeMinWeightGain = 2.5
)

// EvaluateRule evaluates one progress rule against the current measurement
// and its metric context. It is a pure, total function: every input — missing
// data, malformed conditions, unknown kinds — produces an EvaluationResult,
// never a panic or an error return.
func EvaluateRule(rule *models.ProgressRule, ctx *models.MetricContext, current *models.Measurement) models.EvaluationResult {
	if current == nil {
		return models.FailedResult(models.BlockReasonNoMeasurement, "No measurement recorded for today")
	}
	if rule == nil {
		// A task without a rule passes on the recorded measurement alone.
		return models.EvaluationResult{Passed: true, CurrentValue: &current.Value, Message: "No progress rule configured"}
	}
	if ctx == nil {
		// An empty context lets the context-dependent kinds fail with their
		// own missing-data reasons instead of dereferencing nil.
		ctx = &models.MetricContext{}
	}

	switch rule.Kind {
	case models.RuleKindThreshold:
		return evaluateThreshold(rule, current)
	case models.RuleKindDeltaThreshold:
		return evaluateDeltaThreshold(rule, ctx, current)
	case models.RuleKindCountMin:
		return evaluateCountMin(rule, current)
	case models.RuleKindBooleanCondition:
		return evaluateBooleanCondition(rule, ctx, current)
	case models.RuleKindRollingWindow:
		return evaluateRollingWindow(rule, ctx, current)
	default:
		// Corrupt or future rule kinds degrade to a failed result.
		return models.FailedResult(models.BlockReasonConditionNotMet, fmt.Sprintf("Unknown rule kind %q", rule.Kind))
	}
}

func evaluateThreshold(rule *models.ProgressRule, current *models.Measurement) models.EvaluationResult {
	value := current.Value
	var passed bool
	switch rule.Comparator {
	case models.ComparatorGTE:
		passed = value >= rule.Target
	case models.ComparatorLTE:
		passed = value <= rule.Target
	case models.ComparatorEQ:
		// Exact float equality, per product behavior.
		passed = value == rule.Target
	case models.ComparatorNEQ:
		passed = value != rule.Target
	default:
		passed = false
	}

	target := rule.Target
	result := models.EvaluationResult{
		Passed:          passed,
		CurrentValue:    &value,
		ComparisonValue: &target,
	}
	if passed {
		result.Message = fmt.Sprintf("%s %s %.1f met (current: %.1f)", rule.MetricAlias, rule.Comparator, rule.Target, value)
	} else {
		reason := models.BlockReasonBelowMinimum
		result.BlockReason = &reason
		result.Message = fmt.Sprintf("%s %s %.1f not met (current: %.1f)", rule.MetricAlias, rule.Comparator, rule.Target, value)
	}
	return result
}

func evaluateDeltaThreshold(rule *models.ProgressRule, ctx *models.MetricContext, current *models.Measurement) models.EvaluationResult {
	if current.HasComposite() {
		return evaluateCompositeDeltaThreshold(rule, ctx, current)
	}

	comparison := ctx.ComparisonValue()
	if comparison == nil {
		result := models.FailedResult(models.BlockReasonNoMeasurement, "No comparison value available")
		result.CurrentValue = &current.Value
		return result
	}

	improvement := current.Value - *comparison
	passed := improvement >= rule.MinimumImprovement

	result := models.EvaluationResult{
		Passed:          passed,
		CurrentValue:    &current.Value,
		ComparisonValue: comparison,
		Improvement:     &improvement,
	}
	if passed {
		result.Message = fmt.Sprintf("Improved by %.1f (required: %.1f)", improvement, rule.MinimumImprovement)
	} else {
		reason := models.BlockReasonInsufficientImprovement
		result.BlockReason = &reason
		result.Message = fmt.Sprintf("Improvement of %.1f below required %.1f", improvement, rule.MinimumImprovement)
	}
	return result
}

// evaluateCompositeDeltaThreshold handles strength-training style composite
// measurements: pass when reps improved by >= 1 OR weight improved by >= 2.5
// over the most recent prior session.
func evaluateCompositeDeltaThreshold(rule *models.ProgressRule, ctx *models.MetricContext, current *models.Measurement) models.EvaluationResult {
	currentWeight, okW := current.CompositeFloat("weight")
	currentReps, okR := current.CompositeFloat("reps")
	if !okW || !okR {
		result := models.FailedResult(models.BlockReasonConditionNotMet, "Missing weight or reps data")
		result.CurrentValue = &current.Value
		return result
	}

	last := ctx.LastBefore(current.Timestamp)
	var lastWeight, lastReps float64
	var okLW, okLR bool
	if last != nil {
		lastWeight, okLW = last.CompositeFloat("weight")
		lastReps, okLR = last.CompositeFloat("reps")
	}
	if last == nil || !okLW || !okLR {
		result := models.FailedResult(models.BlockReasonNoMeasurement, "No previous session to compare against")
		result.CurrentValue = &current.Value
		return result
	}

	repsImproved := currentReps >= lastReps+compositeMinRepsGain
	weightImproved := currentWeight >= lastWeight+compositeMinWeightGain
	passed := repsImproved || weightImproved

	var message string
	switch {
	case repsImproved && weightImproved:
		message = fmt.Sprintf("Improved both reps (%.0f vs %.0f) and weight (%.1f vs %.1f)", currentReps, lastReps, currentWeight, lastWeight)
	case repsImproved:
		message = fmt.Sprintf("Reps improved: %.0f vs %.0f", currentReps, lastReps)
	case weightImproved:
		message = fmt.Sprintf("Weight improved: %.1f vs %.1f", currentWeight, lastWeight)
	default:
		message = fmt.Sprintf("Need +%.0f rep (currently %.0f vs %.0f) or +%.1f weight (currently %.1f vs %.1f)",
			compositeMinRepsGain, currentReps, lastReps, compositeMinWeightGain, currentWeight, lastWeight)
	}

	// Volume (weight x reps) is reported as the comparison pair.
	lastVolume := lastWeight * lastReps
	improvement := currentWeight*currentReps - lastVolume
	result := models.EvaluationResult{
		Passed:          passed,
		CurrentValue:    &current.Value,
		ComparisonValue: &lastVolume,
		Improvement:     &improvement,
		Message:         message,
	}
	if !passed {
		reason := models.BlockReasonInsufficientImprovement
		result.BlockReason = &reason
	}
	return result
}

func evaluateCountMin(rule *models.ProgressRule, current *models.Measurement) models.EvaluationResult {
	count := int(math.Floor(current.Value))
	passed := count >= rule.MinimumCount

	result := models.EvaluationResult{Passed: passed, CurrentValue: &current.Value}
	if passed {
		result.Message = fmt.Sprintf("Completed %d (required: %d)", count, rule.MinimumCount)
	} else {
		reason := models.BlockReasonBelowMinimum
		result.BlockReason = &reason
		result.Message = fmt.Sprintf("Completed %d, need at least %d", count, rule.MinimumCount)
	}
	return result
}

func evaluateBooleanCondition(rule *models.ProgressRule, ctx *models.MetricContext, current *models.Measurement) models.EvaluationResult {
	condition := strings.TrimSpace(rule.Condition)
	if strings.Contains(condition, "&&") {
		return evaluateCompoundCondition(condition, ctx, current)
	}

	value := current.Value
	var passed bool
	switch strings.ToLower(condition) {
	case "true", "yes", "1":
		passed = value > 0
	case "false", "no", "0":
		passed = value == 0
	default:
		clause, err := ParseClause(condition)
		if err != nil {
			result := models.FailedResult(models.BlockReasonConditionNotMet, err.Error())
			result.CurrentValue = &value
			return result
		}
		passed = clause.EvaluateScalar(value)
	}

	result := models.EvaluationResult{Passed: passed, CurrentValue: &value}
	if passed {
		result.Message = fmt.Sprintf("Condition %q satisfied (value: %.1f)", condition, value)
	} else {
		reason := models.BlockReasonConditionNotMet
		result.BlockReason = &reason
		result.Message = fmt.Sprintf("Condition %q not satisfied (value: %.1f)", condition, value)
	}
	return result
}

func evaluateCompoundCondition(condition string, ctx *models.MetricContext, current *models.Measurement) models.EvaluationResult {
	clauses, err := ParseCondition(condition)
	if err != nil {
		result := models.FailedResult(models.BlockReasonConditionNotMet, err.Error())
		result.CurrentValue = &current.Value
		return result
	}

	allMet := true
	messages := make([]string, 0, len(clauses))
	for _, clause := range clauses {
		met, message := clause.Evaluate(ctx, current)
		allMet = allMet && met
		messages = append(messages, message)
	}

	result := models.EvaluationResult{Passed: allMet, CurrentValue: &current.Value}
	if allMet {
		result.Message = "All conditions met: " + strings.Join(messages, ", ")
	} else {
		reason := models.BlockReasonConditionNotMet
		result.BlockReason = &reason
		result.Message = "Conditions not met: " + strings.Join(messages, ", ")
	}
	return result
}

func evaluateRollingWindow(rule *models.ProgressRule, ctx *models.MetricContext, current *models.Measurement) models.EvaluationResult {
	cutoff := current.Timestamp.Add(-time.Duration(rule.WindowDays) * 24 * time.Hour)

	var sum float64
	for i := range ctx.Measurements {
		ts := ctx.Measurements[i].Timestamp
		if !ts.Before(cutoff) && !ts.After(current.Timestamp) {
			sum += ctx.Measurements[i].Value
		}
	}
	passed := sum >= rule.TargetSum

	result := models.EvaluationResult{Passed: passed, CurrentValue: &sum}
	if passed {
		result.Message = fmt.Sprintf("Rolling sum over %d days is %.1f (required: %.1f)", rule.WindowDays, sum, rule.TargetSum)
	} else {
		reason := models.BlockReasonRollingWindowFailed
		result.BlockReason = &reason
		result.Message = fmt.Sprintf("Rolling sum over %d days is %.1f, need %.1f", rule.WindowDays, sum, rule.TargetSum)
	}
	return result
}
