package models

import (
	"errors"
	"fmt"
)

// RuleKind discriminates the closed set of progress-rule variants. Exactly one
// variant's fields are meaningful per rule; adding a kind must update
// AllRuleKinds, Validate, and the evaluator dispatch (the exhaustiveness test
// in the services package enforces this).
type RuleKind string

const (
	// RuleKindThreshold compares the current value against a fixed target.
	RuleKindThreshold RuleKind = "threshold"
	// RuleKindDeltaThreshold requires a minimum improvement over the
	// comparison value (or the composite strength-training variant).
	RuleKindDeltaThreshold RuleKind = "delta_threshold"
	// RuleKindCountMin requires the current value, truncated, to reach a
	// minimum count.
	RuleKindCountMin RuleKind = "count_min"
	// RuleKindBooleanCondition evaluates a condition expression against the
	// current measurement.
	RuleKindBooleanCondition RuleKind = "boolean_condition"
	// RuleKindRollingWindow requires the value sum over a trailing window to
	// reach a target.
	RuleKindRollingWindow RuleKind = "rolling_window"
)

// AllRuleKinds lists every valid rule kind.
var AllRuleKinds = []RuleKind{
	RuleKindThreshold,
	RuleKindDeltaThreshold,
	RuleKindCountMin,
	RuleKindBooleanCondition,
	RuleKindRollingWindow,
}

// Comparators accepted by threshold rules.
const (
	ComparatorGTE = ">="
	ComparatorLTE = "<="
	ComparatorEQ  = "=="
	ComparatorNEQ = "!="
)

// ProgressRule is a discriminated union over the five rule kinds. Stored as a
// JSON column on Task.
type ProgressRule struct {
	Kind RuleKind `json:"kind"`

	// Threshold fields.
	MetricAlias string  `json:"metric_alias,omitempty"`
	Comparator  string  `json:"comparator,omitempty"`
	Target      float64 `json:"target,omitempty"`

	// DeltaThreshold fields.
	MinimumImprovement float64 `json:"minimum_improvement,omitempty"`

	// CountMin fields.
	MinimumCount int `json:"minimum_count,omitempty"`

	// BooleanCondition fields.
	Condition string `json:"condition,omitempty"`

	// RollingWindow fields. TargetSum is compared against a value sum over
	// the window, despite the original feature's "target count" naming.
	TargetSum  float64 `json:"target_sum,omitempty"`
	WindowDays int     `json:"window_days,omitempty"`
}

// NewThresholdRule builds a threshold rule.
func NewThresholdRule(metricAlias, comparator string, target float64) *ProgressRule {
	return &ProgressRule{Kind: RuleKindThreshold, MetricAlias: metricAlias, Comparator: comparator, Target: target}
}

// NewDeltaThresholdRule builds a delta-threshold rule.
func NewDeltaThresholdRule(minimumImprovement float64) *ProgressRule {
	return &ProgressRule{Kind: RuleKindDeltaThreshold, MinimumImprovement: minimumImprovement}
}

// NewCountMinRule builds a count-minimum rule.
func NewCountMinRule(minimumCount int) *ProgressRule {
	return &ProgressRule{Kind: RuleKindCountMin, MinimumCount: minimumCount}
}

// NewBooleanConditionRule builds a boolean-condition rule.
func NewBooleanConditionRule(condition string) *ProgressRule {
	return &ProgressRule{Kind: RuleKindBooleanCondition, Condition: condition}
}

// NewRollingWindowRule builds a rolling-window rule.
func NewRollingWindowRule(targetSum float64, windowDays int) *ProgressRule {
	return &ProgressRule{Kind: RuleKindRollingWindow, TargetSum: targetSum, WindowDays: windowDays}
}

// Validate checks that the rule's kind is known and its variant fields are
// usable. A rule failing validation still evaluates (to a failed result); this
// is for surfacing configuration problems at template-creation time.
func (r *ProgressRule) Validate() error {
	if r == nil {
		return errors.New("progress rule cannot be nil")
	}
	switch r.Kind {
	case RuleKindThreshold:
		switch r.Comparator {
		case ComparatorGTE, ComparatorLTE, ComparatorEQ, ComparatorNEQ:
			return nil
		default:
			return fmt.Errorf("threshold rule has unknown comparator %q", r.Comparator)
		}
	case RuleKindDeltaThreshold:
		return nil
	case RuleKindCountMin:
		if r.MinimumCount < 0 {
			return fmt.Errorf("count_min rule has negative minimum count %d", r.MinimumCount)
		}
		return nil
	case RuleKindBooleanCondition:
		if r.Condition == "" {
			return errors.New("boolean_condition rule has empty condition")
		}
		return nil
	case RuleKindRollingWindow:
		if r.WindowDays <= 0 {
			return fmt.Errorf("rolling_window rule has non-positive window of %d days", r.WindowDays)
		}
		return nil
	default:
		return fmt.Errorf("unknown rule kind %q", r.Kind)
	}
}
