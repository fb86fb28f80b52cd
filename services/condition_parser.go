package services

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/possibull/possiblejourney-sub000/models"
)

// The condition mini-language accepted by boolean-condition rules:
//
//	expr   := clause ('&&' clause)*
//	clause := [identifier] comparator literal
//	literal := number | 'true' | 'false'
//
// No OR, no parentheses, no nesting. Parsing failures are enumerable values
// (ConditionError) and always degrade to a failed evaluation, never a crash.

// Comparator is a comparison operator in a condition clause.
type Comparator string

const (
	CmpGTE Comparator = ">="
	CmpLTE Comparator = "<="
	CmpEQ  Comparator = "=="
	CmpNEQ Comparator = "!="
	CmpGT  Comparator = ">"
	CmpLT  Comparator = "<"
)

// ConditionErrorReason enumerates the ways a clause can be malformed.
type ConditionErrorReason string

const (
	ReasonEmptyClause       ConditionErrorReason = "empty_clause"
	ReasonMissingComparator ConditionErrorReason = "missing_comparator"
	ReasonBadLiteral        ConditionErrorReason = "bad_literal"
	ReasonBoolComparator    ConditionErrorReason = "bool_literal_needs_equality"
)

// ConditionError describes a malformed clause. Callers treat it as data: a
// rule with an unparseable condition evaluates to condition-not-met.
type ConditionError struct {
	Clause string
	Reason ConditionErrorReason
}

func (e *ConditionError) Error() string {
	return fmt.Sprintf("invalid condition clause %q: %s", e.Clause, e.Reason)
}

// Clause is one parsed comparison. Identifier may be empty, in which case the
// clause applies to the measurement's scalar value directly.
type Clause struct {
	Identifier string
	Comparator Comparator
	IsBool     bool
	BoolValue  bool
	Number     float64
	Raw        string
}

// ParseCondition splits an expression on '&&' and parses every clause. The
// first malformed clause aborts the parse.
func ParseCondition(expr string) ([]Clause, error) {
	parts := strings.Split(expr, "&&")
	clauses := make([]Clause, 0, len(parts))
	for _, part := range parts {
		clause, err := ParseClause(part)
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, clause)
	}
	return clauses, nil
}

// ParseClause tokenizes a single clause: optional identifier, comparator,
// literal.
func ParseClause(raw string) (Clause, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Clause{}, &ConditionError{Clause: raw, Reason: ReasonEmptyClause}
	}

	i := 0
	for i < len(s) && isIdentChar(s[i]) {
		i++
	}
	identifier := strings.TrimSpace(s[:i])
	rest := strings.TrimSpace(s[i:])

	var cmp Comparator
	switch {
	case strings.HasPrefix(rest, string(CmpGTE)):
		cmp = CmpGTE
	case strings.HasPrefix(rest, string(CmpLTE)):
		cmp = CmpLTE
	case strings.HasPrefix(rest, string(CmpEQ)):
		cmp = CmpEQ
	case strings.HasPrefix(rest, string(CmpNEQ)):
		cmp = CmpNEQ
	case strings.HasPrefix(rest, string(CmpGT)):
		cmp = CmpGT
	case strings.HasPrefix(rest, string(CmpLT)):
		cmp = CmpLT
	default:
		return Clause{}, &ConditionError{Clause: raw, Reason: ReasonMissingComparator}
	}
	literal := strings.TrimSpace(rest[len(cmp):])
	if literal == "" {
		return Clause{}, &ConditionError{Clause: raw, Reason: ReasonBadLiteral}
	}

	clause := Clause{Identifier: identifier, Comparator: cmp, Raw: s}
	switch strings.ToLower(literal) {
	case "true", "false":
		if cmp != CmpEQ && cmp != CmpNEQ {
			return Clause{}, &ConditionError{Clause: raw, Reason: ReasonBoolComparator}
		}
		clause.IsBool = true
		clause.BoolValue = strings.ToLower(literal) == "true"
	default:
		n, err := strconv.ParseFloat(literal, 64)
		if err != nil {
			return Clause{}, &ConditionError{Clause: raw, Reason: ReasonBadLiteral}
		}
		clause.Number = n
	}
	return clause, nil
}

// EvaluateScalar applies the clause to a bare numeric value, ignoring the
// identifier. Used for single-clause conditions on a task's own metric.
func (c Clause) EvaluateScalar(value float64) bool {
	if c.IsBool {
		truthy := value > 0
		if c.Comparator == CmpNEQ {
			return truthy != c.BoolValue
		}
		return truthy == c.BoolValue
	}
	return compareFloat(value, c.Comparator, c.Number)
}

// Evaluate resolves the clause's identifier against the current measurement
// and applies the comparison. Numeric identifiers resolve in order:
// composite-value key, metric-name substring match, then the measurement's
// scalar value. Boolean identifiers resolve: composite-value key (non-zero),
// the measurement's boolean value, then scalar value > 0.
func (c Clause) Evaluate(ctx *models.MetricContext, m *models.Measurement) (bool, string) {
	if c.IsBool {
		actual := resolveBool(c.Identifier, m)
		met := actual == c.BoolValue
		if c.Comparator == CmpNEQ {
			met = actual != c.BoolValue
		}
		return met, fmt.Sprintf("%s %s %t (current: %t)", c.Identifier, c.Comparator, c.BoolValue, actual)
	}
	actual := resolveNumeric(c.Identifier, ctx, m)
	met := compareFloat(actual, c.Comparator, c.Number)
	if met {
		return true, fmt.Sprintf("%s %s %.1f (current: %.1f)", c.Identifier, c.Comparator, c.Number, actual)
	}
	return false, fmt.Sprintf("%s %s %.1f not met (current: %.1f)", c.Identifier, c.Comparator, c.Number, actual)
}

func isIdentChar(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// compareFloat uses exact equality for == and !=, matching the configured
// product behavior for threshold comparators.
func compareFloat(value float64, cmp Comparator, target float64) bool {
	switch cmp {
	case CmpGTE:
		return value >= target
	case CmpLTE:
		return value <= target
	case CmpEQ:
		return value == target
	case CmpNEQ:
		return value != target
	case CmpGT:
		return value > target
	case CmpLT:
		return value < target
	default:
		return false
	}
}

func resolveNumeric(identifier string, ctx *models.MetricContext, m *models.Measurement) float64 {
	if identifier != "" {
		if v, ok := m.CompositeFloat(identifier); ok {
			return v
		}
		if ctx != nil && strings.Contains(strings.ToLower(ctx.Metric.Name), strings.ToLower(identifier)) {
			return m.Value
		}
	}
	return m.Value
}

func resolveBool(identifier string, m *models.Measurement) bool {
	if identifier != "" {
		if v, ok := m.CompositeFloat(identifier); ok {
			return v != 0
		}
	}
	if m.BooleanValue != nil {
		return *m.BooleanValue
	}
	return m.Value > 0
}
