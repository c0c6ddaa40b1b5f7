// Package eligibility decides whether a student's academic record satisfies
// a registration's eligibility rule.
//
// Rules:
//   - A nil threshold places no constraint on that dimension
//   - An empty AcceptedBatches list accepts every batch
//   - All present constraints must hold
//
// The functions are pure; callers decide what a failure means (silently
// skip during notification, reject with a reason at apply time).
package eligibility

import (
	"github.com/Saravanans7/PlaceMate/internal/domain/models"
)

// Criterion names the dimension a student failed on.
type Criterion string

const (
	CGPA             Criterion = "CGPA"
	Arrears          Criterion = "arrears"
	HistoryOfArrears Criterion = "history of arrears"
	TenthPercent     Criterion = "10th %"
	TwelfthPercent   Criterion = "12th %"
	Batch            Criterion = "batch"
)

// Result is the outcome of evaluating a rule.
type Result struct {
	Eligible bool
	Failed   Criterion // set when Eligible is false
}

// Reason returns the user-facing message for an ineligible result.
func (r Result) Reason() string {
	if r.Eligible {
		return ""
	}
	return "Not eligible: " + string(r.Failed)
}

// Evaluate checks rec against rule and reports the first unmet criterion.
// Checks run in a fixed order so the reported criterion is stable.
func Evaluate(rec models.AcademicRecord, rule models.EligibilityRule) Result {
	if rule.MinCGPA != nil && rec.CGPA < *rule.MinCGPA {
		return Result{Failed: CGPA}
	}
	if rule.MaxArrears != nil && rec.Arrears > *rule.MaxArrears {
		return Result{Failed: Arrears}
	}
	if rule.MaxHistoryArrears != nil && rec.HistoryOfArrears > *rule.MaxHistoryArrears {
		return Result{Failed: HistoryOfArrears}
	}
	if rule.MinTenthPercent != nil && rec.TenthPercent < *rule.MinTenthPercent {
		return Result{Failed: TenthPercent}
	}
	if rule.MinTwelfthPercent != nil && rec.TwelfthPercent < *rule.MinTwelfthPercent {
		return Result{Failed: TwelfthPercent}
	}
	if len(rule.AcceptedBatches) > 0 && !containsInt(rule.AcceptedBatches, rec.Batch) {
		return Result{Failed: Batch}
	}
	return Result{Eligible: true}
}

// IsEligible reports whether rec satisfies every constraint in rule.
func IsEligible(rec models.AcademicRecord, rule models.EligibilityRule) bool {
	return Evaluate(rec, rule).Eligible
}

// Filter returns the records in students that satisfy rule, preserving order.
func Filter(students []models.User, rule models.EligibilityRule) []models.User {
	out := make([]models.User, 0, len(students))
	for _, s := range students {
		if IsEligible(s.AcademicRecord, rule) {
			out = append(out, s)
		}
	}
	return out
}

func containsInt(xs []int, v int) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}
