package eligibility_test

import (
	"testing"

	"github.com/Saravanans7/PlaceMate/internal/app/policy/eligibility"
	"github.com/Saravanans7/PlaceMate/internal/domain/models"
)

func f64(v float64) *float64 { return &v }
func intp(v int) *int        { return &v }

func TestEvaluate(t *testing.T) {
	strong := models.AcademicRecord{
		CGPA: 8.5, Arrears: 0, HistoryOfArrears: 1,
		TenthPercent: 90, TwelfthPercent: 88, Batch: 2025,
	}

	tests := []struct {
		name   string
		rec    models.AcademicRecord
		rule   models.EligibilityRule
		want   bool
		failed eligibility.Criterion
	}{
		{
			name: "empty rule accepts everyone",
			rec:  models.AcademicRecord{},
			rule: models.EligibilityRule{},
			want: true,
		},
		{
			name: "all thresholds met",
			rec:  strong,
			rule: models.EligibilityRule{
				MinCGPA: f64(7), MaxArrears: intp(0), MaxHistoryArrears: intp(2),
				MinTenthPercent: f64(60), MinTwelfthPercent: f64(60),
				AcceptedBatches: []int{2024, 2025},
			},
			want: true,
		},
		{
			name:   "cgpa below minimum even though batch matches",
			rec:    models.AcademicRecord{CGPA: 6.9, Batch: 2025},
			rule:   models.EligibilityRule{MinCGPA: f64(7.0), AcceptedBatches: []int{2025}},
			want:   false,
			failed: eligibility.CGPA,
		},
		{
			name: "cgpa equal to minimum passes",
			rec:  models.AcademicRecord{CGPA: 7.0},
			rule: models.EligibilityRule{MinCGPA: f64(7.0)},
			want: true,
		},
		{
			name:   "too many arrears",
			rec:    models.AcademicRecord{Arrears: 2},
			rule:   models.EligibilityRule{MaxArrears: intp(1)},
			want:   false,
			failed: eligibility.Arrears,
		},
		{
			name: "zero max arrears with none",
			rec:  models.AcademicRecord{},
			rule: models.EligibilityRule{MaxArrears: intp(0)},
			want: true,
		},
		{
			name:   "history of arrears",
			rec:    models.AcademicRecord{HistoryOfArrears: 3},
			rule:   models.EligibilityRule{MaxHistoryArrears: intp(2)},
			want:   false,
			failed: eligibility.HistoryOfArrears,
		},
		{
			name:   "tenth percent",
			rec:    models.AcademicRecord{TenthPercent: 59.9},
			rule:   models.EligibilityRule{MinTenthPercent: f64(60)},
			want:   false,
			failed: eligibility.TenthPercent,
		},
		{
			name:   "twelfth percent",
			rec:    models.AcademicRecord{TwelfthPercent: 50},
			rule:   models.EligibilityRule{MinTwelfthPercent: f64(60)},
			want:   false,
			failed: eligibility.TwelfthPercent,
		},
		{
			name:   "batch not accepted",
			rec:    models.AcademicRecord{Batch: 2023},
			rule:   models.EligibilityRule{AcceptedBatches: []int{2024, 2025}},
			want:   false,
			failed: eligibility.Batch,
		},
		{
			name:   "missing metrics count as zero",
			rec:    models.AcademicRecord{Batch: 2025},
			rule:   models.EligibilityRule{MinCGPA: f64(0.1)},
			want:   false,
			failed: eligibility.CGPA,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := eligibility.Evaluate(tt.rec, tt.rule)
			if got.Eligible != tt.want {
				t.Fatalf("Eligible = %v, want %v", got.Eligible, tt.want)
			}
			if got.Failed != tt.failed {
				t.Errorf("Failed = %q, want %q", got.Failed, tt.failed)
			}
			if eligibility.IsEligible(tt.rec, tt.rule) != tt.want {
				t.Error("IsEligible disagrees with Evaluate")
			}
		})
	}
}

func TestEvaluate_Deterministic(t *testing.T) {
	rec := models.AcademicRecord{CGPA: 7.5, Arrears: 1, Batch: 2025}
	rule := models.EligibilityRule{MinCGPA: f64(7), MaxArrears: intp(0)}

	first := eligibility.Evaluate(rec, rule)
	for i := 0; i < 10; i++ {
		if got := eligibility.Evaluate(rec, rule); got != first {
			t.Fatalf("iteration %d: got %+v, want %+v", i, got, first)
		}
	}
}

func TestResult_Reason(t *testing.T) {
	r := eligibility.Result{Failed: eligibility.CGPA}
	if r.Reason() != "Not eligible: CGPA" {
		t.Errorf("unexpected reason %q", r.Reason())
	}
	if (eligibility.Result{Eligible: true}).Reason() != "" {
		t.Error("eligible result should have no reason")
	}
}

func TestFilter(t *testing.T) {
	students := []models.User{
		{Name: "a", AcademicRecord: models.AcademicRecord{CGPA: 8, Batch: 2025}},
		{Name: "b", AcademicRecord: models.AcademicRecord{CGPA: 6, Batch: 2025}},
		{Name: "c", AcademicRecord: models.AcademicRecord{CGPA: 9, Batch: 2024}},
	}
	rule := models.EligibilityRule{MinCGPA: f64(7), AcceptedBatches: []int{2025}}

	got := eligibility.Filter(students, rule)
	if len(got) != 1 || got[0].Name != "a" {
		t.Errorf("expected only student a, got %+v", got)
	}
}
