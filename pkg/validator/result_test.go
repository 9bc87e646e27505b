package validator

import (
	"testing"

	"github.com/nsxbet/sql-lessons/pkg/types"
)

func TestReport_HasErrors(t *testing.T) {
	tests := []struct {
		name     string
		report   *Report
		expected bool
	}{
		{
			name:     "no errors",
			report:   &Report{Summary: Summary{OK: 3, Skipped: 1}},
			expected: false,
		},
		{
			name:     "has errors",
			report:   &Report{Summary: Summary{Errors: 1}},
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.report.HasErrors(); got != tt.expected {
				t.Errorf("HasErrors() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestReport_String(t *testing.T) {
	r := &Report{Summary: Summary{Files: 4, Errors: 2}}
	expected := "Checked 4 files - errors: 2"
	if got := r.String(); got != expected {
		t.Errorf("String() = %q, want %q", got, expected)
	}
}

func sampleReport() *Report {
	return &Report{
		Lessons: []*types.LessonReport{
			{
				Title: "one",
				Sections: []*types.SectionReport{
					{Title: "a", Examples: []*types.ExecutionResult{
						{Name: "x", Status: types.Status_OK},
						{Name: "y", Status: types.Status_ERROR, Error: "boom"},
					}},
				},
			},
			{
				Title: "two",
				Sections: []*types.SectionReport{
					{Title: "b", Examples: []*types.ExecutionResult{
						{Name: "z", Status: types.Status_SKIPPED},
						{Name: "w", Status: types.Status_ERROR, Error: "bang"},
					}},
				},
			},
		},
		Unreadable: []UnreadableFile{{File: "bad.json", Error: "eof"}},
	}
}

func TestReport_FilterByStatus(t *testing.T) {
	r := sampleReport()

	errs := r.FilterByStatus(types.Status_ERROR)
	if len(errs) != 2 {
		t.Fatalf("FilterByStatus(ERROR) returned %d results, want 2", len(errs))
	}
	if errs[0].Name != "y" || errs[1].Name != "w" {
		t.Errorf("FilterByStatus(ERROR) order = %s,%s, want y,w", errs[0].Name, errs[1].Name)
	}

	if got := r.FilterByStatus(types.Status_UNSPECIFIED); len(got) != 0 {
		t.Errorf("FilterByStatus(UNSPECIFIED) returned %d results, want 0", len(got))
	}
}

func TestCalculateSummary(t *testing.T) {
	got := calculateSummary(sampleReport())
	expected := Summary{Files: 3, Total: 4, OK: 1, Skipped: 1, Errors: 2}
	if got != expected {
		t.Errorf("calculateSummary() = %+v, want %+v", got, expected)
	}
}
