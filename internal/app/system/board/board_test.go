package board

import (
	"reflect"
	"testing"

	"github.com/pragatiboard/pragati/internal/domain/models"
)

func sample() []models.Task {
	return []models.Task{
		{ID: "1", Title: "Write Report", Status: models.StatusToDo, Priority: models.PriorityHigh, Assignee: "ana"},
		{ID: "2", Title: "review report", Status: models.StatusInProgress, Priority: models.PriorityMedium, Assignee: "bo"},
		{ID: "3", Title: "Deploy", Status: models.StatusDone, Priority: models.PriorityHigh},
		{ID: "4", Title: "Plan sprint", Status: models.StatusToDo, Priority: models.PriorityLow, Assignee: "ana"},
	}
}

func ids(ts []models.Task) []string {
	out := []string{}
	for _, t := range ts {
		out = append(out, t.ID)
	}
	return out
}

func TestApply(t *testing.T) {
	tests := []struct {
		name string
		f    Filter
		want []string
	}{
		{"no filter", Filter{}, []string{"1", "2", "3", "4"}},
		{"all sentinels", Filter{Priority: All, Assignee: All}, []string{"1", "2", "3", "4"}},
		{"search case-insensitive", Filter{Search: "REPORT"}, []string{"1", "2"}},
		{"search whitespace only", Filter{Search: "  "}, []string{"1", "2", "3", "4"}},
		{"priority", Filter{Priority: "High"}, []string{"1", "3"}},
		{"assignee", Filter{Assignee: "ana"}, []string{"1", "4"}},
		{"combined", Filter{Search: "report", Priority: "High", Assignee: "ana"}, []string{"1"}},
		{"no match", Filter{Search: "zzz"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(Apply(sample(), tt.f, nil))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Apply(%+v) = %v, want %v", tt.f, got, tt.want)
			}
		})
	}
}

func TestApplyWithIDMatcher(t *testing.T) {
	got := ids(Apply(sample(), Filter{Search: "anything"}, IDMatcher([]string{"3", "4"})))
	if !reflect.DeepEqual(got, []string{"3", "4"}) {
		t.Errorf("Apply with IDMatcher = %v", got)
	}
}

func TestApplyWithAnyOf(t *testing.T) {
	m := AnyOf(IDMatcher([]string{"3"}), func(t models.Task) bool { return t.ID == "1" })
	got := ids(Apply(sample(), Filter{Search: "x"}, m))
	if !reflect.DeepEqual(got, []string{"1", "3"}) {
		t.Errorf("Apply with AnyOf = %v", got)
	}
}

func TestColumns(t *testing.T) {
	cols := Columns(append(sample(), models.Task{ID: "5", Status: "Archived"}))
	if len(cols) != 3 {
		t.Fatalf("len(cols) = %d, want 3", len(cols))
	}
	want := map[models.Status][]string{
		models.StatusToDo:       {"1", "4"},
		models.StatusInProgress: {"2"},
		models.StatusDone:       {"3"},
	}
	for i, c := range cols {
		if c.Status != models.Statuses[i] {
			t.Errorf("column %d = %q, want %q", i, c.Status, models.Statuses[i])
		}
		if got := ids(c.Tasks); !reflect.DeepEqual(got, want[c.Status]) {
			t.Errorf("column %q = %v, want %v", c.Status, got, want[c.Status])
		}
	}

	empty := Columns(nil)
	for _, c := range empty {
		if c.Tasks == nil {
			t.Errorf("empty column %q should be a non-nil slice", c.Status)
		}
	}
}

func TestAssignees(t *testing.T) {
	got := Assignees(sample())
	if !reflect.DeepEqual(got, []string{"ana", "bo"}) {
		t.Errorf("Assignees = %v", got)
	}
}

func TestBuildKeepsFullAssigneeList(t *testing.T) {
	v := Build(sample(), Filter{Assignee: "bo"}, nil)
	if v.Total != 4 || v.Shown != 1 {
		t.Errorf("Total/Shown = %d/%d", v.Total, v.Shown)
	}
	if !reflect.DeepEqual(v.Assignees, []string{"ana", "bo"}) {
		t.Errorf("Assignees = %v", v.Assignees)
	}
}
