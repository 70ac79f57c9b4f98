// Package board turns a task listing into the three-column board view.
package board

import (
	"sort"
	"strings"

	"github.com/pragatiboard/pragati/internal/domain/models"
)

// All disables a priority or assignee filter.
const All = "All"

// Filter narrows the visible tasks. Zero values show everything.
type Filter struct {
	Search   string `json:"q"`
	Priority string `json:"priority"`
	Assignee string `json:"assignee"`
}

// Matcher decides whether a task matches the search text. The default is a
// case-insensitive substring match on the title.
type Matcher func(t models.Task) bool

// TitleMatcher matches titles containing q, ignoring case.
func TitleMatcher(q string) Matcher {
	q = strings.ToLower(strings.TrimSpace(q))
	return func(t models.Task) bool {
		return strings.Contains(strings.ToLower(t.Title), q)
	}
}

// IDMatcher matches tasks whose id is in ids.
func IDMatcher(ids []string) Matcher {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return func(t models.Task) bool { return set[t.ID] }
}

// AnyOf matches tasks that any of ms matches.
func AnyOf(ms ...Matcher) Matcher {
	return func(t models.Task) bool {
		for _, m := range ms {
			if m(t) {
				return true
			}
		}
		return false
	}
}

// Apply returns the tasks that pass f, in their original order. match is
// used for the search text; nil means TitleMatcher(f.Search).
func Apply(tasks []models.Task, f Filter, match Matcher) []models.Task {
	search := strings.TrimSpace(f.Search) != ""
	if search && match == nil {
		match = TitleMatcher(f.Search)
	}
	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if search && !match(t) {
			continue
		}
		if f.Priority != "" && f.Priority != All && string(t.Priority) != f.Priority {
			continue
		}
		if f.Assignee != "" && f.Assignee != All && t.Assignee != f.Assignee {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Column is one status lane.
type Column struct {
	Status models.Status `json:"status"`
	Tasks  []models.Task `json:"tasks"`
}

// Columns groups tasks by status in board order. Every status gets a column,
// even when empty. Tasks with an unknown status are dropped.
func Columns(tasks []models.Task) []Column {
	cols := make([]Column, len(models.Statuses))
	idx := make(map[models.Status]int, len(models.Statuses))
	for i, st := range models.Statuses {
		cols[i] = Column{Status: st, Tasks: []models.Task{}}
		idx[st] = i
	}
	for _, t := range tasks {
		if i, ok := idx[t.Status]; ok {
			cols[i].Tasks = append(cols[i].Tasks, t)
		}
	}
	return cols
}

// Assignees returns the distinct non-empty assignees, sorted.
func Assignees(tasks []models.Task) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, t := range tasks {
		if t.Assignee == "" || seen[t.Assignee] {
			continue
		}
		seen[t.Assignee] = true
		out = append(out, t.Assignee)
	}
	sort.Strings(out)
	return out
}

// View is the full board payload.
type View struct {
	Columns   []Column `json:"columns"`
	Assignees []string `json:"assignees"`
	Total     int      `json:"total"`
	Shown     int      `json:"shown"`
}

// Build filters tasks and groups the result. Assignees are taken from the
// unfiltered list so the filter menu does not shrink as it is used.
func Build(tasks []models.Task, f Filter, match Matcher) View {
	shown := Apply(tasks, f, match)
	return View{
		Columns:   Columns(shown),
		Assignees: Assignees(tasks),
		Total:     len(tasks),
		Shown:     len(shown),
	}
}
