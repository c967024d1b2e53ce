package models

import "time"

// GanttFilter narrows range aggregation.
type GanttFilter struct {
	ProjectIDs []string
	UserIDs    []string
	Statuses   []BookingStatus
}

// GanttRow is one horizontal bar: an assignment and its days inside the window.
type GanttRow struct {
	AssignmentID     string          `json:"assignment_id"`
	ProjectID        string          `json:"project_id"`
	ProjectName      string          `json:"project_name"`
	ProjectCreatedAt time.Time       `json:"-"`
	UserID           string          `json:"user_id"`
	UserName         string          `json:"user_name"`
	BookingStatus    BookingStatus   `json:"booking_status"`
	SpanStart        time.Time       `json:"span_start"`
	SpanEnd          time.Time       `json:"span_end"`
	Days             []AssignmentDay `json:"days"`
}

// GanttProject groups rows of one project for rendering.
type GanttProject struct {
	ProjectID   string     `json:"project_id"`
	ProjectName string     `json:"project_name"`
	Rows        []GanttRow `json:"rows"`
}

// GroupByProject groups ordered rows while preserving their order.
func GroupByProject(rows []GanttRow) []GanttProject {
	groups := make([]GanttProject, 0)
	index := make(map[string]int)
	for _, row := range rows {
		i, ok := index[row.ProjectID]
		if !ok {
			groups = append(groups, GanttProject{ProjectID: row.ProjectID, ProjectName: row.ProjectName})
			i = len(groups) - 1
			index[row.ProjectID] = i
		}
		groups[i].Rows = append(groups[i].Rows, row)
	}
	return groups
}
