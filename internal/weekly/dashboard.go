package weekly

import (
	"math"
	"time"

	"github.com/homeboardhq/homeboard/internal/model"
)

// DayView is one day bucket of the weekly dashboard.
type DayView struct {
	Date                time.Time     `json:"date"`
	DayName             string        `json:"day_name"`
	Tasks               []model.Task  `json:"tasks"`
	Events              []model.Event `json:"events"`
	TaskCount           int           `json:"task_count"`
	CompletedTaskCount  int           `json:"completed_task_count"`
	EventCount          int           `json:"event_count"`
	CompletedEventCount int           `json:"completed_event_count"`
}

// Recount recomputes the bucket's aggregate counts from its lists. The
// optimistic layer recounts rather than adjusting counters so repeated edits
// cannot drift.
func (d *DayView) Recount() {
	d.TaskCount = len(d.Tasks)
	d.CompletedTaskCount = 0
	for i := range d.Tasks {
		if d.Tasks[i].Status == model.TaskStatusCompleted {
			d.CompletedTaskCount++
		}
	}
	d.EventCount = len(d.Events)
	d.CompletedEventCount = 0
	for i := range d.Events {
		if d.Events[i].Status == model.EventStatusCompleted {
			d.CompletedEventCount++
		}
	}
}

type WeekSummary struct {
	TotalTasks      int `json:"total_tasks"`
	CompletedTasks  int `json:"completed_tasks"`
	PendingTasks    int `json:"pending_tasks"`
	OverdueTasks    int `json:"overdue_tasks"`
	TotalEvents     int `json:"total_events"`
	CompletedEvents int `json:"completed_events"`
	UpcomingEvents  int `json:"upcoming_events"`
	CompletionRate  int `json:"completion_rate"`
}

// RecomputeRate derives the completion percentage from the current totals:
// round(100 * (completedTasks+completedEvents) / (totalTasks+totalEvents)),
// or 0 when there is nothing to complete.
func (s *WeekSummary) RecomputeRate() {
	total := s.TotalTasks + s.TotalEvents
	if total == 0 {
		s.CompletionRate = 0
		return
	}
	done := s.CompletedTasks + s.CompletedEvents
	s.CompletionRate = int(math.Round(100 * float64(done) / float64(total)))
}

// MemberStats is the per-member workload slice of the dashboard.
type MemberStats struct {
	MemberID       string `json:"member_id"`
	Name           string `json:"name"`
	AvatarColor    string `json:"avatar_color"`
	TasksAssigned  int    `json:"tasks_assigned"`
	TasksCompleted int    `json:"tasks_completed"`
	CompletionRate int    `json:"completion_rate"`
}

// Dashboard is the derived weekly view: seven day buckets, a week summary,
// and per-member stats. It is never persisted; it is rebuilt from task and
// event rows on every fetch and cached per (family, week start).
type Dashboard struct {
	FamilyID  string        `json:"family_id"`
	WeekStart time.Time     `json:"week_start"`
	Days      []DayView     `json:"days"`
	Summary   WeekSummary   `json:"summary"`
	Members   []MemberStats `json:"members"`
}

// Clone returns a deep copy, including every task and event. Rollback
// snapshots and values handed to callers must not alias cached state.
func (d *Dashboard) Clone() *Dashboard {
	c := *d
	c.Days = make([]DayView, len(d.Days))
	for i, day := range d.Days {
		cd := day
		cd.Tasks = make([]model.Task, len(day.Tasks))
		for j := range day.Tasks {
			cd.Tasks[j] = *day.Tasks[j].Clone()
		}
		cd.Events = make([]model.Event, len(day.Events))
		for j := range day.Events {
			cd.Events[j] = *day.Events[j].Clone()
		}
		c.Days[i] = cd
	}
	c.Members = append([]MemberStats(nil), d.Members...)
	return &c
}

// dayIndex returns which bucket the given time falls into, or -1 if it is
// outside the dashboard's week.
func (d *Dashboard) dayIndex(t time.Time) int {
	for i := range d.Days {
		if sameDay(d.Days[i].Date, t) {
			return i
		}
	}
	return -1
}

// Build assembles a Dashboard from fetched rows. weekStart must already be
// normalized. now anchors the overdue and upcoming classifications.
func Build(familyID string, weekStart time.Time, tasks []model.Task, events []model.Event, members []model.FamilyMember, now time.Time) *Dashboard {
	roster := make(map[string]*model.FamilyMember, len(members))
	for i := range members {
		roster[members[i].ID] = &members[i]
	}

	d := &Dashboard{
		FamilyID:  familyID,
		WeekStart: weekStart,
		Days:      make([]DayView, 7),
	}

	for i := range d.Days {
		date := weekStart.AddDate(0, 0, i)
		d.Days[i] = DayView{
			Date:    date,
			DayName: date.Weekday().String(),
			Tasks:   []model.Task{},
			Events:  []model.Event{},
		}
	}

	for _, t := range tasks {
		if t.AssigneeID != nil {
			if m, ok := roster[*t.AssigneeID]; ok {
				t.Assignee = m
			}
		}
		if m, ok := roster[t.CreatorID]; ok {
			t.Creator = m
		}
		if t.DueDate == nil {
			continue
		}
		if i := d.dayIndex(*t.DueDate); i >= 0 {
			d.Days[i].Tasks = append(d.Days[i].Tasks, t)
		}
	}

	for _, e := range events {
		if e.AssigneeID != nil {
			if m, ok := roster[*e.AssigneeID]; ok {
				e.Assignee = m
			}
		}
		if i := d.dayIndex(e.StartDatetime); i >= 0 {
			d.Days[i].Events = append(d.Days[i].Events, e)
		}
	}

	for i := range d.Days {
		d.Days[i].Recount()
	}

	d.Summary = summarize(tasks, events, now)

	assigned := make(map[string]int)
	completed := make(map[string]int)
	for _, t := range tasks {
		if t.AssigneeID == nil {
			continue
		}
		assigned[*t.AssigneeID]++
		if t.Status == model.TaskStatusCompleted {
			completed[*t.AssigneeID]++
		}
	}
	d.Members = make([]MemberStats, 0, len(members))
	for _, m := range members {
		stats := MemberStats{
			MemberID:       m.ID,
			Name:           m.Name,
			AvatarColor:    m.AvatarColor,
			TasksAssigned:  assigned[m.ID],
			TasksCompleted: completed[m.ID],
		}
		if stats.TasksAssigned > 0 {
			stats.CompletionRate = int(math.Round(100 * float64(stats.TasksCompleted) / float64(stats.TasksAssigned)))
		}
		d.Members = append(d.Members, stats)
	}

	return d
}

func summarize(tasks []model.Task, events []model.Event, now time.Time) WeekSummary {
	var s WeekSummary

	s.TotalTasks = len(tasks)
	for _, t := range tasks {
		if t.Status == model.TaskStatusCompleted {
			s.CompletedTasks++
			continue
		}
		if t.DueDate != nil && t.DueDate.Before(now) {
			s.OverdueTasks++
		}
	}
	s.PendingTasks = s.TotalTasks - s.CompletedTasks

	s.TotalEvents = len(events)
	for _, e := range events {
		if e.Status == model.EventStatusCompleted {
			s.CompletedEvents++
		}
		if e.Status != model.EventStatusCancelled && e.StartDatetime.After(now) {
			s.UpcomingEvents++
		}
	}

	s.RecomputeRate()
	return s
}
